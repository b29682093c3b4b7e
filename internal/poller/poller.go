package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/wfm-tracker/internal/aggregate"
	"github.com/rickgao/wfm-tracker/internal/metrics"
	"github.com/rickgao/wfm-tracker/internal/model"
	"github.com/rickgao/wfm-tracker/internal/orderbook"
	"github.com/rickgao/wfm-tracker/internal/store"
)

// ErrCycleRunning is returned by RunCycle when another cycle on the same
// Runner has not finished yet.
var ErrCycleRunning = errors.New("poll cycle already running")

// Config holds runner configuration.
type Config struct {
	MaxTier     int           // items with tier <= MaxTier are polled (default: 1)
	ItemTimeout time.Duration // per-item deadline, 0 for none
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTier: 1,
	}
}

// ItemResult is the outcome of polling one item.
type ItemResult struct {
	Slug       string `json:"slug"`
	Orders     int    `json:"orders"`
	PricePoint bool   `json:"pricePoint"`
	Err        error  `json:"-"`
}

// OK reports whether the item was fully polled.
func (r ItemResult) OK() bool {
	return r.Err == nil
}

// Summary reports a poll cycle.
type Summary struct {
	Polled   int           `json:"polled"`
	Total    int           `json:"total"`
	Failed   []string      `json:"failed,omitempty"`
	Duration time.Duration `json:"-"`
	Results  []ItemResult  `json:"-"`
}

// Runner executes poll cycles over the tracked catalog.
type Runner struct {
	cfg        Config
	store      store.Store
	reconciler *orderbook.Reconciler
	aggregator *aggregate.Aggregator
	logger     *slog.Logger

	running sync.Mutex
}

// NewRunner creates a Runner.
func NewRunner(cfg Config, st store.Store, rec *orderbook.Reconciler, agg *aggregate.Aggregator, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxTier == 0 {
		cfg.MaxTier = DefaultConfig().MaxTier
	}
	return &Runner{
		cfg:        cfg,
		store:      st,
		reconciler: rec,
		aggregator: agg,
		logger:     logger,
	}
}

// RunCycle polls every tracked item sequentially. A failure on one item is
// logged and counted; the cycle moves on to the next item. Only a failure to
// load the item list is returned as an error, or the context error when the
// cycle is cancelled part-way, in which case the partial summary is returned
// alongside it. Cycles never overlap: a call made while another is in
// progress returns ErrCycleRunning without touching the store.
func (r *Runner) RunCycle(ctx context.Context) (Summary, error) {
	if !r.running.TryLock() {
		return Summary{}, ErrCycleRunning
	}
	defer r.running.Unlock()

	start := time.Now()

	items, err := r.store.ListItemsByTier(ctx, r.cfg.MaxTier)
	if err != nil {
		return Summary{}, fmt.Errorf("load tracked items: %w", err)
	}

	summary := Summary{
		Total:   len(items),
		Results: make([]ItemResult, 0, len(items)),
	}
	r.logger.Info("starting poll cycle",
		"items", len(items),
		"max_tier", r.cfg.MaxTier,
		"platform", r.reconciler.Platform(),
	)

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			r.logger.Warn("poll cycle cancelled",
				"polled", summary.Polled,
				"total", summary.Total,
				"err", err,
			)
			return summary, err
		}

		res := r.pollItem(ctx, item)
		summary.Results = append(summary.Results, res)
		metrics.RecordItemPoll(res.OK())

		if !res.OK() {
			summary.Failed = append(summary.Failed, item.Slug)
			r.logger.Warn("failed to poll item", "slug", item.Slug, "err", res.Err)
			continue
		}

		summary.Polled++
		r.logger.Debug("polled item",
			"slug", item.Slug,
			"orders", res.Orders,
			"price_point", res.PricePoint,
			"progress", fmt.Sprintf("%d/%d", summary.Polled, summary.Total),
		)
	}

	summary.Duration = time.Since(start)
	metrics.ObservePollCycle(summary.Duration)

	r.logger.Info("poll cycle complete",
		"polled", summary.Polled,
		"total", summary.Total,
		"failed", len(summary.Failed),
		"duration", summary.Duration,
	)
	return summary, nil
}

// pollItem fetches, reconciles and aggregates one item. The HTTP fetch runs
// outside the transaction; every write for the item commits together.
func (r *Runner) pollItem(ctx context.Context, item model.Item) ItemResult {
	res := ItemResult{Slug: item.Slug}

	if r.cfg.ItemTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.ItemTimeout)
		defer cancel()
	}

	snap, err := r.reconciler.Fetch(ctx, item)
	if err != nil {
		res.Err = err
		return res
	}

	point, ok := r.aggregator.Aggregate(item, snap.Fetched)

	err = r.store.WithTx(ctx, func(tx store.Tx) error {
		if err := r.reconciler.Apply(ctx, tx, &snap); err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := tx.InsertPricePoint(ctx, point); err != nil {
			return fmt.Errorf("insert price point for %s: %w", item.Slug, err)
		}
		return nil
	})
	if err != nil {
		res.Err = err
		return res
	}

	res.Orders = snap.Stored
	res.PricePoint = ok
	if ok {
		metrics.RecordPricePoint()
	}
	return res
}
