package orderbook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rickgao/wfm-tracker/internal/api"
	"github.com/rickgao/wfm-tracker/internal/model"
	"github.com/rickgao/wfm-tracker/internal/store"
)

// OrderSource fetches live orders for an item. *api.Client satisfies it.
type OrderSource interface {
	GetItemOrders(ctx context.Context, slug string) ([]api.APIOrder, error)
}

// ReconcileError reports a storage failure while replacing an item's orders.
type ReconcileError struct {
	Slug string
	Err  error
}

func (e *ReconcileError) Error() string {
	return fmt.Sprintf("reconcile %s: %v", e.Slug, e.Err)
}

func (e *ReconcileError) Unwrap() error {
	return e.Err
}

// Snapshot is the result of fetching an item's orders.
type Snapshot struct {
	Item model.Item

	// Fetched holds every order returned by the API, across all platforms.
	Fetched []api.APIOrder

	// Orders is the platform-filtered set that gets stored.
	Orders []model.Order
	Buy    []model.Order
	Sell   []model.Order

	// Stored is the number of rows inserted by Apply, after duplicate
	// order IDs were skipped.
	Stored int

	FetchedAt time.Time
}

// Reconciler replaces stored order snapshots with live data.
type Reconciler struct {
	source   OrderSource
	store    store.Store
	platform string
	logger   *slog.Logger
	now      func() time.Time
}

// NewReconciler creates a Reconciler keeping only orders from platform. An
// empty platform keeps every order.
func NewReconciler(source OrderSource, st store.Store, platform string, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		source:   source,
		store:    st,
		platform: platform,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Platform returns the platform orders are filtered to.
func (r *Reconciler) Platform() string {
	return r.platform
}

// Fetch loads the item's live orders and converts the tracked-platform subset
// to model orders. Errors come from the upstream API.
func (r *Reconciler) Fetch(ctx context.Context, item model.Item) (Snapshot, error) {
	fetched, err := r.source.GetItemOrders(ctx, item.Slug)
	if err != nil {
		return Snapshot{}, err
	}

	now := r.now()
	snap := Snapshot{
		Item:      item,
		Fetched:   fetched,
		FetchedAt: now,
	}

	kept := FilterPlatform(fetched, r.platform)
	snap.Orders = make([]model.Order, 0, len(kept))
	for i := range kept {
		o, ok := kept[i].ToModel(item.ID, now)
		if !ok {
			r.logger.Debug("skipping order with unknown side",
				"slug", item.Slug,
				"order_id", kept[i].ID,
				"type", kept[i].Type,
			)
			continue
		}
		snap.Orders = append(snap.Orders, o)
	}
	snap.Buy, snap.Sell = Partition(snap.Orders)

	return snap, nil
}

// Apply replaces the stored orders with the snapshot and marks the item
// polled, both through tx. Failures are returned as *ReconcileError.
func (r *Reconciler) Apply(ctx context.Context, tx store.Tx, snap *Snapshot) error {
	stored, err := tx.ReplaceOrders(ctx, snap.Item.ID, snap.Orders)
	if err != nil {
		return &ReconcileError{Slug: snap.Item.Slug, Err: err}
	}
	snap.Stored = stored

	if err := tx.MarkPolled(ctx, snap.Item.ID, snap.FetchedAt); err != nil {
		return &ReconcileError{Slug: snap.Item.Slug, Err: err}
	}

	if dropped := len(snap.Orders) - stored; dropped > 0 {
		r.logger.Debug("skipped duplicate orders", "slug", snap.Item.Slug, "count", dropped)
	}
	return nil
}

// Reconcile fetches and stores the item's orders in one transaction.
func (r *Reconciler) Reconcile(ctx context.Context, item model.Item) (Snapshot, error) {
	snap, err := r.Fetch(ctx, item)
	if err != nil {
		return Snapshot{}, err
	}

	if err := r.store.WithTx(ctx, func(tx store.Tx) error {
		return r.Apply(ctx, tx, &snap)
	}); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// FilterPlatform returns the orders placed by traders on platform. An empty
// platform returns orders unchanged.
func FilterPlatform(orders []api.APIOrder, platform string) []api.APIOrder {
	if platform == "" {
		return orders
	}
	kept := make([]api.APIOrder, 0, len(orders))
	for _, o := range orders {
		if o.User.Platform == platform {
			kept = append(kept, o)
		}
	}
	return kept
}

// Partition splits orders by side, preserving order.
func Partition(orders []model.Order) (buy, sell []model.Order) {
	for _, o := range orders {
		switch o.Side {
		case model.SideBuy:
			buy = append(buy, o)
		case model.SideSell:
			sell = append(sell, o)
		}
	}
	return buy, sell
}
