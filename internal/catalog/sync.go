package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/rickgao/wfm-tracker/internal/api"
	"github.com/rickgao/wfm-tracker/internal/metrics"
	"github.com/rickgao/wfm-tracker/internal/model"
	"github.com/rickgao/wfm-tracker/internal/store"
)

// ItemSource fetches the remote item catalog. *api.Client satisfies it.
type ItemSource interface {
	GetItems(ctx context.Context) ([]api.APIItem, error)
}

// Config controls which items are tracked and the values set on insert.
type Config struct {
	TrackedTag          string
	NamePrefix          string
	Category            string
	Language            string
	DefaultTier         int
	DefaultPollInterval int // minutes
}

// DefaultConfig tracks primed mods at tier 1.
func DefaultConfig() Config {
	return Config{
		TrackedTag:          "mod",
		NamePrefix:          "primed",
		Category:            "mod",
		Language:            api.DefaultLanguage,
		DefaultTier:         1,
		DefaultPollInterval: 5,
	}
}

// Result summarises a sync run.
type Result struct {
	Synced int      `json:"synced"`
	Items  []string `json:"items"`
}

// Syncer upserts tracked catalog items into storage.
type Syncer struct {
	cfg    Config
	source ItemSource
	items  store.ItemStore
	logger *slog.Logger
}

// NewSyncer creates a Syncer.
func NewSyncer(cfg Config, source ItemSource, items store.ItemStore, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Language == "" {
		cfg.Language = api.DefaultLanguage
	}
	return &Syncer{
		cfg:    cfg,
		source: source,
		items:  items,
		logger: logger,
	}
}

// Sync fetches the remote catalog and upserts every tracked item. A fetch
// failure or any upsert failure aborts the run; syncing is idempotent so the
// next run picks up where this one stopped.
func (s *Syncer) Sync(ctx context.Context) (Result, error) {
	start := time.Now()
	s.logger.Info("starting catalog sync")

	remote, err := s.source.GetItems(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetch catalog: %w", err)
	}

	result := Result{Items: []string{}}
	for i := range remote {
		ri := &remote[i]
		if !s.Matches(ri) {
			continue
		}

		item := model.Item{
			Slug:         ri.Slug,
			Name:         ri.LocalizedName(s.cfg.Language),
			Category:     s.cfg.Category,
			Tags:         slices.Clone(ri.Tags),
			Tier:         s.cfg.DefaultTier,
			PollInterval: s.cfg.DefaultPollInterval,
		}
		if item.Tags == nil {
			item.Tags = []string{}
		}

		if _, err := s.items.UpsertItem(ctx, item); err != nil {
			return result, fmt.Errorf("upsert %s: %w", ri.Slug, err)
		}
		result.Synced++
		result.Items = append(result.Items, item.Name)
	}

	metrics.RecordCatalogSync(result.Synced)
	s.logger.Info("catalog sync complete",
		"remote", len(remote),
		"synced", result.Synced,
		"duration", time.Since(start),
	)
	return result, nil
}

// Matches reports whether a remote item belongs to the tracked subset: it
// carries the tracked tag and its English name starts with the prefix,
// ignoring case.
func (s *Syncer) Matches(item *api.APIItem) bool {
	if !slices.Contains(item.Tags, s.cfg.TrackedTag) {
		return false
	}
	en, ok := item.I18N[api.DefaultLanguage]
	if !ok || en.Name == "" {
		return false
	}
	return strings.HasPrefix(strings.ToLower(en.Name), strings.ToLower(s.cfg.NamePrefix))
}
