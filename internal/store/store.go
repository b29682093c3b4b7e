// Package store defines the persistence interfaces for catalog items, order
// snapshots and price history.
//
// Two implementations exist: store/postgres (pgx) for production and
// store/memory for tests and local runs.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/wfm-tracker/internal/model"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ItemStore persists tracked catalog items.
type ItemStore interface {
	// UpsertItem inserts an item keyed by slug. On conflict only the name and
	// tags of the stored row are overwritten. Returns the stored item.
	UpsertItem(ctx context.Context, item model.Item) (model.Item, error)

	// GetItemBySlug returns ErrNotFound for an unknown slug.
	GetItemBySlug(ctx context.Context, slug string) (model.Item, error)

	// ListItems returns all items ordered by name.
	ListItems(ctx context.Context) ([]model.Item, error)

	// ListItemsByTier returns items with tier <= maxTier ordered by name.
	ListItemsByTier(ctx context.Context, maxTier int) ([]model.Item, error)
}

// Tx groups the per-item writes of a poll. Writes made through a Tx commit
// together or not at all.
type Tx interface {
	// ReplaceOrders deletes every stored order for the item and inserts the
	// given set, skipping rows whose OrderID repeats within the batch.
	// Returns the number of rows inserted.
	ReplaceOrders(ctx context.Context, itemID uuid.UUID, orders []model.Order) (int, error)

	// InsertPricePoint appends a price history point.
	InsertPricePoint(ctx context.Context, p model.PricePoint) error

	// MarkPolled sets the item's last-polled timestamp.
	MarkPolled(ctx context.Context, itemID uuid.UUID, at time.Time) error
}

// Store is the full persistence surface used by the tracker. Its Tx methods
// run in their own transaction when called directly.
type Store interface {
	ItemStore
	Tx

	// ListOrders returns the item's stored orders ordered by price ascending.
	ListOrders(ctx context.Context, itemID uuid.UUID) ([]model.Order, error)

	// ListPricePoints returns up to limit points for the item, newest first.
	// A non-positive limit returns all points.
	ListPricePoints(ctx context.Context, itemID uuid.UUID, limit int) ([]model.PricePoint, error)

	// WithTx runs fn in a transaction, committing if fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Ping(ctx context.Context) error
	Close()
}
