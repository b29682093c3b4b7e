// Package memory provides an in-memory implementation of store.Store.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/wfm-tracker/internal/model"
	"github.com/rickgao/wfm-tracker/internal/store"
)

// Store is an in-memory store. It is safe for concurrent use and is
// primarily intended for tests and local development.
type Store struct {
	mu     sync.RWMutex
	items  map[uuid.UUID]model.Item
	bySlug map[string]uuid.UUID
	orders map[uuid.UUID][]model.Order
	points map[uuid.UUID][]model.PricePoint
	now    func() time.Time
}

var _ store.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		items:  make(map[uuid.UUID]model.Item),
		bySlug: make(map[string]uuid.UUID),
		orders: make(map[uuid.UUID][]model.Order),
		points: make(map[uuid.UUID][]model.PricePoint),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ItemStore implementation -----------------------------------------------------

func (s *Store) UpsertItem(_ context.Context, item model.Item) (model.Item, error) {
	if strings.TrimSpace(item.Slug) == "" {
		return model.Item{}, fmt.Errorf("upsert item: slug is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if id, ok := s.bySlug[item.Slug]; ok {
		existing := s.items[id]
		existing.Name = item.Name
		existing.Tags = slices.Clone(item.Tags)
		existing.UpdatedAt = now
		s.items[id] = existing
		return cloneItem(existing), nil
	}

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.Tags = slices.Clone(item.Tags)
	item.CreatedAt = now
	item.UpdatedAt = now
	s.items[item.ID] = item
	s.bySlug[item.Slug] = item.ID
	return cloneItem(item), nil
}

func (s *Store) GetItemBySlug(_ context.Context, slug string) (model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.bySlug[slug]
	if !ok {
		return model.Item{}, fmt.Errorf("item %s: %w", slug, store.ErrNotFound)
	}
	return cloneItem(s.items[id]), nil
}

func (s *Store) ListItems(_ context.Context) ([]model.Item, error) {
	return s.listItems(func(model.Item) bool { return true }), nil
}

func (s *Store) ListItemsByTier(_ context.Context, maxTier int) ([]model.Item, error) {
	return s.listItems(func(it model.Item) bool { return it.Tier <= maxTier }), nil
}

func (s *Store) listItems(keep func(model.Item) bool) []model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.Item, 0, len(s.items))
	for _, it := range s.items {
		if keep(it) {
			result = append(result, cloneItem(it))
		}
	}
	slices.SortFunc(result, func(a, b model.Item) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Slug, b.Slug)
	})
	return result
}

// Tx implementation --------------------------------------------------------------

func (s *Store) ReplaceOrders(ctx context.Context, itemID uuid.UUID, orders []model.Order) (int, error) {
	var inserted int
	err := s.WithTx(ctx, func(tx store.Tx) error {
		var err error
		inserted, err = tx.ReplaceOrders(ctx, itemID, orders)
		return err
	})
	return inserted, err
}

func (s *Store) InsertPricePoint(ctx context.Context, p model.PricePoint) error {
	return s.WithTx(ctx, func(tx store.Tx) error {
		return tx.InsertPricePoint(ctx, p)
	})
}

func (s *Store) MarkPolled(ctx context.Context, itemID uuid.UUID, at time.Time) error {
	return s.WithTx(ctx, func(tx store.Tx) error {
		return tx.MarkPolled(ctx, itemID, at)
	})
}

// WithTx holds the store lock for the duration of fn and applies the staged
// writes only if fn succeeds. fn must not call back into the Store itself.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{s: s}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, apply := range tx.ops {
		apply()
	}
	return nil
}

// Read helpers -------------------------------------------------------------------

func (s *Store) ListOrders(_ context.Context, itemID uuid.UUID) ([]model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := slices.Clone(s.orders[itemID])
	slices.SortStableFunc(result, func(a, b model.Order) int { return a.Price - b.Price })
	return result, nil
}

func (s *Store) ListPricePoints(_ context.Context, itemID uuid.UUID, limit int) ([]model.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := s.points[itemID]
	result := make([]model.PricePoint, 0, len(points))
	for i := len(points) - 1; i >= 0; i-- {
		if limit > 0 && len(result) == limit {
			break
		}
		result = append(result, points[i])
	}
	return result, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() {}

// memTx stages writes against a locked Store.
type memTx struct {
	s   *Store
	ops []func()
}

func (tx *memTx) ReplaceOrders(_ context.Context, itemID uuid.UUID, orders []model.Order) (int, error) {
	if _, ok := tx.s.items[itemID]; !ok {
		return 0, fmt.Errorf("replace orders for %s: %w", itemID, store.ErrNotFound)
	}

	now := tx.s.now()
	seen := make(map[string]bool, len(orders))
	rows := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if seen[o.OrderID] {
			continue
		}
		seen[o.OrderID] = true

		o.ID = uuid.New()
		o.ItemID = itemID
		if o.CreatedAt.IsZero() {
			o.CreatedAt = now
		}
		rows = append(rows, o)
	}

	tx.ops = append(tx.ops, func() {
		tx.s.orders[itemID] = rows
	})
	return len(rows), nil
}

func (tx *memTx) InsertPricePoint(_ context.Context, p model.PricePoint) error {
	if _, ok := tx.s.items[p.ItemID]; !ok {
		return fmt.Errorf("insert price point for %s: %w", p.ItemID, store.ErrNotFound)
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = tx.s.now()
	}

	tx.ops = append(tx.ops, func() {
		tx.s.points[p.ItemID] = append(tx.s.points[p.ItemID], p)
	})
	return nil
}

func (tx *memTx) MarkPolled(_ context.Context, itemID uuid.UUID, at time.Time) error {
	if _, ok := tx.s.items[itemID]; !ok {
		return fmt.Errorf("mark polled %s: %w", itemID, store.ErrNotFound)
	}

	tx.ops = append(tx.ops, func() {
		it := tx.s.items[itemID]
		polled := at
		it.LastPolled = &polled
		tx.s.items[itemID] = it
	})
	return nil
}

func cloneItem(it model.Item) model.Item {
	it.Tags = slices.Clone(it.Tags)
	if it.LastPolled != nil {
		polled := *it.LastPolled
		it.LastPolled = &polled
	}
	return it
}
