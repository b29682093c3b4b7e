// Package postgres implements store.Store on PostgreSQL using pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/wfm-tracker/internal/model"
	"github.com/rickgao/wfm-tracker/internal/store"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store is a pgx-backed store.
type Store struct {
	pool *pgxpool.Pool
	q    querier
	inTx bool
}

var _ store.Store = (*Store)(nil)

// New wraps an existing pool. The store takes ownership of the pool and
// closes it on Close.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, q: pool}
}

const itemColumns = `id, slug, name, category, tags, tier, poll_interval, last_polled, created_at, updated_at`

func (s *Store) UpsertItem(ctx context.Context, item model.Item) (model.Item, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	tags := item.Tags
	if tags == nil {
		tags = []string{}
	}

	row := s.q.QueryRow(ctx, `
		INSERT INTO items (id, slug, name, category, tags, tier, poll_interval, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (slug) DO UPDATE
		SET name = EXCLUDED.name, tags = EXCLUDED.tags, updated_at = now()
		RETURNING `+itemColumns,
		item.ID, item.Slug, item.Name, item.Category, tags, item.Tier, item.PollInterval,
	)

	stored, err := scanItem(row)
	if err != nil {
		return model.Item{}, fmt.Errorf("upsert item %s: %w", item.Slug, err)
	}
	return stored, nil
}

func (s *Store) GetItemBySlug(ctx context.Context, slug string) (model.Item, error) {
	row := s.q.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE slug = $1`, slug)
	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Item{}, fmt.Errorf("item %s: %w", slug, store.ErrNotFound)
	}
	if err != nil {
		return model.Item{}, fmt.Errorf("get item %s: %w", slug, err)
	}
	return item, nil
}

func (s *Store) ListItems(ctx context.Context) ([]model.Item, error) {
	return s.queryItems(ctx, `SELECT `+itemColumns+` FROM items ORDER BY name, slug`)
}

func (s *Store) ListItemsByTier(ctx context.Context, maxTier int) ([]model.Item, error) {
	return s.queryItems(ctx, `SELECT `+itemColumns+` FROM items WHERE tier <= $1 ORDER BY name, slug`, maxTier)
}

func (s *Store) queryItems(ctx context.Context, sql string, args ...any) ([]model.Item, error) {
	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// ReplaceOrders deletes the item's orders and batch-inserts the new set.
// Duplicate order IDs are dropped by the (item_id, order_id) unique
// constraint, so the first occurrence wins.
func (s *Store) ReplaceOrders(ctx context.Context, itemID uuid.UUID, orders []model.Order) (int, error) {
	if !s.inTx {
		var inserted int
		err := s.WithTx(ctx, func(tx store.Tx) error {
			var err error
			inserted, err = tx.ReplaceOrders(ctx, itemID, orders)
			return err
		})
		return inserted, err
	}

	if _, err := s.q.Exec(ctx, `DELETE FROM orders WHERE item_id = $1`, itemID); err != nil {
		return 0, fmt.Errorf("delete orders: %w", err)
	}
	if len(orders) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, o := range orders {
		createdAt := o.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		batch.Queue(`
			INSERT INTO orders (id, item_id, order_id, side, price, quantity, trader, platform, region, online, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (item_id, order_id) DO NOTHING`,
			uuid.New(), itemID, o.OrderID, string(o.Side), o.Price, o.Quantity,
			o.Trader, o.Platform, o.Region, o.Online, createdAt,
		)
	}

	results := s.q.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range orders {
		ct, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("insert order: %w", err)
		}
		inserted += int(ct.RowsAffected())
	}
	return inserted, nil
}

func (s *Store) InsertPricePoint(ctx context.Context, p model.PricePoint) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now().UTC()
	}

	_, err := s.q.Exec(ctx, `
		INSERT INTO price_history (id, item_id, min_price, max_price, avg_price, median, volume, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.ItemID, p.MinPrice, p.MaxPrice, p.AvgPrice, p.Median, p.Volume, p.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert price point: %w", err)
	}
	return nil
}

func (s *Store) MarkPolled(ctx context.Context, itemID uuid.UUID, at time.Time) error {
	ct, err := s.q.Exec(ctx, `UPDATE items SET last_polled = $2 WHERE id = $1`, itemID, at)
	if err != nil {
		return fmt.Errorf("mark polled: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("mark polled %s: %w", itemID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListOrders(ctx context.Context, itemID uuid.UUID) ([]model.Order, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, item_id, order_id, side, price, quantity, trader, platform, region, online, created_at
		FROM orders WHERE item_id = $1
		ORDER BY price ASC, created_at ASC`, itemID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		var side string
		if err := rows.Scan(&o.ID, &o.ItemID, &o.OrderID, &side, &o.Price, &o.Quantity,
			&o.Trader, &o.Platform, &o.Region, &o.Online, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Side = model.Side(side)
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (s *Store) ListPricePoints(ctx context.Context, itemID uuid.UUID, limit int) ([]model.PricePoint, error) {
	sql := `
		SELECT id, item_id, min_price, max_price, avg_price, median, volume, timestamp
		FROM price_history WHERE item_id = $1
		ORDER BY timestamp DESC`
	args := []any{itemID}
	if limit > 0 {
		sql += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list price points: %w", err)
	}
	defer rows.Close()

	var points []model.PricePoint
	for rows.Next() {
		var p model.PricePoint
		if err := rows.Scan(&p.ID, &p.ItemID, &p.MinPrice, &p.MaxPrice, &p.AvgPrice,
			&p.Median, &p.Volume, &p.Timestamp); err != nil {
			return nil, fmt.Errorf("scan price point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// WithTx runs fn inside a database transaction. The transaction is rolled
// back if fn returns an error.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&Store{pool: s.pool, q: tx, inTx: true})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() {
	s.pool.Close()
}

func scanItem(row pgx.Row) (model.Item, error) {
	var it model.Item
	err := row.Scan(&it.ID, &it.Slug, &it.Name, &it.Category, &it.Tags, &it.Tier,
		&it.PollInterval, &it.LastPolled, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}
