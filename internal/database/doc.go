// Package database provides PostgreSQL connection pool management and schema
// migrations.
//
// Tables:
//   - items: tracked catalog entries, unique by slug
//   - orders: the latest order snapshot per item, unique by (item_id, order_id)
//   - price_history: append-only aggregated price points
//
// Migrations are embedded and applied with golang-migrate through the pgx/v5 driver.
package database
