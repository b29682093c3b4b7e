// Package model defines shared data types used across the market tracker.
//
// Conventions:
//   - Prices: integer platinum (the marketplace currency unit)
//   - Timestamps: time.Time in UTC
//   - IDs: uuid.UUID for stored rows, string for upstream identifiers (slugs, order IDs)
package model
