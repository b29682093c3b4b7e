// Package api provides the market REST API client.
//
// Endpoints:
//   - GET /items: full item catalog (slug, tags, localized names)
//   - GET /orders/item/{slug}: live buy and sell orders for one item
//
// Every request carries fixed Platform and Language headers and is spaced by
// a shared ratelimit.Limiter. Non-2xx responses and transport failures are
// returned as *UpstreamError.
package api
