// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Upstream request counts by endpoint and status class
//   - Rate limiter wait durations
//   - Poll cycle outcomes (items polled/failed, price points recorded)
//   - Catalog sync throughput
package metrics
