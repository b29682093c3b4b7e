// Package poller runs the market poll cycle.
//
// A cycle:
//   - Loads every tracked item at or below the configured tier
//   - Processes items one at a time, in list order, through the shared rate limiter
//   - Replaces each item's stored orders and appends a price point in one transaction
//   - Isolates failures per item and reports a summary of polled vs total
package poller
