// Package catalog keeps the tracked item catalog in sync with the market API.
//
// A sync fetches the full remote catalog in one call, keeps items carrying the
// tracked tag whose English name starts with the tracked prefix, and upserts
// them by slug. Re-running a sync with unchanged remote data is a no-op apart
// from updated_at.
package catalog
