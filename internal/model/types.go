package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Catalog Types
// -----------------------------------------------------------------------------

// Item is a tracked catalog entry.
type Item struct {
	ID           uuid.UUID  `json:"id"`           // Primary key
	Slug         string     `json:"slug"`         // Unique, URL-safe upstream key (e.g., "primed_flow")
	Name         string     `json:"name"`         // Localized display name
	Category     string     `json:"category"`     // Category (e.g., "mod")
	Tags         []string   `json:"tags"`         // Upstream tag set
	Tier         int        `json:"tier"`         // Polling priority class (1 = highest)
	PollInterval int        `json:"pollInterval"` // Desired poll interval in minutes
	LastPolled   *time.Time `json:"lastPolled"`   // Last successful reconciliation, nil if never polled
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// HasTag reports whether the item carries the given tag.
func (i Item) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// Order Book Types
// -----------------------------------------------------------------------------

// Side is the order side of a listing.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// ParseSide converts an upstream order type to a Side.
func ParseSide(s string) (Side, bool) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case SideBuy:
		return SideBuy, true
	case SideSell:
		return SideSell, true
	default:
		return "", false
	}
}

// Order is a point-in-time snapshot row of one upstream listing.
type Order struct {
	ID        uuid.UUID `json:"id"`
	ItemID    uuid.UUID `json:"itemId"`
	OrderID   string    `json:"orderId"` // Upstream order identifier
	Side      Side      `json:"side"`
	Price     int       `json:"price"`    // Unit price in platinum
	Quantity  int       `json:"quantity"` // Always positive
	Trader    string    `json:"trader"`
	Platform  string    `json:"platform"`
	Region    string    `json:"region"`
	Online    bool      `json:"online"`
	CreatedAt time.Time `json:"createdAt"`
}

// -----------------------------------------------------------------------------
// Time-Series Types
// -----------------------------------------------------------------------------

// PricePoint is one aggregated observation of an item's order book.
// Points are append-only.
type PricePoint struct {
	ID        uuid.UUID `json:"id"`
	ItemID    uuid.UUID `json:"itemId"`
	MinPrice  int       `json:"minPrice"`
	MaxPrice  int       `json:"maxPrice"`
	AvgPrice  float64   `json:"avgPrice"` // Rounded to 2 decimal places
	Median    int       `json:"median"`
	Volume    int       `json:"volume"` // Orders observed across all platforms
	Timestamp time.Time `json:"timestamp"`
}
