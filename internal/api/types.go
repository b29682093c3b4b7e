package api

// ItemsResponse from GET /items
type ItemsResponse struct {
	Data []APIItem `json:"data"`
}

// APIItem represents a catalog item from the market API.
type APIItem struct {
	ID   string                 `json:"id"`
	Slug string                 `json:"slug"`
	Tags []string               `json:"tags"`
	I18N map[string]APIItemI18N `json:"i18n"`
}

// APIItemI18N holds the localized fields of an item.
type APIItemI18N struct {
	Name  string `json:"name"`
	Thumb string `json:"thumb,omitempty"`
}

// OrdersResponse from GET /orders/item/{slug}
type OrdersResponse struct {
	Data []APIOrder `json:"data"`
}

// APIOrder represents a live listing from the market API.
type APIOrder struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`     // "buy" or "sell"
	Platinum int     `json:"platinum"` // Unit price
	Quantity int     `json:"quantity"`
	User     APIUser `json:"user"`

	// Timestamps (ISO 8601)
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// APIUser is the trader behind an order.
type APIUser struct {
	IngameName string `json:"ingameName"`
	Status     string `json:"status"` // "ingame", "online" or "offline"
	Platform   string `json:"platform"`
	Locale     string `json:"locale"`
}
