package api

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/wfm-tracker/internal/model"
)

// DefaultRegion is stored when a trader has no locale.
const DefaultRegion = "en"

// LocalizedName returns the item name in the given language, falling back to
// English, then to the slug.
func (i *APIItem) LocalizedName(lang string) string {
	if t, ok := i.I18N[lang]; ok && t.Name != "" {
		return t.Name
	}
	if t, ok := i.I18N[DefaultLanguage]; ok && t.Name != "" {
		return t.Name
	}
	return i.Slug
}

// IsOnline reports whether the trader is reachable in game or on the site.
func (u APIUser) IsOnline() bool {
	return u.Status == "ingame" || u.Status == "online"
}

// ToModel converts an APIOrder to model.Order. It returns false when the
// order side is not recognised.
func (o *APIOrder) ToModel(itemID uuid.UUID, now time.Time) (model.Order, bool) {
	side, ok := model.ParseSide(o.Type)
	if !ok {
		return model.Order{}, false
	}

	region := strings.TrimSpace(o.User.Locale)
	if region == "" {
		region = DefaultRegion
	}

	return model.Order{
		ItemID:    itemID,
		OrderID:   o.ID,
		Side:      side,
		Price:     o.Platinum,
		Quantity:  o.Quantity,
		Trader:    o.User.IngameName,
		Platform:  o.User.Platform,
		Region:    region,
		Online:    o.User.IsOnline(),
		CreatedAt: now,
	}, true
}
