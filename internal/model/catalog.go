package model

// Category is the closed set of shop item kinds. Every CatalogItem belongs to
// exactly one category and category-specific fields are only meaningful for
// the category that declares them.
type Category string

const (
	CategoryDrum       Category = "drum"
	CategoryUpgrade    Category = "upgrade"
	CategoryCostume    Category = "costume"
	CategorySkin       Category = "skin"
	CategoryBackground Category = "background"
)

// Categories lists all valid categories in declaration order.
var Categories = []Category{
	CategoryDrum,
	CategoryUpgrade,
	CategoryCostume,
	CategorySkin,
	CategoryBackground,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryDrum, CategoryUpgrade, CategoryCostume, CategorySkin, CategoryBackground:
		return true
	}
	return false
}

// CatalogItem is a single purchasable shop item. Items are immutable after
// catalog construction.
//
// Icon, Sample and Face are asset references the API passes through to the
// presentation layer unmodified; the server never interprets them.
type CatalogItem struct {
	ID       string   `json:"id"`
	Category Category `json:"category"`
	Name     string   `json:"name"`
	Price    int64    `json:"price"`

	// Upgrade-only fields. Multiplier marks a tier of the earnings chain,
	// PassiveRate is currency granted per second once owned, Requires is the
	// id of the upgrade that must be owned before this one can be bought.
	Multiplier  int64  `json:"multiplier,omitempty"`
	PassiveRate int64  `json:"passive_rate,omitempty"`
	Requires    string `json:"requires,omitempty"`

	// Skin-only field: the drum this skin replaces visually and audibly.
	Target string `json:"target,omitempty"`

	Icon   string `json:"icon,omitempty"`
	Sample string `json:"sample,omitempty"`
	Face   string `json:"face,omitempty"`
}
