package catalog

import (
	"fmt"

	"halloween-rock-api/internal/model"
)

// Catalog is the immutable set of purchasable items. Built once at startup;
// lookup-only afterwards, so it is safe for concurrent use.
type Catalog struct {
	items      []model.CatalogItem
	byID       map[string]*model.CatalogItem
	byCategory map[model.Category][]model.CatalogItem
}

// New builds a catalog from the given items and validates the whole set:
// known categories, ids unique within their category, non-negative prices,
// upgrade prerequisites forming a DAG over upgrades, skin targets naming
// drums. Returns an error describing the first violation found.
func New(items []model.CatalogItem) (*Catalog, error) {
	c := &Catalog{
		items:      items,
		byID:       make(map[string]*model.CatalogItem, len(items)),
		byCategory: make(map[model.Category][]model.CatalogItem),
	}

	seen := make(map[string]bool, len(items))
	for i := range items {
		it := &c.items[i]
		if it.ID == "" {
			return nil, fmt.Errorf("catalog item %d: empty id", i)
		}
		if !it.Category.Valid() {
			return nil, fmt.Errorf("catalog item %q: unknown category %q", it.ID, it.Category)
		}
		if it.Price < 0 {
			return nil, fmt.Errorf("catalog item %q: negative price %d", it.ID, it.Price)
		}
		key := string(it.Category) + "/" + it.ID
		if seen[key] {
			return nil, fmt.Errorf("catalog item %q: duplicate id in category %q", it.ID, it.Category)
		}
		seen[key] = true

		if it.Category != model.CategoryUpgrade && (it.Requires != "" || it.PassiveRate != 0 || it.Multiplier != 0) {
			return nil, fmt.Errorf("catalog item %q: upgrade fields on category %q", it.ID, it.Category)
		}
		if it.Category == model.CategorySkin && it.Target == "" {
			return nil, fmt.Errorf("catalog skin %q: missing target", it.ID)
		}
		if it.Category != model.CategorySkin && it.Target != "" {
			return nil, fmt.Errorf("catalog item %q: target on category %q", it.ID, it.Category)
		}

		c.byID[it.ID] = it
		c.byCategory[it.Category] = append(c.byCategory[it.Category], *it)
	}

	if err := c.validateRequires(); err != nil {
		return nil, err
	}
	if err := c.validateSkinTargets(); err != nil {
		return nil, err
	}

	return c, nil
}

// validateRequires checks that every upgrade prerequisite names another
// upgrade and that the requires edges contain no cycle.
func (c *Catalog) validateRequires() error {
	for _, it := range c.byCategory[model.CategoryUpgrade] {
		if it.Requires == "" {
			continue
		}
		dep, ok := c.byID[it.Requires]
		if !ok || dep.Category != model.CategoryUpgrade {
			return fmt.Errorf("catalog upgrade %q: requires unknown upgrade %q", it.ID, it.Requires)
		}
	}

	// Walk each requires chain; revisiting a node within one walk is a cycle.
	for _, it := range c.byCategory[model.CategoryUpgrade] {
		visited := map[string]bool{it.ID: true}
		cur := it.Requires
		for cur != "" {
			if visited[cur] {
				return fmt.Errorf("catalog upgrade %q: prerequisite cycle through %q", it.ID, cur)
			}
			visited[cur] = true
			cur = c.byID[cur].Requires
		}
	}
	return nil
}

// validateSkinTargets checks that every skin targets an existing drum.
func (c *Catalog) validateSkinTargets() error {
	for _, it := range c.byCategory[model.CategorySkin] {
		target, ok := c.byID[it.Target]
		if !ok || target.Category != model.CategoryDrum {
			return fmt.Errorf("catalog skin %q: target %q is not a drum", it.ID, it.Target)
		}
	}
	return nil
}

// MustNew builds a catalog or panics. For static item sets known at compile
// time, where a validation failure is a programming error.
func MustNew(items []model.CatalogItem) *Catalog {
	c, err := New(items)
	if err != nil {
		panic(err)
	}
	return c
}

// FindByID returns the item with the given id. A miss is not an error
// condition; callers branch on ok.
func (c *Catalog) FindByID(id string) (model.CatalogItem, bool) {
	it, ok := c.byID[id]
	if !ok {
		return model.CatalogItem{}, false
	}
	return *it, true
}

// ItemsByCategory returns the items of one category in declaration order.
func (c *Catalog) ItemsByCategory(category model.Category) []model.CatalogItem {
	return append([]model.CatalogItem(nil), c.byCategory[category]...)
}

// Items returns all items in declaration order.
func (c *Catalog) Items() []model.CatalogItem {
	return append([]model.CatalogItem(nil), c.items...)
}

// Len returns the number of items in the catalog.
func (c *Catalog) Len() int {
	return len(c.items)
}
