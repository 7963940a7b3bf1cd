// Package progression implements the economy state machine: earning
// currency, purchasing catalog items, equipping them and deriving the
// passive income rate. Functions are pure over a PlayerState the caller
// owns; serialization and locking live elsewhere.
package progression

import (
	"errors"
	"fmt"

	"halloween-rock-api/internal/catalog"
	"halloween-rock-api/internal/model"
)

// ShopRevealThreshold is the balance at which the shop becomes visible.
// The flag is one-way: once revealed it stays revealed.
const ShopRevealThreshold = 5

// Outcome values for store operations. Callers branch with errors.Is; none
// of these is fatal and no operation panics.
var (
	ErrItemNotFound          = errors.New("item not found")
	ErrAlreadyOwned          = errors.New("item already owned")
	ErrPrerequisiteMissing   = errors.New("prerequisite upgrade not owned")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrNotOwned              = errors.New("item not owned")
	ErrCategoryNotEquippable = errors.New("category not equippable")
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrSkinTargetRequired    = errors.New("skin equip requires a target")
	ErrCorruptPersistedState = errors.New("corrupt persisted state")
)

// Default returns a fresh PlayerState: the starter drum owned, the default
// background owned and equipped, zero currency, shop hidden.
func Default() *model.PlayerState {
	bg := catalog.DefaultBackground
	return &model.PlayerState{
		Currency: 0,
		Owned: map[model.Category][]string{
			model.CategoryDrum:       {catalog.StarterDrum},
			model.CategoryUpgrade:    {},
			model.CategoryCostume:    {},
			model.CategorySkin:       {},
			model.CategoryBackground: {catalog.DefaultBackground},
		},
		Equipped: model.Equipped{
			Background: &bg,
			Skin:       map[string]*string{},
		},
		SchemaVersion: model.SchemaVersion,
	}
}

// Multiplier returns the active earnings multiplier: the single highest tier
// owned among the upgrade chain, 1 when none is owned. Tiers never stack.
func Multiplier(cat *catalog.Catalog, s *model.PlayerState) int64 {
	best := int64(1)
	for _, id := range s.Owned[model.CategoryUpgrade] {
		it, ok := cat.FindByID(id)
		if !ok {
			continue // stale id tolerated on load, never added by the store
		}
		if it.Multiplier > best {
			best = it.Multiplier
		}
	}
	return best
}

// Earn credits amount * active multiplier and returns the credited total.
// amount must be a positive base reward (the tap/tick unit, typically 1).
// Reaching the reveal threshold flips the monotonic ShopRevealed flag.
func Earn(cat *catalog.Catalog, s *model.PlayerState, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	credited := amount * Multiplier(cat, s)
	s.Currency += credited
	if s.Currency >= ShopRevealThreshold {
		s.ShopRevealed = true
	}
	return credited, nil
}

// Purchase buys the item, deducting its price and adding it to the owned set
// for its category. Checks run in a fixed order and the state is untouched
// on any failure; on success the deduction and the ownership insert happen
// together. Purchasing never equips.
func Purchase(cat *catalog.Catalog, s *model.PlayerState, itemID string) error {
	it, ok := cat.FindByID(itemID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrItemNotFound, itemID)
	}
	if s.Owns(it.Category, it.ID) {
		return fmt.Errorf("%w: %q", ErrAlreadyOwned, itemID)
	}
	if it.Requires != "" && !s.Owns(model.CategoryUpgrade, it.Requires) {
		return fmt.Errorf("%w: %q requires %q", ErrPrerequisiteMissing, itemID, it.Requires)
	}
	if s.Currency < it.Price {
		return fmt.Errorf("%w: %q costs %d, balance %d", ErrInsufficientFunds, itemID, it.Price, s.Currency)
	}

	s.Currency -= it.Price
	s.AddOwned(it.Category, it.ID)
	return nil
}

// Equip sets the active selection for a slot. itemID nil always means
// unequip. For skins target is the drum whose slot changes; other categories
// ignore target. Equipping an unowned item fails with ErrNotOwned; drums and
// upgrades have no slot.
func Equip(cat *catalog.Catalog, s *model.PlayerState, category model.Category, itemID *string, target string) error {
	switch category {
	case model.CategoryCostume, model.CategoryBackground, model.CategorySkin:
	default:
		return fmt.Errorf("%w: %q", ErrCategoryNotEquippable, category)
	}

	if itemID != nil && !s.Owns(category, *itemID) {
		return fmt.Errorf("%w: %q", ErrNotOwned, *itemID)
	}

	if category == model.CategorySkin {
		if target == "" {
			return ErrSkinTargetRequired
		}
		if itemID != nil {
			it, ok := cat.FindByID(*itemID)
			if !ok || it.Target != target {
				return fmt.Errorf("%w: %q does not target %q", ErrItemNotFound, deref(itemID), target)
			}
		}
		if s.Equipped.Skin == nil {
			s.Equipped.Skin = map[string]*string{}
		}
		if itemID == nil {
			delete(s.Equipped.Skin, target)
		} else {
			s.Equipped.Skin[target] = itemID
		}
		return nil
	}

	if category == model.CategoryCostume {
		s.Equipped.Costume = itemID
	} else {
		s.Equipped.Background = itemID
	}
	return nil
}

// PassiveRate sums the passive rates of every owned upgrade declaring one,
// in currency units per second. The periodic award itself is driven by an
// external scheduler; this function owns no timer.
func PassiveRate(cat *catalog.Catalog, s *model.PlayerState) int64 {
	var total int64
	for _, id := range s.Owned[model.CategoryUpgrade] {
		if it, ok := cat.FindByID(id); ok {
			total += it.PassiveRate
		}
	}
	return total
}

// InstrumentSample pairs an owned drum with the sample reference the audio
// layer should play: the equipped skin's sample when one is equipped, the
// drum's own otherwise. Sample refs are opaque to the server.
type InstrumentSample struct {
	InstrumentID string `json:"instrument_id"`
	Sample       string `json:"sample"`
	SkinID       string `json:"skin_id,omitempty"`
}

// Soundboard derives the (instrument, sample) pairs for every owned drum.
func Soundboard(cat *catalog.Catalog, s *model.PlayerState) []InstrumentSample {
	var out []InstrumentSample
	for _, id := range s.Owned[model.CategoryDrum] {
		drum, ok := cat.FindByID(id)
		if !ok {
			continue
		}
		entry := InstrumentSample{InstrumentID: drum.ID, Sample: drum.Sample}
		if skinID := s.EquippedSkin(drum.ID); skinID != nil {
			if skin, ok := cat.FindByID(*skinID); ok && skin.Sample != "" {
				entry.Sample = skin.Sample
				entry.SkinID = skin.ID
			}
		}
		out = append(out, entry)
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
