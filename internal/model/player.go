package model

// SchemaVersion tags the persisted PlayerState layout. Blobs carrying an
// older version are run through the migration registry on load; blobs with
// no migration path reset to the default state.
const SchemaVersion = "2"

// Equipped holds the currently active selections. Costume and Background are
// single slots; Skin is one slot per target drum since several skins can be
// active at once, one per instrument. A nil entry means "nothing equipped".
type Equipped struct {
	Costume    *string            `json:"costume"`
	Background *string            `json:"background"`
	Skin       map[string]*string `json:"skin"`
}

// PlayerState is the persisted per-player progression record. It is a plain
// value: all mutation rules live in the progression package and the single
// live instance per player is guarded by the service's per-player lock.
type PlayerState struct {
	Currency      int64                 `json:"currency"`
	ShopRevealed  bool                  `json:"shopRevealed"`
	Owned         map[Category][]string `json:"owned"`
	Equipped      Equipped              `json:"equipped"`
	SchemaVersion string                `json:"schemaVersion"`
}

// Owns reports whether id is in the owned set for the category.
func (s *PlayerState) Owns(category Category, id string) bool {
	for _, owned := range s.Owned[category] {
		if owned == id {
			return true
		}
	}
	return false
}

// AddOwned inserts id into the owned set for the category. Set semantics:
// inserting an already-owned id is a no-op.
func (s *PlayerState) AddOwned(category Category, id string) {
	if s.Owns(category, id) {
		return
	}
	if s.Owned == nil {
		s.Owned = make(map[Category][]string)
	}
	s.Owned[category] = append(s.Owned[category], id)
}

// EquippedSkin returns the skin id equipped for the target drum, or nil.
func (s *PlayerState) EquippedSkin(target string) *string {
	if s.Equipped.Skin == nil {
		return nil
	}
	return s.Equipped.Skin[target]
}

// Clone returns a deep copy. Handlers receive clones so reads never race
// with mutations happening under the per-player lock.
func (s *PlayerState) Clone() *PlayerState {
	out := *s
	out.Owned = make(map[Category][]string, len(s.Owned))
	for category, ids := range s.Owned {
		out.Owned[category] = append([]string(nil), ids...)
	}
	if s.Equipped.Costume != nil {
		v := *s.Equipped.Costume
		out.Equipped.Costume = &v
	}
	if s.Equipped.Background != nil {
		v := *s.Equipped.Background
		out.Equipped.Background = &v
	}
	out.Equipped.Skin = make(map[string]*string, len(s.Equipped.Skin))
	for target, id := range s.Equipped.Skin {
		if id == nil {
			out.Equipped.Skin[target] = nil
			continue
		}
		v := *id
		out.Equipped.Skin[target] = &v
	}
	return &out
}
