package progression

import (
	"encoding/json"
	"fmt"

	"halloween-rock-api/internal/catalog"
	"halloween-rock-api/internal/model"
)

// Migration upgrades a persisted blob from one schema version to the next.
// It receives the raw decoded JSON object and returns the transformed object
// tagged with the target version.
type Migration func(raw map[string]json.RawMessage) (map[string]json.RawMessage, error)

type migrationKey struct {
	from, to string
}

// migrations is the registered upgrade graph. Load walks it one hop at a
// time from the blob's version toward model.SchemaVersion; a version with no
// outgoing registered path resets to the default state instead.
var migrations = map[migrationKey]Migration{
	{from: "1", to: "2"}: migrateV1ToV2,
}

// Encode serializes the state as the persisted layout.
func Encode(s *model.PlayerState) ([]byte, error) {
	s.SchemaVersion = model.SchemaVersion
	return json.Marshal(s)
}

// Decode parses a persisted blob, migrating older schema versions to the
// current one. Any parse failure or unreachable version returns
// ErrCorruptPersistedState; callers degrade to a fresh default state rather
// than failing.
func Decode(raw []byte) (*model.PlayerState, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPersistedState, err)
	}

	version, err := blobVersion(obj)
	if err != nil {
		return nil, err
	}

	for version != model.SchemaVersion {
		m, ok := migrations[migrationKey{from: version, to: nextVersion(version)}]
		if !ok {
			return nil, fmt.Errorf("%w: no migration from schema %q", ErrCorruptPersistedState, version)
		}
		if obj, err = m(obj); err != nil {
			return nil, fmt.Errorf("%w: migrating schema %q: %v", ErrCorruptPersistedState, version, err)
		}
		version = nextVersion(version)
	}

	merged, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPersistedState, err)
	}
	var s model.PlayerState
	if err := json.Unmarshal(merged, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPersistedState, err)
	}
	if s.Currency < 0 {
		return nil, fmt.Errorf("%w: negative currency %d", ErrCorruptPersistedState, s.Currency)
	}
	normalize(&s)
	return &s, nil
}

// blobVersion reads the schemaVersion tag, accepting the numeric form the
// original v1 blobs carried.
func blobVersion(obj map[string]json.RawMessage) (string, error) {
	raw, ok := obj["schemaVersion"]
	if !ok {
		raw, ok = obj["version"]
	}
	if !ok {
		return "", fmt.Errorf("%w: missing schema version", ErrCorruptPersistedState)
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString, nil
	}
	var asInt int
	if err := json.Unmarshal(raw, &asInt); err == nil {
		return fmt.Sprintf("%d", asInt), nil
	}
	return "", fmt.Errorf("%w: unreadable schema version %s", ErrCorruptPersistedState, raw)
}

func nextVersion(v string) string {
	switch v {
	case "1":
		return "2"
	default:
		return v
	}
}

// normalize fills slots the blob may omit so later code never nil-checks
// maps. Unknown owned ids are kept: tolerated on load, never added by the
// store itself.
func normalize(s *model.PlayerState) {
	if s.Owned == nil {
		s.Owned = map[model.Category][]string{}
	}
	for _, category := range model.Categories {
		if s.Owned[category] == nil {
			s.Owned[category] = []string{}
		}
	}
	if s.Equipped.Skin == nil {
		s.Equipped.Skin = map[string]*string{}
	}
	s.SchemaVersion = model.SchemaVersion
}

// migrateV1ToV2 upgrades the original layout:
//
//	{coins, owned: {drums, hats, memes}, equipped: {drum, costume, meme}, version: 1}
//
// coins becomes currency, the plural owned keys become categories (memes had
// no shop items and are dropped), and the default background is granted
// since v1 predates backgrounds entirely.
func migrateV1ToV2(raw map[string]json.RawMessage) (map[string]json.RawMessage, error) {
	type v1State struct {
		Coins int64 `json:"coins"`
		Owned struct {
			Drums []string `json:"drums"`
			Hats  []string `json:"hats"`
		} `json:"owned"`
		Equipped struct {
			Costume *string `json:"costume"`
		} `json:"equipped"`
	}

	merged, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var old v1State
	if err := json.Unmarshal(merged, &old); err != nil {
		return nil, err
	}
	if old.Coins < 0 {
		return nil, fmt.Errorf("negative coins %d", old.Coins)
	}

	bg := catalog.DefaultBackground
	next := model.PlayerState{
		Currency:     old.Coins,
		ShopRevealed: old.Coins >= ShopRevealThreshold || len(old.Owned.Hats) > 0,
		Owned: map[model.Category][]string{
			model.CategoryDrum:       old.Owned.Drums,
			model.CategoryUpgrade:    {},
			model.CategoryCostume:    old.Owned.Hats,
			model.CategorySkin:       {},
			model.CategoryBackground: {catalog.DefaultBackground},
		},
		Equipped: model.Equipped{
			Costume:    old.Equipped.Costume,
			Background: &bg,
			Skin:       map[string]*string{},
		},
		SchemaVersion: "2",
	}
	if len(next.Owned[model.CategoryDrum]) == 0 {
		next.Owned[model.CategoryDrum] = []string{catalog.StarterDrum}
	}

	out, err := json.Marshal(&next)
	if err != nil {
		return nil, err
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(out, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}
