package catalog

import "halloween-rock-api/internal/model"

// StarterDrum and DefaultBackground are granted to every fresh player.
const (
	StarterDrum       = "kick"
	DefaultBackground = "garage"
)

// defaultItems is the full shop. Asset paths are opaque references resolved
// by the browser client.
var defaultItems = []model.CatalogItem{
	// Drums
	{ID: "kick", Category: model.CategoryDrum, Name: "Bombo", Price: 0,
		Icon: "public/images/icon_kick.png", Sample: "public/audio/kick.wav"},
	{ID: "tom", Category: model.CategoryDrum, Name: "Tom", Price: 5,
		Icon: "public/images/icon_tom.png", Sample: "public/audio/tom.wav"},
	{ID: "cymbal", Category: model.CategoryDrum, Name: "Plato", Price: 15,
		Icon: "public/images/icon_cymbal.png", Sample: "public/audio/cymbal.wav"},
	{ID: "snare", Category: model.CategoryDrum, Name: "Caja", Price: 30,
		Icon: "public/images/icon_snare.png", Sample: "public/audio/snare.wav"},

	// Earnings multiplier chain. Strictly ordered: each tier requires the
	// previous one and the highest owned tier wins.
	{ID: "double", Category: model.CategoryUpgrade, Name: "Double Coins", Price: 25, Multiplier: 2},
	{ID: "triple", Category: model.CategoryUpgrade, Name: "Triple Coins", Price: 100, Multiplier: 3, Requires: "double"},
	{ID: "quintuple", Category: model.CategoryUpgrade, Name: "Quintuple Coins", Price: 400, Multiplier: 5, Requires: "triple"},
	{ID: "decuple", Category: model.CategoryUpgrade, Name: "Decuple Coins", Price: 1500, Multiplier: 10, Requires: "quintuple"},

	// Passive income upgrades, coins per second.
	{ID: "metronome", Category: model.CategoryUpgrade, Name: "Metronome", Price: 50, PassiveRate: 1},
	{ID: "drum-machine", Category: model.CategoryUpgrade, Name: "Drum Machine", Price: 250, PassiveRate: 3, Requires: "metronome"},
	{ID: "roadie", Category: model.CategoryUpgrade, Name: "Roadie", Price: 900, PassiveRate: 8, Requires: "drum-machine"},

	// Costumes
	{ID: "gnome", Category: model.CategoryCostume, Name: "Gnomo", Price: 0,
		Face: "public/images/face_gnome.png"},
	{ID: "witch", Category: model.CategoryCostume, Name: "Bruja", Price: 40,
		Face: "public/images/face_witch.png"},
	{ID: "vampire", Category: model.CategoryCostume, Name: "Vampiro", Price: 75,
		Face: "public/images/face_vampire.png"},
	{ID: "pumpkin", Category: model.CategoryCostume, Name: "Calabaza", Price: 120,
		Face: "public/images/face_pumpkin.png"},

	// Skins, one slot per target drum.
	{ID: "cursed", Category: model.CategorySkin, Name: "Bombo Maldito", Price: 60, Target: "kick",
		Icon: "public/images/icon_kick_cursed.png", Sample: "public/audio/kick_cursed.wav"},
	{ID: "bone-tom", Category: model.CategorySkin, Name: "Tom de Hueso", Price: 60, Target: "tom",
		Icon: "public/images/icon_tom_bone.png", Sample: "public/audio/tom_bone.wav"},
	{ID: "ghost-cymbal", Category: model.CategorySkin, Name: "Plato Fantasma", Price: 80, Target: "cymbal",
		Icon: "public/images/icon_cymbal_ghost.png", Sample: "public/audio/cymbal_ghost.wav"},
	{ID: "web-snare", Category: model.CategorySkin, Name: "Caja de Telaraña", Price: 80, Target: "snare",
		Icon: "public/images/icon_snare_web.png", Sample: "public/audio/snare_web.wav"},

	// Backgrounds
	{ID: "garage", Category: model.CategoryBackground, Name: "Garaje", Price: 0,
		Icon: "public/images/bg_garage.png"},
	{ID: "graveyard", Category: model.CategoryBackground, Name: "Cementerio", Price: 90,
		Icon: "public/images/bg_graveyard.png"},
	{ID: "stage", Category: model.CategoryBackground, Name: "Escenario", Price: 200,
		Icon: "public/images/bg_stage.png"},
}

// Default returns the built-in shop catalog.
func Default() *Catalog {
	return MustNew(defaultItems)
}
