package world

import "github.com/pondside/pondside/internal/model"

// RodTier describes one rod upgrade level. Modifiers scale each rarity
// class's catch weight; higher tiers trade common weight for rare weight.
type RodTier struct {
	Level       int                      `json:"level"`
	Name        string                   `json:"name"`
	Price       int                      `json:"price"`
	Description string                   `json:"description"`
	Modifiers   map[model.Rarity]float64 `json:"modifiers"`
}

// MaxRodTier is the highest purchasable rod level.
const MaxRodTier = 6

var rodTiers = []RodTier{
	{
		Level:       1,
		Name:        "Ol' Bendy",
		Price:       0,
		Description: "A bent twig. It works... barely.",
		Modifiers: map[model.Rarity]float64{
			model.RarityCommon:    1.0,
			model.RarityUncommon:  1.0,
			model.RarityRare:      1.0,
			model.RarityEpic:      1.0,
			model.RarityLegendary: 1.0,
		},
	},
	{
		Level:       2,
		Name:        "The Noodler",
		Price:       100,
		Description: "Soggy but serviceable.",
		Modifiers: map[model.Rarity]float64{
			model.RarityCommon:    0.9,
			model.RarityUncommon:  0.95,
			model.RarityRare:      1.3,
			model.RarityEpic:      1.5,
			model.RarityLegendary: 1.5,
		},
	},
	{
		Level:       3,
		Name:        "Bass Blaster 3000",
		Price:       500,
		Description: "As seen on TV!",
		Modifiers: map[model.Rarity]float64{
			model.RarityCommon:    0.8,
			model.RarityUncommon:  0.9,
			model.RarityRare:      1.6,
			model.RarityEpic:      2.0,
			model.RarityLegendary: 2.0,
		},
	},
	{
		Level:       4,
		Name:        "Chad's Choice",
		Price:       2000,
		Description: "Peak fishing energy.",
		Modifiers: map[model.Rarity]float64{
			model.RarityCommon:    0.65,
			model.RarityUncommon:  0.8,
			model.RarityRare:      2.0,
			model.RarityEpic:      2.5,
			model.RarityLegendary: 3.0,
		},
	},
	{
		Level:       5,
		Name:        "The Sigma Rod",
		Price:       10000,
		Description: "Rares respect this rod.",
		Modifiers: map[model.Rarity]float64{
			model.RarityCommon:    0.5,
			model.RarityUncommon:  0.7,
			model.RarityRare:      2.5,
			model.RarityEpic:      3.5,
			model.RarityLegendary: 4.0,
		},
	},
	{
		Level:       6,
		Name:        "GIGACASTER 9000",
		Price:       50000,
		Description: "The ultimate fishing experience.",
		Modifiers: map[model.Rarity]float64{
			model.RarityCommon:    0.35,
			model.RarityUncommon:  0.6,
			model.RarityRare:      3.0,
			model.RarityEpic:      5.0,
			model.RarityLegendary: 6.0,
		},
	},
}

// Rod returns the rod for the given level, clamping unknown levels to tier 1.
func Rod(level int) RodTier {
	if level < 1 || level > MaxRodTier {
		return rodTiers[0]
	}
	return rodTiers[level-1]
}

// NextRod returns the next upgrade after the given level, or nil at max tier.
func NextRod(level int) *RodTier {
	if level >= MaxRodTier {
		return nil
	}
	next := Rod(level + 1)
	return &next
}
