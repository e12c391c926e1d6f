package model

import "time"

// AreaID identifies an area (a distinct zone with its own map and fish).
type AreaID string

// Rarity buckets fish for catch-weight scaling by rod tier.
type Rarity string

// Rarity classes, common through legendary
const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Fish is an immutable catalog entry loaded from area data.
type Fish struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Rarity      Rarity  `json:"rarity"`
	CatchWeight float64 `json:"catchWeight"`
	Value       int     `json:"value"`
	Description string  `json:"description,omitempty"`
}

// InventoryItem is a caught fish owned by exactly one player. The Fish
// field is a snapshot of the catalog entry at capture time, so later
// catalog changes never reprice an already-caught fish.
type InventoryItem struct {
	ID       string    `json:"id"`
	FishID   string    `json:"fishId"`
	Fish     Fish      `json:"fish"`
	CaughtAt time.Time `json:"caughtAt"`
	CaughtIn AreaID    `json:"caughtIn"`
}
