package testutil

import (
	"github.com/pondside/pondside/internal/model"
	"github.com/pondside/pondside/internal/world"
)

// Area ids in the test world.
const (
	CoveID  = model.AreaID("cove")
	BrookID = model.AreaID("brook")
)

// WorldCatalog builds a small two-area world with known geometry and
// catch weights.
//
// cove, spawn (1,3):    brook, spawn (1,1):
//
//	######                ####
//	#..S.#                #.D#
//	#.~~D#                #~.#
//	#....#                ####
//	######
//
// The brook deliberately has no fish, for empty-catalog cases.
func WorldCatalog() *world.Catalog {
	cove := BuildArea(CoveID, "Test Cove", model.Position{X: 1, Y: 3},
		[]string{
			"######",
			"#..S.#",
			"#.~~D#",
			"#....#",
			"######",
		},
		[]model.Fish{
			{ID: "bluegill", Name: "Bluegill", Rarity: model.RarityCommon, CatchWeight: 50, Value: 5},
			{ID: "bass", Name: "Largemouth Bass", Rarity: model.RarityUncommon, CatchWeight: 30, Value: 25},
			{ID: "golden-koi", Name: "Golden Koi", Rarity: model.RarityLegendary, CatchWeight: 1, Value: 500},
		},
		world.Exit{Position: model.Position{X: 4, Y: 3}, Target: BrookID},
	)

	brook := BuildArea(BrookID, "Test Brook", model.Position{X: 1, Y: 1},
		[]string{
			"####",
			"#.D#",
			"#~.#",
			"####",
		},
		nil,
		world.Exit{Position: model.Position{X: 2, Y: 2}, Target: CoveID},
	)

	return world.NewCatalog(cove, brook)
}

// BuildArea assembles an Area from ASCII rows using the standard tile
// legend: # wall, . grass, ~ water, D dock, S shop.
func BuildArea(id model.AreaID, name string, spawn model.Position, rows []string, fish []model.Fish, exits ...world.Exit) *world.Area {
	legend := map[rune]world.Tile{
		'#': {Type: "wall"},
		'.': {Type: "grass", Walkable: true},
		'~': {Type: world.TileWater, Fishable: true},
		'D': {Type: "dock", Walkable: true, Fishable: true},
		'S': {Type: world.TileShop, Walkable: true},
	}

	height := len(rows)
	width := len([]rune(rows[0]))
	tiles := make([][]world.Tile, height)
	for y, row := range rows {
		tiles[y] = make([]world.Tile, width)
		for x, r := range row {
			tiles[y][x] = legend[r]
		}
	}

	return &world.Area{
		ID:         id,
		Name:       name,
		SpawnPoint: spawn,
		Width:      width,
		Height:     height,
		Tiles:      tiles,
		Exits:      exits,
		Fish:       fish,
	}
}
