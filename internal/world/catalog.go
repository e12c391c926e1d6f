package world

import (
	"github.com/pondside/pondside/internal/model"
)

// Tile is one cell of an area's grid.
type Tile struct {
	Type     string `json:"type"`
	Walkable bool   `json:"walkable"`
	Fishable bool   `json:"fishable"`
}

// Exit marks a tile that leads to another area.
type Exit struct {
	Position model.Position `json:"position"`
	Target   model.AreaID   `json:"target"`
}

// Area is one immutable zone of the world: a tile grid, its exits, and
// the fish that can be caught there.
type Area struct {
	ID          model.AreaID   `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	SpawnPoint  model.Position `json:"spawnPoint"`
	Width       int            `json:"width"`
	Height      int            `json:"height"`
	Tiles       [][]Tile       `json:"tiles"`
	Exits       []Exit         `json:"exits,omitempty"`
	Fish        []model.Fish   `json:"fish"`
}

// InBounds reports whether pos is within the area's grid.
func (a *Area) InBounds(pos model.Position) bool {
	return pos.X >= 0 && pos.X < a.Width && pos.Y >= 0 && pos.Y < a.Height
}

// Tile returns the tile at pos, or false if out of bounds.
func (a *Area) Tile(pos model.Position) (Tile, bool) {
	if !a.InBounds(pos) {
		return Tile{}, false
	}
	return a.Tiles[pos.Y][pos.X], true
}

// CanMoveTo reports whether pos is in bounds and walkable.
func (a *Area) CanMoveTo(pos model.Position) bool {
	tile, ok := a.Tile(pos)
	return ok && tile.Walkable
}

// CanFishAt reports whether a player at pos facing dir may start fishing:
// either the current tile is fishable (a dock) or the tile one step ahead is.
func (a *Area) CanFishAt(pos model.Position, dir model.Direction) bool {
	if tile, ok := a.Tile(pos); ok && tile.Fishable {
		return true
	}
	tile, ok := a.Tile(pos.Step(dir))
	return ok && tile.Fishable
}

// NearShop reports whether pos is on or orthogonally adjacent to a shop tile.
func (a *Area) NearShop(pos model.Position) bool {
	if tile, ok := a.Tile(pos); ok && tile.Type == TileShop {
		return true
	}
	for _, dir := range []model.Direction{model.DirUp, model.DirDown, model.DirLeft, model.DirRight} {
		if tile, ok := a.Tile(pos.Step(dir)); ok && tile.Type == TileShop {
			return true
		}
	}
	return false
}

// Tile type names recognized by gameplay rules. Legends may declare other
// types freely; only these carry special meaning.
const (
	TileShop  = "shop"
	TileWater = "water"
)

// Catalog holds every loaded area, keyed by id. Immutable after loading.
type Catalog struct {
	areas map[model.AreaID]*Area
	order []model.AreaID
}

// NewCatalog builds a catalog from the given areas.
func NewCatalog(areas ...*Area) *Catalog {
	c := &Catalog{areas: make(map[model.AreaID]*Area)}
	for _, a := range areas {
		if _, ok := c.areas[a.ID]; !ok {
			c.order = append(c.order, a.ID)
		}
		c.areas[a.ID] = a
	}
	return c
}

// Area returns the area with the given id.
func (c *Catalog) Area(id model.AreaID) (*Area, bool) {
	a, ok := c.areas[id]
	return a, ok
}

// AreaIDs returns all area ids in load order.
func (c *Catalog) AreaIDs() []model.AreaID {
	ids := make([]model.AreaID, len(c.order))
	copy(ids, c.order)
	return ids
}

// DefaultArea returns the id new players start in: "pond" when present,
// otherwise the first loaded area.
func (c *Catalog) DefaultArea() model.AreaID {
	if _, ok := c.areas["pond"]; ok {
		return "pond"
	}
	if len(c.order) > 0 {
		return c.order[0]
	}
	return ""
}
