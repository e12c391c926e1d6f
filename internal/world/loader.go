package world

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/pondside/pondside/internal/model"
)

//go:embed areas/*.json
var embeddedAreas embed.FS

// rawArea is the on-disk area format: an ASCII grid plus a legend mapping
// each rune to tile flags.
type rawArea struct {
	ID          model.AreaID   `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	SpawnPoint  model.Position `json:"spawnPoint"`
	Map         struct {
		Legend map[string]Tile `json:"legend"`
		Data   []string        `json:"data"`
	} `json:"map"`
	Exits []Exit       `json:"exits"`
	Fish  []model.Fish `json:"fish"`
}

// parseArea converts the raw format into an Area, validating the grid.
func parseArea(data []byte) (*Area, error) {
	var raw rawArea
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw.ID == "" {
		return nil, fmt.Errorf("area missing id")
	}
	if len(raw.Map.Data) == 0 {
		return nil, fmt.Errorf("area %s: empty map", raw.ID)
	}

	height := len(raw.Map.Data)
	width := len([]rune(raw.Map.Data[0]))
	tiles := make([][]Tile, height)
	for y, row := range raw.Map.Data {
		runes := []rune(row)
		if len(runes) != width {
			return nil, fmt.Errorf("area %s: row %d has %d tiles, want %d", raw.ID, y, len(runes), width)
		}
		tiles[y] = make([]Tile, width)
		for x, r := range runes {
			tile, ok := raw.Map.Legend[string(r)]
			if !ok {
				return nil, fmt.Errorf("area %s: unknown tile %q at (%d, %d)", raw.ID, string(r), x, y)
			}
			tiles[y][x] = tile
		}
	}

	area := &Area{
		ID:          raw.ID,
		Name:        raw.Name,
		Description: raw.Description,
		SpawnPoint:  raw.SpawnPoint,
		Width:       width,
		Height:      height,
		Tiles:       tiles,
		Exits:       raw.Exits,
		Fish:        raw.Fish,
	}
	if !area.CanMoveTo(area.SpawnPoint) {
		return nil, fmt.Errorf("area %s: spawn point (%d, %d) is not walkable", raw.ID, raw.SpawnPoint.X, raw.SpawnPoint.Y)
	}
	return area, nil
}

// LoadFS loads every *.json area file from the given filesystem root,
// in filename order.
func LoadFS(fsys fs.FS, root string) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, fmt.Errorf("no area files in %s", root)
	}

	areas := make([]*Area, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, path.Join(root, name))
		if err != nil {
			return nil, err
		}
		area, err := parseArea(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		areas = append(areas, area)
	}
	return NewCatalog(areas...), nil
}

// LoadDir loads a catalog from a directory on disk.
func LoadDir(dir string) (*Catalog, error) {
	return LoadFS(os.DirFS(dir), ".")
}

// Default loads the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return LoadFS(embeddedAreas, "areas")
}
