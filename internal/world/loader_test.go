package world

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/suite"

	"github.com/pondside/pondside/internal/model"
)

const coveJSON = `{
  "id": "cove",
  "name": "Test Cove",
  "spawnPoint": { "x": 1, "y": 1 },
  "map": {
    "legend": {
      "#": { "type": "wall" },
      ".": { "type": "grass", "walkable": true },
      "~": { "type": "water", "fishable": true },
      "D": { "type": "dock", "walkable": true, "fishable": true },
      "S": { "type": "shop", "walkable": true }
    },
    "data": [
      "#####",
      "#.S.#",
      "#D~.#",
      "#####"
    ]
  },
  "fish": [
    { "id": "minnow", "name": "Minnow", "rarity": "common", "catchWeight": 50, "value": 2 }
  ]
}`

type LoaderSuite struct {
	suite.Suite
}

func TestLoaderSuite(t *testing.T) {
	suite.Run(t, new(LoaderSuite))
}

func (s *LoaderSuite) load(files map[string]string) (*Catalog, error) {
	fsys := fstest.MapFS{}
	for name, data := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(data)}
	}
	return LoadFS(fsys, ".")
}

func (s *LoaderSuite) TestLoadParsesGrid() {
	catalog, err := s.load(map[string]string{"cove.json": coveJSON})
	s.Require().NoError(err)

	area, ok := catalog.Area("cove")
	s.Require().True(ok)
	s.Equal(5, area.Width)
	s.Equal(4, area.Height)
	s.Equal(model.Position{X: 1, Y: 1}, area.SpawnPoint)

	tile, ok := area.Tile(model.Position{X: 1, Y: 2})
	s.Require().True(ok)
	s.Equal("dock", tile.Type)
	s.True(tile.Walkable)
	s.True(tile.Fishable)

	s.Require().Len(area.Fish, 1)
	s.Equal("minnow", area.Fish[0].ID)
	s.Equal(model.RarityCommon, area.Fish[0].Rarity)
}

func (s *LoaderSuite) TestLoadOrdersByFilename() {
	second := `{
	  "id": "zzz",
	  "name": "Last",
	  "spawnPoint": { "x": 1, "y": 1 },
	  "map": {
	    "legend": { "#": { "type": "wall" }, ".": { "type": "grass", "walkable": true } },
	    "data": [ "###", "#.#", "###" ]
	  },
	  "fish": []
	}`
	catalog, err := s.load(map[string]string{
		"b_zzz.json": second,
		"a_cove.json": coveJSON,
	})
	s.Require().NoError(err)
	s.Equal([]model.AreaID{"cove", "zzz"}, catalog.AreaIDs())
	s.Equal(model.AreaID("cove"), catalog.DefaultArea())
}

func (s *LoaderSuite) TestLoadRejectsUnknownTile() {
	bad := `{
	  "id": "bad",
	  "name": "Bad",
	  "spawnPoint": { "x": 1, "y": 1 },
	  "map": {
	    "legend": { "#": { "type": "wall" }, ".": { "type": "grass", "walkable": true } },
	    "data": [ "###", "#?#", "###" ]
	  },
	  "fish": []
	}`
	_, err := s.load(map[string]string{"bad.json": bad})
	s.Error(err)
}

func (s *LoaderSuite) TestLoadRejectsRaggedRows() {
	bad := `{
	  "id": "bad",
	  "name": "Bad",
	  "spawnPoint": { "x": 1, "y": 1 },
	  "map": {
	    "legend": { "#": { "type": "wall" }, ".": { "type": "grass", "walkable": true } },
	    "data": [ "###", "#.##", "###" ]
	  },
	  "fish": []
	}`
	_, err := s.load(map[string]string{"bad.json": bad})
	s.Error(err)
}

func (s *LoaderSuite) TestLoadRejectsBlockedSpawn() {
	bad := `{
	  "id": "bad",
	  "name": "Bad",
	  "spawnPoint": { "x": 0, "y": 0 },
	  "map": {
	    "legend": { "#": { "type": "wall" }, ".": { "type": "grass", "walkable": true } },
	    "data": [ "###", "#.#", "###" ]
	  },
	  "fish": []
	}`
	_, err := s.load(map[string]string{"bad.json": bad})
	s.Error(err)
}

func (s *LoaderSuite) TestLoadRejectsMissingID() {
	bad := `{
	  "name": "Bad",
	  "spawnPoint": { "x": 1, "y": 1 },
	  "map": {
	    "legend": { "#": { "type": "wall" }, ".": { "type": "grass", "walkable": true } },
	    "data": [ "###", "#.#", "###" ]
	  },
	  "fish": []
	}`
	_, err := s.load(map[string]string{"bad.json": bad})
	s.Error(err)
}

func (s *LoaderSuite) TestLoadRejectsEmptyDir() {
	_, err := s.load(map[string]string{"notes.txt": "not an area"})
	s.Error(err)
}
