package presence

import (
	"sync"

	"github.com/pondside/pondside/internal/model"
	"github.com/pondside/pondside/internal/world"
)

// State is one player's live position within an area.
type State struct {
	Name      model.PlayerName `json:"name"`
	Position  model.Position   `json:"position"`
	Direction model.Direction  `json:"direction"`
	Fishing   bool             `json:"fishing"`

	// epoch is the registry sequence number of the last fishing-state
	// transition. A deferred cast callback captures the epoch at cast
	// time and only applies if it still matches; any movement, re-cast,
	// or departure assigns a fresh one. Drawn from the registry-wide
	// counter so an epoch is never reused, even across re-entry.
	epoch uint64
}

// Registry tracks which players are in which area, validating movement
// against the world catalog. All mutations happen under one mutex and
// never suspend mid-change; area transfer in particular is a single
// critical section.
type Registry struct {
	mu       sync.Mutex
	catalog  *world.Catalog
	areas    map[model.AreaID]map[string]*State
	epochSeq uint64
}

// NewRegistry creates a Registry with an empty presence table per area.
func NewRegistry(catalog *world.Catalog) *Registry {
	areas := make(map[model.AreaID]map[string]*State)
	for _, id := range catalog.AreaIDs() {
		areas[id] = make(map[string]*State)
	}
	return &Registry{
		catalog: catalog,
		areas:   areas,
	}
}

// Enter places a player in an area facing down.
func (r *Registry) Enter(area model.AreaID, name model.PlayerName, pos model.Position) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	players, ok := r.areas[area]
	if !ok {
		return model.ErrUnknownArea
	}
	players[name.Key()] = &State{
		Name:      name,
		Position:  pos,
		Direction: model.DirDown,
	}
	return nil
}

// Leave removes a player from an area. Unknown players are a no-op.
func (r *Registry) Leave(area model.AreaID, name model.PlayerName) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if players, ok := r.areas[area]; ok {
		delete(players, name.Key())
	}
}

// Get returns a copy of the player's state in the area.
func (r *Registry) Get(area model.AreaID, name model.PlayerName) (State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.lookup(area, name)
	if !ok {
		return State{}, false
	}
	return *state, true
}

// Peers returns everyone in the area except the excluded player,
// in no particular order.
func (r *Registry) Peers(area model.AreaID, exclude model.PlayerName) []State {
	r.mu.Lock()
	defer r.mu.Unlock()

	players := r.areas[area]
	out := make([]State, 0, len(players))
	for key, state := range players {
		if key == exclude.Key() {
			continue
		}
		out = append(out, *state)
	}
	return out
}

// Move applies a movement if the destination is in bounds and walkable.
// Acceptance updates position and facing and cancels any in-progress cast;
// rejection leaves the record untouched and reports false.
func (r *Registry) Move(area model.AreaID, name model.PlayerName, pos model.Position, dir model.Direction) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.lookup(area, name)
	if !ok {
		return false
	}

	a, ok := r.catalog.Area(area)
	if !ok || !a.CanMoveTo(pos) {
		return false
	}

	state.Position = pos
	state.Direction = dir
	if state.Fishing {
		state.Fishing = false
	}
	state.epoch = r.nextEpoch()
	return true
}

// Face updates facing only, used when a move was rejected but the player
// turned toward the blocked tile.
func (r *Registry) Face(area model.AreaID, name model.PlayerName, dir model.Direction) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if state, ok := r.lookup(area, name); ok {
		state.Direction = dir
	}
}

// CanFishAt reports whether fishing may start from the given tile and facing.
func (r *Registry) CanFishAt(area model.AreaID, pos model.Position, dir model.Direction) bool {
	a, ok := r.catalog.Area(area)
	return ok && a.CanFishAt(pos, dir)
}

// Transfer moves a player between areas as one atomic step: the removal
// from the source table and the insertion at the destination's spawn
// point are never observably split. Returns the spawn position.
func (r *Registry) Transfer(from, to model.AreaID, name model.PlayerName) (model.Position, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.catalog.Area(to)
	if !ok {
		return model.Position{}, model.ErrUnknownArea
	}
	dest, ok := r.areas[to]
	if !ok {
		return model.Position{}, model.ErrUnknownArea
	}

	if src, ok := r.areas[from]; ok {
		delete(src, name.Key())
	}
	dest[name.Key()] = &State{
		Name:      name,
		Position:  target.SpawnPoint,
		Direction: model.DirDown,
	}
	return target.SpawnPoint, nil
}

// StartFishing marks the player as mid-cast and returns the epoch the
// deferred callback must present to FinishFishing.
func (r *Registry) StartFishing(area model.AreaID, name model.PlayerName) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.lookup(area, name)
	if !ok {
		return 0, model.ErrPlayerNotFound
	}
	if state.Fishing {
		return 0, model.ErrAlreadyFishing
	}

	state.Fishing = true
	state.epoch = r.nextEpoch()
	return state.epoch, nil
}

// FinishFishing clears the cast if, and only if, the player is still
// present, still fishing, and the epoch matches the one captured at cast
// time. Reports whether the cast result should be applied; a false return
// means the attempt was cancelled in the meantime.
func (r *Registry) FinishFishing(area model.AreaID, name model.PlayerName, epoch uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.lookup(area, name)
	if !ok || !state.Fishing || state.epoch != epoch {
		return false
	}

	state.Fishing = false
	state.epoch = r.nextEpoch()
	return true
}

// nextEpoch must be called with the mutex held.
func (r *Registry) nextEpoch() uint64 {
	r.epochSeq++
	return r.epochSeq
}

// lookup must be called with the mutex held.
func (r *Registry) lookup(area model.AreaID, name model.PlayerName) (*State, bool) {
	players, ok := r.areas[area]
	if !ok {
		return nil, false
	}
	state, ok := players[name.Key()]
	return state, ok
}
