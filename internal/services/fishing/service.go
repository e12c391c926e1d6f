package fishing

import (
	"log/slog"
	"sort"
	"time"

	"github.com/pondside/pondside/internal/dependencies/random"
	"github.com/pondside/pondside/internal/model"
	"github.com/pondside/pondside/internal/world"
)

// Cast duration window: a cast resolves after 2-5 seconds.
const (
	minCastDelay    = 2 * time.Second
	castDelayJitter = 3 * time.Second
)

// Outcome is the result of one resolved cast.
type Outcome struct {
	Success bool        `json:"success"`
	Fish    *model.Fish `json:"fish,omitempty"`
}

// Service resolves casts against an area's fish catalog, weighting each
// entry by the player's rod tier modifiers.
type Service struct {
	catalog *world.Catalog
	random  random.Random
	logger  *slog.Logger
}

// New creates a new fishing Service
func New(catalog *world.Catalog, random random.Random, logger *slog.Logger) *Service {
	return &Service{
		catalog: catalog,
		random:  random,
		logger:  logger.With(slog.String("component", "fishing")),
	}
}

// Resolve draws one weighted outcome from the area's catalog. Each fish's
// base weight is scaled by the rod's modifier for its rarity; the draw is
// uniform over the modified total. Entries are scanned rarest-weighted
// first (ascending modified weight, ties broken by fish id) so a fixed
// draw always lands on the same fish.
func (s *Service) Resolve(areaID model.AreaID, rodTier int) Outcome {
	area, ok := s.catalog.Area(areaID)
	if !ok || len(area.Fish) == 0 {
		return Outcome{Success: false}
	}

	rod := world.Rod(rodTier)

	type weighted struct {
		fish   model.Fish
		weight float64
	}
	entries := make([]weighted, 0, len(area.Fish))
	total := 0.0
	for _, fish := range area.Fish {
		w := fish.CatchWeight * rod.Modifiers[fish.Rarity]
		entries = append(entries, weighted{fish: fish, weight: w})
		total += w
	}
	if total <= 0 {
		return Outcome{Success: false}
	}

	roll := s.random.Float64() * total

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].weight == entries[j].weight {
			return entries[i].fish.ID < entries[j].fish.ID
		}
		return entries[i].weight < entries[j].weight
	})

	cumulative := 0.0
	for _, entry := range entries {
		cumulative += entry.weight
		if roll < cumulative {
			fish := entry.fish
			return Outcome{Success: true, Fish: &fish}
		}
	}

	// Unreachable with a normalized scan; kept as a safety fallback.
	return Outcome{Success: false}
}

// CastDelay returns how long the current cast takes to resolve.
func (s *Service) CastDelay() time.Duration {
	jitter := time.Duration(s.random.Float64() * float64(castDelayJitter))
	return minCastDelay + jitter
}
