package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/pondside/pondside/internal/dependencies/clock"
	"github.com/pondside/pondside/internal/model"
	"github.com/pondside/pondside/internal/storage"
	"github.com/pondside/pondside/internal/world"
)

// Name and password rules, matched by the client's login form.
const (
	minNameLen     = 2
	maxNameLen     = 16
	minPasswordLen = 4
)

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// Service is the player ledger: the persistent record of who exists,
// what they own, and what they have earned.
type Service struct {
	storage storage.Storage
	catalog *world.Catalog
	clock   clock.Clock
	logger  *slog.Logger

	// writeMu serializes read-modify-write cycles on player rows. Without
	// it a best-effort position save racing a purchase or sale could write
	// back stale gold or tier.
	writeMu sync.Mutex
}

// New creates a new ledger Service
func New(storage storage.Storage, catalog *world.Catalog, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		catalog: catalog,
		clock:   clock,
		logger:  logger.With(slog.String("component", "ledger")),
	}
}

// Register creates a new player with a bcrypt-hashed password, starting
// gold 0 and rod tier 1, spawned at startArea's entry point.
func (s *Service) Register(ctx context.Context, name model.PlayerName, password string, startArea model.AreaID) (*model.Player, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", model.ErrInvalidCredentials, minPasswordLen)
	}

	if _, err := s.storage.GetCredentials(ctx, name); err == nil {
		return nil, model.ErrNameTaken
	} else if !errors.Is(err, model.ErrPlayerNotFound) {
		return nil, err
	}

	area, ok := s.catalog.Area(startArea)
	if !ok {
		return nil, model.ErrUnknownArea
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	creds := &model.Credentials{
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}
	player := &model.Player{
		Name:         name,
		Gold:         0,
		RodTier:      1,
		LastArea:     area.ID,
		LastPosition: area.SpawnPoint,
		CreatedAt:    now,
		LastLogin:    now,
	}

	if err := s.storage.SaveCredentials(ctx, creds); err != nil {
		return nil, err
	}
	if err := s.storage.SavePlayer(ctx, player); err != nil {
		return nil, err
	}

	s.logger.Info("player registered", slog.String("player", string(name)), slog.String("area", string(area.ID)))
	return player, nil
}

// Authenticate verifies a name/password pair and returns the player with
// LastLogin refreshed.
func (s *Service) Authenticate(ctx context.Context, name model.PlayerName, password string) (*model.Player, error) {
	creds, err := s.storage.GetCredentials(ctx, name)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	player, err := s.Load(ctx, name)
	if err != nil {
		return nil, err
	}

	player.LastLogin = s.clock.Now()
	if err := s.storage.SavePlayer(ctx, player); err != nil {
		return nil, err
	}
	return player, nil
}

// Load aggregates the player row with its inventory.
func (s *Service) Load(ctx context.Context, name model.PlayerName) (*model.Player, error) {
	player, err := s.storage.GetPlayer(ctx, name)
	if err != nil {
		return nil, err
	}

	items, err := s.storage.GetInventory(ctx, name)
	if err != nil {
		return nil, err
	}
	player.Inventory = items
	return player, nil
}

// RecordPosition persists the player's last known area and position.
// Best-effort: gameplay does not wait on it, and failures are only logged
// by the caller.
func (s *Service) RecordPosition(ctx context.Context, name model.PlayerName, area model.AreaID, pos model.Position) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	player, err := s.storage.GetPlayer(ctx, name)
	if err != nil {
		return err
	}

	player.LastArea = area
	player.LastPosition = pos
	return s.storage.SavePlayer(ctx, player)
}

// GrantItem appends an item to the player's inventory and returns the
// refreshed aggregate.
func (s *Service) GrantItem(ctx context.Context, name model.PlayerName, item model.InventoryItem) (*model.Player, error) {
	if err := s.storage.AddInventoryItem(ctx, name, item); err != nil {
		return nil, err
	}
	return s.Load(ctx, name)
}

// SellItem removes the item and credits its recorded value in one atomic
// step, returning the refreshed player and the sold item.
func (s *Service) SellItem(ctx context.Context, name model.PlayerName, itemID string) (*model.Player, *model.InventoryItem, error) {
	s.writeMu.Lock()
	_, sold, err := s.storage.SellInventoryItem(ctx, name, itemID)
	s.writeMu.Unlock()
	if err != nil {
		return nil, nil, err
	}

	player, err := s.Load(ctx, name)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("item sold",
		slog.String("player", string(name)),
		slog.String("fish", sold.FishID),
		slog.Int("value", sold.Fish.Value),
	)
	return player, sold, nil
}

// PurchaseUpgrade debits the next rod's price and increments the tier
// together. Fails with ErrMaxRodTier or ErrInsufficientFunds, leaving the
// player untouched.
func (s *Service) PurchaseUpgrade(ctx context.Context, name model.PlayerName) (*model.Player, *world.RodTier, error) {
	s.writeMu.Lock()
	player, err := s.storage.GetPlayer(ctx, name)
	if err != nil {
		s.writeMu.Unlock()
		return nil, nil, err
	}

	next := world.NextRod(player.RodTier)
	if next == nil {
		s.writeMu.Unlock()
		return nil, nil, model.ErrMaxRodTier
	}
	if player.Gold < next.Price {
		s.writeMu.Unlock()
		return nil, nil, model.ErrInsufficientFunds
	}

	player.Gold -= next.Price
	player.RodTier = next.Level
	err = s.storage.SavePlayer(ctx, player)
	s.writeMu.Unlock()
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("rod upgraded",
		slog.String("player", string(name)),
		slog.Int("tier", next.Level),
		slog.Int("price", next.Price),
	)

	full, err := s.Load(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	return full, next, nil
}

func validateName(name model.PlayerName) error {
	n := utf8.RuneCountInString(string(name))
	if n < minNameLen || n > maxNameLen {
		return fmt.Errorf("%w: name must be %d-%d characters", model.ErrInvalidCredentials, minNameLen, maxNameLen)
	}
	if !namePattern.MatchString(string(name)) {
		return fmt.Errorf("%w: name can only contain letters, numbers, and underscores", model.ErrInvalidCredentials)
	}
	return nil
}
