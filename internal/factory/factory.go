package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/pondside/pondside/internal/dependencies/clock"
	"github.com/pondside/pondside/internal/dependencies/random"
	"github.com/pondside/pondside/internal/server"
	"github.com/pondside/pondside/internal/services/chat"
	"github.com/pondside/pondside/internal/services/fishing"
	"github.com/pondside/pondside/internal/services/ledger"
	"github.com/pondside/pondside/internal/services/presence"
	"github.com/pondside/pondside/internal/services/session"
	"github.com/pondside/pondside/internal/storage"
	"github.com/pondside/pondside/internal/storage/memory"
	redisstorage "github.com/pondside/pondside/internal/storage/redis"
	"github.com/pondside/pondside/internal/world"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// World data
	Catalog *world.Catalog

	// Services
	SessionService *session.Service
	LedgerService  *ledger.Service
	Presence       *presence.Registry
	FishingService *fishing.Service
	ChatService    *chat.Service
	Coordinator    *server.Coordinator
}

// Config holds configuration for the application factory
type Config struct {
	// AreaDir is a directory of area files to load instead of the
	// catalog compiled into the binary (optional)
	AreaDir string
	// SessionConfig holds configuration for the session service (optional)
	// If zero value, defaults to session.DefaultConfig()
	SessionConfig session.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	var (
		catalog *world.Catalog
		err     error
	)
	if cfg.AreaDir != "" {
		catalog, err = world.LoadDir(cfg.AreaDir)
	} else {
		catalog, err = world.Default()
	}
	if err != nil {
		return nil, err
	}

	sessionCfg := cfg.SessionConfig
	if sessionCfg.TokenTTL == 0 {
		sessionCfg = session.DefaultConfig()
	}

	return newWithDependencies(store, clock.New(), random.New(), catalog, sessionCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	catalog *world.Catalog,
	sessionCfg session.Config,
	logger *slog.Logger,
) *App {
	sessionService := session.New(store, clk, sessionCfg, logger)
	ledgerService := ledger.New(store, catalog, clk, logger)
	registry := presence.NewRegistry(catalog)
	fishingService := fishing.New(catalog, rnd, logger)
	chatService := chat.New(store, clk, logger)
	coordinator := server.NewCoordinator(
		sessionService,
		ledgerService,
		registry,
		fishingService,
		chatService,
		catalog,
		clk,
		logger,
	)

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		Catalog:        catalog,
		SessionService: sessionService,
		LedgerService:  ledgerService,
		Presence:       registry,
		FishingService: fishingService,
		ChatService:    chatService,
		Coordinator:    coordinator,
	}
}
