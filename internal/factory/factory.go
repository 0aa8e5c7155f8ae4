package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/cardroomhq/cardroom/internal/dependencies/clock"
	"github.com/cardroomhq/cardroom/internal/dependencies/random"
	"github.com/cardroomhq/cardroom/internal/services/auth"
	"github.com/cardroomhq/cardroom/internal/services/deck"
	"github.com/cardroomhq/cardroom/internal/services/hand"
	"github.com/cardroomhq/cardroom/internal/services/ledger"
	"github.com/cardroomhq/cardroom/internal/services/stats"
	"github.com/cardroomhq/cardroom/internal/services/table"
	"github.com/cardroomhq/cardroom/internal/storage"
	"github.com/cardroomhq/cardroom/internal/storage/memory"
	redisstorage "github.com/cardroomhq/cardroom/internal/storage/redis"
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

	// Services
	DeckService   *deck.Service
	HandService   *hand.Service
	LedgerService *ledger.Service
	StatsService  *stats.Service
	AuthService   *auth.Service
	Registry      *table.Registry
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// RegistryConfig holds table registry settings (optional)
	// If zero value, defaults to table.DefaultRegistryConfig()
	RegistryConfig table.RegistryConfig
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
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
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

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}
	registryCfg := cfg.RegistryConfig
	if registryCfg.GraceWindow == 0 {
		registryCfg = table.DefaultRegistryConfig()
	}

	return newWithDependencies(store, clk, rnd, authCfg, registryCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, authCfg auth.Config, registryCfg table.RegistryConfig, logger *slog.Logger) *App {
	// Create services
	deckService := deck.New(rnd)
	handService := hand.New()
	ledgerService := ledger.New(store)
	statsService := stats.New(store)
	authService := auth.New(store, ledgerService, clk, authCfg)

	registry := table.NewRegistry(table.Dependencies{
		Logger: logger,
		Clock:  clk,
		Decks:  deckService,
		Hands:  handService,
		Ledger: ledgerService,
		Stats:  statsService,
	}, rnd, registryCfg)

	return &App{
		Storage:       store,
		Clock:         clk,
		Random:        rnd,
		DeckService:   deckService,
		HandService:   handService,
		LedgerService: ledgerService,
		StatsService:  statsService,
		AuthService:   authService,
		Registry:      registry,
	}
}
