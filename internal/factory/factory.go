package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/lightcade/lightcade/internal/dependencies/clock"
	"github.com/lightcade/lightcade/internal/dependencies/random"
	"github.com/lightcade/lightcade/internal/localstore"
	"github.com/lightcade/lightcade/internal/localstore/memory"
	sqlitestore "github.com/lightcade/lightcade/internal/localstore/sqlite"
	"github.com/lightcade/lightcade/internal/remote"
	"github.com/lightcade/lightcade/internal/remote/fake"
	"github.com/lightcade/lightcade/internal/remote/redisremote"
	"github.com/lightcade/lightcade/internal/services/ledger"
	"github.com/lightcade/lightcade/internal/services/relay"
	"github.com/lightcade/lightcade/internal/services/slots"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeSQLite = "sqlite"
)

// Remote type constants
const (
	RemoteTypeFake  = "fake"
	RemoteTypeRedis = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	LocalStore localstore.Store
	Remote     remote.Remote

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	SlotRegistry *slots.Service
	ScoreLedger  *ledger.Service
	ScoreRelay   *relay.Relay
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the local store backend ("memory" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// SQLitePath is the local store path (required if StorageType is "sqlite")
	SQLitePath string
	// RemoteType selects the remote backend ("fake" or "redis")
	// If empty, defaults to "fake"
	RemoteType string
	// RedisConfig holds Redis connection settings (required if RemoteType is "redis")
	RedisConfig *redisremote.Config
}

// New creates a new application with all dependencies wired and loads the
// persisted slot state
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store localstore.Store
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLitePath required when StorageType is sqlite")
		}
		sqliteStore, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		store = sqliteStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'sqlite'")
	}

	var rem remote.Remote
	remoteType := cfg.RemoteType
	if remoteType == "" {
		remoteType = RemoteTypeFake
	}

	switch remoteType {
	case RemoteTypeFake:
		rem = fake.New()
	case RemoteTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when RemoteType is redis")
		}
		redisRemote, err := redisremote.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		rem = redisRemote
	default:
		return nil, errors.New("invalid RemoteType: must be 'fake' or 'redis'")
	}

	clk := clock.New()
	rnd := random.New()

	registry := slots.New(store, rem, rnd, logger)
	if err := registry.Load(context.Background()); err != nil {
		logger.Warn("could not load slot state", slog.String("error", err.Error()))
	}

	scoreLedger := ledger.New(store, rem, clk, logger)
	scoreRelay := relay.New(scoreLedger, logger)

	return &App{
		LocalStore:   store,
		Remote:       rem,
		Clock:        clk,
		Random:       rnd,
		SlotRegistry: registry,
		ScoreLedger:  scoreLedger,
		ScoreRelay:   scoreRelay,
	}, nil
}
