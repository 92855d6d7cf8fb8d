package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/felixgeelhaar/homework/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/homework/internal/shared/infrastructure/database/mysql"    // Register MySQL driver
	_ "github.com/felixgeelhaar/homework/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/homework/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/homework/internal/shared/infrastructure/kv"
	"github.com/felixgeelhaar/homework/pkg/config"
)

// Backend names the storage selected by the storage URL.
type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
	BackendMySQL    Backend = "mysql"
	BackendRedis    Backend = "redis"
	BackendMemory   Backend = "memory"
)

// Remote reports whether the backend lives on another host.
func (b Backend) Remote() bool {
	switch b {
	case BackendPostgres, BackendMySQL, BackendRedis:
		return true
	default:
		return false
	}
}

// DetectBackend maps a storage URL to a backend. An empty URL is SQLite.
func DetectBackend(url string) Backend {
	switch {
	case url == "memory://":
		return BackendMemory
	case strings.HasPrefix(url, "redis://"), strings.HasPrefix(url, "rediss://"):
		return BackendRedis
	}
	switch database.DetectDriver(url) {
	case database.DriverPostgres:
		return BackendPostgres
	case database.DriverMySQL:
		return BackendMySQL
	default:
		return BackendSQLite
	}
}

// OpenStorage opens the key-value store named by cfg.StorageURL. Remote
// backends are wrapped in a circuit breaker.
func OpenStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (kv.Store, Backend, error) {
	backend := DetectBackend(cfg.StorageURL)

	var (
		store kv.Store
		err   error
	)
	switch backend {
	case BackendMemory:
		store = kv.NewMemoryStore()
	case BackendRedis:
		store, err = kv.NewRedisStore(ctx, cfg.StorageURL)
	default:
		store, err = openSQLStore(ctx, cfg)
	}
	if err != nil {
		return nil, backend, fmt.Errorf("open %s storage: %w", backend, err)
	}

	if backend.Remote() {
		store = kv.NewBreakerStore(store, kv.BreakerConfig{
			Name:             "storage-" + string(backend),
			FailureThreshold: uint32(cfg.BreakerFailures),
			Timeout:          cfg.BreakerTimeout,
			MaxRequests:      1,
		}, logger)
	}

	logger.DebugContext(ctx, "storage opened", "backend", backend)
	return store, backend, nil
}

func openSQLStore(ctx context.Context, cfg *config.Config) (kv.Store, error) {
	dbCfg := database.Config{URL: cfg.StorageURL}
	if cfg.StorageURL == "" {
		dbCfg.SQLitePath = cfg.SQLitePath
	}

	conn, err := database.NewConnection(ctx, dbCfg)
	if err != nil {
		return nil, err
	}
	store, err := kv.NewSQLStore(ctx, conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return store, nil
}
