package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/aretw0/survey/pkg/adapters/file"
	"github.com/aretw0/survey/pkg/adapters/memory"
	redisadapter "github.com/aretw0/survey/pkg/adapters/redis"
	"github.com/aretw0/survey/pkg/adapters/sqlite"
	"github.com/aretw0/survey/pkg/persistence/middleware"
	"github.com/aretw0/survey/pkg/ports"
)

// Backend is an opened session store plus the optional cross-instance locker
// that comes with it.
type Backend struct {
	Store  ports.StateStore
	Locker ports.DistributedLocker
	close  func() error
}

// Close releases the store connection, if any.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// OpenBackend opens the store selected by cfg.Store and wraps it with the masking
// and encryption middleware cfg asks for. Redis also provides a locker.
func OpenBackend(ctx context.Context, cfg Config, logger *slog.Logger) (*Backend, error) {
	var mws []middleware.Middleware
	if len(cfg.MaskNodes) > 0 {
		for _, p := range cfg.MaskNodes {
			if _, err := regexp.Compile(p); err != nil {
				return nil, fmt.Errorf("mask pattern %q: %w", p, err)
			}
		}
		mws = append(mws, middleware.NewPIIMiddleware(cfg.MaskNodes))
	}
	if cfg.EncryptionKey != "" {
		key, err := base64.StdEncoding.DecodeString(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("encryption key: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("encryption key must decode to 32 bytes, got %d", len(key))
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}

	b, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	b.Store = middleware.Wrap(b.Store, mws...)
	return b, nil
}

func openStore(ctx context.Context, cfg Config, logger *slog.Logger) (*Backend, error) {
	switch cfg.Store {
	case "", StoreFile:
		dir := cfg.storeDir()
		logger.Debug("using file store", "dir", dir)
		return &Backend{Store: file.NewStore(dir)}, nil

	case StoreMemory:
		return &Backend{Store: memory.NewStore()}, nil

	case StoreRedis:
		store := redisadapter.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, redisadapter.WithTTL(cfg.SessionTTL))
		if err := store.Client().Ping(ctx).Err(); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		logger.Debug("using redis store", "addr", cfg.RedisAddr, "ttl", cfg.SessionTTL)
		return &Backend{
			Store:  store,
			Locker: redisadapter.NewLocker(store.Client(), redisadapter.DefaultPrefix),
			close:  store.Close,
		}, nil

	case StoreSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = "survey.db"
		}
		store, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, err
		}
		logger.Debug("using sqlite store", "path", path)
		return &Backend{Store: store, close: store.Close}, nil
	}

	return nil, fmt.Errorf("unknown store %q (want %s, %s, %s or %s)", cfg.Store, StoreFile, StoreMemory, StoreRedis, StoreSQLite)
}
