// Package bootstrap turns configuration into the storage and provider the
// server and CLI run on. The provider is chosen once here and never swapped at
// runtime.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"bookinghub/backend/internal/config"
	"bookinghub/backend/internal/store"
	"bookinghub/backend/internal/store/local"
	"bookinghub/backend/internal/store/memory"
	"bookinghub/backend/internal/store/postgres"
	"bookinghub/backend/internal/store/redis"
	"bookinghub/backend/internal/store/remote"
	"bookinghub/backend/internal/store/sqlite"
)

// OpenSlots opens the slot backend named by cfg.StorageDriver. The returned
// close function is never nil.
func OpenSlots(ctx context.Context, cfg config.Config, log *slog.Logger) (store.SlotStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StorageDriver {
	case config.DriverMemory:
		log.Warn("using in-memory storage, data is lost on exit")
		return memory.NewSlots(), noop, nil

	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, noop, fmt.Errorf("open sqlite storage: %w", err)
		}
		log.Info("sqlite storage opened", slog.String("path", s.Path()))
		return s, s.Close, nil

	case config.DriverPostgres:
		log.Info("connecting to database", DatabaseLogArgs(cfg.DatabaseURL)...)
		db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("open postgres storage: %w", err)
		}
		return postgres.NewSlots(db), func() error { return postgres.Close(db) }, nil

	case config.DriverRedis:
		s, err := redis.Open(ctx, redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("open redis storage: %w", err)
		}
		log.Info("redis storage opened", slog.String("addr", cfg.RedisAddr))
		return s, s.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// NewProvider builds the appointment provider named by cfg.Provider. The
// local provider is serialized because callers may run requests in parallel.
func NewProvider(ctx context.Context, cfg config.Config, tokens remote.TokenSource, log *slog.Logger) (store.AppointmentProvider, func() error, error) {
	switch cfg.Provider {
	case config.ProviderRemote:
		log.Info("using remote provider", slog.String("base_url", cfg.RemoteBaseURL))
		c := remote.New(cfg.RemoteBaseURL,
			remote.WithTimeout(cfg.RemoteTimeout),
			remote.WithTokenSource(tokens),
			remote.WithLogger(log),
		)
		return c, func() error { return nil }, nil

	case config.ProviderLocal:
		slots, closeSlots, err := OpenSlots(ctx, cfg, log)
		if err != nil {
			return nil, closeSlots, err
		}
		p := local.NewAppointmentStore(slots, local.WithLogger(log))
		return store.Serialize(p), closeSlots, nil

	default:
		return nil, func() error { return nil }, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
