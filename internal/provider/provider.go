// Package provider opens the record store selected by configuration.
package provider

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/celerix-dev/celerix-apiforge/internal/config"
	"github.com/celerix-dev/celerix-apiforge/internal/engine"
	"github.com/celerix-dev/celerix-apiforge/internal/sqlstore"
	"github.com/celerix-dev/celerix-apiforge/internal/vault"
)

// Open returns the RecordStore described by cfg. The caller owns it and must Close it.
func Open(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (engine.RecordStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Driver {
	case config.DriverMemory:
		return engine.NewMemStore(nil, nil, logger), nil

	case config.DriverFile:
		var sealer *vault.Sealer
		if cfg.EncryptionKey != "" {
			key, err := vault.ParseKey(cfg.EncryptionKey)
			if err != nil {
				return nil, fmt.Errorf("invalid encryption key: %w", err)
			}
			if sealer, err = vault.NewSealer(key); err != nil {
				return nil, err
			}
		}
		persister, err := engine.NewPersistence(cfg.DataDir, sealer, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize persistence: %w", err)
		}
		data, err := persister.LoadAll()
		if err != nil {
			return nil, fmt.Errorf("failed to load data: %w", err)
		}
		logger.Info("Loaded file store", zap.String("dir", cfg.DataDir), zap.Int("users", len(data)), zap.Bool("encrypted", sealer != nil))
		return engine.NewMemStore(data, persister, logger), nil

	case config.DriverSQLite:
		return sqlstore.Open(ctx, sqlstore.DriverSQLite, cfg.Path, logger)

	case config.DriverPostgres:
		return sqlstore.Open(ctx, sqlstore.DriverPostgres, PostgresDSN(cfg), logger)

	default:
		return nil, fmt.Errorf("unsupported storage driver: %q", cfg.Driver)
	}
}

// PostgresDSN builds a lib/pq connection URL from cfg.
func PostgresDSN(cfg config.StorageConfig) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   "/" + cfg.Name,
	}
	if cfg.Username != "" {
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	}
	q := url.Values{}
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
