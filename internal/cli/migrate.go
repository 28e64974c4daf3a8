package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/celerix-dev/celerix-apiforge/internal/config"
	"github.com/celerix-dev/celerix-apiforge/internal/engine"
	"github.com/celerix-dev/celerix-apiforge/internal/log"
	"github.com/celerix-dev/celerix-apiforge/internal/provider"
)

// MigrateCmd copies every record from one storage backend to another.
func MigrateCmd() *cobra.Command {
	var fromDriver, fromPath, toDriver, toPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy records between storage backends",
		Long: `Copies every stored API from one backend to another. Settings not given on
the command line (postgres host, credentials, encryption key) come from the
configuration file and CELERIX_* environment variables.

The path is the data directory for "file", the database file for "sqlite"
and the database name for "postgres".

Examples:
  celerix-apiforge migrate --from-driver file --from-path ./data --to-driver sqlite --to-path ./apiforge.db
  celerix-apiforge migrate --from-driver sqlite --from-path ./apiforge.db --to-driver file --to-path ./backup`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger, err := log.New(cfg.Log.Level)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			src, err := provider.Open(cmd.Context(), storageFor(cfg.Storage, fromDriver, fromPath), logger)
			if err != nil {
				return fmt.Errorf("failed to open source: %w", err)
			}
			defer src.Close()

			dst, err := provider.Open(cmd.Context(), storageFor(cfg.Storage, toDriver, toPath), logger)
			if err != nil {
				return fmt.Errorf("failed to open destination: %w", err)
			}

			n, err := engine.Migrate(cmd.Context(), src, dst)
			if cerr := dst.Close(); err == nil && cerr != nil {
				err = cerr
			}
			if err != nil {
				return err
			}

			logger.Info("Migration finished", zap.Int("records", n))
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d records from %s to %s\n", n, fromDriver, toDriver)
			return nil
		},
	}

	cmd.Flags().StringVar(&fromDriver, "from-driver", "", "Source driver: file, sqlite or postgres")
	cmd.Flags().StringVar(&fromPath, "from-path", "", "Source location")
	cmd.Flags().StringVar(&toDriver, "to-driver", "", "Destination driver: file, sqlite or postgres")
	cmd.Flags().StringVar(&toPath, "to-path", "", "Destination location")
	_ = cmd.MarkFlagRequired("from-driver")
	_ = cmd.MarkFlagRequired("to-driver")
	return cmd
}

// storageFor derives a backend configuration from the loaded base settings.
func storageFor(base config.StorageConfig, driver, path string) config.StorageConfig {
	cfg := base
	cfg.Driver = driver
	if path == "" {
		return cfg
	}
	switch driver {
	case config.DriverFile:
		cfg.DataDir = path
	case config.DriverSQLite:
		cfg.Path = path
	case config.DriverPostgres:
		cfg.Name = path
	}
	return cfg
}
