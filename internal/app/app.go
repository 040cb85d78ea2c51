package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Alias1177/QuantLab/internal/config"
	"github.com/Alias1177/QuantLab/internal/database"
	platformhttp "github.com/Alias1177/QuantLab/internal/platform/http"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogging configures the global console logger
func SetupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	// Set log level from config
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// ConnectionParams maps the storage settings of cfg
func ConnectionParams(cfg *config.Config) database.ConnectionParams {
	return database.ConnectionParams{
		Driver:     cfg.DBDriver,
		SQLitePath: cfg.SQLitePath,
		Host:       cfg.DBHost,
		Port:       cfg.DBPort,
		User:       cfg.DBUser,
		Password:   cfg.DBPassword,
		DBName:     cfg.DBName,
		SSLMode:    cfg.DBSSLMode,
	}
}

// Source builds the CSV source of cfg with a rate-limited fetch client
func Source(cfg *config.Config) *database.Source {
	client := platformhttp.NewClient(platformhttp.ClientOptions{
		Timeout:        cfg.Timeout(),
		RequestsPerSec: 2,
	})
	return database.NewSource(cfg.DataSource, client)
}

// OpenStore opens the configured store and loads the data source into it.
// A store that already holds data survives a failed load.
func OpenStore(ctx context.Context, cfg *config.Config) (database.Store, func() error, error) {
	store, closeFn, err := database.Open(ctx, ConnectionParams(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	if cfg.DataSource == "" {
		return store, closeFn, nil
	}

	if _, err := Source(cfg).Sync(ctx, store); err != nil {
		symbols, listErr := store.Symbols(ctx)
		if listErr != nil || len(symbols) == 0 {
			closeFn()
			return nil, nil, fmt.Errorf("load price data: %w", err)
		}
		log.Warn().Err(err).Int("symbols", len(symbols)).Msg("Price load failed, serving stored data")
	}
	return store, closeFn, nil
}
