package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Alias1177/QuantLab/internal/app"
	"github.com/Alias1177/QuantLab/internal/config"
	"github.com/Alias1177/QuantLab/internal/database"
	platformhttp "github.com/Alias1177/QuantLab/internal/platform/http"
	"github.com/Alias1177/QuantLab/internal/service"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	// 1. Load configuration and logging
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	app.SetupLogging(cfg.LogLevel)
	log.Info().Str("addr", cfg.HTTPAddr).Str("db_driver", cfg.DBDriver).Msg("Starting QuantLab API")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Open the store and load price data
	store, closeStore, err := app.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open price store")
	}
	defer closeStore()

	// 3. Schedule refreshes
	var refresher *database.Refresher
	if cfg.DataRefreshCron != "" && cfg.DataSource != "" {
		refresher, err = database.NewRefresher(cfg.DataRefreshCron, app.Source(cfg), store, cfg.Timeout()*10)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid refresh schedule")
		}
		refresher.Start()
		log.Info().Str("schedule", cfg.DataRefreshCron).Msg("Price refresh scheduled")
	}

	// 4. Serve
	svc := service.New(store, cfg.IndicatorParams())
	server := platformhttp.NewServer(platformhttp.ServerOptions{
		Addr:           cfg.HTTPAddr,
		RequestTimeout: cfg.Timeout(),
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Defaults: platformhttp.Defaults{
			StockDays:     30,
			ChartDays:     cfg.DefaultIndicatorDays,
			IndicatorDays: cfg.DefaultIndicatorDays,
			AnalysisDays:  cfg.DefaultAnalysisDays,
			ListLimit:     10,
		},
	}, svc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx)
	})
	if refresher != nil {
		g.Go(func() error {
			<-gctx.Done()
			refresher.Stop(context.Background())
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server exited with error")
		return
	}
	log.Info().Msg("Server stopped")
}
