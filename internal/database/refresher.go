package database

import (
	"context"
	"fmt"
	"time"

	"github.com/Alias1177/QuantLab/models"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Refresher re-syncs a source into a store on a cron schedule
type Refresher struct {
	cron    *cron.Cron
	source  *Source
	writer  models.SeriesWriter
	timeout time.Duration
	logger  zerolog.Logger
}

// NewRefresher schedules source syncs with a standard five-field cron
// expression such as "0 18 * * 1-5"
func NewRefresher(schedule string, source *Source, writer models.SeriesWriter, timeout time.Duration) (*Refresher, error) {
	r := &Refresher{
		cron:    cron.New(),
		source:  source,
		writer:  writer,
		timeout: timeout,
		logger:  log.With().Str("component", "refresher").Logger(),
	}

	if _, err := r.cron.AddFunc(schedule, r.refresh); err != nil {
		return nil, fmt.Errorf("schedule %q: %w", schedule, err)
	}
	return r, nil
}

func (r *Refresher) refresh() {
	ctx := context.Background()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	n, err := r.source.Sync(ctx, r.writer)
	if err != nil {
		r.logger.Error().Err(err).Msg("Price refresh failed")
		return
	}
	r.logger.Info().Int("symbols", n).Dur("took", time.Since(start)).Msg("Price refresh completed")
}

// Start runs the scheduler in its own goroutine
func (r *Refresher) Start() {
	r.cron.Start()
}

// Stop halts the scheduler and waits for a running refresh to finish
func (r *Refresher) Stop(ctx context.Context) {
	done := r.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
