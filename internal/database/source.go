package database

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	platformhttp "github.com/Alias1177/QuantLab/internal/platform/http"
	"github.com/Alias1177/QuantLab/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Source loads price history from a CSV file path or http(s) URL
type Source struct {
	location string
	client   *platformhttp.Client
	logger   zerolog.Logger
}

// NewSource creates a source; client is only used for remote locations
func NewSource(location string, client *platformhttp.Client) *Source {
	return &Source{
		location: location,
		client:   client,
		logger:   log.With().Str("component", "source").Str("location", location).Logger(),
	}
}

func (s *Source) remote() bool {
	return strings.HasPrefix(s.location, "http://") || strings.HasPrefix(s.location, "https://")
}

// Load reads and parses the CSV
func (s *Source) Load(ctx context.Context) ([]models.PriceSeries, error) {
	var (
		data []byte
		err  error
	)
	if s.remote() {
		if s.client == nil {
			return nil, fmt.Errorf("load %s: no http client configured", s.location)
		}
		data, err = s.client.Fetch(ctx, s.location)
	} else {
		data, err = os.ReadFile(s.location)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.location, err)
	}

	series, err := ParseCSV(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.location, err)
	}
	return series, nil
}

// Sync loads the source and writes every series to w. It returns the
// number of series written.
func (s *Source) Sync(ctx context.Context, w models.SeriesWriter) (int, error) {
	series, err := s.Load(ctx)
	if err != nil {
		return 0, err
	}

	for i, ps := range series {
		if err := w.PutSeries(ctx, ps); err != nil {
			return i, fmt.Errorf("store %s: %w", ps.Symbol, err)
		}
	}

	s.logger.Info().Int("symbols", len(series)).Msg("Price data loaded")
	return len(series), nil
}
