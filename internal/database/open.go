package database

import (
	"context"

	"github.com/Alias1177/QuantLab/internal/model"
	"github.com/Alias1177/QuantLab/models"
)

// Store reads and writes price series
type Store interface {
	models.PriceStore
	models.SeriesWriter
}

// Open returns the store selected by params.Driver and a function that
// releases it
func Open(ctx context.Context, params ConnectionParams) (Store, func() error, error) {
	if params.Driver == DriverMemory || params.Driver == "" {
		return NewMemoryStore(), func() error { return nil }, nil
	}

	db, err := New(ctx, params)
	if err != nil {
		return nil, nil, err
	}
	return db, db.Close, nil
}

func validateSeries(series models.PriceSeries) error {
	if series.Symbol == "" {
		return model.InvalidParameter("symbol", "put series: empty symbol")
	}
	if err := series.Validate(); err != nil {
		return model.InvalidParameter("bars", "%v", err)
	}
	return nil
}
