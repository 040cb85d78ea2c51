package models

import "context"

// PriceStore supplies historical prices to the analytics core
type PriceStore interface {
	// GetSeries returns the most recent days bars for symbol, or a
	// SymbolNotFound error when the symbol is unknown.
	GetSeries(ctx context.Context, symbol string, days int) (PriceSeries, error)
	Symbols(ctx context.Context) ([]string, error)
}

// SeriesWriter replaces the stored history of a symbol
type SeriesWriter interface {
	PutSeries(ctx context.Context, series PriceSeries) error
}
