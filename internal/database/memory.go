package database

import (
	"context"
	"sort"
	"sync"

	"github.com/Alias1177/QuantLab/internal/model"
	"github.com/Alias1177/QuantLab/models"
)

// MemoryStore keeps price series in process memory
type MemoryStore struct {
	mu     sync.RWMutex
	series map[string][]models.PriceBar
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{series: make(map[string][]models.PriceBar)}
}

// GetSeries returns a copy of the last days bars of symbol.
// days ≤ 0 returns the whole history.
func (m *MemoryStore) GetSeries(_ context.Context, symbol string, days int) (models.PriceSeries, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bars, ok := m.series[symbol]
	if !ok || len(bars) == 0 {
		return models.PriceSeries{}, model.SymbolNotFound(symbol)
	}
	return models.PriceSeries{Symbol: symbol, Bars: bars}.Tail(days), nil
}

// Symbols lists the stored symbols in lexical order
func (m *MemoryStore) Symbols(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	symbols := make([]string, 0, len(m.series))
	for s := range m.series {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols, nil
}

// PutSeries merges series into the store, replacing bars on equal dates
func (m *MemoryStore) PutSeries(_ context.Context, series models.PriceSeries) error {
	if err := validateSeries(series); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	byDay := make(map[string]models.PriceBar, len(m.series[series.Symbol])+series.Len())
	for _, bar := range m.series[series.Symbol] {
		byDay[bar.Date.Format(models.DateLayout)] = bar
	}
	for _, bar := range series.Bars {
		byDay[bar.Date.Format(models.DateLayout)] = bar
	}

	bars := make([]models.PriceBar, 0, len(byDay))
	for _, bar := range byDay {
		bars = append(bars, bar)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	m.series[series.Symbol] = bars
	return nil
}
