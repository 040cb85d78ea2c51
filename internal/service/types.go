package service

import (
	"encoding/json"
	"time"

	"github.com/Alias1177/QuantLab/internal/model"
	"github.com/Alias1177/QuantLab/models"
)

// IndicatorsResult carries the computed indicators with their dates
type IndicatorsResult struct {
	Symbol     string             `json:"symbol"`
	Dates      []time.Time        `json:"dates"`
	Indicators model.IndicatorSet `json:"indicators"`
}

// MarshalJSON renders dates as calendar days
func (r IndicatorsResult) MarshalJSON() ([]byte, error) {
	type plain IndicatorsResult
	return json.Marshal(struct {
		plain
		Dates []string `json:"dates"`
	}{plain: plain(r), Dates: models.FormatDates(r.Dates)})
}

// StockSummary is the latest bar of one symbol
type StockSummary struct {
	Symbol      string  `json:"symbol"`
	Date        string  `json:"date"`
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Close       float64 `json:"close"`
	Volume      int64   `json:"volume"`
	LatestPrice float64 `json:"latest_price"`
	// PriceChange is the last daily change in percent
	PriceChange float64 `json:"price_change"`
}

// StockBar is one bar with its moving averages and return in percent
type StockBar struct {
	Date    string      `json:"date"`
	Open    float64     `json:"open"`
	High    float64     `json:"high"`
	Low     float64     `json:"low"`
	Close   float64     `json:"close"`
	Volume  int64       `json:"volume"`
	MA5     model.Value `json:"ma5"`
	MA20    model.Value `json:"ma20"`
	Returns model.Value `json:"returns"`
}

// DateRange bounds a returned window
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// PriceStats summarizes a returned window
type PriceStats struct {
	Current   float64 `json:"current"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	AvgVolume int64   `json:"avg_volume"`
}

// StockStatistics describes the bars of a StockDetail
type StockStatistics struct {
	TotalRecords int        `json:"total_records"`
	DateRange    DateRange  `json:"date_range"`
	PriceStats   PriceStats `json:"price_stats"`
}

// StockDetail is the bar history of one symbol
type StockDetail struct {
	Symbol     string          `json:"symbol"`
	Data       []StockBar      `json:"data"`
	Statistics StockStatistics `json:"statistics"`
}

// Health reports whether price data is available
type Health struct {
	Status      string    `json:"status"`
	DataLoaded  bool      `json:"data_loaded"`
	TotalStocks int       `json:"total_stocks"`
	Timestamp   time.Time `json:"timestamp"`
}
