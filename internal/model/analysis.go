package model

import "encoding/json"

// PriceStatistics summarizes the price level over the analysis window
type PriceStatistics struct {
	CurrentPrice  float64 `json:"current_price"`
	PeriodHigh    float64 `json:"period_high"`
	PeriodLow     float64 `json:"period_low"`
	AveragePrice  float64 `json:"average_price"`
	PriceStd      float64 `json:"price_std"`
	AverageVolume int64   `json:"average_volume"`
}

// Performance holds window returns in percent and up/down day counts
type Performance struct {
	TotalReturn  float64 `json:"total_return"`
	BestDay      float64 `json:"best_day"`
	WorstDay     float64 `json:"worst_day"`
	PositiveDays int     `json:"positive_days"`
	NegativeDays int     `json:"negative_days"`
}

// Analysis is the single-symbol quantitative report
type Analysis struct {
	Symbol          string          `json:"symbol"`
	AnalysisPeriod  string          `json:"analysis_period"`
	RiskMetrics     RiskMetrics     `json:"risk_metrics"`
	PriceStatistics PriceStatistics `json:"price_statistics"`
	Performance     Performance     `json:"performance"`
}

// MarshalJSON rounds prices to PricePlaces
func (p PriceStatistics) MarshalJSON() ([]byte, error) {
	type plain PriceStatistics
	out := plain(p)
	out.CurrentPrice = Round(p.CurrentPrice, PricePlaces)
	out.PeriodHigh = Round(p.PeriodHigh, PricePlaces)
	out.PeriodLow = Round(p.PeriodLow, PricePlaces)
	out.AveragePrice = Round(p.AveragePrice, PricePlaces)
	out.PriceStd = Round(p.PriceStd, PricePlaces)
	return json.Marshal(out)
}

// MarshalJSON rounds percentages to two places
func (p Performance) MarshalJSON() ([]byte, error) {
	type plain Performance
	out := plain(p)
	out.TotalReturn = Round(p.TotalReturn, PricePlaces)
	out.BestDay = Round(p.BestDay, PricePlaces)
	out.WorstDay = Round(p.WorstDay, PricePlaces)
	return json.Marshal(out)
}
