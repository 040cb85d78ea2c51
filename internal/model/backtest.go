package model

import (
	"encoding/json"
	"time"
)

// BacktestResult stores a strategy run against its buy-and-hold benchmark
type BacktestResult struct {
	Symbol               string      `json:"symbol"`
	Strategy             string      `json:"strategy"`
	StrategyLabel        string      `json:"strategy_label"`
	Period               string      `json:"period"`
	Dates                []time.Time `json:"dates"`
	Signals              []int       `json:"signals"`
	BenchmarkEquity      []float64   `json:"benchmark_equity"`
	StrategyEquity       []float64   `json:"strategy_equity"`
	BenchmarkPerformance RiskMetrics `json:"benchmark_performance"`
	StrategyPerformance  RiskMetrics `json:"strategy_performance"`
	Trades               int         `json:"trades"`
	// MonthlyReturns maps YYYY-MM to the compounded strategy return in percent
	MonthlyReturns map[string]float64 `json:"monthly_returns"`
}

// MarshalJSON renders dates as calendar days and rounds equity curves
func (r BacktestResult) MarshalJSON() ([]byte, error) {
	type plain BacktestResult
	return json.Marshal(struct {
		plain
		Dates           []string  `json:"dates"`
		BenchmarkEquity []float64 `json:"benchmark_equity"`
		StrategyEquity  []float64 `json:"strategy_equity"`
	}{
		plain:           plain(r),
		Dates:           formatDays(r.Dates),
		BenchmarkEquity: RoundAll(r.BenchmarkEquity, MetricPlaces),
		StrategyEquity:  RoundAll(r.StrategyEquity, MetricPlaces),
	})
}

func formatDays(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format("2006-01-02")
	}
	return out
}
