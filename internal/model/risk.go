package model

import "encoding/json"

// RiskMetrics summarizes one return series, risk-free rate 0
type RiskMetrics struct {
	AnnualReturn     float64 `json:"annual_return"`
	AnnualVolatility float64 `json:"annual_volatility"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	VaR95            float64 `json:"var_95"`
	Skewness         float64 `json:"skewness"`
	Kurtosis         float64 `json:"kurtosis"`
}

// Rounded returns a copy rounded to MetricPlaces
func (m RiskMetrics) Rounded() RiskMetrics {
	return RiskMetrics{
		AnnualReturn:     Round(m.AnnualReturn, MetricPlaces),
		AnnualVolatility: Round(m.AnnualVolatility, MetricPlaces),
		SharpeRatio:      Round(m.SharpeRatio, MetricPlaces),
		MaxDrawdown:      Round(m.MaxDrawdown, MetricPlaces),
		VaR95:            Round(m.VaR95, MetricPlaces),
		Skewness:         Round(m.Skewness, MetricPlaces),
		Kurtosis:         Round(m.Kurtosis, MetricPlaces),
	}
}

// MarshalJSON emits the rounded snapshot
func (m RiskMetrics) MarshalJSON() ([]byte, error) {
	type plain RiskMetrics
	return json.Marshal(plain(m.Rounded()))
}
