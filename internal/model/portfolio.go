package model

import "encoding/json"

// Optimization methods
const (
	MethodMaxSharpe       = "max_sharpe"
	MethodMinVolatility   = "min_volatility"
	MethodMaxReturn       = "max_return"
	MethodEqualWeight     = "equal_weight"
	MethodRiskParity      = "risk_parity"
	MethodMinimumVariance = "minimum_variance"
)

// PortfolioResult is an optimized long-only allocation
type PortfolioResult struct {
	Symbols            []string               `json:"symbols"`
	Weights            []float64              `json:"weights"`
	OptimizationMethod string                 `json:"optimization_method"`
	RequestedMethod    string                 `json:"requested_method"`
	Fallback           bool                   `json:"fallback"`
	Period             string                 `json:"period"`
	Observations       int                    `json:"observations"`
	ExpectedReturn     float64                `json:"expected_return"`
	Volatility         float64                `json:"volatility"`
	Metrics            RiskMetrics            `json:"metrics"`
	CorrelationMatrix  [][]float64            `json:"correlation_matrix"`
	IndividualMetrics  map[string]RiskMetrics `json:"individual_metrics"`
}

// WeightOf returns the weight assigned to symbol
func (p *PortfolioResult) WeightOf(symbol string) float64 {
	for i, s := range p.Symbols {
		if s == symbol {
			return p.Weights[i]
		}
	}
	return 0
}

// MarshalJSON rounds summary figures and correlations. Weights are emitted
// unrounded.
func (p PortfolioResult) MarshalJSON() ([]byte, error) {
	type plain PortfolioResult
	corr := make([][]float64, len(p.CorrelationMatrix))
	for i, row := range p.CorrelationMatrix {
		corr[i] = RoundAll(row, MetricPlaces)
	}
	return json.Marshal(struct {
		plain
		ExpectedReturn    float64     `json:"expected_return"`
		Volatility        float64     `json:"volatility"`
		CorrelationMatrix [][]float64 `json:"correlation_matrix"`
	}{
		plain:             plain(p),
		ExpectedReturn:    Round(p.ExpectedReturn, MetricPlaces),
		Volatility:        Round(p.Volatility, MetricPlaces),
		CorrelationMatrix: corr,
	})
}
