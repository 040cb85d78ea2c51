package model

import (
	"encoding/json"
	"math"
	"testing"
)

func TestPortfolioResultJSONWeightsSumToOne(t *testing.T) {
	tests := []struct {
		name    string
		weights []float64
	}{
		{"three equal", []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}},
		{"seven equal", []float64{1.0 / 7, 1.0 / 7, 1.0 / 7, 1.0 / 7, 1.0 / 7, 1.0 / 7, 1.0 / 7}},
		{"uneven", []float64{0.123456789, 0.654321, 1 - 0.123456789 - 0.654321}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := PortfolioResult{
				Symbols:            make([]string, len(tt.weights)),
				Weights:            tt.weights,
				OptimizationMethod: MethodEqualWeight,
				Volatility:         0.123456789,
			}
			data, err := json.Marshal(res)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}

			var decoded struct {
				Weights    []float64 `json:"weights"`
				Volatility float64   `json:"volatility"`
			}
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}

			sum := 0.0
			for _, w := range decoded.Weights {
				sum += w
			}
			if math.Abs(sum-1) > 1e-9 {
				t.Errorf("weights %v sum to %v, want 1", decoded.Weights, sum)
			}
			if decoded.Volatility != 0.1235 {
				t.Errorf("volatility = %v, want 0.1235", decoded.Volatility)
			}
		})
	}
}
