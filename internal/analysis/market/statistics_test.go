package market

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Alias1177/QuantLab/internal/model"
	"github.com/Alias1177/QuantLab/models"
)

func seriesFromCloses(closes []float64) models.PriceSeries {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = models.PriceBar{
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: float64(1000 * (i + 1)),
		}
	}
	return models.PriceSeries{Symbol: "TEST", Bars: bars}
}

func TestAnalyze(t *testing.T) {
	series := seriesFromCloses([]float64{100, 102, 101, 105, 110})

	analysis, err := Analyze(series)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	ps := analysis.PriceStatistics
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"current_price", ps.CurrentPrice, 110},
		{"period_high", ps.PeriodHigh, 111},
		{"period_low", ps.PeriodLow, 99},
		{"average_price", ps.AveragePrice, 103.6},
		{"total_return", analysis.Performance.TotalReturn, 10},
		{"best_day", analysis.Performance.BestDay, (110.0/105 - 1) * 100},
		{"worst_day", analysis.Performance.WorstDay, (101.0/102 - 1) * 100},
		{"max_drawdown", analysis.RiskMetrics.MaxDrawdown, 101.0/102 - 1},
	}
	for _, tt := range tests {
		if math.Abs(tt.got-tt.want) > 1e-9 {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	if ps.AverageVolume != 3000 {
		t.Errorf("average_volume = %d, want 3000", ps.AverageVolume)
	}
	if analysis.Performance.PositiveDays != 3 || analysis.Performance.NegativeDays != 1 {
		t.Errorf("positive/negative = %d/%d, want 3/1",
			analysis.Performance.PositiveDays, analysis.Performance.NegativeDays)
	}
}

func TestAnalyzeFlatSeries(t *testing.T) {
	analysis, err := Analyze(seriesFromCloses([]float64{50, 50, 50, 50}))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if analysis.PriceStatistics.PriceStd != 0 {
		t.Errorf("price_std = %v, want 0", analysis.PriceStatistics.PriceStd)
	}
	p := analysis.Performance
	if p.TotalReturn != 0 || p.BestDay != 0 || p.WorstDay != 0 || p.PositiveDays != 0 || p.NegativeDays != 0 {
		t.Errorf("performance = %+v, want zeros", p)
	}
	if analysis.RiskMetrics != (model.RiskMetrics{}) {
		t.Errorf("risk metrics = %+v, want zeros", analysis.RiskMetrics)
	}
}

func TestAnalyzeTooShort(t *testing.T) {
	_, err := Analyze(seriesFromCloses([]float64{100}))
	if !errors.Is(err, model.ErrInsufficientData) {
		t.Fatalf("Analyze() error = %v, want InsufficientData", err)
	}
}
