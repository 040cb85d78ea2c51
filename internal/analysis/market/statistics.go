package market

import (
	"math"

	"github.com/Alias1177/QuantLab/internal/model"
	"github.com/Alias1177/QuantLab/internal/trading/risk"
	"github.com/Alias1177/QuantLab/models"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// minBars is the shortest window with at least one return
const minBars = 2

// Analyze builds the risk, price and performance report for a series
func Analyze(series models.PriceSeries) (*model.Analysis, error) {
	if series.Len() < minBars {
		return nil, model.InsufficientData(series.Symbol, minBars, series.Len())
	}

	returns := series.Returns().Values

	return &model.Analysis{
		Symbol:          series.Symbol,
		RiskMetrics:     risk.Compute(returns),
		PriceStatistics: PriceStatistics(series),
		Performance:     Performance(series.Closes(), returns),
	}, nil
}

// PriceStatistics summarizes closes, extremes and volume of a non-empty series
func PriceStatistics(series models.PriceSeries) model.PriceStatistics {
	closes := series.Closes()
	if len(closes) == 0 {
		return model.PriceStatistics{}
	}

	stats := model.PriceStatistics{
		CurrentPrice:  closes[len(closes)-1],
		PeriodHigh:    floats.Max(series.Highs()),
		PeriodLow:     floats.Min(series.Lows()),
		AveragePrice:  stat.Mean(closes, nil),
		AverageVolume: int64(stat.Mean(series.Volumes(), nil)),
	}
	if len(closes) > 1 {
		stats.PriceStd = model.Finite(stat.StdDev(closes, nil))
	}
	return stats
}

// Performance reports window returns in percent
func Performance(closes, returns []float64) model.Performance {
	var p model.Performance
	if len(closes) > 1 && closes[0] != 0 {
		p.TotalReturn = (closes[len(closes)-1]/closes[0] - 1) * 100
	}
	if len(returns) == 0 {
		return p
	}

	p.BestDay = math.Inf(-1)
	p.WorstDay = math.Inf(1)
	for _, r := range returns {
		p.BestDay = math.Max(p.BestDay, r)
		p.WorstDay = math.Min(p.WorstDay, r)
		switch {
		case r > 0:
			p.PositiveDays++
		case r < 0:
			p.NegativeDays++
		}
	}
	p.BestDay *= 100
	p.WorstDay *= 100

	return p
}
