package risk

import (
	"math"
	"sort"

	"github.com/Alias1177/QuantLab/internal/model"
	"github.com/Alias1177/QuantLab/models"
	"gonum.org/v1/gonum/stat"
)

// volatilityFloor treats numerically flat series as zero volatility
const volatilityFloor = 1e-12

// Compute derives annualized risk and performance statistics from
// simple periodic returns. Fewer than two finite observations yield
// all-zero metrics.
func Compute(returns []float64) model.RiskMetrics {
	clean := finiteOnly(returns)
	n := len(clean)
	if n < 2 {
		return model.RiskMetrics{}
	}

	annualization := float64(models.TradingDaysPerYear)

	mean := stat.Mean(clean, nil)
	sd := stat.StdDev(clean, nil)
	if sd < volatilityFloor {
		sd = 0
	}

	m := model.RiskMetrics{
		AnnualReturn:     mean * annualization,
		AnnualVolatility: sd * math.Sqrt(annualization),
		MaxDrawdown:      MaxDrawdown(clean),
		VaR95:            math.Min(Percentile(clean, 5), 0),
	}

	if m.AnnualVolatility > 0 {
		m.SharpeRatio = m.AnnualReturn / m.AnnualVolatility
		m.Skewness, m.Kurtosis = shape(clean)
	}

	return sanitize(m)
}

// MaxDrawdown returns the deepest peak-to-trough decline of the
// compounded equity curve starting at 1.0. The result is ≤ 0.
func MaxDrawdown(returns []float64) float64 {
	equity := 1.0
	peak := 1.0
	maxDD := 0.0

	for _, r := range returns {
		equity *= 1 + r
		if equity > peak {
			peak = equity
		}
		if peak <= 0 {
			continue
		}
		if dd := equity/peak - 1; dd < maxDD {
			maxDD = dd
		}
	}

	return maxDD
}

// Percentile returns the p-th percentile (0..100) with linear
// interpolation between closest ranks. The input is not modified.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// shape returns population skewness and excess kurtosis
func shape(x []float64) (skew, kurt float64) {
	m2 := stat.Moment(2, x, nil)
	if m2 <= 0 {
		return 0, 0
	}
	if len(x) >= 3 {
		skew = stat.Moment(3, x, nil) / math.Pow(m2, 1.5)
	}
	if len(x) >= 4 {
		kurt = stat.Moment(4, x, nil)/(m2*m2) - 3
	}
	return skew, kurt
}

func finiteOnly(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func sanitize(m model.RiskMetrics) model.RiskMetrics {
	m.AnnualReturn = model.Finite(m.AnnualReturn)
	m.AnnualVolatility = model.Finite(m.AnnualVolatility)
	m.SharpeRatio = model.Finite(m.SharpeRatio)
	m.MaxDrawdown = model.Finite(m.MaxDrawdown)
	m.VaR95 = model.Finite(m.VaR95)
	m.Skewness = model.Finite(m.Skewness)
	m.Kurtosis = model.Finite(m.Kurtosis)
	return m
}
