package calculate

import (
	"math"

	"github.com/Alias1177/QuantLab/internal/model"
)

// SMA calculates the simple moving average over window with a running sum.
// The first window-1 readings are undefined.
func SMA(values []float64, window int) model.Series {
	out := model.NewSeries(len(values))
	if window < 1 || len(values) < window {
		return out
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = model.Defined(sum / float64(window))
		}
	}

	return out
}

// RollingStdDev calculates the sample (n-1) standard deviation over window.
// A window of one has zero deviation.
func RollingStdDev(values []float64, window int) model.Series {
	out := model.NewSeries(len(values))
	if window < 1 || len(values) < window {
		return out
	}

	for i := window - 1; i < len(values); i++ {
		if window == 1 {
			out[i] = model.Defined(0)
			continue
		}
		w := values[i-window+1 : i+1]
		mean := calculateAverage(w)

		var ss float64
		for _, v := range w {
			ss += (v - mean) * (v - mean)
		}
		out[i] = model.Defined(math.Sqrt(ss / float64(window-1)))
	}

	return out
}

// calculateAverage calculates simple average
func calculateAverage(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, value := range values {
		sum += value
	}

	return sum / float64(len(values))
}
