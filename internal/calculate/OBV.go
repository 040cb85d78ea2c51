package calculate

import "github.com/Alias1177/QuantLab/internal/model"

// OBV calculates on-balance volume. The first bar has no prior close and
// stays undefined.
func OBV(closes, volumes []float64) model.Series {
	n := minLen(closes, volumes)
	out := model.NewSeries(len(closes))
	if n < 2 {
		return out
	}

	var obv float64
	for i := 1; i < n; i++ {
		if closes[i] > closes[i-1] {
			// Price up, add volume
			obv += volumes[i]
		} else if closes[i] < closes[i-1] {
			// Price down, subtract volume
			obv -= volumes[i]
		}
		out[i] = model.Defined(obv)
	}

	return out
}

// VWAP calculates the cumulative volume-weighted average close. Readings
// stay undefined until some volume has traded.
func VWAP(closes, volumes []float64) model.Series {
	n := minLen(closes, volumes)
	out := model.NewSeries(len(closes))

	var pv, vol float64
	for i := 0; i < n; i++ {
		pv += closes[i] * volumes[i]
		vol += volumes[i]
		if vol > 0 {
			out[i] = model.Defined(pv / vol)
		}
	}

	return out
}

func minLen(a, b []float64) int {
	if len(a) < len(b) {
		return len(a)
	}
	return len(b)
}
