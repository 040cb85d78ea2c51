package calculate

import "github.com/Alias1177/QuantLab/internal/model"

// EMA calculates the exponential moving average with alpha = 2/(span+1),
// seeded with the first price. Readings before span-1 are warm-up and
// reported undefined.
func EMA(values []float64, span int) model.Series {
	out := model.NewSeries(len(values))
	if span < 1 || len(values) < span {
		return out
	}

	for i, v := range emaFromPrices(values, span) {
		if i >= span-1 {
			out[i] = model.Defined(v)
		}
	}

	return out
}

// emaFromPrices runs the raw recursion over every price
func emaFromPrices(prices []float64, span int) []float64 {
	out := make([]float64, len(prices))
	if len(prices) == 0 {
		return out
	}

	alpha := 2.0 / float64(span+1)
	ema := prices[0]
	out[0] = ema
	for i := 1; i < len(prices); i++ {
		ema = alpha*prices[i] + (1-alpha)*ema
		out[i] = ema
	}

	return out
}
