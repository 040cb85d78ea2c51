package calculate

import "github.com/Alias1177/QuantLab/internal/model"

// MACD calculates the MACD line, its signal line and the histogram.
// The MACD line is defined from slow-1 and the signal line from
// slow+signal-2. Shorter inputs leave all three undefined.
func MACD(closes []float64, fastPeriod, slowPeriod, signalPeriod int) model.MACDSeries {
	n := len(closes)
	result := model.MACDSeries{
		MACD:      model.NewSeries(n),
		Signal:    model.NewSeries(n),
		Histogram: model.NewSeries(n),
	}
	if fastPeriod < 1 || slowPeriod < 1 || signalPeriod < 1 {
		return result
	}

	start := slowPeriod - 1
	if fastPeriod > slowPeriod {
		start = fastPeriod - 1
	}
	if n < start+signalPeriod {
		return result
	}

	fastEMA := emaFromPrices(closes, fastPeriod)
	slowEMA := emaFromPrices(closes, slowPeriod)

	// Signal recursion is seeded with the first defined MACD value
	alpha := 2.0 / float64(signalPeriod+1)
	var signal float64
	for i := start; i < n; i++ {
		macd := fastEMA[i] - slowEMA[i]
		result.MACD[i] = model.Defined(macd)

		if i == start {
			signal = macd
		} else {
			signal = alpha*macd + (1-alpha)*signal
		}

		if i >= start+signalPeriod-1 {
			result.Signal[i] = model.Defined(signal)
			result.Histogram[i] = model.Defined(macd - signal)
		}
	}

	return result
}
