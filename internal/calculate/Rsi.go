package calculate

import "github.com/Alias1177/QuantLab/internal/model"

// RSI calculates Wilder's relative strength index. The first period
// readings are undefined; a window without losses reads 100.
func RSI(closes []float64, period int) model.Series {
	out := model.NewSeries(len(closes))
	if period < 1 || len(closes) <= period {
		return out
	}

	var gains, losses float64
	// Seed averages with the first period changes
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	out[period] = model.Defined(rsiFromAverages(avgGain, avgLoss))

	// Wilder smoothing for the rest
	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = model.Defined(rsiFromAverages(avgGain, avgLoss))
	}

	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}

	rs := avgGain / avgLoss
	rsi := 100.0 - (100.0 / (1.0 + rs))
	if rsi < 0 {
		return 0
	}
	if rsi > 100 {
		return 100
	}
	return rsi
}
