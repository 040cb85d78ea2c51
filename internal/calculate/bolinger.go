package calculate

import "github.com/Alias1177/QuantLab/internal/model"

// Bollinger calculates bands at k rolling sample standard deviations
// around the simple moving average
func Bollinger(closes []float64, window int, k float64) model.BollingerSeries {
	middle := SMA(closes, window)
	sd := RollingStdDev(closes, window)

	upper := model.NewSeries(len(closes))
	lower := model.NewSeries(len(closes))
	for i := range closes {
		m, ok := middle.At(i)
		if !ok {
			continue
		}
		s, _ := sd.At(i)
		upper[i] = model.Defined(m + k*s)
		lower[i] = model.Defined(m - k*s)
	}

	return model.BollingerSeries{Upper: upper, Middle: middle, Lower: lower}
}
