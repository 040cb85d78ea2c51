package backtest

import (
	"github.com/Alias1177/QuantLab/internal/calculate"
	"github.com/Alias1177/QuantLab/internal/model"
)

// positionState is the RSI strategy's exposure, carried bar to bar
type positionState int

const (
	stateFlat positionState = iota
	stateLong
)

func (s positionState) signal() int {
	if s == stateLong {
		return 1
	}
	return 0
}

// generateSignals returns one 0/1 signal per close using only data up to
// and including that close
func generateSignals(closes []float64, strategy string, params Params) []int {
	switch strategy {
	case MovingAverage:
		return movingAverageSignals(closes, params.MAShort, params.MALong)
	case RSIReversion:
		return rsiSignals(closes, params.RSIPeriod, params.RSIOversold, params.RSIOverbought)
	default:
		signals := make([]int, len(closes))
		for i := range signals {
			signals[i] = 1
		}
		return signals
	}
}

// movingAverageSignals is long only while the short average is strictly
// above the long one; flat during warm-up
func movingAverageSignals(closes []float64, short, long int) []int {
	shortMA := calculate.SMA(closes, short)
	longMA := calculate.SMA(closes, long)

	signals := make([]int, len(closes))
	for i := range closes {
		s, okS := shortMA.At(i)
		l, okL := longMA.At(i)
		if okS && okL && s > l {
			signals[i] = 1
		}
	}
	return signals
}

// rsiSignals enters long at or below oversold and exits at or above
// overbought, holding its state inside the band
func rsiSignals(closes []float64, period int, oversold, overbought float64) []int {
	return rsiPositions(calculate.RSI(closes, period), oversold, overbought)
}

func rsiPositions(rsi model.Series, oversold, overbought float64) []int {
	signals := make([]int, len(rsi))
	state := stateFlat
	for i := range rsi {
		if value, ok := rsi.At(i); ok {
			switch {
			case state == stateFlat && value <= oversold:
				state = stateLong
			case state == stateLong && value >= overbought:
				state = stateFlat
			}
		}
		signals[i] = state.signal()
	}
	return signals
}
