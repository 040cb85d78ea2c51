package model

import (
	"encoding/json"
	"strconv"
)

// Value is one indicator reading; Valid is false inside the lookback window
type Value struct {
	Float float64
	Valid bool
}

// Defined wraps a computed reading
func Defined(v float64) Value {
	return Value{Float: v, Valid: true}
}

// MarshalJSON renders undefined readings as null
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(Round(v.Float, MetricPlaces), 'f', -1, 64)), nil
}

// UnmarshalJSON accepts null or a number
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Defined(f)
	return nil
}

// Series is an indicator aligned one-to-one with the input bars
type Series []Value

// NewSeries returns n undefined readings
func NewSeries(n int) Series {
	return make(Series, n)
}

// At returns the reading at i and whether it is defined
func (s Series) At(i int) (float64, bool) {
	if i < 0 || i >= len(s) {
		return 0, false
	}
	return s[i].Float, s[i].Valid
}

// FirstDefined returns the index of the first defined reading, or -1
func (s Series) FirstDefined() int {
	for i, v := range s {
		if v.Valid {
			return i
		}
	}
	return -1
}

// MACDSeries holds the MACD line, its signal line and the histogram
type MACDSeries struct {
	MACD      Series `json:"macd"`
	Signal    Series `json:"signal"`
	Histogram Series `json:"histogram"`
}

// BollingerSeries holds the three Bollinger bands
type BollingerSeries struct {
	Upper  Series `json:"upper"`
	Middle Series `json:"middle"`
	Lower  Series `json:"lower"`
}

// StochasticSeries holds %K and its %D smoothing
type StochasticSeries struct {
	K Series `json:"k_percent"`
	D Series `json:"d_percent"`
}

// VolumeSeries holds volume-weighted indicators
type VolumeSeries struct {
	VWAP Series `json:"vwap"`
	OBV  Series `json:"obv"`
}

// IndicatorSet maps indicator names to aligned series. Windowed
// indicators are keyed by their lookback.
type IndicatorSet struct {
	SMA        map[int]Series    `json:"sma,omitempty"`
	EMA        map[int]Series    `json:"ema,omitempty"`
	RSI        map[int]Series    `json:"rsi,omitempty"`
	MACD       *MACDSeries       `json:"macd,omitempty"`
	Bollinger  *BollingerSeries  `json:"bollinger,omitempty"`
	Stochastic *StochasticSeries `json:"stochastic,omitempty"`
	ATR        map[int]Series    `json:"atr,omitempty"`
	Volume     *VolumeSeries     `json:"volume,omitempty"`
}
