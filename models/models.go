package models

import (
	"fmt"
	"time"
)

// PriceBar represents a single daily price bar
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Validate checks the OHLC envelope of a bar
func (b PriceBar) Validate() error {
	if b.High < b.Open || b.High < b.Close || b.High < b.Low {
		return fmt.Errorf("bar %s: high %.4f below open/close/low", b.Date.Format(DateLayout), b.High)
	}
	if b.Low > b.Open || b.Low > b.Close {
		return fmt.Errorf("bar %s: low %.4f above open/close", b.Date.Format(DateLayout), b.Low)
	}
	if b.Volume < 0 {
		return fmt.Errorf("bar %s: negative volume", b.Date.Format(DateLayout))
	}
	return nil
}

// PriceSeries is a date-ordered sequence of bars for one symbol
type PriceSeries struct {
	Symbol string     `json:"symbol"`
	Bars   []PriceBar `json:"bars"`
}

// Len returns the number of bars
func (s PriceSeries) Len() int {
	return len(s.Bars)
}

// Validate checks ordering, duplicate dates and every bar envelope
func (s PriceSeries) Validate() error {
	for i, bar := range s.Bars {
		if err := bar.Validate(); err != nil {
			return fmt.Errorf("%s: %w", s.Symbol, err)
		}
		if i > 0 && !bar.Date.After(s.Bars[i-1].Date) {
			return fmt.Errorf("%s: bar %s is not after %s", s.Symbol,
				bar.Date.Format(DateLayout), s.Bars[i-1].Date.Format(DateLayout))
		}
	}
	return nil
}

// Tail returns the last n bars as a new series sharing no state with s
func (s PriceSeries) Tail(n int) PriceSeries {
	if n <= 0 || n >= len(s.Bars) {
		n = len(s.Bars)
	}
	bars := make([]PriceBar, n)
	copy(bars, s.Bars[len(s.Bars)-n:])
	return PriceSeries{Symbol: s.Symbol, Bars: bars}
}

// Dates returns the bar dates
func (s PriceSeries) Dates() []time.Time {
	dates := make([]time.Time, len(s.Bars))
	for i, bar := range s.Bars {
		dates[i] = bar.Date
	}
	return dates
}

// Closes returns the close prices
func (s PriceSeries) Closes() []float64 {
	return s.extract(func(b PriceBar) float64 { return b.Close })
}

// Highs returns the high prices
func (s PriceSeries) Highs() []float64 {
	return s.extract(func(b PriceBar) float64 { return b.High })
}

// Lows returns the low prices
func (s PriceSeries) Lows() []float64 {
	return s.extract(func(b PriceBar) float64 { return b.Low })
}

// Volumes returns the traded volumes
func (s PriceSeries) Volumes() []float64 {
	return s.extract(func(b PriceBar) float64 { return b.Volume })
}

func (s PriceSeries) extract(field func(PriceBar) float64) []float64 {
	values := make([]float64, len(s.Bars))
	for i, bar := range s.Bars {
		values[i] = field(bar)
	}
	return values
}

// Returns computes simple daily returns aligned to dates 1..n-1.
// A zero previous close yields a zero return for that day.
func (s PriceSeries) Returns() ReturnSeries {
	if len(s.Bars) < 2 {
		return ReturnSeries{}
	}

	rs := ReturnSeries{
		Dates:  make([]time.Time, 0, len(s.Bars)-1),
		Values: make([]float64, 0, len(s.Bars)-1),
	}
	for i := 1; i < len(s.Bars); i++ {
		prev := s.Bars[i-1].Close
		r := 0.0
		if prev != 0 {
			r = s.Bars[i].Close/prev - 1
		}
		rs.Dates = append(rs.Dates, s.Bars[i].Date)
		rs.Values = append(rs.Values, r)
	}
	return rs
}

// ReturnSeries holds simple returns keyed by the date they were realized
type ReturnSeries struct {
	Dates  []time.Time `json:"dates"`
	Values []float64   `json:"values"`
}

// Len returns the number of observations
func (r ReturnSeries) Len() int {
	return len(r.Values)
}
