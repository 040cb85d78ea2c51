package indicators

import (
	"sort"
	"strings"

	"github.com/Alias1177/QuantLab/internal/calculate"
	"github.com/Alias1177/QuantLab/internal/model"
	"github.com/Alias1177/QuantLab/models"
)

// Indicator names accepted in a selection
const (
	SMA        = "sma"
	EMA        = "ema"
	RSI        = "rsi"
	MACD       = "macd"
	Bollinger  = "bollinger"
	Stochastic = "stochastic"
	ATR        = "atr"
	Volume     = "volume"
	All        = "all"
)

var known = []string{SMA, EMA, RSI, MACD, Bollinger, Stochastic, ATR, Volume}

// Selection is the set of indicators a caller asked for
type Selection map[string]bool

// ParseSelection reads a comma separated list such as "sma,rsi" or "all".
// An empty string selects everything.
func ParseSelection(raw string) (Selection, error) {
	sel := Selection{}
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		raw = All
	}

	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		switch {
		case name == "":
			continue
		case name == All:
			for _, k := range known {
				sel[k] = true
			}
		case isKnown(name):
			sel[name] = true
		default:
			return nil, model.InvalidParameter("indicators",
				"unknown indicator %q, expected one of %s or %s", name, strings.Join(known, ", "), All)
		}
	}

	if len(sel) == 0 {
		return nil, model.InvalidParameter("indicators", "no indicators selected")
	}
	return sel, nil
}

// Names returns the selected indicator names in a stable order
func (s Selection) Names() []string {
	names := make([]string, 0, len(s))
	for name, on := range s {
		if on {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func isKnown(name string) bool {
	for _, k := range known {
		if k == name {
			return true
		}
	}
	return false
}

// Params holds the lookbacks used by the engine
type Params struct {
	SMAWindows   []int
	EMASpans     []int
	RSIPeriod    int
	MACDFast     int
	MACDSlow     int
	MACDSignal   int
	BBPeriod     int
	BBStdDev     float64
	StochKPeriod int
	StochDPeriod int
	ATRPeriod    int
}

// DefaultParams mirrors the classic charting defaults
func DefaultParams() Params {
	return Params{
		SMAWindows:   []int{5, 10, 20, 50},
		EMASpans:     []int{12, 26},
		RSIPeriod:    14,
		MACDFast:     12,
		MACDSlow:     26,
		MACDSignal:   9,
		BBPeriod:     20,
		BBStdDev:     2,
		StochKPeriod: 14,
		StochDPeriod: 3,
		ATRPeriod:    14,
	}
}

// Validate rejects non-positive lookbacks
func (p Params) Validate() error {
	for _, w := range p.SMAWindows {
		if w < 1 {
			return model.InvalidParameter("sma_window", "window must be ≥ 1, got %d", w)
		}
	}
	for _, s := range p.EMASpans {
		if s < 1 {
			return model.InvalidParameter("ema_span", "span must be ≥ 1, got %d", s)
		}
	}
	checks := []struct {
		name  string
		value int
	}{
		{"rsi_period", p.RSIPeriod},
		{"macd_fast", p.MACDFast},
		{"macd_slow", p.MACDSlow},
		{"macd_signal", p.MACDSignal},
		{"bb_period", p.BBPeriod},
		{"stoch_k", p.StochKPeriod},
		{"stoch_d", p.StochDPeriod},
		{"atr_period", p.ATRPeriod},
	}
	for _, c := range checks {
		if c.value < 1 {
			return model.InvalidParameter(c.name, "lookback must be ≥ 1, got %d", c.value)
		}
	}
	if p.BBStdDev <= 0 {
		return model.InvalidParameter("bb_std_dev", "band width must be positive, got %v", p.BBStdDev)
	}
	return nil
}

// Engine computes indicator sets for price series
type Engine struct {
	params Params
}

// NewEngine creates an engine with the given lookbacks
func NewEngine(params Params) *Engine {
	return &Engine{params: params}
}

// Params returns the engine lookbacks
func (e *Engine) Params() Params {
	return e.params
}

// Compute calculates every selected indicator aligned to the series.
// Each indicator is independent, so a series too short for one of them
// leaves only that one undefined.
func (e *Engine) Compute(series models.PriceSeries, sel Selection) model.IndicatorSet {
	closes := series.Closes()
	p := e.params
	var set model.IndicatorSet

	if sel[SMA] {
		set.SMA = make(map[int]model.Series, len(p.SMAWindows))
		for _, w := range p.SMAWindows {
			set.SMA[w] = calculate.SMA(closes, w)
		}
	}

	if sel[EMA] {
		set.EMA = make(map[int]model.Series, len(p.EMASpans))
		for _, s := range p.EMASpans {
			set.EMA[s] = calculate.EMA(closes, s)
		}
	}

	if sel[RSI] {
		set.RSI = map[int]model.Series{p.RSIPeriod: calculate.RSI(closes, p.RSIPeriod)}
	}

	if sel[MACD] {
		macd := calculate.MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
		set.MACD = &macd
	}

	if sel[Bollinger] {
		bb := calculate.Bollinger(closes, p.BBPeriod, p.BBStdDev)
		set.Bollinger = &bb
	}

	if sel[Stochastic] {
		stoch := calculate.Stochastic(series.Highs(), series.Lows(), closes, p.StochKPeriod, p.StochDPeriod)
		set.Stochastic = &stoch
	}

	if sel[ATR] {
		set.ATR = map[int]model.Series{
			p.ATRPeriod: calculate.ATR(series.Highs(), series.Lows(), closes, p.ATRPeriod),
		}
	}

	if sel[Volume] {
		volumes := series.Volumes()
		set.Volume = &model.VolumeSeries{
			VWAP: calculate.VWAP(closes, volumes),
			OBV:  calculate.OBV(closes, volumes),
		}
	}

	return set
}
