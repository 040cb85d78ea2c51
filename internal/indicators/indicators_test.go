package indicators

import (
	"errors"
	"testing"
	"time"

	"github.com/Alias1177/QuantLab/internal/model"
	"github.com/Alias1177/QuantLab/models"
)

func generateTestSeries(n int, generator func(int) models.PriceBar) models.PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.PriceBar, n)
	for i := 0; i < n; i++ {
		bars[i] = generator(i)
		bars[i].Date = start.AddDate(0, 0, i)
	}
	return models.PriceSeries{Symbol: "TEST", Bars: bars}
}

func risingBar(i int) models.PriceBar {
	c := 100 + float64(i)
	return models.PriceBar{Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000}
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{name: "empty selects all", raw: "", want: known},
		{name: "all", raw: "all", want: known},
		{name: "subset with spaces", raw: "rsi, macd", want: []string{MACD, RSI}},
		{name: "case insensitive", raw: "SMA", want: []string{SMA}},
		{name: "unknown name", raw: "sma,ichimoku", wantErr: true},
		{name: "only commas", raw: ",,", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := ParseSelection(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, model.ErrInvalidParameter) {
					t.Fatalf("ParseSelection() error = %v, want InvalidParameter", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSelection() error = %v", err)
			}
			for _, name := range tt.want {
				if !sel[name] {
					t.Errorf("ParseSelection(%q) missing %s", tt.raw, name)
				}
			}
			if len(sel) != len(tt.want) {
				t.Errorf("ParseSelection(%q) = %v, want %v", tt.raw, sel.Names(), tt.want)
			}
		})
	}
}

func TestComputeOnlySelected(t *testing.T) {
	series := generateTestSeries(60, risingBar)
	sel, _ := ParseSelection("rsi")

	set := NewEngine(DefaultParams()).Compute(series, sel)
	if set.RSI == nil {
		t.Fatalf("RSI missing from result")
	}
	if set.SMA != nil || set.MACD != nil || set.Bollinger != nil || set.Volume != nil {
		t.Errorf("Compute() returned indicators that were not selected")
	}
	if got := len(set.RSI[14]); got != 60 {
		t.Errorf("len(RSI[14]) = %d, want 60", got)
	}
}

func TestComputeShortSeriesIsPerIndicator(t *testing.T) {
	// 20 bars: too short for SMA(50) and MACD(12,26,9) but enough for RSI(14)
	series := generateTestSeries(20, risingBar)
	sel, _ := ParseSelection("all")

	set := NewEngine(DefaultParams()).Compute(series, sel)

	if set.SMA[50].FirstDefined() != -1 {
		t.Errorf("SMA(50) should be entirely undefined on 20 bars")
	}
	if set.MACD.MACD.FirstDefined() != -1 {
		t.Errorf("MACD should be entirely undefined on 20 bars")
	}
	if got := set.SMA[5].FirstDefined(); got != 4 {
		t.Errorf("SMA(5) first defined = %d, want 4", got)
	}
	if got := set.RSI[14].FirstDefined(); got != 14 {
		t.Errorf("RSI(14) first defined = %d, want 14", got)
	}
	if got := set.Bollinger.Middle.FirstDefined(); got != 19 {
		t.Errorf("Bollinger middle first defined = %d, want 19", got)
	}
	for name, s := range map[string]model.Series{
		"sma5": set.SMA[5], "ema12": set.EMA[12], "rsi": set.RSI[14], "atr": set.ATR[14],
		"obv": set.Volume.OBV, "vwap": set.Volume.VWAP, "k": set.Stochastic.K,
	} {
		if len(s) != series.Len() {
			t.Errorf("%s has %d readings, want %d", name, len(s), series.Len())
		}
	}
}

func TestParamsValidate(t *testing.T) {
	bad := DefaultParams()
	bad.RSIPeriod = 0
	if err := bad.Validate(); !errors.Is(err, model.ErrInvalidParameter) {
		t.Errorf("Validate() error = %v, want InvalidParameter", err)
	}

	bad = DefaultParams()
	bad.SMAWindows = []int{5, -1}
	if err := bad.Validate(); !errors.Is(err, model.ErrInvalidParameter) {
		t.Errorf("Validate() error = %v, want InvalidParameter", err)
	}

	if err := DefaultParams().Validate(); err != nil {
		t.Errorf("DefaultParams().Validate() = %v, want nil", err)
	}
}
