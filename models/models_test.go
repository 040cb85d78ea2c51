package models

import (
	"testing"
	"time"
)

func testDay(i int) time.Time {
	return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

func TestPriceBarValidate(t *testing.T) {
	tests := []struct {
		name    string
		bar     PriceBar
		wantErr bool
	}{
		{"valid", PriceBar{Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 100}, false},
		{"flat bar", PriceBar{Open: 5, High: 5, Low: 5, Close: 5}, false},
		{"high below open", PriceBar{Open: 12, High: 11, Low: 9, Close: 10}, true},
		{"high below close", PriceBar{Open: 10, High: 11, Low: 9, Close: 11.5}, true},
		{"high below low", PriceBar{Open: 10, High: 8, Low: 9, Close: 10}, true},
		{"low above open", PriceBar{Open: 9, High: 11, Low: 9.5, Close: 10}, true},
		{"low above close", PriceBar{Open: 10, High: 11, Low: 9.5, Close: 9}, true},
		{"negative volume", PriceBar{Open: 10, High: 11, Low: 9, Close: 10, Volume: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.bar.Date = testDay(0)
			err := tt.bar.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPriceSeriesValidate(t *testing.T) {
	bar := func(i int, c float64) PriceBar {
		return PriceBar{Date: testDay(i), Open: c, High: c + 1, Low: c - 1, Close: c}
	}

	tests := []struct {
		name    string
		bars    []PriceBar
		wantErr bool
	}{
		{"empty", nil, false},
		{"ordered", []PriceBar{bar(0, 10), bar(1, 11), bar(3, 12)}, false},
		{"out of order", []PriceBar{bar(1, 10), bar(0, 11)}, true},
		{"duplicate date", []PriceBar{bar(0, 10), bar(0, 11)}, true},
		{"bad envelope", []PriceBar{bar(0, 10), {Date: testDay(1), Open: 10, High: 9, Low: 8, Close: 9}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := PriceSeries{Symbol: "AAA", Bars: tt.bars}.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
