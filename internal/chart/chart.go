package chart

import (
	"fmt"

	"github.com/Alias1177/QuantLab/internal/calculate"
	"github.com/Alias1177/QuantLab/internal/model"
	"github.com/Alias1177/QuantLab/models"
	"github.com/vicanso/go-charts/v2"
)

const (
	shortWindow = 5
	longWindow  = 20
	minBars     = 2
)

// RenderPrice draws closes with their 5 and 20 day moving averages as a PNG
func RenderPrice(series models.PriceSeries) ([]byte, error) {
	if series.Len() < minBars {
		return nil, model.InsufficientData(series.Symbol, minBars, series.Len())
	}

	closes := series.Closes()
	labels := models.FormatDates(series.Dates())

	yMin, yMax := closes[0], closes[0]
	for _, v := range closes {
		if v < yMin {
			yMin = v
		}
		if v > yMax {
			yMax = v
		}
	}
	pad := (yMax - yMin) * 0.05
	if pad < yMax*0.002 {
		pad = yMax * 0.002
	}
	yMin -= pad
	if yMin < 0 {
		yMin = 0
	}
	yMax += pad

	split := len(labels) / 20
	if split < 1 {
		split = 1
	}
	names := []string{"Close", fmt.Sprintf("MA%d", shortWindow), fmt.Sprintf("MA%d", longWindow)}

	painter, err := charts.LineRender(
		[][]float64{
			closes,
			withGaps(calculate.SMA(closes, shortWindow)),
			withGaps(calculate.SMA(closes, longWindow)),
		},
		charts.TitleTextOptionFunc(series.Symbol),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: labels, BoundaryGap: charts.FalseFlag(), SplitNumber: split}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", series.Symbol, err)
	}
	return painter.Bytes()
}

// withGaps maps undefined readings to the chart null value
func withGaps(s model.Series) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		if v.Valid {
			out[i] = v.Float
		} else {
			out[i] = charts.GetNullValue()
		}
	}
	return out
}
