package database

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Alias1177/QuantLab/models"
	"github.com/rs/zerolog/log"
)

var priceFields = map[string]bool{
	"open":   true,
	"high":   true,
	"low":    true,
	"close":  true,
	"volume": true,
}

// ParseCSV reads price history in one of two layouts:
//
//	long: date,symbol,open,high,low,close,volume
//	wide: a two-row header of symbol and field per column, dates in column 0
//
// Rows with a missing or non-numeric price are skipped, as are bars whose
// high/low envelope or volume is inconsistent. A missing volume reads as 0.
func ParseCSV(r io.Reader) ([]models.PriceSeries, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv: empty input")
		}
		return nil, fmt.Errorf("csv header: %w", err)
	}

	var p *csvParser
	if idx := columnIndex(header); idx["symbol"] >= 0 && idx["date"] >= 0 {
		p = newLongParser(idx)
	} else {
		second, err := reader.Read()
		if err != nil {
			return nil, fmt.Errorf("csv header: %w", err)
		}
		if p, err = newWideParser(header, second); err != nil {
			return nil, err
		}
	}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		p.add(record)
	}

	series := p.result()
	if p.skipped > 0 {
		log.Warn().Str("component", "csv").Int("rows", p.skipped).Msg("Skipped incomplete price rows")
	}
	return series, nil
}

type column struct {
	symbol string
	field  string
}

type csvParser struct {
	long    map[string]int
	wide    []column
	bars    map[string]map[time.Time]*models.PriceBar
	missing map[string]map[time.Time]bool
	skipped int
}

func newLongParser(idx map[string]int) *csvParser {
	return &csvParser{long: idx, bars: make(map[string]map[time.Time]*models.PriceBar)}
}

// newWideParser accepts either symbol-over-field or field-over-symbol
// header rows
func newWideParser(first, second []string) (*csvParser, error) {
	symbols, fields := first, second
	if countFields(first) > countFields(second) {
		symbols, fields = second, first
	}
	if countFields(fields) == 0 {
		return nil, errors.New("csv header: no open/high/low/close/volume columns")
	}

	cols := make([]column, len(fields))
	for i := 1; i < len(fields) && i < len(symbols); i++ {
		field := strings.ToLower(strings.TrimSpace(fields[i]))
		if !priceFields[field] {
			continue
		}
		cols[i] = column{symbol: strings.TrimSpace(symbols[i]), field: field}
	}
	return &csvParser{wide: cols, bars: make(map[string]map[time.Time]*models.PriceBar)}, nil
}

func (p *csvParser) add(record []string) {
	if len(record) == 0 {
		return
	}
	if p.long != nil {
		p.addLong(record)
		return
	}

	date, err := models.ParseDate(record[0])
	if err != nil {
		// pandas writes an index-name row under the header
		if !blank(record[1:]) {
			p.skipped++
		}
		return
	}

	touched := make(map[string]bool)
	for i := 1; i < len(record) && i < len(p.wide); i++ {
		col := p.wide[i]
		if col.symbol == "" {
			continue
		}
		bar := p.bar(col.symbol, date)
		touched[col.symbol] = true
		value, ok := parseNumber(record[i])
		if !ok {
			if col.field != "volume" {
				p.markMissing(col.symbol, date)
			}
			continue
		}
		setField(bar, col.field, value)
	}
	for symbol := range touched {
		if p.missing[symbol][date] {
			delete(p.bars[symbol], date)
			p.skipped++
		}
	}
}

func (p *csvParser) addLong(record []string) {
	get := func(name string) string {
		if i := p.long[name]; i >= 0 && i < len(record) {
			return record[i]
		}
		return ""
	}

	symbol := strings.TrimSpace(get("symbol"))
	date, err := models.ParseDate(get("date"))
	if symbol == "" || err != nil {
		p.skipped++
		return
	}

	bar := models.PriceBar{Date: date}
	for _, field := range []string{"open", "high", "low", "close"} {
		value, ok := parseNumber(get(field))
		if !ok {
			p.skipped++
			return
		}
		setField(&bar, field, value)
	}
	if volume, ok := parseNumber(get("volume")); ok {
		bar.Volume = volume
	}

	*p.bar(symbol, date) = bar
}

func (p *csvParser) bar(symbol string, date time.Time) *models.PriceBar {
	bySymbol, ok := p.bars[symbol]
	if !ok {
		bySymbol = make(map[time.Time]*models.PriceBar)
		p.bars[symbol] = bySymbol
	}
	bar, ok := bySymbol[date]
	if !ok {
		bar = &models.PriceBar{Date: date}
		bySymbol[date] = bar
	}
	return bar
}

func (p *csvParser) markMissing(symbol string, date time.Time) {
	if p.missing == nil {
		p.missing = make(map[string]map[time.Time]bool)
	}
	if p.missing[symbol] == nil {
		p.missing[symbol] = make(map[time.Time]bool)
	}
	p.missing[symbol][date] = true
}

func (p *csvParser) result() []models.PriceSeries {
	out := make([]models.PriceSeries, 0, len(p.bars))
	for symbol, byDate := range p.bars {
		if len(byDate) == 0 {
			continue
		}
		series := models.PriceSeries{Symbol: symbol, Bars: make([]models.PriceBar, 0, len(byDate))}
		for _, bar := range byDate {
			if err := bar.Validate(); err != nil {
				log.Warn().Str("component", "csv").Str("symbol", symbol).Err(err).Msg("Dropping invalid price bar")
				p.skipped++
				continue
			}
			series.Bars = append(series.Bars, *bar)
		}
		if series.Len() == 0 {
			continue
		}
		sort.Slice(series.Bars, func(i, j int) bool { return series.Bars[i].Date.Before(series.Bars[j].Date) })
		out = append(out, series)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func columnIndex(header []string) map[string]int {
	idx := map[string]int{"date": -1, "symbol": -1, "open": -1, "high": -1, "low": -1, "close": -1, "volume": -1}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "ticker" {
			name = "symbol"
		}
		if _, ok := idx[name]; ok {
			idx[name] = i
		}
	}
	return idx
}

func countFields(row []string) int {
	n := 0
	for _, cell := range row {
		if priceFields[strings.ToLower(strings.TrimSpace(cell))] {
			n++
		}
	}
	return n
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func setField(bar *models.PriceBar, field string, value float64) {
	switch field {
	case "open":
		bar.Open = value
	case "high":
		bar.High = value
	case "low":
		bar.Low = value
	case "close":
		bar.Close = value
	case "volume":
		bar.Volume = value
	}
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
