package portfolio

import (
	"sort"
	"time"

	"github.com/Alias1177/QuantLab/internal/model"
	"github.com/Alias1177/QuantLab/models"
	"gonum.org/v1/gonum/mat"
)

// alignedReturns is a date × symbol return table restricted to the dates
// every symbol has
type alignedReturns struct {
	dates  []time.Time
	values [][]float64 // values[t][i]
}

func (a alignedReturns) rows() int {
	return len(a.dates)
}

func (a alignedReturns) column(i int) []float64 {
	col := make([]float64, len(a.values))
	for t, row := range a.values {
		col[t] = row[i]
	}
	return col
}

func (a alignedReturns) matrix() *mat.Dense {
	if len(a.values) == 0 {
		return &mat.Dense{}
	}
	n := len(a.values[0])
	flat := make([]float64, 0, len(a.values)*n)
	for _, row := range a.values {
		flat = append(flat, row...)
	}
	return mat.NewDense(len(a.values), n, flat)
}

// align intersects the return dates of all symbols
func align(symbols []string, returns map[string]models.ReturnSeries) (alignedReturns, error) {
	byDate := make([]map[string]float64, len(symbols))
	counts := make(map[string]int)
	days := make(map[string]time.Time)

	for i, s := range symbols {
		rs := returns[s]
		byDate[i] = make(map[string]float64, rs.Len())
		for j, d := range rs.Dates {
			key := d.Format(models.DateLayout)
			if _, dup := byDate[i][key]; dup {
				continue
			}
			byDate[i][key] = rs.Values[j]
			counts[key]++
			days[key] = d
		}
	}

	var common []string
	for key, c := range counts {
		if c == len(symbols) {
			common = append(common, key)
		}
	}
	if len(common) == 0 {
		return alignedReturns{}, model.NoOverlap(symbols)
	}
	sort.Strings(common)

	out := alignedReturns{
		dates:  make([]time.Time, len(common)),
		values: make([][]float64, len(common)),
	}
	for t, key := range common {
		out.dates[t] = days[key]
		row := make([]float64, len(symbols))
		for i := range symbols {
			row[i] = byDate[i][key]
		}
		out.values[t] = row
	}

	return out, nil
}
