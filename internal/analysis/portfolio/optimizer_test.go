package portfolio

import (
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/Alias1177/QuantLab/internal/model"
	"github.com/Alias1177/QuantLab/models"
	"gonum.org/v1/gonum/mat"
)

var testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func makeReturns(offset int, values []float64) models.ReturnSeries {
	rs := models.ReturnSeries{Values: values, Dates: make([]time.Time, len(values))}
	for i := range values {
		rs.Dates[i] = testStart.AddDate(0, 0, offset+i)
	}
	return rs
}

func generateReturns(n int, gen func(int) float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = gen(i)
	}
	return out
}

func randomUniverse(seed int64, n int) ([]string, map[string]models.ReturnSeries) {
	rng := rand.New(rand.NewSource(seed))
	symbols := []string{"AAA", "BBB", "CCC"}
	drift := []float64{0.0008, 0.0003, 0.0005}
	vol := []float64{0.010, 0.015, 0.020}

	returns := make(map[string]models.ReturnSeries, len(symbols))
	for i, s := range symbols {
		i := i
		returns[s] = makeReturns(0, generateReturns(n, func(int) float64 {
			return drift[i] + vol[i]*rng.NormFloat64()
		}))
	}
	return symbols, returns
}

func checkInvariants(t *testing.T, res *model.PortfolioResult) {
	t.Helper()
	sum := 0.0
	for i, w := range res.Weights {
		if w < 0 || w > 1 {
			t.Errorf("weight[%d] = %v, outside [0,1]", i, w)
		}
		sum += w
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Errorf("sum(weights) = %v, want 1", sum)
	}

	n := len(res.Symbols)
	if len(res.CorrelationMatrix) != n {
		t.Fatalf("correlation matrix has %d rows, want %d", len(res.CorrelationMatrix), n)
	}
	for i := 0; i < n; i++ {
		if res.CorrelationMatrix[i][i] != 1 {
			t.Errorf("corr[%d][%d] = %v, want 1", i, i, res.CorrelationMatrix[i][i])
		}
		for j := 0; j < n; j++ {
			c := res.CorrelationMatrix[i][j]
			if c != res.CorrelationMatrix[j][i] {
				t.Errorf("corr not symmetric at (%d,%d)", i, j)
			}
			if c < -1 || c > 1 {
				t.Errorf("corr[%d][%d] = %v, outside [-1,1]", i, j, c)
			}
		}
	}
	if len(res.IndividualMetrics) != n {
		t.Errorf("individual metrics for %d symbols, want %d", len(res.IndividualMetrics), n)
	}
}

func TestOptimizeInvariantsForEveryMethod(t *testing.T) {
	symbols, returns := randomUniverse(42, 250)
	methodsUnderTest := []string{
		model.MethodMaxSharpe,
		model.MethodMinVolatility,
		model.MethodMaxReturn,
		model.MethodEqualWeight,
		model.MethodRiskParity,
		model.MethodMinimumVariance,
	}

	opt := NewOptimizer()
	for _, method := range methodsUnderTest {
		t.Run(method, func(t *testing.T) {
			res, err := opt.Optimize(symbols, returns, method)
			if err != nil {
				t.Fatalf("Optimize() error = %v", err)
			}
			checkInvariants(t, res)
			if res.Fallback {
				t.Errorf("unexpected fallback for well-conditioned input")
			}
			if res.OptimizationMethod != method || res.RequestedMethod != method {
				t.Errorf("method = %s/%s, want %s", res.OptimizationMethod, res.RequestedMethod, method)
			}
			if !reflect.DeepEqual(res.Symbols, symbols) {
				t.Errorf("symbols = %v, want %v", res.Symbols, symbols)
			}
			if res.Observations != 250 {
				t.Errorf("observations = %d, want 250", res.Observations)
			}
		})
	}
}

func TestOptimizeMirroredSeriesFallsBackToSplit(t *testing.T) {
	base := generateReturns(60, func(i int) float64 { return 0.01 * math.Sin(float64(i)) })
	mirror := make([]float64, len(base))
	for i, v := range base {
		mirror[i] = -v
	}
	returns := map[string]models.ReturnSeries{
		"LONG":  makeReturns(0, base),
		"SHORT": makeReturns(0, mirror),
	}

	res, err := NewOptimizer().Optimize([]string{"LONG", "SHORT"}, returns, model.MethodMinVolatility)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	checkInvariants(t, res)

	if !res.Fallback || res.OptimizationMethod != model.MethodEqualWeight {
		t.Errorf("method = %s (fallback %v), want equal_weight fallback", res.OptimizationMethod, res.Fallback)
	}
	if res.RequestedMethod != model.MethodMinVolatility {
		t.Errorf("requested = %s, want %s", res.RequestedMethod, model.MethodMinVolatility)
	}
	for i, w := range res.Weights {
		if w <= 0 || w >= 1 {
			t.Errorf("weight[%d] = %v, want a non-trivial split", i, w)
		}
	}
	if math.Abs(res.CorrelationMatrix[0][1]+1) > 1e-9 {
		t.Errorf("corr = %v, want -1", res.CorrelationMatrix[0][1])
	}
	for _, s := range res.Symbols {
		if res.Metrics.AnnualVolatility >= res.IndividualMetrics[s].AnnualVolatility {
			t.Errorf("portfolio volatility %v not below %s volatility %v",
				res.Metrics.AnnualVolatility, s, res.IndividualMetrics[s].AnnualVolatility)
		}
	}
}

func TestOptimizeAntiCorrelatedUnequalVolatility(t *testing.T) {
	base := generateReturns(60, func(i int) float64 { return 0.01 * math.Sin(float64(i)) })
	levered := make([]float64, len(base))
	for i, v := range base {
		levered[i] = -4 * v
	}
	returns := map[string]models.ReturnSeries{
		"LONG":  makeReturns(0, base),
		"SHORT": makeReturns(0, levered),
	}

	for _, method := range []string{model.MethodMinVolatility, model.MethodMinimumVariance} {
		t.Run(method, func(t *testing.T) {
			res, err := NewOptimizer().Optimize([]string{"LONG", "SHORT"}, returns, method)
			if err != nil {
				t.Fatalf("Optimize() error = %v", err)
			}
			checkInvariants(t, res)

			if res.Fallback || res.OptimizationMethod != method {
				t.Errorf("method = %s (fallback %v), want %s", res.OptimizationMethod, res.Fallback, method)
			}
			if math.Abs(res.WeightOf("LONG")-0.8) > 1e-4 || math.Abs(res.WeightOf("SHORT")-0.2) > 1e-4 {
				t.Errorf("weights = %v, want [0.8 0.2]", res.Weights)
			}
			for _, s := range res.Symbols {
				if res.Metrics.AnnualVolatility >= res.IndividualMetrics[s].AnnualVolatility {
					t.Errorf("portfolio volatility %v not below %s volatility %v",
						res.Metrics.AnnualVolatility, s, res.IndividualMetrics[s].AnnualVolatility)
				}
			}
		})
	}
}

func TestSolveFallsBackOnUnusableCovariance(t *testing.T) {
	tests := []struct {
		name  string
		mu    []float64
		sigma *mat.SymDense
	}{
		{"nan covariance", []float64{0.1, 0.2}, mat.NewSymDense(2, []float64{0.04, math.NaN(), math.NaN(), 0.09})},
		{"infinite return", []float64{math.Inf(1), 0.2}, mat.NewSymDense(2, []float64{0.04, 0, 0, 0.09})},
		{"not positive semi-definite", []float64{0.1, 0.2}, mat.NewSymDense(2, []float64{0.04, 0.5, 0.5, 0.09})},
	}

	o := NewOptimizer()
	for _, tt := range tests {
		for _, method := range []string{model.MethodMaxSharpe, model.MethodMinVolatility} {
			t.Run(tt.name+"/"+method, func(t *testing.T) {
				w, used, fallback := o.solve(method, tt.mu, tt.sigma)
				if !fallback || used != model.MethodEqualWeight {
					t.Errorf("solve() = %s (fallback %v), want equal_weight fallback", used, fallback)
				}
				if !reflect.DeepEqual(w, []float64{0.5, 0.5}) {
					t.Errorf("weights = %v, want [0.5 0.5]", w)
				}
			})
		}
	}
}

func TestCheckCovariance(t *testing.T) {
	tests := []struct {
		name         string
		sigma        []float64
		wantSingular bool
		wantReason   bool
	}{
		{"diagonal", []float64{0.04, 0, 0, 0.09}, false, false},
		{"perfect anti-correlation", []float64{1, -4, -4, 16}, true, false},
		{"all zero", []float64{0, 0, 0, 0}, true, false},
		{"indefinite", []float64{1, 2, 2, 1}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			singular, reason := checkCovariance([]float64{0.1, 0.1}, mat.NewSymDense(2, tt.sigma))
			if singular != tt.wantSingular || (reason != "") != tt.wantReason {
				t.Errorf("checkCovariance() = %v, %q; want singular %v, reason %v",
					singular, reason, tt.wantSingular, tt.wantReason)
			}
		})
	}
}

func TestOptimizeIdenticalSeriesIsDegenerate(t *testing.T) {
	base := generateReturns(40, func(i int) float64 { return 0.02 * math.Cos(float64(i)/2) })
	returns := map[string]models.ReturnSeries{
		"A": makeReturns(0, base),
		"B": makeReturns(0, append([]float64(nil), base...)),
	}

	res, err := NewOptimizer().Optimize([]string{"A", "B"}, returns, model.MethodMaxSharpe)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if !res.Fallback || res.Weights[0] != 0.5 || res.Weights[1] != 0.5 {
		t.Errorf("weights = %v (fallback %v), want equal-weight fallback", res.Weights, res.Fallback)
	}
}

func TestOptimizeMinVolatilityMatchesTwoAssetSolution(t *testing.T) {
	a := generateReturns(120, func(i int) float64 { return 0.001 + 0.01*math.Sin(float64(i)) })
	b := generateReturns(120, func(i int) float64 { return 0.0005 + 0.02*math.Cos(1.7*float64(i)) })
	returns := map[string]models.ReturnSeries{"A": makeReturns(0, a), "B": makeReturns(0, b)}

	res, err := NewOptimizer().Optimize([]string{"A", "B"}, returns, model.MethodMinVolatility)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}

	data := alignedReturns{values: make([][]float64, len(a))}
	for i := range a {
		data.values[i] = []float64{a[i], b[i]}
	}
	_, sigma := annualizedMoments(data.matrix())
	va, vb, cab := sigma.At(0, 0), sigma.At(1, 1), sigma.At(0, 1)
	want := (vb - cab) / (va + vb - 2*cab)
	want = math.Max(0, math.Min(1, want))

	if math.Abs(res.WeightOf("A")-want) > 1e-4 {
		t.Errorf("weight(A) = %v, want %v", res.WeightOf("A"), want)
	}
	if res.WeightOf("A") <= res.WeightOf("B") {
		t.Errorf("lower-volatility asset should carry more weight: %v", res.Weights)
	}
}

func TestOptimizeMaxReturnIsSingleAsset(t *testing.T) {
	symbols, returns := randomUniverse(7, 100)
	res, err := NewOptimizer().Optimize(symbols, returns, model.MethodMaxReturn)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}

	best := 0
	for i, s := range symbols {
		if res.IndividualMetrics[s].AnnualReturn > res.IndividualMetrics[symbols[best]].AnnualReturn {
			best = i
		}
	}
	for i, w := range res.Weights {
		want := 0.0
		if i == best {
			want = 1
		}
		if w != want {
			t.Errorf("weight[%d] = %v, want %v", i, w, want)
		}
	}
}

func TestOptimizeMaxSharpeBeatsSimpleAllocations(t *testing.T) {
	symbols, returns := randomUniverse(11, 250)
	opt := NewOptimizer()

	res, err := opt.Optimize(symbols, returns, model.MethodMaxSharpe)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	eq, err := opt.Optimize(symbols, returns, model.MethodEqualWeight)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}

	ratio := res.ExpectedReturn / res.Volatility
	if eqRatio := eq.ExpectedReturn / eq.Volatility; ratio < eqRatio-1e-9 {
		t.Errorf("max_sharpe ratio %v below equal-weight ratio %v", ratio, eqRatio)
	}
	for _, s := range symbols {
		m := res.IndividualMetrics[s]
		if single := m.AnnualReturn / m.AnnualVolatility; ratio < single-1e-9 {
			t.Errorf("max_sharpe ratio %v below %s alone %v", ratio, s, single)
		}
	}
}

func TestOptimizeRiskParity(t *testing.T) {
	symbols, returns := randomUniverse(3, 200)
	res, err := NewOptimizer().Optimize(symbols, returns, model.MethodRiskParity)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}

	// inverse volatility: w_i·σ_i is the same for every asset
	first := res.Weights[0] * res.IndividualMetrics[symbols[0]].AnnualVolatility
	for i, s := range symbols[1:] {
		got := res.Weights[i+1] * res.IndividualMetrics[s].AnnualVolatility
		if math.Abs(got-first) > 1e-9 {
			t.Errorf("risk contribution of %s = %v, want %v", s, got, first)
		}
	}
}

func TestOptimizeErrors(t *testing.T) {
	long := generateReturns(30, func(i int) float64 { return 0.001 * float64(i%5-2) })
	short := generateReturns(5, func(i int) float64 { return 0.001 })

	tests := []struct {
		name       string
		symbols    []string
		returns    map[string]models.ReturnSeries
		method     string
		wantErr    error
		wantSymbol string
	}{
		{
			name:    "unknown method",
			symbols: []string{"A", "B"},
			returns: map[string]models.ReturnSeries{"A": makeReturns(0, long), "B": makeReturns(0, long)},
			method:  "kelly",
			wantErr: model.ErrInvalidMethod,
		},
		{
			name:    "single symbol",
			symbols: []string{"A"},
			returns: map[string]models.ReturnSeries{"A": makeReturns(0, long)},
			method:  model.MethodMaxSharpe,
			wantErr: model.ErrInvalidParameter,
		},
		{
			name:    "duplicate symbol",
			symbols: []string{"A", "A"},
			returns: map[string]models.ReturnSeries{"A": makeReturns(0, long)},
			method:  model.MethodMaxSharpe,
			wantErr: model.ErrInvalidParameter,
		},
		{
			name:    "missing series",
			symbols: []string{"A", "B"},
			returns: map[string]models.ReturnSeries{"A": makeReturns(0, long)},
			method:  model.MethodMaxSharpe,
			wantErr: model.ErrSymbolNotFound,
		},
		{
			name:       "short series",
			symbols:    []string{"A", "B"},
			returns:    map[string]models.ReturnSeries{"A": makeReturns(0, long), "B": makeReturns(0, short)},
			method:     model.MethodMaxSharpe,
			wantErr:    model.ErrInsufficientData,
			wantSymbol: "B",
		},
		{
			name:    "disjoint dates",
			symbols: []string{"A", "B"},
			returns: map[string]models.ReturnSeries{"A": makeReturns(0, long), "B": makeReturns(100, long)},
			method:  model.MethodMaxSharpe,
			wantErr: model.ErrNoOverlap,
		},
		{
			name:       "overlap too short",
			symbols:    []string{"A", "B"},
			returns:    map[string]models.ReturnSeries{"A": makeReturns(0, long), "B": makeReturns(25, long)},
			method:     model.MethodMaxSharpe,
			wantErr:    model.ErrInsufficientData,
			wantSymbol: "A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewOptimizer().Optimize(tt.symbols, tt.returns, tt.method)
			if res != nil {
				t.Errorf("Optimize() returned a partial result alongside an error")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Optimize() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantSymbol != "" {
				e, _ := model.AsError(err)
				if e.Symbol != tt.wantSymbol {
					t.Errorf("error symbol = %q, want %q", e.Symbol, tt.wantSymbol)
				}
			}
		})
	}
}

func TestOptimizeIsDeterministic(t *testing.T) {
	symbols, returns := randomUniverse(99, 150)
	opt := NewOptimizer()

	first, err := opt.Optimize(symbols, returns, model.MethodMaxSharpe)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	second, _ := opt.Optimize(symbols, returns, model.MethodMaxSharpe)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Optimize() is not deterministic")
	}
}

func TestProjectOntoSimplex(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{name: "already feasible", in: []float64{0.2, 0.8}, want: []float64{0.2, 0.8}},
		{name: "uniform excess", in: []float64{0.5, 0.5, 0.5}, want: []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}},
		{name: "dominant coordinate", in: []float64{2, 0}, want: []float64{1, 0}},
		{name: "negative entries", in: []float64{-1, 0.5, 0.7}, want: []float64{0, 0.4, 0.6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := append([]float64(nil), tt.in...)
			projectOntoSimplex(v)
			for i := range v {
				if math.Abs(v[i]-tt.want[i]) > 1e-12 {
					t.Errorf("projectOntoSimplex(%v) = %v, want %v", tt.in, v, tt.want)
					break
				}
			}
		})
	}
}

func TestNormalizeWeights(t *testing.T) {
	got := normalizeWeights([]float64{-0.1, 0.3, 0.9, math.NaN()})
	want := []float64{0, 0.25, 0.75, 0}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("normalizeWeights() = %v, want %v", got, want)
		}
	}

	if eq := normalizeWeights([]float64{0, 0}); eq[0] != 0.5 || eq[1] != 0.5 {
		t.Errorf("normalizeWeights(zero) = %v, want equal weights", eq)
	}
}
