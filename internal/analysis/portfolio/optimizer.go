package portfolio

import (
	"math"

	"github.com/Alias1177/QuantLab/internal/model"
	"github.com/Alias1177/QuantLab/internal/trading/risk"
	"github.com/Alias1177/QuantLab/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	// MinObservations is the shortest aligned return history accepted
	MinObservations = 10
	// maxCondition marks Σ as near-singular
	maxCondition = 1e12
	// volFloor treats a per-asset variance below it as zero
	volFloor = 1e-18
	// psdTol bounds negative eigenvalues, relative to the largest, that
	// count as rounding noise
	psdTol = 1e-10
	// improvementTol is the margin a solver result on a singular Σ must
	// gain over equal weights
	improvementTol = 1e-10
)

var methods = map[string]bool{
	model.MethodMaxSharpe:       true,
	model.MethodMinVolatility:   true,
	model.MethodMaxReturn:       true,
	model.MethodEqualWeight:     true,
	model.MethodRiskParity:      true,
	model.MethodMinimumVariance: true,
}

// ValidMethod reports whether method is a supported optimization objective
func ValidMethod(method string) bool {
	return methods[method]
}

// Optimizer builds long-only, fully invested allocations
type Optimizer struct {
	minObservations int
	logger          zerolog.Logger
}

// NewOptimizer creates an optimizer with the default observation minimum
func NewOptimizer() *Optimizer {
	return &Optimizer{
		minObservations: MinObservations,
		logger:          log.With().Str("component", "portfolio_optimizer").Logger(),
	}
}

// Optimize aligns the return series on their common dates and solves for
// weights under method. Symbols keep their input order in the result.
func (o *Optimizer) Optimize(symbols []string, returns map[string]models.ReturnSeries, method string) (*model.PortfolioResult, error) {
	if !ValidMethod(method) {
		return nil, model.InvalidMethod(method)
	}
	if err := o.checkInputs(symbols, returns); err != nil {
		return nil, err
	}

	aligned, err := align(symbols, returns)
	if err != nil {
		return nil, err
	}
	if aligned.rows() < o.minObservations {
		return nil, model.InsufficientData(shortest(symbols, returns), o.minObservations, aligned.rows())
	}

	data := aligned.matrix()
	mu, sigma := annualizedMoments(data)

	weights, used, fallback := o.solve(method, mu, sigma)
	weights = normalizeWeights(weights)

	result := &model.PortfolioResult{
		Symbols:            append([]string(nil), symbols...),
		Weights:            weights,
		OptimizationMethod: used,
		RequestedMethod:    method,
		Fallback:           fallback,
		Observations:       aligned.rows(),
		ExpectedReturn:     model.Finite(portfolioReturn(weights, mu)),
		Volatility:         model.Finite(math.Sqrt(portfolioVariance(weights, sigma))),
		CorrelationMatrix:  correlationMatrix(data),
		IndividualMetrics:  make(map[string]model.RiskMetrics, len(symbols)),
	}

	portfolioReturns := make([]float64, aligned.rows())
	for t := range portfolioReturns {
		for i, w := range weights {
			portfolioReturns[t] += w * data.At(t, i)
		}
	}
	result.Metrics = risk.Compute(portfolioReturns)

	for i, symbol := range symbols {
		result.IndividualMetrics[symbol] = risk.Compute(aligned.column(i))
	}

	return result, nil
}

func (o *Optimizer) checkInputs(symbols []string, returns map[string]models.ReturnSeries) error {
	if len(symbols) < 2 {
		return model.InvalidParameter("symbols", "at least 2 symbols are required, got %d", len(symbols))
	}

	seen := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		if seen[s] {
			return model.InvalidParameter("symbols", "duplicate symbol %s", s)
		}
		seen[s] = true

		rs, ok := returns[s]
		if !ok {
			return model.SymbolNotFound(s)
		}
		if rs.Len() < o.minObservations {
			return model.InsufficientData(s, o.minObservations, rs.Len())
		}
	}
	return nil
}

// solve dispatches to the objective and applies the degeneracy policy.
// It returns the weights, the method actually used and whether that is
// a fallback.
func (o *Optimizer) solve(method string, mu []float64, sigma *mat.SymDense) ([]float64, string, bool) {
	n := len(mu)

	switch method {
	case model.MethodEqualWeight:
		return equalWeights(n), method, false

	case model.MethodMaxReturn:
		best := 0
		for i := 1; i < n; i++ {
			if mu[i] > mu[best] {
				best = i
			}
		}
		return oneHot(n, best), method, false

	case model.MethodRiskParity:
		w := make([]float64, n)
		for i := range w {
			variance := sigma.At(i, i)
			if variance <= volFloor {
				return o.fallback(n, method, "zero volatility asset")
			}
			w[i] = 1 / math.Sqrt(variance)
		}
		return w, method, false
	}

	singular, reason := checkCovariance(mu, sigma)
	if reason != "" {
		return o.fallback(n, method, reason)
	}

	solver := newQPSolver(mu, sigma)
	var (
		w         []float64
		converged bool
		improves  func(w []float64) bool
	)
	eq := equalWeights(n)
	if method == model.MethodMaxSharpe {
		w, converged = solver.maxSharpe()
		improves = func(w []float64) bool {
			return sharpe(w, mu, sigma) > sharpe(eq, mu, sigma)+improvementTol
		}
	} else {
		w, converged = solver.minVolatility()
		improves = func(w []float64) bool {
			return portfolioVariance(w, sigma) < portfolioVariance(eq, sigma)-improvementTol
		}
	}
	if !converged {
		return o.fallback(n, method, "solver did not converge")
	}
	// on a singular Σ the optimum is not unique; keep it only when it beats
	// the equal-weight allocation
	if singular && !improves(w) {
		return o.fallback(n, method, "covariance matrix is singular")
	}

	return w, method, false
}

func (o *Optimizer) fallback(n int, method, reason string) ([]float64, string, bool) {
	o.logger.Warn().
		Str("method", method).
		Str("reason", reason).
		Str("kind", string(model.KindNumericDegenerate)).
		Msg("Falling back to equal weights")
	return equalWeights(n), model.MethodEqualWeight, true
}

// checkCovariance requires finite moments and a positive semi-definite Σ.
// It reports whether Σ is singular or has a condition number above
// maxCondition, or a reason to abandon the solvers altogether.
func checkCovariance(mu []float64, sigma *mat.SymDense) (bool, string) {
	n := sigma.SymmetricDim()
	for i := 0; i < n; i++ {
		if math.IsNaN(mu[i]) || math.IsInf(mu[i], 0) {
			return false, "expected returns are not finite"
		}
		for j := 0; j < n; j++ {
			if v := sigma.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return false, "covariance matrix is not finite"
			}
		}
	}

	var es mat.EigenSym
	if !es.Factorize(sigma, false) {
		return false, "covariance eigen decomposition failed"
	}
	values := es.Values(nil)
	lo, hi := values[0], values[len(values)-1]
	if hi <= 0 {
		return true, ""
	}
	if lo < -psdTol*hi {
		return false, "covariance matrix is not positive semi-definite"
	}
	return lo <= hi/maxCondition, ""
}

// annualizedMoments returns the mean vector and covariance matrix of the
// columns of data, both scaled to a trading year
func annualizedMoments(data *mat.Dense) ([]float64, *mat.SymDense) {
	_, n := data.Dims()
	annualization := float64(models.TradingDaysPerYear)

	mu := make([]float64, n)
	for i := 0; i < n; i++ {
		mu[i] = stat.Mean(mat.Col(nil, i, data), nil) * annualization
	}

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, data, nil)
	sigma := mat.NewSymDense(n, nil)
	sigma.ScaleSym(annualization, &cov)

	return mu, sigma
}

// correlationMatrix returns the Pearson correlations of the columns of
// data with a unit diagonal. Pairs involving a constant column read 0.
func correlationMatrix(data *mat.Dense) [][]float64 {
	_, n := data.Dims()

	var corr mat.SymDense
	stat.CorrelationMatrix(&corr, data, nil)

	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		out[i][i] = 1
		for j := i + 1; j < n; j++ {
			c := model.Finite(corr.At(i, j))
			c = math.Max(-1, math.Min(1, c))
			out[i][j] = c
			out[j][i] = c
		}
	}
	return out
}

func shortest(symbols []string, returns map[string]models.ReturnSeries) string {
	name := symbols[0]
	for _, s := range symbols[1:] {
		if returns[s].Len() < returns[name].Len() {
			name = s
		}
	}
	return name
}
