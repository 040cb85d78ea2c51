package portfolio

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

const (
	solverMaxIter = 10000
	solverTol     = 1e-10
	lambdaScans   = 50
)

// projectOntoSimplex projects v in place onto {x ≥ 0, Σx = 1}
// (Duchi et al., "Efficient projections onto the l1-ball", 2008)
func projectOntoSimplex(v []float64) {
	n := len(v)
	if n == 0 {
		return
	}

	u := make([]float64, n)
	copy(u, v)
	sort.Sort(sort.Reverse(sort.Float64Slice(u)))

	cumSum := 0.0
	rho := 0
	for j := 0; j < n; j++ {
		cumSum += u[j]
		if u[j]-(cumSum-1)/float64(j+1) > 0 {
			rho = j
		}
	}

	cumSum = 0
	for j := 0; j <= rho; j++ {
		cumSum += u[j]
	}
	theta := (cumSum - 1) / float64(rho+1)

	for i := range v {
		v[i] = math.Max(v[i]-theta, 0)
	}
}

// qpSolver minimizes w'Σw − λ·μ'w over the probability simplex by
// projected gradient descent
type qpSolver struct {
	mu    []float64
	sigma *mat.SymDense
	step  float64
}

func newQPSolver(mu []float64, sigma *mat.SymDense) *qpSolver {
	return &qpSolver{mu: mu, sigma: sigma, step: 1 / lipschitz(sigma)}
}

// lipschitz bounds the gradient Lipschitz constant 2·λmax(Σ), falling
// back to 2·trace(Σ) when the eigen decomposition fails
func lipschitz(sigma *mat.SymDense) float64 {
	var es mat.EigenSym
	if es.Factorize(sigma, false) {
		values := es.Values(nil)
		if top := values[len(values)-1]; top > 0 {
			return 2 * top
		}
	}

	n := sigma.SymmetricDim()
	trace := 0.0
	for i := 0; i < n; i++ {
		trace += sigma.At(i, i)
	}
	if trace <= 0 {
		return 1
	}
	return 2 * trace
}

func (s *qpSolver) solve(lambda float64) ([]float64, bool) {
	n := len(s.mu)
	w := make([]float64, n)
	for i := range w {
		w[i] = 1.0 / float64(n)
	}

	prev := make([]float64, n)
	grad := mat.NewVecDense(n, nil)
	for iter := 0; iter < solverMaxIter; iter++ {
		copy(prev, w)
		grad.MulVec(s.sigma, mat.NewVecDense(n, w))

		for i := range w {
			w[i] -= s.step * (2*grad.AtVec(i) - lambda*s.mu[i])
		}
		projectOntoSimplex(w)

		maxDiff := 0.0
		for i := range w {
			maxDiff = math.Max(maxDiff, math.Abs(w[i]-prev[i]))
		}
		if maxDiff < solverTol {
			return w, true
		}
	}

	return w, false
}

// minVolatility solves the long-only minimum variance problem
func (s *qpSolver) minVolatility() ([]float64, bool) {
	return s.solve(0)
}

// maxSharpe scans the risk-aversion trade-off from pure variance
// minimization towards return maximization and keeps the candidate with
// the best Sharpe ratio. Simplex vertices and the equal-weight point are
// always candidates.
func (s *qpSolver) maxSharpe() ([]float64, bool) {
	n := len(s.mu)
	var candidates [][]float64
	converged := false

	for k := 0; k <= lambdaScans; k++ {
		lambda := 0.0
		if k > 0 {
			t := float64(k) / float64(lambdaScans)
			lambda = 0.001 * math.Pow(100000, t)
		}
		w, ok := s.solve(lambda)
		if ok {
			converged = true
			candidates = append(candidates, w)
		}
	}
	if !converged {
		return nil, false
	}

	for i := 0; i < n; i++ {
		candidates = append(candidates, oneHot(n, i))
	}
	candidates = append(candidates, equalWeights(n))

	best := candidates[0]
	bestSharpe := math.Inf(-1)
	for _, w := range candidates {
		if sr := sharpe(w, s.mu, s.sigma); sr > bestSharpe {
			bestSharpe = sr
			best = w
		}
	}

	return best, true
}

func portfolioReturn(w, mu []float64) float64 {
	r := 0.0
	for i := range w {
		r += w[i] * mu[i]
	}
	return r
}

func portfolioVariance(w []float64, sigma *mat.SymDense) float64 {
	v := mat.NewVecDense(len(w), w)
	return math.Max(mat.Inner(v, sigma, v), 0)
}

// sharpe returns μ'w/σ_p, or -Inf for a riskless combination so that it
// never beats a risky candidate with a defined ratio
func sharpe(w, mu []float64, sigma *mat.SymDense) float64 {
	vol := math.Sqrt(portfolioVariance(w, sigma))
	if vol <= 0 {
		return math.Inf(-1)
	}
	return portfolioReturn(w, mu) / vol
}

func oneHot(n, i int) []float64 {
	w := make([]float64, n)
	w[i] = 1
	return w
}

func equalWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1.0 / float64(n)
	}
	return w
}

// normalizeWeights clips to [0,1] and rescales to sum exactly to one.
// A vector with no positive mass becomes equal weights.
func normalizeWeights(w []float64) []float64 {
	out := make([]float64, len(w))
	sum := 0.0
	for i, v := range w {
		if math.IsNaN(v) || v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		out[i] = v
		sum += v
	}
	if sum <= 0 {
		return equalWeights(len(w))
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
