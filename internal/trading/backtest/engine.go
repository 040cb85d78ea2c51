package backtest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Alias1177/QuantLab/internal/model"
	"github.com/Alias1177/QuantLab/internal/trading/risk"
	"github.com/Alias1177/QuantLab/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Strategy names
const (
	BuyAndHold    = "buy_and_hold"
	MovingAverage = "moving_average"
	RSIReversion  = "rsi"
)

// minBars is the shortest series that produces a single return
const minBars = 2

// Params holds the tunable strategy inputs
type Params struct {
	MAShort       int     `json:"ma_short"`
	MALong        int     `json:"ma_long"`
	RSIPeriod     int     `json:"rsi_period"`
	RSIOversold   float64 `json:"rsi_oversold"`
	RSIOverbought float64 `json:"rsi_overbought"`
}

// DefaultParams returns MA(5,20) and RSI(14) with 30/70 thresholds
func DefaultParams() Params {
	return Params{
		MAShort:       5,
		MALong:        20,
		RSIPeriod:     14,
		RSIOversold:   30,
		RSIOverbought: 70,
	}
}

// Validate checks the parameters used by strategy.
// MAShort ≥ MALong is accepted and yields a degenerate signal.
func (p Params) Validate(strategy string) error {
	switch strategy {
	case BuyAndHold:
		return nil
	case MovingAverage:
		if p.MAShort < 1 {
			return model.InvalidParameter("ma_short", "window must be ≥ 1, got %d", p.MAShort)
		}
		if p.MALong < 1 {
			return model.InvalidParameter("ma_long", "window must be ≥ 1, got %d", p.MALong)
		}
		return nil
	case RSIReversion:
		if p.RSIPeriod < 1 {
			return model.InvalidParameter("rsi_period", "period must be ≥ 1, got %d", p.RSIPeriod)
		}
		if p.RSIOversold <= 0 {
			return model.InvalidParameter("rsi_oversold", "threshold must be > 0, got %v", p.RSIOversold)
		}
		if p.RSIOverbought <= p.RSIOversold {
			return model.InvalidParameter("rsi_overbought",
				"threshold %v must exceed oversold %v", p.RSIOverbought, p.RSIOversold)
		}
		if p.RSIOverbought > 100 {
			return model.InvalidParameter("rsi_overbought", "threshold must be ≤ 100, got %v", p.RSIOverbought)
		}
		return nil
	default:
		return unknownStrategy(strategy)
	}
}

// Label renders the strategy with its parameters, e.g. MA(5,20)
func (p Params) Label(strategy string) string {
	switch strategy {
	case MovingAverage:
		return fmt.Sprintf("MA(%d,%d)", p.MAShort, p.MALong)
	case RSIReversion:
		return fmt.Sprintf("RSI(%d,%g,%g)", p.RSIPeriod, p.RSIOversold, p.RSIOverbought)
	default:
		return "Buy and Hold"
	}
}

// ValidStrategy reports whether name is a supported strategy
func ValidStrategy(name string) bool {
	switch name {
	case BuyAndHold, MovingAverage, RSIReversion:
		return true
	}
	return false
}

func unknownStrategy(name string) error {
	return model.InvalidParameter("strategy", "unsupported strategy %q, expected one of %s",
		name, strings.Join([]string{MovingAverage, RSIReversion, BuyAndHold}, ", "))
}

// Engine runs long/flat strategies against a buy-and-hold benchmark
type Engine struct {
	logger zerolog.Logger
}

// NewEngine creates a backtesting engine
func NewEngine() *Engine {
	return &Engine{
		logger: log.With().Str("component", "backtest").Logger(),
	}
}

// Run generates signals for strategy over series and derives both equity
// curves. The signal of day t-1 sets the exposure to the return of day t.
func (e *Engine) Run(series models.PriceSeries, strategy string, params Params) (*model.BacktestResult, error) {
	if !ValidStrategy(strategy) {
		return nil, unknownStrategy(strategy)
	}
	if err := params.Validate(strategy); err != nil {
		return nil, err
	}
	if series.Len() < minBars {
		return nil, model.InsufficientData(series.Symbol, minBars, series.Len())
	}

	closes := series.Closes()
	signals := generateSignals(closes, strategy, params)
	returns := series.Returns().Values

	benchmarkSignals := make([]int, len(closes))
	for i := range benchmarkSignals {
		benchmarkSignals[i] = 1
	}

	strategyReturns := exposedReturns(signals, returns)
	benchmarkReturns := exposedReturns(benchmarkSignals, returns)

	result := &model.BacktestResult{
		Symbol:               series.Symbol,
		Strategy:             strategy,
		StrategyLabel:        params.Label(strategy),
		Dates:                series.Dates(),
		Signals:              signals,
		StrategyEquity:       equityCurve(strategyReturns),
		BenchmarkEquity:      equityCurve(benchmarkReturns),
		StrategyPerformance:  risk.Compute(strategyReturns),
		BenchmarkPerformance: risk.Compute(benchmarkReturns),
		Trades:               countTrades(signals),
		MonthlyReturns:       monthlyReturns(series, strategyReturns),
	}

	e.logger.Debug().
		Str("symbol", series.Symbol).
		Str("strategy", result.StrategyLabel).
		Int("bars", series.Len()).
		Int("trades", result.Trades).
		Msg("Backtest completed")

	return result, nil
}

// FormatResults creates a human-readable summary of backtest results
func (e *Engine) FormatResults(results *model.BacktestResult) string {
	if results == nil {
		return "No backtest results available"
	}

	s, b := results.StrategyPerformance, results.BenchmarkPerformance
	last := len(results.StrategyEquity) - 1

	output := "\n===== BACKTEST RESULTS =====\n"
	output += fmt.Sprintf("Symbol: %s | Strategy: %s | Bars: %d\n", results.Symbol, results.StrategyLabel, len(results.Dates))
	output += fmt.Sprintf("Trades: %d\n", results.Trades)
	output += fmt.Sprintf("%-20s %12s %12s\n", "", "strategy", "benchmark")
	output += fmt.Sprintf("%-20s %11.2f%% %11.2f%%\n", "Total return",
		(results.StrategyEquity[last]-1)*100, (results.BenchmarkEquity[last]-1)*100)
	output += fmt.Sprintf("%-20s %12.4f %12.4f\n", "Annual return", s.AnnualReturn, b.AnnualReturn)
	output += fmt.Sprintf("%-20s %12.4f %12.4f\n", "Annual volatility", s.AnnualVolatility, b.AnnualVolatility)
	output += fmt.Sprintf("%-20s %12.4f %12.4f\n", "Sharpe ratio", s.SharpeRatio, b.SharpeRatio)
	output += fmt.Sprintf("%-20s %12.4f %12.4f\n", "Max drawdown", s.MaxDrawdown, b.MaxDrawdown)
	output += fmt.Sprintf("%-20s %12.4f %12.4f\n", "VaR 95", s.VaR95, b.VaR95)

	if len(results.MonthlyReturns) > 0 {
		output += "\nMonthly returns:\n"

		// Sort months for chronological display
		months := make([]string, 0, len(results.MonthlyReturns))
		for month := range results.MonthlyReturns {
			months = append(months, month)
		}
		sort.Strings(months)

		for _, month := range months {
			returnValue := results.MonthlyReturns[month]
			sign := ""
			if returnValue > 0 {
				sign = "+"
			}
			output += fmt.Sprintf("- %s: %s%.2f%%\n", month, sign, returnValue)
		}
	}

	return output
}
