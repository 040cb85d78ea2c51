package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Alias1177/QuantLab/internal/analysis/market"
	"github.com/Alias1177/QuantLab/internal/analysis/portfolio"
	"github.com/Alias1177/QuantLab/internal/calculate"
	"github.com/Alias1177/QuantLab/internal/chart"
	"github.com/Alias1177/QuantLab/internal/indicators"
	"github.com/Alias1177/QuantLab/internal/model"
	"github.com/Alias1177/QuantLab/internal/trading/backtest"
	"github.com/Alias1177/QuantLab/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// MinDays is the shortest request window for the analytics contracts
const MinDays = 30

// maxConcurrentFetches bounds parallel store reads for one portfolio
const maxConcurrentFetches = 8

// Service validates requests, loads price history and runs the engines
type Service struct {
	store      models.PriceStore
	indicators *indicators.Engine
	backtester *backtest.Engine
	optimizer  *portfolio.Optimizer
	now        func() time.Time
	logger     zerolog.Logger
}

// New creates a service over store using the given indicator lookbacks
func New(store models.PriceStore, params indicators.Params) *Service {
	return &Service{
		store:      store,
		indicators: indicators.NewEngine(params),
		backtester: backtest.NewEngine(),
		optimizer:  portfolio.NewOptimizer(),
		now:        time.Now,
		logger:     log.With().Str("component", "quant_service").Logger(),
	}
}

func validateDays(days int) error {
	if days < MinDays {
		return model.InvalidParameter("days", "must be ≥ %d, got %d", MinDays, days)
	}
	return nil
}

func period(days int) string {
	return fmt.Sprintf("%d days", days)
}

// GetIndicators computes the selected indicators over the last days bars.
// An empty selection computes all of them.
func (s *Service) GetIndicators(ctx context.Context, symbol string, days int, selection string) (*IndicatorsResult, error) {
	if err := validateDays(days); err != nil {
		return nil, err
	}
	sel, err := indicators.ParseSelection(selection)
	if err != nil {
		return nil, err
	}

	series, err := s.store.GetSeries(ctx, symbol, days)
	if err != nil {
		return nil, err
	}

	return &IndicatorsResult{
		Symbol:     symbol,
		Dates:      series.Dates(),
		Indicators: s.indicators.Compute(series, sel),
	}, nil
}

// GetAnalysis reports risk metrics, price statistics and performance
func (s *Service) GetAnalysis(ctx context.Context, symbol string, days int) (*model.Analysis, error) {
	if err := validateDays(days); err != nil {
		return nil, err
	}

	series, err := s.store.GetSeries(ctx, symbol, days)
	if err != nil {
		return nil, err
	}

	analysis, err := market.Analyze(series)
	if err != nil {
		return nil, err
	}
	analysis.AnalysisPeriod = period(days)
	return analysis, nil
}

// GetBacktest runs strategy over the last days bars of symbol
func (s *Service) GetBacktest(ctx context.Context, symbol string, days int, strategy string, params backtest.Params) (*model.BacktestResult, error) {
	if err := validateDays(days); err != nil {
		return nil, err
	}
	if !backtest.ValidStrategy(strategy) {
		return nil, model.InvalidParameter("strategy", "unsupported strategy %q", strategy)
	}
	if err := params.Validate(strategy); err != nil {
		return nil, err
	}

	series, err := s.store.GetSeries(ctx, symbol, days)
	if err != nil {
		return nil, err
	}

	result, err := s.backtester.Run(series, strategy, params)
	if err != nil {
		return nil, err
	}
	result.Period = period(days)
	return result, nil
}

// OptimizePortfolio allocates across symbols using their last days bars.
// Series are fetched concurrently; the first failure cancels the rest.
func (s *Service) OptimizePortfolio(ctx context.Context, symbols []string, days int, method string) (*model.PortfolioResult, error) {
	if err := validateSymbols(symbols); err != nil {
		return nil, err
	}
	if !portfolio.ValidMethod(method) {
		return nil, model.InvalidMethod(method)
	}
	if err := validateDays(days); err != nil {
		return nil, err
	}

	returns := make(map[string]models.ReturnSeries, len(symbols))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for _, symbol := range symbols {
		g.Go(func() error {
			series, err := s.store.GetSeries(gctx, symbol, days)
			if err != nil {
				return err
			}
			mu.Lock()
			returns[symbol] = series.Returns()
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result, err := s.optimizer.Optimize(symbols, returns, method)
	if err != nil {
		return nil, err
	}
	result.Period = period(days)

	s.logger.Debug().
		Strs("symbols", symbols).
		Str("method", result.OptimizationMethod).
		Bool("fallback", result.Fallback).
		Msg("Portfolio optimized")

	return result, nil
}

func validateSymbols(symbols []string) error {
	if len(symbols) == 0 {
		return model.InvalidParameter("symbols", "no symbols given")
	}
	seen := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		if s == "" {
			return model.InvalidParameter("symbols", "empty symbol")
		}
		if seen[s] {
			return model.InvalidParameter("symbols", "duplicate symbol %s", s)
		}
		seen[s] = true
	}
	if len(symbols) < 2 {
		return model.InvalidParameter("symbols", "at least 2 symbols are required, got %d", len(symbols))
	}
	return nil
}

// ListStocks returns the latest bar of up to limit symbols; limit ≤ 0
// lists every symbol. Symbols that fail to load are skipped.
func (s *Service) ListStocks(ctx context.Context, limit int) ([]StockSummary, error) {
	symbols, err := s.store.Symbols(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && limit < len(symbols) {
		symbols = symbols[:limit]
	}

	out := make([]StockSummary, 0, len(symbols))
	for _, symbol := range symbols {
		series, err := s.store.GetSeries(ctx, symbol, 2)
		if err != nil || series.Len() == 0 {
			s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Skipping symbol in listing")
			continue
		}

		last := series.Bars[series.Len()-1]
		summary := StockSummary{
			Symbol:      symbol,
			Date:        last.Date.Format(models.DateLayout),
			Open:        model.Round(last.Open, model.PricePlaces),
			High:        model.Round(last.High, model.PricePlaces),
			Low:         model.Round(last.Low, model.PricePlaces),
			Close:       model.Round(last.Close, model.PricePlaces),
			Volume:      int64(last.Volume),
			LatestPrice: model.Round(last.Close, model.PricePlaces),
		}
		if r := series.Returns(); r.Len() > 0 {
			summary.PriceChange = model.Round(r.Values[r.Len()-1]*100, model.PricePlaces)
		}
		out = append(out, summary)
	}
	return out, nil
}

// GetStock returns the last days bars of symbol with MA5, MA20 and daily
// returns in percent
func (s *Service) GetStock(ctx context.Context, symbol string, days int) (*StockDetail, error) {
	if days < 1 {
		return nil, model.InvalidParameter("days", "must be ≥ 1, got %d", days)
	}

	series, err := s.store.GetSeries(ctx, symbol, days)
	if err != nil {
		return nil, err
	}

	closes := series.Closes()
	ma5 := calculate.SMA(closes, 5)
	ma20 := calculate.SMA(closes, 20)
	returns := series.Returns().Values

	detail := &StockDetail{
		Symbol: symbol,
		Data:   make([]StockBar, series.Len()),
	}
	stats := market.PriceStatistics(series)

	for i, bar := range series.Bars {
		row := StockBar{
			Date:   bar.Date.Format(models.DateLayout),
			Open:   model.Round(bar.Open, model.PricePlaces),
			High:   model.Round(bar.High, model.PricePlaces),
			Low:    model.Round(bar.Low, model.PricePlaces),
			Close:  model.Round(bar.Close, model.PricePlaces),
			Volume: int64(bar.Volume),
			MA5:    roundValue(ma5[i]),
			MA20:   roundValue(ma20[i]),
		}
		if i > 0 {
			row.Returns = model.Defined(model.Round(returns[i-1]*100, model.PricePlaces))
		}
		detail.Data[i] = row
	}

	detail.Statistics = StockStatistics{
		TotalRecords: series.Len(),
		DateRange: DateRange{
			Start: series.Bars[0].Date.Format(models.DateLayout),
			End:   series.Bars[series.Len()-1].Date.Format(models.DateLayout),
		},
		PriceStats: PriceStats{
			Current:   model.Round(stats.CurrentPrice, model.PricePlaces),
			High:      model.Round(stats.PeriodHigh, model.PricePlaces),
			Low:       model.Round(stats.PeriodLow, model.PricePlaces),
			AvgVolume: stats.AverageVolume,
		},
	}
	return detail, nil
}

func roundValue(v model.Value) model.Value {
	if !v.Valid {
		return v
	}
	return model.Defined(model.Round(v.Float, model.PricePlaces))
}

// GetChart renders the last days closes of symbol as a PNG
func (s *Service) GetChart(ctx context.Context, symbol string, days int) ([]byte, error) {
	if days < 1 {
		return nil, model.InvalidParameter("days", "must be ≥ 1, got %d", days)
	}

	series, err := s.store.GetSeries(ctx, symbol, days)
	if err != nil {
		return nil, err
	}
	return chart.RenderPrice(series)
}

// Health reports the number of available symbols
func (s *Service) Health(ctx context.Context) Health {
	h := Health{Status: "healthy", Timestamp: s.now()}

	symbols, err := s.store.Symbols(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Health check failed to list symbols")
		h.Status = "degraded"
		return h
	}
	h.TotalStocks = len(symbols)
	h.DataLoaded = len(symbols) > 0
	return h
}
