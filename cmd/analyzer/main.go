package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Alias1177/QuantLab/internal/app"
	"github.com/Alias1177/QuantLab/internal/config"
	"github.com/Alias1177/QuantLab/internal/model"
	"github.com/Alias1177/QuantLab/internal/service"
	"github.com/Alias1177/QuantLab/internal/trading/backtest"
	"github.com/rs/zerolog/log"
)

func main() {
	symbol := flag.String("symbol", "", "symbol to analyze")
	days := flag.Int("days", 0, "analysis window in trading days (default from config)")
	strategy := flag.String("strategy", backtest.MovingAverage, "backtest strategy: moving_average, rsi or buy_and_hold")
	maShort := flag.Int("ma-short", 5, "short moving average window")
	maLong := flag.Int("ma-long", 20, "long moving average window")
	portfolioSymbols := flag.String("portfolio", "", "comma separated symbols to optimize")
	method := flag.String("method", model.MethodMaxSharpe, "portfolio optimization method")
	list := flag.Bool("list", false, "list available symbols")
	flag.Parse()

	// Setup context with cancellation for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// 2. Configure logging
	app.SetupLogging(cfg.LogLevel)

	// 3. Load price data
	store, closeStore, err := app.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open price store")
	}
	defer closeStore()

	svc := service.New(store, cfg.IndicatorParams())
	window := *days
	if window == 0 {
		window = cfg.DefaultAnalysisDays
	}

	if *list {
		printStocks(ctx, svc)
	}

	if *symbol != "" {
		params := backtest.DefaultParams()
		params.MAShort, params.MALong = *maShort, *maLong
		if err := runSymbol(ctx, svc, *symbol, window, *strategy, params); err != nil {
			log.Error().Err(err).Str("symbol", *symbol).Msg("Analysis failed")
			os.Exit(1)
		}
	}

	if *portfolioSymbols != "" {
		symbols := strings.Split(*portfolioSymbols, ",")
		for i := range symbols {
			symbols[i] = strings.TrimSpace(symbols[i])
		}
		if err := runPortfolio(ctx, svc, symbols, window, *method); err != nil {
			log.Error().Err(err).Msg("Portfolio optimization failed")
			os.Exit(1)
		}
	}

	if !*list && *symbol == "" && *portfolioSymbols == "" {
		flag.Usage()
	}
}

func printStocks(ctx context.Context, svc *service.Service) {
	stocks, err := svc.ListStocks(ctx, 0)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list stocks")
		return
	}

	fmt.Printf("\n===== STOCKS (%d) =====\n", len(stocks))
	for _, s := range stocks {
		fmt.Printf("%-8s %s close=%.2f change=%+.2f%%\n", s.Symbol, s.Date, s.Close, s.PriceChange)
	}
}

func runSymbol(ctx context.Context, svc *service.Service, symbol string, days int, strategy string, params backtest.Params) error {
	analysis, err := svc.GetAnalysis(ctx, symbol, days)
	if err != nil {
		return err
	}

	ps, perf, rm := analysis.PriceStatistics, analysis.Performance, analysis.RiskMetrics
	fmt.Printf("\n===== ANALYSIS: %s (%s) =====\n", analysis.Symbol, analysis.AnalysisPeriod)
	fmt.Printf("Current price: %.2f | High: %.2f | Low: %.2f\n", ps.CurrentPrice, ps.PeriodHigh, ps.PeriodLow)
	fmt.Printf("Average price: %.2f (std %.2f) | Average volume: %d\n", ps.AveragePrice, ps.PriceStd, ps.AverageVolume)
	fmt.Printf("Total return: %.2f%% | Best day: %.2f%% | Worst day: %.2f%%\n", perf.TotalReturn, perf.BestDay, perf.WorstDay)
	fmt.Printf("Up days: %d | Down days: %d\n", perf.PositiveDays, perf.NegativeDays)
	fmt.Printf("Annual return: %.4f | Volatility: %.4f | Sharpe: %.4f\n", rm.AnnualReturn, rm.AnnualVolatility, rm.SharpeRatio)
	fmt.Printf("Max drawdown: %.4f | VaR 95: %.4f | Skew: %.4f | Kurtosis: %.4f\n", rm.MaxDrawdown, rm.VaR95, rm.Skewness, rm.Kurtosis)

	result, err := svc.GetBacktest(ctx, symbol, days, strategy, params)
	if err != nil {
		return err
	}
	fmt.Print(backtest.NewEngine().FormatResults(result))
	return nil
}

func runPortfolio(ctx context.Context, svc *service.Service, symbols []string, days int, method string) error {
	result, err := svc.OptimizePortfolio(ctx, symbols, days, method)
	if err != nil {
		return err
	}

	fmt.Printf("\n===== PORTFOLIO (%s, %s) =====\n", result.OptimizationMethod, result.Period)
	if result.Fallback {
		fmt.Printf("Requested %s fell back to equal weights\n", result.RequestedMethod)
	}
	for i, s := range result.Symbols {
		fmt.Printf("- %-8s %6.2f%%\n", s, result.Weights[i]*100)
	}
	fmt.Printf("Expected return: %.4f | Volatility: %.4f | Sharpe: %.4f\n",
		result.ExpectedReturn, result.Volatility, result.Metrics.SharpeRatio)
	fmt.Printf("Max drawdown: %.4f | Observations: %d\n", result.Metrics.MaxDrawdown, result.Observations)
	return nil
}
