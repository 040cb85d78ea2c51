package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Alias1177/QuantLab/internal/model"
	"github.com/Alias1177/QuantLab/internal/service"
	"github.com/Alias1177/QuantLab/internal/trading/backtest"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// QuantService is the analytics surface served over HTTP
type QuantService interface {
	GetIndicators(ctx context.Context, symbol string, days int, selection string) (*service.IndicatorsResult, error)
	GetAnalysis(ctx context.Context, symbol string, days int) (*model.Analysis, error)
	GetBacktest(ctx context.Context, symbol string, days int, strategy string, params backtest.Params) (*model.BacktestResult, error)
	OptimizePortfolio(ctx context.Context, symbols []string, days int, method string) (*model.PortfolioResult, error)
	ListStocks(ctx context.Context, limit int) ([]service.StockSummary, error)
	GetStock(ctx context.Context, symbol string, days int) (*service.StockDetail, error)
	GetChart(ctx context.Context, symbol string, days int) ([]byte, error)
	Health(ctx context.Context) service.Health
}

// Defaults holds the request window used when days is omitted
type Defaults struct {
	StockDays     int
	ChartDays     int
	IndicatorDays int
	AnalysisDays  int
	ListLimit     int
}

// Handler serves the analytics API
type Handler struct {
	svc      QuantService
	defaults Defaults
	logger   zerolog.Logger
}

// NewHandler creates the API handler
func NewHandler(svc QuantService, defaults Defaults, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, defaults: defaults, logger: logger}
}

// RegisterRoutes binds the handlers under router
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/health", h.Health)
	router.GET("/stocks", h.ListStocks)

	stock := router.Group("/stock/:symbol")
	{
		stock.GET("", h.GetStock)
		stock.GET("/indicators", h.GetIndicators)
		stock.GET("/analysis", h.GetAnalysis)
		stock.GET("/backtest", h.GetBacktest)
		stock.GET("/chart", h.GetChart)
	}

	router.POST("/portfolio/analysis", h.OptimizePortfolio)
}

// Health reports service status
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Health(c.Request.Context()))
}

// ListStocks returns the latest bar per symbol
func (h *Handler) ListStocks(c *gin.Context) {
	limit, err := queryInt(c, "limit", h.defaults.ListLimit)
	if err != nil {
		h.writeError(c, err)
		return
	}

	stocks, err := h.svc.ListStocks(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stocks": stocks, "total": len(stocks)})
}

// GetStock returns recent bars of one symbol
func (h *Handler) GetStock(c *gin.Context) {
	days, err := queryInt(c, "days", h.defaults.StockDays)
	if err != nil {
		h.writeError(c, err)
		return
	}

	detail, err := h.svc.GetStock(c.Request.Context(), c.Param("symbol"), days)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// GetIndicators returns technical indicators for one symbol
func (h *Handler) GetIndicators(c *gin.Context) {
	days, err := queryInt(c, "days", h.defaults.IndicatorDays)
	if err != nil {
		h.writeError(c, err)
		return
	}

	result, err := h.svc.GetIndicators(c.Request.Context(), c.Param("symbol"), days, c.Query("indicators"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetAnalysis returns the quantitative report for one symbol
func (h *Handler) GetAnalysis(c *gin.Context) {
	days, err := queryInt(c, "days", h.defaults.AnalysisDays)
	if err != nil {
		h.writeError(c, err)
		return
	}

	analysis, err := h.svc.GetAnalysis(c.Request.Context(), c.Param("symbol"), days)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// GetBacktest runs a strategy backtest for one symbol
func (h *Handler) GetBacktest(c *gin.Context) {
	days, err := queryInt(c, "days", h.defaults.AnalysisDays)
	if err != nil {
		h.writeError(c, err)
		return
	}

	params, err := backtestParams(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	strategy := c.DefaultQuery("strategy", backtest.MovingAverage)
	result, err := h.svc.GetBacktest(c.Request.Context(), c.Param("symbol"), days, strategy, params)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetChart returns a PNG price chart
func (h *Handler) GetChart(c *gin.Context) {
	days, err := queryInt(c, "days", h.defaults.ChartDays)
	if err != nil {
		h.writeError(c, err)
		return
	}

	img, err := h.svc.GetChart(c.Request.Context(), c.Param("symbol"), days)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}

// PortfolioRequest is the body of a portfolio optimization
type PortfolioRequest struct {
	Symbols          []string `json:"symbols"`
	Method           string   `json:"method"`
	OptimizationType string   `json:"optimization_type"`
	Days             *int     `json:"days"`
}

// OptimizePortfolio allocates across the requested symbols
func (h *Handler) OptimizePortfolio(c *gin.Context) {
	var req PortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, model.InvalidParameter("body", "invalid JSON: %v", err))
		return
	}

	method := req.Method
	if method == "" {
		method = req.OptimizationType
	}
	if method == "" {
		method = model.MethodEqualWeight
	}
	days := h.defaults.AnalysisDays
	if req.Days != nil {
		days = *req.Days
	}

	result, err := h.svc.OptimizePortfolio(c.Request.Context(), req.Symbols, days, method)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func backtestParams(c *gin.Context) (backtest.Params, error) {
	p := backtest.DefaultParams()

	var err error
	if p.MAShort, err = queryInt(c, "ma_short", p.MAShort); err != nil {
		return p, err
	}
	if p.MALong, err = queryInt(c, "ma_long", p.MALong); err != nil {
		return p, err
	}
	if p.RSIPeriod, err = queryInt(c, "rsi_period", p.RSIPeriod); err != nil {
		return p, err
	}
	if p.RSIOversold, err = queryFloat(c, "rsi_oversold", p.RSIOversold); err != nil {
		return p, err
	}
	if p.RSIOverbought, err = queryFloat(c, "rsi_overbought", p.RSIOverbought); err != nil {
		return p, err
	}
	return p, nil
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.InvalidParameter(name, "not an integer: %q", raw)
	}
	return v, nil
}

func queryFloat(c *gin.Context, name string, def float64) (float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, model.InvalidParameter(name, "not a number: %q", raw)
	}
	return v, nil
}

// statusFor maps an error kind to its HTTP status
func statusFor(err error) int {
	e, ok := model.AsError(err)
	if !ok {
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusInternalServerError
	}

	switch e.Kind {
	case model.KindSymbolNotFound:
		return http.StatusNotFound
	case model.KindInvalidParameter, model.KindInvalidMethod, model.KindInsufficientData, model.KindNoOverlap:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(c *gin.Context, err error) {
	status := statusFor(err)

	if e, ok := model.AsError(err); ok {
		c.AbortWithStatusJSON(status, gin.H{"error": e})
		return
	}

	h.logger.Error().Err(err).Str("request_id", c.GetString(RequestIDKey)).Msg("Request failed")
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"kind":    "Internal",
			"message": http.StatusText(status),
		},
	})
}
