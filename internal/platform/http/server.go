package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// ServerOptions configures the API server
type ServerOptions struct {
	Addr           string
	RequestTimeout time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	Defaults       Defaults
}

// Server serves the analytics API
type Server struct {
	engine *gin.Engine
	server *http.Server
	logger zerolog.Logger
}

// NewServer builds the gin engine with middleware and routes
func NewServer(opts ServerOptions, svc QuantService) *Server {
	logger := log.With().Str("component", "http").Logger()

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(
		RequestID(),
		Recovery(logger),
		AccessLog(logger),
		RateLimit(rate.NewLimiter(rate.Limit(opts.RateLimitRPS), opts.RateLimitBurst)),
		Timeout(opts.RequestTimeout),
	)

	NewHandler(svc, opts.Defaults, logger).RegisterRoutes(engine.Group("/api"))

	return &Server{
		engine: engine,
		server: &http.Server{
			Addr:              opts.Addr,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Handler exposes the routed engine
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP server starting")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
