// Package devserver is a stand-in for the dashboard backend. It serves the
// same REST contract over local gopsutil data so the client can be developed
// and tested without the production service.
package devserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/adminui/sysdash/internal/config"
	"github.com/adminui/sysdash/internal/metrics"
)

const rateLimiterExpiry = 5 * time.Minute

// Server is the stub backend.
type Server struct {
	echo    *echo.Echo
	cfg     config.DevServerConfig
	source  Source
	tokens  *tokenStore
	logs    *logBook
	clock   clockwork.Clock
	logger  *zap.Logger
	reg     *prometheus.Registry
	limiter echo.MiddlewareFunc
}

// Option configures a Server.
type Option func(*Server)

// WithClock sets the clock used for timestamps and simulated log lines.
func WithClock(c clockwork.Clock) Option {
	return func(s *Server) { s.clock = c }
}

// WithLogger sets the request and audit logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRegistry exposes request metrics on reg and serves it at /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) { s.reg = reg }
}

// WithLoginRateLimit limits login attempts per client IP.
func WithLoginRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) { s.limiter = newRateLimiter(perSecond, burst) }
}

// New builds the server and registers its routes.
func New(cfg config.DevServerConfig, source Source, opts ...Option) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:   e,
		cfg:    cfg,
		source: source,
		tokens: newTokenStore(),
		clock:  clockwork.NewRealClock(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logs = newLogBook(cfg.LogServices, s.clock)

	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	e.Use(s.requestLogger())
	if s.reg != nil {
		e.Use(metrics.NewServerMetrics(s.reg).Middleware())
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	if s.reg != nil {
		s.echo.GET("/metrics", echo.WrapHandler(metrics.Handler(s.reg)))
	}

	api := s.echo.Group("/api")

	login := []echo.MiddlewareFunc{}
	if s.limiter != nil {
		login = append(login, s.limiter)
	}
	api.POST("/auth/login", s.handleLogin, login...)
	api.POST("/auth/logout", s.handleLogout, s.requireAuth)
	api.GET("/auth/me", s.handleMe, s.requireAuth)

	api.GET("/system/status", s.handleSystemStatus, s.requireAuth, s.requirePermission(PermReadStatus))
	api.GET("/processes", s.handleProcesses, s.requireAuth, s.requirePermission(PermReadProcesses))
	api.GET("/logs/:service", s.handleLogs, s.requireAuth, s.requirePermission(PermReadLogs))
	api.POST("/services/restart", s.handleRestart, s.requireAuth, s.requirePermission(PermRestartService))
}

// Handler returns the HTTP handler, for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on cfg.Addr until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("stub backend listening", zap.String("addr", s.cfg.Addr))
	if err := s.echo.Start(s.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// handleError renders every error in the {"detail": "..."} shape the client
// expects.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	detail := "Internal server error"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			detail = msg
		} else {
			detail = http.StatusText(code)
		}
	} else {
		s.logger.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, map[string]string{"detail": detail})
	}
	if err != nil {
		s.logger.Warn("writing error response", zap.Error(err))
	}
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debug("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", c.Request().Header.Get("X-Request-ID")),
			)
			return nil
		},
	})
}

func newRateLimiter(perSecond float64, burst int) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(perSecond),
			Burst:     burst,
			ExpiresIn: rateLimiterExpiry,
		},
	)
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		Store: store,
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"detail": "Too many login attempts",
			})
		},
	})
}
