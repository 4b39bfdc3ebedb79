// Package server exposes the derivation service over HTTP. Invalid input
// maps to 400, anything else unexpected to 500; result-absent fields are
// simply missing from the JSON, never errors.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"perpview/internal/observability"
	"perpview/internal/position"
	"perpview/internal/query"
)

// HTTPServer wraps the gin engine and its listener.
type HTTPServer struct {
	addr       string
	httpServer *http.Server
	log        zerolog.Logger
}

// Deps holds everything the handlers need.
type Deps struct {
	Service       *query.Service
	HealthChecker *observability.HealthChecker
	Metrics       *observability.Metrics
	Log           zerolog.Logger
}

// NewHTTPServer builds the router and registers all routes.
func NewHTTPServer(addr string, deps Deps) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(accessLog(deps.Log, deps.Metrics))

	h := &handlers{
		svc: deps.Service,
		log: deps.Log,
	}

	router.GET("/positions", h.positions)
	router.GET("/tokeninfo", h.tokenInfo)
	router.GET("/healthz", gin.WrapF(deps.HealthChecker.LivenessHandler))
	router.GET("/readyz", gin.WrapF(deps.HealthChecker.ReadinessHandler))

	return &HTTPServer{
		addr: addr,
		httpServer: &http.Server{
			Addr:    addr,
			Handler: router,
		},
		log: deps.Log,
	}
}

// Handler exposes the configured router, mainly for in-process testing.
func (s *HTTPServer) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving. It blocks until the listener fails or is shut down.
func (s *HTTPServer) Start() error {
	s.log.Info().Str("addr", s.addr).Msg("http server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type handlers struct {
	svc *query.Service
	log zerolog.Logger
}

// positions serves GET /positions?account=&showPnlAfterFees=&isPnlInLeverage=
func (h *handlers) positions(c *gin.Context) {
	account := c.Query("account")
	settings := position.Settings{
		ShowPnlAfterFees:       isTrue(c.Query("showPnlAfterFees")),
		IncludeDeltaInLeverage: isTrue(c.Query("isPnlInLeverage")),
	}

	payload, err := h.svc.Positions(c.Request.Context(), account, settings)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payload": payload})
}

// tokenInfo serves GET /tokeninfo?account=
func (h *handlers) tokenInfo(c *gin.Context) {
	payload, err := h.svc.TokenInfos(c.Request.Context(), c.Query("account"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payload": payload})
}

func (h *handlers) fail(c *gin.Context, err error) {
	if errors.Is(err, query.ErrInvalidInput) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func isTrue(s string) bool {
	v, err := strconv.ParseBool(s)
	return err == nil && v
}

// accessLog tags every request with an id and records outcome and latency.
func accessLog(log zerolog.Logger, metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Header("X-Request-Id", requestID)

		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.QueryRequests.WithLabelValues(route, strconv.Itoa(status/100*100)).Inc()
		metrics.QueryDuration.WithLabelValues(route).Observe(elapsed.Seconds())
		if status >= http.StatusBadRequest {
			class := "server"
			if status < http.StatusInternalServerError {
				class = "client"
			}
			metrics.QueryErrors.WithLabelValues(route, class).Inc()
		}

		log.Info().
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Dur("took", elapsed).
			Msg("request")
	}
}
