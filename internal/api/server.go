// Package api exposes the analysis pipeline over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/irfndi/tradecouncil/internal/batch"
	"github.com/irfndi/tradecouncil/internal/session"
	"github.com/irfndi/tradecouncil/internal/workflow"
)

// Server serves analyze and portfolio requests over a fresh workflow per
// call, mirroring the batch analyzer's isolation rule.
type Server struct {
	engine     *gin.Engine
	srv        *http.Server
	factory    batch.RunnerFactory
	fetch      batch.FetchFunc
	maxWorkers int
	logger     *zap.Logger
}

// Options configures the server.
type Options struct {
	Factory       batch.RunnerFactory
	Fetch         batch.FetchFunc
	MaxWorkers    int
	SentryEnabled bool
	Logger        *zap.Logger
}

// NewServer builds the HTTP server and its routes.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	if opts.SentryEnabled {
		engine.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}

	s := &Server{
		engine:     engine,
		factory:    opts.Factory,
		fetch:      opts.Fetch,
		maxWorkers: opts.MaxWorkers,
		logger:     opts.Logger.With(zap.String("component", "api")),
	}

	engine.GET("/health", s.handleHealth)
	v1 := engine.Group("/api/v1")
	v1.POST("/analyze", s.handleAnalyze)
	v1.POST("/portfolio", s.handlePortfolio)
	return s
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run(addr string) error {
	s.srv = &http.Server{Addr: addr, Handler: s.engine}
	s.logger.Info("api listening", zap.String("addr", addr))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

type analyzeRequest struct {
	Symbol          string   `json:"symbol" binding:"required"`
	Analysts        []string `json:"analysts"`
	QuickMode       *bool    `json:"quick_mode"`
	CurrentPosition float64  `json:"current_position"`
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	analysts, err := parseAnalysts(req.Analysts)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	quick := true
	if req.QuickMode != nil {
		quick = *req.QuickMode
	}

	data, err := s.fetch(c.Request.Context(), req.Symbol)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("market data fetch: %v", err)})
		return
	}

	result := s.factory().Run(c.Request.Context(), workflow.Request{
		Symbol:          req.Symbol,
		MarketData:      data,
		Analysts:        analysts,
		QuickMode:       quick,
		CurrentPosition: req.CurrentPosition,
	})
	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

type portfolioRequest struct {
	Symbols   []string           `json:"symbols" binding:"required,min=1"`
	Analysts  []string           `json:"analysts"`
	QuickMode *bool              `json:"quick_mode"`
	Positions map[string]float64 `json:"positions"`
}

func (s *Server) handlePortfolio(c *gin.Context) {
	var req portfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	analysts, err := parseAnalysts(req.Analysts)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	quick := true
	if req.QuickMode != nil {
		quick = *req.QuickMode
	}

	analyzer := batch.New(batch.Options{
		Factory:    s.factory,
		Fetch:      s.fetch,
		MaxWorkers: s.maxWorkers,
		Analysts:   analysts,
		QuickMode:  quick,
		Logger:     s.logger,
	})

	result := analyzer.AnalyzePortfolio(c.Request.Context(), req.Symbols, req.Positions)
	c.JSON(http.StatusOK, result)
}

// parseAnalysts maps request analyst names to roles; empty means all.
func parseAnalysts(names []string) ([]session.AgentRole, error) {
	if len(names) == 0 {
		return session.AnalystRoles, nil
	}
	roles := make([]session.AgentRole, 0, len(names))
	for _, name := range names {
		role := session.AgentRole(name)
		valid := false
		for _, known := range session.AnalystRoles {
			if role == known {
				valid = true
				break
			}
		}
		if !valid {
			return nil, fmt.Errorf("unknown analyst %q", name)
		}
		roles = append(roles, role)
	}
	return roles, nil
}
