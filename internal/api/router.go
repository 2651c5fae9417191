package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/pagecarbon/internal/model"
)

// Analyzer runs one page analysis and returns the saved report.
type Analyzer interface {
	Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisReport, error)
}

// Store reads persisted reports.
type Store interface {
	GetReport(ctx context.Context, userID string, id int64) (*model.AnalysisReport, error)
	History(ctx context.Context, userID string, since, until time.Time) ([]*model.AnalysisReport, error)
	TopByEnergy(ctx context.Context, userID string, n int) ([]*model.AnalysisReport, error)
}

// Config holds the server dependencies and limits.
type Config struct {
	Analyzer Analyzer
	Store    Store
	Logger   *slog.Logger

	// AnalysisTimeout bounds each POST /analyses request. Zero means no
	// bound beyond the request context.
	AnalysisTimeout time.Duration

	// RateLimit and Burst configure the per-user limit on analyses.
	RateLimit float64
	Burst     int

	// Version is reported by /health.
	Version string

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewRouter creates a gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:   Recovery, request logging
//	API:      RequireUser
//	Analyses: RateLimit
func NewRouter(cfg Config) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	h := &handler{cfg: cfg, started: cfg.Now()}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(cfg.Logger))

	v1 := r.Group("/api/v1")
	v1.GET("/health", h.health)

	user := v1.Group("")
	user.Use(RequireUser())

	user.POST("/analyses", RateLimit(cfg.RateLimit, cfg.Burst), h.createAnalysis)
	user.GET("/reports", h.listReports)
	user.GET("/reports/:id", h.getReport)
	user.GET("/charts", h.charts)

	return r
}

// requestLogger logs each request through slog so it passes the secure handler.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
