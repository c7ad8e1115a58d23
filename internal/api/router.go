package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/sheetsightai/sheetsight/internal/dbpool"
	"github.com/sheetsightai/sheetsight/internal/middleware"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log           *logrus.Logger
	Pool          *dbpool.Pool
	Datasets      DatasetRepository
	Analyses      AnalysisRunner
	Chat          ChatProvider
	Reports       ReportRenderer
	Stats         StatsRepository
	Model         ModelPinger
	AccountLookup middleware.AccountLookup
	CORSOrigins   []string
	Version       string
	ModelName     string
}

// Router-level limits.
const (
	maxBodySize = 50 << 20 // 50 MB; row payloads are large
	rateLimit   = 100      // requests per second per IP
	rateBurst   = 200      // token bucket burst size
)

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(maxBodySize))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.NewRateLimiter(ctx, rateLimit, rateBurst).Handler())
	r.Use(middleware.PrometheusMiddleware())

	// Metrics endpoint (unauthenticated, like health).
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(deps.Pool, deps.Model, log, deps.Version, deps.ModelName)
	datasets := NewDatasetHandler(deps.Datasets, log)
	analyses := NewAnalysisHandler(deps.Analyses, log)
	chat := NewChatHandler(deps.Chat, log)
	reports := NewReportHandler(deps.Datasets, deps.Analyses, deps.Reports, log)
	stats := NewStatsHandler(deps.Stats, log)

	// Health and readiness are unauthenticated.
	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	// All other API routes require authentication.
	api.Use(middleware.AuthMiddleware(middleware.NewCachedAccountLookup(ctx, deps.AccountLookup), log))

	// Datasets.
	api.GET("/datasets", datasets.List)
	api.POST("/datasets", datasets.Ingest)
	api.GET("/datasets/:id", datasets.Get)
	api.DELETE("/datasets/:id", datasets.Delete)

	// Analysis.
	api.POST("/datasets/:id/analyze", analyses.Analyze)
	api.GET("/datasets/:id/analysis", analyses.Get)

	// Chat.
	api.POST("/datasets/:id/chat", chat.Ask)
	api.GET("/datasets/:id/chat/history", chat.History)

	// Report export.
	api.GET("/datasets/:id/report", reports.Export)

	// Stats.
	api.GET("/stats", stats.GetStats)
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(ctx, r.Group("/api/v1"), deps)

	return r
}
