// Package httpapi exposes the Manual Store over HTTP with gin.
package httpapi

import (
	"context"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/harshag68/AgentDevelopment/internal/blob"
	"github.com/harshag68/AgentDevelopment/internal/logger"
	"github.com/harshag68/AgentDevelopment/internal/manual"
)

// ManualStore is the Manual Store surface the API serves.
type ManualStore interface {
	SaveMap(ctx context.Context, in map[string]any) (manual.SaveResult, error)
	Search(ctx context.Context, query string) []manual.Summary
	Get(ctx context.Context, manualID string) (manual.Manual, bool, error)
	Document(ctx context.Context, manualID string, version int) (blob.Info, io.ReadCloser, error)
	Ping(ctx context.Context) error
	BlobDriver() string
}

type RouterConfig struct {
	Store       ManualStore
	Log         *logger.Logger
	Gatherer    prometheus.Gatherer
	ServiceName string
	// CatalogDriver is reported by /health.
	CatalogDriver string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "manuel"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(requestLogger(log))

	h := &ManualHandler{store: cfg.Store, log: log, catalogDriver: cfg.CatalogDriver}

	r.GET("/health", h.Health)
	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	manuals := r.Group("/manuals")
	{
		manuals.GET("", h.Search)
		manuals.POST("", h.Save)
		manuals.GET("/:id", h.Get)
		manuals.GET("/:id/files/:version", h.Document)
	}
	return r
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
