// Package app assembles the Manual Store and its ambient stack from a
// loaded configuration. Both the MCP and HTTP entry points start here.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/harshag68/AgentDevelopment/internal/blob"
	"github.com/harshag68/AgentDevelopment/internal/catalog"
	"github.com/harshag68/AgentDevelopment/internal/catalog/factory"
	"github.com/harshag68/AgentDevelopment/internal/config"
	"github.com/harshag68/AgentDevelopment/internal/httpapi"
	"github.com/harshag68/AgentDevelopment/internal/logger"
	"github.com/harshag68/AgentDevelopment/internal/observability"
	"github.com/harshag68/AgentDevelopment/internal/render"
	"github.com/harshag68/AgentDevelopment/internal/store"
)

type App struct {
	Log      *logger.Logger
	Cfg      config.Config
	Store    *store.Store
	Catalog  catalog.Catalog
	Blobs    blob.Store
	Registry *prometheus.Registry

	shutdownTracing func(context.Context) error
}

// New builds the App. version is reported in traces.
func New(ctx context.Context, cfg config.Config, version string) (*App, error) {
	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return NewWithLogger(ctx, cfg, version, log)
}

// NewWithLogger is New with a caller supplied logger.
func NewWithLogger(ctx context.Context, cfg config.Config, version string, log *logger.Logger) (*App, error) {
	shutdown, err := observability.InitTracing(ctx, log, observability.TracingConfig{
		Exporter:    cfg.Tracing.Exporter,
		ServiceName: cfg.Tracing.ServiceName,
		Version:     version,
	})
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	renderer, err := render.NewRenderer()
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("init renderer: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	cat, err := factory.Open(ctx, cfg.CatalogFactory())
	if err != nil {
		_ = shutdown(ctx)
		log.Sync()
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	blobs, err := blob.Open(ctx, cfg.BlobFactory())
	if err != nil {
		_ = cat.Close()
		_ = shutdown(ctx)
		log.Sync()
		return nil, fmt.Errorf("open blob store: %w", err)
	}

	s := store.New(cat, blobs, renderer,
		store.WithLogger(log.With("component", "store")),
		store.WithMetrics(metrics),
		store.WithCreatedBy(cfg.Store.CreatedBy),
		store.WithSearchLimit(cfg.Store.SearchLimit),
		store.WithKeyPrefix(cfg.Blob.Prefix),
	)

	log.Info("manual store ready",
		"catalog", cfg.Catalog.Driver,
		"blob", string(blobs.Driver()),
		"tracing", cfg.Tracing.Exporter,
	)
	return &App{
		Log:             log,
		Cfg:             cfg,
		Store:           s,
		Catalog:         cat,
		Blobs:           blobs,
		Registry:        reg,
		shutdownTracing: shutdown,
	}, nil
}

// Router builds the HTTP API around the App's store.
func (a *App) Router() *gin.Engine {
	return httpapi.NewRouter(httpapi.RouterConfig{
		Store:         a.Store,
		Log:           a.Log.With("component", "http"),
		Gatherer:      a.Registry,
		ServiceName:   a.Cfg.Tracing.ServiceName,
		CatalogDriver: a.Cfg.Catalog.Driver,
	})
}

// Close releases the catalog, the blob client and the tracer provider.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.Catalog.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close catalog: %w", err))
	}
	if c, ok := a.Blobs.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close blob store: %w", err))
		}
	}
	if err := a.shutdownTracing(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
	}
	a.Log.Sync()
	return errors.Join(errs...)
}
