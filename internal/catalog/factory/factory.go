// Package factory selects a catalog driver from configuration.
package factory

import (
	"context"
	"fmt"

	"github.com/harshag68/AgentDevelopment/internal/catalog"
	"github.com/harshag68/AgentDevelopment/internal/catalog/memory"
	"github.com/harshag68/AgentDevelopment/internal/catalog/postgres"
	"github.com/harshag68/AgentDevelopment/internal/catalog/sqlite"
)

// Config names a driver and its connection parameters.
type Config struct {
	Driver      string
	SQLitePath  string
	PostgresDSN string
}

// Open builds the catalog named by cfg.Driver (default sqlite).
func Open(ctx context.Context, cfg Config) (catalog.Catalog, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = string(catalog.DriverSQLite)
	}
	switch catalog.Driver(driver) {
	case catalog.DriverSQLite:
		return sqlite.New(sqlite.Config{Path: cfg.SQLitePath})
	case catalog.DriverPostgres:
		return postgres.New(ctx, cfg.PostgresDSN)
	case catalog.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("catalog: unknown driver %q", driver)
	}
}
