// Package blob re-exports the core blob abstractions and selects a driver
// from configuration.
package blob

import (
	"context"
	"fmt"

	"github.com/harshag68/AgentDevelopment/internal/blob/core"
	"github.com/harshag68/AgentDevelopment/internal/blob/fs"
	"github.com/harshag68/AgentDevelopment/internal/blob/gcs"
	"github.com/harshag68/AgentDevelopment/internal/blob/memory"
	"github.com/harshag68/AgentDevelopment/internal/blob/s3"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverGCS        = core.DriverGCS
	DriverMemory     = core.DriverMemory
)

// ErrNotFound is returned (wrapped) for missing keys.
var ErrNotFound = core.ErrNotFound

// Config selects and parameterizes a driver.
type Config struct {
	Driver          string
	FSRoot          string
	Bucket          string
	Region          string
	Endpoint        string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
	GCSEmulatorHost string
}

// Open builds the Store named by cfg.Driver (default fs).
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return fs.New(cfg.FSRoot)
	case DriverS3:
		return s3.New(ctx, s3.Config{
			Bucket:          cfg.Bucket,
			Region:          cfg.Region,
			Endpoint:        cfg.Endpoint,
			PathStyle:       cfg.PathStyle,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
		})
	case DriverGCS:
		return gcs.New(ctx, gcs.Config{Bucket: cfg.Bucket, EmulatorHost: cfg.GCSEmulatorHost})
	case DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("blob: unknown driver %q", driver)
	}
}
