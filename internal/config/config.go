// Package config loads the service configuration: built-in defaults, then
// an optional YAML file, then MANUEL_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/harshag68/AgentDevelopment/internal/blob"
	"github.com/harshag68/AgentDevelopment/internal/catalog"
	"github.com/harshag68/AgentDevelopment/internal/catalog/factory"
	"github.com/harshag68/AgentDevelopment/internal/manual"
)

// EnvConfigPath names the config file when no --config flag is given.
const EnvConfigPath = "MANUEL_CONFIG"

// Config is the full service configuration.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Catalog CatalogConfig `yaml:"catalog"`
	Blob    BlobConfig    `yaml:"blob"`
	Store   StoreConfig   `yaml:"store"`
	HTTP    HTTPConfig    `yaml:"http"`
	Tracing TracingConfig `yaml:"tracing"`
}

type LogConfig struct {
	Mode  string `yaml:"mode"`
	Level string `yaml:"level"`
}

type CatalogConfig struct {
	Driver      string `yaml:"driver"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

type BlobConfig struct {
	Driver          string `yaml:"driver"`
	FSRoot          string `yaml:"fs_root"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	GCSEmulatorHost string `yaml:"gcs_emulator_host"`
	Prefix          string `yaml:"prefix"`
}

type StoreConfig struct {
	CreatedBy   string `yaml:"created_by"`
	SearchLimit int    `yaml:"search_limit"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type TracingConfig struct {
	Exporter    string `yaml:"exporter"`
	ServiceName string `yaml:"service_name"`
}

// Default returns the configuration used when nothing is set: SQLite and
// filesystem blobs under ~/.manuel.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".manuel")
	return Config{
		Log:     LogConfig{Mode: "prod", Level: "info"},
		Catalog: CatalogConfig{Driver: string(catalog.DriverSQLite), SQLitePath: filepath.Join(base, "manuals.db")},
		Blob:    BlobConfig{Driver: string(blob.DriverFilesystem), FSRoot: filepath.Join(base, "blobs"), Region: "us-east-1"},
		Store:   StoreConfig{CreatedBy: manual.DefaultCreatedBy, SearchLimit: 50},
		HTTP:    HTTPConfig{Addr: "127.0.0.1:8080"},
		Tracing: TracingConfig{Exporter: "none", ServiceName: "manuel"},
	}
}

// Load builds the configuration from the process environment. An empty
// path falls back to $MANUEL_CONFIG; no file at all is fine.
func Load(path string) (Config, error) {
	return LoadWith(path, os.LookupEnv)
}

// LoadWith is Load with an injectable environment lookup.
func LoadWith(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if path == "" {
		path, _ = lookup(EnvConfigPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"MANUEL_LOG_MODE":               &cfg.Log.Mode,
		"MANUEL_LOG_LEVEL":              &cfg.Log.Level,
		"MANUEL_CATALOG_DRIVER":         &cfg.Catalog.Driver,
		"MANUEL_SQLITE_PATH":            &cfg.Catalog.SQLitePath,
		"MANUEL_POSTGRES_DSN":           &cfg.Catalog.PostgresDSN,
		"MANUEL_BLOB_DRIVER":            &cfg.Blob.Driver,
		"MANUEL_BLOB_FS_ROOT":           &cfg.Blob.FSRoot,
		"MANUEL_BLOB_BUCKET":            &cfg.Blob.Bucket,
		"MANUEL_BLOB_S3_REGION":         &cfg.Blob.Region,
		"MANUEL_BLOB_S3_ENDPOINT":       &cfg.Blob.Endpoint,
		"MANUEL_BLOB_S3_ACCESS_KEY_ID":  &cfg.Blob.AccessKeyID,
		"MANUEL_BLOB_S3_SECRET_KEY":     &cfg.Blob.SecretAccessKey,
		"MANUEL_BLOB_GCS_EMULATOR_HOST": &cfg.Blob.GCSEmulatorHost,
		"MANUEL_BLOB_PREFIX":            &cfg.Blob.Prefix,
		"MANUEL_CREATED_BY":             &cfg.Store.CreatedBy,
		"MANUEL_HTTP_ADDR":              &cfg.HTTP.Addr,
		"MANUEL_TRACING_EXPORTER":       &cfg.Tracing.Exporter,
		"MANUEL_TRACING_SERVICE_NAME":   &cfg.Tracing.ServiceName,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	if v, ok := lookup("MANUEL_BLOB_S3_PATH_STYLE"); ok && v != "" {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return fmt.Errorf("config: MANUEL_BLOB_S3_PATH_STYLE: %w", err)
		}
		cfg.Blob.PathStyle = b
	}
	if v, ok := lookup("MANUEL_SEARCH_LIMIT"); ok && v != "" {
		n, err := cast.ToIntE(v)
		if err != nil {
			return fmt.Errorf("config: MANUEL_SEARCH_LIMIT: %w", err)
		}
		cfg.Store.SearchLimit = n
	}
	return nil
}

// Validate rejects unknown drivers and drivers missing their required
// settings.
func (c Config) Validate() error {
	var errs []error
	switch catalog.Driver(c.Catalog.Driver) {
	case catalog.DriverSQLite, catalog.DriverMemory:
	case catalog.DriverPostgres:
		if c.Catalog.PostgresDSN == "" {
			errs = append(errs, errors.New("catalog.postgres_dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown catalog driver %q", c.Catalog.Driver))
	}
	switch blob.Driver(c.Blob.Driver) {
	case blob.DriverFilesystem, blob.DriverMemory:
	case blob.DriverS3, blob.DriverGCS:
		if c.Blob.Bucket == "" {
			errs = append(errs, fmt.Errorf("blob.bucket is required for the %s driver", c.Blob.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown blob driver %q", c.Blob.Driver))
	}
	switch strings.ToLower(c.Tracing.Exporter) {
	case "", "none", "stdout":
	default:
		errs = append(errs, fmt.Errorf("unknown tracing exporter %q", c.Tracing.Exporter))
	}
	if c.Store.SearchLimit < 0 {
		errs = append(errs, errors.New("store.search_limit must not be negative"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// CatalogFactory maps the catalog section onto the catalog factory.
func (c Config) CatalogFactory() factory.Config {
	return factory.Config{
		Driver:      c.Catalog.Driver,
		SQLitePath:  c.Catalog.SQLitePath,
		PostgresDSN: c.Catalog.PostgresDSN,
	}
}

// BlobFactory maps the blob section onto the blob factory.
func (c Config) BlobFactory() blob.Config {
	return blob.Config{
		Driver:          c.Blob.Driver,
		FSRoot:          c.Blob.FSRoot,
		Bucket:          c.Blob.Bucket,
		Region:          c.Blob.Region,
		Endpoint:        c.Blob.Endpoint,
		PathStyle:       c.Blob.PathStyle,
		AccessKeyID:     c.Blob.AccessKeyID,
		SecretAccessKey: c.Blob.SecretAccessKey,
		GCSEmulatorHost: c.Blob.GCSEmulatorHost,
	}
}
