// Package gcs implements a blob Store on a Google Cloud Storage bucket.
//
// Setting EmulatorHost (or STORAGE_EMULATOR_HOST) points the client at a
// local fake-gcs-server and disables authentication.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/harshag68/AgentDevelopment/internal/blob/core"
)

// Config holds construction parameters.
type Config struct {
	Bucket       string
	EmulatorHost string
	Options      []option.ClientOption
}

// Store implements core.Store over one GCS bucket.
type Store struct {
	client *storage.Client
	bucket string
}

// New creates a GCS client and binds it to cfg.Bucket.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("blob/gcs: bucket required")
	}
	opts := append([]option.ClientOption(nil), cfg.Options...)
	if host := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/"); host != "" {
		_ = os.Setenv("STORAGE_EMULATOR_HOST", host)
		opts = append(opts, option.WithoutAuthentication())
	} else {
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("blob/gcs: create client: %w", err)
	}
	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// Driver returns the blob driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverGCS }

// URI returns the gs:// locator for key.
func (s *Store) URI(key string) string { return URI(s.bucket, key) }

// URI formats a gs:// locator.
func URI(bucket, key string) string { return "gs://" + bucket + "/" + key }

// Close releases the underlying client.
func (s *Store) Close() error { return s.client.Close() }

// Put uploads r to key, replacing any existing object.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	if opts.ContentType != "" {
		w.ContentType = opts.ContentType
	}
	if len(opts.Metadata) > 0 {
		w.Metadata = core.CloneMetadata(opts.Metadata)
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return core.Info{}, fmt.Errorf("blob/gcs: write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return core.Info{}, fmt.Errorf("blob/gcs: close writer %s: %w", key, err)
	}
	return s.fromAttrs(w.Attrs()), nil
}

// Get opens a reader over the object. The caller closes it.
func (s *Store) Get(ctx context.Context, key string) (core.Info, io.ReadCloser, error) {
	obj := s.client.Bucket(s.bucket).Object(key)
	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return core.Info{}, nil, s.wrap("attrs", key, err)
	}
	r, err := obj.NewReader(ctx)
	if err != nil {
		return core.Info{}, nil, s.wrap("read", key, err)
	}
	return s.fromAttrs(attrs), r, nil
}

func (s *Store) wrap(op, key string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("blob %s: %w", key, core.ErrNotFound)
	}
	return fmt.Errorf("blob/gcs: %s %s: %w", op, key, err)
}

func (s *Store) fromAttrs(a *storage.ObjectAttrs) core.Info {
	if a == nil {
		return core.Info{}
	}
	return core.Info{
		Key:          a.Name,
		Size:         a.Size,
		ContentType:  a.ContentType,
		ETag:         a.Etag,
		Metadata:     core.CloneMetadata(a.Metadata),
		LastModified: a.Updated,
		URI:          s.URI(a.Name),
	}
}
