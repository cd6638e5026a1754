package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jordanlanch/leadtriage/pkg/domain"
)

// Store persists named artifacts and returns a URL the operator can open
type Store interface {
	// Put writes body under name, replacing any existing object
	Put(ctx context.Context, name, contentType string, body []byte) (string, error)
	// Backend names the store for metrics and logs
	Backend() string
}

// Config selects and configures a Store
type Config struct {
	Type      string // "local" or "s3"
	LocalPath string
	LocalURL  string // URL prefix the API serves local artifacts under

	Bucket          string
	Prefix          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	URLExpiry       time.Duration
}

// New builds the Store selected by cfg.Type
func New(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Type) {
	case "", "local":
		return NewLocalStore(cfg.LocalPath, cfg.LocalURL)
	case "s3":
		return NewS3Store(ctx, S3Config{
			Bucket:          cfg.Bucket,
			Prefix:          cfg.Prefix,
			Region:          cfg.Region,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			Endpoint:        cfg.Endpoint,
			URLExpiry:       cfg.URLExpiry,
		})
	default:
		return nil, domain.NewConfigurationError(fmt.Sprintf("unknown STORAGE_TYPE %q", cfg.Type))
	}
}
