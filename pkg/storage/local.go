package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/jordanlanch/leadtriage/pkg/domain"
)

// DefaultLocalURL is the API route local artifacts are served from
const DefaultLocalURL = "/api/v1/artifacts"

// LocalStore writes artifacts to a directory served by the API
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates the directory if needed
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if dir == "" {
		return nil, domain.NewConfigurationError("missing STORAGE_LOCAL_PATH")
	}
	if baseURL == "" {
		baseURL = DefaultLocalURL
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Backend implements Store
func (s *LocalStore) Backend() string { return "local" }

// Put writes body to <dir>/<name> and returns the escaped download link
func (s *LocalStore) Put(ctx context.Context, name, contentType string, body []byte) (string, error) {
	p, err := s.path(name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(p, body, 0644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	return s.baseURL + "/" + url.PathEscape(name), nil
}

// Open returns a stored artifact for download
func (s *LocalStore) Open(name string) (io.ReadCloser, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.NewNotFoundError("artifact " + name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	return f, nil
}

// path rejects names that would escape the storage directory
func (s *LocalStore) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", domain.NewValidationError(fmt.Sprintf("invalid artifact name %q", name), nil)
	}
	return filepath.Join(s.dir, name), nil
}
