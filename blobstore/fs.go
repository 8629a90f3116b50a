package blobstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FSConfig configures the filesystem-backed store, meant for local runs and
// tests.
type FSConfig struct {
	// Dir is the base directory blobs are written under.
	Dir string `yaml:"dir"`
	// BaseURL is prepended to blob names to form the returned URL, e.g.
	// http://localhost:8080/blobs. Defaults to file:// + Dir.
	BaseURL string `yaml:"base_url"`
}

type fsStore struct {
	cfg FSConfig
}

// NewFS creates a filesystem-backed Store rooted at cfg.Dir.
func NewFS(cfg FSConfig) (Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("fs store: dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("fs store: mkdir: %w", err)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "file://" + cfg.Dir
	}
	return &fsStore{cfg: cfg}, nil
}

func (s *fsStore) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	// Blob names are flat identifiers; reject anything path-like.
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return "", fmt.Errorf("fs store: invalid blob name %q", name)
	}

	path := filepath.Join(s.cfg.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("fs store: write %s: %w", name, err)
	}
	return strings.TrimSuffix(s.cfg.BaseURL, "/") + "/" + name, nil
}
