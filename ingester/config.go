// Package ingester ties the pipeline together: configuration, the ingestion
// service, and its HTTP surface.
package ingester

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/docsift/docsift/analysis"
	"github.com/docsift/docsift/blobstore"
	"github.com/docsift/docsift/chunker"
	"github.com/docsift/docsift/sniff"
	"github.com/docsift/docsift/vision"
)

// Config is the top-level service configuration.
type Config struct {
	Analysis  analysis.Config      `yaml:"analysis"`
	Vision    vision.Config        `yaml:"vision"`
	Blobstore BlobstoreConfig      `yaml:"blobstore"`
	Sniff     sniff.Thresholds     `yaml:"sniff"`
	Split     chunker.SplitOptions `yaml:"split"`

	// DBPath is the SQLite database location. Empty disables persistence.
	DBPath string `yaml:"db_path"`
	// Multimodal enables image extraction, captioning, and upload.
	Multimodal bool `yaml:"multimodal"`
	// MaxUploadBytes caps the request body on POST /ingest.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

// BlobstoreConfig selects where extracted images are uploaded.
type BlobstoreConfig struct {
	// Type is one of "s3", "filesystem", or "none" (default).
	Type       string             `yaml:"type"`
	S3         blobstore.S3Config `yaml:"s3"`
	Filesystem blobstore.FSConfig `yaml:"filesystem"`
}

// LoadFile reads a YAML configuration file and applies defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 64 << 20
	}
	if c.Blobstore.Type == "" {
		c.Blobstore.Type = "none"
	}
}
