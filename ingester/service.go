package ingester

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/docsift/docsift/analysis"
	"github.com/docsift/docsift/blobstore"
	"github.com/docsift/docsift/chunker"
	"github.com/docsift/docsift/multimodal"
	"github.com/docsift/docsift/sniff"
	"github.com/docsift/docsift/store"
	"github.com/docsift/docsift/vision"
)

// Service runs the full ingestion pipeline for one document at a time and
// optionally persists the outcome.
type Service struct {
	factory *chunker.Factory
	store   *store.Store
	logger  *slog.Logger
}

// Result is the outcome of one ingestion.
type Result struct {
	Document *store.Document `json:"document"`
	Chunks   []chunker.Chunk `json:"chunks"`
	Warnings []string        `json:"warnings,omitempty"`
}

// New builds a Service from configuration. A nil or empty analysis endpoint
// leaves the remote path unconfigured; documents then fall back to local
// extraction. The returned close function releases the store.
func New(ctx context.Context, cfg *Config, logger *slog.Logger) (*Service, func() error, error) {
	if logger == nil {
		logger = slog.Default()
	}

	acfg := cfg.Analysis
	acfg.Logger = logger
	client := analysis.NewClient(acfg)
	orc := analysis.NewOrchestrator(client, logger)

	vis := vision.NewClient(cfg.Vision)

	blobs, err := openBlobstore(ctx, cfg.Blobstore)
	if err != nil {
		return nil, nil, err
	}

	var proc *multimodal.Processor
	if cfg.Multimodal {
		proc = multimodal.New(orc, vis, blobs, logger)
	}

	factory := chunker.NewFactory(orc, proc, chunker.Options{
		Multimodal: cfg.Multimodal,
		Sniff:      cfg.Sniff,
		Split:      cfg.Split,
		Logger:     logger,
	})

	svc := &Service{factory: factory, logger: logger}
	closeFn := func() error { return nil }

	if cfg.DBPath != "" {
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		svc.store = st
		closeFn = st.Close
	}

	return svc, closeFn, nil
}

func openBlobstore(ctx context.Context, cfg BlobstoreConfig) (blobstore.Store, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "s3":
		return blobstore.NewS3(ctx, cfg.S3)
	case "filesystem":
		return blobstore.NewFS(cfg.Filesystem)
	default:
		return nil, fmt.Errorf("unknown blobstore type %q", cfg.Type)
	}
}

// NewWithFactory wires a Service around a prebuilt factory and optional
// store. Used by tests and by callers that assemble dependencies themselves.
func NewWithFactory(factory *chunker.Factory, st *store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{factory: factory, store: st, logger: logger}
}

// Ingest runs detection, extraction, and assembly for one document, persists
// the outcome when a store is configured, and returns the chunks.
//
// An empty document is persisted with status "failed" and the error is
// returned; partial-failure warnings are persisted but do not fail the call.
func (s *Service) Ingest(ctx context.Context, filename string, data []byte) (*Result, error) {
	det := sniff.Detect(data, filename, sniff.Thresholds{})

	chunks, warnings, err := s.factory.Chunks(ctx, data, filename)

	doc := &store.Document{
		Filename:       filename,
		DetectedFormat: string(det.Format),
		ChunkCount:     len(chunks),
	}
	if len(chunks) > 0 {
		doc.ExtractionMethod = chunks[0].ExtractionMethod
	}
	if err != nil {
		doc.Error = err.Error()
	}

	if s.store != nil {
		if serr := s.store.SaveDocument(ctx, doc); serr != nil {
			return nil, serr
		}
		if serr := s.store.LogWarnings(ctx, doc.ID, warnings); serr != nil {
			return nil, serr
		}
		if len(chunks) > 0 {
			if serr := s.store.InsertChunks(ctx, doc.ID, chunks); serr != nil {
				return nil, serr
			}
		}
	}

	if err != nil {
		var empty *chunker.EmptyDocumentError
		if errors.As(err, &empty) {
			s.logger.Warn("document yielded no content",
				"file", filename, "warnings", len(empty.Warnings))
		}
		return &Result{Document: doc, Warnings: warnings}, err
	}

	s.logger.Info("document ingested",
		"file", filename, "format", det.Format,
		"chunks", len(chunks), "warnings", len(warnings))

	return &Result{Document: doc, Chunks: chunks, Warnings: warnings}, nil
}

// Store exposes the persistence layer, nil when persistence is disabled.
func (s *Service) Store() *store.Store { return s.store }
