// Package store persists ingested documents, their chunks, and processing
// warnings in SQLite for the downstream indexer.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/docsift/docsift/chunker"
	"github.com/docsift/docsift/dbopen"
)

// Document is one ingested file and its processing outcome.
type Document struct {
	ID               string `json:"id"`
	Filename         string `json:"filename"`
	DetectedFormat   string `json:"detected_format"`
	ExtractionMethod string `json:"extraction_method"`
	ChunkCount       int    `json:"chunk_count"`
	Status           string `json:"status"`
	Error            string `json:"error,omitempty"`
	IngestedAt       int64  `json:"ingested_at"`
}

// Store wraps the ingestion database.
type Store struct {
	DB *sql.DB
}

// Open opens (or creates) the ingestion database at path and applies the
// schema. Parent directories are created as needed.
func Open(path string) (*Store, error) {
	db, err := dbopen.Open(path, dbopen.WithSchema(Schema), dbopen.WithMkdirAll())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &Store{DB: db}, nil
}

// New wraps an already-opened database. The caller is responsible for having
// applied Schema.
func New(db *sql.DB) *Store {
	return &Store{DB: db}
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.DB.Close() }

// SaveDocument records a document row. Status is "ok" when errMsg is empty,
// "failed" otherwise.
func (s *Store) SaveDocument(ctx context.Context, doc *Document) error {
	if doc.ID == "" {
		doc.ID = uuid.Must(uuid.NewV7()).String()
	}
	if doc.IngestedAt == 0 {
		doc.IngestedAt = time.Now().UnixMilli()
	}
	if doc.Status == "" {
		if doc.Error == "" {
			doc.Status = "ok"
		} else {
			doc.Status = "failed"
		}
	}
	_, err := dbopen.Exec(ctx, s.DB,
		`INSERT INTO documents (id, filename, detected_format, extraction_method,
		chunk_count, status, error, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Filename, doc.DetectedFormat, doc.ExtractionMethod,
		doc.ChunkCount, doc.Status, doc.Error, doc.IngestedAt)
	if err != nil {
		return fmt.Errorf("save document %s: %w", doc.Filename, err)
	}
	return nil
}

// InsertChunks stores a document's chunks in a single transaction.
func (s *Store) InsertChunks(ctx context.Context, documentID string, chunks []chunker.Chunk) error {
	now := time.Now().UnixMilli()
	return dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO chunks (id, document_id, page_number, text, image_urls,
			image_captions, is_multimodal, extraction_method, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare: %w", err)
		}
		defer stmt.Close()

		for _, c := range chunks {
			urls, err := json.Marshal(c.RelatedImages)
			if err != nil {
				return fmt.Errorf("marshal image urls: %w", err)
			}
			if c.RelatedImages == nil {
				urls = []byte("[]")
			}
			_, err = stmt.ExecContext(ctx,
				c.ID, documentID, c.PageNumber, c.Text, string(urls),
				c.ImageCaptions, boolInt(c.IsMultimodal), c.ExtractionMethod, now)
			if err != nil {
				return fmt.Errorf("insert chunk page %d: %w", c.PageNumber, err)
			}
		}
		return nil
	})
}

// LogWarnings records non-fatal processing warnings for a document.
func (s *Store) LogWarnings(ctx context.Context, documentID string, warnings []string) error {
	if len(warnings) == 0 {
		return nil
	}
	now := time.Now().UnixMilli()
	return dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO processing_log (id, document_id, message, logged_at)
			VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare: %w", err)
		}
		defer stmt.Close()

		for _, w := range warnings {
			id := uuid.Must(uuid.NewV7()).String()
			if _, err := stmt.ExecContext(ctx, id, documentID, w, now); err != nil {
				return fmt.Errorf("insert warning: %w", err)
			}
		}
		return nil
	})
}

// GetDocument returns one document by id, or sql.ErrNoRows.
func (s *Store) GetDocument(ctx context.Context, id string) (*Document, error) {
	var d Document
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, filename, detected_format, extraction_method, chunk_count,
		status, error, ingested_at
		FROM documents WHERE id = ?`, id).
		Scan(&d.ID, &d.Filename, &d.DetectedFormat, &d.ExtractionMethod,
			&d.ChunkCount, &d.Status, &d.Error, &d.IngestedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDocuments returns documents ordered by ingestion time, newest first.
func (s *Store) ListDocuments(ctx context.Context, limit, offset int) ([]*Document, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, filename, detected_format, extraction_method, chunk_count,
		status, error, ingested_at
		FROM documents ORDER BY ingested_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Filename, &d.DetectedFormat,
			&d.ExtractionMethod, &d.ChunkCount, &d.Status, &d.Error,
			&d.IngestedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		result = append(result, &d)
	}
	return result, rows.Err()
}

// ListChunks returns a document's chunks ordered by page number.
func (s *Store) ListChunks(ctx context.Context, documentID string) ([]chunker.Chunk, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, page_number, text, image_urls, image_captions,
		is_multimodal, extraction_method
		FROM chunks WHERE document_id = ? ORDER BY page_number`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []chunker.Chunk
	for rows.Next() {
		var c chunker.Chunk
		var urls string
		var multimodal int
		if err := rows.Scan(&c.ID, &c.PageNumber, &c.Text, &urls,
			&c.ImageCaptions, &multimodal, &c.ExtractionMethod); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(urls), &c.RelatedImages); err != nil {
			return nil, fmt.Errorf("decode image urls: %w", err)
		}
		c.IsMultimodal = multimodal != 0
		result = append(result, c)
	}
	return result, rows.Err()
}

// ListWarnings returns the processing warnings recorded for a document.
func (s *Store) ListWarnings(ctx context.Context, documentID string) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT message FROM processing_log WHERE document_id = ? ORDER BY logged_at`,
		documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("scan warning: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
