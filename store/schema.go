package store

// Schema is the complete ingestion schema. All statements are idempotent so
// reopening an existing database is safe.
const Schema = `
-- Ingested documents
CREATE TABLE IF NOT EXISTS documents (
    id                TEXT PRIMARY KEY,
    filename          TEXT NOT NULL,
    detected_format   TEXT NOT NULL DEFAULT '',
    extraction_method TEXT NOT NULL DEFAULT '',
    chunk_count       INTEGER NOT NULL DEFAULT 0,
    status            TEXT NOT NULL DEFAULT 'pending',
    error             TEXT NOT NULL DEFAULT '',
    ingested_at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_time ON documents(ingested_at DESC);

-- Chunks emitted for a document, one row per page group
CREATE TABLE IF NOT EXISTS chunks (
    id                TEXT PRIMARY KEY,
    document_id       TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    page_number       INTEGER NOT NULL DEFAULT 1,
    text              TEXT NOT NULL,
    image_urls        TEXT NOT NULL DEFAULT '[]',
    image_captions    TEXT NOT NULL DEFAULT '',
    is_multimodal     INTEGER NOT NULL DEFAULT 0,
    extraction_method TEXT NOT NULL DEFAULT '',
    created_at        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id, page_number);

-- Non-fatal warnings recorded while processing a document
CREATE TABLE IF NOT EXISTS processing_log (
    id          TEXT PRIMARY KEY,
    document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    message     TEXT NOT NULL,
    logged_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_processing_log_document ON processing_log(document_id, logged_at);
`
