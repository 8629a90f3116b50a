package ingester

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/docsift/docsift/chunker"
)

// Handler is the HTTP surface of the ingestion service.
type Handler struct {
	svc      *Service
	maxBytes int64
	logger   *slog.Logger
}

// NewHandler builds the chi router. maxBytes caps the POST /ingest body;
// zero or negative means 64 MiB.
func NewHandler(svc *Service, maxBytes int64, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBytes <= 0 {
		maxBytes = 64 << 20
	}
	h := &Handler{svc: svc, maxBytes: maxBytes, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/ingest", h.ingest)
	r.Get("/documents", h.listDocuments)
	r.Get("/documents/{id}/chunks", h.documentChunks)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}

// ingest accepts a multipart upload under the "file" field and returns the
// ingestion result.
func (h *Handler) ingest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "missing multipart field \"file\"")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}

	result, err := h.svc.Ingest(r.Context(), header.Filename, data)
	if err != nil {
		var empty *chunker.EmptyDocumentError
		if errors.As(err, &empty) {
			writeJSON(w, http.StatusUnprocessableEntity, result)
			return
		}
		h.logger.Error("ingest failed", "file", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) listDocuments(w http.ResponseWriter, r *http.Request) {
	st := h.svc.Store()
	if st == nil {
		writeError(w, http.StatusNotFound, "persistence disabled")
		return
	}
	docs, err := st.ListDocuments(r.Context(), 100, 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (h *Handler) documentChunks(w http.ResponseWriter, r *http.Request) {
	st := h.svc.Store()
	if st == nil {
		writeError(w, http.StatusNotFound, "persistence disabled")
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := st.GetDocument(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	chunks, err := st.ListChunks(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, chunks)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
