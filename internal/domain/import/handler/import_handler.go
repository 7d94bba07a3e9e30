// Package handler exposes statement upload and the statement archive over
// HTTP.
package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/family-ledger/internal/domain/common"
	importservice "github.com/FACorreiaa/family-ledger/internal/domain/import/service"
	"github.com/FACorreiaa/family-ledger/pkg/httputil"
	"github.com/FACorreiaa/family-ledger/pkg/storage"
)

// Importer ingests one statement file.
type Importer interface {
	Import(ctx context.Context, req importservice.ImportRequest) (*importservice.ImportResult, error)
}

// ImportHandler handles statement uploads
type ImportHandler struct {
	importer Importer
	archive  storage.Archive
	owner    uuid.UUID
	maxBytes int64
	logger   *slog.Logger
}

// NewImportHandler creates a new import handler. Uploads larger than
// maxBytes are rejected.
func NewImportHandler(importer Importer, archive storage.Archive, owner uuid.UUID, maxBytes int64, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		importer: importer,
		archive:  archive,
		owner:    owner,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// Routes mounts the handler on r.
func (h *ImportHandler) Routes(r chi.Router) {
	r.Route("/imports", func(r chi.Router) {
		r.Post("/", h.Upload)
		r.Get("/statements", h.ListStatements)
		r.Get("/statements/{id}", h.DownloadStatement)
		r.Delete("/statements/{id}", h.DeleteStatement)
	})
}

type importResponse struct {
	*importservice.ImportResult
	NothingFound bool `json:"nothing_found"`
}

// Upload reads a multipart "file" with an optional "bank" field and runs
// ingestion.
func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxBytes {
		httputil.WriteError(w, http.StatusRequestEntityTooLarge, "statement too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, http.StatusRequestEntityTooLarge, "statement too large")
			return
		}
		httputil.WriteError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("failed to read upload", slog.Any("error", err))
		httputil.WriteError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	result, err := h.importer.Import(r.Context(), importservice.ImportRequest{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Bank:        common.ParseBank(r.FormValue("bank")),
		Data:        data,
	})
	switch {
	case errors.Is(err, importservice.ErrIngestionInProgress):
		httputil.WriteError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, importservice.ErrUnsupportedFormat):
		httputil.WriteError(w, http.StatusUnsupportedMediaType, fmt.Sprintf("unsupported file type: %s", header.Filename))
		return
	case errors.Is(err, importservice.ErrExtractionFailed):
		httputil.WriteError(w, http.StatusUnprocessableEntity, "could not read statement")
		return
	case err != nil:
		h.logger.Error("import failed", slog.Any("error", err))
		httputil.WriteError(w, http.StatusInternalServerError, "import failed")
		return
	}

	status := http.StatusCreated
	if result.NothingFound() {
		status = http.StatusOK
	}
	httputil.WriteJSON(w, status, importResponse{ImportResult: result, NothingFound: result.NothingFound()})
}

// ListStatements returns archived statements, newest first.
func (h *ImportHandler) ListStatements(w http.ResponseWriter, r *http.Request) {
	statements, err := h.archive.List(r.Context(), h.owner)
	if err != nil {
		h.logger.Error("failed to list statements", slog.Any("error", err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list statements")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, statements)
}

// DownloadStatement streams the original file.
func (h *ImportHandler) DownloadStatement(w http.ResponseWriter, r *http.Request) {
	id, ok := h.statementID(w, r)
	if !ok {
		return
	}

	rc, meta, err := h.archive.Open(r.Context(), h.owner, id)
	if err != nil {
		h.writeArchiveError(w, err)
		return
	}
	defer rc.Close()

	contentType := meta.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", meta.Name))
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("failed to stream statement", slog.String("id", id.String()), slog.Any("error", err))
	}
}

// DeleteStatement removes an archived file. Its transactions stay in the
// ledger.
func (h *ImportHandler) DeleteStatement(w http.ResponseWriter, r *http.Request) {
	id, ok := h.statementID(w, r)
	if !ok {
		return
	}
	if err := h.archive.Delete(r.Context(), h.owner, id); err != nil {
		h.writeArchiveError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ImportHandler) statementID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid statement id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *ImportHandler) writeArchiveError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		httputil.WriteError(w, http.StatusNotFound, "statement not found")
		return
	}
	h.logger.Error("statement archive error", slog.Any("error", err))
	httputil.WriteError(w, http.StatusInternalServerError, "statement archive error")
}
