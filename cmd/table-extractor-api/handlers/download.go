package handlers

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/spherical/table-extractor/internal/artifact"
	"github.com/spherical/table-extractor/internal/domain"
	"github.com/spherical/table-extractor/internal/observability"
)

// DownloadName is the filename offered to clients.
const DownloadName = "result.xlsx"

// MsgNotFound is returned when nothing has been published yet.
const MsgNotFound = "Excel file not found"

// DownloadHandler serves the latest spreadsheet.
type DownloadHandler struct {
	logger *observability.Logger
	store  artifact.Store
}

// NewDownloadHandler creates a new download handler.
func NewDownloadHandler(logger *observability.Logger, store artifact.Store) *DownloadHandler {
	return &DownloadHandler{logger: logger, store: store}
}

// Download handles GET /download.
func (h *DownloadHandler) Download(w http.ResponseWriter, r *http.Request) {
	a, err := h.store.Get(r.Context())
	if errors.Is(err, artifact.ErrNotFound) {
		writeError(w, http.StatusNotFound, MsgNotFound)
		return
	}
	if err != nil {
		h.logger.WithContext(r.Context()).Error().Err(err).Msg("failed to read workbook")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", domain.WorkbookContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+DownloadName)
	http.ServeContent(w, r, DownloadName, a.ModTime, bytes.NewReader(a.Data))
}
