// Package handlers provides HTTP handlers for the table extractor API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/spherical/table-extractor/internal/artifact"
	"github.com/spherical/table-extractor/internal/domain"
	"github.com/spherical/table-extractor/internal/observability"
	"github.com/spherical/table-extractor/internal/upload"
)

// FormField is the multipart field carrying the PDF.
const FormField = "pdf"

// Client-facing upload errors.
const (
	MsgNoFilePart      = "No file part"
	MsgNoSelectedFile  = "No selected file"
	MsgInvalidFileName = "Invalid file name"
	MsgFileTooLarge    = "File too large"
	MsgPublishFailed   = "Failed to save Excel file"
)

// maxMemory is how much of a multipart body is kept in memory before
// spilling to temp files.
const maxMemory = 8 << 20

// UploadHandler handles PDF uploads.
type UploadHandler struct {
	logger     *observability.Logger
	pipeline   domain.Pipeline
	store      artifact.Store
	uploadsDir string
	maxBytes   int64
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(
	logger *observability.Logger,
	pipeline domain.Pipeline,
	store artifact.Store,
	uploadsDir string,
	maxBytes int64,
) *UploadHandler {
	return &UploadHandler{
		logger:     logger,
		pipeline:   pipeline,
		store:      store,
		uploadsDir: uploadsDir,
		maxBytes:   maxBytes,
	}
}

// UploadResponseDTO is the success body of POST /upload.
type UploadResponseDTO struct {
	Data []domain.Record `json:"data"`
}

// Upload handles POST /upload.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.WithContext(ctx)

	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, MsgFileTooLarge)
			return
		}
		logger.Debug().Err(err).Msg("request is not a multipart form")
		writeError(w, http.StatusBadRequest, MsgNoFilePart)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(FormField)
	if err != nil {
		// A part sent with an empty filename is parsed as a plain value.
		if _, ok := r.MultipartForm.Value[FormField]; ok {
			writeError(w, http.StatusBadRequest, MsgNoSelectedFile)
			return
		}
		writeError(w, http.StatusBadRequest, MsgNoFilePart)
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, MsgNoSelectedFile)
		return
	}

	doc, err := upload.Save(h.uploadsDir, uuid.NewString(), header.Filename, file)
	if err != nil {
		if domain.IsValidation(err) {
			writeError(w, http.StatusBadRequest, MsgInvalidFileName)
			return
		}
		logger.Error().Err(err).Msg("failed to store upload")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info().
		Str("filename", doc.Filename).
		Int64("size", doc.Size).
		Msg("upload received")

	result, err := h.pipeline.Process(ctx, doc.Path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrorMessage(err))
		return
	}

	if err := h.store.Put(ctx, result.Workbook); err != nil {
		err = domain.StageError(domain.StagePublish, MsgPublishFailed, err)
		logger.Error().Err(err).Str("job_id", result.JobID).Msg("failed to publish workbook")
		writeError(w, http.StatusInternalServerError, MsgPublishFailed)
		return
	}

	records := result.Records
	if records == nil {
		records = []domain.Record{}
	}
	writeJSON(w, http.StatusOK, UploadResponseDTO{Data: records})
}

// ErrorMessage returns the client-facing text for a pipeline failure: the
// stage message for stage failures, the error text otherwise.
func ErrorMessage(err error) string {
	if de, ok := domain.AsDomainError(err); ok {
		switch de.Type {
		case domain.ErrorTypeStage, domain.ErrorTypeUnexpected:
			return de.Message
		}
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
