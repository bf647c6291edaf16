package http

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/render"

	"darkwatch/internal/config"
	apierrors "darkwatch/internal/errors"
	"darkwatch/internal/middleware"
	"darkwatch/internal/services"
)

// UploadHandler handles spreadsheet upload requests.
type UploadHandler struct {
	service      *services.DashboardService
	cfg          config.UploadConfig
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(service *services.DashboardService, cfg config.UploadConfig, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *UploadHandler {
	return &UploadHandler{
		service:      service,
		cfg:          cfg,
		logger:       logger.With(slog.String("component", "upload_handler")),
		errorHandler: errorHandler,
	}
}

var allowedExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".csv":  true,
}

// Ingest handles POST /api/uploads. The request is multipart form data
// with one or more files under the "files" field. Each file is parsed
// independently: a malformed file yields a per-file rejection in the
// response, never a batch failure.
func (h *UploadHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	sessionID := middleware.GetSessionID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxFileBytes*int64(h.cfg.MaxBatchFiles))
	if err := r.ParseMultipartForm(h.cfg.MaxFileBytes); err != nil {
		h.logger.WarnContext(r.Context(), "multipart parse failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		if strings.Contains(err.Error(), "request body too large") {
			h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("files", "At least one file is required"))
		return
	}
	if len(files) > h.cfg.MaxBatchFiles {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("files",
			fmt.Sprintf("At most %d files per upload, got %d", h.cfg.MaxBatchFiles, len(files))))
		return
	}

	uploads := make([]services.Upload, 0, len(files))
	for _, fh := range files {
		if err := h.validateFile(fh); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		uploads = append(uploads, services.Upload{
			Filename: fh.Filename,
			Open:     openMultipart(fh),
		})
	}

	h.logger.InfoContext(r.Context(), "ingesting upload batch",
		slog.String("request_id", reqID),
		slog.String("session_id", sessionID),
		slog.Int("files", len(uploads)),
	)

	outcome, err := h.service.IngestUpload(r.Context(), sessionID, uploads)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, outcome)
}

func (h *UploadHandler) validateFile(fh *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExtensions[ext] {
		return apierrors.NewWithDetails(
			http.StatusUnsupportedMediaType,
			"UNSUPPORTED_UPLOAD",
			fmt.Sprintf("File type %q is not supported; upload .xlsx, .xlsm, or .csv", ext),
			map[string]string{"filename": fh.Filename},
		)
	}
	if fh.Size > h.cfg.MaxFileBytes {
		return apierrors.NewWithDetails(
			http.StatusRequestEntityTooLarge,
			"PAYLOAD_TOO_LARGE",
			fmt.Sprintf("File %q exceeds the %d byte limit", fh.Filename, h.cfg.MaxFileBytes),
			map[string]string{"filename": fh.Filename},
		)
	}
	return nil
}

func openMultipart(fh *multipart.FileHeader) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return fh.Open()
	}
}
