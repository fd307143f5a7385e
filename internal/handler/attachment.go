package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/devfolio/internal/apperror"
	"github.com/sakif/devfolio/internal/auth"
	"github.com/sakif/devfolio/internal/blob"
	"github.com/sakif/devfolio/internal/service"
)

// AttachmentHandler serves per-project file uploads.
type AttachmentHandler struct {
	attachments *service.AttachmentService
	logger      *slog.Logger
}

// NewAttachmentHandler creates an AttachmentHandler.
func NewAttachmentHandler(attachmentSvc *service.AttachmentService, logger *slog.Logger) *AttachmentHandler {
	return &AttachmentHandler{
		attachments: attachmentSvc,
		logger:      logger,
	}
}

// HandleList returns a project's attachments, newest first.
//
// HTTP: GET /api/projects/{id}/attachments
// Auth: bearer + owner-or-expert
func (h *AttachmentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	attachments, err := h.attachments.List(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, attachments)
}

// HandleUpload stores one uploaded file against a project.
//
// HTTP: POST /api/projects/{id}/attachments  (multipart/form-data, field "file")
// Auth: bearer + owner-or-expert
//
// MULTIPART PARSING:
// r.FormFile lazily parses the multipart body. We cap the request body
// itself with MaxBytesReader at the blob limit plus form overhead — this
// stops a huge upload BEFORE it's buffered, instead of after the blob
// store rejects it.
func (h *AttachmentHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, blob.MaxBlobSize+(1<<20))

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, apperror.ValidationFailed("file", "uploaded file is too large"))
			return
		}
		writeError(w, apperror.ValidationFailed("file", "a multipart 'file' field is required"))
		return
	}
	defer file.Close()

	att, err := h.attachments.Upload(r.Context(), userID, r.PathValue("id"),
		header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusCreated, att)
}
