package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/devfolio/internal/apperror"
	"github.com/sakif/devfolio/internal/auth"
	"github.com/sakif/devfolio/internal/service"
)

// DocumentationHandler serves the per-project rich-text documentation.
type DocumentationHandler struct {
	docs   *service.DocumentationService
	logger *slog.Logger
}

// NewDocumentationHandler creates a DocumentationHandler.
func NewDocumentationHandler(docSvc *service.DocumentationService, logger *slog.Logger) *DocumentationHandler {
	return &DocumentationHandler{
		docs:   docSvc,
		logger: logger,
	}
}

// HandleGet returns a project's documentation.
//
// HTTP: GET /api/projects/{id}/documentation
// Auth: bearer + owner-or-expert
//
// A project with no documentation yet answers 200 with an EMPTY document,
// never 404 — clients open the editor on it directly.
func (h *DocumentationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	doc, err := h.docs.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, doc)
}

// putDocumentationRequest is the body of PUT .../documentation.
type putDocumentationRequest struct {
	Content   json.RawMessage `json:"content"`   // opaque editor document
	PlainText string          `json:"plainText"` // client-derived text for search/previews
}

// HandlePut replaces a project's documentation.
//
// HTTP: PUT /api/projects/{id}/documentation
// Auth: bearer + OWNER ONLY — experts get 403 here even though they can
// read everything. Reviewing is not rewriting.
func (h *DocumentationHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	var req putDocumentationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	doc, err := h.docs.Put(r.Context(), userID, r.PathValue("id"), req.Content, req.PlainText)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, doc)
}
