package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/devfolio/internal/apperror"
	"github.com/sakif/devfolio/internal/auth"
	"github.com/sakif/devfolio/internal/service"
)

// ProjectHandler serves the portfolio routes: import, listing, metadata.
type ProjectHandler struct {
	projects *service.ProjectService
	logger   *slog.Logger
}

// NewProjectHandler creates a ProjectHandler.
func NewProjectHandler(projectSvc *service.ProjectService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{
		projects: projectSvc,
		logger:   logger,
	}
}

// HandleList returns projects.
//
// HTTP: GET /api/projects            → the caller's own projects
// HTTP: GET /api/projects?view=expert → ALL projects grouped by owner
//
// The expert view takes no role check — the listing is readable data and
// review tooling fetches it with whatever session it has. Writes stay
// policy-checked per project.
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	if r.URL.Query().Get("view") == "expert" {
		groups, err := h.projects.ListGrouped(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, groups)
		return
	}

	projects, err := h.projects.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, projects)
}

// importRequest is the body of POST /api/projects. The canonical field is
// repository_full_name; full_name is accepted as a shorthand alias.
type importRequest struct {
	RepositoryFullName string `json:"repository_full_name"` // "owner/repo"
	FullName           string `json:"full_name"`
}

// fullName resolves the two spellings, canonical first.
func (r importRequest) fullName() string {
	if r.RepositoryFullName != "" {
		return r.RepositoryFullName
	}
	return r.FullName
}

// HandleImport imports a GitHub repository into the caller's portfolio.
//
// HTTP: POST /api/projects → 201 Created
//
// Importing an already-imported repository is not an error: the snapshot
// refreshes in place and the SAME row comes back (still 201 — the client
// can't tell and doesn't need to).
func (h *ProjectHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	project, err := h.projects.Import(r.Context(), userID, req.fullName())
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusCreated, project)
}

// HandleGet returns one project.
//
// HTTP: GET /api/projects/{id}
// Auth: bearer + owner-or-expert
func (h *ProjectHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	project, err := h.projects.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, project)
}

// HandlePatch updates a project's user-editable metadata.
//
// HTTP: PATCH /api/projects/{id}
// Auth: bearer + owner-or-expert
//
// The body is a partial document — absent fields stay as they are:
//
//	{"notes": "...", "tags": ["go","cli"], "status": "in_review"}
func (h *ProjectHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	var patch service.ProjectPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	project, err := h.projects.Patch(r.Context(), userID, r.PathValue("id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, project)
}
