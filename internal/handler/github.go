package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/sakif/devfolio/internal/apperror"
	"github.com/sakif/devfolio/internal/auth"
	"github.com/sakif/devfolio/internal/service"
)

// GitHubHandler serves GitHub data proxied with the caller's own token.
//
// Every route here requires a bearer session; the service maps an empty
// vault to the github_not_linked error tag, which the frontend turns into
// a "connect your GitHub account" prompt.
type GitHubHandler struct {
	github *service.GitHubService
	logger *slog.Logger
}

// NewGitHubHandler creates a GitHubHandler.
func NewGitHubHandler(githubSvc *service.GitHubService, logger *slog.Logger) *GitHubHandler {
	return &GitHubHandler{
		github: githubSvc,
		logger: logger,
	}
}

// HandleUser returns the caller's GitHub profile.
//
// HTTP: GET /api/github/user
func (h *GitHubHandler) HandleUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	user, err := h.github.User(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, user)
}

// HandleRepos serves two shapes from one route:
//
//	GET /api/github/repos?page=N          → one page of the caller's repos
//	GET /api/github/repos?name=owner/repo → ONE repo, README inlined
//
// The single-repo form backs the import preview screen; the list form
// backs the repo picker.
func (h *GitHubHandler) HandleRepos(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	if fullName := r.URL.Query().Get("name"); fullName != "" {
		owner, name, found := strings.Cut(fullName, "/")
		if !found || owner == "" || name == "" {
			writeError(w, apperror.ValidationFailed("name", "name must be of the form owner/repo"))
			return
		}
		repo, err := h.github.Repo(r.Context(), userID, owner, name)
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, repo)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page")) // absent/garbage → 0, clamped to 1 below
	repos, err := h.github.Repos(r.Context(), userID, page)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, repos)
}

// HandleActivity returns the caller's 10 most recent public events.
//
// HTTP: GET /api/github/activity
func (h *GitHubHandler) HandleActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	events, err := h.github.Activity(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, events)
}

// HandleContributions returns the caller's one-year contribution calendar.
//
// HTTP: GET /api/github/contributions
func (h *GitHubHandler) HandleContributions(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	calendar, err := h.github.Contributions(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, calendar)
}
