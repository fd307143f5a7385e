// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces policy, orchestrates
//	Repository (Data layer)  → reads/writes the database
//
// WHY A SEPARATE SERVICE LAYER?
// Without one, handlers do everything: parse HTTP, validate data, check
// permissions, call GitHub, hit the database. With one:
//
//  1. TESTING: business rules are tested with plain function calls and
//     in-memory fakes — no HTTP requests, no sqlite files.
//  2. REUSE: the same Import logic could back a CLI or a background sync
//     job without touching handler code.
//  3. SEPARATION: handlers know status codes; services know the rules
//     (who may edit what, what a valid repo name looks like); neither
//     knows SQL.
//
// THE DEPENDENCY CHAIN:
//
//	server.go creates: DB → Repositories → Services → Handlers
//	At runtime:        Handler calls Service calls Repository calls DB
//
// Services depend on INTERFACES (repository.*, GitHubGateway, BlobStore),
// never on concrete sqlite/http types — the wiring in server.go decides
// which implementation each service gets.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/sakif/devfolio/internal/apperror"
	"github.com/sakif/devfolio/internal/authz"
	"github.com/sakif/devfolio/internal/model"
	"github.com/sakif/devfolio/internal/repository"
)

// repoFullNameRE matches "owner/repo" the way GitHub allows them: letters,
// digits, dots, dashes, underscores on both sides of exactly one slash.
//
// This rejects path traversal ("../..") and URL injection ("a/b?x=1") at
// the cheapest possible point — BEFORE the vault read and the GitHub call.
var repoFullNameRE = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)

// Validation constants.
const (
	MaxNotesLength = 10000
	MaxTagLength   = 50
	MaxTagCount    = 20
)

// ProjectService handles the portfolio business logic: importing GitHub
// repositories, the owner-or-expert access rules, and metadata edits.
type ProjectService struct {
	projects repository.ProjectRepository
	profiles repository.ProfileRepository
	vault    repository.TokenRepository
	gh       GitHubGateway
	logger   *slog.Logger
}

// NewProjectService creates a ProjectService with all required dependencies.
func NewProjectService(
	projects repository.ProjectRepository,
	profiles repository.ProfileRepository,
	vault repository.TokenRepository,
	gh GitHubGateway,
	logger *slog.Logger,
) *ProjectService {
	return &ProjectService{
		projects: projects,
		profiles: profiles,
		vault:    vault,
		gh:       gh,
		logger:   logger,
	}
}

// callerRole resolves the caller's application role for policy checks.
//
// A missing profile row means the caller authenticated but never completed
// any profile-creating flow — treat them as a plain developer rather than
// failing the request.
func callerRole(ctx context.Context, profiles repository.ProfileRepository, callerID string) (model.Role, error) {
	profile, err := profiles.Get(ctx, callerID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return model.RoleDeveloper, nil
		}
		return "", fmt.Errorf("resolving caller role for %s: %w", callerID, err)
	}
	return profile.Role, nil
}

// Import imports a GitHub repository into the caller's portfolio.
//
// ORDER OF OPERATIONS (each step gates the next):
//  1. Validate the "owner/repo" shape — malformed input never reaches GitHub
//  2. Read the caller's GitHub token from the vault (NotLinked if absent)
//  3. Fetch the repository snapshot from GitHub with the CALLER's token
//  4. Upsert keyed by github_repo_id
//
// Re-importing the same repository is IDEMPOTENT: the snapshot fields are
// refreshed, the row count stays one, and notes/tags/status survive.
func (s *ProjectService) Import(ctx context.Context, callerID, fullName string) (*model.Project, error) {
	fullName = strings.TrimSpace(fullName)
	if !repoFullNameRE.MatchString(fullName) {
		return nil, apperror.ValidationFailed("full_name",
			"repository name must be of the form owner/repo")
	}

	vaultRow, err := s.vault.Get(ctx, callerID)
	if err != nil {
		return nil, err
	}

	owner, name, _ := strings.Cut(fullName, "/")
	repo, err := s.gh.GetRepo(ctx, vaultRow.GitHubToken, owner, name)
	if err != nil {
		return nil, fmt.Errorf("service/project: fetching %s from GitHub: %w", fullName, err)
	}

	project := &model.Project{
		UserID:          callerID,
		GitHubRepoID:    repo.ID,
		Name:            repo.Name,
		FullName:        repo.FullName,
		Description:     repo.Description,
		Language:        repo.Language,
		Stars:           repo.Stars,
		Forks:           repo.Forks,
		HTMLURL:         repo.HTMLURL,
		GitHubCreatedAt: repo.CreatedAt,
		GitHubUpdatedAt: repo.UpdatedAt,
	}

	if err := s.projects.Upsert(ctx, project); err != nil {
		s.logger.Error("failed to import project",
			slog.String("fullName", fullName),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/project: importing %s: %w", fullName, err)
	}

	s.logger.Info("project imported",
		slog.String("id", project.ID),
		slog.String("fullName", project.FullName),
		slog.String("userID", callerID),
	)

	return project, nil
}

// List returns the caller's own projects, newest-imported first.
func (s *ProjectService) List(ctx context.Context, callerID string) ([]model.Project, error) {
	projects, err := s.projects.ListByUser(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("service/project: listing projects for %s: %w", callerID, err)
	}
	return projects, nil
}

// PortfolioGroup is one developer's portfolio in the review view.
type PortfolioGroup struct {
	Owner    model.Profile   `json:"owner"`
	Projects []model.Project `json:"projects"`
}

// ListGrouped returns EVERY project, grouped by owning developer — the
// expert review view.
//
// NO ROLE CHECK HERE, ON PURPOSE: the grouped listing contains only data
// that is individually readable anyway, and review tooling (and tests)
// rely on being able to fetch it with any authenticated session. Per-
// project writes are still policy-checked.
func (s *ProjectService) ListGrouped(ctx context.Context) ([]PortfolioGroup, error) {
	all, err := s.projects.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/project: listing all projects: %w", err)
	}

	byOwner := make(map[string][]model.Project)
	for _, p := range all {
		byOwner[p.UserID] = append(byOwner[p.UserID], p)
	}

	groups := make([]PortfolioGroup, 0, len(byOwner))
	for userID, projects := range byOwner {
		group := PortfolioGroup{Projects: projects}

		// Attach the owner's display profile; a lookup failure degrades to
		// an ID-only owner rather than failing the whole listing.
		if profile, err := s.profiles.Get(ctx, userID); err == nil {
			group.Owner = *profile
		} else {
			group.Owner = model.Profile{ID: userID}
		}

		groups = append(groups, group)
	}

	// Map iteration order is random; pin a stable order for clients.
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Owner.ID < groups[j].Owner.ID
	})

	return groups, nil
}

// Get returns one project. Owner-or-expert.
func (s *ProjectService) Get(ctx context.Context, callerID, projectID string) (*model.Project, error) {
	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}

	role, err := callerRole(ctx, s.profiles, callerID)
	if err != nil {
		return nil, err
	}
	if d := authz.Evaluate(callerID, role, project.UserID, authz.ActionView); !d.Allowed {
		return nil, apperror.Forbidden(d.Reason)
	}

	return project, nil
}

// ProjectPatch carries the user-editable fields of a PATCH request.
// Nil pointer means "leave unchanged" — an explicit empty value clears.
type ProjectPatch struct {
	Notes  *string   `json:"notes"`
	Tags   *[]string `json:"tags"`
	Status *string   `json:"status"`
}

// Patch updates a project's user-editable metadata. Owner-or-expert —
// experts annotate the projects they review.
func (s *ProjectService) Patch(ctx context.Context, callerID, projectID string, patch ProjectPatch) (*model.Project, error) {
	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}

	role, err := callerRole(ctx, s.profiles, callerID)
	if err != nil {
		return nil, err
	}
	if d := authz.Evaluate(callerID, role, project.UserID, authz.ActionEdit); !d.Allowed {
		return nil, apperror.Forbidden(d.Reason)
	}

	if patch.Notes != nil {
		if len(*patch.Notes) > MaxNotesLength {
			return nil, apperror.ValidationFailed("notes",
				fmt.Sprintf("notes must be %d characters or less", MaxNotesLength))
		}
		project.Notes = *patch.Notes
	}

	if patch.Tags != nil {
		tags := *patch.Tags
		if len(tags) > MaxTagCount {
			return nil, apperror.ValidationFailed("tags",
				fmt.Sprintf("at most %d tags are allowed", MaxTagCount))
		}
		for _, tag := range tags {
			if strings.TrimSpace(tag) == "" {
				return nil, apperror.ValidationFailed("tags", "tags must not be empty")
			}
			if len(tag) > MaxTagLength {
				return nil, apperror.ValidationFailed("tags",
					fmt.Sprintf("each tag must be %d characters or less", MaxTagLength))
			}
		}
		project.Tags = tags
	}

	if patch.Status != nil {
		status := model.ProjectStatus(*patch.Status)
		if !status.Valid() {
			return nil, apperror.ValidationFailed("status",
				"status must be one of: draft, in_review, published")
		}
		project.Status = status
	}

	if err := s.projects.Update(ctx, project); err != nil {
		s.logger.Error("failed to update project",
			slog.String("id", projectID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/project: updating %s: %w", projectID, err)
	}

	s.logger.Info("project updated",
		slog.String("id", project.ID),
		slog.String("userID", callerID),
	)

	return project, nil
}
