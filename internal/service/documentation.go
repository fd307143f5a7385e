package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/sakif/devfolio/internal/apperror"
	"github.com/sakif/devfolio/internal/authz"
	"github.com/sakif/devfolio/internal/model"
	"github.com/sakif/devfolio/internal/repository"
)

// MaxDocumentationBytes bounds the stored editor document (1 MiB of JSON).
const MaxDocumentationBytes = 1 << 20

// DocumentationService handles the per-project rich-text documentation.
//
// THE ASYMMETRY, STATED ONCE MORE:
// Reads are owner-or-expert; writes are OWNER ONLY. Experts review and
// annotate through project metadata — they never rewrite a developer's
// own documentation. The policy package enforces this; the service just
// asks the right question (ActionView vs ActionEditDocs).
type DocumentationService struct {
	docs     repository.DocumentationRepository
	projects repository.ProjectRepository
	profiles repository.ProfileRepository
	logger   *slog.Logger
}

// NewDocumentationService creates a DocumentationService with all required
// dependencies.
func NewDocumentationService(
	docs repository.DocumentationRepository,
	projects repository.ProjectRepository,
	profiles repository.ProfileRepository,
	logger *slog.Logger,
) *DocumentationService {
	return &DocumentationService{
		docs:     docs,
		projects: projects,
		profiles: profiles,
		logger:   logger,
	}
}

// Get returns a project's documentation. Owner-or-expert.
//
// ABSENCE IS NOT AN ERROR: a project that was never documented returns an
// EMPTY document (content "{}"), not a 404. "No documentation yet" is the
// starting state of every project — clients open the editor on it directly.
func (s *DocumentationService) Get(ctx context.Context, callerID, projectID string) (*model.Documentation, error) {
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

	doc, err := s.docs.Get(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("service/documentation: reading docs for %s: %w", projectID, err)
	}
	if doc == nil {
		return &model.Documentation{
			ProjectID: projectID,
			Content:   json.RawMessage("{}"),
		}, nil
	}

	return doc, nil
}

// Put replaces a project's documentation. OWNER ONLY.
func (s *DocumentationService) Put(ctx context.Context, callerID, projectID string, content json.RawMessage, plainText string) (*model.Documentation, error) {
	if len(content) > MaxDocumentationBytes {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("documentation must be %d bytes or less", MaxDocumentationBytes))
	}
	if len(content) > 0 && !json.Valid(content) {
		return nil, apperror.ValidationFailed("content", "documentation content must be valid JSON")
	}

	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}

	role, err := callerRole(ctx, s.profiles, callerID)
	if err != nil {
		return nil, err
	}
	if d := authz.Evaluate(callerID, role, project.UserID, authz.ActionEditDocs); !d.Allowed {
		return nil, apperror.Forbidden(d.Reason)
	}

	doc := &model.Documentation{
		ProjectID: projectID,
		Content:   content,
		PlainText: plainText,
		UpdatedBy: callerID,
	}
	if err := s.docs.Upsert(ctx, doc); err != nil {
		s.logger.Error("failed to save documentation",
			slog.String("projectID", projectID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/documentation: saving docs for %s: %w", projectID, err)
	}

	s.logger.Info("documentation saved",
		slog.String("projectID", projectID),
		slog.String("userID", callerID),
	)

	return doc, nil
}
