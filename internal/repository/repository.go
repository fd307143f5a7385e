// Package repository defines the storage interfaces the service layer
// programs against. The sqlite subpackage is the concrete implementation;
// tests substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/sakif/devfolio/internal/model"
)

// ProfileSeed carries the display fields used when a profile row is created
// implicitly on first read.
type ProfileSeed struct {
	Username  string
	FullName  string
	AvatarURL string
}

// ProfileRepository stores application profiles (identity → role mapping).
type ProfileRepository interface {
	// GetOrCreate returns the profile for id, creating it with role
	// "developer" and the seed's display fields if absent. First read IS
	// the registration — a fresh login never 404s on its own profile.
	GetOrCreate(ctx context.Context, id string, seed ProfileSeed) (*model.Profile, error)

	// Get returns the profile or apperror.ErrNotFound.
	Get(ctx context.Context, id string) (*model.Profile, error)

	// SetRole updates the role of an existing profile.
	SetRole(ctx context.Context, id string, role model.Role) (*model.Profile, error)
}

// TokenRepository is the vault for GitHub access tokens.
type TokenRepository interface {
	// Get returns the stored token row, or apperror.ErrNotLinked when the
	// user has never linked a GitHub account. NOT an auth failure.
	Get(ctx context.Context, userID string) (*model.UserToken, error)

	// Upsert stores the token keyed by user ID, overwriting any prior row.
	Upsert(ctx context.Context, token *model.UserToken) error
}

// ProjectRepository stores imported portfolio projects.
type ProjectRepository interface {
	// Upsert merges a snapshot keyed by the UNIQUE github_repo_id:
	// insert on first import, refresh of the snapshot fields on re-import.
	// Notes, tags, status, and created_at survive a re-import. On return,
	// project reflects the canonical row (ID, metadata, timestamps).
	Upsert(ctx context.Context, project *model.Project) error

	// Get returns a project by its internal ID or apperror.ErrNotFound.
	Get(ctx context.Context, id string) (*model.Project, error)

	// Update persists user-editable metadata (notes, tags, status).
	Update(ctx context.Context, project *model.Project) error

	// ListByUser returns one user's projects, newest-imported first.
	ListByUser(ctx context.Context, userID string) ([]model.Project, error)

	// ListAll returns every project, ordered by owner then recency —
	// the expert review view groups these by owner.
	ListAll(ctx context.Context) ([]model.Project, error)
}

// DocumentationRepository stores the zero-or-one rich-text document per project.
type DocumentationRepository interface {
	// Get returns the documentation row, or (nil, nil) when none exists —
	// absence is a valid state, not an error.
	Get(ctx context.Context, projectID string) (*model.Documentation, error)

	// Upsert writes the document keyed by project ID.
	Upsert(ctx context.Context, doc *model.Documentation) error
}

// AttachmentRepository stores uploaded-file metadata. Insert-only.
type AttachmentRepository interface {
	Create(ctx context.Context, att *model.Attachment) error

	// ListByProject returns a project's attachments, newest first.
	ListByProject(ctx context.Context, projectID string) ([]model.Attachment, error)
}
