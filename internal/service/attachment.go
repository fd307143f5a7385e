package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sakif/devfolio/internal/apperror"
	"github.com/sakif/devfolio/internal/authz"
	"github.com/sakif/devfolio/internal/model"
	"github.com/sakif/devfolio/internal/repository"
)

// AttachmentService handles file uploads attached to projects.
//
// AN UPLOAD TOUCHES TWO STORES:
// the blob store (the bytes) and the database (the metadata row). There is
// no transaction spanning both, so the write order matters: blob first,
// metadata second. If the metadata insert fails, the orphaned blob is
// deleted best-effort — a leaked file on disk is annoying; a metadata row
// pointing at a file that was never written is a broken link forever.
type AttachmentService struct {
	attachments repository.AttachmentRepository
	projects    repository.ProjectRepository
	profiles    repository.ProfileRepository
	blobs       BlobStore
	logger      *slog.Logger
}

// NewAttachmentService creates an AttachmentService with all required
// dependencies.
func NewAttachmentService(
	attachments repository.AttachmentRepository,
	projects repository.ProjectRepository,
	profiles repository.ProfileRepository,
	blobs BlobStore,
	logger *slog.Logger,
) *AttachmentService {
	return &AttachmentService{
		attachments: attachments,
		projects:    projects,
		profiles:    profiles,
		blobs:       blobs,
		logger:      logger,
	}
}

// Upload stores one file and its metadata row. Owner-or-expert.
func (s *AttachmentService) Upload(ctx context.Context, callerID, projectID, filename, contentType string, r io.Reader) (*model.Attachment, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, apperror.ValidationFailed("file", "a filename is required")
	}

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

	ref, err := s.blobs.Save(filename, r)
	if err != nil {
		return nil, apperror.ValidationFailed("file", err.Error())
	}

	att := &model.Attachment{
		ProjectID:   projectID,
		Name:        filename,
		URL:         ref.URL,
		ContentType: contentType,
		Size:        ref.Size,
	}
	if err := s.attachments.Create(ctx, att); err != nil {
		// Compensating cleanup: the blob was written but its metadata row
		// wasn't. Best-effort — if the delete also fails, log and move on.
		if derr := s.blobs.Delete(ref.StoredName); derr != nil {
			s.logger.Warn("failed to clean up orphaned blob",
				slog.String("storedName", ref.StoredName),
				slog.String("error", derr.Error()),
			)
		}
		s.logger.Error("failed to record attachment",
			slog.String("projectID", projectID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/attachment: recording upload for %s: %w", projectID, err)
	}

	s.logger.Info("attachment uploaded",
		slog.String("id", att.ID),
		slog.String("projectID", projectID),
		slog.Int64("size", att.Size),
	)

	return att, nil
}

// List returns a project's attachments, newest first. Owner-or-expert.
func (s *AttachmentService) List(ctx context.Context, callerID, projectID string) ([]model.Attachment, error) {
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

	attachments, err := s.attachments.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("service/attachment: listing attachments for %s: %w", projectID, err)
	}
	return attachments, nil
}
