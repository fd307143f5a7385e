package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/devfolio/internal/apperror"
	"github.com/sakif/devfolio/internal/model"
	"github.com/sakif/devfolio/internal/repository"
)

var _ repository.AttachmentRepository = (*AttachmentStore)(nil)

// AttachmentStore implements repository.AttachmentRepository.
// Attachments are INSERT-ONLY — no Update or Delete methods exist on
// purpose; an uploaded file's metadata never changes.
type AttachmentStore struct {
	conn *sql.DB
}

// Create inserts an attachment metadata row. The ID and CreatedAt are
// generated here and written back to the caller's struct.
func (s *AttachmentStore) Create(ctx context.Context, att *model.Attachment) error {
	if att.ProjectID == "" {
		return apperror.ValidationFailed("projectId", "project ID is required")
	}
	if att.Name == "" {
		return apperror.ValidationFailed("name", "attachment name is required")
	}

	att.ID = xid.New().String()
	att.CreatedAt = time.Now()

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO project_documents (id, project_id, name, url, content_type, size, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		att.ID, att.ProjectID, att.Name, att.URL, att.ContentType, att.Size, att.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting attachment for project %s: %w", att.ProjectID, err)
	}

	return nil
}

// ListByProject returns a project's attachments, newest first.
func (s *AttachmentStore) ListByProject(ctx context.Context, projectID string) ([]model.Attachment, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, project_id, name, url, content_type, size, created_at
		 FROM project_documents WHERE project_id = ?
		 ORDER BY created_at DESC, id DESC`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing attachments for project %s: %w", projectID, err)
	}
	defer rows.Close()

	var out []model.Attachment
	for rows.Next() {
		var a model.Attachment
		if err := rows.Scan(
			&a.ID, &a.ProjectID, &a.Name, &a.URL, &a.ContentType, &a.Size, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning attachment row: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating attachment rows: %w", err)
	}

	return out, nil
}
