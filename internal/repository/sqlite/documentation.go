package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/devfolio/internal/apperror"
	"github.com/sakif/devfolio/internal/model"
	"github.com/sakif/devfolio/internal/repository"
)

var _ repository.DocumentationRepository = (*DocumentationStore)(nil)

// DocumentationStore implements repository.DocumentationRepository.
type DocumentationStore struct {
	conn *sql.DB
}

// Get returns the documentation row for projectID, or (nil, nil) when no
// documentation has been written yet.
//
// ABSENT IS NOT AN ERROR:
// Zero-or-one row per project is the data model — a project with no
// documentation is a perfectly normal state, so sql.ErrNoRows maps to a
// nil result, not to ErrNotFound. The service layer turns nil into an
// empty document for the client.
func (s *DocumentationStore) Get(ctx context.Context, projectID string) (*model.Documentation, error) {
	var (
		d       model.Documentation
		content string
	)

	err := s.conn.QueryRowContext(ctx,
		`SELECT project_id, content, plain_text, updated_by, updated_at
		 FROM project_documentation WHERE project_id = ?`,
		projectID,
	).Scan(&d.ProjectID, &content, &d.PlainText, &d.UpdatedBy, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite: getting documentation for project %s: %w", projectID, err)
	}

	d.Content = []byte(content)
	return &d, nil
}

// Upsert writes the document keyed by project_id — first write inserts,
// every later write overwrites.
func (s *DocumentationStore) Upsert(ctx context.Context, doc *model.Documentation) error {
	if doc.ProjectID == "" {
		return apperror.ValidationFailed("projectId", "project ID is required")
	}

	content := string(doc.Content)
	if content == "" {
		content = "{}"
	}
	doc.UpdatedAt = time.Now()

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO project_documentation (project_id, content, plain_text, updated_by, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (project_id) DO UPDATE SET
			content    = excluded.content,
			plain_text = excluded.plain_text,
			updated_by = excluded.updated_by,
			updated_at = excluded.updated_at`,
		doc.ProjectID, content, doc.PlainText, doc.UpdatedBy, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting documentation for project %s: %w", doc.ProjectID, err)
	}

	return nil
}
