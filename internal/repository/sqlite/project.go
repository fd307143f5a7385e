package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/devfolio/internal/apperror"
	"github.com/sakif/devfolio/internal/model"
	"github.com/sakif/devfolio/internal/repository"
)

var _ repository.ProjectRepository = (*ProjectStore)(nil)

// ProjectStore implements repository.ProjectRepository over sqlite.
type ProjectStore struct {
	conn *sql.DB
}

// projectColumns is the SELECT list shared by every read in this file, in
// scanProject order. One place to keep column order and scan order in sync.
const projectColumns = `id, user_id, github_repo_id, name, full_name, description,
	language, stars, forks, html_url, github_created_at, github_updated_at,
	notes, tags, status, created_at, updated_at`

// Upsert merges a repository snapshot keyed by the UNIQUE github_repo_id.
//
// IMPORT SEMANTICS ("merge snapshot"):
//   - First import of a repository → INSERT a full new row.
//   - Re-import of the same repository → UPDATE only the snapshot columns.
//     The user's notes, tags, status, owner, and created_at are untouched:
//     re-importing refreshes what GitHub knows, never what the user wrote.
//
// After the upsert we read the canonical row back so the caller sees the
// preserved metadata and the real internal ID, whichever branch ran.
func (s *ProjectStore) Upsert(ctx context.Context, project *model.Project) error {
	if project.GitHubRepoID == 0 {
		return apperror.ValidationFailed("githubRepoId", "GitHub repository ID is required")
	}
	if project.UserID == "" {
		return apperror.ValidationFailed("userId", "owner user ID is required")
	}

	tags, err := json.Marshal(project.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: encoding tags: %w", err)
	}
	if project.Status == "" {
		project.Status = model.StatusDraft
	}

	now := time.Now()
	newID := xid.New().String()

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO projects (
			id, user_id, github_repo_id, name, full_name, description,
			language, stars, forks, html_url, github_created_at, github_updated_at,
			notes, tags, status, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (github_repo_id) DO UPDATE SET
			name              = excluded.name,
			full_name         = excluded.full_name,
			description       = excluded.description,
			language          = excluded.language,
			stars             = excluded.stars,
			forks             = excluded.forks,
			html_url          = excluded.html_url,
			github_created_at = excluded.github_created_at,
			github_updated_at = excluded.github_updated_at,
			updated_at        = excluded.updated_at`,
		newID, project.UserID, project.GitHubRepoID, project.Name, project.FullName,
		project.Description, project.Language, project.Stars, project.Forks,
		project.HTMLURL, project.GitHubCreatedAt, project.GitHubUpdatedAt,
		project.Notes, string(tags), project.Status, now, now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting project (githubRepoID=%d): %w", project.GitHubRepoID, err)
	}

	// Read the canonical row back — on the update branch the ID, notes,
	// tags, status, and created_at all come from the EXISTING row.
	canonical, err := s.getByGitHubRepoID(ctx, project.GitHubRepoID)
	if err != nil {
		return err
	}
	*project = *canonical

	return nil
}

// Get returns a project by its internal ID.
// Returns apperror.ErrNotFound if no project exists with that ID.
func (s *ProjectStore) Get(ctx context.Context, id string) (*model.Project, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)

	p, err := scanProject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("project", id)
		}
		return nil, fmt.Errorf("sqlite: getting project %s: %w", id, err)
	}
	return p, nil
}

// getByGitHubRepoID looks a project up by the import conflict key.
func (s *ProjectStore) getByGitHubRepoID(ctx context.Context, repoID int64) (*model.Project, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE github_repo_id = ?`, repoID)

	p, err := scanProject(row)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting project by githubRepoID %d: %w", repoID, err)
	}
	return p, nil
}

// Update persists the user-editable metadata (notes, tags, status).
// Snapshot columns are deliberately NOT in the SET list — only an import
// may touch those.
func (s *ProjectStore) Update(ctx context.Context, project *model.Project) error {
	tags, err := json.Marshal(project.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: encoding tags: %w", err)
	}

	project.UpdatedAt = time.Now()

	res, err := s.conn.ExecContext(ctx,
		`UPDATE projects SET notes = ?, tags = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		project.Notes, string(tags), project.Status, project.UpdatedAt, project.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating project %s: %w", project.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking project update %s: %w", project.ID, err)
	}
	if affected == 0 {
		return apperror.NotFound("project", project.ID)
	}

	return nil
}

// ListByUser returns one user's projects, newest-imported first.
func (s *ProjectStore) ListByUser(ctx context.Context, userID string) ([]model.Project, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects
		 WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing projects for user %s: %w", userID, err)
	}
	defer rows.Close()

	return collectProjects(rows)
}

// ListAll returns every project ordered by owner then recency. The expert
// review view groups the result by owner in the service layer.
func (s *ProjectStore) ListAll(ctx context.Context) ([]model.Project, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects
		 ORDER BY user_id, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing all projects: %w", err)
	}
	defer rows.Close()

	return collectProjects(rows)
}

// scanner is the subset of sql.Row / sql.Rows both scan helpers need.
type scanner interface {
	Scan(dest ...any) error
}

// scanProject reads one row in projectColumns order.
func scanProject(row scanner) (*model.Project, error) {
	var (
		p         model.Project
		tags      string
		ghCreated sql.NullTime
		ghUpdated sql.NullTime
	)

	err := row.Scan(
		&p.ID, &p.UserID, &p.GitHubRepoID, &p.Name, &p.FullName, &p.Description,
		&p.Language, &p.Stars, &p.Forks, &p.HTMLURL, &ghCreated, &ghUpdated,
		&p.Notes, &tags, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if ghCreated.Valid {
		p.GitHubCreatedAt = ghCreated.Time
	}
	if ghUpdated.Valid {
		p.GitHubUpdatedAt = ghUpdated.Time
	}
	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		// A corrupt tags blob shouldn't make the whole project unreadable.
		p.Tags = nil
	}

	return &p, nil
}

// collectProjects drains rows into a slice.
func collectProjects(rows *sql.Rows) ([]model.Project, error) {
	var out []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning project row: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating project rows: %w", err)
	}
	return out, nil
}
