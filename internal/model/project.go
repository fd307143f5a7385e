package model

import "time"

// ProjectStatus is the review lifecycle state of an imported project.
type ProjectStatus string

const (
	StatusDraft     ProjectStatus = "draft"
	StatusInReview  ProjectStatus = "in_review"
	StatusPublished ProjectStatus = "published"
)

// Valid reports whether s is a known project status.
func (s ProjectStatus) Valid() bool {
	return s == StatusDraft || s == StatusInReview || s == StatusPublished
}

// Project is one imported GitHub repository in a developer's portfolio.
//
// TWO KINDS OF FIELDS:
//   - Sync snapshot (Name … GitHubUpdatedAt): copied from the GitHub API at
//     import time. Re-importing the same repository REFRESHES these fields —
//     the upsert is keyed by GitHubRepoID (UNIQUE), so re-import updates the
//     existing row rather than creating a duplicate.
//   - User-editable metadata (Notes, Tags, Status): owned by this app, never
//     touched by a re-import.
//
// WHY GitHubRepoID int64?
// GitHub repository IDs are integers and stable across renames — a repo
// renamed on GitHub still maps to the same Project row. The owner/name
// string is just a display snapshot.
type Project struct {
	ID     string `json:"id"      db:"id"`
	UserID string `json:"userId"  db:"user_id"` // owning developer

	// --- sync snapshot ---
	GitHubRepoID    int64     `json:"github_repo_id"  db:"github_repo_id"`
	Name            string    `json:"name"            db:"name"`
	FullName        string    `json:"fullName"        db:"full_name"` // "owner/repo"
	Description     string    `json:"description"     db:"description"`
	Language        string    `json:"language"        db:"language"`
	Stars           int       `json:"stars"           db:"stars"`
	Forks           int       `json:"forks"           db:"forks"`
	HTMLURL         string    `json:"htmlUrl"         db:"html_url"`
	GitHubCreatedAt time.Time `json:"githubCreatedAt" db:"github_created_at"`
	GitHubUpdatedAt time.Time `json:"githubUpdatedAt" db:"github_updated_at"`

	// --- user-editable metadata ---
	Notes  string        `json:"notes"  db:"notes"`
	Tags   []string      `json:"tags"   db:"tags"` // stored as a JSON array in sqlite
	Status ProjectStatus `json:"status" db:"status"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
