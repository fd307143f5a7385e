package model

import "time"

// Attachment is the metadata row for one uploaded file on a project.
//
// Rows are INSERT-ONLY: an attachment is never updated, only added. The URL
// points at the blob store's public route; the blob itself lives outside
// the database.
type Attachment struct {
	ID          string    `json:"id"          db:"id"`
	ProjectID   string    `json:"projectId"   db:"project_id"`
	Name        string    `json:"name"        db:"name"` // original upload filename
	URL         string    `json:"url"         db:"url"`
	ContentType string    `json:"contentType" db:"content_type"`
	Size        int64     `json:"size"        db:"size"` // bytes
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
}
