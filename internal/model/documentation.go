package model

import (
	"encoding/json"
	"time"
)

// Documentation is the zero-or-one rich-text document attached to a project.
//
// Content is the editor's structured document stored verbatim as JSON —
// the server treats it as opaque (json.RawMessage avoids a decode/encode
// round trip that could reorder keys). PlainText is derived client-side and
// stored alongside for search and previews.
//
// An ABSENT row is the valid "no documentation yet" state, not an error:
// the service layer returns an empty Documentation instead of a 404.
type Documentation struct {
	ProjectID string          `json:"projectId" db:"project_id"`
	Content   json.RawMessage `json:"content"   db:"content"`
	PlainText string          `json:"plainText" db:"plain_text"`
	UpdatedBy string          `json:"updatedBy" db:"updated_by"` // user ID of the last editor
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`
}
