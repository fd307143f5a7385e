// Package model defines the data structures used throughout the application.
package model

import "time"

// Role is an application-level role attached to a Profile.
//
// WHY A NAMED STRING TYPE?
// A plain string would work, but a named type documents intent at every call
// site and lets the compiler catch accidental swaps (e.g. passing a userID
// where a role is expected). The DB stores the string value directly.
type Role string

const (
	// RoleDeveloper is the default role: imports repos, edits own projects.
	RoleDeveloper Role = "developer"

	// RoleExpert can read and annotate every developer's projects, but may
	// NOT edit developer-authored documentation (read-only reviewer).
	RoleExpert Role = "expert"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleDeveloper || r == RoleExpert
}

// Profile maps an authenticated identity to application-level role and
// display metadata.
//
// The ID is the same opaque user ID the session token carries — one row per
// account. Rows are created implicitly on first profile read (defaulting to
// developer), so a brand-new login never 404s on its own profile.
type Profile struct {
	ID        string    `json:"id"         db:"id"`
	Username  string    `json:"username"   db:"username"`   // GitHub login, may be empty
	FullName  string    `json:"fullName"   db:"full_name"`  // display name, may be empty
	AvatarURL string    `json:"avatarUrl"  db:"avatar_url"` // profile picture URL
	Role      Role      `json:"role"       db:"role"`
	CreatedAt time.Time `json:"createdAt"  db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt"  db:"updated_at"`
}
