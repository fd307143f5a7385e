package model

import "time"

// UserToken is the vault row holding a user's GitHub access token.
//
// INVARIANT: at most one row per user ID (user_id is the primary key).
// The row is upserted on every successful login or link event and never
// deleted explicitly — re-linking simply overwrites the previous token.
//
// GitHubUsername and AvatarURL are denormalized from the GitHub profile at
// store time so list views can show "linked as @login" without an API call.
type UserToken struct {
	UserID         string    `json:"userId"         db:"user_id"`
	GitHubToken    string    `json:"-"              db:"github_token"` // never serialized to clients
	GitHubUsername string    `json:"githubUsername" db:"github_username"`
	AvatarURL      string    `json:"avatarUrl"      db:"avatar_url"`
	UpdatedAt      time.Time `json:"updatedAt"      db:"updated_at"`
}
