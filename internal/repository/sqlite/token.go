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

var _ repository.TokenRepository = (*TokenStore)(nil)

// TokenStore implements repository.TokenRepository — the GitHub token vault.
type TokenStore struct {
	conn *sql.DB
}

// Get returns the vault row for userID.
//
// NOT-LINKED IS ITS OWN ERROR:
// An absent row means the user never linked a GitHub account (or the link
// was reset). That is a user-actionable condition — the client shows a
// "connect your GitHub account" prompt — so it maps to ErrNotLinked, never
// to a generic 401 that would log the user out.
func (s *TokenStore) Get(ctx context.Context, userID string) (*model.UserToken, error) {
	var t model.UserToken

	err := s.conn.QueryRowContext(ctx,
		`SELECT user_id, github_token, github_username, avatar_url, updated_at
		 FROM user_tokens WHERE user_id = ?`,
		userID,
	).Scan(
		&t.UserID,
		&t.GitHubToken,
		&t.GitHubUsername,
		&t.AvatarURL,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotLinked()
		}
		return nil, fmt.Errorf("sqlite: getting token for user %s: %w", userID, err)
	}

	return &t, nil
}

// Upsert stores the token keyed by user_id, overwriting any prior row.
//
// ON CONFLICT DO UPDATE (as opposed to INSERT OR REPLACE) keeps the same
// rowid and only touches the columns we name — the idiomatic sqlite upsert
// when the conflict key is the primary key.
func (s *TokenStore) Upsert(ctx context.Context, token *model.UserToken) error {
	if token.UserID == "" {
		return apperror.ValidationFailed("userId", "user ID is required")
	}
	if token.GitHubToken == "" {
		return apperror.ValidationFailed("token", "GitHub token is required")
	}

	token.UpdatedAt = time.Now()

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO user_tokens (user_id, github_token, github_username, avatar_url, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
			github_token    = excluded.github_token,
			github_username = excluded.github_username,
			avatar_url      = excluded.avatar_url,
			updated_at      = excluded.updated_at`,
		token.UserID,
		token.GitHubToken,
		token.GitHubUsername,
		token.AvatarURL,
		token.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting token for user %s: %w", token.UserID, err)
	}

	return nil
}
