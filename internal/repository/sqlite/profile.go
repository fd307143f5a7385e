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

// COMPILE-TIME INTERFACE CHECK:
// `var _ X = (*Y)(nil)` verifies at compile time that *ProfileStore
// implements the interface — a missing method errors here instead of at
// some distant call site. One of these per store file keeps the contract
// visible.
var _ repository.ProfileRepository = (*ProfileStore)(nil)

// ProfileStore implements repository.ProfileRepository over sqlite.
type ProfileStore struct {
	conn *sql.DB
}

// GetOrCreate returns the profile for id, creating it on first read.
//
// IMPLICIT REGISTRATION:
// There is no separate "create account" step — the first time an
// authenticated identity reads its profile, the row appears with the
// default developer role. The INSERT uses ON CONFLICT DO NOTHING so two
// concurrent first reads race harmlessly: one inserts, both then SELECT
// the same row.
func (s *ProfileStore) GetOrCreate(ctx context.Context, id string, seed repository.ProfileSeed) (*model.Profile, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "profile ID is required")
	}

	now := time.Now()
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO profiles (id, username, full_name, avatar_url, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 'developer', ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		id, seed.Username, seed.FullName, seed.AvatarURL, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: ensuring profile %s: %w", id, err)
	}

	return s.Get(ctx, id)
}

// Get retrieves a profile by ID.
// Returns apperror.ErrNotFound if no profile exists with that ID.
func (s *ProfileStore) Get(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile

	err := s.conn.QueryRowContext(ctx,
		`SELECT id, username, full_name, avatar_url, role, created_at, updated_at
		 FROM profiles WHERE id = ?`,
		id,
	).Scan(
		&p.ID,
		&p.Username,
		&p.FullName,
		&p.AvatarURL,
		&p.Role,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("profile", id)
		}
		return nil, fmt.Errorf("sqlite: getting profile %s: %w", id, err)
	}

	return &p, nil
}

// SetRole updates an existing profile's role and returns the updated row.
// Returns apperror.ErrNotFound if the profile doesn't exist.
func (s *ProfileStore) SetRole(ctx context.Context, id string, role model.Role) (*model.Profile, error) {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE profiles SET role = ?, updated_at = ? WHERE id = ?`,
		role, time.Now(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: setting role for profile %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking role update for %s: %w", id, err)
	}
	if affected == 0 {
		return nil, apperror.NotFound("profile", id)
	}

	return s.Get(ctx, id)
}
