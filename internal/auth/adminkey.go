// Package auth — admin key verification.
//
// The role-promotion endpoint is not tied to any user account: it's an
// operator action ("make this profile an expert"). Instead of building a
// whole admin user system for one endpoint, we guard it with a single
// shared key whose BCRYPT HASH lives in the environment (ADMIN_KEY_HASH).
//
// WHY STORE A HASH AND NOT THE KEY?
// The env/config surface (dashboards, `docker inspect`, crash dumps) leaks
// far more often than people expect. A leaked bcrypt hash is useless to an
// attacker; a leaked plaintext key is game over. Generate the hash once:
//
//	htpasswd -bnBC 12 "" "$ADMIN_KEY" | tr -d ':\n'
//
// bcrypt also buys us constant-time comparison and a work factor that makes
// brute-forcing the key through this endpoint impractical.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// AdminKeyService verifies the operator key presented to admin endpoints.
//
// A zero-value hash means administration is DISABLED: Verify always fails.
// This is the safe default — a deployment that never sets ADMIN_KEY_HASH
// simply has no working admin surface, rather than an unprotected one.
type AdminKeyService struct {
	hash []byte
}

// NewAdminKeyService creates an AdminKeyService from a bcrypt hash string.
// An empty hash is allowed (admin endpoints disabled); a malformed non-empty
// hash is a configuration error and rejected at startup.
func NewAdminKeyService(bcryptHash string) (*AdminKeyService, error) {
	if bcryptHash != "" {
		// Probe the hash cost to catch garbage values at boot instead of
		// on the first promotion attempt.
		if _, err := bcrypt.Cost([]byte(bcryptHash)); err != nil {
			return nil, fmt.Errorf("auth: ADMIN_KEY_HASH is not a valid bcrypt hash: %w", err)
		}
	}
	return &AdminKeyService{hash: []byte(bcryptHash)}, nil
}

// Enabled reports whether an admin key hash is configured.
func (a *AdminKeyService) Enabled() bool {
	return len(a.hash) > 0
}

// Verify checks a presented plaintext key against the configured hash.
// Returns nil on match, a non-nil error otherwise (including when
// administration is disabled).
//
// bcrypt.CompareHashAndPassword is constant-time internally, so response
// timing doesn't reveal how close a guess was.
func (a *AdminKeyService) Verify(key string) error {
	if !a.Enabled() {
		return errors.New("auth: admin key not configured")
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(key)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return errors.New("auth: invalid admin key")
		}
		return fmt.Errorf("auth: comparing admin key: %w", err)
	}
	return nil
}
