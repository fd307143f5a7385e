// Package service — authentication business logic.
//
// AuthService is the business logic layer for authentication. It sits between
// the HTTP handlers and the repository/auth utilities:
//
//	AuthHandler (HTTP) → AuthService (business rules) → ProfileRepository (DB)
//	                   ↘ TokenService (JWT)           ↘ TokenRepository (vault)
//
// KEY RESPONSIBILITIES:
//   - Orchestrate the GitHub OAuth callback: ensure the profile, store the
//     GitHub token in the vault, issue the session JWT
//   - Validate client-supplied GitHub tokens BEFORE they reach the vault
//   - Guard the admin-only role promotion behind the admin key
//
// NOTE ON PASSWORDS:
// There are none. GitHub OAuth is the only identity provider — the app
// never sees or stores a password, only GitHub access tokens (vault) and
// its own short-lived session JWTs.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/devfolio/internal/apperror"
	"github.com/sakif/devfolio/internal/auth"
	"github.com/sakif/devfolio/internal/model"
	"github.com/sakif/devfolio/internal/repository"
)

// AuthService handles the authentication business logic.
//
// DEPENDENCIES (injected via NewAuthService):
//   - profiles  repository.ProfileRepository → identity → role mapping
//   - vault     repository.TokenRepository   → GitHub access token storage
//   - tokens    *auth.TokenService           → generate/validate session JWTs
//   - provider  OAuthProvider                → GitHub OAuth code exchange
//   - adminKey  *auth.AdminKeyService        → guards role promotion
//   - logger    *slog.Logger                 → structured logging
type AuthService struct {
	profiles repository.ProfileRepository
	vault    repository.TokenRepository
	tokens   *auth.TokenService
	provider OAuthProvider
	adminKey *auth.AdminKeyService
	logger   *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
// Call this in server.go when wiring the dependency graph.
func NewAuthService(
	profiles repository.ProfileRepository,
	vault repository.TokenRepository,
	tokens *auth.TokenService,
	provider OAuthProvider,
	adminKey *auth.AdminKeyService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		profiles: profiles,
		vault:    vault,
		tokens:   tokens,
		provider: provider,
		adminKey: adminKey,
		logger:   logger,
	}
}

// userIDFor maps a GitHub numeric ID to the app's internal user ID.
//
// The GitHub ID is stable and never changes (logins can be renamed, IDs
// can't), so deriving the internal ID from it makes the mapping free — no
// lookup table, and re-logins always land on the same profile row.
func userIDFor(githubID int64) string {
	return fmt.Sprintf("gh_%d", githubID)
}

// LoginURL returns the GitHub authorization URL for the given CSRF state.
func (s *AuthService) LoginURL(state string) string {
	return s.provider.AuthURL(state)
}

// SessionResult is returned by the OAuth callback: the caller's profile
// plus the freshly issued session JWT the handler hands to the client.
type SessionResult struct {
	Profile      *model.Profile
	SessionToken string
}

// HandleCallback completes the GitHub OAuth flow.
//
// After the handler verifies the state cookie, it passes the code here to:
//
//  1. Exchange the code for a GitHub access token + profile (server-side)
//  2. Ensure the Profile row exists (first login creates it as "developer")
//  3. Store the GitHub token in the vault (overwriting any previous one)
//  4. Issue the 24h session JWT
//
// WHY STORE THE TOKEN AT CALLBACK TIME?
// The token that just came out of the exchange is known-good — GitHub
// issued it seconds ago. Storing it immediately means a user who logs in
// is ALSO linked, so the import flow works without a second hand-off.
// The separate store-github-token endpoint remains for clients that
// obtained a token some other way.
func (s *AuthService) HandleCallback(ctx context.Context, code string) (*SessionResult, error) {
	if strings.TrimSpace(code) == "" {
		return nil, apperror.ValidationFailed("code", "authorization code is required")
	}

	link, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("service/auth: completing OAuth exchange: %w", err)
	}

	userID := userIDFor(link.User.ID)

	profile, err := s.profiles.GetOrCreate(ctx, userID, repository.ProfileSeed{
		Username:  link.User.Login,
		FullName:  link.User.Name,
		AvatarURL: link.User.AvatarURL,
	})
	if err != nil {
		return nil, fmt.Errorf("service/auth: ensuring profile for %s: %w", userID, err)
	}

	if err := s.vault.Upsert(ctx, &model.UserToken{
		UserID:         userID,
		GitHubToken:    link.AccessToken,
		GitHubUsername: link.User.Login,
		AvatarURL:      link.User.AvatarURL,
	}); err != nil {
		return nil, fmt.Errorf("service/auth: storing GitHub token for %s: %w", userID, err)
	}

	session, err := s.tokens.Generate(userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating session token for %s: %w", userID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", userID),
		slog.String("login", link.User.Login),
	)

	return &SessionResult{Profile: profile, SessionToken: session}, nil
}

// StoreGitHubToken validates a client-supplied GitHub access token and, if
// GitHub accepts it, stores it in the vault.
//
// VALIDATE FIRST, WRITE SECOND:
// The token is checked against GitHub's /user endpoint before any write.
// A rejected token leaves the vault exactly as it was — a working linked
// token is never clobbered by a bad re-link attempt.
func (s *AuthService) StoreGitHubToken(ctx context.Context, userID, githubToken string) (*model.UserToken, error) {
	githubToken = strings.TrimSpace(githubToken)
	if githubToken == "" {
		return nil, apperror.ValidationFailed("githubToken", "GitHub access token is required")
	}

	ghUser, err := s.provider.FetchUser(ctx, githubToken)
	if err != nil {
		s.logger.Warn("rejected GitHub token on store attempt",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, apperror.ValidationFailed("githubToken", "GitHub rejected the supplied access token")
	}

	// The store endpoint may be the user's FIRST interaction after signup,
	// so make sure the profile row exists too.
	if _, err := s.profiles.GetOrCreate(ctx, userID, repository.ProfileSeed{
		Username:  ghUser.Login,
		FullName:  ghUser.Name,
		AvatarURL: ghUser.AvatarURL,
	}); err != nil {
		return nil, fmt.Errorf("service/auth: ensuring profile for %s: %w", userID, err)
	}

	row := &model.UserToken{
		UserID:         userID,
		GitHubToken:    githubToken,
		GitHubUsername: ghUser.Login,
		AvatarURL:      ghUser.AvatarURL,
	}
	if err := s.vault.Upsert(ctx, row); err != nil {
		return nil, fmt.Errorf("service/auth: storing GitHub token for %s: %w", userID, err)
	}

	s.logger.Info("GitHub token stored",
		slog.String("userID", userID),
		slog.String("login", ghUser.Login),
	)

	return row, nil
}

// Me describes the authenticated caller: profile plus link status.
type Me struct {
	Profile        *model.Profile `json:"profile"`
	GitHubLinked   bool           `json:"githubLinked"`
	GitHubUsername string         `json:"githubUsername,omitempty"`
}

// CurrentUser returns the caller's profile and whether a GitHub token is
// on file. A missing vault row is reported as GitHubLinked=false, not an
// error — "logged in but not linked" is a normal state.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*Me, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	me := &Me{Profile: profile}

	row, err := s.vault.Get(ctx, userID)
	switch {
	case err == nil:
		me.GitHubLinked = true
		me.GitHubUsername = row.GitHubUsername
	case errors.Is(err, apperror.ErrNotLinked):
		// not linked — leave the zero values
	default:
		return nil, fmt.Errorf("service/auth: reading vault for %s: %w", userID, err)
	}

	return me, nil
}

// Promote sets a profile's role. Guarded by the admin key: the endpoint is
// disabled entirely when no ADMIN_KEY_HASH is configured.
func (s *AuthService) Promote(ctx context.Context, adminKey, userID string, role model.Role) (*model.Profile, error) {
	if !s.adminKey.Enabled() {
		return nil, apperror.Forbidden("role promotion is disabled on this server")
	}
	if err := s.adminKey.Verify(adminKey); err != nil {
		return nil, apperror.Unauthorized("invalid admin key")
	}
	if !role.Valid() {
		return nil, apperror.ValidationFailed("role", "role must be 'developer' or 'expert'")
	}

	profile, err := s.profiles.SetRole(ctx, userID, role)
	if err != nil {
		return nil, err
	}

	s.logger.Info("role changed",
		slog.String("userID", userID),
		slog.String("role", string(role)),
	)

	return profile, nil
}

// ValidateToken validates a session JWT and returns the userID it encodes.
// Thin delegation so callers only need the service package.
func (s *AuthService) ValidateToken(tokenStr string) (string, error) {
	userID, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return "", fmt.Errorf("service/auth: %w", err)
	}
	return userID, nil
}
