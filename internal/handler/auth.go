package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/rs/xid"
	"github.com/sakif/devfolio/internal/apperror"
	"github.com/sakif/devfolio/internal/auth"
	"github.com/sakif/devfolio/internal/model"
	"github.com/sakif/devfolio/internal/service"
)

// AuthHandler manages the GitHub OAuth flow, token storage, and the
// admin-only role promotion.
//
// HANDLER RESPONSIBILITIES:
//   - HandleLogin      → hand the client the GitHub authorization URL
//   - HandleCallback   → receive the code, complete the flow, redirect with the session token
//   - HandleStoreToken → validate + store a client-supplied GitHub token
//   - HandleMe         → return the caller's profile and link status
//   - HandlePromote    → set a profile's role (guarded by the admin key)
//
// The handler owns the HTTP concerns only — cookies, redirects, request
// parsing. Everything else is AuthService.
type AuthHandler struct {
	auth        *service.AuthService
	frontendURL string
	logger      *slog.Logger
}

// NewAuthHandler creates an AuthHandler. frontendURL is where the callback
// redirects after a successful login.
func NewAuthHandler(authSvc *service.AuthService, frontendURL string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:        authSvc,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

const stateCookieName = "oauth_state"

// HandleLogin returns the GitHub authorization URL for the client to
// navigate to.
//
// HTTP: GET /api/auth/login
//
// CSRF PROTECTION VIA STATE:
// We generate a random state string and store it in a short-lived cookie.
// When GitHub calls back, HandleCallback verifies the state matches —
// proving the flow started here, not on an attacker's page.
//
// The state cookie is:
//   - HttpOnly: JavaScript can't read it
//   - SameSite=Lax: sent on the top-level redirect back from GitHub,
//     not on cross-site POSTs
//   - 10-minute expiry: long enough to approve, short enough to limit risk
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeData(w, http.StatusOK, map[string]string{
		"url": h.auth.LoginURL(state),
	})
}

// HandleCallback completes the OAuth login flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Verify the state parameter against the cookie (CSRF check)
//  2. Let the service exchange the code, ensure the profile, store the
//     GitHub token, and issue the session JWT
//  3. Redirect to the frontend with the token in the URL FRAGMENT
//
// WHY A FRAGMENT (#access_token=...) AND NOT A QUERY PARAM?
// Fragments never leave the browser: they aren't sent to servers, don't
// land in access logs, and don't leak through Referer headers. The SPA
// reads the fragment, stores the token, and strips it from the URL.
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" {
		h.logger.Warn("auth callback: missing state cookie")
		writeError(w, apperror.ValidationFailed("state", "invalid OAuth state"))
		return
	}
	if r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		writeError(w, apperror.ValidationFailed("state", "invalid OAuth state"))
		return
	}

	// Clear the state cookie — it's single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	// GitHub reports "user clicked Deny" as an error query param.
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: authorization denied", slog.String("error", errParam))
		http.Redirect(w, r, h.frontendURL+"/?auth=denied", http.StatusSeeOther)
		return
	}

	result, err := h.auth.HandleCallback(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.logger.Error("auth callback failed", slog.String("error", err.Error()))
		http.Redirect(w, r, h.frontendURL+"/?auth=failed", http.StatusSeeOther)
		return
	}

	redirect := h.frontendURL + "/#access_token=" + url.QueryEscape(result.SessionToken)
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

// storeTokenRequest is the body of POST /api/auth/store-github-token.
type storeTokenRequest struct {
	GitHubToken string `json:"githubToken"`
}

// HandleStoreToken validates and stores a client-supplied GitHub token.
//
// HTTP: POST /api/auth/store-github-token
// Auth: bearer
//
// The token is checked against GitHub before it touches the vault — a
// rejected token returns 400 and leaves any previously stored token alone.
func (h *AuthHandler) HandleStoreToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	var req storeTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	row, err := h.auth.StoreGitHubToken(r.Context(), userID, req.GitHubToken)
	if err != nil {
		writeError(w, err)
		return
	}

	// The UserToken model hides the token itself (json:"-"); clients get
	// the linked username and avatar back, nothing secret.
	writeData(w, http.StatusOK, row)
}

// HandleMe returns the authenticated caller's profile and link status.
//
// HTTP: GET /api/auth/me
// Auth: bearer
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	me, err := h.auth.CurrentUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, me)
}

// promoteRequest is the body of POST /api/admin/promote.
type promoteRequest struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// HandlePromote sets a profile's role.
//
// HTTP: POST /api/admin/promote
// Auth: X-Admin-Key header (bcrypt-checked against ADMIN_KEY_HASH;
// the whole endpoint answers 403 when no hash is configured)
func (h *AuthHandler) HandlePromote(w http.ResponseWriter, r *http.Request) {
	var req promoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}
	if req.UserID == "" {
		writeError(w, apperror.ValidationFailed("userId", "userId is required"))
		return
	}

	profile, err := h.auth.Promote(r.Context(), r.Header.Get("X-Admin-Key"), req.UserID, model.Role(req.Role))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, profile)
}
