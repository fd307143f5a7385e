// Package config loads and validates application configuration from
// environment variables.
//
// FAIL-FAST CONFIGURATION:
// Every required value is checked once, at startup, before the server binds
// its port. A missing secret discovered on request #1 in production is far
// worse than a clear "missing required env var" at boot — so Load collects
// ALL problems and reports them together instead of failing one at a time.
//
// NO GLOBALS:
// Load returns an explicit Config struct that main passes down the
// dependency graph. No package-level state, no lazy init, no os.Getenv
// sprinkled through the codebase — config is read exactly once, here.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable.
type Config struct {
	Port int // HTTP port to listen on (PORT, default 8080)

	DBPath    string // path to the SQLite database file (DB_PATH)
	UploadDir string // directory for uploaded attachment blobs (UPLOAD_DIR)

	// PublicBaseURL is the externally reachable base URL of this server,
	// used to build public attachment URLs (e.g. https://folio.example.com).
	PublicBaseURL string

	JWTSecret string // HMAC secret for session tokens (JWT_SECRET, required)

	GitHubClientID     string // OAuth app client ID (GITHUB_CLIENT_ID, required)
	GitHubClientSecret string // OAuth app client secret (GITHUB_CLIENT_SECRET, required)
	GitHubCallbackURL  string // OAuth callback URL (GITHUB_CALLBACK_URL)

	// FrontendURL is where the OAuth callback redirects after a successful
	// login, with the session token in the URL fragment.
	FrontendURL string

	// AdminKeyHash is a bcrypt hash of the admin key that guards the
	// role-promotion endpoint. Empty means role promotion is disabled.
	AdminKeyHash string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present (godotenv) — real environment
// variables always win over .env entries.
//
// Returns an error naming EVERY missing or invalid variable, so the operator
// fixes them all in one pass instead of playing whack-a-mole.
func Load() (*Config, error) {
	// Best-effort: a missing .env file is fine (production sets real env vars).
	_ = godotenv.Load()

	var problems []string

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil || p <= 0 {
			problems = append(problems, fmt.Sprintf("PORT: invalid value %q", portStr))
		} else {
			port = p
		}
	}

	cfg := &Config{
		Port:               port,
		DBPath:             getenvDefault("DB_PATH", "data/portfolio.db"),
		UploadDir:          getenvDefault("UPLOAD_DIR", "data/uploads"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  os.Getenv("GITHUB_CALLBACK_URL"),
		FrontendURL:        strings.TrimRight(getenvDefault("FRONTEND_URL", "http://localhost:5173"), "/"),
		AdminKeyHash:       os.Getenv("ADMIN_KEY_HASH"),
	}

	cfg.PublicBaseURL = getenvDefault("PUBLIC_BASE_URL",
		fmt.Sprintf("http://localhost:%d", port))
	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", port)
	}

	// Required values. The server cannot serve traffic without these —
	// unsigned sessions or a dead OAuth flow would just fail later, worse.
	if cfg.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET: required")
	} else if len(cfg.JWTSecret) < 16 {
		problems = append(problems, "JWT_SECRET: must be at least 16 characters")
	}
	if cfg.GitHubClientID == "" {
		problems = append(problems, "GITHUB_CLIENT_ID: required")
	}
	if cfg.GitHubClientSecret == "" {
		problems = append(problems, "GITHUB_CLIENT_SECRET: required")
	}

	if len(problems) > 0 {
		return nil, errors.New("config: " + strings.Join(problems, "; "))
	}

	return cfg, nil
}

// getenvDefault returns the env var value, or def if unset/empty.
func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
