package service

import (
	"context"
	"io"

	"github.com/sakif/devfolio/internal/auth"
	"github.com/sakif/devfolio/internal/blob"
	"github.com/sakif/devfolio/internal/github"
)

// The service layer talks to three external systems: GitHub's OAuth
// endpoints, GitHub's data API, and the blob store. Each is consumed
// through a small interface defined HERE, on the consumer side — the Go
// convention — so tests can substitute in-memory fakes without touching
// the real packages.

// OAuthProvider is the part of auth.GitHubProvider the services use.
type OAuthProvider interface {
	// AuthURL returns the GitHub authorization URL for the given CSRF state.
	AuthURL(state string) string

	// Exchange trades an authorization code for the access token + profile.
	Exchange(ctx context.Context, code string) (*auth.LinkResult, error)

	// FetchUser returns the profile behind an access token. Used to
	// validate client-supplied tokens before they reach the vault.
	FetchUser(ctx context.Context, accessToken string) (*auth.GitHubUser, error)
}

// GitHubGateway is the part of github.Client the services use. Every call
// carries the CALLER's token from the vault — the server has no GitHub
// identity of its own.
type GitHubGateway interface {
	FetchUser(ctx context.Context, token string) (*github.User, error)
	ListRepos(ctx context.Context, token string, page int) ([]github.Repo, error)
	GetRepo(ctx context.Context, token, owner, name string) (*github.Repo, error)
	GetRepoWithReadme(ctx context.Context, token, owner, name string) (*github.Repo, error)
	ListEvents(ctx context.Context, token, login string) ([]github.Event, error)
	GetContributions(ctx context.Context, token, login string) (*github.ContributionCalendar, error)
}

// BlobStore is the part of blob.Store the attachment service uses.
type BlobStore interface {
	Save(originalName string, r io.Reader) (*blob.Ref, error)
	Delete(storedName string) error
}
