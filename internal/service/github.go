package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/devfolio/internal/github"
	"github.com/sakif/devfolio/internal/repository"
)

// GitHubService proxies GitHub data calls on behalf of the caller.
//
// EVERY method follows the same shape:
//  1. Read the caller's GitHub token from the vault — a missing row
//     surfaces as the NotLinked error (handlers map it to a "link your
//     GitHub account" response, never a logout)
//  2. Call the GitHub API with THAT token — the server never uses
//     credentials of its own, so rate limits and private-repo visibility
//     are always the caller's
//
// Upstream failures pass through as UpstreamError: these are interactive,
// user-triggered calls where showing GitHub's actual error beats hiding
// it behind a generic 500.
type GitHubService struct {
	vault  repository.TokenRepository
	gh     GitHubGateway
	logger *slog.Logger
}

// NewGitHubService creates a GitHubService with all required dependencies.
func NewGitHubService(vault repository.TokenRepository, gh GitHubGateway, logger *slog.Logger) *GitHubService {
	return &GitHubService{
		vault:  vault,
		gh:     gh,
		logger: logger,
	}
}

// User returns the caller's GitHub profile.
func (s *GitHubService) User(ctx context.Context, callerID string) (*github.User, error) {
	row, err := s.vault.Get(ctx, callerID)
	if err != nil {
		return nil, err
	}
	user, err := s.gh.FetchUser(ctx, row.GitHubToken)
	if err != nil {
		return nil, fmt.Errorf("service/github: fetching user profile: %w", err)
	}
	return user, nil
}

// Repos lists one page of the caller's repositories (100 per page, most
// recently updated first).
func (s *GitHubService) Repos(ctx context.Context, callerID string, page int) ([]github.Repo, error) {
	row, err := s.vault.Get(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	repos, err := s.gh.ListRepos(ctx, row.GitHubToken, page)
	if err != nil {
		return nil, fmt.Errorf("service/github: listing repositories: %w", err)
	}
	return repos, nil
}

// Repo returns one repository with its README decoded inline. The README
// fetch is best-effort: a repo without one still returns fine.
func (s *GitHubService) Repo(ctx context.Context, callerID, owner, name string) (*github.Repo, error) {
	row, err := s.vault.Get(ctx, callerID)
	if err != nil {
		return nil, err
	}
	repo, err := s.gh.GetRepoWithReadme(ctx, row.GitHubToken, owner, name)
	if err != nil {
		return nil, fmt.Errorf("service/github: fetching %s/%s: %w", owner, name, err)
	}
	return repo, nil
}

// Activity returns the caller's 10 most recent public events.
//
// The login comes from the vault row (denormalized at link time), so no
// extra /user round trip is needed.
func (s *GitHubService) Activity(ctx context.Context, callerID string) ([]github.Event, error) {
	row, err := s.vault.Get(ctx, callerID)
	if err != nil {
		return nil, err
	}
	events, err := s.gh.ListEvents(ctx, row.GitHubToken, row.GitHubUsername)
	if err != nil {
		return nil, fmt.Errorf("service/github: listing activity: %w", err)
	}
	return events, nil
}

// Contributions returns the caller's one-year contribution calendar.
func (s *GitHubService) Contributions(ctx context.Context, callerID string) (*github.ContributionCalendar, error) {
	row, err := s.vault.Get(ctx, callerID)
	if err != nil {
		return nil, err
	}
	calendar, err := s.gh.GetContributions(ctx, row.GitHubToken, row.GitHubUsername)
	if err != nil {
		return nil, fmt.Errorf("service/github: fetching contributions: %w", err)
	}
	return calendar, nil
}
