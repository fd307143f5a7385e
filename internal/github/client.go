// Package github is a thin client for the GitHub REST and GraphQL APIs.
//
// DESIGN:
// Every call takes the CALLER's access token (from the vault) — the client
// itself is stateless and shared across all users. Calls are interactive
// and user-triggered, so there is no retry or backoff: a non-2xx response
// is surfaced as an *apperror.UpstreamError carrying the upstream status
// and body text, and the user sees it.
//
// The base URLs are injectable so tests point the client at an httptest
// server instead of api.github.com.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sakif/devfolio/internal/apperror"
)

const (
	defaultBaseURL    = "https://api.github.com"
	defaultGraphQLURL = "https://api.github.com/graphql"

	// apiVersion pins the REST API version so a GitHub-side default bump
	// can't change response shapes under us.
	// https://docs.github.com/en/rest/about-the-rest-api/api-versions
	apiVersion = "2022-11-28"

	// reposPerPage is GitHub's maximum page size for /user/repos.
	reposPerPage = 100

	// eventsSurfaced is how many recent public events we return to callers.
	eventsSurfaced = 10
)

// Client calls the GitHub API on behalf of a user.
type Client struct {
	baseURL    string
	graphqlURL string
	httpClient *http.Client
}

// New creates a Client against the public GitHub API.
func New() *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		graphqlURL: defaultGraphQLURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// NewWithBaseURL creates a Client against a custom API root — used by tests
// to point at an httptest server. graphqlURL falls back to baseURL+"/graphql".
func NewWithBaseURL(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		graphqlURL: baseURL + "/graphql",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// User is the authenticated user's GitHub profile.
type User struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
	Bio       string `json:"bio"`
	Company   string `json:"company"`
	Location  string `json:"location"`
	Followers int    `json:"followers"`
	Following int    `json:"following"`
	PublicRepos int  `json:"public_repos"`
}

// Repo is one repository as returned by the REST API. Only the fields the
// portfolio needs are unmarshalled.
type Repo struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"`
	Description string    `json:"description"`
	Language    string    `json:"language"`
	Stars       int       `json:"stargazers_count"`
	Forks       int       `json:"forks_count"`
	HTMLURL     string    `json:"html_url"`
	Private     bool      `json:"private"`
	Fork        bool      `json:"fork"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Readme is NOT part of the REST response — it's filled in by
	// RepoWithReadme when the caller asks for a single repository.
	Readme string `json:"readme,omitempty"`
}

// Event is one entry of a user's public activity feed.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Repo      EventRepo `json:"repo"`
	CreatedAt time.Time `json:"created_at"`
}

// EventRepo is the repository reference inside an event.
type EventRepo struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ContributionDay is one (date, count) pair of the contribution calendar.
type ContributionDay struct {
	Date  string `json:"date"` // "2026-08-30"
	Count int    `json:"count"`
}

// ContributionCalendar is the flattened one-year contribution calendar.
type ContributionCalendar struct {
	Total int               `json:"total"`
	Days  []ContributionDay `json:"days"`
}

// FetchUser returns the profile behind the given access token.
func (c *Client) FetchUser(ctx context.Context, token string) (*User, error) {
	var u User
	if err := c.getJSON(ctx, token, "/user", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListRepos lists the authenticated user's repositories, newest-updated
// first, one server-side page (100 repos) per call. page is 1-based.
func (c *Client) ListRepos(ctx context.Context, token string, page int) ([]Repo, error) {
	if page < 1 {
		page = 1
	}
	path := fmt.Sprintf("/user/repos?per_page=%d&sort=updated&page=%d", reposPerPage, page)

	var repos []Repo
	if err := c.getJSON(ctx, token, path, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// GetRepo fetches a single repository by owner and name.
func (c *Client) GetRepo(ctx context.Context, token, owner, name string) (*Repo, error) {
	var repo Repo
	if err := c.getJSON(ctx, token, fmt.Sprintf("/repos/%s/%s", owner, name), &repo); err != nil {
		return nil, err
	}
	return &repo, nil
}

// GetRepoWithReadme fetches a repository and, best-effort, its README text.
//
// README FAILURE IS NOT AN ERROR:
// Plenty of repos have no README, and the readme endpoint 404s for them.
// The repo lookup must still succeed — the caller gets the repo with an
// empty Readme and no error.
func (c *Client) GetRepoWithReadme(ctx context.Context, token, owner, name string) (*Repo, error) {
	repo, err := c.GetRepo(ctx, token, owner, name)
	if err != nil {
		return nil, err
	}

	readme, err := c.getRaw(ctx, token, fmt.Sprintf("/repos/%s/%s/readme", owner, name),
		"application/vnd.github.raw+json")
	if err == nil {
		repo.Readme = string(readme)
	}
	return repo, nil
}

// ListEvents returns the user's most recent public events, capped at 10.
func (c *Client) ListEvents(ctx context.Context, token, login string) ([]Event, error) {
	var events []Event
	path := fmt.Sprintf("/users/%s/events/public?per_page=%d", login, eventsSurfaced)
	if err := c.getJSON(ctx, token, path, &events); err != nil {
		return nil, err
	}
	// GitHub usually honors per_page, but cap defensively anyway so the
	// contract ("most recent 10") holds regardless.
	if len(events) > eventsSurfaced {
		events = events[:eventsSurfaced]
	}
	return events, nil
}

// contributionsQuery fetches the one-year contribution calendar. GitHub only
// exposes the calendar through GraphQL — there is no REST equivalent.
const contributionsQuery = `query($login: String!) {
  user(login: $login) {
    contributionsCollection {
      contributionCalendar {
        totalContributions
        weeks {
          contributionDays {
            date
            contributionCount
          }
        }
      }
    }
  }
}`

// contributionsResponse mirrors the week/day nesting GraphQL returns.
// It exists only for unmarshalling; callers get the flat calendar.
type contributionsResponse struct {
	Data struct {
		User struct {
			ContributionsCollection struct {
				ContributionCalendar struct {
					TotalContributions int `json:"totalContributions"`
					Weeks              []struct {
						ContributionDays []struct {
							Date              string `json:"date"`
							ContributionCount int    `json:"contributionCount"`
						} `json:"contributionDays"`
					} `json:"weeks"`
				} `json:"contributionCalendar"`
			} `json:"contributionsCollection"`
		} `json:"user"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// GetContributions returns the user's one-year contribution calendar,
// flattened from GraphQL's week/day nesting into a single ordered sequence
// of (date, count) pairs — week order first, then day order within the week,
// exactly as GitHub returns them.
func (c *Client) GetContributions(ctx context.Context, token, login string) (*ContributionCalendar, error) {
	body, err := json.Marshal(map[string]any{
		"query":     contributionsQuery,
		"variables": map[string]string{"login": login},
	})
	if err != nil {
		return nil, fmt.Errorf("github: marshalling GraphQL request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("github: building GraphQL request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github: calling GraphQL API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, upstreamError(resp)
	}

	var gql contributionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&gql); err != nil {
		return nil, fmt.Errorf("github: decoding GraphQL response: %w", err)
	}

	// GraphQL reports errors in-band with a 200 status.
	if len(gql.Errors) > 0 {
		return nil, &apperror.UpstreamError{
			StatusCode: http.StatusBadGateway,
			Body:       gql.Errors[0].Message,
		}
	}

	cal := gql.Data.User.ContributionsCollection.ContributionCalendar
	out := &ContributionCalendar{
		Total: cal.TotalContributions,
		Days:  make([]ContributionDay, 0, len(cal.Weeks)*7),
	}
	for _, week := range cal.Weeks {
		for _, day := range week.ContributionDays {
			out.Days = append(out.Days, ContributionDay{
				Date:  day.Date,
				Count: day.ContributionCount,
			})
		}
	}

	return out, nil
}

// getJSON performs an authenticated GET against the REST API and decodes
// the JSON response into v.
func (c *Client) getJSON(ctx context.Context, token, path string, v any) error {
	data, err := c.getRaw(ctx, token, path, "application/vnd.github+json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("github: decoding %s response: %w", path, err)
	}
	return nil
}

// getRaw performs an authenticated GET and returns the raw body.
// Non-2xx responses become *apperror.UpstreamError.
func (c *Client) getRaw(ctx context.Context, token, path, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("github: building request for %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", accept)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github: calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, upstreamError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("github: reading %s response: %w", path, err)
	}
	return data, nil
}

// upstreamError reads the response body (truncated) into an UpstreamError.
func upstreamError(resp *http.Response) error {
	// Cap the body — GitHub error bodies are small, but don't trust that.
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &apperror.UpstreamError{
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
}
