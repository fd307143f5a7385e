package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sakif/devfolio/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient spins up a fake GitHub API and returns a Client pointed at it.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewWithBaseURL(srv.URL)
}

func TestFetchUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user", r.URL.Path)
		assert.Equal(t, "Bearer gho_testtoken", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("X-GitHub-Api-Version"))

		fmt.Fprint(w, `{"id":583231,"login":"octocat","name":"The Octocat","avatar_url":"https://a.example/1.png","followers":4000}`)
	})

	u, err := c.FetchUser(context.Background(), "gho_testtoken")
	require.NoError(t, err)
	assert.Equal(t, int64(583231), u.ID)
	assert.Equal(t, "octocat", u.Login)
	assert.Equal(t, 4000, u.Followers)
}

func TestListRepos_PageParams(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/repos", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "100", q.Get("per_page"))
		assert.Equal(t, "updated", q.Get("sort"))
		assert.Equal(t, "2", q.Get("page"))

		fmt.Fprint(w, `[{"id":1,"name":"one","full_name":"octocat/one"},{"id":2,"name":"two","full_name":"octocat/two"}]`)
	})

	repos, err := c.ListRepos(context.Background(), "tok", 2)
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "octocat/one", repos[0].FullName)
}

func TestGetRepo(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octocat/Hello-World", r.URL.Path)
		fmt.Fprint(w, `{"id":1296269,"name":"Hello-World","full_name":"octocat/Hello-World","stargazers_count":80,"forks_count":9,"language":"Go"}`)
	})

	repo, err := c.GetRepo(context.Background(), "tok", "octocat", "Hello-World")
	require.NoError(t, err)
	assert.Equal(t, int64(1296269), repo.ID)
	assert.Equal(t, 80, repo.Stars)
	assert.Equal(t, 9, repo.Forks)
}

func TestGetRepoWithReadme_ReadmeFailureDegrades(t *testing.T) {
	// The readme endpoint 404s — the repo fetch must still succeed with
	// an empty Readme, not error out.
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/octocat/bare":
			fmt.Fprint(w, `{"id":42,"name":"bare","full_name":"octocat/bare"}`)
		case "/repos/octocat/bare/readme":
			http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	repo, err := c.GetRepoWithReadme(context.Background(), "tok", "octocat", "bare")
	require.NoError(t, err)
	assert.Equal(t, int64(42), repo.ID)
	assert.Empty(t, repo.Readme)
}

func TestListEvents_CappedAtTen(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/octocat/events/public", r.URL.Path)

		// Return 15 events — more than the contract surfaces.
		events := make([]map[string]any, 15)
		for i := range events {
			events[i] = map[string]any{
				"id":   fmt.Sprintf("ev-%d", i),
				"type": "PushEvent",
				"repo": map[string]string{"name": "octocat/Hello-World"},
			}
		}
		_ = json.NewEncoder(w).Encode(events)
	})

	events, err := c.ListEvents(context.Background(), "tok", "octocat")
	require.NoError(t, err)
	assert.Len(t, events, 10)
	assert.Equal(t, "ev-0", events[0].ID) // most recent first, order preserved
}

func TestGetContributions_Flattening(t *testing.T) {
	// 3 weeks × 7 days. The flattened sequence must have exactly 21
	// entries in week-then-day order with the original dates and counts.
	const weeks = 3
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/graphql", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req struct {
			Query     string            `json:"query"`
			Variables map[string]string `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "octocat", req.Variables["login"])

		type day struct {
			Date  string `json:"date"`
			Count int    `json:"contributionCount"`
		}
		var wk []map[string][]day
		n := 0
		for i := 0; i < weeks; i++ {
			var days []day
			for j := 0; j < 7; j++ {
				days = append(days, day{
					Date:  fmt.Sprintf("2026-01-%02d", n+1),
					Count: n,
				})
				n++
			}
			wk = append(wk, map[string][]day{"contributionDays": days})
		}
		resp := map[string]any{
			"data": map[string]any{
				"user": map[string]any{
					"contributionsCollection": map[string]any{
						"contributionCalendar": map[string]any{
							"totalContributions": 210,
							"weeks":              wk,
						},
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	cal, err := c.GetContributions(context.Background(), "tok", "octocat")
	require.NoError(t, err)
	assert.Equal(t, 210, cal.Total)
	require.Len(t, cal.Days, weeks*7)
	for i, d := range cal.Days {
		assert.Equal(t, fmt.Sprintf("2026-01-%02d", i+1), d.Date)
		assert.Equal(t, i, d.Count)
	}
}

func TestGetContributions_GraphQLError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// GraphQL reports errors in-band with HTTP 200.
		fmt.Fprint(w, `{"errors":[{"message":"Could not resolve to a User with the login of 'ghost'."}]}`)
	})

	_, err := c.GetContributions(context.Background(), "tok", "ghost")
	var upstream *apperror.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Contains(t, upstream.Body, "Could not resolve")
}

func TestNon2xxBecomesUpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Bad credentials"}`, http.StatusUnauthorized)
	})

	_, err := c.FetchUser(context.Background(), "bad-token")
	require.Error(t, err)

	var upstream *apperror.UpstreamError
	require.True(t, errors.As(err, &upstream), "want *apperror.UpstreamError, got %T", err)
	assert.Equal(t, http.StatusUnauthorized, upstream.StatusCode)
	assert.Contains(t, upstream.Body, "Bad credentials")
}
