package service

// =========================================================================
// SHARED IN-MEMORY FAKES
// =========================================================================
//
// WHAT IS A MOCK?
// A fake implementation of an interface used in tests. Instead of talking
// to sqlite, GitHub, or the disk, these store data in plain maps.
//
// WHY MOCK?
// 1. SPEED: no database files, no network, tests run in microseconds
// 2. ISOLATION: only the service logic under test can fail
// 3. CONTROL: error injection (set failCreate / reject the token) lets us
//    exercise paths that are hard to trigger against real dependencies —
//    like "the metadata insert failed after the blob was written"
//
// Call counters (getRepoCalls, fetchUserCalls) let tests assert NEGATIVES:
// e.g. a malformed repo name must fail BEFORE any GitHub call happens.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/devfolio/internal/apperror"
	"github.com/sakif/devfolio/internal/auth"
	"github.com/sakif/devfolio/internal/blob"
	"github.com/sakif/devfolio/internal/github"
	"github.com/sakif/devfolio/internal/model"
	"github.com/sakif/devfolio/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- profiles ---

type mockProfileRepo struct {
	profiles map[string]*model.Profile
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{profiles: make(map[string]*model.Profile)}
}

func (m *mockProfileRepo) GetOrCreate(_ context.Context, id string, seed repository.ProfileSeed) (*model.Profile, error) {
	if p, ok := m.profiles[id]; ok {
		cp := *p
		return &cp, nil
	}
	p := &model.Profile{
		ID:        id,
		Username:  seed.Username,
		FullName:  seed.FullName,
		AvatarURL: seed.AvatarURL,
		Role:      model.RoleDeveloper,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.profiles[id] = p
	cp := *p
	return &cp, nil
}

func (m *mockProfileRepo) Get(_ context.Context, id string) (*model.Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return nil, apperror.NotFound("profile", id)
	}
	cp := *p
	return &cp, nil
}

func (m *mockProfileRepo) SetRole(_ context.Context, id string, role model.Role) (*model.Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return nil, apperror.NotFound("profile", id)
	}
	p.Role = role
	cp := *p
	return &cp, nil
}

// seed force-creates a profile with the given role.
func (m *mockProfileRepo) seed(id string, role model.Role) {
	m.profiles[id] = &model.Profile{ID: id, Role: role}
}

// --- token vault ---

type mockTokenRepo struct {
	rows map[string]*model.UserToken
}

func newMockTokenRepo() *mockTokenRepo {
	return &mockTokenRepo{rows: make(map[string]*model.UserToken)}
}

func (m *mockTokenRepo) Get(_ context.Context, userID string) (*model.UserToken, error) {
	row, ok := m.rows[userID]
	if !ok {
		return nil, apperror.NotLinked()
	}
	cp := *row
	return &cp, nil
}

func (m *mockTokenRepo) Upsert(_ context.Context, token *model.UserToken) error {
	cp := *token
	cp.UpdatedAt = time.Now()
	m.rows[token.UserID] = &cp
	return nil
}

// --- projects ---

type mockProjectRepo struct {
	projects map[string]*model.Project // keyed by internal ID
	nextID   int
}

func newMockProjectRepo() *mockProjectRepo {
	return &mockProjectRepo{projects: make(map[string]*model.Project)}
}

func (m *mockProjectRepo) Upsert(_ context.Context, project *model.Project) error {
	// Mirror the real store: keyed by github_repo_id, snapshot refresh on
	// conflict, editable fields preserved.
	for _, existing := range m.projects {
		if existing.GitHubRepoID == project.GitHubRepoID {
			existing.Name = project.Name
			existing.FullName = project.FullName
			existing.Description = project.Description
			existing.Language = project.Language
			existing.Stars = project.Stars
			existing.Forks = project.Forks
			existing.HTMLURL = project.HTMLURL
			existing.GitHubCreatedAt = project.GitHubCreatedAt
			existing.GitHubUpdatedAt = project.GitHubUpdatedAt
			existing.UpdatedAt = time.Now()
			*project = *existing
			return nil
		}
	}
	m.nextID++
	project.ID = fmt.Sprintf("proj-%d", m.nextID)
	if project.Status == "" {
		project.Status = model.StatusDraft
	}
	project.CreatedAt = time.Now()
	project.UpdatedAt = project.CreatedAt
	cp := *project
	m.projects[project.ID] = &cp
	return nil
}

func (m *mockProjectRepo) Get(_ context.Context, id string) (*model.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, apperror.NotFound("project", id)
	}
	cp := *p
	return &cp, nil
}

func (m *mockProjectRepo) Update(_ context.Context, project *model.Project) error {
	existing, ok := m.projects[project.ID]
	if !ok {
		return apperror.NotFound("project", project.ID)
	}
	existing.Notes = project.Notes
	existing.Tags = project.Tags
	existing.Status = project.Status
	existing.UpdatedAt = time.Now()
	return nil
}

func (m *mockProjectRepo) ListByUser(_ context.Context, userID string) ([]model.Project, error) {
	var out []model.Project
	for _, p := range m.projects {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockProjectRepo) ListAll(_ context.Context) ([]model.Project, error) {
	var out []model.Project
	for _, p := range m.projects {
		out = append(out, *p)
	}
	return out, nil
}

// --- documentation ---

type mockDocRepo struct {
	docs map[string]*model.Documentation
}

func newMockDocRepo() *mockDocRepo {
	return &mockDocRepo{docs: make(map[string]*model.Documentation)}
}

func (m *mockDocRepo) Get(_ context.Context, projectID string) (*model.Documentation, error) {
	doc, ok := m.docs[projectID]
	if !ok {
		return nil, nil // absence is valid, same contract as the real store
	}
	cp := *doc
	return &cp, nil
}

func (m *mockDocRepo) Upsert(_ context.Context, doc *model.Documentation) error {
	cp := *doc
	cp.UpdatedAt = time.Now()
	m.docs[doc.ProjectID] = &cp
	return nil
}

// --- attachments ---

type mockAttachmentRepo struct {
	attachments []model.Attachment
	nextID      int
	failCreate  bool // error injection for the compensating-cleanup test
}

func newMockAttachmentRepo() *mockAttachmentRepo {
	return &mockAttachmentRepo{}
}

func (m *mockAttachmentRepo) Create(_ context.Context, att *model.Attachment) error {
	if m.failCreate {
		return errors.New("mock: insert failed")
	}
	m.nextID++
	att.ID = fmt.Sprintf("att-%d", m.nextID)
	att.CreatedAt = time.Now()
	m.attachments = append(m.attachments, *att)
	return nil
}

func (m *mockAttachmentRepo) ListByProject(_ context.Context, projectID string) ([]model.Attachment, error) {
	var out []model.Attachment
	for _, a := range m.attachments {
		if a.ProjectID == projectID {
			out = append(out, a)
		}
	}
	return out, nil
}

// --- OAuth provider ---

type mockOAuthProvider struct {
	user           *auth.GitHubUser // returned by Exchange and FetchUser
	accessToken    string           // returned by Exchange
	rejectTokens   bool             // FetchUser fails for any token
	fetchUserCalls int
}

func (m *mockOAuthProvider) AuthURL(state string) string {
	return "https://github.test/authorize?state=" + state
}

func (m *mockOAuthProvider) Exchange(_ context.Context, code string) (*auth.LinkResult, error) {
	if code == "bad-code" {
		return nil, errors.New("mock: invalid code")
	}
	return &auth.LinkResult{User: m.user, AccessToken: m.accessToken}, nil
}

func (m *mockOAuthProvider) FetchUser(_ context.Context, _ string) (*auth.GitHubUser, error) {
	m.fetchUserCalls++
	if m.rejectTokens {
		return nil, errors.New("mock: GitHub said 401")
	}
	return m.user, nil
}

// --- GitHub gateway ---

type mockGitHub struct {
	repos        map[string]*github.Repo // keyed by "owner/name"
	user         *github.User
	events       []github.Event
	calendar     *github.ContributionCalendar
	getRepoCalls int
	lastToken    string // records the token each call carried
}

func newMockGitHub() *mockGitHub {
	return &mockGitHub{repos: make(map[string]*github.Repo)}
}

func (m *mockGitHub) FetchUser(_ context.Context, token string) (*github.User, error) {
	m.lastToken = token
	if m.user == nil {
		return nil, &apperror.UpstreamError{StatusCode: 401, Body: "bad credentials"}
	}
	return m.user, nil
}

func (m *mockGitHub) ListRepos(_ context.Context, token string, _ int) ([]github.Repo, error) {
	m.lastToken = token
	var out []github.Repo
	for _, r := range m.repos {
		out = append(out, *r)
	}
	return out, nil
}

func (m *mockGitHub) GetRepo(_ context.Context, token, owner, name string) (*github.Repo, error) {
	m.getRepoCalls++
	m.lastToken = token
	repo, ok := m.repos[owner+"/"+name]
	if !ok {
		return nil, &apperror.UpstreamError{StatusCode: 404, Body: "Not Found"}
	}
	cp := *repo
	return &cp, nil
}

func (m *mockGitHub) GetRepoWithReadme(ctx context.Context, token, owner, name string) (*github.Repo, error) {
	repo, err := m.GetRepo(ctx, token, owner, name)
	if err != nil {
		return nil, err
	}
	repo.Readme = "# " + repo.Name
	return repo, nil
}

func (m *mockGitHub) ListEvents(_ context.Context, token, _ string) ([]github.Event, error) {
	m.lastToken = token
	return m.events, nil
}

func (m *mockGitHub) GetContributions(_ context.Context, token, _ string) (*github.ContributionCalendar, error) {
	m.lastToken = token
	if m.calendar == nil {
		return nil, &apperror.UpstreamError{StatusCode: 502, Body: "graphql error"}
	}
	return m.calendar, nil
}

// --- blob store ---

type mockBlobStore struct {
	saved   map[string]string // storedName → content
	deletes []string
	nextID  int
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{saved: make(map[string]string)}
}

func (m *mockBlobStore) Save(originalName string, r io.Reader) (*blob.Ref, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.nextID++
	stored := fmt.Sprintf("blob-%d_%s", m.nextID, originalName)
	m.saved[stored] = string(data)
	return &blob.Ref{
		StoredName: stored,
		URL:        "http://test/files/" + stored,
		Size:       int64(len(data)),
	}, nil
}

func (m *mockBlobStore) Delete(storedName string) error {
	m.deletes = append(m.deletes, storedName)
	if _, ok := m.saved[storedName]; !ok {
		return fmt.Errorf("mock: no blob %s", storedName)
	}
	delete(m.saved, storedName)
	return nil
}

// linkUser is a cross-test helper: seeds a vault row so the caller counts
// as "GitHub linked".
func linkUser(vault *mockTokenRepo, userID, token, login string) {
	vault.rows[userID] = &model.UserToken{
		UserID:         userID,
		GitHubToken:    token,
		GitHubUsername: login,
	}
}

// ghRepo builds a github.Repo fixture for import tests.
func ghRepo(id int64, fullName string, stars int) *github.Repo {
	name := fullName[strings.Index(fullName, "/")+1:]
	return &github.Repo{
		ID:          id,
		Name:        name,
		FullName:    fullName,
		Description: "a test repo",
		Language:    "Go",
		Stars:       stars,
		Forks:       3,
		HTMLURL:     "https://github.test/" + fullName,
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}
