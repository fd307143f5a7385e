package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/devfolio/internal/apperror"
	"github.com/sakif/devfolio/internal/model"
)

// newProjectTestService wires a ProjectService against in-memory fakes and
// returns the fakes so tests can inspect and pre-seed them.
func newProjectTestService(t *testing.T) (*ProjectService, *mockProjectRepo, *mockProfileRepo, *mockTokenRepo, *mockGitHub) {
	t.Helper()
	projects := newMockProjectRepo()
	profiles := newMockProfileRepo()
	vault := newMockTokenRepo()
	gh := newMockGitHub()
	svc := NewProjectService(projects, profiles, vault, gh, testLogger())
	return svc, projects, profiles, vault, gh
}

// =========================================================================
// IMPORT TESTS
// =========================================================================

func TestImport_Success(t *testing.T) {
	svc, _, _, vault, gh := newProjectTestService(t)
	linkUser(vault, "user-a", "gho_token", "alice")
	gh.repos["alice/widget"] = ghRepo(42, "alice/widget", 7)

	project, err := svc.Import(context.Background(), "user-a", "alice/widget")
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if project.ID == "" {
		t.Error("expected imported project to have an ID")
	}
	if project.GitHubRepoID != 42 {
		t.Errorf("GitHubRepoID = %d, want 42", project.GitHubRepoID)
	}
	if project.UserID != "user-a" {
		t.Errorf("UserID = %q, want %q", project.UserID, "user-a")
	}
	if project.Status != model.StatusDraft {
		t.Errorf("Status = %q, want draft", project.Status)
	}
	// The import must use the CALLER's token, not anything server-side.
	if gh.lastToken != "gho_token" {
		t.Errorf("GitHub call used token %q, want the caller's vault token", gh.lastToken)
	}
}

// TestImport_MalformedNameFailsBeforeGitHub pins the ordering guarantee:
// a bad "owner/repo" string is rejected before the vault read and before
// any GitHub call happens.
func TestImport_MalformedNameFailsBeforeGitHub(t *testing.T) {
	svc, _, _, _, gh := newProjectTestService(t)
	// Deliberately NO vault row: if validation ran after the vault read,
	// we'd see ErrNotLinked instead of ErrValidation.

	bad := []string{
		"",
		"noslash",
		"too/many/parts",
		"owner/",
		"/repo",
		"owner/re po",
		"../../etc/passwd",
		"owner/repo?page=2",
	}
	for _, name := range bad {
		_, err := svc.Import(context.Background(), "user-a", name)
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("Import(%q) error = %v, want ErrValidation", name, err)
		}
	}

	if gh.getRepoCalls != 0 {
		t.Errorf("GitHub was called %d times for malformed names, want 0", gh.getRepoCalls)
	}
}

func TestImport_NotLinked(t *testing.T) {
	svc, _, _, _, gh := newProjectTestService(t)
	gh.repos["alice/widget"] = ghRepo(42, "alice/widget", 7)

	_, err := svc.Import(context.Background(), "user-a", "alice/widget")
	if !errors.Is(err, apperror.ErrNotLinked) {
		t.Fatalf("Import() error = %v, want ErrNotLinked", err)
	}
	if gh.getRepoCalls != 0 {
		t.Error("GitHub should not be called when the caller has no token")
	}
}

func TestImport_UpstreamNotFoundPassesThrough(t *testing.T) {
	svc, _, _, vault, _ := newProjectTestService(t)
	linkUser(vault, "user-a", "gho_token", "alice")

	_, err := svc.Import(context.Background(), "user-a", "alice/ghost")
	if err == nil {
		t.Fatal("Import() should fail for a repo GitHub doesn't know")
	}
	var upstream *apperror.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("error = %v, want UpstreamError", err)
	}
	if upstream.StatusCode != 404 {
		t.Errorf("StatusCode = %d, want 404", upstream.StatusCode)
	}
}

// TestImport_Idempotent verifies that importing the same repository twice
// refreshes the snapshot without duplicating the row or losing edits.
func TestImport_Idempotent(t *testing.T) {
	svc, projects, _, vault, gh := newProjectTestService(t)
	linkUser(vault, "user-a", "gho_token", "alice")
	gh.repos["alice/widget"] = ghRepo(42, "alice/widget", 7)

	first, err := svc.Import(context.Background(), "user-a", "alice/widget")
	if err != nil {
		t.Fatalf("first Import() error = %v", err)
	}

	// The developer edits their notes, then the repo gains stars upstream.
	notes := "my best work"
	if _, err := svc.Patch(context.Background(), "user-a", first.ID, ProjectPatch{Notes: &notes}); err != nil {
		t.Fatalf("Patch() error = %v", err)
	}
	gh.repos["alice/widget"].Stars = 120

	second, err := svc.Import(context.Background(), "user-a", "alice/widget")
	if err != nil {
		t.Fatalf("second Import() error = %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("re-import created a new row: ID %q != %q", second.ID, first.ID)
	}
	if len(projects.projects) != 1 {
		t.Errorf("project count = %d after re-import, want 1", len(projects.projects))
	}
	if second.Stars != 120 {
		t.Errorf("Stars = %d, want refreshed 120", second.Stars)
	}
	if second.Notes != "my best work" {
		t.Errorf("Notes = %q, re-import must not clobber user edits", second.Notes)
	}
}

// =========================================================================
// GET TESTS (access policy)
// =========================================================================

func importFixture(t *testing.T, svc *ProjectService, vault *mockTokenRepo, gh *mockGitHub, userID string) *model.Project {
	t.Helper()
	linkUser(vault, userID, "gho_"+userID, userID)
	gh.repos[userID+"/app"] = ghRepo(int64(len(gh.repos)+1), userID+"/app", 1)
	project, err := svc.Import(context.Background(), userID, userID+"/app")
	if err != nil {
		t.Fatalf("setup: Import() error = %v", err)
	}
	return project
}

func TestGet_OwnerAllowed(t *testing.T) {
	svc, _, _, vault, gh := newProjectTestService(t)
	project := importFixture(t, svc, vault, gh, "user-a")

	got, err := svc.Get(context.Background(), "user-a", project.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != project.ID {
		t.Errorf("ID = %q, want %q", got.ID, project.ID)
	}
}

func TestGet_ExpertAllowed(t *testing.T) {
	svc, _, profiles, vault, gh := newProjectTestService(t)
	project := importFixture(t, svc, vault, gh, "user-a")
	profiles.seed("reviewer", model.RoleExpert)

	if _, err := svc.Get(context.Background(), "reviewer", project.ID); err != nil {
		t.Fatalf("expert Get() error = %v", err)
	}
}

func TestGet_StrangerForbidden(t *testing.T) {
	svc, _, profiles, vault, gh := newProjectTestService(t)
	project := importFixture(t, svc, vault, gh, "user-a")
	profiles.seed("user-b", model.RoleDeveloper)

	_, err := svc.Get(context.Background(), "user-b", project.ID)
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("Get() error = %v, want ErrForbidden", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc, _, _, _, _ := newProjectTestService(t)

	_, err := svc.Get(context.Background(), "user-a", "no-such-project")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// PATCH TESTS
// =========================================================================

func TestPatch_PartialUpdate(t *testing.T) {
	svc, _, _, vault, gh := newProjectTestService(t)
	project := importFixture(t, svc, vault, gh, "user-a")

	status := "in_review"
	updated, err := svc.Patch(context.Background(), "user-a", project.ID, ProjectPatch{Status: &status})
	if err != nil {
		t.Fatalf("Patch() error = %v", err)
	}

	if updated.Status != model.StatusInReview {
		t.Errorf("Status = %q, want in_review", updated.Status)
	}
	// Fields not in the patch stay put.
	if updated.Notes != project.Notes {
		t.Errorf("Notes changed by a status-only patch: %q", updated.Notes)
	}
}

func TestPatch_InvalidStatus(t *testing.T) {
	svc, _, _, vault, gh := newProjectTestService(t)
	project := importFixture(t, svc, vault, gh, "user-a")

	status := "archived"
	_, err := svc.Patch(context.Background(), "user-a", project.ID, ProjectPatch{Status: &status})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Patch() error = %v, want ErrValidation", err)
	}
}

func TestPatch_ExpertCanAnnotate(t *testing.T) {
	svc, _, profiles, vault, gh := newProjectTestService(t)
	project := importFixture(t, svc, vault, gh, "user-a")
	profiles.seed("reviewer", model.RoleExpert)

	notes := "solid error handling throughout"
	updated, err := svc.Patch(context.Background(), "reviewer", project.ID, ProjectPatch{Notes: &notes})
	if err != nil {
		t.Fatalf("expert Patch() error = %v", err)
	}
	if updated.Notes != notes {
		t.Errorf("Notes = %q, want the expert's annotation", updated.Notes)
	}
}

func TestPatch_StrangerForbidden(t *testing.T) {
	svc, _, profiles, vault, gh := newProjectTestService(t)
	project := importFixture(t, svc, vault, gh, "user-a")
	profiles.seed("user-b", model.RoleDeveloper)

	notes := "drive-by edit"
	_, err := svc.Patch(context.Background(), "user-b", project.ID, ProjectPatch{Notes: &notes})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("Patch() error = %v, want ErrForbidden", err)
	}
}

func TestPatch_EmptyTagRejected(t *testing.T) {
	svc, _, _, vault, gh := newProjectTestService(t)
	project := importFixture(t, svc, vault, gh, "user-a")

	tags := []string{"go", "   "}
	_, err := svc.Patch(context.Background(), "user-a", project.ID, ProjectPatch{Tags: &tags})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Patch() error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestList_OnlyOwnProjects(t *testing.T) {
	svc, _, _, vault, gh := newProjectTestService(t)
	importFixture(t, svc, vault, gh, "user-a")
	importFixture(t, svc, vault, gh, "user-b")

	mine, err := svc.List(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(mine) != 1 {
		t.Fatalf("List() returned %d projects, want 1", len(mine))
	}
	if mine[0].UserID != "user-a" {
		t.Errorf("UserID = %q, want user-a", mine[0].UserID)
	}
}

// TestListGrouped_NoRoleRequired pins the deliberate policy choice: the
// grouped review view is available to ANY authenticated caller, including
// plain developers — there is no expert gate on reads of the listing.
func TestListGrouped_NoRoleRequired(t *testing.T) {
	svc, _, _, vault, gh := newProjectTestService(t)
	importFixture(t, svc, vault, gh, "user-a")
	importFixture(t, svc, vault, gh, "user-b")

	groups, err := svc.ListGrouped(context.Background())
	if err != nil {
		t.Fatalf("ListGrouped() error = %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("ListGrouped() returned %d groups, want 2", len(groups))
	}
	// Stable order: sorted by owner ID.
	if groups[0].Owner.ID != "user-a" || groups[1].Owner.ID != "user-b" {
		t.Errorf("group order = %q, %q; want user-a, user-b", groups[0].Owner.ID, groups[1].Owner.ID)
	}
	for _, g := range groups {
		if len(g.Projects) != 1 {
			t.Errorf("group %s has %d projects, want 1", g.Owner.ID, len(g.Projects))
		}
	}
}
