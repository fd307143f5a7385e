package sqlite

import (
	"context"
	"testing"

	"github.com/sakif/devfolio/internal/model"
	"github.com/sakif/devfolio/internal/repository"
)

// newTestDB creates an in-memory database with migrations applied.
// ":memory:" gives every test a fresh, isolated DB that vanishes on close —
// no files to clean up, no cross-test interference.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestProfile ensures a profile row exists for the given ID.
func createTestProfile(t *testing.T, db *DB, id string) *model.Profile {
	t.Helper()
	p, err := db.Profiles().GetOrCreate(context.Background(), id, repository.ProfileSeed{
		Username:  id + "-login",
		AvatarURL: "https://avatars.example/" + id + ".png",
	})
	if err != nil {
		t.Fatalf("failed to create test profile: %v", err)
	}
	return p
}

// importTestProject upserts a minimal project snapshot owned by userID.
func importTestProject(t *testing.T, db *DB, userID string, repoID int64, fullName string) *model.Project {
	t.Helper()
	p := &model.Project{
		UserID:       userID,
		GitHubRepoID: repoID,
		Name:         fullName,
		FullName:     fullName,
		Stars:        1,
	}
	if err := db.Projects().Upsert(context.Background(), p); err != nil {
		t.Fatalf("failed to import test project: %v", err)
	}
	return p
}
