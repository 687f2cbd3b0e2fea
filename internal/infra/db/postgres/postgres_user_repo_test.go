//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"subscription-billing/internal/domain"
	"subscription-billing/internal/domain/model"
)

func TestUserRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewUserRepo(testPool)

	t.Run("should save and find a user", func(t *testing.T) {
		cleanup(t)
		u := &model.User{ID: "user-1", Username: "alice", Permissions: []string{"reports.view"}, RegisteredAt: time.Now()}
		if err := repo.Save(ctx, nil, u); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		found, err := repo.FindByID(ctx, nil, "user-1")
		if err != nil {
			t.Fatalf("FindByID failed: %v", err)
		}
		if found.Username != "alice" {
			t.Errorf("username not round-tripped: %q", found.Username)
		}
		if len(found.Permissions) != 1 || found.Permissions[0] != "reports.view" {
			t.Errorf("permissions not round-tripped: %v", found.Permissions)
		}
	})

	t.Run("missing user reports ErrNotFound", func(t *testing.T) {
		cleanup(t)
		if _, err := repo.FindByID(ctx, nil, "ghost"); err != domain.ErrNotFound {
			t.Errorf("want ErrNotFound, got %v", err)
		}
	})

	t.Run("CountUsers counts all rows", func(t *testing.T) {
		cleanup(t)
		for _, id := range []string{"u1", "u2"} {
			if err := repo.Save(ctx, nil, &model.User{ID: id, Username: id, RegisteredAt: time.Now()}); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
		}
		n, err := repo.CountUsers(ctx, nil)
		if err != nil {
			t.Fatalf("CountUsers failed: %v", err)
		}
		if n != 2 {
			t.Errorf("want 2 users, got %d", n)
		}
	})
}
