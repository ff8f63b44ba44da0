package memory

import (
	"context"
	"testing"

	"github.com/remasto/remasto/server/domain/entities"
)

func TestUserRepositoryCreateAndGet(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	user := &entities.User{Email: "a@example.com", Name: "Ada"}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if user.ID == "" {
		t.Error("Expected generated ID")
	}

	byID, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if byID.Email != "a@example.com" {
		t.Errorf("Expected email a@example.com, got %s", byID.Email)
	}

	byEmail, err := repo.GetByEmail(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Errorf("Expected ID %s, got %s", user.ID, byEmail.ID)
	}
}

func TestUserRepositoryDuplicateEmail(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	if err := repo.Create(ctx, &entities.User{Email: "a@example.com", Name: "Ada"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Create(ctx, &entities.User{Email: "a@example.com", Name: "Bob"}); err == nil {
		t.Error("Expected error for duplicate email")
	}
}

func TestUserRepositoryUpdateEmail(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	user := &entities.User{Email: "a@example.com", Name: "Ada"}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	user.Email = "b@example.com"
	if err := repo.Update(ctx, user); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if _, err := repo.GetByEmail(ctx, "a@example.com"); err == nil {
		t.Error("Expected old email to be unindexed")
	}
	if _, err := repo.GetByEmail(ctx, "b@example.com"); err != nil {
		t.Errorf("Expected new email indexed, got %v", err)
	}
}

func TestUserRepositoryDelete(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	user := &entities.User{Email: "a@example.com", Name: "Ada"}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Delete(ctx, user.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.GetByID(ctx, user.ID); err == nil {
		t.Error("Expected user gone after delete")
	}
}
