package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/amercogo/MojKutakAdmin/internal/apperror"
)

func TestUserRepository(t *testing.T) {
	users := NewDBUserRepository(newTestDB(t))
	ctx := context.Background()

	created, err := users.CreateUser(ctx, "  Admin@Example.com ", "$2a$10$hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if created.Email != "admin@example.com" {
		t.Errorf("Expected normalized email, got %q", created.Email)
	}

	byEmail, err := users.GetUserByEmail(ctx, "ADMIN@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if byEmail.ID != created.ID || byEmail.PasswordHash != "$2a$10$hash" {
		t.Errorf("Unexpected user %+v", byEmail)
	}

	byID, err := users.GetUser(ctx, created.ID)
	if err != nil || byID.Email != created.Email {
		t.Errorf("Expected GetUser to find the user, got %v, %v", byID, err)
	}

	if _, err := users.CreateUser(ctx, "admin@example.com", "x"); err == nil {
		t.Error("Expected duplicate email to fail")
	}

	if _, err := users.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
