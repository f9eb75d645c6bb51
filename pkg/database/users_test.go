package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sguter90/fieldmaestro/pkg/models"
)

func TestHashPassword_Format(t *testing.T) {
	hash, err := HashPassword("SecurePassword123!")
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	salt, digest, ok := strings.Cut(hash, ":")
	if !ok {
		t.Fatalf("Expected salt:digest format, got %s", hash)
	}
	if len(salt) != 32 {
		t.Errorf("Expected 32 hex chars of salt, got %d", len(salt))
	}
	if len(digest) != 64 {
		t.Errorf("Expected 64 hex chars of digest, got %d", len(digest))
	}

	other, _ := HashPassword("SecurePassword123!")
	if other == hash {
		t.Error("Expected different salts for two hashes of the same password")
	}
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	if !VerifyPassword(hash, "correct horse") {
		t.Error("Expected password to verify")
	}
	if VerifyPassword(hash, "correct horse ") {
		t.Error("Expected wrong password to be rejected")
	}
	if VerifyPassword("no-separator", "correct horse") {
		t.Error("Expected malformed hash to be rejected")
	}
	if VerifyPassword(":", "") {
		t.Error("Expected empty parts to be rejected")
	}
}

func TestCreateUser(t *testing.T) {
	dm := setupTestDatabaseManager(t)

	ctx := context.Background()
	user, err := dm.CreateUser(ctx, "alice", "SecurePassword123!", models.RoleAdmin)
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	if user.ID == uuid.Nil {
		t.Error("Expected user ID to be set")
	}
	if user.Role != models.RoleAdmin {
		t.Errorf("Expected role=%s, got %s", models.RoleAdmin, user.Role)
	}
	if user.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}

	validated, err := dm.ValidateUser(ctx, "alice", "SecurePassword123!")
	if err != nil {
		t.Fatalf("Failed to validate user: %v", err)
	}
	if validated.ID != user.ID {
		t.Errorf("Expected validated user ID=%s, got %s", user.ID, validated.ID)
	}

	loaded, err := dm.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("Failed to load user: %v", err)
	}
	if loaded.Username != "alice" {
		t.Errorf("Expected username=alice, got %s", loaded.Username)
	}
}

func TestCreateUser_DefaultRole(t *testing.T) {
	dm := setupTestDatabaseManager(t)

	user, err := dm.CreateUser(context.Background(), "bob", "pw", "")
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	if user.Role != models.RoleUser {
		t.Errorf("Expected default role=%s, got %s", models.RoleUser, user.Role)
	}
}

func TestCreateUser_InvalidInput(t *testing.T) {
	dm := setupTestDatabaseManager(t)
	ctx := context.Background()

	if _, err := dm.CreateUser(ctx, "", "pw", ""); err == nil {
		t.Error("Expected error for empty username")
	}
	if _, err := dm.CreateUser(ctx, "carol", "", ""); err == nil {
		t.Error("Expected error for empty password")
	}
	if _, err := dm.CreateUser(ctx, "carol", "pw", "superuser"); err == nil {
		t.Error("Expected error for unknown role")
	}
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	dm := setupTestDatabaseManager(t)
	ctx := context.Background()

	if _, err := dm.CreateUser(ctx, "dave", "pw1", ""); err != nil {
		t.Fatalf("Failed to create first user: %v", err)
	}

	_, err := dm.CreateUser(ctx, "dave", "pw2", "")
	if !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict, got %v", err)
	}
}

func TestValidateUser_InvalidCredentials(t *testing.T) {
	dm := setupTestDatabaseManager(t)
	ctx := context.Background()

	if _, err := dm.CreateUser(ctx, "erin", "right", ""); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	if _, err := dm.ValidateUser(ctx, "erin", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := dm.ValidateUser(ctx, "nobody", "right"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	dm := setupTestDatabaseManager(t)

	if _, err := dm.GetUser(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
