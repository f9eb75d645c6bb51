package database

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sguter90/fieldmaestro/pkg/models"
	"golang.org/x/crypto/pbkdf2"
)

const (
	passwordIterations = 100000
	passwordSaltBytes  = 16
)

// ErrInvalidCredentials is returned for an unknown user or a wrong password
var ErrInvalidCredentials = errors.New("invalid credentials")

// HashPassword derives a PBKDF2-HMAC-SHA256 key and returns it as
// "salt:hex_digest". The hex-encoded salt string itself is the KDF salt.
func HashPassword(password string) (string, error) {
	saltBytes := make([]byte, passwordSaltBytes)
	if _, err := rand.Read(saltBytes); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	salt := hex.EncodeToString(saltBytes)

	return salt + ":" + derivePasswordKey(password, salt), nil
}

// VerifyPassword checks password against a "salt:hex_digest" string
func VerifyPassword(stored, password string) bool {
	salt, digest, ok := strings.Cut(stored, ":")
	if !ok || salt == "" || digest == "" {
		return false
	}

	candidate := derivePasswordKey(password, salt)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(digest)) == 1
}

func derivePasswordKey(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), passwordIterations, sha256.Size, sha256.New)
	return hex.EncodeToString(key)
}

// CreateUser creates a new user with hashed password
func (dm *DatabaseManager) CreateUser(ctx context.Context, username, password, role string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errors.New("username and password must not be empty")
	}
	if role == "" {
		role = models.RoleUser
	}
	if !models.IsValidRole(role) {
		return nil, fmt.Errorf("invalid role: %s", role)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:        uuid.New(),
		Username:  username,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}

	query := `
        INSERT INTO users (id, username, password_hash, role, created_at)
        VALUES (?, ?, ?, ?, ?)
    `

	_, err = dm.ExecWithHealthCheck(ctx, query, user.ID, user.Username, hash, user.Role, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("user %s: %w", username, ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// ValidateUser checks username and password
func (dm *DatabaseManager) ValidateUser(ctx context.Context, username, password string) (*models.User, error) {
	query := `
        SELECT id, username, password_hash, role, created_at
        FROM users
        WHERE username = ?
    `

	var user models.User
	var passwordHash string

	err := dm.QueryRowWithHealthCheck(ctx, query, username).
		Scan(&user.ID, &user.Username, &passwordHash, &user.Role, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if !VerifyPassword(passwordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// GetUser loads a user by ID
func (dm *DatabaseManager) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT id, username, role, created_at FROM users WHERE id = ?`

	var user models.User
	err := dm.QueryRowWithHealthCheck(ctx, query, id).
		Scan(&user.ID, &user.Username, &user.Role, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}
