package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sguter90/fieldmaestro/pkg/database"
	"github.com/sguter90/fieldmaestro/pkg/models"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	User      *UserInfo `json:"user,omitempty"`
	Message   string    `json:"message,omitempty"`
}

type UserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (rm *RouteManager) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, LoginResponse{
			Success: false,
			Message: "Invalid request body",
		})
		return
	}

	user, err := rm.dbManager.ValidateUser(r.Context(), req.Username, req.Password)
	if errors.Is(err, database.ErrInvalidCredentials) {
		writeJSON(w, http.StatusUnauthorized, LoginResponse{
			Success: false,
			Message: "Invalid username or password",
		})
		return
	}
	if err != nil {
		rm.logger.WithError(err).Error("❌ Failed to validate user")
		writeJSON(w, http.StatusInternalServerError, LoginResponse{
			Success: false,
			Message: "Failed to validate credentials",
		})
		return
	}

	rm.writeToken(w, user)
}

func (rm *RouteManager) handleMe(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	writeJSON(w, http.StatusOK, UserInfo{
		ID:       user.ID.String(),
		Username: user.Username,
		Role:     user.Role,
	})
}

func (rm *RouteManager) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	rm.writeToken(w, user)
}

func (rm *RouteManager) writeToken(w http.ResponseWriter, user *models.User) {
	token, expiresAt, err := rm.GenerateJWT(user)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, LoginResponse{
			Success: false,
			Message: "Failed to generate token",
		})
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Success:   true,
		Token:     token,
		ExpiresAt: expiresAt,
		User: &UserInfo{
			ID:       user.ID.String(),
			Username: user.Username,
			Role:     user.Role,
		},
	})
}
