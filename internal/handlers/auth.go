package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hosteldex/hosteldex-server/internal/middleware"
	"github.com/hosteldex/hosteldex-server/internal/models"
	"github.com/hosteldex/hosteldex-server/internal/services"
)

// AuthHandler handles session endpoints: login, register, profile, logout.
type AuthHandler struct {
	sessionSvc *services.SessionService
	jwtSecret  string
	tokenTTL   time.Duration
	logger     *zap.SugaredLogger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(svc *services.SessionService, jwtSecret string, tokenTTL time.Duration, logger *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{sessionSvc: svc, jwtSecret: jwtSecret, tokenTTL: tokenTTL, logger: logger}
}

type sessionResponse struct {
	User  models.Identity `json:"user"`
	Token string          `json:"token"`
}

// Login handles POST /api/v1/auth/login.
// A credential mismatch answers 401 and leaves any current session intact.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Missing required fields: email, password")
		return
	}

	identity, err := h.sessionSvc.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		respondError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		h.logger.Errorw("Login failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	h.respondSession(w, http.StatusOK, identity)
}

// Register handles POST /api/v1/auth/register.
// Registration never fails: a fresh identity is synthesized and becomes
// the current session. The password is accepted and discarded.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		models.Identity
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" {
		respondError(w, http.StatusBadRequest, "Missing required fields: name, email")
		return
	}
	if req.Role != models.RoleStudent && req.Role != models.RoleAdmin {
		respondError(w, http.StatusBadRequest, "Unknown role")
		return
	}

	identity, err := h.sessionSvc.Register(r.Context(), req.Identity)
	if err != nil {
		h.logger.Errorw("Registration failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	h.respondSession(w, http.StatusCreated, identity)
}

// Me handles GET /api/v1/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.sessionSvc.Current()
	if !ok {
		respondError(w, http.StatusUnauthorized, "No active session")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"user":    identity,
		"loading": h.sessionSvc.Loading(),
	})
}

// UpdateProfile handles PUT /api/v1/auth/profile.
// Only non-identity fields may change; id, email and role are immutable.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFrom(r.Context())

	var update services.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if current, ok := h.sessionSvc.Current(); !ok || current.ID != claims.UserID {
		respondError(w, http.StatusForbidden, "Session does not match token")
		return
	}

	identity, err := h.sessionSvc.UpdateProfile(r.Context(), update)
	if errors.Is(err, services.ErrNoSession) {
		respondError(w, http.StatusUnauthorized, "No active session")
		return
	}
	if err != nil {
		h.logger.Errorw("Profile update failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Profile update failed")
		return
	}

	respondJSON(w, http.StatusOK, identity)
}

// Logout handles POST /api/v1/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessionSvc.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) respondSession(w http.ResponseWriter, status int, identity models.Identity) {
	token, err := middleware.IssueToken(h.jwtSecret, identity, h.tokenTTL)
	if err != nil {
		h.logger.Errorw("Failed to sign session token", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to issue session token")
		return
	}
	respondJSON(w, status, sessionResponse{User: identity, Token: token})
}
