package api

import (
	"encoding/json"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/Yashtiwari893/11za-ai-Dashboard-sub001/pkg/access"
)

// LoginRequest is the request body for POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the response for a successful login.
type LoginResponse struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	GlobalRole  string `json:"global_role"`
	HomePath    string `json:"home_path"`
}

// handleLogin handles POST /api/v1/auth/login.
// Invalid email and invalid password produce the same response so the
// endpoint does not confirm which accounts exist.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := s.store.GetUserByEmail(req.Email)
	if err != nil {
		s.logger.Info("login rejected", "email", req.Email, "reason", "unknown account")
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Info("login rejected", "user", user.ID, "reason", "bad password")
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if user.Status != "active" {
		s.logger.Info("login rejected", "user", user.ID, "reason", user.Status)
		writeError(w, http.StatusForbidden, "account is not active")
		return
	}

	token, err := s.sessions.Issue(user.ID)
	if err != nil {
		s.logger.Error("session issue failed", "user", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	if err := s.store.UpdateLastLogin(user.ID); err != nil {
		// Login still succeeds; the timestamp is advisory.
		s.logger.Warn("failed to record last login", "user", user.ID, "error", err)
	}

	SetSessionCookie(w, token)

	role := access.GlobalRole(user.GlobalRole)
	s.logger.Info("login", "user", user.ID, "role", user.GlobalRole)
	writeJSON(w, http.StatusOK, LoginResponse{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		GlobalRole:  user.GlobalRole,
		HomePath:    role.HomePath(),
	})
}

// handleLogout handles POST /api/v1/auth/logout.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	// The access middleware may already have queued a rotated session
	// cookie for an aged session. Drop it so the clearing cookie is the
	// only dash_session the client sees.
	w.Header().Del("Set-Cookie")
	ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// handleMe handles GET /api/v1/auth/me. The route lives under the
// unprotected auth prefix so clients can probe session state without
// triggering a redirect; an absent identity answers 401 instead.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	credential := ""
	if c, err := r.Cookie(SessionCookieName); err == nil {
		credential = c.Value
	}
	if credential == "" {
		writeAccessError(w, access.ErrUnauthenticated())
		return
	}

	identity, refreshed, err := s.resolver.Resolve(r.Context(), credential)
	if err != nil || identity == nil {
		writeAccessError(w, access.ErrUnauthenticated())
		return
	}
	if refreshed != "" {
		SetSessionCookie(w, refreshed)
	}

	user, err := s.store.GetUser(identity.UserID)
	if err != nil {
		writeAccessError(w, access.ErrUnauthenticated())
		return
	}

	role := access.GlobalRole(user.GlobalRole)
	writeJSON(w, http.StatusOK, LoginResponse{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		GlobalRole:  user.GlobalRole,
		HomePath:    role.HomePath(),
	})
}
