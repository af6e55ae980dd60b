// Package api implements the HTTP API server for the dashboard.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Yashtiwari893/11za-ai-Dashboard-sub001/pkg/access"
	"github.com/Yashtiwari893/11za-ai-Dashboard-sub001/pkg/session"
	"github.com/Yashtiwari893/11za-ai-Dashboard-sub001/pkg/store"
)

// UUIDShortLength is the number of characters used when truncating UUIDs
// for IDs. Example: "team_" + uuid.New().String()[:UUIDShortLength]
// produces "team_abc12345".
const UUIDShortLength = 8

// Server is the HTTP API server.
type Server struct {
	store    *store.Store
	sessions *session.Manager
	engine   *access.Engine
	resolver *StoreIdentityResolver
	logger   *slog.Logger
}

// NewServer creates a new API server.
func NewServer(st *store.Store, sessions *session.Manager, engine *access.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:    st,
		sessions: sessions,
		engine:   engine,
		resolver: NewStoreIdentityResolver(sessions, st),
		logger:   logger,
	}
}

// RegisterRoutes registers all API routes.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Auth routes (unprotected prefix; login issues the session cookie)
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/v1/auth/logout", s.handleLogout)
	mux.HandleFunc("GET /api/v1/auth/me", s.handleMe)

	// Team routes
	mux.HandleFunc("GET /api/v1/teams", s.handleListMyTeams)
	mux.HandleFunc("POST /api/v1/teams", s.handleCreateTeam)
	mux.HandleFunc("POST /api/v1/teams/join", s.handleJoinTeam)
	mux.HandleFunc("GET /api/v1/teams/{id}", s.handleGetTeam)
	mux.HandleFunc("GET /api/v1/teams/{id}/members", s.handleListTeamMembers)
	mux.HandleFunc("PATCH /api/v1/teams/{id}/members/{userId}", s.handleUpdateTeamMemberRole)
	mux.HandleFunc("DELETE /api/v1/teams/{id}/members/{userId}", s.handleRemoveTeamMember)
	mux.HandleFunc("POST /api/v1/teams/{id}/invites", s.handleCreateTeamInvite)
	mux.HandleFunc("GET /api/v1/teams/{id}/invites", s.handleListTeamInvites)

	// Admin routes (route table gates the /api/v1/admin prefix)
	mux.HandleFunc("GET /api/v1/admin/users", s.handleListUsers)
	mux.HandleFunc("PATCH /api/v1/admin/users/{id}/role", s.handleUpdateUserRole)

	// Webhook intake (provider-signature auth, outside the session gate)
	mux.HandleFunc("POST /webhooks/whatsapp", s.handleWhatsAppWebhook)

	// Health (no auth required - unprotected in the route table)
	mux.HandleFunc("GET /health", s.handleHealth)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleWhatsAppWebhook handles POST /webhooks/whatsapp.
// Message processing lives elsewhere; intake only acknowledges receipt so
// the provider does not retry.
func (s *Server) handleWhatsAppWebhook(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	s.logger.Info("webhook received", "source", "whatsapp", "keys", len(payload))
	writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeAccessError writes a structured access error.
func writeAccessError(w http.ResponseWriter, err *access.AccessError) {
	writeJSON(w, err.HTTPStatus(), map[string]string{
		"error":   err.Code,
		"message": err.Message,
	})
}

// requireTeamRole enforces a minimum team role for the caller on the
// team-scoped handlers. It writes the denial response and returns false
// unless the caller passes. Global route gating already ran in the
// middleware; this is the second, team-scoped half of the check.
func (s *Server) requireTeamRole(w http.ResponseWriter, r *http.Request, teamID string, min access.TeamRole) bool {
	identity := IdentityFromContext(r.Context())
	d := s.engine.RequireTeamRole(r.Context(), identity, teamID, min)
	switch d.Kind {
	case access.DecisionAllow:
		return true
	case access.DecisionForbid:
		writeAccessError(w, access.ErrForbidden("insufficient team role"))
	default:
		// Fail-closed lookup failure or missing identity.
		writeAccessError(w, access.ErrUnauthenticated())
	}
	return false
}
