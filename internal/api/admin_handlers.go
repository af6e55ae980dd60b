package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Yashtiwari893/11za-ai-Dashboard-sub001/pkg/access"
	"github.com/Yashtiwari893/11za-ai-Dashboard-sub001/pkg/store"
)

// UserResponse is the API shape of a user account.
type UserResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	GlobalRole  string `json:"global_role"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	LastLogin   string `json:"last_login,omitempty"`
}

// handleListUsers handles GET /api/v1/admin/users. The /api/v1/admin route
// policy already restricts the prefix to admin and super_admin.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers()
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	result := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp := UserResponse{
			ID:          u.ID,
			Email:       u.Email,
			DisplayName: u.DisplayName,
			GlobalRole:  u.GlobalRole,
			Status:      u.Status,
			CreatedAt:   u.CreatedAt.Format(time.RFC3339),
		}
		if u.LastLogin != nil {
			resp.LastLogin = u.LastLogin.Format(time.RFC3339)
		}
		result = append(result, resp)
	}
	writeJSON(w, http.StatusOK, result)
}

// UpdateUserRoleRequest is the request body for global role changes.
type UpdateUserRoleRequest struct {
	Role string `json:"role"`
}

// handleUpdateUserRole handles PATCH /api/v1/admin/users/{id}/role.
// Changing account-wide roles is reserved for super_admin; the route table
// lets plain admins into the prefix, so the handler re-checks.
func (s *Server) handleUpdateUserRole(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		writeAccessError(w, access.ErrUnauthenticated())
		return
	}

	callerRole, err := s.store.GlobalRole(r.Context(), identity.UserID)
	if err != nil {
		writeAccessError(w, access.ErrRoleLookupFailed())
		return
	}
	if callerRole != access.RoleSuperAdmin {
		writeAccessError(w, access.ErrForbidden("changing global roles requires super_admin"))
		return
	}

	var req UpdateUserRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	role := access.GlobalRole(req.Role)
	if !role.Valid() {
		writeError(w, http.StatusBadRequest, "role must be one of user, team_admin, admin, super_admin")
		return
	}

	userID := r.PathValue("id")
	err = s.store.UpdateGlobalRole(userID, role)
	switch {
	case errors.Is(err, store.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case err != nil:
		s.logger.Error("failed to update global role", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update role")
	default:
		s.logger.Info("global role updated", "user", userID, "role", req.Role, "by", identity.UserID)
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	}
}
