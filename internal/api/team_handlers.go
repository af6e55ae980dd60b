package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Yashtiwari893/11za-ai-Dashboard-sub001/pkg/access"
	"github.com/Yashtiwari893/11za-ai-Dashboard-sub001/pkg/store"
)

// inviteTTL is how long a team invite stays redeemable.
const inviteTTL = 7 * 24 * time.Hour

// TeamResponse is the API shape of a team.
type TeamResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Role      string `json:"role,omitempty"` // caller's role, on membership listings
	CreatedAt string `json:"created_at,omitempty"`
}

// MemberResponse is the API shape of a team member.
type MemberResponse struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	JoinedAt    string `json:"joined_at"`
}

// handleListMyTeams handles GET /api/v1/teams
func (s *Server) handleListMyTeams(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		writeAccessError(w, access.ErrUnauthenticated())
		return
	}

	memberships, err := s.store.ListTeamsForUser(identity.UserID)
	if err != nil {
		s.logger.Error("failed to list teams", "user", identity.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list teams")
		return
	}

	result := make([]TeamResponse, 0, len(memberships))
	for _, m := range memberships {
		result = append(result, TeamResponse{
			ID:   m.TeamID,
			Name: m.DisplayName, // team name, joined in the query
			Role: m.Role,
		})
	}
	writeJSON(w, http.StatusOK, result)
}

// CreateTeamRequest is the request body for POST /api/v1/teams.
type CreateTeamRequest struct {
	Name string `json:"name"`
}

// handleCreateTeam handles POST /api/v1/teams. The creator becomes the
// team's owner.
func (s *Server) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		writeAccessError(w, access.ErrUnauthenticated())
		return
	}

	var req CreateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	teamID := "team_" + uuid.New().String()[:UUIDShortLength]
	if err := s.store.CreateTeam(teamID, req.Name, identity.UserID); err != nil {
		s.logger.Error("failed to create team", "user", identity.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create team")
		return
	}

	s.logger.Info("team created", "team", teamID, "owner", identity.UserID)
	writeJSON(w, http.StatusCreated, TeamResponse{ID: teamID, Name: req.Name, Role: string(access.TeamRoleOwner)})
}

// handleGetTeam handles GET /api/v1/teams/{id}. Any member may read.
func (s *Server) handleGetTeam(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("id")
	if !s.requireTeamRole(w, r, teamID, access.TeamRoleMember) {
		return
	}

	team, err := s.store.GetTeam(teamID)
	if err != nil {
		writeError(w, http.StatusNotFound, "team not found")
		return
	}
	writeJSON(w, http.StatusOK, TeamResponse{
		ID:        team.ID,
		Name:      team.Name,
		CreatedAt: team.CreatedAt.Format(time.RFC3339),
	})
}

// handleListTeamMembers handles GET /api/v1/teams/{id}/members. Any member
// may read the roster.
func (s *Server) handleListTeamMembers(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("id")
	if !s.requireTeamRole(w, r, teamID, access.TeamRoleMember) {
		return
	}

	members, err := s.store.ListTeamMembers(teamID)
	if err != nil {
		s.logger.Error("failed to list members", "team", teamID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}

	result := make([]MemberResponse, 0, len(members))
	for _, m := range members {
		result = append(result, MemberResponse{
			UserID:      m.UserID,
			Email:       m.Email,
			DisplayName: m.DisplayName,
			Role:        m.Role,
			JoinedAt:    m.JoinedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, result)
}

// UpdateMemberRoleRequest is the request body for member role changes.
type UpdateMemberRoleRequest struct {
	Role string `json:"role"`
}

// handleUpdateTeamMemberRole handles PATCH /api/v1/teams/{id}/members/{userId}.
// Only owners change roles.
func (s *Server) handleUpdateTeamMemberRole(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("id")
	userID := r.PathValue("userId")
	if !s.requireTeamRole(w, r, teamID, access.TeamRoleOwner) {
		return
	}

	var req UpdateMemberRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	role := access.TeamRole(req.Role)
	if !role.Valid() {
		writeError(w, http.StatusBadRequest, "role must be one of member, admin, owner")
		return
	}

	err := s.store.UpdateTeamMemberRole(teamID, userID, role)
	switch {
	case errors.Is(err, access.ErrNotAMember):
		writeError(w, http.StatusNotFound, "no such member")
	case errors.Is(err, store.ErrLastOwner):
		writeError(w, http.StatusConflict, "team must keep at least one owner")
	case err != nil:
		s.logger.Error("failed to update member role", "team", teamID, "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update member role")
	default:
		s.logger.Info("member role updated", "team", teamID, "user", userID, "role", req.Role)
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	}
}

// handleRemoveTeamMember handles DELETE /api/v1/teams/{id}/members/{userId}.
// Team admins may remove members; anyone may remove themselves (leave).
func (s *Server) handleRemoveTeamMember(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("id")
	userID := r.PathValue("userId")

	identity := IdentityFromContext(r.Context())
	leaving := identity != nil && identity.UserID == userID
	if !leaving && !s.requireTeamRole(w, r, teamID, access.TeamRoleAdmin) {
		return
	}
	if leaving && !s.requireTeamRole(w, r, teamID, access.TeamRoleMember) {
		return
	}

	err := s.store.RemoveTeamMember(teamID, userID)
	switch {
	case errors.Is(err, access.ErrNotAMember):
		writeError(w, http.StatusNotFound, "no such member")
	case errors.Is(err, store.ErrLastOwner):
		writeError(w, http.StatusConflict, "team must keep at least one owner")
	case err != nil:
		s.logger.Error("failed to remove member", "team", teamID, "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove member")
	default:
		s.logger.Info("member removed", "team", teamID, "user", userID)
		w.WriteHeader(http.StatusNoContent)
	}
}

// CreateInviteRequest is the request body for POST /api/v1/teams/{id}/invites.
type CreateInviteRequest struct {
	Role string `json:"role"`
}

// InviteResponse is the response for a created invite. Code appears exactly
// once, here.
type InviteResponse struct {
	ID        string `json:"id"`
	Code      string `json:"code,omitempty"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	ExpiresAt string `json:"expires_at"`
}

// handleCreateTeamInvite handles POST /api/v1/teams/{id}/invites. Team
// admins and owners may invite; only owners may mint owner invites.
func (s *Server) handleCreateTeamInvite(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("id")
	if !s.requireTeamRole(w, r, teamID, access.TeamRoleAdmin) {
		return
	}

	var req CreateInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	role := access.TeamRole(req.Role)
	if req.Role == "" {
		role = access.TeamRoleMember
	}
	if !role.Valid() {
		writeError(w, http.StatusBadRequest, "role must be one of member, admin, owner")
		return
	}
	if role == access.TeamRoleOwner && !s.requireTeamRole(w, r, teamID, access.TeamRoleOwner) {
		return
	}

	identity := IdentityFromContext(r.Context())
	inviteID := "inv_" + uuid.New().String()[:UUIDShortLength]
	inv, code, err := store.NewTeamInvite(inviteID, teamID, identity.UserID, role, inviteTTL)
	if err != nil {
		s.logger.Error("failed to generate invite", "team", teamID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create invite")
		return
	}
	if err := s.store.CreateTeamInvite(inv); err != nil {
		s.logger.Error("failed to store invite", "team", teamID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create invite")
		return
	}

	s.logger.Info("invite created", "team", teamID, "invite", inviteID, "role", string(role), "by", identity.UserID)
	writeJSON(w, http.StatusCreated, InviteResponse{
		ID:        inv.ID,
		Code:      code,
		Role:      inv.Role,
		Status:    inv.Status,
		ExpiresAt: inv.ExpiresAt.Format(time.RFC3339),
	})
}

// handleListTeamInvites handles GET /api/v1/teams/{id}/invites. Admin+.
func (s *Server) handleListTeamInvites(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("id")
	if !s.requireTeamRole(w, r, teamID, access.TeamRoleAdmin) {
		return
	}

	invites, err := s.store.ListTeamInvites(teamID)
	if err != nil {
		s.logger.Error("failed to list invites", "team", teamID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list invites")
		return
	}

	result := make([]InviteResponse, 0, len(invites))
	for _, inv := range invites {
		result = append(result, InviteResponse{
			ID:        inv.ID,
			Role:      inv.Role,
			Status:    inv.Status,
			ExpiresAt: inv.ExpiresAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, result)
}

// JoinTeamRequest is the request body for POST /api/v1/teams/join.
type JoinTeamRequest struct {
	Code string `json:"code"`
}

// handleJoinTeam handles POST /api/v1/teams/join: redeems an invite code
// for the calling user.
func (s *Server) handleJoinTeam(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		writeAccessError(w, access.ErrUnauthenticated())
		return
	}

	var req JoinTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	inv, err := s.store.RedeemTeamInvite(req.Code, identity.UserID)
	switch {
	case errors.Is(err, store.ErrInviteNotFound):
		writeError(w, http.StatusNotFound, "invalid invite code")
	case errors.Is(err, store.ErrInviteExpired):
		writeError(w, http.StatusGone, "invite expired")
	case errors.Is(err, store.ErrInviteUsed):
		writeError(w, http.StatusConflict, "invite already used")
	case err != nil:
		s.logger.Error("failed to redeem invite", "user", identity.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to join team")
	default:
		s.logger.Info("invite redeemed", "team", inv.TeamID, "user", identity.UserID, "role", inv.Role)
		writeJSON(w, http.StatusOK, TeamResponse{ID: inv.TeamID, Role: inv.Role})
	}
}
