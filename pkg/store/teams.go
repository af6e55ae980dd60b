// Team and TeamMember store methods.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Yashtiwari893/11za-ai-Dashboard-sub001/pkg/access"
)

// ErrLastOwner is returned when removing or demoting the only owner of a
// team, which would orphan it.
var ErrLastOwner = errors.New("team must keep at least one owner")

// CreateTeam creates a team and enrolls the creator as its owner, in one
// transaction so a team row never exists without an owner.
func (s *Store) CreateTeam(id, name, creatorID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO teams (id, name, created_by) VALUES (?, ?, ?)`,
		id, name, creatorID,
	); err != nil {
		return fmt.Errorf("failed to create team: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO team_members (team_id, user_id, role) VALUES (?, ?, ?)`,
		id, creatorID, string(access.TeamRoleOwner),
	); err != nil {
		return fmt.Errorf("failed to enroll team owner: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit team creation: %w", err)
	}
	return nil
}

// GetTeam retrieves a team by ID.
func (s *Store) GetTeam(id string) (*Team, error) {
	var t Team
	err := s.db.QueryRow(
		`SELECT id, name, created_by, created_at FROM teams WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.CreatedBy, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return &t, nil
}

// ListTeamsForUser returns the teams a user belongs to, with the user's
// role in each.
func (s *Store) ListTeamsForUser(userID string) ([]*TeamMember, error) {
	rows, err := s.db.Query(
		`SELECT m.team_id, m.user_id, m.role, t.name, m.created_at
		 FROM team_members m JOIN teams t ON t.id = m.team_id
		 WHERE m.user_id = ? ORDER BY t.name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for user: %w", err)
	}
	defer rows.Close()

	var memberships []*TeamMember
	for rows.Next() {
		var m TeamMember
		if err := rows.Scan(&m.TeamID, &m.UserID, &m.Role, &m.DisplayName, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, &m)
	}
	return memberships, rows.Err()
}

// ListTeamMembers returns all members of a team with their account details.
func (s *Store) ListTeamMembers(teamID string) ([]*TeamMember, error) {
	rows, err := s.db.Query(
		`SELECT m.team_id, m.user_id, m.role, u.email, u.display_name, m.created_at
		 FROM team_members m JOIN users u ON u.id = m.user_id
		 WHERE m.team_id = ? ORDER BY u.email`,
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	defer rows.Close()

	var members []*TeamMember
	for rows.Next() {
		var m TeamMember
		if err := rows.Scan(&m.TeamID, &m.UserID, &m.Role, &m.Email, &m.DisplayName, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		members = append(members, &m)
	}
	return members, rows.Err()
}

// TeamRole returns the caller's role inside one team. It is the second
// lookup the access engine depends on: absence maps to access.ErrNotAMember
// so the engine can tell "not a member" (forbid) from "lookup failed"
// (fail closed).
func (s *Store) TeamRole(ctx context.Context, teamID, userID string) (access.TeamRole, error) {
	var role string
	err := s.db.QueryRowContext(ctx,
		`SELECT role FROM team_members WHERE team_id = ? AND user_id = ?`,
		teamID, userID,
	).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", access.ErrNotAMember
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up team role: %w", err)
	}
	return access.TeamRole(role), nil
}

// AddTeamMember enrolls a user in a team.
func (s *Store) AddTeamMember(teamID, userID string, role access.TeamRole) error {
	_, err := s.db.Exec(
		`INSERT INTO team_members (team_id, user_id, role) VALUES (?, ?, ?)`,
		teamID, userID, string(role),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s is already a member of team %s", userID, teamID)
		}
		return fmt.Errorf("failed to add team member: %w", err)
	}
	return nil
}

// UpdateTeamMemberRole changes a member's team role. Demoting the last
// owner is rejected.
func (s *Store) UpdateTeamMemberRole(teamID, userID string, role access.TeamRole) error {
	current, err := s.TeamRole(context.Background(), teamID, userID)
	if err != nil {
		return err
	}
	if current == access.TeamRoleOwner && role != access.TeamRoleOwner {
		if err := s.requireAnotherOwner(teamID, userID); err != nil {
			return err
		}
	}

	result, err := s.db.Exec(
		`UPDATE team_members SET role = ? WHERE team_id = ? AND user_id = ?`,
		string(role), teamID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update team member role: %w", err)
	}
	return requireOneRow(result, access.ErrNotAMember)
}

// RemoveTeamMember deletes a membership. Removing the last owner is
// rejected.
func (s *Store) RemoveTeamMember(teamID, userID string) error {
	current, err := s.TeamRole(context.Background(), teamID, userID)
	if err != nil {
		return err
	}
	if current == access.TeamRoleOwner {
		if err := s.requireAnotherOwner(teamID, userID); err != nil {
			return err
		}
	}

	result, err := s.db.Exec(
		`DELETE FROM team_members WHERE team_id = ? AND user_id = ?`,
		teamID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove team member: %w", err)
	}
	return requireOneRow(result, access.ErrNotAMember)
}

// requireAnotherOwner errors with ErrLastOwner unless the team has an owner
// other than excludeUserID.
func (s *Store) requireAnotherOwner(teamID, excludeUserID string) error {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM team_members WHERE team_id = ? AND role = ? AND user_id != ?`,
		teamID, string(access.TeamRoleOwner), excludeUserID,
	).Scan(&n)
	if err != nil {
		return fmt.Errorf("failed to count team owners: %w", err)
	}
	if n == 0 {
		return ErrLastOwner
	}
	return nil
}
