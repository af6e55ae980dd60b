// TeamInvite store methods.
package store

import (
	cryptoRand "crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/Yashtiwari893/11za-ai-Dashboard-sub001/pkg/access"
)

// Invite redemption failures.
var (
	ErrInviteExpired = errors.New("invite expired")
	ErrInviteUsed    = errors.New("invite already used")
)

// GenerateInviteCode produces a random invite code. The raw code is handed
// to the invitee once; only its hash is stored.
func GenerateInviteCode() (string, error) {
	buf := make([]byte, 16)
	if _, err := cryptoRand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate invite code: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashInviteCode returns the hex SHA-256 of an invite code.
func HashInviteCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

const inviteColumns = `id, code_hash, team_id, role, created_by, created_at, expires_at, used_at, used_by, status`

// CreateTeamInvite stores a new invite.
func (s *Store) CreateTeamInvite(inv *TeamInvite) error {
	_, err := s.db.Exec(
		`INSERT INTO team_invites (id, code_hash, team_id, role, created_by, expires_at, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.CodeHash, inv.TeamID, inv.Role, inv.CreatedBy, inv.ExpiresAt, inv.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create team invite: %w", err)
	}
	return nil
}

// GetTeamInviteByHash retrieves an invite by its code hash.
func (s *Store) GetTeamInviteByHash(hash string) (*TeamInvite, error) {
	row := s.db.QueryRow(`SELECT `+inviteColumns+` FROM team_invites WHERE code_hash = ?`, hash)
	return scanInvite(row)
}

// ListTeamInvites returns all invites for a team, newest first.
func (s *Store) ListTeamInvites(teamID string) ([]*TeamInvite, error) {
	rows, err := s.db.Query(
		`SELECT `+inviteColumns+` FROM team_invites WHERE team_id = ? ORDER BY created_at DESC`,
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list team invites: %w", err)
	}
	defer rows.Close()

	var invites []*TeamInvite
	for rows.Next() {
		var inv TeamInvite
		var usedAt sql.NullTime
		if err := rows.Scan(&inv.ID, &inv.CodeHash, &inv.TeamID, &inv.Role, &inv.CreatedBy,
			&inv.CreatedAt, &inv.ExpiresAt, &usedAt, &inv.UsedBy, &inv.Status); err != nil {
			return nil, fmt.Errorf("failed to scan invite: %w", err)
		}
		if usedAt.Valid {
			inv.UsedAt = &usedAt.Time
		}
		invites = append(invites, &inv)
	}
	return invites, rows.Err()
}

// RedeemTeamInvite validates code and enrolls userID in the invite's team
// in one transaction. Expired and already-used invites are rejected. The
// single-use claim is the guarded UPDATE inside the transaction: of two
// concurrent redeemers, the loser's update matches zero rows and gets
// ErrInviteUsed, never a driver error.
func (s *Store) RedeemTeamInvite(code, userID string) (*TeamInvite, error) {
	inv, err := s.GetTeamInviteByHash(HashInviteCode(code))
	if err != nil {
		return nil, err
	}
	if inv.Status != "pending" {
		return nil, ErrInviteUsed
	}
	if time.Now().After(inv.ExpiresAt) {
		return nil, ErrInviteExpired
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Claim first, enroll second. The status guard re-checks 'pending'
	// under the write lock; the read above was only a pre-screen.
	result, err := tx.Exec(
		`UPDATE team_invites SET status = 'used', used_at = ?, used_by = ? WHERE id = ? AND status = 'pending'`,
		time.Now().UTC(), userID, inv.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mark invite used: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrInviteUsed
	}

	if _, err := tx.Exec(
		`INSERT INTO team_members (team_id, user_id, role) VALUES (?, ?, ?)`,
		inv.TeamID, userID, inv.Role,
	); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("user %s is already a member of team %s", userID, inv.TeamID)
		}
		return nil, fmt.Errorf("failed to enroll invitee: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit invite redemption: %w", err)
	}
	return inv, nil
}

// RevokeTeamInvite marks a pending invite revoked.
func (s *Store) RevokeTeamInvite(id string) error {
	result, err := s.db.Exec(
		`UPDATE team_invites SET status = 'revoked' WHERE id = ? AND status = 'pending'`, id,
	)
	if err != nil {
		return fmt.Errorf("failed to revoke invite: %w", err)
	}
	return requireOneRow(result, ErrInviteNotFound)
}

// NewTeamInvite assembles an invite record for teamID carrying role,
// returning the record and the raw code to hand to the invitee.
func NewTeamInvite(id, teamID, createdBy string, role access.TeamRole, ttl time.Duration) (*TeamInvite, string, error) {
	code, err := GenerateInviteCode()
	if err != nil {
		return nil, "", err
	}
	inv := &TeamInvite{
		ID:        id,
		CodeHash:  HashInviteCode(code),
		TeamID:    teamID,
		Role:      string(role),
		CreatedBy: createdBy,
		ExpiresAt: time.Now().Add(ttl).UTC(),
		Status:    "pending",
	}
	return inv, code, nil
}

func scanInvite(row *sql.Row) (*TeamInvite, error) {
	var inv TeamInvite
	var usedAt sql.NullTime
	err := row.Scan(&inv.ID, &inv.CodeHash, &inv.TeamID, &inv.Role, &inv.CreatedBy,
		&inv.CreatedAt, &inv.ExpiresAt, &usedAt, &inv.UsedBy, &inv.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInviteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan invite: %w", err)
	}
	if usedAt.Valid {
		inv.UsedAt = &usedAt.Time
	}
	return &inv, nil
}
