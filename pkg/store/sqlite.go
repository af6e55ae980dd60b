// Package store persists dashboard users, teams, and memberships in SQLite.
//
// The store is a plain data gateway: it answers lookups and applies
// mutations, and contains no authorization policy. The access engine
// consumes its two role lookups (GlobalRole, TeamRole) through narrow
// context-bound methods so the collaborator boundary carries the timeout.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Not-found sentinels, distinguishable from infrastructure failures.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrTeamNotFound   = errors.New("team not found")
	ErrInviteNotFound = errors.New("invite not found")
)

// User is a dashboard account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	GlobalRole   string
	Status       string // active, suspended
	CreatedAt    time.Time
	LastLogin    *time.Time
}

// Team is a collaborative group of users.
type Team struct {
	ID        string
	Name      string
	CreatedBy string
	CreatedAt time.Time
}

// TeamMember links a user to a team with a team-scoped role.
type TeamMember struct {
	TeamID      string
	UserID      string
	Role        string // member, admin, owner
	Email       string
	DisplayName string
	JoinedAt    time.Time
}

// TeamInvite is a pending invitation into a team. Only the SHA-256 hash of
// the invite code is stored; the code itself is shown once at creation.
type TeamInvite struct {
	ID        string
	CodeHash  string
	TeamID    string
	Role      string
	CreatedBy string
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time
	UsedBy    string
	Status    string // pending, used, expired, revoked
}

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the default database location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "dashboard.db"
	}
	return filepath.Join(home, ".local", "share", "dashd", "dashboard.db")
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// WAL lets the CLI mutate roles while the server keeps reading; role
	// lookups must see committed changes immediately (the engine tolerates
	// zero staleness).
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// migrate creates the schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		display_name  TEXT NOT NULL DEFAULT '',
		global_role   TEXT NOT NULL DEFAULT 'user',
		status        TEXT NOT NULL DEFAULT 'active',
		created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		last_login    TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS teams (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		created_by TEXT NOT NULL REFERENCES users(id),
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS team_members (
		team_id    TEXT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
		user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		role       TEXT NOT NULL DEFAULT 'member',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (team_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS team_invites (
		id         TEXT PRIMARY KEY,
		code_hash  TEXT NOT NULL UNIQUE,
		team_id    TEXT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
		role       TEXT NOT NULL DEFAULT 'member',
		created_by TEXT NOT NULL REFERENCES users(id),
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		expires_at TIMESTAMP NOT NULL,
		used_at    TIMESTAMP,
		used_by    TEXT NOT NULL DEFAULT '',
		status     TEXT NOT NULL DEFAULT 'pending'
	);

	CREATE INDEX IF NOT EXISTS idx_team_members_user ON team_members(user_id);
	CREATE INDEX IF NOT EXISTS idx_team_invites_team ON team_invites(team_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
