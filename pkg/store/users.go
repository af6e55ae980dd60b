// User store methods.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Yashtiwari893/11za-ai-Dashboard-sub001/pkg/access"
)

// ErrEmailTaken is returned when creating a user with an existing email.
var ErrEmailTaken = errors.New("email already registered")

const userColumns = `id, email, password_hash, display_name, global_role, status, created_at, last_login`

// CreateUser creates a new active user.
func (s *Store) CreateUser(id, email, passwordHash, displayName string, role access.GlobalRole) error {
	_, err := s.db.Exec(
		`INSERT INTO users (id, email, password_hash, display_name, global_role) VALUES (?, ?, ?, ?, ?)`,
		id, email, passwordHash, displayName, string(role),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(id string) (*User, error) {
	row := s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByEmail retrieves a user by email address.
func (s *Store) GetUserByEmail(email string) (*User, error) {
	row := s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// ListUsers returns all users ordered by email.
func (s *Store) ListUsers() ([]*User, error) {
	rows, err := s.db.Query(`SELECT ` + userColumns + ` FROM users ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUserRows(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GlobalRole returns the account-wide role for a user. It is one of the two
// lookups the access engine depends on, so it is context-bound and returns
// exactly what the users row says right now.
func (s *Store) GlobalRole(ctx context.Context, userID string) (access.GlobalRole, error) {
	var role string
	err := s.db.QueryRowContext(ctx, `SELECT global_role FROM users WHERE id = ?`, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up global role: %w", err)
	}
	return access.GlobalRole(role), nil
}

// UpdateGlobalRole changes a user's account-wide role.
func (s *Store) UpdateGlobalRole(id string, role access.GlobalRole) error {
	result, err := s.db.Exec(`UPDATE users SET global_role = ? WHERE id = ?`, string(role), id)
	if err != nil {
		return fmt.Errorf("failed to update global role: %w", err)
	}
	return requireOneRow(result, ErrUserNotFound)
}

// UpdateUserStatus sets a user's status (active or suspended). Suspended
// users fail identity resolution and are effectively logged out everywhere.
func (s *Store) UpdateUserStatus(id, status string) error {
	result, err := s.db.Exec(`UPDATE users SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}
	return requireOneRow(result, ErrUserNotFound)
}

// UpdateLastLogin records a successful login.
func (s *Store) UpdateLastLogin(id string) error {
	result, err := s.db.Exec(`UPDATE users SET last_login = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return requireOneRow(result, ErrUserNotFound)
}

// DeleteUser removes a user. Memberships cascade.
func (s *Store) DeleteUser(id string) error {
	result, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return requireOneRow(result, ErrUserNotFound)
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var lastLogin sql.NullTime
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.GlobalRole, &u.Status, &u.CreatedAt, &lastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	return &u, nil
}

func scanUserRows(rows *sql.Rows) (*User, error) {
	var u User
	var lastLogin sql.NullTime
	err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.GlobalRole, &u.Status, &u.CreatedAt, &lastLogin)
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	return &u, nil
}

// requireOneRow converts a zero-row update into notFound.
func requireOneRow(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// modernc.org/sqlite reports constraint failures by message; there is no
// exported error code to compare against.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
