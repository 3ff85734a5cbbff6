package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/warp/restaurant-pos/auth"
)

// =============================================================================
// ADMIN STORE (auth.AdminStore interface)
// =============================================================================

func (s *Store) CreateAdmin(ctx context.Context, a auth.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO admins (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)",
		a.ID, a.Username, a.PasswordHash, formatTime(a.CreatedAt))
	if isUniqueConstraintError(err) {
		return auth.ErrUsernameTaken
	}
	if err != nil {
		return fmt.Errorf("failed to insert admin: %w", err)
	}
	return nil
}

func (s *Store) GetAdminByUsername(ctx context.Context, username string) (*auth.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scanAdmin(s.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM admins WHERE username = ?", username))
}

func (s *Store) GetAdmin(ctx context.Context, id string) (*auth.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scanAdmin(s.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM admins WHERE id = ?", id))
}

func scanAdmin(row *sql.Row) (*auth.Admin, error) {
	var a auth.Admin
	var createdAt string
	err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.CreatedAt = parseTime(createdAt)
	return &a, nil
}
