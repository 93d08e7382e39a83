package postgres

import (
	"context"

	"fleet-svc/app/domains"

	"github.com/jackc/pgx/v5"
)

// GetAdminUser retrieves an operator account by username
func (s *Store) GetAdminUser(ctx context.Context, username string) (*domains.AdminUser, error) {
	var user domains.AdminUser
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, role, created_at
		FROM admin_users WHERE username = $1
	`, username).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateAdminUser inserts an operator account
func (s *Store) CreateAdminUser(ctx context.Context, username, passwordHash, role string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO admin_users (username, password_hash, role)
		VALUES ($1, $2, $3)
	`, username, passwordHash, role)
	return wrapConflict(err, "duplicate username")
}

// CountAdminUsers returns the number of operator accounts
func (s *Store) CountAdminUsers(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM admin_users`).Scan(&count)
	return count, err
}
