// Package store persists user accounts.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/Aleksandr505/Confa/internal/user/models"
)

// PostgresStore reads and writes the users table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, display_name, password_hash, locked, roles
		FROM users
		WHERE username = $1
	`
	return s.findOne(ctx, query, username)
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT id, username, display_name, password_hash, locked, roles
		FROM users
		WHERE id = $1
	`
	return s.findOne(ctx, query, id)
}

func (s *PostgresStore) Save(ctx context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("user is required")
	}

	if user.ID == 0 {
		query := `
			INSERT INTO users (username, display_name, password_hash, locked, roles)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`
		err := s.db.QueryRowContext(ctx, query,
			user.Username, user.Name, user.PasswordHash, user.Locked, pq.Array(user.Roles),
		).Scan(&user.ID)
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		return nil
	}

	query := `
		UPDATE users
		SET username = $2, display_name = $3, password_hash = $4, locked = $5, roles = $6
		WHERE id = $1
	`
	_, err := s.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Name, user.PasswordHash, user.Locked, pq.Array(user.Roles),
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.Name, &user.PasswordHash, &user.Locked, pq.Array(&user.Roles),
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}
