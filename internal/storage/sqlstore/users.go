package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/surveyapi/internal/models"
	"github.com/mmynk/surveyapi/internal/storage"
)

// CreateUser inserts a new user into the database.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = models.Now()
	}

	query := s.rebind(`
		INSERT INTO users (email, password_hash, created_at)
		VALUES (?, ?, ?)
		RETURNING id
	`)

	err := s.db.QueryRowContext(ctx, query,
		user.Email,
		user.PasswordHash,
		user.CreatedAt.Unix(),
	).Scan(&user.ID)
	if isConstraintViolation(err) {
		return fmt.Errorf("email %s already registered: %w", user.Email, storage.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByEmail retrieves a user by their email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := s.rebind(`
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE email = ?
	`)

	user, err := scanUser(s.db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", email, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// GetUserByID retrieves a user by their ID. Part of storage.Store; the
// HTTP layer resolves users by token subject (email) instead.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := s.rebind(`
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE id = ?
	`)

	user, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return user, nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var createdAt int64
	if err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &createdAt); err != nil {
		return nil, err
	}
	user.CreatedAt = models.FromUnix(createdAt)
	return user, nil
}
