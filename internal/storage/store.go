// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/surveyapi/internal/models"
)

var (
	// ErrNotFound is returned when a lookup by primary key (or email) yields no row.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write violates a uniqueness or
	// foreign-key constraint.
	ErrConflict = errors.New("constraint violation")
)

// Store defines the interface for survey and user storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateUser persists a new user. ID and CreatedAt are populated by the store.
	// Returns ErrConflict if the email is already registered.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail returns ErrNotFound if no user has the email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns ErrNotFound if no user has the ID.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)

	// CreateSurvey persists the survey with all nested questions and choices
	// in a single transaction. Every ID, foreign key and timestamp in the tree
	// is populated on success; nothing is written on failure.
	CreateSurvey(ctx context.Context, survey *models.Survey) error

	// GetSurvey retrieves a survey with its questions and choices.
	// Returns ErrNotFound if the survey does not exist.
	GetSurvey(ctx context.Context, id int64) (*models.Survey, error)

	// ListSurveys retrieves every survey with its questions and choices,
	// ordered by ID.
	ListSurveys(ctx context.Context) ([]*models.Survey, error)

	// RecordSelections increments the selected counter of each listed choice
	// in one transaction. Every choice must belong to the survey, otherwise
	// ErrNotFound is returned and no counter changes.
	RecordSelections(ctx context.Context, surveyID int64, choiceIDs []int64) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
