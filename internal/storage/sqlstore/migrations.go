package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
)

// Timestamps are stored as unix seconds so both dialects share the same
// scanning code. Tables are listed parents first for the foreign keys.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS surveys (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    creator_id INTEGER REFERENCES users(id)
)`,
	`CREATE TABLE IF NOT EXISTS questions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    text VARCHAR(500) NOT NULL,
    created_at INTEGER NOT NULL,
    survey_id INTEGER NOT NULL REFERENCES surveys(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS choices (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    text VARCHAR(100) NOT NULL,
    selected INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    question_id INTEGER NOT NULL REFERENCES questions(id) ON DELETE CASCADE
)`,
	`CREATE INDEX IF NOT EXISTS idx_surveys_creator_id ON surveys(creator_id)`,
	`CREATE INDEX IF NOT EXISTS idx_questions_survey_id ON questions(survey_id)`,
	`CREATE INDEX IF NOT EXISTS idx_choices_question_id ON choices(question_id)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at BIGINT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS surveys (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    creator_id BIGINT REFERENCES users(id)
)`,
	`CREATE TABLE IF NOT EXISTS questions (
    id BIGSERIAL PRIMARY KEY,
    text VARCHAR(500) NOT NULL,
    created_at BIGINT NOT NULL,
    survey_id BIGINT NOT NULL REFERENCES surveys(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS choices (
    id BIGSERIAL PRIMARY KEY,
    text VARCHAR(100) NOT NULL,
    selected INTEGER NOT NULL DEFAULT 0,
    created_at BIGINT NOT NULL,
    question_id BIGINT NOT NULL REFERENCES questions(id) ON DELETE CASCADE
)`,
	`CREATE INDEX IF NOT EXISTS idx_surveys_creator_id ON surveys(creator_id)`,
	`CREATE INDEX IF NOT EXISTS idx_questions_survey_id ON questions(survey_id)`,
	`CREATE INDEX IF NOT EXISTS idx_choices_question_id ON choices(question_id)`,
}

// runMigrations executes the schema setup.
// These run on startup to ensure tables exist.
func runMigrations(ctx context.Context, db *sql.DB, dialect Dialect) error {
	schema := sqliteSchema
	if dialect == DialectPostgres {
		schema = postgresSchema
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
