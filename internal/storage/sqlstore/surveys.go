package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/surveyapi/internal/models"
	"github.com/mmynk/surveyapi/internal/storage"
)

// CreateSurvey persists a survey and its whole question/choice tree in one
// transaction.
func (s *Store) CreateSurvey(ctx context.Context, survey *models.Survey) error {
	now := models.Now()
	if survey.CreatedAt.IsZero() {
		survey.CreatedAt = now
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var creator any
	if survey.CreatorID != 0 {
		creator = survey.CreatorID
	}

	// Insert survey
	err = tx.QueryRowContext(ctx,
		s.rebind("INSERT INTO surveys (name, created_at, creator_id) VALUES (?, ?, ?) RETURNING id"),
		survey.Name, survey.CreatedAt.Unix(), creator,
	).Scan(&survey.ID)
	if err != nil {
		return s.writeError("insert survey", err)
	}

	insertQuestion := s.rebind("INSERT INTO questions (text, created_at, survey_id) VALUES (?, ?, ?) RETURNING id")
	insertChoice := s.rebind("INSERT INTO choices (text, selected, created_at, question_id) VALUES (?, 0, ?, ?) RETURNING id")

	// Insert questions and their choices
	for _, question := range survey.Questions {
		question.SurveyID = survey.ID
		question.CreatedAt = now

		err = tx.QueryRowContext(ctx, insertQuestion,
			question.Text, question.CreatedAt.Unix(), question.SurveyID,
		).Scan(&question.ID)
		if err != nil {
			return s.writeError("insert question", err)
		}

		for _, choice := range question.Choices {
			choice.QuestionID = question.ID
			choice.CreatedAt = now
			choice.Selected = 0

			err = tx.QueryRowContext(ctx, insertChoice,
				choice.Text, choice.CreatedAt.Unix(), choice.QuestionID,
			).Scan(&choice.ID)
			if err != nil {
				return s.writeError("insert choice", err)
			}
		}
		if question.Choices == nil {
			question.Choices = []*models.Choice{}
		}
	}
	if survey.Questions == nil {
		survey.Questions = []*models.Question{}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetSurvey retrieves a survey by ID, including all questions and choices.
func (s *Store) GetSurvey(ctx context.Context, id int64) (*models.Survey, error) {
	survey := &models.Survey{Questions: []*models.Question{}}
	var createdAt int64
	var creator sql.NullInt64

	err := s.db.QueryRowContext(ctx,
		s.rebind("SELECT id, name, created_at, creator_id FROM surveys WHERE id = ?"),
		id,
	).Scan(&survey.ID, &survey.Name, &createdAt, &creator)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("survey %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get survey: %w", err)
	}
	survey.CreatedAt = models.FromUnix(createdAt)
	survey.CreatorID = creator.Int64

	if err := s.attachQuestions(ctx, []*models.Survey{survey}, "WHERE q.survey_id = ?", id); err != nil {
		return nil, err
	}

	return survey, nil
}

// ListSurveys retrieves all surveys with their questions and choices.
func (s *Store) ListSurveys(ctx context.Context) ([]*models.Survey, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, created_at, creator_id FROM surveys ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list surveys: %w", err)
	}
	defer rows.Close()

	surveys := []*models.Survey{}
	for rows.Next() {
		survey := &models.Survey{Questions: []*models.Question{}}
		var createdAt int64
		var creator sql.NullInt64
		if err := rows.Scan(&survey.ID, &survey.Name, &createdAt, &creator); err != nil {
			return nil, fmt.Errorf("failed to scan survey: %w", err)
		}
		survey.CreatedAt = models.FromUnix(createdAt)
		survey.CreatorID = creator.Int64
		surveys = append(surveys, survey)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate surveys: %w", err)
	}
	rows.Close()

	if len(surveys) == 0 {
		return surveys, nil
	}

	if err := s.attachQuestions(ctx, surveys, ""); err != nil {
		return nil, err
	}

	return surveys, nil
}

// attachQuestions loads questions and choices for the given surveys with two
// queries. filter is a WHERE clause over the questions table aliased as q.
func (s *Store) attachQuestions(ctx context.Context, surveys []*models.Survey, filter string, args ...any) error {
	bySurvey := make(map[int64]*models.Survey, len(surveys))
	for _, survey := range surveys {
		bySurvey[survey.ID] = survey
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(
		"SELECT q.id, q.text, q.created_at, q.survey_id FROM questions q "+filter+" ORDER BY q.id",
	), args...)
	if err != nil {
		return fmt.Errorf("failed to get questions: %w", err)
	}
	defer rows.Close()

	byQuestion := make(map[int64]*models.Question)
	for rows.Next() {
		question := &models.Question{Choices: []*models.Choice{}}
		var createdAt int64
		if err := rows.Scan(&question.ID, &question.Text, &createdAt, &question.SurveyID); err != nil {
			return fmt.Errorf("failed to scan question: %w", err)
		}
		question.CreatedAt = models.FromUnix(createdAt)

		survey, ok := bySurvey[question.SurveyID]
		if !ok {
			continue
		}
		survey.Questions = append(survey.Questions, question)
		byQuestion[question.ID] = question
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate questions: %w", err)
	}
	rows.Close()

	choiceRows, err := s.db.QueryContext(ctx, s.rebind(
		"SELECT c.id, c.text, c.selected, c.created_at, c.question_id FROM choices c "+
			"JOIN questions q ON q.id = c.question_id "+filter+" ORDER BY c.id",
	), args...)
	if err != nil {
		return fmt.Errorf("failed to get choices: %w", err)
	}
	defer choiceRows.Close()

	for choiceRows.Next() {
		choice := &models.Choice{}
		var createdAt int64
		if err := choiceRows.Scan(&choice.ID, &choice.Text, &choice.Selected, &createdAt, &choice.QuestionID); err != nil {
			return fmt.Errorf("failed to scan choice: %w", err)
		}
		choice.CreatedAt = models.FromUnix(createdAt)

		if question, ok := byQuestion[choice.QuestionID]; ok {
			question.Choices = append(question.Choices, choice)
		}
	}
	if err := choiceRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate choices: %w", err)
	}

	return nil
}

// RecordSelections increments each listed choice's counter. The whole batch
// commits or none of it does.
func (s *Store) RecordSelections(ctx context.Context, surveyID int64, choiceIDs []int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, s.rebind("SELECT 1 FROM surveys WHERE id = ?"), surveyID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("survey %d: %w", surveyID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get survey: %w", err)
	}

	increment := s.rebind(`
		UPDATE choices SET selected = selected + 1
		WHERE id = ? AND question_id IN (SELECT id FROM questions WHERE survey_id = ?)
	`)
	for _, choiceID := range choiceIDs {
		res, err := tx.ExecContext(ctx, increment, choiceID, surveyID)
		if err != nil {
			return fmt.Errorf("failed to record selection: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to record selection: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("choice %d in survey %d: %w", choiceID, surveyID, storage.ErrNotFound)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (s *Store) writeError(op string, err error) error {
	if isConstraintViolation(err) {
		return fmt.Errorf("failed to %s: %w", op, storage.ErrConflict)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
