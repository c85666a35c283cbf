package repository

import (
	"context"
	"fmt"
	"time"

	"moodjournal/internal/database"
	"moodjournal/internal/models"
)

// AnswerRepository handles persisted training answers
type AnswerRepository struct {
	db database.DBTX
}

// NewAnswerRepository creates a new answer repository
func NewAnswerRepository(db database.DBTX) *AnswerRepository {
	return &AnswerRepository{db: db}
}

// UpsertAnswer stores the answer for a question of a session, replacing any earlier one
func (r *AnswerRepository) UpsertAnswer(ctx context.Context, userID, sessionID, questionID int64, content string) error {
	now := time.Now()
	query := `
		INSERT INTO training_answers (user_id, session_id, question_id, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	` + r.db.GetDialect().UpsertClause(
		[]string{"session_id", "question_id"},
		[]string{"content", "updated_at"},
	)
	if _, err := r.db.ExecContext(ctx, query, userID, sessionID, questionID, content, now, now); err != nil {
		return fmt.Errorf("failed to save answer: %w", err)
	}
	return nil
}

// ListWithQuestions returns the user's answers joined with their question text,
// oldest session first and in catalog order within a session
func (r *AnswerRepository) ListWithQuestions(ctx context.Context, userID int64) ([]models.AnswerWithQuestion, error) {
	query := `
		SELECT a.id, a.user_id, a.session_id, a.question_id, a.content, a.created_at, a.updated_at,
		       COALESCE(q.category, ''), COALESCE(q.content, '')
		FROM training_answers a
		LEFT JOIN question_cards q ON q.id = a.question_id
		WHERE a.user_id = ?
		ORDER BY a.session_id, COALESCE(q.position, 0), a.question_id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query answers: %w", err)
	}
	defer rows.Close()

	var answers []models.AnswerWithQuestion
	for rows.Next() {
		var item models.AnswerWithQuestion
		a := &item.Answer
		if err := rows.Scan(&a.ID, &a.UserID, &a.SessionID, &a.QuestionID, &a.Content, &a.CreatedAt, &a.UpdatedAt,
			&item.Category, &item.Question); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, item)
	}
	return answers, rows.Err()
}

// ListBySession returns the answers saved for one training session
func (r *AnswerRepository) ListBySession(ctx context.Context, sessionID int64) ([]models.TrainingAnswer, error) {
	query := `
		SELECT id, user_id, session_id, question_id, content, created_at, updated_at
		FROM training_answers
		WHERE session_id = ?
		ORDER BY question_id
	`
	return r.list(ctx, query, sessionID)
}

// ListAll returns every stored answer, used by backup export
func (r *AnswerRepository) ListAll(ctx context.Context) ([]models.TrainingAnswer, error) {
	query := `
		SELECT id, user_id, session_id, question_id, content, created_at, updated_at
		FROM training_answers
		ORDER BY id
	`
	return r.list(ctx, query)
}

func (r *AnswerRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.TrainingAnswer, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query answers: %w", err)
	}
	defer rows.Close()

	var answers []models.TrainingAnswer
	for rows.Next() {
		var a models.TrainingAnswer
		if err := rows.Scan(&a.ID, &a.UserID, &a.SessionID, &a.QuestionID, &a.Content, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// RestoreAnswer writes an answer keeping its timestamps, used by backup import
func (r *AnswerRepository) RestoreAnswer(ctx context.Context, a models.TrainingAnswer) error {
	query := `
		INSERT INTO training_answers (user_id, session_id, question_id, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	` + r.db.GetDialect().UpsertClause(
		[]string{"session_id", "question_id"},
		[]string{"content", "updated_at"},
	)
	if _, err := r.db.ExecContext(ctx, query, a.UserID, a.SessionID, a.QuestionID, a.Content, a.CreatedAt, a.UpdatedAt); err != nil {
		return fmt.Errorf("failed to restore answer %d: %w", a.ID, err)
	}
	return nil
}
