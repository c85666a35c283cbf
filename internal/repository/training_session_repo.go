package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"moodjournal/internal/database"
	"moodjournal/internal/models"
)

const trainingSessionColumns = `id, user_id, status, total_questions, answered_count, started_at, ended_at`

// TrainingSessionRepository handles training session database operations
type TrainingSessionRepository struct {
	db database.DBTX
}

// NewTrainingSessionRepository creates a new training session repository
func NewTrainingSessionRepository(db database.DBTX) *TrainingSessionRepository {
	return &TrainingSessionRepository{db: db}
}

func scanTrainingSession(row interface{ Scan(...interface{}) error }) (*models.TrainingSession, error) {
	session := &models.TrainingSession{}
	var endedAt sql.NullTime
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Status,
		&session.TotalQuestions,
		&session.AnsweredCount,
		&session.StartedAt,
		&endedAt,
	)
	if err != nil {
		return nil, err
	}
	if endedAt.Valid {
		session.EndedAt = &endedAt.Time
	}
	return session, nil
}

// CreateSession records the start of a training run
func (r *TrainingSessionRepository) CreateSession(ctx context.Context, userID int64, totalQuestions int) (*models.TrainingSession, error) {
	query := `
		INSERT INTO training_sessions (user_id, status, total_questions, answered_count, started_at)
		VALUES (?, ?, ?, 0, ?)
	`
	now := time.Now()
	id, err := r.db.ExecReturningID(ctx, query, userID, models.TrainingStatusActive, totalQuestions, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create training session: %w", err)
	}

	return &models.TrainingSession{
		ID:             id,
		UserID:         userID,
		Status:         models.TrainingStatusActive,
		TotalQuestions: totalQuestions,
		StartedAt:      now,
	}, nil
}

// GetSessionByID retrieves a training session by ID. It returns nil when no session matches.
func (r *TrainingSessionRepository) GetSessionByID(ctx context.Context, sessionID int64) (*models.TrainingSession, error) {
	query := `SELECT ` + trainingSessionColumns + ` FROM training_sessions WHERE id = ?`
	session, err := scanTrainingSession(r.db.QueryRowContext(ctx, query, sessionID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get training session: %w", err)
	}
	return session, nil
}

// FinishSession closes an active session with its final status and answered count.
// Sessions that are already closed are left untouched.
func (r *TrainingSessionRepository) FinishSession(ctx context.Context, sessionID int64, status string, answeredCount int) error {
	query := `
		UPDATE training_sessions
		SET status = ?, answered_count = ?, ended_at = ?
		WHERE id = ? AND status = ?
	`
	_, err := r.db.ExecContext(ctx, query, status, answeredCount, time.Now(), sessionID, models.TrainingStatusActive)
	if err != nil {
		return fmt.Errorf("failed to finish training session: %w", err)
	}
	return nil
}

// AbandonStaleSessions closes active sessions started before cutoff
func (r *TrainingSessionRepository) AbandonStaleSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE training_sessions
		SET status = ?, ended_at = ?
		WHERE status = ? AND started_at < ?
	`
	result, err := r.db.ExecContext(ctx, query, models.TrainingStatusAbandoned, time.Now(), models.TrainingStatusActive, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to abandon stale sessions: %w", err)
	}
	return result.RowsAffected()
}

// ListByUser retrieves the user's most recent sessions, newest first
func (r *TrainingSessionRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.TrainingSession, error) {
	query := `
		SELECT ` + trainingSessionColumns + `
		FROM training_sessions
		WHERE user_id = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`
	return r.list(ctx, query, userID, limit)
}

// ListAll retrieves every session, used by backup export
func (r *TrainingSessionRepository) ListAll(ctx context.Context) ([]models.TrainingSession, error) {
	query := `SELECT ` + trainingSessionColumns + ` FROM training_sessions ORDER BY id`
	return r.list(ctx, query)
}

func (r *TrainingSessionRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.TrainingSession, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query training sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.TrainingSession
	for rows.Next() {
		session, err := scanTrainingSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan training session: %w", err)
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

// Summary aggregates the user's training history
func (r *TrainingSessionRepository) Summary(ctx context.Context, userID int64) (*models.ProgressSummary, error) {
	summary := &models.ProgressSummary{}

	query := `
		SELECT COUNT(*),
		       COALESCE(AVG(CASE WHEN total_questions > 0
		                         THEN answered_count * 100.0 / total_questions
		                         ELSE 0 END), 0)
		FROM training_sessions
		WHERE user_id = ?
	`
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&summary.TotalSessions, &summary.AverageCompletionPercent); err != nil {
		return nil, fmt.Errorf("failed to summarise training sessions: %w", err)
	}

	answersQuery := `
		SELECT COUNT(*)
		FROM training_answers
		WHERE user_id = ? AND TRIM(content) <> ''
	`
	if err := r.db.QueryRowContext(ctx, answersQuery, userID).Scan(&summary.CompletedAnswers); err != nil {
		return nil, fmt.Errorf("failed to count answers: %w", err)
	}

	return summary, nil
}

// RestoreSession writes a session row with its original ID, used by backup import
func (r *TrainingSessionRepository) RestoreSession(ctx context.Context, session models.TrainingSession) error {
	query := `
		INSERT INTO training_sessions (id, user_id, status, total_questions, answered_count, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	` + r.db.GetDialect().UpsertClause(
		[]string{"id"},
		[]string{"status", "total_questions", "answered_count", "started_at", "ended_at"},
	)
	_, err := r.db.ExecContext(ctx, query, session.ID, session.UserID, session.Status,
		session.TotalQuestions, session.AnsweredCount, session.StartedAt, session.EndedAt)
	if err != nil {
		return fmt.Errorf("failed to restore training session %d: %w", session.ID, err)
	}
	return nil
}
