package models

import "time"

// Training session statuses
const (
	TrainingStatusActive    = "active"
	TrainingStatusCompleted = "completed"
	TrainingStatusAbandoned = "abandoned"
)

// TrainingSession records one run through the question catalog
type TrainingSession struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	Status         string     `json:"status"`
	TotalQuestions int        `json:"total_questions"`
	AnsweredCount  int        `json:"answered_count"`
	StartedAt      time.Time  `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
}

// CompletionPercent returns the share of answered questions as a percentage
func (s *TrainingSession) CompletionPercent() float64 {
	if s.TotalQuestions == 0 {
		return 0
	}
	return float64(s.AnsweredCount) / float64(s.TotalQuestions) * 100
}

// TrainingAnswer is a persisted answer to a question card
type TrainingAnswer struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	SessionID  int64     `json:"session_id"`
	QuestionID int64     `json:"question_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AnswerWithQuestion joins a saved answer with the prompt it answers
type AnswerWithQuestion struct {
	Answer   TrainingAnswer
	Category string
	Question string
}

// ProgressSummary aggregates a user's training history
type ProgressSummary struct {
	TotalSessions            int     `json:"total_sessions"`
	CompletedAnswers         int     `json:"completed_answers"`
	AverageCompletionPercent float64 `json:"average_completion_percent"`
}
