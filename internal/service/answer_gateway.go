package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"moodjournal/internal/training"
)

var (
	ErrAnswerEmpty   = errors.New("answer is empty")
	ErrAnswerTooLong = errors.New("answer is too long")
)

// AnswerWriter persists one answer of a training session
type AnswerWriter interface {
	UpsertAnswer(ctx context.Context, userID, sessionID, questionID int64, content string) error
}

// AnswerGateway records answers of one training session in the database.
// It satisfies training.Gateway.
type AnswerGateway struct {
	writer    AnswerWriter
	sessionID int64
	timeout   time.Duration
}

// NewAnswerGateway creates a gateway bound to a training session row
func NewAnswerGateway(writer AnswerWriter, sessionID int64, timeout time.Duration) *AnswerGateway {
	return &AnswerGateway{writer: writer, sessionID: sessionID, timeout: timeout}
}

// SubmitAnswer stores the answer. The write outlives a cancelled caller,
// bounded by the gateway timeout.
func (g *AnswerGateway) SubmitAnswer(ctx context.Context, userID, questionID int64, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrAnswerEmpty
	}
	if utf8.RuneCountInString(text) > training.MaxAnswerLength {
		return ErrAnswerTooLong
	}

	ctx = context.WithoutCancel(ctx)
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	if err := g.writer.UpsertAnswer(ctx, userID, g.sessionID, questionID, text); err != nil {
		return fmt.Errorf("failed to submit answer for question %d: %w", questionID, err)
	}
	return nil
}
