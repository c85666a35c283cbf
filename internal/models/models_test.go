package models

import (
	"testing"
	"time"
)

func TestSessionIsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{
			name:      "future expiration",
			expiresAt: time.Now().Add(1 * time.Hour),
			want:      false,
		},
		{
			name:      "just expired",
			expiresAt: time.Now().Add(-1 * time.Second),
			want:      true,
		},
		{
			name:      "expired yesterday",
			expiresAt: time.Now().Add(-24 * time.Hour),
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := Session{
				ID:        "test-session",
				UserID:    1,
				ExpiresAt: tt.expiresAt,
				CreatedAt: time.Now().Add(-1 * time.Hour),
			}
			result := session.IsExpired()
			if result != tt.want {
				t.Errorf("Session.IsExpired() = %v, want %v", result, tt.want)
			}
		})
	}
}

func TestTrainingSessionCompletionPercent(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		answered int
		want     float64
	}{
		{name: "no questions", total: 0, answered: 0, want: 0},
		{name: "half way", total: 6, answered: 3, want: 50},
		{name: "complete", total: 6, answered: 6, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := TrainingSession{TotalQuestions: tt.total, AnsweredCount: tt.answered}
			if got := session.CompletionPercent(); got != tt.want {
				t.Errorf("CompletionPercent() = %v, want %v", got, tt.want)
			}
		})
	}
}
