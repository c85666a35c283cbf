package training

import (
	"strings"
	"unicode/utf8"
)

// MaxAnswerLength is the maximum number of characters kept per answer
const MaxAnswerLength = 500

// AnswerStore holds the answers of one session, keyed by question id
type AnswerStore struct {
	answers map[int64]string
}

// NewAnswerStore creates an empty answer store
func NewAnswerStore() *AnswerStore {
	return &AnswerStore{answers: make(map[int64]string)}
}

// Set replaces the answer of a question, capped at MaxAnswerLength characters
func (s *AnswerStore) Set(questionID int64, text string) {
	s.answers[questionID] = truncate(text, MaxAnswerLength)
}

// Get returns the answer of a question, or "" if none was given
func (s *AnswerStore) Get(questionID int64) string {
	return s.answers[questionID]
}

// ClearAll drops every answer
func (s *AnswerStore) ClearAll() {
	s.answers = make(map[int64]string)
}

// AnsweredCount counts catalog questions with a non-blank answer
func (s *AnswerStore) AnsweredCount(c *Catalog) int {
	count := 0
	for _, card := range c.cards {
		if IsAnswered(s.answers[card.ID]) {
			count++
		}
	}
	return count
}

// IsComplete reports whether every catalog question has a non-blank answer
func (s *AnswerStore) IsComplete(c *Catalog) bool {
	for _, card := range c.cards {
		if !IsAnswered(s.answers[card.ID]) {
			return false
		}
	}
	return true
}

// FirstUnanswered returns the first catalog question without an answer
func (s *AnswerStore) FirstUnanswered(c *Catalog) (int64, bool) {
	for _, card := range c.cards {
		if !IsAnswered(s.answers[card.ID]) {
			return card.ID, true
		}
	}
	return 0, false
}

// IsAnswered reports whether text counts as an answer
func IsAnswered(text string) bool {
	return strings.TrimSpace(text) != ""
}

func truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit])
}
