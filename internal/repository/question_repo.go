package repository

import (
	"context"
	"fmt"

	"moodjournal/internal/database"
	"moodjournal/internal/models"
)

// QuestionRepository reads and seeds the question catalog
type QuestionRepository struct {
	db database.DBTX
}

// NewQuestionRepository creates a new question repository
func NewQuestionRepository(db database.DBTX) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// FetchCatalog returns every question card in presentation order
func (r *QuestionRepository) FetchCatalog(ctx context.Context) ([]models.QuestionCard, error) {
	query := `
		SELECT id, category, content, placeholder, position
		FROM question_cards
		ORDER BY position, id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query question cards: %w", err)
	}
	defer rows.Close()

	var cards []models.QuestionCard
	for rows.Next() {
		var card models.QuestionCard
		if err := rows.Scan(&card.ID, &card.Category, &card.Content, &card.Placeholder, &card.Position); err != nil {
			return nil, fmt.Errorf("failed to scan question card: %w", err)
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// Count returns the number of stored question cards
func (r *QuestionRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM question_cards").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count question cards: %w", err)
	}
	return count, nil
}

// UpsertCard inserts a card or overwrites the card with the same ID
func (r *QuestionRepository) UpsertCard(ctx context.Context, card models.QuestionCard) error {
	query := `
		INSERT INTO question_cards (id, category, content, placeholder, position)
		VALUES (?, ?, ?, ?, ?)
	` + r.db.GetDialect().UpsertClause(
		[]string{"id"},
		[]string{"category", "content", "placeholder", "position"},
	)
	if _, err := r.db.ExecContext(ctx, query, card.ID, card.Category, card.Content, card.Placeholder, card.Position); err != nil {
		return fmt.Errorf("failed to save question card %d: %w", card.ID, err)
	}
	return nil
}

// SeedIfEmpty stores cards when the table has none yet and reports whether it did
func (r *QuestionRepository) SeedIfEmpty(ctx context.Context, cards []models.QuestionCard) (bool, error) {
	count, err := r.Count(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	for i, card := range cards {
		if card.Position == 0 {
			card.Position = i + 1
		}
		if err := r.UpsertCard(ctx, card); err != nil {
			return false, err
		}
	}
	return true, nil
}
