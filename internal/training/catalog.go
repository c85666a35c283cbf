package training

import (
	"context"
	"errors"
	"fmt"
	"log"

	"moodjournal/internal/models"
)

var (
	ErrEmptyCatalog    = errors.New("catalog has no questions")
	ErrDuplicateCard   = errors.New("duplicate question id in catalog")
	ErrUnknownQuestion = errors.New("question is not part of the catalog")
)

// CatalogSource supplies the ordered question cards of a training session
type CatalogSource interface {
	FetchCatalog(ctx context.Context) ([]models.QuestionCard, error)
}

// Catalog is the ordered, immutable list of question cards of a session
type Catalog struct {
	cards []models.QuestionCard
	index map[int64]int
}

// NewCatalog builds a catalog, keeping the given order
func NewCatalog(cards []models.QuestionCard) (*Catalog, error) {
	if len(cards) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		cards: make([]models.QuestionCard, len(cards)),
		index: make(map[int64]int, len(cards)),
	}
	copy(c.cards, cards)

	for i, card := range c.cards {
		if _, exists := c.index[card.ID]; exists {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateCard, card.ID)
		}
		c.index[card.ID] = i
	}

	return c, nil
}

// DefaultCatalog returns the built-in six question catalog
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultCards)
	if err != nil {
		// defaultCards is a literal; this only trips on an edit mistake
		panic(err)
	}
	return c
}

// LoadCatalog fetches the catalog from src and falls back to the default one.
// It never fails, so a session can always start.
func LoadCatalog(ctx context.Context, src CatalogSource) *Catalog {
	if src == nil {
		return DefaultCatalog()
	}

	cards, err := src.FetchCatalog(ctx)
	if err != nil {
		log.Printf("Catalog load failed, using default catalog: %v", err)
		return DefaultCatalog()
	}

	c, err := NewCatalog(cards)
	if err != nil {
		log.Printf("Catalog invalid, using default catalog: %v", err)
		return DefaultCatalog()
	}

	return c
}

// Len returns the number of cards
func (c *Catalog) Len() int {
	return len(c.cards)
}

// Cards returns a copy of the ordered cards
func (c *Catalog) Cards() []models.QuestionCard {
	out := make([]models.QuestionCard, len(c.cards))
	copy(out, c.cards)
	return out
}

// At returns the card at position i
func (c *Catalog) At(i int) models.QuestionCard {
	return c.cards[i]
}

// First returns the first card
func (c *Catalog) First() models.QuestionCard {
	return c.cards[0]
}

// IndexOf returns the position of the card with the given id
func (c *Catalog) IndexOf(id int64) (int, bool) {
	i, ok := c.index[id]
	return i, ok
}

// Contains reports whether id belongs to the catalog
func (c *Catalog) Contains(id int64) bool {
	_, ok := c.index[id]
	return ok
}

var defaultCards = []models.QuestionCard{
	{
		ID:          1,
		Category:    "감정 이해",
		Content:     "오늘 가장 강하게 느낀 감정은 무엇이었나요? 그 감정은 어떤 상황에서 생겼나요?",
		Placeholder: "예: 회의에서 의견이 무시됐을 때 서운함을 느꼈어요.",
		Position:    1,
	},
	{
		ID:          2,
		Category:    "자기 이해",
		Content:     "요즘 나를 가장 잘 설명하는 단어 세 가지는 무엇인가요?",
		Placeholder: "예: 성실함, 조급함, 호기심",
		Position:    2,
	},
	{
		ID:          3,
		Category:    "관계 이해",
		Content:     "최근 나에게 힘이 되어 준 사람은 누구이며, 그 사람에게 어떤 마음이 드나요?",
		Placeholder: "예: 먼저 연락해 준 친구에게 고마운 마음이 들어요.",
		Position:    3,
	},
	{
		ID:          4,
		Category:    "목표 설정",
		Content:     "이번 주에 나를 위해 실천하고 싶은 작은 목표 하나를 적어 보세요.",
		Placeholder: "예: 자기 전 10분 동안 스트레칭하기",
		Position:    4,
	},
	{
		ID:          5,
		Category:    "감사 표현",
		Content:     "오늘 감사했던 일 세 가지를 떠올려 보세요.",
		Placeholder: "예: 따뜻한 점심, 맑은 날씨, 동료의 도움",
		Position:    5,
	},
	{
		ID:          6,
		Category:    "미래 계획",
		Content:     "1년 뒤의 나는 어떤 모습이었으면 좋겠나요?",
		Placeholder: "예: 내 감정을 더 편안하게 표현하는 사람",
		Position:    6,
	},
}
