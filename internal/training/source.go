package training

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/patrickmn/go-cache"
	"gopkg.in/yaml.v3"

	"moodjournal/internal/models"
)

// YAMLSource reads the catalog from a YAML file:
//
//	questions:
//	  - id: 1
//	    category: 감정 이해
//	    content: ...
//	    placeholder: ...
type YAMLSource struct {
	Path string
}

type yamlCatalog struct {
	Questions []models.QuestionCard `yaml:"questions"`
}

// FetchCatalog implements CatalogSource
func (s YAMLSource) FetchCatalog(ctx context.Context) ([]models.QuestionCard, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var doc yamlCatalog
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %s: %w", s.Path, err)
	}

	for i := range doc.Questions {
		if doc.Questions[i].Position == 0 {
			doc.Questions[i].Position = i + 1
		}
	}

	return doc.Questions, nil
}

const catalogCacheKey = "catalog"

// CachedSource shares one fetch of the wrapped source between sessions.
// Failed fetches are not cached.
type CachedSource struct {
	source CatalogSource
	cache  *cache.Cache
}

// NewCachedSource wraps source with a cache of the given lifetime
func NewCachedSource(source CatalogSource, ttl time.Duration) *CachedSource {
	return &CachedSource{
		source: source,
		cache:  cache.New(ttl, 2*ttl),
	}
}

// FetchCatalog implements CatalogSource
func (s *CachedSource) FetchCatalog(ctx context.Context) ([]models.QuestionCard, error) {
	if cached, found := s.cache.Get(catalogCacheKey); found {
		return copyCards(cached.([]models.QuestionCard)), nil
	}

	cards, err := s.source.FetchCatalog(ctx)
	if err != nil {
		return nil, err
	}

	s.cache.SetDefault(catalogCacheKey, copyCards(cards))
	return cards, nil
}

// Invalidate drops the cached catalog
func (s *CachedSource) Invalidate() {
	s.cache.Delete(catalogCacheKey)
}

func copyCards(cards []models.QuestionCard) []models.QuestionCard {
	out := make([]models.QuestionCard, len(cards))
	copy(out, cards)
	return out
}
