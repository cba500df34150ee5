// Package categorize resolves merchants and descriptions to expense
// categories through an ordered cascade of resolver tiers, backed by a
// learned, TTL-cached merchant→category mapping store.
package categorize

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gitlab.com/yelinaung/paynotify/internal/logger"
	"gitlab.com/yelinaung/paynotify/internal/models"
)

// CategorySource supplies category rows. *repository.CategoryRepository
// satisfies this.
type CategorySource interface {
	GetAll(ctx context.Context) ([]models.Category, error)
	GetByID(ctx context.Context, id int) (*models.Category, error)
}

// MappingStore reads and writes merchant→category mappings.
// *repository.MerchantMappingRepository satisfies this.
type MappingStore interface {
	GetAll(ctx context.Context) ([]models.MerchantCategoryMapping, error)
	Upsert(ctx context.Context, merchant string, categoryID int, confidence float64) error
}

// Fixed per-tier confidence labels. These are heuristic tags, not
// statistical probabilities.
const (
	ConfidenceExact   = 0.95
	ConfidenceKeyword = 0.8
	ConfidenceFuzzy   = 0.6
	ConfidenceNone    = 0.0
)

// DefaultMappingConfidence is used for explicitly added mappings; learned
// corrections get full confidence.
const DefaultMappingConfidence = 0.8

// Suggestion is one ranked category suggestion.
type Suggestion struct {
	Category   models.Category `json:"category"`
	Score      float64         `json:"score"`
	Confidence float64         `json:"confidence"`
}

// Engine resolves categories through the exact → keyword → fuzzy → ml
// cascade and learns from corrections.
type Engine struct {
	categories CategorySource
	mappings   MappingStore
	cache      *mappingCache
	taxonomy   Taxonomy

	exact   *exactResolver
	keyword *keywordResolver
	fuzzy   *fuzzyResolver
	ml      *mlResolver
	cascade []Resolver
}

// Option customizes an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	ttl       time.Duration
	now       func() time.Time
	taxonomy  Taxonomy
	suggester MLSuggester
}

// WithCacheTTL bounds how long the mapping snapshot may serve reads.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *engineConfig) { c.ttl = ttl }
}

// WithClock injects the cache clock. Test use.
func WithClock(now func() time.Time) Option {
	return func(c *engineConfig) { c.now = now }
}

// WithTaxonomy replaces the built-in keyword taxonomy.
func WithTaxonomy(t Taxonomy) Option {
	return func(c *engineConfig) { c.taxonomy = t }
}

// WithMLSuggester enables the reserved learned tier.
func WithMLSuggester(s MLSuggester) Option {
	return func(c *engineConfig) { c.suggester = s }
}

// NewEngine creates a categorization engine.
func NewEngine(categories CategorySource, mappings MappingStore, opts ...Option) *Engine {
	cfg := engineConfig{taxonomy: DefaultTaxonomy()}
	for _, opt := range opts {
		opt(&cfg)
	}

	cache := newMappingCache(mappings, cfg.ttl, cfg.now)

	e := &Engine{
		categories: categories,
		mappings:   mappings,
		cache:      cache,
		taxonomy:   cfg.taxonomy,
		exact:      &exactResolver{cache: cache, categories: categories},
		keyword:    &keywordResolver{categories: categories, taxonomy: cfg.taxonomy},
		fuzzy:      &fuzzyResolver{cache: cache, categories: categories},
		ml:         &mlResolver{suggester: cfg.suggester, categories: categories},
	}
	e.cascade = []Resolver{e.exact, e.keyword, e.fuzzy, e.ml}
	return e
}

// Categorize resolves a merchant and description to a category, or nil
// when no tier matches. A tier failure is logged and the cascade moves
// on; categorization never aborts ingestion on its own.
func (e *Engine) Categorize(ctx context.Context, merchant, description string) (*models.Category, error) {
	for _, resolver := range e.cascade {
		cat, err := resolver.Resolve(ctx, merchant, description)
		if err != nil {
			logger.Log.Warn().Err(err).
				Str("tier", resolver.Name()).
				Str("merchant", logger.SanitizeText(merchant)).
				Msg("categorization tier failed")
			continue
		}
		if cat != nil {
			logger.Log.Debug().
				Str("tier", resolver.Name()).
				Int("category_id", cat.ID).
				Msg("categorized")
			return cat, nil
		}
	}
	return nil, nil
}

// GetConfidenceScore recomputes which tier would match and returns its
// fixed confidence label. The reserved ml tier never contributes.
func (e *Engine) GetConfidenceScore(ctx context.Context, merchant, description string) float64 {
	if cat, err := e.exact.Resolve(ctx, merchant, description); err == nil && cat != nil {
		return ConfidenceExact
	}
	if cat, err := e.keyword.Resolve(ctx, merchant, description); err == nil && cat != nil {
		return ConfidenceKeyword
	}
	if cat, err := e.fuzzy.Resolve(ctx, merchant, description); err == nil && cat != nil {
		return ConfidenceFuzzy
	}
	return ConfidenceNone
}

// Learn records a correction: the merchant maps to the given category
// with full confidence. The cache is invalidated synchronously so later
// reads see the correction.
func (e *Engine) Learn(ctx context.Context, merchant, description string, category *models.Category) error {
	return e.LearnWith(ctx, e.mappings, merchant, description, category)
}

// LearnWith is Learn against an explicit store, letting callers bind the
// mapping upsert into their own transaction.
func (e *Engine) LearnWith(ctx context.Context, store MappingStore, merchant, _ string, category *models.Category) error {
	key := normalizeMerchant(merchant)
	if key == "" {
		return fmt.Errorf("merchant is required")
	}
	if err := store.Upsert(ctx, key, category.ID, 1.0); err != nil {
		return fmt.Errorf("failed to learn mapping: %w", err)
	}
	e.cache.Invalidate()

	logger.Log.Info().
		Str("merchant", logger.SanitizeText(key)).
		Str("category", category.Name).
		Msg("learned categorization")
	return nil
}

// AddMapping records an explicit merchant→category mapping.
func (e *Engine) AddMapping(ctx context.Context, merchant string, categoryID int, confidence float64) error {
	key := normalizeMerchant(merchant)
	if key == "" {
		return fmt.Errorf("merchant is required")
	}
	if confidence <= 0 || confidence > 1 {
		confidence = DefaultMappingConfidence
	}
	if _, err := e.categories.GetByID(ctx, categoryID); err != nil {
		return fmt.Errorf("unknown category %d: %w", categoryID, err)
	}
	if err := e.mappings.Upsert(ctx, key, categoryID, confidence); err != nil {
		return fmt.Errorf("failed to add mapping: %w", err)
	}
	e.cache.Invalidate()
	return nil
}

// GetSuggestedCategories returns up to three keyword-tier suggestions
// scoring above the suggestion threshold, best first, each annotated with
// the independently computed confidence.
func (e *Engine) GetSuggestedCategories(ctx context.Context, merchant, description string) ([]Suggestion, error) {
	text := combinedText(merchant, description)

	categories, err := e.categories.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	confidence := e.GetConfidenceScore(ctx, merchant, description)

	var suggestions []Suggestion
	for _, cat := range categories {
		keywords := e.taxonomy.keywordsFor(cat.Name)
		if score := keywordScore(text, keywords); score > suggestionThreshold {
			suggestions = append(suggestions, Suggestion{
				Category:   cat,
				Score:      score,
				Confidence: confidence,
			})
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})
	if len(suggestions) > 3 {
		suggestions = suggestions[:3]
	}
	return suggestions, nil
}

// InvalidateCache drops the mapping snapshot. Exposed for write paths
// that bypass the engine (none in normal operation).
func (e *Engine) InvalidateCache() {
	e.cache.Invalidate()
}
