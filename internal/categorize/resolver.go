package categorize

import (
	"context"
	"strings"

	"gitlab.com/yelinaung/paynotify/internal/gemini"
	"gitlab.com/yelinaung/paynotify/internal/models"
)

// Resolver is one tier of the categorization cascade. Tiers are invoked
// in fixed priority order with first-success short-circuit; a (nil, nil)
// result means the tier has no opinion.
type Resolver interface {
	Name() string
	Resolve(ctx context.Context, merchant, description string) (*models.Category, error)
}

// Thresholds of the keyword and fuzzy tiers. Both comparisons are strict.
const (
	keywordThreshold    = 0.3
	suggestionThreshold = 0.1
	fuzzyThreshold      = 0.7
)

// exactResolver looks the normalized merchant up in the mapping cache.
type exactResolver struct {
	cache      *mappingCache
	categories CategorySource
}

func (r *exactResolver) Name() string { return "exact" }

func (r *exactResolver) Resolve(ctx context.Context, merchant, _ string) (*models.Category, error) {
	mapping, err := r.cache.Get(ctx, normalizeMerchant(merchant))
	if err != nil {
		return nil, err
	}
	if mapping == nil {
		return nil, nil
	}
	return r.categories.GetByID(ctx, mapping.CategoryID)
}

// keywordResolver scores the merchant+description text against the
// keyword taxonomy. The max-scoring category wins when its score exceeds
// the threshold; ties keep the earlier category.
type keywordResolver struct {
	categories CategorySource
	taxonomy   Taxonomy
}

func (r *keywordResolver) Name() string { return "keyword" }

func (r *keywordResolver) Resolve(ctx context.Context, merchant, description string) (*models.Category, error) {
	text := combinedText(merchant, description)

	categories, err := r.categories.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	var best *models.Category
	bestScore := 0.0
	for i := range categories {
		keywords := r.taxonomy.keywordsFor(categories[i].Name)
		if score := keywordScore(text, keywords); score > bestScore && score > keywordThreshold {
			bestScore = score
			best = &categories[i]
		}
	}
	return best, nil
}

// fuzzyResolver compares the merchant against every known mapping key by
// normalized edit distance.
type fuzzyResolver struct {
	cache      *mappingCache
	categories CategorySource
}

func (r *fuzzyResolver) Name() string { return "fuzzy" }

func (r *fuzzyResolver) Resolve(ctx context.Context, merchant, _ string) (*models.Category, error) {
	merchant = normalizeMerchant(merchant)

	mappings, err := r.cache.All(ctx)
	if err != nil {
		return nil, err
	}

	var best *models.MerchantCategoryMapping
	bestSimilarity := 0.0
	for i := range mappings {
		if sim := similarity(merchant, mappings[i].Merchant); sim > bestSimilarity && sim > fuzzyThreshold {
			bestSimilarity = sim
			best = &mappings[i]
		}
	}
	if best == nil {
		return nil, nil
	}
	return r.categories.GetByID(ctx, best.CategoryID)
}

// MLSuggester produces a learned category suggestion for a description.
// *gemini.Client satisfies this.
type MLSuggester interface {
	SuggestCategory(ctx context.Context, description string, availableCategories []string) (*gemini.CategorySuggestion, error)
}

// mlResolver is the reserved learned tier. It stays a no-op until a
// suggester is configured, so the default cascade ends at fuzzy.
type mlResolver struct {
	suggester  MLSuggester
	categories CategorySource
}

func (r *mlResolver) Name() string { return "ml" }

func (r *mlResolver) Resolve(ctx context.Context, merchant, description string) (*models.Category, error) {
	if r.suggester == nil {
		return nil, nil
	}

	categories, err := r.categories.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, cat := range categories {
		if cat.DeletedAt == nil {
			names = append(names, cat.Name)
		}
	}
	if len(names) == 0 {
		return nil, nil
	}

	suggestion, err := r.suggester.SuggestCategory(ctx, combinedText(merchant, description), names)
	if err != nil {
		return nil, err
	}

	for i := range categories {
		if strings.EqualFold(categories[i].Name, suggestion.Category) {
			return &categories[i], nil
		}
	}
	return nil, nil
}

func normalizeMerchant(merchant string) string {
	return strings.ToLower(strings.TrimSpace(merchant))
}

func combinedText(merchant, description string) string {
	return strings.ToLower(strings.TrimSpace(merchant) + " " + strings.TrimSpace(description))
}
