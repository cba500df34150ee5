package categorize

import "strings"

// TaxonomyEntry binds a keyword list to the categories whose names match
// one of the name hints. Keyword order within an entry is significant for
// documentation only; scoring counts distinct keyword hits.
type TaxonomyEntry struct {
	NameHints []string
	Keywords  []string
}

// Taxonomy is the versioned keyword configuration the keyword tier scores
// against. Declaration order is the tie-break order.
type Taxonomy struct {
	Version string
	Entries []TaxonomyEntry
}

// keywordsFor returns the keyword list for a category name, or nil when
// no entry matches. The first matching entry wins.
func (t Taxonomy) keywordsFor(categoryName string) []string {
	name := strings.ToLower(categoryName)
	for _, entry := range t.Entries {
		for _, hint := range entry.NameHints {
			if strings.Contains(name, hint) {
				return entry.Keywords
			}
		}
	}
	return nil
}

// DefaultTaxonomy returns the built-in keyword taxonomy. Keyword lists are
// kept short so that a single strong hit clears the 0.3 keyword-tier
// threshold.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		Version: "v1",
		Entries: []TaxonomyEntry{
			{
				NameHints: []string{"food", "dining", "restaurant"},
				Keywords:  []string{"restaurant", "cafe", "food"},
			},
			{
				NameHints: []string{"travel", "transport", "fuel"},
				Keywords:  []string{"petrol", "fuel", "taxi"},
			},
			{
				NameHints: []string{"shop", "retail", "store"},
				Keywords:  []string{"store", "shop", "market"},
			},
			{
				NameHints: []string{"health", "medical"},
				Keywords:  []string{"hospital", "pharmacy", "clinic"},
			},
			{
				NameHints: []string{"entertainment", "gym", "fitness"},
				Keywords:  []string{"movie", "cinema", "gym"},
			},
			{
				NameHints: []string{"utilit", "bill"},
				Keywords:  []string{"electricity", "internet", "recharge"},
			},
			{
				NameHints: []string{"education", "school"},
				Keywords:  []string{"school", "college", "tuition"},
			},
			{
				NameHints: []string{"insurance"},
				Keywords:  []string{"insurance", "premium", "policy"},
			},
			{
				NameHints: []string{"invest", "saving"},
				Keywords:  []string{"investment", "savings", "deposit"},
			},
		},
	}
}

// keywordScore is the fraction of a keyword list present in the text.
func keywordScore(text string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			hits++
		}
	}
	return float64(hits) / float64(len(keywords))
}
