package categorize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTaxonomyKeywordsFor(t *testing.T) {
	tax := DefaultTaxonomy()

	require.Equal(t, []string{"restaurant", "cafe", "food"}, tax.keywordsFor("Food & Dining"))
	require.Equal(t, []string{"petrol", "fuel", "taxi"}, tax.keywordsFor("Travel & Transportation"))
	require.Equal(t, []string{"electricity", "internet", "recharge"}, tax.keywordsFor("Utilities & Bills"))
	require.Nil(t, tax.keywordsFor("Others"))
	require.Nil(t, tax.keywordsFor(""))
}

func TestKeywordScore(t *testing.T) {
	keywords := []string{"restaurant", "cafe", "food"}

	require.Equal(t, 0.0, keywordScore("zq ltd", keywords))
	require.InDelta(t, 1.0/3, keywordScore("restaurant xyz", keywords), 1e-9)
	require.InDelta(t, 2.0/3, keywordScore("cafe food court", keywords), 1e-9)
	require.Equal(t, 1.0, keywordScore("restaurant cafe food", keywords))
	require.Equal(t, 0.0, keywordScore("anything", nil))
}

// A single keyword hit must clear the keyword tier threshold; the lists
// are sized three for exactly that reason.
func TestSingleHitClearsThreshold(t *testing.T) {
	tax := DefaultTaxonomy()
	for _, entry := range tax.Entries {
		require.Len(t, entry.Keywords, 3)
		score := keywordScore(entry.Keywords[0], entry.Keywords)
		require.Greater(t, score, keywordThreshold)
	}
}
