package categorize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"abc store", "abc store", 0},
		{"abc stor", "abc store", 1},
		{"kitten", "sitting", 3},
		{"café", "cafe", 1},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, levenshtein(tt.a, tt.b), "levenshtein(%q, %q)", tt.a, tt.b)
		require.Equal(t, tt.want, levenshtein(tt.b, tt.a), "levenshtein(%q, %q)", tt.b, tt.a)
	}
}

func TestSimilarity(t *testing.T) {
	require.Equal(t, 1.0, similarity("", ""))
	require.Equal(t, 1.0, similarity("abc store", "abc store"))
	require.Equal(t, 0.0, similarity("abc", "xyz"))
	require.InDelta(t, 0.889, similarity("abc stor", "abc store"), 0.001)
}
