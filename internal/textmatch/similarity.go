package textmatch

import (
	"fmt"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// ContainmentScore is returned when one string contains the other.
const ContainmentScore = 0.8

// Scorer returns a similarity in [0,1] for two normalized strings.
type Scorer func(a, b string) float64

type ScorerKind string

const (
	ScorerLevenshtein ScorerKind = "levenshtein"
	ScorerTokenSort   ScorerKind = "token_sort"
)

// ScorerFor returns the scorer registered under kind.
func ScorerFor(kind ScorerKind) (Scorer, error) {
	switch kind {
	case ScorerLevenshtein, "":
		return Similarity, nil
	case ScorerTokenSort:
		return TokenSortSimilarity, nil
	default:
		return nil, fmt.Errorf("unknown scorer %q", kind)
	}
}

// Similarity scores a and b by Levenshtein distance, short-circuiting to
// ContainmentScore when one contains the other.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return ContainmentScore
	}
	ra, rb := []rune(a), []rune(b)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	return 1 - float64(editDistance(ra, rb))/float64(maxLen)
}

// TokenSortSimilarity compares a and b with their whitespace-split tokens
// sorted, so "perez juan" matches "juan perez". Inputs are expected to be
// normalized already.
func TokenSortSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return 0
	}
	return float64(fuzzy.TokenSortRatio(a, b)) / 100
}

// Levenshtein returns the unit-cost edit distance between a and b.
func Levenshtein(a, b string) int {
	return editDistance([]rune(a), []rune(b))
}

func editDistance(a, b []rune) int {
	m, n := len(a), len(b)
	d := make([][]int, m+1)
	for i := range d {
		d[i] = make([]int, n+1)
		d[i][0] = i
	}
	for j := 0; j <= n; j++ {
		d[0][j] = j
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			d[i][j] = min(
				d[i-1][j]+1,
				d[i][j-1]+1,
				d[i-1][j-1]+cost,
			)
		}
	}
	return d[m][n]
}
