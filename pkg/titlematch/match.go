package titlematch

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
)

// DefaultThreshold is the minimum score Rank keeps by default.
const DefaultThreshold = 0.80

// Match is a ranked candidate.
type Match struct {
	Index int // position in the candidate slice
	Title string
	Score float64
}

// Score compares a query with a title. Both are cleaned first. A title that
// contains the whole query scores 1; otherwise the best Jaro-Winkler similarity
// between the query and the full title or any same-length word window wins.
func Score(query, title string) float64 {
	q := Clean(query)
	t := Clean(title)
	if q == "" || t == "" {
		return 0
	}
	if strings.Contains(t, q) {
		return 1
	}

	best := float64(edlib.JaroWinklerSimilarity(q, t))

	qWords := len(strings.Fields(q))
	tFields := strings.Fields(t)
	for i := 0; i+qWords <= len(tFields); i++ {
		window := strings.Join(tFields[i:i+qWords], " ")
		if s := float64(edlib.JaroWinklerSimilarity(q, window)); s > best {
			best = s
		}
	}
	return best
}

// Rank scores every candidate against query and returns the ones at or above
// threshold, best first. Ties keep candidate order.
func Rank(query string, candidates []string, threshold float64) []Match {
	var matches []Match
	for i, c := range candidates {
		s := Score(query, c)
		if s >= threshold {
			matches = append(matches, Match{Index: i, Title: c, Score: s})
		}
	}
	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})
	return matches
}
