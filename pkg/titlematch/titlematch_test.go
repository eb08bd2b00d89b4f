package titlematch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The Matrix", "matrix"},
		{"Léon: The Professional", "leon professional"},
		{"Fast & Furious", "fast and furious"},
		{"  Spider-Man:  No Way Home ", "spider man no way home"},
		{"La Casa de Papel", "casa de papel"},
		{"Amélie", "amelie"},
		{"The", "the"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestScore_Substring(t *testing.T) {
	assert.Equal(t, 1.0, Score("matrix", "The Matrix Reloaded"))
	assert.Equal(t, 1.0, Score("AMELIE", "Amélie"))
}

func TestScore_Typo(t *testing.T) {
	s := Score("matirx", "The Matrix")
	assert.Greater(t, s, 0.85)
	assert.Less(t, s, 1.0)
}

func TestScore_Empty(t *testing.T) {
	assert.Zero(t, Score("", "The Matrix"))
	assert.Zero(t, Score("matrix", ""))
}

func TestRank(t *testing.T) {
	candidates := []string{"Inception", "The Matrix", "Matrix Resurrections", "Interstellar"}

	matches := Rank("matrix", candidates, DefaultThreshold)
	require.Len(t, matches, 2)
	assert.Equal(t, 1, matches[0].Index, "ties keep candidate order")
	assert.Equal(t, 2, matches[1].Index)
}

func TestRank_NoMatches(t *testing.T) {
	assert.Empty(t, Rank("zzzz", []string{"Inception"}, DefaultThreshold))
}
