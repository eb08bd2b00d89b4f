// Package library is the local relational cache for the synchronized catalog
// (movies, series, seasons, episodes).
package library

import (
	"fmt"
	"strings"
	"time"
)

// Scope selects which entity family an operation touches.
type Scope string

const (
	ScopeAll    Scope = "all"
	ScopeMovies Scope = "movies"
	ScopeSeries Scope = "series"
)

// ParseScope parses a scope name. Empty input yields ScopeAll.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return ScopeAll, nil
	case "movies", "movie":
		return ScopeMovies, nil
	case "series", "shows":
		return ScopeSeries, nil
	default:
		return "", fmt.Errorf("unknown scope %q (want all, movies or series)", s)
	}
}

// IncludesMovies reports whether the scope covers movies.
func (s Scope) IncludesMovies() bool { return s == ScopeAll || s == ScopeMovies }

// IncludesSeries reports whether the scope covers the series family.
func (s Scope) IncludesSeries() bool { return s == ScopeAll || s == ScopeSeries }

// SortMode orders list results.
type SortMode string

const (
	SortAlphabetical  SortMode = "Alphabetical"
	SortRecentlyAdded SortMode = "RecentlyAdded"
)

// Movie is a cached movie. Technical attributes are nil until a detail sync
// observes them.
type Movie struct {
	ID                string
	Title             string
	CreatedAt         *time.Time
	PosterURL         string
	Format            *string
	Quality           *string
	Resolution        *string
	BitrateMbps       *float64
	FPS               *float64
	DurationMinutes   *int
	SizeGB            *float64
	AudioLanguages    []string
	SubtitleLanguages []string
	Genres            []string
	Favorite          bool
}

// Series is a cached series. TotalSeasons and TotalEpisodes mirror the stored
// season and episode rows.
type Series struct {
	ID            string
	Title         string
	CreatedAt     *time.Time
	PosterURL     string
	TotalSeasons  int
	TotalEpisodes int
	Genres        []string
	Favorite      bool
}

// Season holds technical attributes aggregated from its episodes.
type Season struct {
	ID                   string
	SeriesID             string
	Number               int
	Format               *string
	Quality              *string
	Resolution           *string
	BitrateMbps          *float64
	FPS                  *float64
	TotalDurationMinutes *int
	TotalSizeGB          *float64
	AudioLanguages       []string
	SubtitleLanguages    []string
	EpisodeCount         int
}

// Episode is a single episode of a season.
type Episode struct {
	ID              string
	SeriesID        string
	SeasonID        string
	SeasonNumber    int
	Number          int
	Title           string
	DurationMinutes *int
	SizeGB          *float64
}

// SeriesDetail is a series with its seasons and episodes.
type SeriesDetail struct {
	Series   *Series
	Seasons  []*Season
	Episodes map[string][]*Episode // season id -> episodes
}
