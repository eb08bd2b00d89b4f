package library

import "time"

// MovieFilter specifies criteria for listing movies.
// Values within one technical attribute are alternatives; attributes combine with AND.
type MovieFilter struct {
	Query         string // case-insensitive title substring
	Genres        []string
	FavoritesOnly bool
	Quality       []string
	Format        []string
	Resolution    []string
	CreatedAfter  *time.Time
	Sort          SortMode
	Limit         int // 0 = no limit
	Offset        int
}

// TechnicalFilterType names a season attribute series can be filtered by.
type TechnicalFilterType string

const (
	FilterQuality    TechnicalFilterType = "quality"
	FilterFormat     TechnicalFilterType = "format"
	FilterResolution TechnicalFilterType = "resolution"
)

// SeriesFilter specifies criteria for listing series.
// Every technical (type, value) pair must be matched by at least one season.
type SeriesFilter struct {
	Query         string
	Genres        []string
	FavoritesOnly bool
	Technical     map[TechnicalFilterType][]string
	CreatedAfter  *time.Time
	Sort          SortMode
	Limit         int
	Offset        int
}
