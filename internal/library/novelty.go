package library

import "time"

// Novelties are items created after the user's last-seen watermark.
type Novelties struct {
	Movies []*Movie
	Series []*Series
}

// Count returns the number of novel items.
func (n *Novelties) Count() int { return len(n.Movies) + len(n.Series) }

// ListNovelties returns movies and series whose creation time is after since,
// newest first. Items without a creation time are never novel.
func (s *Store) ListNovelties(since time.Time) (*Novelties, error) {
	movies, _, err := s.ListMovies(MovieFilter{CreatedAfter: &since, Sort: SortRecentlyAdded})
	if err != nil {
		return nil, err
	}
	series, _, err := s.ListSeries(SeriesFilter{CreatedAfter: &since, Sort: SortRecentlyAdded})
	if err != nil {
		return nil, err
	}
	return &Novelties{Movies: movies, Series: series}, nil
}
