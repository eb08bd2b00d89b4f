package library

import (
	"fmt"

	"github.com/vmunix/shelfsync/pkg/titlematch"
)

type titleRow struct {
	id    string
	title string
}

func listTitles(q querier, table string) ([]titleRow, error) {
	rows, err := q.Query("SELECT id, title FROM " + table + " ORDER BY title COLLATE NOCASE, id")
	if err != nil {
		return nil, fmt.Errorf("list %s titles: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var out []titleRow
	for rows.Next() {
		var r titleRow
		if err := rows.Scan(&r.id, &r.title); err != nil {
			return nil, fmt.Errorf("scan title: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func rankIDs(rows []titleRow, query string, limit int) []string {
	titles := make([]string, len(rows))
	for i, r := range rows {
		titles[i] = r.title
	}
	matches := titlematch.Rank(query, titles, titlematch.DefaultThreshold)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = rows[m.Index].id
	}
	return ids
}

// FuzzySearchMovies ranks cached movies by title similarity to query.
// Accents, punctuation and leading articles are ignored, and small typos still match.
func (s *Store) FuzzySearchMovies(query string, limit int) ([]*Movie, error) {
	rows, err := listTitles(s.db, "movies")
	if err != nil {
		return nil, err
	}
	ids := rankIDs(rows, query, limit)
	byID, err := s.GetMoviesByIDs(ids)
	if err != nil {
		return nil, err
	}

	results := make([]*Movie, 0, len(ids))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			results = append(results, m)
		}
	}
	return results, nil
}

// FuzzySearchSeries ranks cached series by title similarity to query.
func (s *Store) FuzzySearchSeries(query string, limit int) ([]*Series, error) {
	rows, err := listTitles(s.db, "series")
	if err != nil {
		return nil, err
	}
	ids := rankIDs(rows, query, limit)
	byID, err := s.GetSeriesByIDs(ids)
	if err != nil {
		return nil, err
	}

	results := make([]*Series, 0, len(ids))
	for _, id := range ids {
		if sr, ok := byID[id]; ok {
			results = append(results, sr)
		}
	}
	return results, nil
}
