package library

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

const seriesColumns = `id, title, created_at, poster_url, total_seasons, total_episodes, genres, is_favorite`

func scanSeries(row rowScanner) (*Series, error) {
	var (
		sr       Series
		created  sql.NullInt64
		poster   sql.NullString
		genres   string
		favorite bool
	)
	if err := row.Scan(&sr.ID, &sr.Title, &created, &poster, &sr.TotalSeasons, &sr.TotalEpisodes, &genres, &favorite); err != nil {
		return nil, err
	}
	sr.CreatedAt = fromMillis(created)
	sr.PosterURL = poster.String
	sr.Favorite = favorite

	var err error
	if sr.Genres, err = decodeList(genres); err != nil {
		return nil, err
	}
	return &sr, nil
}

// upsertSeries inserts or updates a series row. Totals and the favorite flag
// are only written on insert; totals change through ApplySeriesDetails.
func upsertSeries(q querier, sr *Series) error {
	_, err := q.Exec(`
		INSERT INTO series (`+seriesColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			created_at = excluded.created_at,
			poster_url = excluded.poster_url,
			genres = excluded.genres`,
		sr.ID, sr.Title, millis(sr.CreatedAt), nullString(sr.PosterURL), sr.TotalSeasons, sr.TotalEpisodes,
		encodeList(sr.Genres), sr.Favorite,
	)
	if err != nil {
		return fmt.Errorf("upsert series %s: %w", sr.ID, mapSQLiteError(err))
	}
	return nil
}

// UpsertSeries writes a page of series as one transaction.
func (s *Store) UpsertSeries(series []*Series) error {
	if len(series) == 0 {
		return nil
	}
	return s.inTx(func(q querier) error {
		for _, sr := range series {
			if err := upsertSeries(q, sr); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpsertSeries inserts or updates a series within a transaction.
func (t *Tx) UpsertSeries(sr *Series) error { return upsertSeries(t.tx, sr) }

func getSeries(q querier, id string) (*Series, error) {
	sr, err := scanSeries(q.QueryRow(`SELECT `+seriesColumns+` FROM series WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get series %s: %w", id, mapSQLiteError(err))
	}
	return sr, nil
}

// GetSeries retrieves a series by ID.
// Returns ErrNotFound if the series does not exist.
func (s *Store) GetSeries(id string) (*Series, error) { return getSeries(s.db, id) }

// GetSeries retrieves a series by ID within a transaction.
func (t *Tx) GetSeries(id string) (*Series, error) { return getSeries(t.tx, id) }

// GetSeriesByIDs returns the stored series among ids, keyed by id.
func (s *Store) GetSeriesByIDs(ids []string) (map[string]*Series, error) {
	result := make(map[string]*Series, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := s.db.Query(`SELECT `+seriesColumns+` FROM series WHERE id IN (`+placeholders(len(ids))+`)`,
		stringArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("get series by ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		sr, err := scanSeries(rows)
		if err != nil {
			return nil, fmt.Errorf("scan series: %w", err)
		}
		result[sr.ID] = sr
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate series: %w", err)
	}
	return result, nil
}

// ListSeriesIDs returns every stored series id ordered by title.
func (s *Store) ListSeriesIDs() ([]string, error) {
	return listIDs(s.db, `SELECT id FROM series ORDER BY title COLLATE NOCASE, id`)
}

// UpdateSeriesGenres replaces the genre list of an existing series.
// Returns ErrNotFound if the series does not exist.
func (s *Store) UpdateSeriesGenres(id string, genres []string) error {
	result, err := s.db.Exec(`UPDATE series SET genres = ? WHERE id = ?`, encodeList(genres), id)
	if err != nil {
		return fmt.Errorf("update series genres %s: %w", id, mapSQLiteError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update series genres %s: %w", id, ErrNotFound)
	}
	return nil
}

func listSeries(q querier, f SeriesFilter) ([]*Series, int, error) {
	var conditions []string
	var args []any

	if query := strings.TrimSpace(f.Query); query != "" {
		conditions = append(conditions, "title LIKE ? COLLATE NOCASE")
		args = append(args, "%"+query+"%")
	}
	if f.FavoritesOnly {
		conditions = append(conditions, "is_favorite = 1")
	}
	if len(f.Genres) > 0 {
		conditions = append(conditions, genreCondition("series", len(f.Genres)))
		args = append(args, lowerArgs(f.Genres)...)
	}

	types := make([]string, 0, len(f.Technical))
	for t := range f.Technical {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		column, err := seasonColumn(TechnicalFilterType(t))
		if err != nil {
			return nil, 0, err
		}
		for _, v := range f.Technical[TechnicalFilterType(t)] {
			v = strings.TrimSpace(v)
			if v == "" || v == "-" {
				continue
			}
			conditions = append(conditions, "id IN (SELECT series_id FROM seasons WHERE lower("+column+") = ?)")
			args = append(args, strings.ToLower(v))
		}
	}
	if f.CreatedAfter != nil {
		conditions = append(conditions, "created_at > ?")
		args = append(args, f.CreatedAfter.UnixMilli())
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := q.QueryRow("SELECT COUNT(*) FROM series "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count series: %w", err)
	}

	query := "SELECT " + seriesColumns + " FROM series " + whereClause + " ORDER BY " + orderClause(f.Sort)
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list series: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Series
	for rows.Next() {
		sr, err := scanSeries(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan series: %w", err)
		}
		results = append(results, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate series: %w", err)
	}

	return results, total, nil
}

// ListSeries returns series matching the filter with pagination.
// Returns (results, totalCount, error).
func (s *Store) ListSeries(f SeriesFilter) ([]*Series, int, error) { return listSeries(s.db, f) }

// ListSeries returns series matching the filter within a transaction.
func (t *Tx) ListSeries(f SeriesFilter) ([]*Series, int, error) { return listSeries(t.tx, f) }

// SetSeriesFavorite sets the local favorite flag.
// Returns ErrNotFound if the series does not exist.
func (s *Store) SetSeriesFavorite(id string, favorite bool) error {
	return setFavorite(s.db, "series", id, favorite)
}

// CountSeries returns the number of cached series.
func (s *Store) CountSeries() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM series").Scan(&n); err != nil {
		return 0, fmt.Errorf("count series: %w", err)
	}
	return n, nil
}
