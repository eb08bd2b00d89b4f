package library

import (
	"database/sql"
	"fmt"
	"strings"
)

const movieColumns = `id, title, created_at, poster_url, format, quality, resolution, bitrate_mbps, fps,
	duration_minutes, size_gb, audio_languages, subtitle_languages, genres, is_favorite`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(row rowScanner) (*Movie, error) {
	var (
		m                         Movie
		created, duration         sql.NullInt64
		poster, format, qual, res sql.NullString
		bitrate, fps, size        sql.NullFloat64
		audio, subtitles, genres  string
		favorite                  bool
	)
	if err := row.Scan(&m.ID, &m.Title, &created, &poster, &format, &qual, &res, &bitrate, &fps,
		&duration, &size, &audio, &subtitles, &genres, &favorite); err != nil {
		return nil, err
	}
	m.CreatedAt = fromMillis(created)
	m.PosterURL = poster.String
	m.Format = strPtr(format)
	m.Quality = strPtr(qual)
	m.Resolution = strPtr(res)
	m.BitrateMbps = floatPtr(bitrate)
	m.FPS = floatPtr(fps)
	m.DurationMinutes = intPtr(duration)
	m.SizeGB = floatPtr(size)
	m.Favorite = favorite

	var err error
	if m.AudioLanguages, err = decodeList(audio); err != nil {
		return nil, err
	}
	if m.SubtitleLanguages, err = decodeList(subtitles); err != nil {
		return nil, err
	}
	if m.Genres, err = decodeList(genres); err != nil {
		return nil, err
	}
	return &m, nil
}

// upsertMovie inserts or replaces a movie. The favorite flag is only written on
// insert; an existing row keeps its flag.
func upsertMovie(q querier, m *Movie) error {
	_, err := q.Exec(`
		INSERT INTO movies (`+movieColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			created_at = excluded.created_at,
			poster_url = excluded.poster_url,
			format = excluded.format,
			quality = excluded.quality,
			resolution = excluded.resolution,
			bitrate_mbps = excluded.bitrate_mbps,
			fps = excluded.fps,
			duration_minutes = excluded.duration_minutes,
			size_gb = excluded.size_gb,
			audio_languages = excluded.audio_languages,
			subtitle_languages = excluded.subtitle_languages,
			genres = excluded.genres`,
		m.ID, m.Title, millis(m.CreatedAt), nullString(m.PosterURL), m.Format, m.Quality, m.Resolution,
		m.BitrateMbps, m.FPS, m.DurationMinutes, m.SizeGB,
		encodeList(m.AudioLanguages), encodeList(m.SubtitleLanguages), encodeList(m.Genres), m.Favorite,
	)
	if err != nil {
		return fmt.Errorf("upsert movie %s: %w", m.ID, mapSQLiteError(err))
	}
	return nil
}

// UpsertMovie inserts or updates a single movie.
func (s *Store) UpsertMovie(m *Movie) error { return upsertMovie(s.db, m) }

// UpsertMovie inserts or updates a single movie within a transaction.
func (t *Tx) UpsertMovie(m *Movie) error { return upsertMovie(t.tx, m) }

// UpsertMovies writes a page of movies as one transaction.
func (s *Store) UpsertMovies(movies []*Movie) error {
	if len(movies) == 0 {
		return nil
	}
	return s.inTx(func(q querier) error {
		for _, m := range movies {
			if err := upsertMovie(q, m); err != nil {
				return err
			}
		}
		return nil
	})
}

func getMovie(q querier, id string) (*Movie, error) {
	m, err := scanMovie(q.QueryRow(`SELECT `+movieColumns+` FROM movies WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get movie %s: %w", id, mapSQLiteError(err))
	}
	return m, nil
}

// GetMovie retrieves a movie by ID.
// Returns ErrNotFound if the movie does not exist.
func (s *Store) GetMovie(id string) (*Movie, error) { return getMovie(s.db, id) }

// GetMovie retrieves a movie by ID within a transaction.
func (t *Tx) GetMovie(id string) (*Movie, error) { return getMovie(t.tx, id) }

// GetMoviesByIDs returns the stored movies among ids, keyed by id.
// Unknown ids are absent from the map.
func (s *Store) GetMoviesByIDs(ids []string) (map[string]*Movie, error) {
	result := make(map[string]*Movie, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := s.db.Query(`SELECT `+movieColumns+` FROM movies WHERE id IN (`+placeholders(len(ids))+`)`,
		stringArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("get movies by ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		result[m.ID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movies: %w", err)
	}
	return result, nil
}

// ListMovieIDs returns every stored movie id, newest creation time first.
// Movies without a creation time sort last.
func (s *Store) ListMovieIDs() ([]string, error) {
	return listIDs(s.db, `SELECT id FROM movies ORDER BY created_at IS NULL, created_at DESC, id`)
}

func listIDs(q querier, query string, args ...any) ([]string, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ids: %w", err)
	}
	return ids, nil
}

func listMovies(q querier, f MovieFilter) ([]*Movie, int, error) {
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
		conditions = append(conditions, genreCondition("movies", len(f.Genres)))
		args = append(args, lowerArgs(f.Genres)...)
	}
	for _, tf := range []struct {
		column string
		values []string
	}{
		{"quality", f.Quality},
		{"format", f.Format},
		{"resolution", f.Resolution},
	} {
		if len(tf.values) == 0 {
			continue
		}
		conditions = append(conditions, fmt.Sprintf("lower(%s) IN (%s)", tf.column, placeholders(len(tf.values))))
		args = append(args, lowerArgs(tf.values)...)
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
	if err := q.QueryRow("SELECT COUNT(*) FROM movies "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count movies: %w", err)
	}

	query := "SELECT " + movieColumns + " FROM movies " + whereClause + " ORDER BY " + orderClause(f.Sort)
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list movies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan movie: %w", err)
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate movies: %w", err)
	}

	return results, total, nil
}

// ListMovies returns movies matching the filter with pagination.
// Returns (results, totalCount, error).
func (s *Store) ListMovies(f MovieFilter) ([]*Movie, int, error) { return listMovies(s.db, f) }

// ListMovies returns movies matching the filter within a transaction.
func (t *Tx) ListMovies(f MovieFilter) ([]*Movie, int, error) { return listMovies(t.tx, f) }

// SetMovieFavorite sets the local favorite flag.
// Returns ErrNotFound if the movie does not exist.
func (s *Store) SetMovieFavorite(id string, favorite bool) error {
	return setFavorite(s.db, "movies", id, favorite)
}

func setFavorite(q querier, table, id string, favorite bool) error {
	result, err := q.Exec("UPDATE "+table+" SET is_favorite = ? WHERE id = ?", favorite, id)
	if err != nil {
		return fmt.Errorf("set favorite %s: %w", id, mapSQLiteError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("set favorite %s: %w", id, ErrNotFound)
	}
	return nil
}

// CountMovies returns the number of cached movies.
func (s *Store) CountMovies() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM movies").Scan(&n); err != nil {
		return 0, fmt.Errorf("count movies: %w", err)
	}
	return n, nil
}

func genreCondition(table string, n int) string {
	return fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(%s.genres) g WHERE lower(g.value) IN (%s))", table, placeholders(n))
}

func orderClause(mode SortMode) string {
	if mode == SortRecentlyAdded {
		return "created_at IS NULL, created_at DESC, title COLLATE NOCASE, id"
	}
	return "title COLLATE NOCASE, id"
}
