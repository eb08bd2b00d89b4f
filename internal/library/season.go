package library

import (
	"database/sql"
	"fmt"
)

const seasonColumns = `id, series_id, season_number, format, quality, resolution, bitrate_mbps, fps,
	total_duration_minutes, total_size_gb, audio_languages, subtitle_languages, episode_count`

const episodeColumns = `id, series_id, season_id, season_number, episode_number, title, duration_minutes, size_gb`

func scanSeason(row rowScanner) (*Season, error) {
	var (
		sn                 Season
		format, qual, res  sql.NullString
		bitrate, fps, size sql.NullFloat64
		duration           sql.NullInt64
		audio, subtitles   string
	)
	if err := row.Scan(&sn.ID, &sn.SeriesID, &sn.Number, &format, &qual, &res, &bitrate, &fps,
		&duration, &size, &audio, &subtitles, &sn.EpisodeCount); err != nil {
		return nil, err
	}
	sn.Format = strPtr(format)
	sn.Quality = strPtr(qual)
	sn.Resolution = strPtr(res)
	sn.BitrateMbps = floatPtr(bitrate)
	sn.FPS = floatPtr(fps)
	sn.TotalDurationMinutes = intPtr(duration)
	sn.TotalSizeGB = floatPtr(size)

	var err error
	if sn.AudioLanguages, err = decodeList(audio); err != nil {
		return nil, err
	}
	if sn.SubtitleLanguages, err = decodeList(subtitles); err != nil {
		return nil, err
	}
	return &sn, nil
}

func scanEpisode(row rowScanner) (*Episode, error) {
	var (
		e        Episode
		duration sql.NullInt64
		size     sql.NullFloat64
	)
	if err := row.Scan(&e.ID, &e.SeriesID, &e.SeasonID, &e.SeasonNumber, &e.Number, &e.Title, &duration, &size); err != nil {
		return nil, err
	}
	e.DurationMinutes = intPtr(duration)
	e.SizeGB = floatPtr(size)
	return &e, nil
}

func upsertSeason(q querier, sn *Season) error {
	_, err := q.Exec(`
		INSERT INTO seasons (`+seasonColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			series_id = excluded.series_id,
			season_number = excluded.season_number,
			format = excluded.format,
			quality = excluded.quality,
			resolution = excluded.resolution,
			bitrate_mbps = excluded.bitrate_mbps,
			fps = excluded.fps,
			total_duration_minutes = excluded.total_duration_minutes,
			total_size_gb = excluded.total_size_gb,
			audio_languages = excluded.audio_languages,
			subtitle_languages = excluded.subtitle_languages,
			episode_count = excluded.episode_count`,
		sn.ID, sn.SeriesID, sn.Number, sn.Format, sn.Quality, sn.Resolution, sn.BitrateMbps, sn.FPS,
		sn.TotalDurationMinutes, sn.TotalSizeGB, encodeList(sn.AudioLanguages), encodeList(sn.SubtitleLanguages),
		sn.EpisodeCount,
	)
	if err != nil {
		return fmt.Errorf("upsert season %s: %w", sn.ID, mapSQLiteError(err))
	}
	return nil
}

func upsertEpisode(q querier, e *Episode) error {
	_, err := q.Exec(`
		INSERT INTO episodes (`+episodeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			series_id = excluded.series_id,
			season_id = excluded.season_id,
			season_number = excluded.season_number,
			episode_number = excluded.episode_number,
			title = excluded.title,
			duration_minutes = excluded.duration_minutes,
			size_gb = excluded.size_gb`,
		e.ID, e.SeriesID, e.SeasonID, e.SeasonNumber, e.Number, e.Title, e.DurationMinutes, e.SizeGB,
	)
	if err != nil {
		return fmt.Errorf("upsert episode %s: %w", e.ID, mapSQLiteError(err))
	}
	return nil
}

// ApplySeriesDetails writes seasons and episodes for a series and recomputes
// the series totals from the stored rows, all in one transaction.
// Returns ErrNotFound if the series does not exist.
func (s *Store) ApplySeriesDetails(seriesID string, seasons []*Season, episodes []*Episode) error {
	return s.inTx(func(q querier) error {
		var exists int
		if err := q.QueryRow(`SELECT COUNT(*) FROM series WHERE id = ?`, seriesID).Scan(&exists); err != nil {
			return fmt.Errorf("check series %s: %w", seriesID, err)
		}
		if exists == 0 {
			return fmt.Errorf("apply details for series %s: %w", seriesID, ErrNotFound)
		}

		for _, sn := range seasons {
			if err := upsertSeason(q, sn); err != nil {
				return err
			}
		}
		for _, e := range episodes {
			if err := upsertEpisode(q, e); err != nil {
				return err
			}
		}

		_, err := q.Exec(`
			UPDATE series SET
				total_seasons = (SELECT COUNT(*) FROM seasons WHERE series_id = ?),
				total_episodes = (SELECT COUNT(*) FROM episodes WHERE series_id = ?)
			WHERE id = ?`, seriesID, seriesID, seriesID)
		if err != nil {
			return fmt.Errorf("update series totals %s: %w", seriesID, mapSQLiteError(err))
		}
		return nil
	})
}

func listSeasons(q querier, seriesID string) ([]*Season, error) {
	rows, err := q.Query(`SELECT `+seasonColumns+` FROM seasons WHERE series_id = ? ORDER BY season_number, id`, seriesID)
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Season
	for rows.Next() {
		sn, err := scanSeason(rows)
		if err != nil {
			return nil, fmt.Errorf("scan season: %w", err)
		}
		results = append(results, sn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seasons: %w", err)
	}
	return results, nil
}

// ListSeasons returns the seasons of a series ordered by season number.
func (s *Store) ListSeasons(seriesID string) ([]*Season, error) { return listSeasons(s.db, seriesID) }

// ListSeasons returns the seasons of a series within a transaction.
func (t *Tx) ListSeasons(seriesID string) ([]*Season, error) { return listSeasons(t.tx, seriesID) }

func listEpisodes(q querier, column, id string) ([]*Episode, error) {
	rows, err := q.Query(`SELECT `+episodeColumns+` FROM episodes WHERE `+column+` = ? ORDER BY season_number, episode_number, id`, id)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Episode
	for rows.Next() {
		e, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		results = append(results, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate episodes: %w", err)
	}
	return results, nil
}

// ListEpisodes returns the episodes of a season.
func (s *Store) ListEpisodes(seasonID string) ([]*Episode, error) {
	return listEpisodes(s.db, "season_id", seasonID)
}

// ListSeriesEpisodes returns every episode of a series.
func (s *Store) ListSeriesEpisodes(seriesID string) ([]*Episode, error) {
	return listEpisodes(s.db, "series_id", seriesID)
}

// GetSeriesDetail loads a series with its seasons and episodes.
// Returns ErrNotFound if the series does not exist.
func (s *Store) GetSeriesDetail(seriesID string) (*SeriesDetail, error) {
	sr, err := s.GetSeries(seriesID)
	if err != nil {
		return nil, err
	}
	seasons, err := s.ListSeasons(seriesID)
	if err != nil {
		return nil, err
	}
	episodes, err := s.ListSeriesEpisodes(seriesID)
	if err != nil {
		return nil, err
	}

	detail := &SeriesDetail{Series: sr, Seasons: seasons, Episodes: make(map[string][]*Episode)}
	for _, e := range episodes {
		detail.Episodes[e.SeasonID] = append(detail.Episodes[e.SeasonID], e)
	}
	return detail, nil
}

func seasonColumn(t TechnicalFilterType) (string, error) {
	switch t {
	case FilterQuality:
		return "quality", nil
	case FilterFormat:
		return "format", nil
	case FilterResolution:
		return "resolution", nil
	default:
		return "", fmt.Errorf("unknown technical filter %q", t)
	}
}

// SeriesIDsBySeason returns the ids of series having at least one season whose
// attribute matches value, case-insensitively.
func (s *Store) SeriesIDsBySeason(t TechnicalFilterType, value string) ([]string, error) {
	column, err := seasonColumn(t)
	if err != nil {
		return nil, err
	}
	return listIDs(s.db, `SELECT DISTINCT series_id FROM seasons WHERE lower(`+column+`) = lower(?) ORDER BY series_id`, value)
}
