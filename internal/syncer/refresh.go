package syncer

import (
	"context"
	"fmt"

	"github.com/vmunix/shelfsync/internal/jellyfin"
	"github.com/vmunix/shelfsync/internal/mapper"
	"github.com/vmunix/shelfsync/internal/poster"
	"github.com/vmunix/shelfsync/internal/settings"
)

// RefreshSeriesDetails refreshes one series' genres, seasons and episodes.
func (e *Engine) RefreshSeriesDetails(ctx context.Context, seriesID string) error {
	r, res := e.begin(nil)
	if res != nil {
		return fmt.Errorf("refresh series %s: %s", seriesID, res.Message)
	}
	return r.refreshSeries(ctx, r.api, r.cfg, seriesID)
}

// RefreshMovieDetails re-fetches one movie with the detail field set.
func (e *Engine) RefreshMovieDetails(ctx context.Context, movieID string) error {
	r, res := e.begin(nil)
	if res != nil {
		return fmt.Errorf("refresh movie %s: %s", movieID, res.Message)
	}

	item, err := r.api.GetItem(ctx, r.cfg.UserID, movieID, detailFields)
	if err != nil {
		return fmt.Errorf("get movie %s: %w", movieID, err)
	}
	existing, err := e.library.GetMoviesByIDs([]string{movieID})
	if err != nil {
		return err
	}
	m, ok := mapper.Movie(item, r.cfg.BaseURL, existing[movieID])
	if !ok {
		return fmt.Errorf("item %s is a %q, not a movie", movieID, item.Type)
	}
	m.PosterURL = r.poster(ctx, poster.KindMovies, m.ID, m.PosterURL)
	return e.library.UpsertMovie(m)
}

// refreshSeries writes the seasons and episodes of one series in a single
// transaction. When the server reports neither, stored detail is kept. It
// fails only when both the season and episode fetches fail.
func (e *Engine) refreshSeries(ctx context.Context, api jellyfin.API, cfg *settings.ServerConfig, seriesID string) error {
	log := e.log.With("series_id", seriesID)

	item, err := api.GetItem(ctx, cfg.UserID, seriesID, genreFields)
	switch {
	case err != nil:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Debug("series genre refresh failed", "error", err)
	case item.Genres != nil:
		if err := e.library.UpdateSeriesGenres(seriesID, item.Genres); err != nil {
			log.Debug("series genre update failed", "error", err)
		}
	}

	seasons, seasonErr := e.fetchSeasons(ctx, api, cfg.UserID, seriesID)
	if seasonErr != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Debug("season fetch failed, continuing with episodes", "error", seasonErr)
	}
	episodes, err := e.fetchEpisodes(ctx, api, cfg.UserID, seriesID)
	if err != nil {
		if ctx.Err() != nil || seasonErr != nil {
			return err
		}
		log.Debug("episode fetch failed, continuing with seasons", "error", err)
	}
	if len(seasons) == 0 && len(episodes) == 0 {
		log.Debug("series has no seasons or episodes")
		return nil
	}

	seasonRows, episodeRows := mapper.SeriesDetails(seriesID, seasons, episodes)
	if len(seasonRows) == 0 && len(episodeRows) == 0 {
		return nil
	}
	if err := e.library.ApplySeriesDetails(seriesID, seasonRows, episodeRows); err != nil {
		return err
	}
	log.Debug("series refreshed", "seasons", len(seasonRows), "episodes", len(episodeRows))
	return nil
}

// fetchSeasons asks the shows endpoint first and falls back to a direct
// children query when it errors or returns nothing.
func (e *Engine) fetchSeasons(ctx context.Context, api jellyfin.API, userID, seriesID string) ([]jellyfin.Item, error) {
	items, err := api.ListSeasons(ctx, seriesID, userID, "")
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.log.Debug("shows seasons failed, falling back", "series_id", seriesID, "error", err)
	}
	if seasons := ofType(items, jellyfin.TypeSeason); len(seasons) > 0 {
		return seasons, nil
	}

	items, err = api.ListItems(ctx, jellyfin.ItemQuery{
		UserID:           userID,
		IncludeItemTypes: jellyfin.TypeSeason,
		ParentID:         seriesID,
	})
	if err != nil {
		return nil, fmt.Errorf("list seasons of %s: %w", seriesID, err)
	}
	return ofType(items, jellyfin.TypeSeason), nil
}

// fetchEpisodes tries the shows endpoint, then a SeriesId query, then a
// recursive ParentId query.
func (e *Engine) fetchEpisodes(ctx context.Context, api jellyfin.API, userID, seriesID string) ([]jellyfin.Item, error) {
	items, err := api.ListEpisodes(ctx, seriesID, userID, episodeDetailFields)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.log.Debug("shows episodes failed, falling back", "series_id", seriesID, "error", err)
	}
	if episodes := ofType(items, jellyfin.TypeEpisode); len(episodes) > 0 {
		return episodes, nil
	}

	items, err = api.ListItems(ctx, jellyfin.ItemQuery{
		UserID:           userID,
		IncludeItemTypes: jellyfin.TypeEpisode,
		Recursive:        true,
		Fields:           episodeDetailFields,
		SeriesID:         seriesID,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.log.Debug("episodes by series failed, falling back", "series_id", seriesID, "error", err)
	}
	if episodes := ofType(items, jellyfin.TypeEpisode); len(episodes) > 0 {
		return episodes, nil
	}

	items, err = api.ListItems(ctx, jellyfin.ItemQuery{
		UserID:           userID,
		IncludeItemTypes: jellyfin.TypeEpisode,
		Recursive:        true,
		Fields:           episodeDetailFields,
		ParentID:         seriesID,
	})
	if err != nil {
		return nil, fmt.Errorf("list episodes of %s: %w", seriesID, err)
	}
	return ofType(items, jellyfin.TypeEpisode), nil
}

func ofType(items []jellyfin.Item, itemType string) []jellyfin.Item {
	var out []jellyfin.Item
	for _, it := range items {
		if it.Type == itemType {
			out = append(out, it)
		}
	}
	return out
}
