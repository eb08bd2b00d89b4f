// Package syncer reconciles the remote catalog into the local library.
//
// Three strategies share one set of phases. Incremental fetches movies changed
// since the last successful run, Fast always pulls the whole catalog, and
// DetailsOnly re-hydrates technical detail for ids already stored. Every page
// is written as one transaction before the next is requested, so a cancelled
// run leaves every completed page in place.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vmunix/shelfsync/internal/jellyfin"
	"github.com/vmunix/shelfsync/internal/library"
	"github.com/vmunix/shelfsync/internal/mapper"
	"github.com/vmunix/shelfsync/internal/poster"
	"github.com/vmunix/shelfsync/internal/settings"
)

const (
	incrementalMoviePage = 300
	fastMoviePage        = 200
	seriesPage           = 200
	detailPage           = 300

	// RecentDetailsLimit caps the movie detail pass in RecentOnly mode.
	RecentDetailsLimit = 500

	catalogFields       = "Genres,DateCreated"
	detailFields        = "MediaStreams,MediaSources,Width,Height,Genres,DateCreated"
	episodeDetailFields = "MediaStreams,MediaSources,Width,Height"
	genreFields         = "Genres"

	msgNoConfig = "server configuration not found"
	msgNoUser   = "no authenticated user"
)

// ClientSource provides a remote client for the stored server configuration.
type ClientSource interface {
	Client() (jellyfin.API, *settings.ServerConfig, error)
}

// Engine runs sync strategies against the library.
type Engine struct {
	clients  ClientSource
	library  *library.Store
	settings *settings.Store
	posters  *poster.Resolver
	log      *slog.Logger
	now      func() time.Time
}

// NewEngine creates a sync engine.
func NewEngine(clients ClientSource, lib *library.Store, st *settings.Store, posters *poster.Resolver, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		clients:  clients,
		library:  lib,
		settings: st,
		posters:  posters,
		log:      logger.With("component", "syncer"),
		now:      time.Now,
	}
}

// run is the state of one sync invocation.
type run struct {
	*Engine
	api       jellyfin.API
	cfg       *settings.ServerConfig
	report    Reporter
	offline   bool
	details   settings.MovieDetailsMode
	processed int // shared by the catalog phases
	movies    int
	series    int
}

// begin checks preconditions and loads the per-run settings. A non-nil
// Result means the run must not proceed.
func (e *Engine) begin(report Reporter) (*run, *Result) {
	if report == nil {
		report = discard
	}
	api, cfg, err := e.clients.Client()
	if err != nil {
		if errors.Is(err, settings.ErrNotConfigured) {
			return nil, &Result{Kind: ResultNetworkError, Message: msgNoConfig}
		}
		return nil, &Result{Kind: ResultUnknownError, Message: err.Error()}
	}
	if cfg.UserID == "" && cfg.APIKey == "" {
		return nil, &Result{Kind: ResultNetworkError, Message: msgNoUser}
	}

	offline, err := e.settings.OfflinePosters()
	if err != nil {
		return nil, &Result{Kind: ResultUnknownError, Message: err.Error()}
	}
	details, err := e.settings.MovieDetailsMode()
	if err != nil {
		return nil, &Result{Kind: ResultUnknownError, Message: err.Error()}
	}

	return &run{
		Engine:  e,
		api:     api,
		cfg:     cfg,
		report:  report,
		offline: offline,
		details: details,
	}, nil
}

// finish converts the run's terminal error into a Result.
func (r *run) finish(ctx context.Context, mode Mode, err error) Result {
	res := Result{Movies: r.movies, Series: r.series}
	switch {
	case err == nil:
		r.log.Info("sync completed", "mode", mode, "movies", r.movies, "series", r.series)
		return res
	case ctx.Err() != nil || errors.Is(err, context.Canceled):
		r.log.Info("sync cancelled", "mode", mode, "movies", r.movies, "series", r.series)
		res.Kind = ResultCancelled
		return res
	}

	f := jellyfin.Diagnose(err)
	res.Message = f.Message
	if f.Class == jellyfin.ClassNetwork {
		res.Kind = ResultNetworkError
		r.log.Warn("sync failed", "mode", mode, "error", err)
	} else {
		res.Kind = ResultUnknownError
		r.log.Error("sync failed", "mode", mode, "error", err)
	}
	return res
}

// Incremental fetches movies saved since the watermark, unless
// forceFullMovies is set, then every series with their seasons and
// episodes. The watermark advances only when the movie phase ran and the run
// succeeded.
func (e *Engine) Incremental(ctx context.Context, scope library.Scope, forceFullMovies bool, report Reporter) Result {
	r, res := e.begin(report)
	if res != nil {
		return *res
	}

	var cutoff *time.Time
	if !(scope.IncludesMovies() && forceFullMovies) {
		last, err := e.settings.LastSync()
		if err != nil {
			return r.finish(ctx, ModeIncremental, err)
		}
		if !last.IsZero() {
			cutoff = &last
		}
	}
	if cutoff != nil {
		r.log.Info("sync started", "mode", ModeIncremental, "scope", scope, "since", cutoff.UTC().Format(time.RFC3339))
	} else {
		r.log.Info("sync started", "mode", ModeIncremental, "scope", scope, "full", true)
	}

	err := r.catalog(ctx, scope, cutoff, incrementalMoviePage)
	if err == nil && scope.IncludesMovies() {
		err = e.settings.SetLastSync(e.now())
	}
	return r.finish(ctx, ModeIncremental, err)
}

// Fast pulls the whole catalog without a cutoff and leaves the watermark
// untouched.
func (e *Engine) Fast(ctx context.Context, scope library.Scope, report Reporter) Result {
	r, res := e.begin(report)
	if res != nil {
		return *res
	}
	r.log.Info("sync started", "mode", ModeFast, "scope", scope)
	return r.finish(ctx, ModeFast, r.catalog(ctx, scope, nil, fastMoviePage))
}

// DetailsOnly refreshes technical detail for stored movies, newest first,
// and seasons and episodes for every stored series. The catalog is not
// paged and the watermark is untouched.
func (e *Engine) DetailsOnly(ctx context.Context, scope library.Scope, report Reporter) Result {
	r, res := e.begin(report)
	if res != nil {
		return *res
	}
	r.log.Info("sync started", "mode", ModeDetails, "scope", scope)

	err := func() error {
		if scope.IncludesMovies() {
			ids, err := e.library.ListMovieIDs()
			if err != nil {
				return err
			}
			if err := r.movieDetails(ctx, selectTargets(ids, r.details), nil); err != nil {
				return err
			}
		}
		if scope.IncludesSeries() {
			ids, err := e.library.ListSeriesIDs()
			if err != nil {
				return err
			}
			return r.seriesDetails(ctx, ids)
		}
		return nil
	}()
	return r.finish(ctx, ModeDetails, err)
}

// catalog runs the movie catalog and detail phases, then the series catalog
// and series detail phases, as the scope allows.
func (r *run) catalog(ctx context.Context, scope library.Scope, cutoff *time.Time, moviePage int) error {
	if scope.IncludesMovies() {
		changed, err := r.movieCatalog(ctx, cutoff, moviePage)
		if err != nil {
			return err
		}
		if err := r.movieDetails(ctx, selectTargets(changed, r.details), cutoff); err != nil {
			return err
		}
	}
	if scope.IncludesSeries() {
		ids, err := r.seriesCatalog(ctx)
		if err != nil {
			return err
		}
		return r.seriesDetails(ctx, ids)
	}
	return nil
}

// selectTargets applies the movie detail policy to ids in encounter order.
func selectTargets(ids []string, mode settings.MovieDetailsMode) []string {
	if mode == settings.DetailsRecentOnly && len(ids) > RecentDetailsLimit {
		return ids[:RecentDetailsLimit]
	}
	return ids
}

// page accounts for one fetched catalog page of n items and reports whether
// it was the last.
func (r *run) page(phase Phase, n, pageSize int) bool {
	total := r.processed + n + pageSize
	for range n {
		r.processed++
		r.report(Progress{Processed: r.processed, Total: total, Phase: phase})
	}
	if n < pageSize {
		r.report(Progress{Processed: r.processed, Total: r.processed, Phase: phase})
		return true
	}
	return false
}

func (r *run) movieQuery(fields string, cutoff *time.Time, start, limit int) jellyfin.ItemQuery {
	return jellyfin.ItemQuery{
		UserID:           r.cfg.UserID,
		IncludeItemTypes: jellyfin.TypeMovie,
		Recursive:        true,
		Fields:           fields,
		MinDateLastSaved: cutoff,
		StartIndex:       start,
		Limit:            limit,
	}
}

// movieCatalog pages the movie list and returns the written ids in
// encounter order without duplicates.
func (r *run) movieCatalog(ctx context.Context, cutoff *time.Time, pageSize int) ([]string, error) {
	var changed []string
	seen := make(map[string]struct{})

	for start := 0; ; {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		items, err := r.api.ListItems(ctx, r.movieQuery(catalogFields, cutoff, start, pageSize))
		if err != nil {
			return changed, fmt.Errorf("list movies at %d: %w", start, err)
		}
		if len(items) == 0 {
			break
		}

		existing, err := r.library.GetMoviesByIDs(movieIDs(items))
		if err != nil {
			return changed, err
		}
		rows := make([]*library.Movie, 0, len(items))
		for i := range items {
			m, ok := mapper.MovieCatalog(&items[i], r.cfg.BaseURL, existing[items[i].ID])
			if !ok {
				continue
			}
			m.PosterURL = r.poster(ctx, poster.KindMovies, m.ID, m.PosterURL)
			rows = append(rows, m)
		}
		if err := r.library.UpsertMovies(rows); err != nil {
			return changed, err
		}
		r.movies += len(rows)
		for _, m := range rows {
			if _, dup := seen[m.ID]; !dup {
				seen[m.ID] = struct{}{}
				changed = append(changed, m.ID)
			}
		}

		if r.page(PhaseMoviesCatalog, len(items), pageSize) {
			break
		}
		start += len(items)
	}
	return changed, nil
}

// movieDetails re-pages the movie list with the detail field set and writes
// only the targeted ids.
func (r *run) movieDetails(ctx context.Context, targets []string, cutoff *time.Time) error {
	if len(targets) == 0 {
		return nil
	}
	want := make(map[string]struct{}, len(targets))
	for _, id := range targets {
		want[id] = struct{}{}
	}
	total := len(targets)
	r.report(Progress{Processed: 0, Total: total, Phase: PhaseMoviesDetails})

	done := 0
	for start := 0; ; {
		if err := ctx.Err(); err != nil {
			return err
		}
		items, err := r.api.ListItems(ctx, r.movieQuery(detailFields, cutoff, start, detailPage))
		if err != nil {
			return fmt.Errorf("list movie details at %d: %w", start, err)
		}
		if len(items) == 0 {
			break
		}

		var matched []jellyfin.Item
		for _, it := range items {
			if _, ok := want[it.ID]; ok && it.Type == jellyfin.TypeMovie {
				matched = append(matched, it)
			}
		}
		if len(matched) > 0 {
			existing, err := r.library.GetMoviesByIDs(movieIDs(matched))
			if err != nil {
				return err
			}
			rows := make([]*library.Movie, 0, len(matched))
			for i := range matched {
				m, _ := mapper.Movie(&matched[i], r.cfg.BaseURL, existing[matched[i].ID])
				m.PosterURL = r.poster(ctx, poster.KindMovies, m.ID, m.PosterURL)
				rows = append(rows, m)
			}
			if err := r.library.UpsertMovies(rows); err != nil {
				return err
			}
		}

		done += len(matched)
		r.report(Progress{Processed: min(done, total), Total: total, Phase: PhaseMoviesDetails})
		if done >= total || len(items) < detailPage {
			break
		}
		start += len(items)
	}
	return nil
}

// seriesCatalog pages the full series list and returns every series id seen.
func (r *run) seriesCatalog(ctx context.Context) ([]string, error) {
	var ids []string
	seen := make(map[string]struct{})

	for start := 0; ; {
		if err := ctx.Err(); err != nil {
			return ids, err
		}
		items, err := r.api.ListItems(ctx, jellyfin.ItemQuery{
			UserID:           r.cfg.UserID,
			IncludeItemTypes: jellyfin.TypeSeries,
			Recursive:        true,
			StartIndex:       start,
			Limit:            seriesPage,
		})
		if err != nil {
			return ids, fmt.Errorf("list series at %d: %w", start, err)
		}
		if len(items) == 0 {
			break
		}

		pageIDs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Type == jellyfin.TypeSeries {
				pageIDs = append(pageIDs, it.ID)
			}
		}
		existing, err := r.library.GetSeriesByIDs(pageIDs)
		if err != nil {
			return ids, err
		}
		rows := make([]*library.Series, 0, len(pageIDs))
		for i := range items {
			s, ok := mapper.SeriesCatalog(&items[i], r.cfg.BaseURL, existing[items[i].ID])
			if !ok {
				continue
			}
			s.PosterURL = r.poster(ctx, poster.KindSeries, s.ID, s.PosterURL)
			rows = append(rows, s)
			if _, dup := seen[s.ID]; !dup {
				seen[s.ID] = struct{}{}
				ids = append(ids, s.ID)
			}
		}
		if err := r.library.UpsertSeries(rows); err != nil {
			return ids, err
		}
		r.series += len(rows)

		if r.page(PhaseSeries, len(items), seriesPage) {
			break
		}
		start += len(items)
	}
	return ids, nil
}

// seriesDetails refreshes each series in turn. A failing series is logged
// and skipped; only cancellation stops the batch.
func (r *run) seriesDetails(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	total := len(ids)
	r.report(Progress{Processed: 0, Total: total, Phase: PhaseSeriesDetails})

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.refreshSeries(ctx, r.api, r.cfg, id); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.log.Warn("series refresh failed", "series_id", id, "error", err)
		}
		r.report(Progress{Processed: i + 1, Total: total, Phase: PhaseSeriesDetails})
	}
	return nil
}

func (r *run) poster(ctx context.Context, kind poster.Kind, id, remote string) string {
	return r.posters.Resolve(ctx, kind, id, remote, r.offline)
}

func movieIDs(items []jellyfin.Item) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if it.Type == jellyfin.TypeMovie {
			ids = append(ids, it.ID)
		}
	}
	return ids
}
