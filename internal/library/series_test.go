package library

import (
	"errors"
	"testing"
)

func sampleSeries(id, title string) *Series {
	return &Series{
		ID:        id,
		Title:     title,
		CreatedAt: at("2024-01-01T00:00:00Z"),
		Genres:    []string{"Drama"},
	}
}

func season(id, seriesID string, number int, quality, format, resolution string) *Season {
	return &Season{
		ID:           id,
		SeriesID:     seriesID,
		Number:       number,
		Quality:      ptr(quality),
		Format:       ptr(format),
		Resolution:   ptr(resolution),
		EpisodeCount: 2,
	}
}

func episode(id, seriesID, seasonID string, seasonNumber, number int) *Episode {
	return &Episode{
		ID:              id,
		SeriesID:        seriesID,
		SeasonID:        seasonID,
		SeasonNumber:    seasonNumber,
		Number:          number,
		Title:           "Episode",
		DurationMinutes: ptr(45),
		SizeGB:          ptr(1.5),
	}
}

func assertTotalsMatchRows(t *testing.T, store *Store, seriesID string) {
	t.Helper()
	sr, err := store.GetSeries(seriesID)
	if err != nil {
		t.Fatalf("GetSeries failed: %v", err)
	}
	seasons, err := store.ListSeasons(seriesID)
	if err != nil {
		t.Fatalf("ListSeasons failed: %v", err)
	}
	episodes, err := store.ListSeriesEpisodes(seriesID)
	if err != nil {
		t.Fatalf("ListSeriesEpisodes failed: %v", err)
	}
	if sr.TotalSeasons != len(seasons) {
		t.Errorf("TotalSeasons = %d, stored seasons = %d", sr.TotalSeasons, len(seasons))
	}
	if sr.TotalEpisodes != len(episodes) {
		t.Errorf("TotalEpisodes = %d, stored episodes = %d", sr.TotalEpisodes, len(episodes))
	}
}

func TestApplySeriesDetails_RecomputesTotals(t *testing.T) {
	store := NewStore(setupTestDB(t))
	if err := store.UpsertSeries([]*Series{sampleSeries("s1", "Dark")}); err != nil {
		t.Fatalf("UpsertSeries failed: %v", err)
	}

	seasons := []*Season{
		season("s1-1", "s1", 1, "1080p", "mkv", "1920x1080"),
		season("s1-2", "s1", 2, "4K", "mkv", "3840x2160"),
	}
	episodes := []*Episode{
		episode("e1", "s1", "s1-1", 1, 1),
		episode("e2", "s1", "s1-1", 1, 2),
		episode("e3", "s1", "s1-2", 2, 1),
	}
	if err := store.ApplySeriesDetails("s1", seasons, episodes); err != nil {
		t.Fatalf("ApplySeriesDetails failed: %v", err)
	}

	sr, err := store.GetSeries("s1")
	if err != nil {
		t.Fatalf("GetSeries failed: %v", err)
	}
	if sr.TotalSeasons != 2 || sr.TotalEpisodes != 3 {
		t.Errorf("totals = %d/%d, want 2/3", sr.TotalSeasons, sr.TotalEpisodes)
	}
	assertTotalsMatchRows(t, store, "s1")

	// A later partial apply still leaves totals equal to the stored rows.
	if err := store.ApplySeriesDetails("s1", []*Season{season("s1-3", "s1", 3, "720p", "mp4", "1280x720")},
		[]*Episode{episode("e4", "s1", "s1-3", 3, 1)}); err != nil {
		t.Fatalf("second ApplySeriesDetails failed: %v", err)
	}
	assertTotalsMatchRows(t, store, "s1")
}

func TestApplySeriesDetails_UnknownSeries(t *testing.T) {
	store := NewStore(setupTestDB(t))

	err := store.ApplySeriesDetails("ghost", []*Season{season("x", "ghost", 1, "1080p", "mkv", "1920x1080")}, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	seasons, err := store.ListSeasons("ghost")
	if err != nil {
		t.Fatalf("ListSeasons failed: %v", err)
	}
	if len(seasons) != 0 {
		t.Errorf("expected no seasons after failed apply, got %d", len(seasons))
	}
}

func TestUpsertSeries_PreservesTotalsAndFavorite(t *testing.T) {
	store := NewStore(setupTestDB(t))
	if err := store.UpsertSeries([]*Series{sampleSeries("s1", "Dark")}); err != nil {
		t.Fatalf("UpsertSeries failed: %v", err)
	}
	if err := store.ApplySeriesDetails("s1", []*Season{season("s1-1", "s1", 1, "1080p", "mkv", "1920x1080")},
		[]*Episode{episode("e1", "s1", "s1-1", 1, 1)}); err != nil {
		t.Fatalf("ApplySeriesDetails failed: %v", err)
	}
	if err := store.SetSeriesFavorite("s1", true); err != nil {
		t.Fatalf("SetSeriesFavorite failed: %v", err)
	}

	update := sampleSeries("s1", "Dark (2017)")
	if err := store.UpsertSeries([]*Series{update}); err != nil {
		t.Fatalf("UpsertSeries failed: %v", err)
	}

	got, err := store.GetSeries("s1")
	if err != nil {
		t.Fatalf("GetSeries failed: %v", err)
	}
	if got.Title != "Dark (2017)" {
		t.Errorf("Title = %q", got.Title)
	}
	if !got.Favorite {
		t.Error("favorite flag was reset by upsert")
	}
	if got.TotalSeasons != 1 || got.TotalEpisodes != 1 {
		t.Errorf("totals = %d/%d, want 1/1", got.TotalSeasons, got.TotalEpisodes)
	}
}

func TestUpdateSeriesGenres(t *testing.T) {
	store := NewStore(setupTestDB(t))
	if err := store.UpsertSeries([]*Series{sampleSeries("s1", "Dark")}); err != nil {
		t.Fatalf("UpsertSeries failed: %v", err)
	}

	if err := store.UpdateSeriesGenres("s1", []string{"Mystery", "Sci-Fi"}); err != nil {
		t.Fatalf("UpdateSeriesGenres failed: %v", err)
	}
	got, _ := store.GetSeries("s1")
	if len(got.Genres) != 2 || got.Genres[0] != "Mystery" {
		t.Errorf("Genres = %v", got.Genres)
	}

	if err := store.UpdateSeriesGenres("nope", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListSeries_TechnicalFiltersIntersect(t *testing.T) {
	store := NewStore(setupTestDB(t))
	if err := store.UpsertSeries([]*Series{
		sampleSeries("a", "Alpha"),
		sampleSeries("b", "Beta"),
		sampleSeries("c", "Gamma"),
	}); err != nil {
		t.Fatalf("UpsertSeries failed: %v", err)
	}
	apply := func(id string, seasons ...*Season) {
		t.Helper()
		if err := store.ApplySeriesDetails(id, seasons, nil); err != nil {
			t.Fatalf("ApplySeriesDetails(%s) failed: %v", id, err)
		}
	}
	apply("a", season("a1", "a", 1, "1080p", "mkv", "1920x1080"), season("a2", "a", 2, "4K", "mkv", "3840x2160"))
	apply("b", season("b1", "b", 1, "1080p", "mp4", "1920x1080"))
	apply("c", season("c1", "c", 1, "720p", "mkv", "1280x720"))

	ids, err := store.SeriesIDsBySeason(FilterQuality, "1080P")
	if err != nil {
		t.Fatalf("SeriesIDsBySeason failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("SeriesIDsBySeason(quality, 1080p) = %v, want [a b]", ids)
	}

	got, total, err := store.ListSeries(SeriesFilter{Technical: map[TechnicalFilterType][]string{
		FilterQuality: {"1080p", "4K"},
		FilterFormat:  {"mkv"},
	}})
	if err != nil {
		t.Fatalf("ListSeries failed: %v", err)
	}
	if total != 1 || len(got) != 1 || got[0].ID != "a" {
		t.Errorf("ListSeries = %v (total %d), want only a", got, total)
	}

	if _, err := store.SeriesIDsBySeason("codec", "h264"); err == nil {
		t.Error("expected error for unknown filter type")
	}
}

func TestGetSeriesDetail(t *testing.T) {
	store := NewStore(setupTestDB(t))
	if err := store.UpsertSeries([]*Series{sampleSeries("s1", "Dark")}); err != nil {
		t.Fatalf("UpsertSeries failed: %v", err)
	}
	if err := store.ApplySeriesDetails("s1",
		[]*Season{season("s1-2", "s1", 2, "1080p", "mkv", "1920x1080"), season("s1-1", "s1", 1, "1080p", "mkv", "1920x1080")},
		[]*Episode{episode("e2", "s1", "s1-1", 1, 2), episode("e1", "s1", "s1-1", 1, 1), episode("e3", "s1", "s1-2", 2, 1)},
	); err != nil {
		t.Fatalf("ApplySeriesDetails failed: %v", err)
	}

	detail, err := store.GetSeriesDetail("s1")
	if err != nil {
		t.Fatalf("GetSeriesDetail failed: %v", err)
	}
	if len(detail.Seasons) != 2 || detail.Seasons[0].Number != 1 {
		t.Fatalf("seasons not ordered by number: %+v", detail.Seasons)
	}
	eps := detail.Episodes["s1-1"]
	if len(eps) != 2 || eps[0].ID != "e1" {
		t.Errorf("season 1 episodes = %+v", eps)
	}

	if _, err := store.GetSeriesDetail("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
