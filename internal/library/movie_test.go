package library

import (
	"errors"
	"testing"
)

func sampleMovie(id, title string) *Movie {
	return &Movie{
		ID:                id,
		Title:             title,
		CreatedAt:         at("2024-03-01T10:00:00Z"),
		PosterURL:         "http://jf/Items/" + id + "/Images/Primary?tag=abc",
		Format:            ptr("mkv"),
		Quality:           ptr("1080p"),
		Resolution:        ptr("1920x1080"),
		BitrateMbps:       ptr(8.0),
		DurationMinutes:   ptr(120),
		SizeGB:            ptr(2.0),
		AudioLanguages:    []string{"eng", "spa"},
		SubtitleLanguages: []string{"eng"},
		Genres:            []string{"Action", "Sci-Fi"},
	}
}

func TestUpsertMovie_RoundTrip(t *testing.T) {
	store := NewStore(setupTestDB(t))

	m := sampleMovie("m1", "The Matrix")
	if err := store.UpsertMovie(m); err != nil {
		t.Fatalf("UpsertMovie failed: %v", err)
	}

	got, err := store.GetMovie("m1")
	if err != nil {
		t.Fatalf("GetMovie failed: %v", err)
	}
	if got.Title != "The Matrix" {
		t.Errorf("Title = %q, want %q", got.Title, "The Matrix")
	}
	if got.CreatedAt == nil || !got.CreatedAt.Equal(*m.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, m.CreatedAt)
	}
	if got.Resolution == nil || *got.Resolution != "1920x1080" {
		t.Errorf("Resolution = %v, want 1920x1080", got.Resolution)
	}
	if got.FPS != nil {
		t.Errorf("FPS = %v, want nil", *got.FPS)
	}
	if len(got.AudioLanguages) != 2 || got.AudioLanguages[1] != "spa" {
		t.Errorf("AudioLanguages = %v, want [eng spa]", got.AudioLanguages)
	}
	if len(got.Genres) != 2 {
		t.Errorf("Genres = %v, want 2 entries", got.Genres)
	}
}

func TestGetMovie_NotFound(t *testing.T) {
	store := NewStore(setupTestDB(t))

	_, err := store.GetMovie("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertMovie_PreservesFavorite(t *testing.T) {
	store := NewStore(setupTestDB(t))

	if err := store.UpsertMovie(sampleMovie("m1", "Old Title")); err != nil {
		t.Fatalf("UpsertMovie failed: %v", err)
	}
	if err := store.SetMovieFavorite("m1", true); err != nil {
		t.Fatalf("SetMovieFavorite failed: %v", err)
	}

	// A sync write carrying a stale favorite flag must not reset it.
	update := sampleMovie("m1", "New Title")
	update.Favorite = false
	if err := store.UpsertMovies([]*Movie{update}); err != nil {
		t.Fatalf("UpsertMovies failed: %v", err)
	}

	got, err := store.GetMovie("m1")
	if err != nil {
		t.Fatalf("GetMovie failed: %v", err)
	}
	if !got.Favorite {
		t.Error("favorite flag was reset by upsert")
	}
	if got.Title != "New Title" {
		t.Errorf("Title = %q, want %q", got.Title, "New Title")
	}
}

func TestSetMovieFavorite_NotFound(t *testing.T) {
	store := NewStore(setupTestDB(t))

	if err := store.SetMovieFavorite("nope", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetMoviesByIDs(t *testing.T) {
	store := NewStore(setupTestDB(t))
	if err := store.UpsertMovies([]*Movie{sampleMovie("m1", "A"), sampleMovie("m2", "B")}); err != nil {
		t.Fatalf("UpsertMovies failed: %v", err)
	}

	got, err := store.GetMoviesByIDs([]string{"m1", "m3"})
	if err != nil {
		t.Fatalf("GetMoviesByIDs failed: %v", err)
	}
	if len(got) != 1 || got["m1"] == nil {
		t.Errorf("GetMoviesByIDs = %v, want only m1", got)
	}

	empty, err := store.GetMoviesByIDs(nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("GetMoviesByIDs(nil) = %v, %v", empty, err)
	}
}

func TestListMovieIDs_NewestFirst(t *testing.T) {
	store := NewStore(setupTestDB(t))

	old := sampleMovie("old", "Old")
	old.CreatedAt = at("2020-01-01T00:00:00Z")
	undated := sampleMovie("undated", "Undated")
	undated.CreatedAt = nil
	recent := sampleMovie("recent", "Recent")
	recent.CreatedAt = at("2024-06-01T00:00:00Z")

	if err := store.UpsertMovies([]*Movie{old, undated, recent}); err != nil {
		t.Fatalf("UpsertMovies failed: %v", err)
	}

	ids, err := store.ListMovieIDs()
	if err != nil {
		t.Fatalf("ListMovieIDs failed: %v", err)
	}
	want := []string{"recent", "old", "undated"}
	if len(ids) != len(want) {
		t.Fatalf("ListMovieIDs = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestListMovies_Filters(t *testing.T) {
	store := NewStore(setupTestDB(t))

	matrix := sampleMovie("m1", "The Matrix")
	alien := sampleMovie("m2", "Alien")
	alien.Genres = []string{"Horror"}
	alien.Quality = ptr("4K")
	alien.Format = ptr("mp4")
	amelie := sampleMovie("m3", "Amélie")
	amelie.Genres = []string{"Comedy", "Romance"}
	amelie.Quality = nil
	amelie.CreatedAt = at("2025-01-01T00:00:00Z")

	if err := store.UpsertMovies([]*Movie{matrix, alien, amelie}); err != nil {
		t.Fatalf("UpsertMovies failed: %v", err)
	}
	if err := store.SetMovieFavorite("m2", true); err != nil {
		t.Fatalf("SetMovieFavorite failed: %v", err)
	}

	tests := []struct {
		name   string
		filter MovieFilter
		want   []string
	}{
		{"all alphabetical", MovieFilter{}, []string{"m2", "m3", "m1"}},
		{"recently added", MovieFilter{Sort: SortRecentlyAdded}, []string{"m3", "m2", "m1"}},
		{"title search", MovieFilter{Query: "matr"}, []string{"m1"}},
		{"title search case", MovieFilter{Query: "ALIEN"}, []string{"m2"}},
		{"favorites", MovieFilter{FavoritesOnly: true}, []string{"m2"}},
		{"genre any-of", MovieFilter{Genres: []string{"horror", "romance"}}, []string{"m2", "m3"}},
		{"quality", MovieFilter{Quality: []string{"1080P"}}, []string{"m1"}},
		{"quality and format", MovieFilter{Quality: []string{"4K", "1080p"}, Format: []string{"mp4"}}, []string{"m2"}},
		{"paged", MovieFilter{Limit: 1, Offset: 1}, []string{"m3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := store.ListMovies(tt.filter)
			if err != nil {
				t.Fatalf("ListMovies failed: %v", err)
			}
			if tt.filter.Limit == 0 && total != len(tt.want) {
				t.Errorf("total = %d, want %d", total, len(tt.want))
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d movies, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("movies[%d] = %q, want %q", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestCountMovies(t *testing.T) {
	store := NewStore(setupTestDB(t))
	if err := store.UpsertMovies([]*Movie{sampleMovie("m1", "A"), sampleMovie("m2", "B")}); err != nil {
		t.Fatalf("UpsertMovies failed: %v", err)
	}
	n, err := store.CountMovies()
	if err != nil {
		t.Fatalf("CountMovies failed: %v", err)
	}
	if n != 2 {
		t.Errorf("CountMovies = %d, want 2", n)
	}
}

func TestTx_RollbackDiscardsMovie(t *testing.T) {
	store := NewStore(setupTestDB(t))

	tx, err := store.Begin()
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := tx.UpsertMovie(sampleMovie("m1", "TX Movie")); err != nil {
		t.Fatalf("UpsertMovie in tx failed: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	if _, err := store.GetMovie("m1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after rollback, got %v", err)
	}
}
