package mapper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/shelfsync/internal/jellyfin"
	"github.com/vmunix/shelfsync/internal/library"
)

func ptr[T any](v T) *T { return &v }

func detailItem() *jellyfin.Item {
	return &jellyfin.Item{
		ID:           "m1",
		Name:         "The Matrix",
		Type:         jellyfin.TypeMovie,
		DateCreated:  "2024-05-01T12:00:00.0000000Z",
		RunTimeTicks: ptr(int64(6_000_000_000)),
		ImageTags:    map[string]string{"Primary": "tag1"},
		Genres:       []string{"Action"},
		MediaStreams: []jellyfin.MediaStream{
			{Type: jellyfin.StreamVideo, Width: ptr(1920), Height: ptr(1080), Bitrate: ptr(int64(8_000_000))},
			{Type: jellyfin.StreamAudio, Language: "eng"},
			{Type: jellyfin.StreamAudio, Language: "spa"},
			{Type: jellyfin.StreamAudio, Language: "eng"},
			{Type: jellyfin.StreamSubtitle, Language: "fre"},
			{Type: jellyfin.StreamSubtitle},
		},
		MediaSources: []jellyfin.MediaSource{
			{Container: "mkv", Size: ptr(int64(2147483648)), Bitrate: ptr(int64(8000000))},
		},
	}
}

func TestMovie_DerivesTechnicalAttributes(t *testing.T) {
	m, ok := Movie(detailItem(), "http://jelly:8096/", nil)
	require.True(t, ok)

	assert.Equal(t, "m1", m.ID)
	assert.Equal(t, "The Matrix", m.Title)
	assert.Equal(t, "1920x1080", *m.Resolution)
	assert.Equal(t, "1080p", *m.Quality)
	assert.InDelta(t, 8.0, *m.BitrateMbps, 1e-9)
	assert.Equal(t, 10, *m.DurationMinutes)
	assert.InDelta(t, 2.0, *m.SizeGB, 1e-9)
	assert.Equal(t, "mkv", *m.Format)
	assert.Nil(t, m.FPS)
	assert.Equal(t, []string{"eng", "spa"}, m.AudioLanguages)
	assert.Equal(t, []string{"fre"}, m.SubtitleLanguages)
	assert.Equal(t, []string{"Action"}, m.Genres)
	assert.Equal(t, "http://jelly:8096/Items/m1/Images/Primary?tag=tag1", m.PosterURL)
	require.NotNil(t, m.CreatedAt)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), *m.CreatedAt)
	assert.False(t, m.Favorite)
}

func TestMovie_NotAMovie(t *testing.T) {
	item := detailItem()
	item.Type = jellyfin.TypeSeries
	_, ok := Movie(item, "http://jelly", nil)
	assert.False(t, ok)

	_, ok = Movie(nil, "http://jelly", nil)
	assert.False(t, ok)
}

func TestMovie_KeepsExistingWhenUnreported(t *testing.T) {
	created := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	existing := &library.Movie{
		ID:                "m1",
		CreatedAt:         &created,
		PosterURL:         "file:///cache/m1.jpg",
		Format:            ptr("mp4"),
		Quality:           ptr("4K"),
		Resolution:        ptr("3840x2160"),
		BitrateMbps:       ptr(40.0),
		DurationMinutes:   ptr(120),
		SizeGB:            ptr(50.0),
		AudioLanguages:    []string{"eng"},
		SubtitleLanguages: []string{"ger"},
		Favorite:          true,
	}
	item := &jellyfin.Item{ID: "m1", Name: "The Matrix", Type: jellyfin.TypeMovie, DateCreated: "garbage"}

	m, ok := Movie(item, "http://jelly", existing)
	require.True(t, ok)
	assert.Equal(t, "mp4", *m.Format)
	assert.Equal(t, "4K", *m.Quality)
	assert.Equal(t, "3840x2160", *m.Resolution)
	assert.Equal(t, 40.0, *m.BitrateMbps)
	assert.Equal(t, 120, *m.DurationMinutes)
	assert.Equal(t, 50.0, *m.SizeGB)
	assert.Equal(t, []string{"eng"}, m.AudioLanguages)
	assert.Equal(t, []string{"ger"}, m.SubtitleLanguages)
	assert.Equal(t, &created, m.CreatedAt)
	assert.Empty(t, m.PosterURL, "no primary image tag means no poster")
	assert.True(t, m.Favorite)
	assert.Equal(t, []string{}, m.Genres)
}

func TestMovie_LowResolutionDropsQuality(t *testing.T) {
	existing := &library.Movie{ID: "m1", Quality: ptr("1080p"), Resolution: ptr("1920x1080")}
	item := &jellyfin.Item{
		ID:   "m1",
		Name: "Tiny",
		Type: jellyfin.TypeMovie,
		MediaStreams: []jellyfin.MediaStream{
			{Type: jellyfin.StreamVideo, Width: ptr(640), Height: ptr(360)},
		},
	}

	m, ok := Movie(item, "http://jelly", existing)
	require.True(t, ok)
	require.NotNil(t, m.Resolution)
	assert.Equal(t, "640x360", *m.Resolution)
	assert.Nil(t, m.Quality, "quality follows the observed resolution")
}

func TestMovie_OverwritesWithObservedValues(t *testing.T) {
	existing := &library.Movie{ID: "m1", Quality: ptr("480p"), Resolution: ptr("640x480"), Format: ptr("avi")}

	m, ok := Movie(detailItem(), "http://jelly", existing)
	require.True(t, ok)
	assert.Equal(t, "1080p", *m.Quality)
	assert.Equal(t, "1920x1080", *m.Resolution)
	assert.Equal(t, "mkv", *m.Format)
}

func TestMovie_BitrateFallsBackToSource(t *testing.T) {
	item := detailItem()
	item.MediaStreams[0].Bitrate = nil
	item.MediaSources[0].Bitrate = ptr(int64(12_500_000))

	m, _ := Movie(item, "http://jelly", nil)
	assert.InDelta(t, 12.5, *m.BitrateMbps, 1e-9)
}

func TestMovieCatalog_CarriesTechnicalAttributes(t *testing.T) {
	existing := &library.Movie{
		ID:                "m1",
		Format:            ptr("mkv"),
		Quality:           ptr("1080p"),
		Resolution:        ptr("1920x1080"),
		BitrateMbps:       ptr(8.0),
		DurationMinutes:   ptr(10),
		SizeGB:            ptr(2.0),
		AudioLanguages:    []string{"eng"},
		SubtitleLanguages: []string{"spa"},
		Genres:            []string{"Drama"},
		Favorite:          true,
	}
	// Catalog pages never carry streams, but even if they did they must be ignored.
	item := detailItem()
	item.Name = "The Matrix (1999)"
	item.MediaStreams[0].Width = ptr(3840)
	item.MediaStreams[0].Height = ptr(2160)

	m, ok := MovieCatalog(item, "http://jelly", existing)
	require.True(t, ok)
	assert.Equal(t, "The Matrix (1999)", m.Title)
	assert.Equal(t, existing.Format, m.Format)
	assert.Equal(t, existing.Quality, m.Quality)
	assert.Equal(t, existing.Resolution, m.Resolution)
	assert.Equal(t, existing.BitrateMbps, m.BitrateMbps)
	assert.Equal(t, existing.DurationMinutes, m.DurationMinutes)
	assert.Equal(t, existing.SizeGB, m.SizeGB)
	assert.Equal(t, []string{"eng"}, m.AudioLanguages)
	assert.Equal(t, []string{"spa"}, m.SubtitleLanguages)
	assert.Equal(t, []string{"Action"}, m.Genres)
	assert.True(t, m.Favorite)
}

func TestMovieCatalog_NewMovie(t *testing.T) {
	item := &jellyfin.Item{ID: "m2", Name: "Amelie", Type: jellyfin.TypeMovie}

	m, ok := MovieCatalog(item, "http://jelly", nil)
	require.True(t, ok)
	assert.Nil(t, m.Format)
	assert.Nil(t, m.Quality)
	assert.Nil(t, m.CreatedAt)
	assert.Empty(t, m.PosterURL)
	assert.Equal(t, []string{}, m.Genres)
	assert.Equal(t, []string{}, m.AudioLanguages)
}

func TestMovieCatalog_GenresFallBackToExisting(t *testing.T) {
	item := &jellyfin.Item{ID: "m1", Name: "x", Type: jellyfin.TypeMovie}
	m, _ := MovieCatalog(item, "http://jelly", &library.Movie{Genres: []string{"Drama"}})
	assert.Equal(t, []string{"Drama"}, m.Genres)

	item.Genres = []string{}
	m, _ = MovieCatalog(item, "http://jelly", &library.Movie{Genres: []string{"Drama"}})
	assert.Equal(t, []string{}, m.Genres, "an explicit empty list replaces stored genres")
}

func TestSeriesCatalog(t *testing.T) {
	existing := &library.Series{ID: "s1", TotalSeasons: 3, TotalEpisodes: 30, Genres: []string{"Comedy"}, Favorite: true}
	item := &jellyfin.Item{ID: "s1", Name: "Friends", Type: jellyfin.TypeSeries, DateCreated: "2023-02-03T04:05:06Z",
		ImageTags: map[string]string{"Primary": "p"}}

	s, ok := SeriesCatalog(item, "http://jelly/", existing)
	require.True(t, ok)
	assert.Equal(t, "Friends", s.Title)
	assert.Equal(t, 3, s.TotalSeasons)
	assert.Equal(t, 30, s.TotalEpisodes)
	assert.Equal(t, []string{"Comedy"}, s.Genres)
	assert.True(t, s.Favorite)
	assert.Equal(t, "http://jelly/Items/s1/Images/Primary?tag=p", s.PosterURL)
	assert.Equal(t, time.Date(2023, 2, 3, 4, 5, 6, 0, time.UTC), *s.CreatedAt)

	_, ok = SeriesCatalog(&jellyfin.Item{Type: jellyfin.TypeMovie}, "http://jelly", nil)
	assert.False(t, ok)
}

func TestQuality(t *testing.T) {
	tests := []struct {
		resolution string
		want       string
	}{
		{"3840x2160", "4K"},
		{"4096x1716", "4K"},
		{"1920x1080", "1080p"},
		{"1920x800", "1080p"},
		{"1440x1040", "1080p"},
		{"1280x720", "720p"},
		{"960x700", "720p"},
		{"854x480", "480p"},
		{"640x480", "480p"},
		{"640x360", ""},
		{"garbage", ""},
	}

	for _, tt := range tests {
		t.Run(tt.resolution, func(t *testing.T) {
			got := Quality(&tt.resolution)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
	assert.Nil(t, Quality(nil))
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		item jellyfin.Item
		want string
	}{
		{"first source with container", jellyfin.Item{Container: "avi", MediaSources: []jellyfin.MediaSource{{Container: " "}, {Container: "MKV,webm"}}}, "mkv"},
		{"item container fallback", jellyfin.Item{Container: "mov,mp4,m4a"}, "mov"},
		{"leading blank token", jellyfin.Item{Container: " ,TS"}, "ts"},
		{"nothing", jellyfin.Item{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(&tt.item)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestDurationMinutes_Truncates(t *testing.T) {
	assert.Equal(t, 1, *DurationMinutes(ptr(int64(1_190_000_000))))
	assert.Nil(t, DurationMinutes(nil))
}

func TestResolution_RequiresBothDimensions(t *testing.T) {
	assert.Nil(t, Resolution(&jellyfin.MediaStream{Width: ptr(1920)}))
	assert.Nil(t, Resolution(nil))
}
