package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/shelfsync/internal/jellyfin"
)

const gib = int64(1024 * 1024 * 1024)

func episode(id, seasonID string, number int, minutes int64, size int64) jellyfin.Item {
	return jellyfin.Item{
		ID:           id,
		Name:         "Episode " + id,
		Type:         jellyfin.TypeEpisode,
		SeasonID:     seasonID,
		IndexNumber:  ptr(number),
		RunTimeTicks: ptr(minutes * 60 * 10_000_000),
		MediaSources: []jellyfin.MediaSource{{Size: ptr(size)}},
	}
}

func TestAggregateSeason_Sums(t *testing.T) {
	eps := []jellyfin.Item{
		episode("e1", "s1", 1, 45, gib),
		episode("e2", "s1", 2, 50, gib*5/2),
	}

	stats := AggregateSeason(eps)
	assert.Equal(t, 95, stats.TotalDurationMinutes)
	assert.InDelta(t, 3.5, stats.TotalSizeGB, 1e-9)
}

func TestAggregateSeason_FirstObservedWins(t *testing.T) {
	e1 := episode("e1", "s1", 1, 45, gib)
	e1.MediaSources[0].Bitrate = ptr(int64(0))
	e1.MediaStreams = []jellyfin.MediaStream{
		{Type: jellyfin.StreamAudio, Language: "eng"},
	}

	e2 := episode("e2", "s1", 2, 45, gib)
	e2.Container = "mkv"
	e2.MediaStreams = []jellyfin.MediaStream{
		{Type: jellyfin.StreamVideo, Width: ptr(1280), Height: ptr(720), Bitrate: ptr(int64(4_000_000))},
		{Type: jellyfin.StreamAudio, Language: "spa"},
		{Type: jellyfin.StreamSubtitle, Language: "eng"},
	}

	e3 := episode("e3", "s1", 3, 45, gib)
	e3.Container = "mp4"
	e3.MediaStreams = []jellyfin.MediaStream{
		{Type: jellyfin.StreamVideo, Width: ptr(1920), Height: ptr(1080), Bitrate: ptr(int64(9_000_000))},
		{Type: jellyfin.StreamAudio, Language: "eng"},
	}

	stats := AggregateSeason([]jellyfin.Item{e1, e2, e3})
	assert.Equal(t, "1280x720", *stats.Resolution)
	assert.Equal(t, "720p", *stats.Quality)
	assert.Equal(t, "mkv", *stats.Format)
	assert.InDelta(t, 4.0, *stats.BitrateMbps, 1e-9)
	assert.ElementsMatch(t, []string{"eng", "spa"}, stats.AudioLanguages)
	assert.Equal(t, []string{"eng"}, stats.SubtitleLanguages)
}

func TestAggregateSeason_Empty(t *testing.T) {
	stats := AggregateSeason(nil)
	assert.Nil(t, stats.Resolution)
	assert.Nil(t, stats.Quality)
	assert.Zero(t, stats.TotalDurationMinutes)
	assert.Empty(t, stats.AudioLanguages)
}

func TestSeriesDetails_MatchesBySeasonOrParent(t *testing.T) {
	seasons := []jellyfin.Item{
		{ID: "s1", Type: jellyfin.TypeSeason, IndexNumber: ptr(1)},
		{ID: "s2", Type: jellyfin.TypeSeason, ParentIndexNumber: ptr(2)},
		{ID: "s3", Type: jellyfin.TypeSeason},
	}
	e3 := episode("e3", "", 1, 30, gib)
	e3.ParentID = "s2"
	episodes := []jellyfin.Item{
		episode("e1", "s1", 1, 45, gib),
		episode("e2", "s1", 2, 50, gib*5/2),
		e3,
		episode("orphan", "sX", 1, 10, gib),
	}

	gotSeasons, gotEpisodes := SeriesDetails("series1", seasons, episodes)
	require.Len(t, gotSeasons, 3)

	assert.Equal(t, 1, gotSeasons[0].Number)
	assert.Equal(t, 2, gotSeasons[0].EpisodeCount)
	assert.Equal(t, 95, *gotSeasons[0].TotalDurationMinutes)
	assert.InDelta(t, 3.5, *gotSeasons[0].TotalSizeGB, 1e-9)
	assert.Equal(t, "series1", gotSeasons[0].SeriesID)

	assert.Equal(t, 2, gotSeasons[1].Number)
	assert.Equal(t, 1, gotSeasons[1].EpisodeCount)

	assert.Equal(t, 0, gotSeasons[2].Number)
	assert.Equal(t, 0, gotSeasons[2].EpisodeCount)

	require.Len(t, gotEpisodes, 3)
	assert.Equal(t, "e3", gotEpisodes[2].ID)
	assert.Equal(t, "s2", gotEpisodes[2].SeasonID)
	assert.Equal(t, 2, gotEpisodes[2].SeasonNumber)
	assert.Equal(t, 30, *gotEpisodes[2].DurationMinutes)
	assert.Equal(t, "series1", gotEpisodes[0].SeriesID)
}

func TestSeriesDetails_SynthesizesSeasons(t *testing.T) {
	e1 := episode("e1", "sA", 1, 20, gib)
	e1.ParentIndexNumber = ptr(4)
	e2 := episode("e2", "sA", 2, 20, gib)
	e3 := episode("e3", "", 1, 20, gib)
	e3.ParentID = "sB"
	e4 := episode("e4", "", 1, 20, gib)

	seasons, episodes := SeriesDetails("series1", nil, []jellyfin.Item{e1, e3, e2, e4})
	require.Len(t, seasons, 2)
	assert.Equal(t, "sA", seasons[0].ID)
	assert.Equal(t, 4, seasons[0].Number)
	assert.Equal(t, 2, seasons[0].EpisodeCount)
	assert.Equal(t, "sB", seasons[1].ID)
	assert.Equal(t, 0, seasons[1].Number)

	require.Len(t, episodes, 3, "episodes without a season key are dropped")
	for _, ep := range episodes {
		assert.NotEqual(t, "e4", ep.ID)
	}
	assert.Equal(t, 4, episodes[1].SeasonNumber)
}

func TestSeriesDetails_Empty(t *testing.T) {
	seasons, episodes := SeriesDetails("series1", nil, nil)
	assert.Empty(t, seasons)
	assert.Empty(t, episodes)
}
