package mapper

import (
	"github.com/vmunix/shelfsync/internal/jellyfin"
	"github.com/vmunix/shelfsync/internal/library"
)

// SeasonStats aggregates the technical attributes of a season's episodes.
type SeasonStats struct {
	Format               *string
	Quality              *string
	Resolution           *string
	BitrateMbps          *float64
	TotalDurationMinutes int
	TotalSizeGB          float64
	AudioLanguages       []string
	SubtitleLanguages    []string
}

// AggregateSeason folds episodes into season statistics. The first reported
// resolution, container and positive bitrate win; durations and sizes add up;
// languages are unioned.
func AggregateSeason(episodes []jellyfin.Item) SeasonStats {
	stats := SeasonStats{
		AudioLanguages:    []string{},
		SubtitleLanguages: []string{},
	}
	audio := make(map[string]struct{})
	subs := make(map[string]struct{})

	for i := range episodes {
		ep := &episodes[i]
		video := videoStream(ep)

		if stats.Resolution == nil {
			stats.Resolution = Resolution(video)
		}
		if stats.Format == nil && ep.Container != "" {
			c := ep.Container
			stats.Format = &c
		}
		if stats.BitrateMbps == nil {
			if b := rawBitrate(ep, video); b != nil && *b > 0 {
				mbps := float64(*b) / bitsPerMbit
				stats.BitrateMbps = &mbps
			}
		}
		if d := DurationMinutes(ep.RunTimeTicks); d != nil {
			stats.TotalDurationMinutes += *d
		}
		if b := sizeBytes(ep); b != nil {
			stats.TotalSizeGB += float64(*b) / bytesPerGB
		}

		for _, s := range ep.MediaStreams {
			if s.Language == "" {
				continue
			}
			switch s.Type {
			case jellyfin.StreamAudio:
				stats.AudioLanguages = appendUnique(stats.AudioLanguages, audio, s.Language)
			case jellyfin.StreamSubtitle:
				stats.SubtitleLanguages = appendUnique(stats.SubtitleLanguages, subs, s.Language)
			}
		}
	}

	stats.Quality = Quality(stats.Resolution)
	return stats
}

func appendUnique(list []string, seen map[string]struct{}, v string) []string {
	if _, ok := seen[v]; ok {
		return list
	}
	seen[v] = struct{}{}
	return append(list, v)
}

// SeriesDetails correlates season and episode items into library rows.
//
// Episodes belong to a season when their SeasonId or ParentId equals the
// season id. When the server returned no seasons at all, seasons are
// synthesized by grouping episodes on SeasonId (else ParentId) and numbered
// from the first episode's ParentIndexNumber. Episodes without a season key
// are dropped.
func SeriesDetails(seriesID string, seasons, episodes []jellyfin.Item) ([]*library.Season, []*library.Episode) {
	var outSeasons []*library.Season
	var outEpisodes []*library.Episode

	if len(seasons) > 0 {
		for i := range seasons {
			s := &seasons[i]
			var group []jellyfin.Item
			for _, ep := range episodes {
				if ep.SeasonID == s.ID || ep.ParentID == s.ID {
					group = append(group, ep)
				}
			}
			number := intOr(s.IndexNumber, intOr(s.ParentIndexNumber, 0))
			outSeasons = append(outSeasons, seasonRow(seriesID, s.ID, number, group))
			outEpisodes = append(outEpisodes, episodeRows(seriesID, s.ID, number, group)...)
		}
		return outSeasons, outEpisodes
	}

	var order []string
	groups := make(map[string][]jellyfin.Item)
	for _, ep := range episodes {
		key := ep.SeasonID
		if key == "" {
			key = ep.ParentID
		}
		if key == "" {
			continue
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], ep)
	}
	for _, seasonID := range order {
		group := groups[seasonID]
		number := intOr(group[0].ParentIndexNumber, 0)
		outSeasons = append(outSeasons, seasonRow(seriesID, seasonID, number, group))
		outEpisodes = append(outEpisodes, episodeRows(seriesID, seasonID, number, group)...)
	}
	return outSeasons, outEpisodes
}

func seasonRow(seriesID, seasonID string, number int, episodes []jellyfin.Item) *library.Season {
	stats := AggregateSeason(episodes)
	duration := stats.TotalDurationMinutes
	size := stats.TotalSizeGB
	return &library.Season{
		ID:                   seasonID,
		SeriesID:             seriesID,
		Number:               number,
		Format:               stats.Format,
		Quality:              stats.Quality,
		Resolution:           stats.Resolution,
		BitrateMbps:          stats.BitrateMbps,
		TotalDurationMinutes: &duration,
		TotalSizeGB:          &size,
		AudioLanguages:       stats.AudioLanguages,
		SubtitleLanguages:    stats.SubtitleLanguages,
		EpisodeCount:         len(episodes),
	}
}

func episodeRows(seriesID, seasonID string, seasonNumber int, episodes []jellyfin.Item) []*library.Episode {
	rows := make([]*library.Episode, 0, len(episodes))
	for i := range episodes {
		ep := &episodes[i]
		rows = append(rows, &library.Episode{
			ID:              ep.ID,
			SeriesID:        seriesID,
			SeasonID:        seasonID,
			SeasonNumber:    seasonNumber,
			Number:          intOr(ep.IndexNumber, 0),
			Title:           ep.Name,
			DurationMinutes: DurationMinutes(ep.RunTimeTicks),
			SizeGB:          sizeGB(ep),
		})
	}
	return rows
}

func intOr(v *int, fallback int) int {
	if v != nil {
		return *v
	}
	return fallback
}
