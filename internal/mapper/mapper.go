// Package mapper converts Jellyfin items into library entities.
//
// Movie performs the full detail mapping and derives technical attributes
// from streams and sources. MovieCatalog and SeriesCatalog map only catalog
// fields and carry every other attribute forward from the stored row.
package mapper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/vmunix/shelfsync/internal/jellyfin"
	"github.com/vmunix/shelfsync/internal/library"
)

const (
	ticksPerSecond = 10_000_000
	bytesPerGB     = 1024 * 1024 * 1024
	bitsPerMbit    = 1_000_000
)

var resolutionRe = regexp.MustCompile(`(\d+)x(\d+)`)

// Movie maps a detail item. Technical attributes the item does not report
// keep their existing value. ok is false when the item is not a movie.
func Movie(item *jellyfin.Item, baseURL string, existing *library.Movie) (m *library.Movie, ok bool) {
	if item == nil || item.Type != jellyfin.TypeMovie {
		return nil, false
	}
	if existing == nil {
		existing = &library.Movie{}
	}

	video := videoStream(item)
	resolution, quality := existing.Resolution, existing.Quality
	if r := Resolution(video); r != nil {
		resolution, quality = r, Quality(r)
	}

	m = &library.Movie{
		ID:              item.ID,
		Title:           item.Name,
		CreatedAt:       createdAt(item.DateCreated, existing.CreatedAt),
		PosterURL:       PosterURL(baseURL, item),
		Format:          orString(Format(item), existing.Format),
		Quality:         quality,
		Resolution:      resolution,
		BitrateMbps:     orFloat(bitrateMbps(item, video), existing.BitrateMbps),
		FPS:             existing.FPS,
		DurationMinutes: orInt(DurationMinutes(item.RunTimeTicks), existing.DurationMinutes),
		SizeGB:          orFloat(sizeGB(item), existing.SizeGB),
		Genres:          nonNil(item.Genres),
		Favorite:        existing.Favorite,
	}

	if item.MediaStreams != nil {
		m.AudioLanguages = Languages(item.MediaStreams, jellyfin.StreamAudio)
		m.SubtitleLanguages = Languages(item.MediaStreams, jellyfin.StreamSubtitle)
	} else {
		m.AudioLanguages = nonNil(existing.AudioLanguages)
		m.SubtitleLanguages = nonNil(existing.SubtitleLanguages)
	}
	return m, true
}

// MovieCatalog maps catalog fields only. Every technical attribute and
// language list is copied from existing.
func MovieCatalog(item *jellyfin.Item, baseURL string, existing *library.Movie) (*library.Movie, bool) {
	if item == nil || item.Type != jellyfin.TypeMovie {
		return nil, false
	}
	m := &library.Movie{
		ID:        item.ID,
		Title:     item.Name,
		PosterURL: PosterURL(baseURL, item),
	}
	var prevCreated *time.Time
	if existing != nil {
		prevCreated = existing.CreatedAt
		m.Format = existing.Format
		m.Quality = existing.Quality
		m.Resolution = existing.Resolution
		m.BitrateMbps = existing.BitrateMbps
		m.FPS = existing.FPS
		m.DurationMinutes = existing.DurationMinutes
		m.SizeGB = existing.SizeGB
		m.AudioLanguages = existing.AudioLanguages
		m.SubtitleLanguages = existing.SubtitleLanguages
		m.Genres = existing.Genres
		m.Favorite = existing.Favorite
	}
	m.CreatedAt = createdAt(item.DateCreated, prevCreated)
	if item.Genres != nil {
		m.Genres = item.Genres
	}
	m.AudioLanguages = nonNil(m.AudioLanguages)
	m.SubtitleLanguages = nonNil(m.SubtitleLanguages)
	m.Genres = nonNil(m.Genres)
	return m, true
}

// SeriesCatalog maps a series item. Totals and the favorite flag are
// preserved from existing.
func SeriesCatalog(item *jellyfin.Item, baseURL string, existing *library.Series) (*library.Series, bool) {
	if item == nil || item.Type != jellyfin.TypeSeries {
		return nil, false
	}
	s := &library.Series{
		ID:        item.ID,
		Title:     item.Name,
		PosterURL: PosterURL(baseURL, item),
		Genres:    item.Genres,
	}
	var prevCreated *time.Time
	if existing != nil {
		prevCreated = existing.CreatedAt
		s.TotalSeasons = existing.TotalSeasons
		s.TotalEpisodes = existing.TotalEpisodes
		s.Favorite = existing.Favorite
		if s.Genres == nil {
			s.Genres = existing.Genres
		}
	}
	s.CreatedAt = createdAt(item.DateCreated, prevCreated)
	s.Genres = nonNil(s.Genres)
	return s, true
}

// PosterURL builds the primary image URL, or "" when the item has no primary image.
func PosterURL(baseURL string, item *jellyfin.Item) string {
	tag := item.ImageTags["Primary"]
	if tag == "" {
		return ""
	}
	return fmt.Sprintf("%s/Items/%s/Images/Primary?tag=%s", strings.TrimRight(baseURL, "/"), item.ID, tag)
}

// Resolution formats a video stream's dimensions as "WxH".
func Resolution(video *jellyfin.MediaStream) *string {
	if video == nil || video.Width == nil || video.Height == nil {
		return nil
	}
	r := fmt.Sprintf("%dx%d", *video.Width, *video.Height)
	return &r
}

// Quality buckets a "WxH" resolution into 4K, 1080p, 720p or 480p.
func Quality(resolution *string) *string {
	if resolution == nil {
		return nil
	}
	match := resolutionRe.FindStringSubmatch(*resolution)
	if match == nil {
		return nil
	}
	w, errW := strconv.Atoi(match[1])
	h, errH := strconv.Atoi(match[2])
	if errW != nil || errH != nil {
		return nil
	}

	var q string
	switch {
	case w >= 3840 || h >= 2160:
		q = "4K"
	case w >= 1920 || h >= 1040:
		q = "1080p"
	case w >= 1280 || h >= 700:
		q = "720p"
	case w >= 854 || h >= 480:
		q = "480p"
	default:
		return nil
	}
	return &q
}

// Format picks the container of the first source that declares one, falling
// back to the item container, normalized to its first lowercase token.
func Format(item *jellyfin.Item) *string {
	raw := item.Container
	for _, src := range item.MediaSources {
		if c := strings.TrimSpace(src.Container); c != "" {
			raw = c
			break
		}
	}
	return normalizeContainer(raw)
}

func normalizeContainer(raw string) *string {
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			f := strings.ToLower(part)
			return &f
		}
	}
	return nil
}

// DurationMinutes converts runtime ticks to whole minutes.
func DurationMinutes(ticks *int64) *int {
	if ticks == nil {
		return nil
	}
	minutes := int(*ticks / ticksPerSecond / 60)
	return &minutes
}

// Languages returns the distinct languages of streams of the given type, in
// encounter order.
func Languages(streams []jellyfin.MediaStream, streamType string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, s := range streams {
		if s.Type != streamType || s.Language == "" {
			continue
		}
		if _, ok := seen[s.Language]; ok {
			continue
		}
		seen[s.Language] = struct{}{}
		out = append(out, s.Language)
	}
	return out
}

func videoStream(item *jellyfin.Item) *jellyfin.MediaStream {
	for i := range item.MediaStreams {
		if item.MediaStreams[i].Type == jellyfin.StreamVideo {
			return &item.MediaStreams[i]
		}
	}
	return nil
}

func rawBitrate(item *jellyfin.Item, video *jellyfin.MediaStream) *int64 {
	if video != nil && video.Bitrate != nil {
		return video.Bitrate
	}
	if len(item.MediaSources) > 0 {
		return item.MediaSources[0].Bitrate
	}
	return nil
}

func bitrateMbps(item *jellyfin.Item, video *jellyfin.MediaStream) *float64 {
	b := rawBitrate(item, video)
	if b == nil {
		return nil
	}
	mbps := float64(*b) / bitsPerMbit
	return &mbps
}

func sizeBytes(item *jellyfin.Item) *int64 {
	if len(item.MediaSources) == 0 {
		return nil
	}
	return item.MediaSources[0].Size
}

func sizeGB(item *jellyfin.Item) *float64 {
	b := sizeBytes(item)
	if b == nil {
		return nil
	}
	gb := float64(*b) / bytesPerGB
	return &gb
}

func createdAt(raw string, fallback *time.Time) *time.Time {
	if raw == "" {
		return fallback
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fallback
	}
	t = t.UTC()
	return &t
}

func orString(v, fallback *string) *string {
	if v != nil {
		return v
	}
	return fallback
}

func orFloat(v, fallback *float64) *float64 {
	if v != nil {
		return v
	}
	return fallback
}

func orInt(v, fallback *int) *int {
	if v != nil {
		return v
	}
	return fallback
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
