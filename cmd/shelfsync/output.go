package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/shelfsync/internal/library"
)

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", prompt)
	input, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func formatSize(gb *float64) string {
	if gb == nil {
		return "-"
	}
	if *gb < 1 {
		return fmt.Sprintf("%.0f MB", *gb*1024)
	}
	return fmt.Sprintf("%.1f GB", *gb)
}

func formatMinutes(m *int) string {
	if m == nil {
		return "-"
	}
	if *m < 60 {
		return fmt.Sprintf("%dm", *m)
	}
	return fmt.Sprintf("%dh%02dm", *m/60, *m%60)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(time.DateOnly)
}

func star(fav bool) string {
	if fav {
		return "*"
	}
	return " "
}

func printMovieList(w io.Writer, movies []*library.Movie, total int) {
	fmt.Fprintf(w, "Movies (%d):\n\n", total)
	fmt.Fprintf(w, "  %-1s %-32s %-40s %-8s %-6s %-10s %s\n", "", "ID", "TITLE", "QUALITY", "FORMAT", "SIZE", "ADDED")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 116))
	for _, m := range movies {
		fmt.Fprintf(w, "  %-1s %-32s %-40s %-8s %-6s %-10s %s\n",
			star(m.Favorite),
			m.ID,
			truncate(m.Title, 40),
			orDash(m.Quality),
			orDash(m.Format),
			formatSize(m.SizeGB),
			formatDate(m.CreatedAt))
	}
	if total > len(movies) {
		fmt.Fprintf(w, "\n  Showing %d of %d. Use --limit and --offset to see more.\n", len(movies), total)
	}
}

func printSeriesList(w io.Writer, series []*library.Series, total int) {
	fmt.Fprintf(w, "Series (%d):\n\n", total)
	fmt.Fprintf(w, "  %-1s %-32s %-40s %-7s %-8s %s\n", "", "ID", "TITLE", "SEASONS", "EPISODES", "ADDED")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 106))
	for _, s := range series {
		fmt.Fprintf(w, "  %-1s %-32s %-40s %-7d %-8d %s\n",
			star(s.Favorite),
			s.ID,
			truncate(s.Title, 40),
			s.TotalSeasons,
			s.TotalEpisodes,
			formatDate(s.CreatedAt))
	}
	if total > len(series) {
		fmt.Fprintf(w, "\n  Showing %d of %d. Use --limit and --offset to see more.\n", len(series), total)
	}
}

func printMovieDetail(w io.Writer, m *library.Movie) {
	fmt.Fprintf(w, "%s\n", m.Title)
	fmt.Fprintf(w, "  ID:         %s\n", m.ID)
	fmt.Fprintf(w, "  Added:      %s\n", formatDate(m.CreatedAt))
	fmt.Fprintf(w, "  Favorite:   %t\n", m.Favorite)
	fmt.Fprintf(w, "  Genres:     %s\n", joinOrDash(m.Genres))
	fmt.Fprintf(w, "  Quality:    %s (%s, %s)\n", orDash(m.Quality), orDash(m.Resolution), orDash(m.Format))
	if m.BitrateMbps != nil {
		fmt.Fprintf(w, "  Bitrate:    %.1f Mbps\n", *m.BitrateMbps)
	}
	if m.FPS != nil {
		fmt.Fprintf(w, "  FPS:        %.3g\n", *m.FPS)
	}
	fmt.Fprintf(w, "  Duration:   %s\n", formatMinutes(m.DurationMinutes))
	fmt.Fprintf(w, "  Size:       %s\n", formatSize(m.SizeGB))
	fmt.Fprintf(w, "  Audio:      %s\n", joinOrDash(m.AudioLanguages))
	fmt.Fprintf(w, "  Subtitles:  %s\n", joinOrDash(m.SubtitleLanguages))
	if m.PosterURL != "" {
		fmt.Fprintf(w, "  Poster:     %s\n", m.PosterURL)
	}
}

func printSeriesDetail(w io.Writer, d *library.SeriesDetail) {
	s := d.Series
	fmt.Fprintf(w, "%s\n", s.Title)
	fmt.Fprintf(w, "  ID:        %s\n", s.ID)
	fmt.Fprintf(w, "  Added:     %s\n", formatDate(s.CreatedAt))
	fmt.Fprintf(w, "  Favorite:  %t\n", s.Favorite)
	fmt.Fprintf(w, "  Genres:    %s\n", joinOrDash(s.Genres))
	fmt.Fprintf(w, "  Seasons:   %d (%d episodes)\n", s.TotalSeasons, s.TotalEpisodes)
	if s.PosterURL != "" {
		fmt.Fprintf(w, "  Poster:    %s\n", s.PosterURL)
	}

	for _, sn := range d.Seasons {
		fmt.Fprintf(w, "\n  Season %d: %d episodes, %s %s %s, %s, %s\n",
			sn.Number, sn.EpisodeCount,
			orDash(sn.Quality), orDash(sn.Resolution), orDash(sn.Format),
			formatMinutes(sn.TotalDurationMinutes), formatSize(sn.TotalSizeGB))
		for _, e := range d.Episodes[sn.ID] {
			fmt.Fprintf(w, "    %2d. %-50s %8s %10s\n",
				e.Number, truncate(e.Title, 50), formatMinutes(e.DurationMinutes), formatSize(e.SizeGB))
		}
	}
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
