package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/shelfsync/internal/app"
	"github.com/vmunix/shelfsync/internal/library"
	"github.com/vmunix/shelfsync/internal/settings"
)

const pagedLimit = 50

// listOptions are the flags shared by the movies and series commands.
type listOptions struct {
	search     string
	fuzzy      bool
	genres     []string
	favorites  bool
	quality    []string
	format     []string
	resolution []string
	sort       string
	limit      int
	offset     int
	limitSet   bool
}

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("search", "q", "", "Title contains (case-insensitive)")
	cmd.Flags().Bool("fuzzy", false, "Rank titles by similarity to --search instead of substring match")
	cmd.Flags().StringSliceP("genre", "g", nil, "Genre (repeatable, any match)")
	cmd.Flags().BoolP("favorites", "f", false, "Only favorites")
	cmd.Flags().StringSlice("quality", nil, "Quality label, e.g. 1080p (repeatable)")
	cmd.Flags().StringSlice("format", nil, "Container format, e.g. mkv (repeatable)")
	cmd.Flags().StringSlice("resolution", nil, "Resolution, e.g. 1920x1080 (repeatable)")
	cmd.Flags().String("sort", "", "Sort: alphabetical, recent (default: stored preference)")
	cmd.Flags().IntP("limit", "l", 0, "Maximum number of results (0 = display mode default)")
	cmd.Flags().Int("offset", 0, "Skip this many results")
}

func readListFlags(cmd *cobra.Command) listOptions {
	var o listOptions
	o.search, _ = cmd.Flags().GetString("search")
	o.fuzzy, _ = cmd.Flags().GetBool("fuzzy")
	o.genres, _ = cmd.Flags().GetStringSlice("genre")
	o.favorites, _ = cmd.Flags().GetBool("favorites")
	o.quality, _ = cmd.Flags().GetStringSlice("quality")
	o.format, _ = cmd.Flags().GetStringSlice("format")
	o.resolution, _ = cmd.Flags().GetStringSlice("resolution")
	o.sort, _ = cmd.Flags().GetString("sort")
	o.limit, _ = cmd.Flags().GetInt("limit")
	o.offset, _ = cmd.Flags().GetInt("offset")
	o.limitSet = cmd.Flags().Changed("limit")
	return o
}

func parseSort(s string, fallback library.SortMode) (library.SortMode, error) {
	switch strings.ToLower(s) {
	case "":
		return fallback, nil
	case "alphabetical", "alpha", "title":
		return library.SortAlphabetical, nil
	case "recent", "recentlyadded", "added":
		return library.SortRecentlyAdded, nil
	default:
		return "", fmt.Errorf("unknown sort %q (want alphabetical or recent)", s)
	}
}

// effectiveLimit applies the Paged50 display mode when --limit was not given.
func effectiveLimit(o listOptions, mode settings.ListDisplayMode) int {
	if !o.limitSet && mode == settings.DisplayPaged50 {
		return pagedLimit
	}
	return o.limit
}

func (o listOptions) movieFilter(sort library.SortMode, limit int) library.MovieFilter {
	return library.MovieFilter{
		Query:         o.search,
		Genres:        o.genres,
		FavoritesOnly: o.favorites,
		Quality:       o.quality,
		Format:        o.format,
		Resolution:    o.resolution,
		Sort:          sort,
		Limit:         limit,
		Offset:        o.offset,
	}
}

func (o listOptions) seriesFilter(sort library.SortMode, limit int) library.SeriesFilter {
	technical := map[library.TechnicalFilterType][]string{}
	if len(o.quality) > 0 {
		technical[library.FilterQuality] = o.quality
	}
	if len(o.format) > 0 {
		technical[library.FilterFormat] = o.format
	}
	if len(o.resolution) > 0 {
		technical[library.FilterResolution] = o.resolution
	}
	return library.SeriesFilter{
		Query:         o.search,
		Genres:        o.genres,
		FavoritesOnly: o.favorites,
		Technical:     technical,
		Sort:          sort,
		Limit:         limit,
		Offset:        o.offset,
	}
}

func init() {
	moviesCmd := &cobra.Command{
		Use:     "movies",
		Aliases: []string{"movie"},
		Short:   "List cached movies",
		Long: `List cached movies.

Technical filters (--quality, --format, --resolution) accept several values;
a movie matches when any value of each given filter matches.

Examples:
  shelfsync movies --genre Drama --sort recent
  shelfsync movies --quality 2160p --quality 4K
  shelfsync movies --search "lord rings" --fuzzy`,
		Args: cobra.NoArgs,
		RunE: runMovies,
	}
	addListFlags(moviesCmd)

	seriesCmd := &cobra.Command{
		Use:   "series",
		Short: "List cached series",
		Long: `List cached series.

Technical filters match against seasons: a series is listed when, for every
given filter, at least one of its seasons matches.`,
		Args: cobra.NoArgs,
		RunE: runSeries,
	}
	addListFlags(seriesCmd)

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a series with its seasons and episodes",
		Args:  cobra.ExactArgs(1),
		RunE:  runSeriesShow,
	}
	seriesCmd.AddCommand(showCmd)

	movieShowCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a movie's details",
		Args:  cobra.ExactArgs(1),
		RunE:  runMovieShow,
	}
	moviesCmd.AddCommand(movieShowCmd)

	favoriteCmd := &cobra.Command{
		Use:   "favorite movie|series <id>",
		Short: "Mark or unmark a favorite",
		Args:  cobra.ExactArgs(2),
		RunE:  runFavorite,
	}
	favoriteCmd.Flags().Bool("off", false, "Remove the favorite mark")

	rootCmd.AddCommand(moviesCmd, seriesCmd, favoriteCmd)
}

func runMovies(cmd *cobra.Command, _ []string) error {
	o := readListFlags(cmd)
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	movies, total, err := listMovies(a, o)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{"items": movies, "total": total})
	}
	if len(movies) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No movies found.")
		return nil
	}
	printMovieList(cmd.OutOrStdout(), movies, total)
	return nil
}

func listMovies(a *app.App, o listOptions) ([]*library.Movie, int, error) {
	mode, err := a.Settings.ListDisplayMode()
	if err != nil {
		return nil, 0, err
	}
	limit := effectiveLimit(o, mode)

	if o.fuzzy {
		if o.search == "" {
			return nil, 0, errors.New("--fuzzy needs --search")
		}
		movies, err := a.Library.FuzzySearchMovies(o.search, limit)
		return movies, len(movies), err
	}

	pref, err := a.Settings.MovieSortMode()
	if err != nil {
		return nil, 0, err
	}
	sort, err := parseSort(o.sort, pref)
	if err != nil {
		return nil, 0, err
	}
	return a.Library.ListMovies(o.movieFilter(sort, limit))
}

func runSeries(cmd *cobra.Command, _ []string) error {
	o := readListFlags(cmd)
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	series, total, err := listSeries(a, o)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{"items": series, "total": total})
	}
	if len(series) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No series found.")
		return nil
	}
	printSeriesList(cmd.OutOrStdout(), series, total)
	return nil
}

func listSeries(a *app.App, o listOptions) ([]*library.Series, int, error) {
	mode, err := a.Settings.ListDisplayMode()
	if err != nil {
		return nil, 0, err
	}
	limit := effectiveLimit(o, mode)

	if o.fuzzy {
		if o.search == "" {
			return nil, 0, errors.New("--fuzzy needs --search")
		}
		series, err := a.Library.FuzzySearchSeries(o.search, limit)
		return series, len(series), err
	}

	pref, err := a.Settings.SeriesSortMode()
	if err != nil {
		return nil, 0, err
	}
	sort, err := parseSort(o.sort, pref)
	if err != nil {
		return nil, 0, err
	}
	return a.Library.ListSeries(o.seriesFilter(sort, limit))
}

func runSeriesShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	detail, err := a.Library.GetSeriesDetail(args[0])
	if errors.Is(err, library.ErrNotFound) {
		return fmt.Errorf("series %s is not cached", args[0])
	}
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), detail)
	}
	printSeriesDetail(cmd.OutOrStdout(), detail)
	return nil
}

func runMovieShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	m, err := a.Library.GetMovie(args[0])
	if errors.Is(err, library.ErrNotFound) {
		return fmt.Errorf("movie %s is not cached", args[0])
	}
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), m)
	}
	printMovieDetail(cmd.OutOrStdout(), m)
	return nil
}

func runFavorite(cmd *cobra.Command, args []string) error {
	off, _ := cmd.Flags().GetBool("off")
	kind, id := args[0], args[1]

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	switch strings.ToLower(kind) {
	case "movie", "movies":
		err = a.Library.SetMovieFavorite(id, !off)
	case "series", "show":
		err = a.Library.SetSeriesFavorite(id, !off)
	default:
		return fmt.Errorf("unknown kind %q (want movie or series)", kind)
	}
	if errors.Is(err, library.ErrNotFound) {
		return fmt.Errorf("%s %s is not cached", kind, id)
	}
	if err != nil {
		return err
	}

	state := "added to"
	if off {
		state = "removed from"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s favorites\n", kind, id, state)
	return nil
}
