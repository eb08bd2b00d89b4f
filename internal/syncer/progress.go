package syncer

// Phase names a stage of a sync run.
type Phase string

const (
	PhaseMoviesCatalog Phase = "fetching_movies_catalog"
	PhaseMoviesDetails Phase = "fetching_movies_details"
	PhaseSeries        Phase = "fetching_series"
	PhaseSeriesDetails Phase = "series_details"
)

// Label is a short human description of the phase.
func (p Phase) Label() string {
	switch p {
	case PhaseMoviesCatalog:
		return "Fetching movies"
	case PhaseMoviesDetails:
		return "Fetching movie details"
	case PhaseSeries:
		return "Fetching series"
	case PhaseSeriesDetails:
		return "Refreshing seasons and episodes"
	default:
		return string(p)
	}
}

// Progress is one progress report. Total is an estimate until the phase's
// last page arrives and may shrink.
type Progress struct {
	Processed int
	Total     int
	Phase     Phase
}

// Reporter receives progress reports in order.
type Reporter func(Progress)

func discard(Progress) {}
