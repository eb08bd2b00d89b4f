package syncer

import "fmt"

// Mode selects a sync strategy.
type Mode string

const (
	ModeIncremental Mode = "incremental"
	ModeFast        Mode = "fast"
	ModeDetails     Mode = "details"
)

// ParseMode parses a sync mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeIncremental, ModeFast, ModeDetails:
		return Mode(s), nil
	case "":
		return ModeIncremental, nil
	default:
		return "", fmt.Errorf("unknown sync mode %q (want incremental, fast or details)", s)
	}
}

// ResultKind tags a Result.
type ResultKind int

const (
	ResultSuccess ResultKind = iota
	ResultNetworkError
	ResultUnknownError
	ResultCancelled
)

func (k ResultKind) String() string {
	switch k {
	case ResultSuccess:
		return "success"
	case ResultNetworkError:
		return "network_error"
	case ResultUnknownError:
		return "unknown_error"
	case ResultCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("ResultKind(%d)", int(k))
	}
}

// Result is the terminal outcome of a sync run. Movies and Series count the
// rows written by catalog and detail passes.
type Result struct {
	Kind    ResultKind
	Message string
	Movies  int
	Series  int
}

// OK reports whether the run succeeded.
func (r Result) OK() bool { return r.Kind == ResultSuccess }

func (r Result) String() string {
	if r.Message == "" {
		return r.Kind.String()
	}
	return r.Kind.String() + ": " + r.Message
}
