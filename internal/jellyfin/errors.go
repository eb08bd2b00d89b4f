package jellyfin

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the jellyfin package.
var (
	// ErrUnauthorized is matched by a StatusError carrying 401.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is matched by a StatusError carrying 404.
	ErrNotFound = errors.New("not found")

	// ErrCircuitOpen is returned while the breaker rejects calls to a failing server.
	ErrCircuitOpen = errors.New("circuit open")
)

// StatusError is a non-2xx response from the server.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("jellyfin: %s", e.Status)
	}
	return fmt.Sprintf("jellyfin: %s: %s", e.Status, e.Body)
}

// Is lets errors.Is match ErrUnauthorized and ErrNotFound.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// IsStatus reports whether err carries an HTTP status error and returns it.
func IsStatus(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
