package library

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_AreDistinct(t *testing.T) {
	assert.False(t, errors.Is(ErrNotFound, ErrDuplicate), "ErrNotFound should not match ErrDuplicate")
	assert.False(t, errors.Is(ErrNotFound, ErrConstraint), "ErrNotFound should not match ErrConstraint")
	assert.False(t, errors.Is(ErrDuplicate, ErrConstraint), "ErrDuplicate should not match ErrConstraint")
}

func TestErrors_CanBeWrapped(t *testing.T) {
	wrapped := fmt.Errorf("movie m1: %w", ErrNotFound)
	assert.True(t, errors.Is(wrapped, ErrNotFound), "wrapped error should match ErrNotFound")
}

func TestMapSQLiteError(t *testing.T) {
	assert.Nil(t, mapSQLiteError(nil))
	assert.ErrorIs(t, mapSQLiteError(sql.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, mapSQLiteError(errors.New("UNIQUE constraint failed: movies.id")), ErrDuplicate)
	assert.ErrorIs(t, mapSQLiteError(errors.New("FOREIGN KEY constraint failed")), ErrConstraint)

	other := errors.New("disk I/O error")
	assert.Equal(t, other, mapSQLiteError(other))
}

func TestParseScope(t *testing.T) {
	for in, want := range map[string]Scope{"": ScopeAll, "ALL": ScopeAll, "movies": ScopeMovies, "series": ScopeSeries} {
		got, err := ParseScope(in)
		assert.NoError(t, err)
		assert.Equal(t, want, got, "input %q", in)
	}
	_, err := ParseScope("music")
	assert.Error(t, err)

	assert.True(t, ScopeAll.IncludesMovies())
	assert.True(t, ScopeAll.IncludesSeries())
	assert.False(t, ScopeMovies.IncludesSeries())
	assert.False(t, ScopeSeries.IncludesMovies())
}
