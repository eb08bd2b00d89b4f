package library

import "fmt"

// Clear deletes cached entities for scope in one transaction. The series
// family is removed child-first: episodes, seasons, then series.
func (s *Store) Clear(scope Scope) error {
	var statements []string
	if scope.IncludesMovies() {
		statements = append(statements, "DELETE FROM movies")
	}
	if scope.IncludesSeries() {
		statements = append(statements, "DELETE FROM episodes", "DELETE FROM seasons", "DELETE FROM series")
	}
	if len(statements) == 0 {
		return fmt.Errorf("clear: unknown scope %q", scope)
	}

	return s.inTx(func(q querier) error {
		for _, stmt := range statements {
			if _, err := q.Exec(stmt); err != nil {
				return fmt.Errorf("clear %s: %w", scope, mapSQLiteError(err))
			}
		}
		return nil
	})
}
