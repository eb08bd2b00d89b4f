package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vmunix/shelfsync/internal/library"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete cached items and posters",
	Long: `Delete cached items and their posters, and reset the last-sync time so
the next incremental sync fetches everything again. Favorites are lost.`,
	Args: cobra.NoArgs,
	RunE: runClear,
}

func init() {
	clearCmd.Flags().StringP("scope", "s", "all", "Scope: all, movies, series")
	clearCmd.Flags().Bool("yes", false, "Do not ask for confirmation")
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, _ []string) error {
	scopeFlag, _ := cmd.Flags().GetString("scope")
	yes, _ := cmd.Flags().GetBool("yes")

	scope, err := library.ParseScope(scopeFlag)
	if err != nil {
		return err
	}

	if !yes && !confirm(cmd, fmt.Sprintf("Delete all cached %s?", scopeNoun(scope))) {
		fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
		return nil
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.ClearCatalog(cmd.Context(), scope); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s.\n", scopeNoun(scope))
	return nil
}

func scopeNoun(s library.Scope) string {
	switch s {
	case library.ScopeMovies:
		return "movies"
	case library.ScopeSeries:
		return "series"
	default:
		return "movies and series"
	}
}
