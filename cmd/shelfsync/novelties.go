package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var noveltiesCmd = &cobra.Command{
	Use:     "novelties",
	Aliases: []string{"new"},
	Short:   "List items added since you last looked",
	Args:    cobra.NoArgs,
	RunE:    runNovelties,
}

func init() {
	noveltiesCmd.Flags().Bool("mark-seen", false, "Acknowledge the listed items")
	rootCmd.AddCommand(noveltiesCmd)
}

func runNovelties(cmd *cobra.Command, _ []string) error {
	markSeen, _ := cmd.Flags().GetBool("mark-seen")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	since, err := a.Settings.LibraryLastSeen()
	if err != nil {
		return err
	}
	n, err := a.Library.ListNovelties(since)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		if err := printJSON(out, n); err != nil {
			return err
		}
	} else if n.Count() == 0 {
		fmt.Fprintln(out, "Nothing new.")
	} else {
		if len(n.Movies) > 0 {
			printMovieList(out, n.Movies, len(n.Movies))
			fmt.Fprintln(out)
		}
		if len(n.Series) > 0 {
			printSeriesList(out, n.Series, len(n.Series))
		}
	}

	if markSeen {
		if err := a.Settings.SetLibraryLastSeen(time.Now()); err != nil {
			return err
		}
		if !jsonOutput {
			fmt.Fprintln(out, "Marked as seen.")
		}
	}
	return nil
}
