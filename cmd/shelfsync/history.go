package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vmunix/shelfsync/internal/syncer"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent sync runs",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "l", 20, "Number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.History.Recent(limit)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No syncs recorded.")
		return nil
	}
	printHistory(cmd.OutOrStdout(), entries, time.Now())
	return nil
}

func printHistory(w io.Writer, entries []syncer.HistoryEntry, now time.Time) {
	fmt.Fprintf(w, "  %-5s %-10s %-12s %-7s %-14s %s\n", "RUN", "OUTCOME", "MODE", "SCOPE", "WHEN", "DETAIL")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 80))
	for _, e := range entries {
		detail := e.Message
		if e.Outcome == "completed" {
			detail = fmt.Sprintf("%d movies, %d series in %s", e.Movies, e.Series, e.Duration.Round(time.Second))
		}
		fmt.Fprintf(w, "  %-5d %-10s %-12s %-7s %-14s %s\n",
			e.RunID, e.Outcome, e.Mode, e.Scope, humanize.RelTime(e.At, now, "ago", "from now"), detail)
	}
}
