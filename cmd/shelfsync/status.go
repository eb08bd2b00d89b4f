package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vmunix/shelfsync/internal/app"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Server connectivity, last sync and cache usage",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// StatusReport is the status command output.
type StatusReport struct {
	Server       string    `json:"server"`
	Connection   string    `json:"connection"`
	Connected    bool      `json:"connected"`
	LastSync     time.Time `json:"last_sync"`
	Movies       int       `json:"movies"`
	Series       int       `json:"series"`
	DatabaseSize int64     `json:"database_bytes"`
	PosterFiles  int       `json:"poster_files"`
	PosterSize   int64     `json:"poster_bytes"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := buildStatus(cmd, a)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), report)
	}
	printStatus(cmd.OutOrStdout(), report, time.Now())
	return nil
}

func buildStatus(cmd *cobra.Command, a *app.App) (*StatusReport, error) {
	r := &StatusReport{Server: "(not configured)"}
	if sc, err := a.Settings.ServerConfig(); err == nil {
		r.Server = sc.BaseURL
	}

	conn := a.Session.CheckServerStatus(cmd.Context())
	r.Connected = conn.OK()
	r.Connection = conn.String()

	var err error
	if r.LastSync, err = a.Settings.LastSync(); err != nil {
		return nil, err
	}
	if r.Movies, err = a.Library.CountMovies(); err != nil {
		return nil, err
	}
	if r.Series, err = a.Library.CountSeries(); err != nil {
		return nil, err
	}
	if info, err := os.Stat(a.Config.Database.Path); err == nil {
		r.DatabaseSize = info.Size()
	}
	usage, err := a.Posters.Usage()
	if err != nil {
		return nil, err
	}
	r.PosterFiles, r.PosterSize = usage.Files, usage.Bytes
	return r, nil
}

func printStatus(w io.Writer, r *StatusReport, now time.Time) {
	fmt.Fprintf(w, "Server:     %s (%s)\n", r.Server, r.Connection)

	last := "never"
	if !r.LastSync.IsZero() {
		last = fmt.Sprintf("%s (%s)", humanize.RelTime(r.LastSync, now, "ago", "from now"), r.LastSync.Local().Format(time.DateTime))
	}
	fmt.Fprintf(w, "Last sync:  %s\n\n", last)

	fmt.Fprintln(w, "Library")
	fmt.Fprintf(w, "  Movies:   %s\n", humanize.Comma(int64(r.Movies)))
	fmt.Fprintf(w, "  Series:   %s\n\n", humanize.Comma(int64(r.Series)))

	fmt.Fprintln(w, "Storage")
	fmt.Fprintf(w, "  Database: %s\n", humanize.Bytes(uint64(r.DatabaseSize)))
	fmt.Fprintf(w, "  Posters:  %s in %d files\n", humanize.Bytes(uint64(r.PosterSize)), r.PosterFiles)
}
