package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/vmunix/shelfsync/internal/library"
	"github.com/vmunix/shelfsync/internal/syncer"
)

const progressPoll = 100 * time.Millisecond

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize the catalog from the server",
	Long: `Synchronize movies and series into the local cache.

Modes:
  incremental  movies changed since the last sync, then every series (default)
  fast         every catalog page with a larger movie page size
  details      re-fetch technical details for cached items only

Manual incremental syncs re-read the whole movie catalog unless --full=false
is given, in which case only movies created since the last sync are fetched.
Press Ctrl-C to stop; whatever was written before that is kept.

Examples:
  shelfsync sync
  shelfsync sync --scope series
  shelfsync sync --mode details --scope movies`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	addSyncFlags(syncCmd)
	rootCmd.AddCommand(syncCmd)
}

func addSyncFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("mode", "m", "incremental", "Sync mode: incremental, fast, details")
	cmd.Flags().StringP("scope", "s", "all", "Scope: all, movies, series")
	cmd.Flags().Bool("full", true, "Ignore the last-sync watermark for movies (incremental mode)")
	cmd.Flags().Bool("no-progress", false, "Do not draw a progress bar")
}

func syncRequest(cmd *cobra.Command) (syncer.Request, error) {
	modeFlag, _ := cmd.Flags().GetString("mode")
	scopeFlag, _ := cmd.Flags().GetString("scope")
	full, _ := cmd.Flags().GetBool("full")

	mode, err := syncer.ParseMode(modeFlag)
	if err != nil {
		return syncer.Request{}, err
	}
	scope, err := library.ParseScope(scopeFlag)
	if err != nil {
		return syncer.Request{}, err
	}

	req := syncer.ManualRequest(mode, scope)
	if !full {
		req.ForceFullMovies = false
	}
	return req, nil
}

func runSync(cmd *cobra.Command, _ []string) error {
	req, err := syncRequest(cmd)
	if err != nil {
		return err
	}
	quiet, _ := cmd.Flags().GetBool("no-progress")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	interrupt, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	run := a.Runner.Start(context.WithoutCancel(cmd.Context()), req)
	go func() {
		select {
		case <-interrupt.Done():
			a.Runner.Cancel()
		case <-run.Done():
		}
	}()

	if quiet || jsonOutput {
		<-run.Done()
	} else {
		showProgress(cmd.ErrOrStderr(), a.Runner, run)
	}

	res := run.Wait()
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, map[string]any{
			"run_id":  run.ID,
			"result":  res.Kind.String(),
			"message": res.Message,
			"movies":  res.Movies,
			"series":  res.Series,
		})
	}

	switch res.Kind {
	case syncer.ResultSuccess:
		fmt.Fprintf(out, "Sync #%d complete: %d movies, %d series\n", run.ID, res.Movies, res.Series)
		return nil
	case syncer.ResultCancelled:
		msg := a.Runner.Status().LastError
		if msg == "" {
			msg = syncer.CancelAdvisory
		}
		fmt.Fprintln(out, msg)
		return nil
	default:
		return fmt.Errorf("sync #%d failed: %s", run.ID, res)
	}
}

// showProgress redraws a bar from the runner status until run finishes.
// A new phase restarts the bar.
func showProgress(w io.Writer, r *syncer.Runner, run *syncer.Run) {
	var bar *progressbar.ProgressBar
	var phase syncer.Phase

	ticker := time.NewTicker(progressPoll)
	defer ticker.Stop()
	for {
		select {
		case <-run.Done():
			if bar != nil {
				_ = bar.Finish()
				fmt.Fprintln(w)
			}
			return
		case <-ticker.C:
		}

		st := r.Status()
		if !st.Running || st.RunID != run.ID || st.Phase == "" {
			continue
		}
		if bar == nil || st.Phase != phase {
			if bar != nil {
				_ = bar.Finish()
				fmt.Fprintln(w)
			}
			phase = st.Phase
			bar = newBar(w, st.Phase.Label(), st.Total)
		}
		if st.Total > 0 {
			bar.ChangeMax(st.Total)
		}
		_ = bar.Set(min(st.Processed, max(st.Total, 0)))
	}
}

func newBar(w io.Writer, label string, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(max(total, 1),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(label),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(progressPoll),
		progressbar.OptionSetPredictTime(false),
	)
}
