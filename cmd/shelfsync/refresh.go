package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Re-fetch one item from the server",
	}

	movieCmd := &cobra.Command{
		Use:   "movie <id>",
		Short: "Refresh a movie's technical details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Engine.RefreshMovieDetails(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("refresh movie %s: %w", args[0], err)
			}
			m, err := a.Library.GetMovie(args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), m)
			}
			printMovieDetail(cmd.OutOrStdout(), m)
			return nil
		},
	}

	seriesCmd := &cobra.Command{
		Use:   "series <id>",
		Short: "Refresh a series' seasons and episodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Engine.RefreshSeriesDetails(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("refresh series %s: %w", args[0], err)
			}
			detail, err := a.Library.GetSeriesDetail(args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), detail)
			}
			printSeriesDetail(cmd.OutOrStdout(), detail)
			return nil
		},
	}

	refreshCmd.AddCommand(movieCmd, seriesCmd)
	rootCmd.AddCommand(refreshCmd)
}
