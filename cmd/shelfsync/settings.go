package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/shelfsync/internal/settings"
)

func init() {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change stored preferences",
		Long: `Show or change preferences stored in the local cache.

Keys:
  auto_sync_mode           OnStart, OnClose, Manual (daemon)
  movie_details_sync_mode  All, RecentOnly
  list_display_mode        Infinite, Paged50
  offline_posters_enabled  true, false
  movie_sort_mode          Alphabetical, RecentlyAdded
  series_sort_mode         Alphabetical, RecentlyAdded`,
		Args: cobra.NoArgs,
		RunE: runSettingsList,
	}

	getCmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print one setting",
		Args:  cobra.ExactArgs(1),
		RunE:  runSettingsGet,
	}

	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting",
		Args:  cobra.ExactArgs(2),
		RunE:  runSettingsSet,
	}

	settingsCmd.AddCommand(getCmd, setCmd)
	rootCmd.AddCommand(settingsCmd)
}

func displayValue(key, value string) string {
	if settings.IsSecret(key) && value != "" {
		return "********"
	}
	return value
}

func runSettingsList(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	values := make(map[string]string)
	for _, key := range settings.Keys() {
		v, err := a.Settings.Value(key)
		if err != nil {
			return err
		}
		values[key] = displayValue(key, v)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), values)
	}
	for _, key := range settings.Keys() {
		fmt.Fprintf(cmd.OutOrStdout(), "%-26s %s\n", key, values[key])
	}
	return nil
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	key := strings.TrimSpace(args[0])
	v, err := a.Settings.Value(key)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), displayValue(key, v))
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	key := strings.TrimSpace(args[0])
	if err := a.Settings.Set(key, args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, displayValue(key, args[1]))
	return nil
}
