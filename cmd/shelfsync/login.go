package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against the configured server",
	Long: `Store the [server] section of the config file and authenticate.

With an API key nothing is sent; the key is used for every request.
Otherwise the username and password are exchanged for a session token,
which is kept in the local cache.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res := a.Session.Authenticate(cmd.Context())
	if !res.OK() {
		return fmt.Errorf("login failed: %s", res)
	}

	sc, err := a.Settings.ServerConfig()
	if err != nil {
		return err
	}
	who := sc.Username
	if sc.APIKey != "" {
		who = "API key"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in to %s as %s\n", sc.BaseURL, who)
	return nil
}
