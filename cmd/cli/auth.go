package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"moviehub/internal/client"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and remember the token locally",
	Args:  cobra.NoArgs,
	RunE:  withEnv(runLogin),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the token and the favorites list",
	Args:  cobra.NoArgs,
	RunE:  withEnv(runLogout),
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether this store is logged in",
	Args:  cobra.NoArgs,
	RunE:  withEnv(runStatus),
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, statusCmd)
	loginCmd.Flags().StringP("username", "u", "", "username (prompted when empty)")
	loginCmd.Flags().StringP("password", "p", "", "password (prompted when empty)")
}

func runLogin(cmd *cobra.Command, env *cliEnv, _ []string) error {
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")

	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()
	if username == "" {
		username = prompt(in, out, "Username")
	}
	if password == "" {
		password = prompt(in, out, "Password")
	}
	if username == "" || password == "" {
		return errors.New("username and password are required")
	}

	resp, err := env.api.Login(cmd.Context(), username, password)
	if err != nil {
		if errors.Is(err, client.ErrUnauthenticated) {
			return errors.New("invalid credentials")
		}
		return fmt.Errorf("login failed: %w", err)
	}
	if err := env.session.Login(cmd.Context(), resp.Token); err != nil {
		return err
	}

	fmt.Fprintf(out, "Logged in as %s (token expires %s)\n", username, resp.ExpiresAt.Local().Format("2006-01-02 15:04"))
	return nil
}

func runLogout(cmd *cobra.Command, env *cliEnv, _ []string) error {
	if err := env.session.Logout(cmd.Context()); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
	return nil
}

type statusView struct {
	Authenticated bool   `json:"authenticated"`
	Favorites     int    `json:"favorites"`
	API           string `json:"api"`
	Store         string `json:"store"`
}

func runStatus(cmd *cobra.Command, env *cliEnv, _ []string) error {
	v := statusView{
		Authenticated: env.session.IsAuthenticated(),
		Favorites:     len(env.favorites.List()),
		API:           env.cfg.APIURL,
		Store:         env.cfg.StorePath,
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, v)
	}

	state := "logged out"
	if v.Authenticated {
		state = "logged in"
	}
	fmt.Fprintf(out, "Session:   %s\n", state)
	fmt.Fprintf(out, "Favorites: %d\n", v.Favorites)
	fmt.Fprintf(out, "API:       %s\n", v.API)
	fmt.Fprintf(out, "Store:     %s\n", v.Store)
	return nil
}

func prompt(in *bufio.Reader, out io.Writer, label string) string {
	fmt.Fprintf(out, "%s: ", label)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}
