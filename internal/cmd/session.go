package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cccteam/eduauth/config"
	"github.com/cccteam/eduauth/identity/hosted"
	"github.com/cccteam/eduauth/roleresolver"
	"github.com/cccteam/eduauth/roles"
	"github.com/cccteam/eduauth/sessionstate"
	"github.com/go-playground/errors/v5"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage the local session",
	Long: `Sign in, inspect and follow the local session.

The session is kept in TOKEN_STORE_PATH, encrypted with TOKEN_STORE_KEY. Without
a key one is generated and kept next to the session file.`,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email and password",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the local session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user and the roles it holds",
	RunE:  runWhoami,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow session changes until interrupted",
	Long: `Follow session changes until interrupted.

A signed-in user without any role is sent to PROFILE_ROUTE unless the
current location is one of AUTH_ROUTES.`,
	RunE: runWatch,
}

var (
	loginEmail    string
	loginPassword string
	watchLocation string
)

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password (default $EDUAUTH_PASSWORD)")
	_ = loginCmd.MarkFlagRequired("email")

	watchCmd.Flags().StringVar(&watchLocation, "location", "/", "Route the session is followed from")

	sessionCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, watchCmd)
	rootCmd.AddCommand(sessionCmd)
}

func newClient(cfg *config.Config) (*hosted.Client, error) {
	ts, err := hosted.NewFileTokenStore(cfg.TokenStorePath, cfg.TokenStoreKey)
	if err != nil {
		return nil, errors.Wrap(err, "hosted.NewFileTokenStore()")
	}

	c, err := hosted.NewClient(cfg.IdentityURL, cfg.IdentityAnonKey, hosted.WithTimeout(cfg.IdentityTimeout), hosted.WithTokenStore(ts))
	if err != nil {
		return nil, errors.Wrap(err, "hosted.NewClient()")
	}

	return c, nil
}

func runLogin(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	password := loginPassword
	if password == "" {
		password = os.Getenv("EDUAUTH_PASSWORD")
	}
	if password == "" {
		return errors.New("a password is required: use --password or EDUAUTH_PASSWORD")
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	sess, err := client.SignInWithPassword(cmd.Context(), strings.TrimSpace(loginEmail), password)
	if err != nil {
		return errors.Wrap(err, "hosted.Client.SignInWithPassword()")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s (%s)\n", sess.User.Email, sess.User.ID)

	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.SignOut(cmd.Context()); err != nil {
		return errors.Wrap(err, "hosted.Client.SignOut()")
	}

	fmt.Fprintln(cmd.OutOrStdout(), "signed out")

	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	holder := sessionstate.New(client, client, newConsoleNavigator(cmd.OutOrStdout(), "/"))
	defer holder.Close()

	state := holder.Bootstrap(ctx)
	printState(cmd.OutOrStdout(), state)
	if !state.IsAuthenticated() {
		return nil
	}

	resolver := roleresolver.New(holder, client)
	for _, r := range roles.All {
		if resolver.HasRole(ctx, r) {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", r.Label())
		}
	}

	return nil
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	out := cmd.OutOrStdout()

	// Observers run on the holder's event loop, after resolver is set.
	var resolver *roleresolver.Resolver
	holder := sessionstate.New(client, client, newConsoleNavigator(out, watchLocation),
		sessionstate.WithProfileRoute(cfg.ProfileRoute),
		sessionstate.WithExemptRoutes(cfg.AuthRoutes...),
		sessionstate.WithObserver(func(s sessionstate.State) {
			printState(out, s)
			if s.IsAuthenticated() {
				fmt.Fprintf(out, "  admin: %t\n", resolver.IsAdmin(ctx))
			}
		}),
	)
	defer holder.Close()
	resolver = roleresolver.New(holder, client)

	holder.Bootstrap(ctx)
	if err := holder.Listen(ctx); err != nil {
		return errors.Wrap(err, "sessionstate.Holder.Listen()")
	}

	<-ctx.Done()

	return nil
}

func printState(w io.Writer, s sessionstate.State) {
	if !s.IsAuthenticated() {
		fmt.Fprintln(w, "not signed in")

		return
	}

	fmt.Fprintf(w, "signed in as %s (%s)\n", s.User.Email, s.User.ID)
}
