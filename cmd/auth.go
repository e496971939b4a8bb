package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"eve/internal/auth"
	"eve/internal/cli"
	"eve/internal/formatting"
)

var (
	loginCreds   cli.CredentialFlags
	refreshCreds cli.CredentialFlags
)

// authCmd is the parent command for authentication operations.
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication",
	Long: `Manage authentication against the API server.

Tokens obtained by 'eve auth login' are stored in <config-path>/token.json
with owner-only permissions and reused until they expire.

Other commands use the cached token when no credential flag is given. Passing
credential flags to any command authenticates again and replaces the cached
token, so later commands run as that identity.

Supported methods:
  --username/--password       password grant (password prompted when omitted)
  --basic-auth                pre-encoded base64(user:password)
  --client-id/--client-secret API client credentials
  --bearer-token              pre-issued token, used as-is and never cached`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate and cache the token",
	Example: `  eve auth login -s https://mdm.example.com -u admin
  eve auth login --client-id 1a2b --client-secret "$EVE_CLIENT_SECRET"`,
	Args: cobra.NoArgs,
	RunE: runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the cached token",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the cached token's status",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

var authRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-authenticate and replace the cached token",
	Long: `Obtain a new token with the given credential even when the cached one
is still valid. Bearer tokens cannot be refreshed.`,
	Args: cobra.NoArgs,
	RunE: runAuthRefresh,
}

func runAuthLogin(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	cred, err := loginCreds.Credential(cli.NewPrompter())
	if err != nil {
		return err
	}
	if cred == nil {
		return errors.New("no credential given: use --username, --basic-auth, --client-id or --bearer-token")
	}

	session, err := rt.Login(cmd.Context(), cred)
	if err != nil {
		return err
	}
	st := rt.Manager.Status(session)
	msg := fmt.Sprintf("Authenticated to %s using %s", st.Server, st.AuthMethod)
	if st.ExpiresAt != nil {
		msg += fmt.Sprintf(" (expires %s)", st.ExpiresAt.Local().Format(time.RFC1123))
	}
	rt.Printf("%s\n", cli.FormatSuccess(msg))
	return nil
}

func runAuthLogout(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	server, _ := rt.Server()
	if server != "" {
		if session, err := rt.Manager.Resume(server); err == nil {
			if err := rt.Manager.Logout(session); err != nil {
				return err
			}
			rt.Printf("%s\n", cli.FormatSuccess("Logged out of "+server))
			return nil
		}
	}
	if err := rt.Manager.ClearPersisted(); err != nil {
		return err
	}
	rt.Printf("%s\n", cli.FormatSuccess("Cached token removed"))
	return nil
}

func runAuthStatus(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	server, err := rt.Server()
	if err != nil {
		return cli.Classify(err, "")
	}

	session, err := rt.Manager.Resume(server)
	if err != nil {
		if !errors.Is(err, auth.ErrNoCachedToken) {
			return err
		}
		st := auth.SessionStatus{Server: server}
		if rt.Format() == formatting.FormatJSON || rt.Format() == formatting.FormatYAML {
			return rt.Formatter().FormatData(st)
		}
		fmt.Fprintf(rt.Out(), "%s  %s\n", text.Bold.Sprint(server), text.FgYellow.Sprint("Not authenticated"))
		fmt.Fprintln(rt.Out(), "  Run 'eve auth login' to authenticate.")
		return nil
	}

	st := rt.Manager.Status(session)
	if rt.Format() == formatting.FormatJSON || rt.Format() == formatting.FormatYAML {
		return rt.Formatter().FormatData(st)
	}
	printStatus(rt, st)
	return nil
}

func printStatus(rt *cli.Runtime, st auth.SessionStatus) {
	out := rt.Out()
	state := text.FgGreen.Sprint("Authenticated")
	if !st.Authenticated {
		state = text.FgRed.Sprint("Expired")
	}
	fmt.Fprintf(out, "%s  %s\n", text.Bold.Sprint(st.Server), state)
	fmt.Fprintf(out, "  Method:  %s\n", st.AuthMethod)
	fmt.Fprintf(out, "  Session: started %s\n", st.CreatedAt.Local().Format(time.RFC1123))
	if st.ExpiresAt != nil {
		fmt.Fprintf(out, "  Expires: %s (%s)\n", st.ExpiresAt.Local().Format(time.RFC1123), formatExpiresIn(st.ExpiresIn))
	}
	fmt.Fprintf(out, "  Token:   %s\n", rt.Store.Path())
}

func formatExpiresIn(seconds int64) string {
	if seconds <= 0 {
		return "expired"
	}
	d := time.Duration(seconds) * time.Second
	if d < time.Minute {
		return fmt.Sprintf("in %ds", seconds)
	}
	return "in " + d.Truncate(time.Minute).String()
}

func runAuthRefresh(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	cred, err := refreshCreds.Credential(cli.NewPrompter())
	if err != nil {
		return err
	}
	if cred == nil {
		return errors.New("refresh needs the credential used to log in")
	}
	if !cred.Refreshable() {
		return fmt.Errorf("%s credentials cannot be refreshed", cred.Kind())
	}

	session, err := rt.Login(cmd.Context(), cred)
	if err != nil {
		return err
	}
	tok, err := rt.Manager.GetToken(cmd.Context(), session)
	if err != nil {
		return rt.Fail(session, err)
	}
	rt.Printf("%s\n", cli.FormatSuccess(fmt.Sprintf("Token refreshed, expires %s", tok.ExpiresAt.Local().Format(time.RFC1123))))
	return nil
}

func init() {
	cli.RegisterCredentialFlags(authLoginCmd, &loginCreds)
	cli.RegisterCredentialFlags(authRefreshCmd, &refreshCreds)

	authCmd.AddCommand(authLoginCmd, authLogoutCmd, authStatusCmd, authRefreshCmd)
	rootCmd.AddCommand(authCmd)
}
