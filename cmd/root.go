package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"eve/internal/cli"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates the user must authenticate again.
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates the server rejected the credentials.
	ExitCodeAuthFailed = 3
	// ExitCodeTransport indicates the server could not be reached.
	ExitCodeTransport = 4
)

var globalFlags cli.CommandFlags

// rootCmd represents the base command for the eve application.
var rootCmd = &cobra.Command{
	Use:   "eve",
	Short: "Work with a device-management server's API from the command line",
	Long: `eve authenticates against a device-management server and manages its
accounts, computers, policies, scripts and API clients.

Log in once with 'eve auth login'; the token is cached in ~/.config/eve and
reused by later commands until it expires. 'eve serve' runs a local proxy
that a browser UI can use with per-session authentication.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute runs the root command and exits with a code describing the
// failure class.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "eve version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), cli.FormatError(err))
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	var (
		authRequired *cli.AuthRequiredError
		authExpired  *cli.AuthExpiredError
		authFailed   *cli.AuthFailedError
		connErr      *cli.ConnectionError
	)
	switch {
	case err == nil:
		return ExitCodeSuccess
	case errors.As(err, &authRequired), errors.As(err, &authExpired):
		return ExitCodeAuthRequired
	case errors.As(err, &authFailed):
		return ExitCodeAuthFailed
	case errors.As(err, &connErr):
		return ExitCodeTransport
	default:
		return ExitCodeError
	}
}

// newRuntime builds the per-invocation runtime for cmd.
func newRuntime(cmd *cobra.Command) (*cli.Runtime, error) {
	return cli.NewRuntime(globalFlags, cli.Streams{Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr()})
}

func init() {
	cli.RegisterGlobalFlags(rootCmd, &globalFlags)
	rootCmd.AddCommand(newVersionCmd())
}
