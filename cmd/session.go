package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"eve/internal/auth"
	"eve/internal/cli"
)

// sessionCreds are the optional credential flags of commands that call the
// API. When none are given the cached token is used; when given they always
// authenticate and replace the cached token.
var sessionCreds cli.CredentialFlags

// openSession builds the runtime and a session for cmd.
func openSession(cmd *cobra.Command) (*cli.Runtime, *auth.Session, error) {
	rt, err := newRuntime(cmd)
	if err != nil {
		return nil, nil, err
	}
	cred, err := sessionCreds.Credential(cli.NewPrompter())
	if err != nil {
		return nil, nil, err
	}
	session, err := rt.Session(cmd.Context(), cred)
	if err != nil {
		return nil, nil, err
	}
	return rt, session, nil
}

// readPayload reads a request body from a file path, "-" for stdin, or an
// inline value. An empty result is an error.
func readPayload(cmd *cobra.Command, file, inline string) ([]byte, error) {
	switch {
	case file != "" && inline != "":
		return nil, errors.New("--file and --data are mutually exclusive")
	case file == "-":
		return readAll(cmd.InOrStdin())
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		return data, nil
	case inline != "":
		return []byte(inline), nil
	default:
		return nil, nil
	}
}

func readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return data, nil
}

// confirm asks a yes/no question on the command's streams.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N]: ", question)
	var answer string
	if _, err := fmt.Fscanln(cmd.InOrStdin(), &answer); err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func registerSessionFlags(cmd *cobra.Command) {
	cli.RegisterCredentialFlags(cmd, &sessionCreds)
}
