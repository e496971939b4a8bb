package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"eve/internal/resources"
)

var (
	createFile string
	createName string
	updateFile string
	updateName string
	deleteYes  bool
)

var createCmd = &cobra.Command{
	Use:   "create KIND -f FILE",
	Short: "Create a resource from a definition file",
	Long: `Create a resource. The file holds the definition in the kind's format:
XML for accounts and policies, JSON for api-roles and api-clients, and the
script body itself for scripts. Use "-f -" to read from stdin.`,
	Example: `  eve create policy -f policy.xml
  eve create script -f cleanup.sh --name "Cleanup caches"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := resources.LookupKind(args[0])
		if err != nil {
			return err
		}
		if kind.Create == nil {
			return kind.Unsupported("create")
		}
		in, err := resourceInput(cmd, kind, createFile, createName)
		if err != nil {
			return err
		}

		rt, session, err := openSession(cmd)
		if err != nil {
			return err
		}
		body, err := kind.Create(cmd.Context(), rt.Client(session), in)
		if err != nil {
			return rt.Fail(session, err)
		}
		rt.Printf("Created %s\n", singular(kind))
		if len(body) == 0 {
			return nil
		}
		return rt.Formatter().FormatDocument(body)
	},
}

var updateCmd = &cobra.Command{
	Use:     "update KIND ID -f FILE",
	Short:   "Replace a resource's definition",
	Example: `  eve update policy 42 -f policy.xml`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := resources.LookupKind(args[0])
		if err != nil {
			return err
		}
		if kind.Update == nil {
			return kind.Unsupported("update")
		}
		in, err := resourceInput(cmd, kind, updateFile, updateName)
		if err != nil {
			return err
		}

		rt, session, err := openSession(cmd)
		if err != nil {
			return err
		}
		body, err := kind.Update(cmd.Context(), rt.Client(session), args[1], in)
		if err != nil {
			return rt.Fail(session, err)
		}
		rt.Printf("Updated %s %s\n", singular(kind), args[1])
		if len(body) == 0 {
			return nil
		}
		return rt.Formatter().FormatDocument(body)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete KIND ID",
	Short: "Delete a resource",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := resources.LookupKind(args[0])
		if err != nil {
			return err
		}
		if kind.Delete == nil {
			return kind.Unsupported("delete")
		}
		if !deleteYes && !confirm(cmd, fmt.Sprintf("Delete %s %s?", singular(kind), args[1])) {
			return fmt.Errorf("aborted")
		}

		rt, session, err := openSession(cmd)
		if err != nil {
			return err
		}
		if err := kind.Delete(cmd.Context(), rt.Client(session), args[1]); err != nil {
			return rt.Fail(session, err)
		}
		rt.Printf("Deleted %s %s\n", singular(kind), args[1])
		return nil
	},
}

var rotateSecretCmd = &cobra.Command{
	Use:   "rotate-secret ID",
	Short: "Issue a new client secret for an API client",
	Long: `Issue a new client secret for an API client. The previous secret stops
working and the new one is printed only once.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, session, err := openSession(cmd)
		if err != nil {
			return err
		}
		creds, err := rt.Client(session).RotateClientCredentials(cmd.Context(), args[0])
		if err != nil {
			return rt.Fail(session, err)
		}
		return rt.Formatter().FormatData(map[string]string{
			"clientId":     creds.ClientID,
			"clientSecret": creds.ClientSecret,
		})
	},
}

// resourceInput reads the create/update payload for kind.
func resourceInput(cmd *cobra.Command, kind resources.Kind, file, name string) (resources.Input, error) {
	if file == "" {
		return resources.Input{}, fmt.Errorf("a definition is required: use --file")
	}
	body, err := readPayload(cmd, file, "")
	if err != nil {
		return resources.Input{}, err
	}
	if len(body) == 0 {
		return resources.Input{}, fmt.Errorf("%s is empty", file)
	}
	if kind.Format == "script" && name == "" {
		if file == "-" {
			return resources.Input{}, fmt.Errorf("--name is required when reading a script from stdin")
		}
		name = filepath.Base(file)
	}
	return resources.Input{Name: name, Body: body}, nil
}

func singular(k resources.Kind) string {
	if len(k.Aliases) > 0 {
		return k.Aliases[0]
	}
	return k.Name
}

func init() {
	createCmd.Flags().StringVarP(&createFile, "file", "f", "", "Definition file, or - for stdin")
	createCmd.Flags().StringVar(&createName, "name", "", "Script name (defaults to the file name)")
	updateCmd.Flags().StringVarP(&updateFile, "file", "f", "", "Definition file, or - for stdin")
	updateCmd.Flags().StringVar(&updateName, "name", "", "Script name (defaults to the file name)")
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Do not ask for confirmation")

	for _, c := range []*cobra.Command{createCmd, updateCmd, deleteCmd, rotateSecretCmd} {
		registerSessionFlags(c)
		rootCmd.AddCommand(c)
	}
}
