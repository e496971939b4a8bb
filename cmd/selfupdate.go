package cmd

import (
	"errors"
	"fmt"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// releaseRepo is the owner/name of the GitHub repository eve releases are
// published to. Set at build time with
// -ldflags "-X eve/cmd.releaseRepo=owner/name".
var releaseRepo string

var (
	selfUpdateRepo  string
	selfUpdateCheck bool
)

var errNoReleaseRepo = errors.New("no release repository configured: pass --repo owner/name")

func newSelfUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "self-update",
		Short: "Update eve to the latest release",
		Long: `Checks the latest GitHub release of eve and replaces the running binary
when a newer version is available.`,
		Args: cobra.NoArgs,
		RunE: runSelfUpdate,
	}
	cmd.Flags().StringVar(&selfUpdateRepo, "repo", releaseRepo, "GitHub repository (owner/name) to update from")
	cmd.Flags().BoolVar(&selfUpdateCheck, "check", false, "Only report whether an update is available")
	return cmd
}

func runSelfUpdate(cmd *cobra.Command, _ []string) error {
	currentVersion := rootCmd.Version
	if currentVersion == "" || currentVersion == "dev" {
		return fmt.Errorf("cannot self-update a development version")
	}
	if selfUpdateRepo == "" {
		return errNoReleaseRepo
	}
	out := cmd.ErrOrStderr()
	ctx := cmd.Context()

	fmt.Fprintf(out, "Current version: %s\n", currentVersion)
	fmt.Fprintln(out, "Checking for updates...")

	updater, err := selfupdate.NewUpdater(selfupdate.Config{})
	if err != nil {
		return fmt.Errorf("failed to create updater: %w", err)
	}
	latest, found, err := updater.DetectLatest(ctx, selfupdate.ParseSlug(selfUpdateRepo))
	if err != nil {
		return fmt.Errorf("error detecting latest version: %w", err)
	}
	if !found {
		return fmt.Errorf("latest release for %s could not be found", selfUpdateRepo)
	}
	if !latest.GreaterThan(currentVersion) {
		fmt.Fprintln(out, "Current version is the latest.")
		return nil
	}

	fmt.Fprintf(out, "Found newer version: %s (published at %s)\n", latest.Version(), latest.PublishedAt)
	if selfUpdateCheck {
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}
	fmt.Fprintf(out, "Updating %s to version %s...\n", exe, latest.Version())
	if err := updater.UpdateTo(ctx, latest, exe); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	fmt.Fprintf(out, "Successfully updated to version %s\n", latest.Version())
	return nil
}

func init() {
	rootCmd.AddCommand(newSelfUpdateCmd())
}
