package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build-time variables (injected via ldflags)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unset"
)

const redacted = "[REDACTED]"

type appKey struct{}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:           "opitemctl",
		Short:         "Browse, submit and moderate OP Item DB items",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !needsApp(cmd) {
				return nil
			}
			holder, ok := cmd.Context().Value(appKey{}).(*appHolder)
			if !ok {
				return errNoAppHolder
			}
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			holder.app = a
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.profilePath, "profile", "", "Profile path (default $XDG_CONFIG_HOME/opitemdb/config.yaml)")
	pf.StringVar(&flags.apiURL, "api-url", "", "BFF base URL, overrides api_url")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.BoolVar(&flags.noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(
		listCmd(),
		addCmd(),
		moderateCmd(),
		lookupsCmd(),
		loginCmd(),
		logoutCmd(),
		whoamiCmd(),
		profileCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "opitemctl %s (commit %s, built %s)\n",
					version, gitCommit, buildTime)
			},
		},
	)
	return cmd
}

// needsApp is false for commands that touch neither the profile nor the cache
func needsApp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "version", "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return false
		}
	}
	return true
}

// appHolder carries the app from the pre-run hook to the commands and back to main
type appHolder struct {
	app *app
}

func (h *appHolder) close() {
	if h.app != nil {
		h.app.Close()
		h.app = nil
	}
}

func appFrom(cmd *cobra.Command) *app {
	holder, _ := cmd.Context().Value(appKey{}).(*appHolder)
	if holder == nil {
		return nil
	}
	return holder.app
}
