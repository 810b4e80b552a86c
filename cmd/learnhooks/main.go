// Package main implements the learnhooks CLI: it runs the learning plugin's
// lifecycle hooks from the command line, over HTTP, or as an MCP server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// globalFlags override individual config values for one invocation.
type globalFlags struct {
	configPath string
	pluginRoot string
	dbPath     string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "learnhooks",
		Short: "Lifecycle hooks for the developer learning plugin",
		Long: `learnhooks runs the learning plugin's lifecycle hooks.

on-load greets the learner, suggests where to resume, and awards any
milestones already reached. on-skill-invoke records skill access and
progress, suggests related skills, and rewards completion.

Examples:
  # Fire the on-load hook for a learner
  learnhooks hook on-load --user u_42 --name Ada

  # Fire the on-skill-invoke hook
  learnhooks hook on-skill-invoke --user u_42 --skill go-testing

  # Serve the HTTP API
  learnhooks serve`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, gitCommit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ~/.config/learnhooks/config.yaml)")
	pf.StringVar(&flags.pluginRoot, "plugin", "", "plugin root directory (overrides plugin.root)")
	pf.StringVar(&flags.dbPath, "db", "", "progress database path (overrides storage.path)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	root.AddCommand(
		newHookCmd(flags),
		newProgressCmd(flags),
		newValidateCmd(flags),
		newServeCmd(flags),
		newMCPCmd(flags),
	)
	return root
}
