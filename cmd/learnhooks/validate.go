package main

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/learnhooks/internal/plugin"
)

var errValidationFailed = errors.New("plugin validation failed")

func newValidateCmd(flags *globalFlags) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "validate [plugin-root]",
		Short: "Check a plugin's manifest, files and hooks",
		Long: `Validate the plugin layout: required manifest fields, agent and skill
files, hook registrations, documentation and skill-agent mappings.

The root defaults to --plugin, then the current directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := flags.pluginRoot
			if len(args) == 1 {
				root = args[0]
			}
			if root == "" {
				root = "."
			}

			report := plugin.Validate(root)
			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				renderReport(cmd.OutOrStdout(), root, report)
			}
			if !report.OK() {
				return errValidationFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the report as JSON")
	return cmd
}
