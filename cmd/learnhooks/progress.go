package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/learnhooks/internal/progress"
)

func newProgressCmd(flags *globalFlags) *cobra.Command {
	var (
		user    string
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show a learner's progress",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.Close()

			summary, err := a.tracker.Summary(cmd.Context(), user)
			if errors.Is(err, progress.ErrUserNotFound) {
				return fmt.Errorf("no progress recorded for %q", user)
			}
			if err != nil {
				return err
			}

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			renderSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "learner id (required)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the summary as JSON")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
