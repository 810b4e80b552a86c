package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/learnhooks/internal/mcp"
)

func newMCPCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the hooks as MCP tools over stdio",
		Long: `Run an MCP server on stdin/stdout exposing learning_on_load,
learning_on_skill_invoke, learning_progress and learning_skills.

Logs go to stderr; stdout carries only the protocol.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			srv, err := mcp.NewServer(&mcp.Config{
				Name:    "learnhooks",
				Version: version,
				Logger:  a.logger,
			}, a.manager, a.tracker)
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		},
	}
}
