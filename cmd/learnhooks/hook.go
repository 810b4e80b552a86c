package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/learnhooks/internal/hooks"
	"github.com/fyrsmithlabs/learnhooks/internal/logging"
	"github.com/fyrsmithlabs/learnhooks/internal/progress"
)

type hookFlags struct {
	user    string
	name    string
	skill   string
	jsonOut bool
}

// hookOutput is the --json form of a hook run.
type hookOutput struct {
	Hook    hooks.HookType    `json:"hook"`
	Result  hooks.Result      `json:"result"`
	Notices []progress.Notice `json:"notices"`
}

func newHookCmd(flags *globalFlags) *cobra.Command {
	hf := &hookFlags{}
	cmd := &cobra.Command{
		Use:       "hook <on-load|on-skill-invoke>",
		Short:     "Run a lifecycle hook for a learner",
		ValidArgs: []string{string(hooks.HookOnLoad), string(hooks.HookOnSkillInvoke)},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		Long: `Run one of the plugin's lifecycle hooks against the local progress store.

The command exits non-zero when the hook reports a failure.

Examples:
  learnhooks hook on-load --user u_42 --name Ada
  learnhooks hook on-skill-invoke --user u_42 --skill go-testing --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHook(cmd, flags, hf, args[0])
		},
	}
	cmd.Flags().StringVar(&hf.user, "user", "", "learner id (required)")
	cmd.Flags().StringVar(&hf.name, "name", "", "learner display name")
	cmd.Flags().StringVar(&hf.skill, "skill", "", "skill id (required for on-skill-invoke)")
	cmd.Flags().BoolVar(&hf.jsonOut, "json", false, "print the result as JSON")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func runHook(cmd *cobra.Command, flags *globalFlags, hf *hookFlags, name string) error {
	hookType, err := hooks.ParseHookType(name)
	if err != nil {
		return err
	}
	if hookType == hooks.HookOnSkillInvoke && hf.skill == "" {
		return fmt.Errorf("--skill is required for %s", hookType)
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, flags)
	if err != nil {
		return err
	}
	defer a.Close()

	notices := &progress.Collector{}
	session, err := a.tracker.Session(progress.SessionParams{
		UserID:   hf.user,
		UserName: hf.name,
		SkillID:  hf.skill,
		Notifier: notices,
	})
	if err != nil {
		return err
	}

	ctx = logging.WithUserID(ctx, hf.user)
	if hf.skill != "" {
		ctx = logging.WithSkillID(ctx, hf.skill)
	}
	res := a.manager.Execute(ctx, hookType, session)

	out := cmd.OutOrStdout()
	if hf.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(hookOutput{Hook: hookType, Result: res, Notices: notices.Notices()}); err != nil {
			return err
		}
	} else {
		renderHook(out, hookType, res, notices.Notices())
	}
	return res.Err()
}
