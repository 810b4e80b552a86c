package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/learnhooks/internal/hooks"
	"github.com/fyrsmithlabs/learnhooks/internal/logging"
	"github.com/fyrsmithlabs/learnhooks/internal/progress"
)

var errInvalidInput = errors.New("invalid input")

type onLoadInput struct {
	UserID   string `json:"user_id" jsonschema:"Learner identifier"`
	UserName string `json:"user_name,omitempty" jsonschema:"Display name used in greetings"`
}

type onSkillInvokeInput struct {
	UserID   string `json:"user_id" jsonschema:"Learner identifier"`
	UserName string `json:"user_name,omitempty" jsonschema:"Display name used in greetings"`
	SkillID  string `json:"skill_id" jsonschema:"Identifier of the skill being invoked"`
}

// hookOutput carries the hook result and the notices the host should show.
// A failed hook is reported here, not as a tool error.
type hookOutput struct {
	Hook    string            `json:"hook"`
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Skill   *hooks.Skill      `json:"skill,omitempty"`
	Error   string            `json:"error,omitempty"`
	Notices []progress.Notice `json:"notices"`
}

type progressInput struct {
	UserID string `json:"user_id" jsonschema:"Learner identifier"`
}

type skillProgress struct {
	SkillID     string `json:"skill_id"`
	Status      string `json:"status"`
	Invocations int    `json:"invocations"`
}

// progressOutput flattens progress.Summary so the tool schema stays plain.
type progressOutput struct {
	UserID    string          `json:"user_id"`
	Name      string          `json:"name,omitempty"`
	Sessions  int             `json:"sessions"`
	Points    int             `json:"points"`
	Completed int             `json:"completed"`
	Total     int             `json:"total"`
	Skills    []skillProgress `json:"skills"`
	Badges    []string        `json:"badges"`
}

func newProgressOutput(sum *progress.Summary) progressOutput {
	out := progressOutput{
		UserID:    sum.User.ID,
		Name:      sum.User.Name,
		Sessions:  sum.User.Sessions,
		Points:    sum.User.Points,
		Completed: sum.Completed,
		Total:     sum.Total,
		Skills:    make([]skillProgress, 0, len(sum.Skills)),
		Badges:    make([]string, 0, len(sum.Badges)),
	}
	for _, p := range sum.Skills {
		out.Skills = append(out.Skills, skillProgress{
			SkillID:     p.SkillID,
			Status:      string(p.Status),
			Invocations: p.Invocations,
		})
	}
	for _, b := range sum.Badges {
		out.Badges = append(out.Badges, b.MilestoneID)
	}
	return out
}

type skillsInput struct {
	Agent string `json:"agent,omitempty" jsonschema:"Only list skills taught by this agent"`
}

type skillsOutput struct {
	Skills []hooks.Skill `json:"skills"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "learning_on_load",
		Description: "Run the on-load hook: greet the learner and award any milestones already reached",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args onLoadInput) (res *mcp.CallToolResult, out hookOutput, err error) {
		done := s.metrics.track(ctx, "learning_on_load")
		defer func() { done(err) }()

		out, err = s.runHook(ctx, hooks.HookOnLoad, progress.SessionParams{
			UserID:   args.UserID,
			UserName: args.UserName,
		})
		return nil, out, err
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "learning_on_skill_invoke",
		Description: "Run the on-skill-invoke hook: record progress, suggest related skills and reward completion",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args onSkillInvokeInput) (res *mcp.CallToolResult, out hookOutput, err error) {
		done := s.metrics.track(ctx, "learning_on_skill_invoke")
		defer func() { done(err) }()

		if args.SkillID == "" {
			err = fmt.Errorf("%w: skill_id is required", errInvalidInput)
			return nil, hookOutput{}, err
		}
		out, err = s.runHook(ctx, hooks.HookOnSkillInvoke, progress.SessionParams{
			UserID:   args.UserID,
			UserName: args.UserName,
			SkillID:  args.SkillID,
		})
		return nil, out, err
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "learning_progress",
		Description: "Get a learner's completed skills, in-progress skills and badges",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args progressInput) (res *mcp.CallToolResult, out progressOutput, err error) {
		done := s.metrics.track(ctx, "learning_progress")
		defer func() { done(err) }()

		if err = logging.ValidateID(args.UserID, "user_id"); err != nil {
			err = fmt.Errorf("%w: %v", errInvalidInput, err)
			return nil, progressOutput{}, err
		}
		ctx = logging.WithUserID(ctx, args.UserID)
		summary, err := s.tracker.Summary(ctx, args.UserID)
		if err != nil {
			return nil, progressOutput{}, fmt.Errorf("progress lookup failed: %w", err)
		}
		return nil, newProgressOutput(summary), nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "learning_skills",
		Description: "List the skills the learning plugin provides",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args skillsInput) (res *mcp.CallToolResult, out skillsOutput, err error) {
		done := s.metrics.track(ctx, "learning_skills")
		defer func() { done(err) }()

		out.Skills = []hooks.Skill{}
		for _, skill := range s.tracker.Catalog().Skills() {
			if args.Agent == "" || skill.Agent == args.Agent {
				out.Skills = append(out.Skills, skill)
			}
		}
		return nil, out, nil
	})
}

func (s *Server) runHook(ctx context.Context, hookType hooks.HookType, params progress.SessionParams) (hookOutput, error) {
	notices := &progress.Collector{}
	params.Notifier = notices
	session, err := s.tracker.Session(params)
	if err != nil {
		return hookOutput{}, fmt.Errorf("%w: %v", errInvalidInput, err)
	}

	ctx = logging.WithUserID(ctx, params.UserID)
	if params.SkillID != "" {
		ctx = logging.WithSkillID(ctx, params.SkillID)
	}
	res := s.manager.Execute(ctx, hookType, session)
	if !res.Success {
		s.logger.Warn(ctx, "hook reported failure", zap.String("hook", string(hookType)), zap.String("error", res.Error))
	}

	return hookOutput{
		Hook:    string(hookType),
		Success: res.Success,
		Message: res.Message,
		Skill:   res.Skill,
		Error:   res.Error,
		Notices: notices.Notices(),
	}, nil
}
