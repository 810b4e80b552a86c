package hooks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/learnhooks/internal/logging"
)

// EventSkillAccessed is logged by on-skill-invoke for every invocation.
const EventSkillAccessed = "skill_accessed"

// OnSkillInvoke records a skill invocation and handles completion.
func (h *Hooks) OnSkillInvoke(ctx context.Context, hc InvokeContext) (res Result) {
	ctx = logging.WithHook(ctx, string(HookOnSkillInvoke))
	defer h.recoverInto(ctx, HookOnSkillInvoke, &res)

	skill, err := h.onSkillInvoke(ctx, hc)
	if err != nil {
		h.logger.Error(ctx, "error in on-skill-invoke hook", zap.Error(err))
		return errorResult(err)
	}
	return skillResult(skill)
}

func (h *Hooks) onSkillInvoke(ctx context.Context, hc InvokeContext) (*Skill, error) {
	skillID, err := hc.GetSkillID(ctx)
	if err != nil {
		return nil, err
	}
	ctx = logging.WithSkillID(ctx, skillID)

	skill, err := hc.GetSkill(ctx, skillID)
	if err != nil {
		return nil, err
	}
	if skill == nil {
		return nil, fmt.Errorf("get skill %q: %w", skillID, ErrNoValue)
	}

	if err := hc.LogEvent(ctx, EventSkillAccessed, map[string]any{
		"skillId":   skillID,
		"skillName": skill.Name,
		"timestamp": h.now().UTC().Format(time.RFC3339),
	}); err != nil {
		return nil, err
	}

	if err := hc.UpdateSkillProgress(ctx, skillID, StatusInProgress); err != nil {
		return nil, err
	}

	related, err := hc.GetRelatedSkills(ctx, skillID)
	if err != nil {
		return nil, err
	}
	if err := hc.SuggestRelated(ctx, related); err != nil {
		return nil, err
	}

	complete, err := hc.IsSkillComplete(ctx, skillID)
	if err != nil {
		return nil, err
	}
	if complete {
		err := hc.MarkSkillComplete(ctx, skillID)
		if errors.Is(err, ErrAlreadyCompleted) {
			h.logger.Debug(ctx, "skill completed by another invocation", zap.String("skill", skill.Name))
			return skill, nil
		}
		if err != nil {
			return nil, err
		}
		if err := hc.AwardPoints(ctx, h.config.CompletionPoints); err != nil {
			return nil, err
		}
		if err := hc.CheckNewMilestones(ctx); err != nil {
			return nil, err
		}
		h.logger.Info(ctx, "skill completed", zap.String("skill", skill.Name),
			zap.Int("points", h.config.CompletionPoints))
	}

	return skill, nil
}
