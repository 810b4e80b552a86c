package hooks

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/learnhooks/internal/logging"
)

// LoadedMessage is the message returned by a successful on-load run.
const LoadedMessage = "Plugin loaded successfully"

// OnLoad greets the learner, reports progress and awards pending badges.
func (h *Hooks) OnLoad(ctx context.Context, hc LoadContext) (res Result) {
	ctx = logging.WithHook(ctx, string(HookOnLoad))
	defer h.recoverInto(ctx, HookOnLoad, &res)

	if err := h.onLoad(ctx, hc); err != nil {
		h.logger.Error(ctx, "error in on-load hook", zap.Error(err))
		return errorResult(err)
	}
	return okResult(LoadedMessage)
}

func (h *Hooks) onLoad(ctx context.Context, hc LoadContext) error {
	user, err := hc.GetUserProfile(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("get user profile: %w", ErrNoValue)
	}

	if user.IsNew() {
		h.logger.Info(ctx, "welcome new user")
		if err := hc.ShowWelcomeMessage(ctx); err != nil {
			return err
		}
	} else {
		h.logger.Info(ctx, "welcome back", zap.String("name", user.Name),
			zap.Int("previous_sessions", user.PreviousSessions))
		if err := hc.SuggestResume(ctx); err != nil {
			return err
		}
	}

	history, err := hc.GetProgressHistory(ctx)
	if err != nil {
		return err
	}
	if history == nil {
		return fmt.Errorf("get progress history: %w", ErrNoValue)
	}
	h.logger.Info(ctx, fmt.Sprintf("progress: %d/%d skills", history.Completed, history.Total),
		zap.Int("completed", history.Completed), zap.Int("total", history.Total))

	milestones, err := hc.CheckMilestones(ctx)
	if err != nil {
		return err
	}
	for _, m := range milestones {
		if err := hc.AwardBadge(ctx, m); err != nil {
			return err
		}
		h.logger.Debug(ctx, "badge awarded", zap.String("milestone", m.ID))
	}
	return nil
}
