package progress

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/learnhooks/internal/events"
	"github.com/fyrsmithlabs/learnhooks/internal/hooks"
	"github.com/fyrsmithlabs/learnhooks/internal/plugin"
	"github.com/fyrsmithlabs/learnhooks/internal/related"
)

// ErrNoSkill indicates an on-skill-invoke session was created without a skill.
var ErrNoSkill = errors.New("no skill selected")

// Session is the host context for one hook invocation. It is not safe for
// concurrent use.
type Session struct {
	tracker *Tracker
	catalog *plugin.Catalog
	index   *related.Index

	userID   string
	userName string
	skillID  string
	notifier Notifier

	profile *hooks.UserProfile
}

var _ hooks.Context = (*Session)(nil)

// UserID returns the learner the session acts for.
func (s *Session) UserID() string {
	return s.userID
}

// GetUserProfile starts a new session for the learner and returns the
// profile as it was before it.
func (s *Session) GetUserProfile(ctx context.Context) (*hooks.UserProfile, error) {
	if s.profile != nil {
		return s.profile, nil
	}
	u, err := s.tracker.store.BeginSession(ctx, s.userID, s.userName)
	if err != nil {
		return nil, err
	}
	s.profile = &hooks.UserProfile{Name: u.Name, PreviousSessions: u.Sessions}
	return s.profile, nil
}

func (s *Session) displayName() string {
	if s.profile != nil && s.profile.Name != "" {
		return s.profile.Name
	}
	return s.userName
}

func (s *Session) ShowWelcomeMessage(ctx context.Context) error {
	return s.notifier.Welcome(ctx, s.displayName(), s.catalog.Len())
}

// SuggestResume points the learner at their most recently touched
// unfinished skills.
func (s *Session) SuggestResume(ctx context.Context) error {
	open, err := s.tracker.store.InProgress(ctx, s.userID, resumeSuggestions)
	if err != nil {
		return err
	}
	skills := make([]hooks.Skill, 0, len(open))
	for _, p := range open {
		skill, err := s.catalog.Skill(p.SkillID)
		if err != nil {
			// Dropped from the catalog since it was started.
			continue
		}
		skills = append(skills, skill)
	}
	return s.notifier.Resume(ctx, s.displayName(), skills)
}

func (s *Session) GetProgressHistory(ctx context.Context) (*hooks.ProgressHistory, error) {
	completed, err := s.tracker.store.CompletedCount(ctx, s.userID)
	if err != nil {
		return nil, err
	}
	return &hooks.ProgressHistory{Completed: completed, Total: s.catalog.Len()}, nil
}

// CheckMilestones returns milestones the learner reached but does not hold yet.
func (s *Session) CheckMilestones(ctx context.Context) ([]hooks.Milestone, error) {
	stats, err := s.stats(ctx)
	if err != nil {
		return nil, err
	}
	badges, err := s.tracker.store.Badges(ctx, s.userID)
	if err != nil {
		return nil, err
	}
	held := make(map[string]bool, len(badges))
	for _, b := range badges {
		held[b.MilestoneID] = true
	}

	var out []hooks.Milestone
	for _, r := range s.tracker.rules.Reached(stats) {
		if !held[r.ID] {
			out = append(out, r.Milestone())
		}
	}
	return out, nil
}

func (s *Session) stats(ctx context.Context) (Stats, error) {
	completed, err := s.tracker.store.CompletedCount(ctx, s.userID)
	if err != nil {
		return Stats{}, err
	}
	points := 0
	u, err := s.tracker.store.User(ctx, s.userID)
	switch {
	case err == nil:
		points = u.Points
	case !errors.Is(err, ErrUserNotFound):
		return Stats{}, err
	}
	return Stats{Completed: completed, Total: s.catalog.Len(), Points: points}, nil
}

// AwardBadge records the milestone. Awarding a held badge is a no-op.
func (s *Session) AwardBadge(ctx context.Context, m hooks.Milestone) error {
	awarded, err := s.tracker.store.AwardBadge(ctx, s.userID, m.ID)
	if err != nil {
		return err
	}
	if !awarded {
		return nil
	}
	s.tracker.logger.Info(ctx, "badge awarded", zap.String("milestone", m.ID))
	if err := s.publish(ctx, events.MilestoneReached, map[string]any{
		"milestoneId":   m.ID,
		"milestoneName": m.Name,
	}); err != nil {
		return err
	}
	return s.notifier.Badge(ctx, m)
}

func (s *Session) GetSkillID(context.Context) (string, error) {
	if s.skillID == "" {
		return "", ErrNoSkill
	}
	return s.skillID, nil
}

func (s *Session) GetSkill(_ context.Context, id string) (*hooks.Skill, error) {
	skill, err := s.catalog.Skill(id)
	if err != nil {
		return nil, err
	}
	return &skill, nil
}

func (s *Session) LogEvent(ctx context.Context, name string, payload map[string]any) error {
	return s.publish(ctx, name, payload)
}

func (s *Session) publish(ctx context.Context, name string, payload map[string]any) error {
	e := events.New(s.userID, name, payload, s.tracker.now())
	if err := s.tracker.publisher.Publish(ctx, e); err != nil {
		return fmt.Errorf("publishing %s: %w", name, err)
	}
	return nil
}

func (s *Session) UpdateSkillProgress(ctx context.Context, id string, status hooks.SkillStatus) error {
	return s.tracker.store.UpdateProgress(ctx, s.userID, id, status)
}

func (s *Session) GetRelatedSkills(ctx context.Context, id string) ([]hooks.Skill, error) {
	k := s.tracker.maxRelated
	if k <= 0 {
		k = s.index.Len()
	}
	return s.index.Related(ctx, id, k)
}

func (s *Session) SuggestRelated(ctx context.Context, skills []hooks.Skill) error {
	return s.notifier.Related(ctx, skills)
}

// IsSkillComplete reports whether the skill has reached the completion
// threshold and has not been marked completed yet. Once marked, a skill is
// not reported again so completion is rewarded once.
func (s *Session) IsSkillComplete(ctx context.Context, id string) (bool, error) {
	p, err := s.tracker.store.Progress(ctx, s.userID, id)
	if err != nil || p == nil {
		return false, err
	}
	if p.Status == hooks.StatusCompleted {
		return false, nil
	}
	return p.Invocations >= s.tracker.completionInvocations, nil
}

func (s *Session) MarkSkillComplete(ctx context.Context, id string) error {
	marked, err := s.tracker.store.MarkComplete(ctx, s.userID, id)
	if err != nil {
		return err
	}
	if !marked {
		return fmt.Errorf("mark %q complete: %w", id, hooks.ErrAlreadyCompleted)
	}
	return s.publish(ctx, events.SkillCompleted, map[string]any{"skillId": id})
}

func (s *Session) AwardPoints(ctx context.Context, points int) error {
	total, err := s.tracker.store.AddPoints(ctx, s.userID, points)
	if err != nil {
		return err
	}
	return s.publish(ctx, events.PointsAwarded, map[string]any{"points": points, "total": total})
}

// CheckNewMilestones awards every reached milestone not yet held.
func (s *Session) CheckNewMilestones(ctx context.Context) error {
	milestones, err := s.CheckMilestones(ctx)
	if err != nil {
		return err
	}
	for _, m := range milestones {
		if err := s.AwardBadge(ctx, m); err != nil {
			return err
		}
	}
	return nil
}
