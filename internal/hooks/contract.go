package hooks

import (
	"context"
)

// UserProfile is the host's view of the current learner.
type UserProfile struct {
	Name string `json:"name"`

	// PreviousSessions is zero for a learner who has never loaded the plugin.
	PreviousSessions int `json:"previousSessions"`
}

// IsNew reports whether the learner has no previous sessions.
func (u *UserProfile) IsNew() bool {
	return u.PreviousSessions == 0
}

// ProgressHistory summarizes completed skills against the catalog size.
type ProgressHistory struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// Milestone is an achievement evaluated by the host.
type Milestone struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Skill is a catalog entry.
type Skill struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Agent       string `json:"agent,omitempty"`
	Description string `json:"description,omitempty"`
	File        string `json:"file,omitempty"`
}

// SkillStatus is the progress state of a skill for a learner.
type SkillStatus string

const (
	StatusInProgress SkillStatus = "in_progress"
	StatusCompleted  SkillStatus = "completed"
)

// Valid reports whether s is a known status.
func (s SkillStatus) Valid() bool {
	return s == StatusInProgress || s == StatusCompleted
}

// LoadContext is the host capability set used by the on-load hook.
type LoadContext interface {
	GetUserProfile(ctx context.Context) (*UserProfile, error)
	ShowWelcomeMessage(ctx context.Context) error
	SuggestResume(ctx context.Context) error
	GetProgressHistory(ctx context.Context) (*ProgressHistory, error)
	CheckMilestones(ctx context.Context) ([]Milestone, error)
	AwardBadge(ctx context.Context, m Milestone) error
}

// InvokeContext is the host capability set used by the on-skill-invoke hook.
type InvokeContext interface {
	GetSkillID(ctx context.Context) (string, error)
	GetSkill(ctx context.Context, id string) (*Skill, error)
	LogEvent(ctx context.Context, name string, payload map[string]any) error
	UpdateSkillProgress(ctx context.Context, id string, status SkillStatus) error
	GetRelatedSkills(ctx context.Context, id string) ([]Skill, error)
	SuggestRelated(ctx context.Context, related []Skill) error
	IsSkillComplete(ctx context.Context, id string) (bool, error)
	// MarkSkillComplete returns ErrAlreadyCompleted when the skill was
	// completed after IsSkillComplete answered.
	MarkSkillComplete(ctx context.Context, id string) error
	AwardPoints(ctx context.Context, points int) error
	CheckNewMilestones(ctx context.Context) error
}

// Context is the full host capability object handed to every hook.
type Context interface {
	LoadContext
	InvokeContext
}
