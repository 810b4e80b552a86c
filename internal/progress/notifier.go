package progress

import (
	"context"
	"fmt"
	"sync"

	"github.com/fyrsmithlabs/learnhooks/internal/hooks"
)

// Notifier presents host messages to the learner.
type Notifier interface {
	Welcome(ctx context.Context, name string, catalogSize int) error
	Resume(ctx context.Context, name string, skills []hooks.Skill) error
	Related(ctx context.Context, skills []hooks.Skill) error
	Badge(ctx context.Context, m hooks.Milestone) error
}

// NoticeKind classifies a Notice.
type NoticeKind string

const (
	NoticeWelcome NoticeKind = "welcome"
	NoticeResume  NoticeKind = "resume"
	NoticeRelated NoticeKind = "related"
	NoticeBadge   NoticeKind = "badge"
)

// Notice is one message for the learner.
type Notice struct {
	Kind      NoticeKind       `json:"kind"`
	Message   string           `json:"message"`
	Skills    []hooks.Skill    `json:"skills,omitempty"`
	Milestone *hooks.Milestone `json:"milestone,omitempty"`
}

// Collector is a Notifier that keeps notices for the caller to render.
type Collector struct {
	mu      sync.Mutex
	notices []Notice
}

func (c *Collector) add(n Notice) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, n)
	return nil
}

// Notices returns the collected notices in order.
func (c *Collector) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notice, len(c.notices))
	copy(out, c.notices)
	return out
}

func (c *Collector) Welcome(_ context.Context, name string, catalogSize int) error {
	greeting := "Welcome!"
	if name != "" {
		greeting = fmt.Sprintf("Welcome, %s!", name)
	}
	return c.add(Notice{
		Kind:    NoticeWelcome,
		Message: fmt.Sprintf("%s %d skills are waiting for you.", greeting, catalogSize),
	})
}

func (c *Collector) Resume(_ context.Context, name string, skills []hooks.Skill) error {
	msg := fmt.Sprintf("Welcome back, %s!", name)
	if name == "" {
		msg = "Welcome back!"
	}
	if len(skills) > 0 {
		msg += " Pick up where you left off:"
	}
	return c.add(Notice{Kind: NoticeResume, Message: msg, Skills: skills})
}

func (c *Collector) Related(_ context.Context, skills []hooks.Skill) error {
	if len(skills) == 0 {
		return nil
	}
	return c.add(Notice{Kind: NoticeRelated, Message: "You might also like:", Skills: skills})
}

func (c *Collector) Badge(_ context.Context, m hooks.Milestone) error {
	return c.add(Notice{
		Kind:      NoticeBadge,
		Message:   fmt.Sprintf("Badge earned: %s", m.Name),
		Milestone: &m,
	})
}
