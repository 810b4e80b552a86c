// Package progress is the reference host for the learning hooks.
//
// It keeps each learner's progress in SQLite, evaluates milestone rules,
// answers related-skill queries and publishes activity events. A Tracker
// hands out one Session per hook invocation; Session implements
// hooks.Context.
package progress

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/learnhooks/internal/events"
	"github.com/fyrsmithlabs/learnhooks/internal/hooks"
	"github.com/fyrsmithlabs/learnhooks/internal/logging"
	"github.com/fyrsmithlabs/learnhooks/internal/plugin"
	"github.com/fyrsmithlabs/learnhooks/internal/related"
)

// DefaultCompletionInvocations is how many invocations complete a skill.
const DefaultCompletionInvocations = 3

const resumeSuggestions = 3

// Options configures a Tracker.
type Options struct {
	// CompletionInvocations is the invocation count at which a skill is complete.
	CompletionInvocations int

	// MaxRelated is how many related skills a session looks up. Zero means all.
	MaxRelated int

	Rules     Rules
	Publisher events.Publisher
	Logger    *logging.Logger
	Clock     func() time.Time
}

// Tracker owns host state shared by sessions.
type Tracker struct {
	store   *Store
	catalog atomic.Pointer[plugin.Catalog]
	index   atomic.Pointer[related.Index]

	completionInvocations int
	maxRelated            int
	rules                 Rules
	publisher             events.Publisher
	logger                *logging.Logger
	now                   func() time.Time
}

// NewTracker creates a tracker over store and catalog.
func NewTracker(ctx context.Context, store *Store, catalog *plugin.Catalog, opts Options) (*Tracker, error) {
	if opts.CompletionInvocations <= 0 {
		opts.CompletionInvocations = DefaultCompletionInvocations
	}
	if opts.Rules == nil {
		opts.Rules = DefaultRules()
	}
	if err := opts.Rules.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	publisher := events.Multi{store}
	if opts.Publisher != nil {
		publisher = append(publisher, opts.Publisher)
	}

	t := &Tracker{
		store:                 store,
		completionInvocations: opts.CompletionInvocations,
		maxRelated:            opts.MaxRelated,
		rules:                 opts.Rules,
		publisher:             publisher,
		logger:                opts.Logger.Named("progress"),
		now:                   opts.Clock,
	}
	if err := t.SetCatalog(ctx, catalog); err != nil {
		return nil, err
	}
	return t, nil
}

// SetCatalog swaps in a new catalog and rebuilds the related index.
func (t *Tracker) SetCatalog(ctx context.Context, catalog *plugin.Catalog) error {
	if catalog == nil {
		return errors.New("catalog is required")
	}
	idx, err := related.NewIndex(ctx, catalog.Skills(), t.logger)
	if err != nil {
		return fmt.Errorf("building related index: %w", err)
	}
	t.catalog.Store(catalog)
	t.index.Store(idx)
	t.logger.Info(ctx, "catalog loaded", zap.Int("skills", catalog.Len()))
	return nil
}

// Catalog returns the current catalog.
func (t *Tracker) Catalog() *plugin.Catalog {
	return t.catalog.Load()
}

// Store returns the underlying store.
func (t *Tracker) Store() *Store {
	return t.store
}

// SessionParams identifies who a session acts for.
type SessionParams struct {
	UserID   string
	UserName string

	// SkillID is required for on-skill-invoke only.
	SkillID string

	Notifier Notifier
}

// Session creates a host context for one hook invocation.
func (t *Tracker) Session(p SessionParams) (*Session, error) {
	if err := logging.ValidateID(p.UserID, "user id"); err != nil {
		return nil, err
	}
	if p.SkillID != "" {
		if err := logging.ValidateID(p.SkillID, "skill id"); err != nil {
			return nil, err
		}
	}
	if p.Notifier == nil {
		p.Notifier = &Collector{}
	}
	return &Session{
		tracker:  t,
		catalog:  t.catalog.Load(),
		index:    t.index.Load(),
		userID:   p.UserID,
		userName: p.UserName,
		skillID:  p.SkillID,
		notifier: p.Notifier,
	}, nil
}

// Summary is a learner's overall progress.
type Summary struct {
	User      *User           `json:"user"`
	Completed int             `json:"completed"`
	Total     int             `json:"total"`
	Skills    []SkillProgress `json:"skills"`
	Badges    []Badge         `json:"badges"`
}

// Summary returns the learner's progress across the current catalog.
func (t *Tracker) Summary(ctx context.Context, userID string) (*Summary, error) {
	user, err := t.store.User(ctx, userID)
	if err != nil {
		return nil, err
	}
	skills, err := t.store.AllProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	badges, err := t.store.Badges(ctx, userID)
	if err != nil {
		return nil, err
	}
	completed := 0
	for _, p := range skills {
		if p.Status == hooks.StatusCompleted {
			completed++
		}
	}
	return &Summary{
		User:      user,
		Completed: completed,
		Total:     t.Catalog().Len(),
		Skills:    skills,
		Badges:    badges,
	}, nil
}
