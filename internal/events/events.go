// Package events publishes learning activity to interested consumers.
//
// Hooks log events such as skill_accessed through the host; the host turns
// each into an Event and hands it to a Publisher. NATSPublisher fans events
// out on subjects of the form <prefix>.<user>.<event>, and Multi combines
// several publishers so events can be both persisted and broadcast.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Well-known event names.
const (
	SkillAccessed    = "skill_accessed"
	SkillCompleted   = "skill_completed"
	PointsAwarded    = "points_awarded"
	MilestoneReached = "milestone_reached"
)

// Event is a single learning activity record.
type Event struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Name      string         `json:"name"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// New creates an event with a fresh id.
func New(userID, name string, payload map[string]any, at time.Time) Event {
	return Event{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Payload:   payload,
		CreatedAt: at.UTC(),
	}
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, e Event) error

func (f PublisherFunc) Publish(ctx context.Context, e Event) error {
	return f(ctx, e)
}

// Nop discards events.
var Nop Publisher = PublisherFunc(func(context.Context, Event) error { return nil })

// Multi publishes to every publisher in order and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
