package progress

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/fyrsmithlabs/learnhooks/internal/hooks"
)

// RuleKind selects which statistic a milestone is measured against.
type RuleKind string

const (
	KindCompletedCount   RuleKind = "completed_count"
	KindCompletedPercent RuleKind = "completed_percent"
	KindPoints           RuleKind = "points"
)

// Rule is a milestone definition.
type Rule struct {
	ID          string   `toml:"id"`
	Name        string   `toml:"name"`
	Description string   `toml:"description"`
	Kind        RuleKind `toml:"kind"`
	Threshold   float64  `toml:"threshold"`
}

// Stats is what milestone rules are evaluated against.
type Stats struct {
	Completed int
	Total     int
	Points    int
}

// Reached reports whether stats satisfy the rule.
func (r Rule) Reached(s Stats) bool {
	switch r.Kind {
	case KindCompletedCount:
		return float64(s.Completed) >= r.Threshold
	case KindCompletedPercent:
		if s.Total == 0 {
			return false
		}
		return float64(s.Completed)*100/float64(s.Total) >= r.Threshold
	case KindPoints:
		return float64(s.Points) >= r.Threshold
	}
	return false
}

// Milestone converts the rule to the value handed to hooks.
func (r Rule) Milestone() hooks.Milestone {
	return hooks.Milestone{ID: r.ID, Name: r.Name, Description: r.Description}
}

// Rules is an ordered milestone list.
type Rules []Rule

// DefaultRules returns the built-in milestones.
func DefaultRules() Rules {
	return Rules{
		{ID: "first-steps", Name: "First Steps", Description: "Complete your first skill", Kind: KindCompletedCount, Threshold: 1},
		{ID: "getting-started", Name: "Getting Started", Description: "Complete 5 skills", Kind: KindCompletedCount, Threshold: 5},
		{ID: "dedicated-learner", Name: "Dedicated Learner", Description: "Complete 10 skills", Kind: KindCompletedCount, Threshold: 10},
		{ID: "halfway-there", Name: "Halfway There", Description: "Complete half of the catalog", Kind: KindCompletedPercent, Threshold: 50},
		{ID: "graduate", Name: "Graduate", Description: "Complete every skill", Kind: KindCompletedPercent, Threshold: 100},
		{ID: "point-collector", Name: "Point Collector", Description: "Earn 1000 points", Kind: KindPoints, Threshold: 1000},
	}
}

// Reached returns the rules satisfied by stats, in order.
func (rs Rules) Reached(s Stats) Rules {
	var out Rules
	for _, r := range rs {
		if r.Reached(s) {
			out = append(out, r)
		}
	}
	return out
}

// Validate checks ids are unique and every rule is well formed.
func (rs Rules) Validate() error {
	seen := make(map[string]bool, len(rs))
	for i, r := range rs {
		if r.ID == "" {
			return fmt.Errorf("milestone %d: id is required", i)
		}
		if seen[r.ID] {
			return fmt.Errorf("milestone %q: duplicate id", r.ID)
		}
		seen[r.ID] = true
		if r.Name == "" {
			return fmt.Errorf("milestone %q: name is required", r.ID)
		}
		switch r.Kind {
		case KindCompletedCount, KindPoints:
			if r.Threshold < 1 {
				return fmt.Errorf("milestone %q: threshold must be at least 1", r.ID)
			}
		case KindCompletedPercent:
			if r.Threshold <= 0 || r.Threshold > 100 {
				return fmt.Errorf("milestone %q: percent threshold must be in (0, 100]", r.ID)
			}
		default:
			return fmt.Errorf("milestone %q: unknown kind %q", r.ID, r.Kind)
		}
	}
	return nil
}

type rulesFile struct {
	Milestones Rules `toml:"milestone"`
}

// ErrNoMilestones indicates a milestones file defined nothing.
var ErrNoMilestones = errors.New("no milestones defined")

// LoadRules reads milestones from a TOML file of [[milestone]] tables.
// An empty path returns DefaultRules.
func LoadRules(path string) (Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	var f rulesFile
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("decoding milestones %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("milestones %s: unknown key %q", path, undecoded[0].String())
	}
	if len(f.Milestones) == 0 {
		return nil, fmt.Errorf("milestones %s: %w", path, ErrNoMilestones)
	}
	if err := f.Milestones.Validate(); err != nil {
		return nil, err
	}
	return f.Milestones, nil
}
