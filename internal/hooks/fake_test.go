package hooks

import (
	"context"
	"fmt"
)

// fakeHost records every capability call and fails the ones listed in errs.
type fakeHost struct {
	profile    *UserProfile
	history    *ProgressHistory
	milestones []Milestone
	skillID    string
	skill      *Skill
	related    []Skill
	complete   bool

	errs   map[string]error
	panics map[string]bool

	calls     []string
	events    []map[string]any
	statuses  []SkillStatus
	badges    []Milestone
	suggested []Skill
	points    []int
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		profile: &UserProfile{Name: "Ada"},
		history: &ProgressHistory{Completed: 2, Total: 10},
		skillID: "go-testing",
		skill:   &Skill{ID: "go-testing", Name: "Go Testing", Agent: "go-expert"},
		errs:    map[string]error{},
		panics:  map[string]bool{},
	}
}

func (f *fakeHost) call(name string) error {
	f.calls = append(f.calls, name)
	if f.panics[name] {
		panic(fmt.Sprintf("%s exploded", name))
	}
	return f.errs[name]
}

func (f *fakeHost) count(name string) int {
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeHost) GetUserProfile(context.Context) (*UserProfile, error) {
	if err := f.call("GetUserProfile"); err != nil {
		return nil, err
	}
	return f.profile, nil
}

func (f *fakeHost) ShowWelcomeMessage(context.Context) error { return f.call("ShowWelcomeMessage") }

func (f *fakeHost) SuggestResume(context.Context) error { return f.call("SuggestResume") }

func (f *fakeHost) GetProgressHistory(context.Context) (*ProgressHistory, error) {
	if err := f.call("GetProgressHistory"); err != nil {
		return nil, err
	}
	return f.history, nil
}

func (f *fakeHost) CheckMilestones(context.Context) ([]Milestone, error) {
	if err := f.call("CheckMilestones"); err != nil {
		return nil, err
	}
	return f.milestones, nil
}

func (f *fakeHost) AwardBadge(_ context.Context, m Milestone) error {
	if err := f.call("AwardBadge"); err != nil {
		return err
	}
	f.badges = append(f.badges, m)
	return nil
}

func (f *fakeHost) GetSkillID(context.Context) (string, error) {
	if err := f.call("GetSkillID"); err != nil {
		return "", err
	}
	return f.skillID, nil
}

func (f *fakeHost) GetSkill(context.Context, string) (*Skill, error) {
	if err := f.call("GetSkill"); err != nil {
		return nil, err
	}
	return f.skill, nil
}

func (f *fakeHost) LogEvent(_ context.Context, name string, payload map[string]any) error {
	if err := f.call("LogEvent"); err != nil {
		return err
	}
	payload["event"] = name
	f.events = append(f.events, payload)
	return nil
}

func (f *fakeHost) UpdateSkillProgress(_ context.Context, _ string, status SkillStatus) error {
	if err := f.call("UpdateSkillProgress"); err != nil {
		return err
	}
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeHost) GetRelatedSkills(context.Context, string) ([]Skill, error) {
	if err := f.call("GetRelatedSkills"); err != nil {
		return nil, err
	}
	return f.related, nil
}

func (f *fakeHost) SuggestRelated(_ context.Context, related []Skill) error {
	if err := f.call("SuggestRelated"); err != nil {
		return err
	}
	f.suggested = related
	return nil
}

func (f *fakeHost) IsSkillComplete(context.Context, string) (bool, error) {
	if err := f.call("IsSkillComplete"); err != nil {
		return false, err
	}
	return f.complete, nil
}

func (f *fakeHost) MarkSkillComplete(context.Context, string) error {
	return f.call("MarkSkillComplete")
}

func (f *fakeHost) AwardPoints(_ context.Context, n int) error {
	if err := f.call("AwardPoints"); err != nil {
		return err
	}
	f.points = append(f.points, n)
	return nil
}

func (f *fakeHost) CheckNewMilestones(context.Context) error { return f.call("CheckNewMilestones") }
