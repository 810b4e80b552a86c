package progress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/learnhooks/internal/events"
	"github.com/fyrsmithlabs/learnhooks/internal/hooks"
	"github.com/fyrsmithlabs/learnhooks/internal/logging"
	"github.com/fyrsmithlabs/learnhooks/internal/plugin"
)

func testCatalog(t *testing.T) *plugin.Catalog {
	t.Helper()
	cat, err := plugin.NewCatalog(t.TempDir(), &plugin.Manifest{
		Name: "developer-learning",
		Skills: []plugin.SkillRef{
			{ID: "go-testing", Agent: "backend"},
			{ID: "go-benchmarks", Agent: "backend"},
			{ID: "go-concurrency", Agent: "backend"},
			{ID: "react-hooks", Agent: "frontend"},
		},
	})
	require.NoError(t, err)
	return cat
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingPublisher) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Name
	}
	return out
}

func newTestTracker(t *testing.T, opts Options) (*Tracker, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	opts.Publisher = pub
	opts.Clock = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
	tracker, err := NewTracker(context.Background(), newTestStore(t), testCatalog(t), opts)
	require.NoError(t, err)
	return tracker, pub
}

func newManager() *hooks.Manager {
	return hooks.NewManager(hooks.DefaultConfig(), logging.NewNop())
}

func TestSession_OnLoadNewThenReturning(t *testing.T) {
	ctx := context.Background()
	tracker, _ := newTestTracker(t, Options{})
	mgr := newManager()

	notes := &Collector{}
	session, err := tracker.Session(SessionParams{UserID: "u1", UserName: "Ada", Notifier: notes})
	require.NoError(t, err)

	res := mgr.Execute(ctx, hooks.HookOnLoad, session)
	require.True(t, res.Success, res.Error)
	require.Len(t, notes.Notices(), 1)
	assert.Equal(t, NoticeWelcome, notes.Notices()[0].Kind)
	assert.Equal(t, "Welcome, Ada! 4 skills are waiting for you.", notes.Notices()[0].Message)

	require.NoError(t, tracker.Store().UpdateProgress(ctx, "u1", "go-benchmarks", hooks.StatusInProgress))

	notes = &Collector{}
	session, err = tracker.Session(SessionParams{UserID: "u1", Notifier: notes})
	require.NoError(t, err)

	res = mgr.Execute(ctx, hooks.HookOnLoad, session)
	require.True(t, res.Success, res.Error)
	require.Len(t, notes.Notices(), 1)
	n := notes.Notices()[0]
	assert.Equal(t, NoticeResume, n.Kind)
	assert.Equal(t, "Welcome back, Ada! Pick up where you left off:", n.Message)
	require.Len(t, n.Skills, 1)
	assert.Equal(t, "go-benchmarks", n.Skills[0].ID)
}

func TestSession_OnSkillInvokeToCompletion(t *testing.T) {
	ctx := context.Background()
	tracker, pub := newTestTracker(t, Options{CompletionInvocations: 2, MaxRelated: 2})
	mgr := newManager()

	invoke := func() (hooks.Result, *Collector) {
		notes := &Collector{}
		session, err := tracker.Session(SessionParams{UserID: "u1", SkillID: "go-testing", Notifier: notes})
		require.NoError(t, err)
		return mgr.Execute(ctx, hooks.HookOnSkillInvoke, session), notes
	}

	res, notes := invoke()
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "Go Testing", res.Skill.Name)
	require.Len(t, notes.Notices(), 1)
	assert.Equal(t, NoticeRelated, notes.Notices()[0].Kind)
	assert.Len(t, notes.Notices()[0].Skills, 2)
	assert.Equal(t, []string{events.SkillAccessed}, pub.names())

	res, notes = invoke()
	require.True(t, res.Success, res.Error)
	assert.Equal(t, []string{
		events.SkillAccessed,
		events.SkillAccessed, events.SkillCompleted, events.PointsAwarded, events.MilestoneReached,
	}, pub.names())

	var badges []string
	for _, n := range notes.Notices() {
		if n.Kind == NoticeBadge {
			badges = append(badges, n.Milestone.ID)
		}
	}
	assert.Equal(t, []string{"first-steps"}, badges)

	summary, err := tracker.Summary(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Completed)
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, hooks.DefaultCompletionPoints, summary.User.Points)
	require.Len(t, summary.Badges, 1)

	// Further invocations of a completed skill award nothing more.
	res, _ = invoke()
	require.True(t, res.Success, res.Error)
	summary, err = tracker.Summary(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, hooks.DefaultCompletionPoints, summary.User.Points)
	assert.Equal(t, events.SkillAccessed, pub.names()[len(pub.names())-1])
}

// gatedSession holds every IsSkillComplete answer until all sessions in the
// group have asked.
type gatedSession struct {
	hooks.Context
	asked *sync.WaitGroup
}

func (g gatedSession) IsSkillComplete(ctx context.Context, id string) (bool, error) {
	complete, err := g.Context.IsSkillComplete(ctx, id)
	g.asked.Done()
	g.asked.Wait()
	return complete, err
}

func TestSession_ConcurrentCompletionRewardsOnce(t *testing.T) {
	ctx := context.Background()
	tracker, pub := newTestTracker(t, Options{CompletionInvocations: 2})
	mgr := newManager()

	first, err := tracker.Session(SessionParams{UserID: "u1", SkillID: "go-testing"})
	require.NoError(t, err)
	require.True(t, mgr.Execute(ctx, hooks.HookOnSkillInvoke, first).Success)

	const runs = 2
	var asked sync.WaitGroup
	asked.Add(runs)
	results := make([]hooks.Result, runs)

	var done sync.WaitGroup
	for i := 0; i < runs; i++ {
		session, err := tracker.Session(SessionParams{UserID: "u1", SkillID: "go-testing", Notifier: &Collector{}})
		require.NoError(t, err)
		done.Add(1)
		go func(i int, hc hooks.Context) {
			defer done.Done()
			results[i] = mgr.Execute(ctx, hooks.HookOnSkillInvoke, hc)
		}(i, gatedSession{Context: session, asked: &asked})
	}
	done.Wait()

	for _, res := range results {
		assert.True(t, res.Success, res.Error)
	}

	summary, err := tracker.Summary(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, hooks.DefaultCompletionPoints, summary.User.Points)
	assert.Equal(t, 1, summary.Completed)

	var completed, awarded int
	for _, name := range pub.names() {
		switch name {
		case events.SkillCompleted:
			completed++
		case events.PointsAwarded:
			awarded++
		}
	}
	assert.Equal(t, 1, completed)
	assert.Equal(t, 1, awarded)
}

func TestSession_MarkSkillCompleteTwice(t *testing.T) {
	ctx := context.Background()
	tracker, _ := newTestTracker(t, Options{})

	a, err := tracker.Session(SessionParams{UserID: "u1", SkillID: "go-testing"})
	require.NoError(t, err)
	b, err := tracker.Session(SessionParams{UserID: "u1", SkillID: "go-testing"})
	require.NoError(t, err)

	require.NoError(t, a.MarkSkillComplete(ctx, "go-testing"))
	err = b.MarkSkillComplete(ctx, "go-testing")
	assert.ErrorIs(t, err, hooks.ErrAlreadyCompleted)
}

func TestSession_AccessEventPersisted(t *testing.T) {
	ctx := context.Background()
	tracker, _ := newTestTracker(t, Options{})
	session, err := tracker.Session(SessionParams{UserID: "u1", SkillID: "react-hooks"})
	require.NoError(t, err)

	require.True(t, newManager().Execute(ctx, hooks.HookOnSkillInvoke, session).Success)

	stored, err := tracker.Store().Events(ctx, "u1", 5)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "react-hooks", stored[0].Payload["skillId"])
	assert.Equal(t, "React Hooks", stored[0].Payload["skillName"])
}

func TestSession_UnknownSkillFailsHook(t *testing.T) {
	tracker, _ := newTestTracker(t, Options{})
	session, err := tracker.Session(SessionParams{UserID: "u1", SkillID: "cobol"})
	require.NoError(t, err)

	res := newManager().Execute(context.Background(), hooks.HookOnSkillInvoke, session)

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, plugin.ErrSkillNotFound.Error())
}

func TestSession_NoSkillFailsHook(t *testing.T) {
	tracker, _ := newTestTracker(t, Options{})
	session, err := tracker.Session(SessionParams{UserID: "u1"})
	require.NoError(t, err)

	res := newManager().Execute(context.Background(), hooks.HookOnSkillInvoke, session)

	assert.False(t, res.Success)
	assert.Equal(t, ErrNoSkill.Error(), res.Error)
}

func TestSession_PublisherErrorFailsHook(t *testing.T) {
	tracker, err := NewTracker(context.Background(), newTestStore(t), testCatalog(t), Options{
		Publisher: events.PublisherFunc(func(context.Context, events.Event) error {
			return errors.New("nats: connection closed")
		}),
	})
	require.NoError(t, err)
	session, err := tracker.Session(SessionParams{UserID: "u1", SkillID: "go-testing"})
	require.NoError(t, err)

	res := newManager().Execute(context.Background(), hooks.HookOnSkillInvoke, session)

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "connection closed")
}

func TestTracker_SessionValidatesIDs(t *testing.T) {
	tracker, _ := newTestTracker(t, Options{})

	_, err := tracker.Session(SessionParams{UserID: ""})
	assert.Error(t, err)

	_, err = tracker.Session(SessionParams{UserID: "u1", SkillID: "../etc"})
	assert.Error(t, err)
}

func TestTracker_SetCatalog(t *testing.T) {
	ctx := context.Background()
	tracker, _ := newTestTracker(t, Options{})

	cat, err := plugin.NewCatalog(t.TempDir(), &plugin.Manifest{Skills: []plugin.SkillRef{{ID: "rust-basics"}}})
	require.NoError(t, err)
	require.NoError(t, tracker.SetCatalog(ctx, cat))
	assert.Equal(t, 1, tracker.Catalog().Len())

	assert.Error(t, tracker.SetCatalog(ctx, nil))
}

func TestTracker_SummaryUnknownUser(t *testing.T) {
	tracker, _ := newTestTracker(t, Options{})
	_, err := tracker.Summary(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestNewTracker_InvalidRules(t *testing.T) {
	_, err := NewTracker(context.Background(), newTestStore(t), testCatalog(t), Options{
		Rules: Rules{{ID: "x"}},
	})
	assert.Error(t, err)
}
