package progress

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fyrsmithlabs/learnhooks/internal/events"
	"github.com/fyrsmithlabs/learnhooks/internal/hooks"
)

// ErrUserNotFound indicates the learner has never been seen.
var ErrUserNotFound = errors.New("user not found")

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	sessions INTEGER NOT NULL DEFAULT 0,
	points INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	last_seen_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS skill_progress (
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	skill_id TEXT NOT NULL,
	status TEXT NOT NULL,
	invocations INTEGER NOT NULL DEFAULT 0,
	started_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	completed_at DATETIME NULL,
	PRIMARY KEY (user_id, skill_id)
);

CREATE TABLE IF NOT EXISTS badges (
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	milestone_id TEXT NOT NULL,
	awarded_at DATETIME NOT NULL,
	PRIMARY KEY (user_id, milestone_id)
);

CREATE TABLE IF NOT EXISTS events (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL,
	payload TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_user ON events(user_id, created_at);
`

// User is a learner record.
type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Sessions   int       `json:"sessions"`
	Points     int       `json:"points"`
	CreatedAt  time.Time `json:"createdAt"`
	LastSeenAt time.Time `json:"lastSeenAt"`
}

// SkillProgress is a learner's state for one skill.
type SkillProgress struct {
	SkillID     string            `json:"skillId"`
	Status      hooks.SkillStatus `json:"status"`
	Invocations int               `json:"invocations"`
	StartedAt   time.Time         `json:"startedAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
}

// Badge is an awarded milestone.
type Badge struct {
	MilestoneID string    `json:"milestoneId"`
	AwardedAt   time.Time `json:"awardedAt"`
}

// Store persists learning progress in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginSession records a new session for the learner, creating them if
// needed, and returns the profile as it was before this session.
func (s *Store) BeginSession(ctx context.Context, userID, name string) (*User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now()
	if _, err := tx.ExecContext(ctx, `
INSERT INTO users (id, name, sessions, points, created_at, last_seen_at)
VALUES (?, ?, 0, 0, ?, ?)
ON CONFLICT(id) DO NOTHING`, userID, name, now, now); err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}

	before, err := scanUser(tx.QueryRowContext(ctx, selectUser, userID))
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
UPDATE users SET sessions = sessions + 1, last_seen_at = ?,
	name = CASE WHEN ? <> '' THEN ? ELSE name END
WHERE id = ?`, now, name, name, userID); err != nil {
		return nil, fmt.Errorf("record session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	if name != "" {
		before.Name = name
	}
	return before, nil
}

const selectUser = `SELECT id, name, sessions, points, created_at, last_seen_at FROM users WHERE id = ?`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Sessions, &u.Points, &u.CreatedAt, &u.LastSeenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// User returns the learner with the given id.
func (s *Store) User(ctx context.Context, userID string) (*User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, selectUser, userID))
	if errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	return u, err
}

// EnsureUser creates the learner if they do not exist.
func (s *Store) EnsureUser(ctx context.Context, userID string) error {
	now := s.now()
	if _, err := s.db.ExecContext(ctx, `
INSERT INTO users (id, created_at, last_seen_at) VALUES (?, ?, ?)
ON CONFLICT(id) DO NOTHING`, userID, now, now); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	return nil
}

// UpdateProgress records an invocation of skillID with status. A completed
// skill stays completed.
func (s *Store) UpdateProgress(ctx context.Context, userID, skillID string, status hooks.SkillStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid skill status %q", status)
	}
	if err := s.EnsureUser(ctx, userID); err != nil {
		return err
	}
	now := s.now()
	if _, err := s.db.ExecContext(ctx, `
INSERT INTO skill_progress (user_id, skill_id, status, invocations, started_at, updated_at)
VALUES (?, ?, ?, 1, ?, ?)
ON CONFLICT(user_id, skill_id) DO UPDATE SET
	invocations = invocations + 1,
	status = CASE WHEN skill_progress.status = 'completed' THEN 'completed' ELSE excluded.status END,
	updated_at = excluded.updated_at`,
		userID, skillID, string(status), now, now); err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

const selectProgress = `SELECT skill_id, status, invocations, started_at, updated_at, completed_at FROM skill_progress`

func scanProgress(row rowScanner) (*SkillProgress, error) {
	var (
		p         SkillProgress
		status    string
		completed sql.NullTime
	)
	if err := row.Scan(&p.SkillID, &status, &p.Invocations, &p.StartedAt, &p.UpdatedAt, &completed); err != nil {
		return nil, err
	}
	p.Status = hooks.SkillStatus(status)
	if completed.Valid {
		t := completed.Time
		p.CompletedAt = &t
	}
	return &p, nil
}

// Progress returns the learner's state for one skill, or nil if they never
// invoked it.
func (s *Store) Progress(ctx context.Context, userID, skillID string) (*SkillProgress, error) {
	p, err := scanProgress(s.db.QueryRowContext(ctx,
		selectProgress+` WHERE user_id = ? AND skill_id = ?`, userID, skillID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	return p, nil
}

// AllProgress returns every skill the learner touched, most recent first.
func (s *Store) AllProgress(ctx context.Context, userID string) ([]SkillProgress, error) {
	return s.listProgress(ctx, selectProgress+` WHERE user_id = ? ORDER BY updated_at DESC, skill_id`, userID)
}

// InProgress returns skills started but not completed, most recent first.
func (s *Store) InProgress(ctx context.Context, userID string, limit int) ([]SkillProgress, error) {
	return s.listProgress(ctx, selectProgress+`
WHERE user_id = ? AND status = 'in_progress' ORDER BY updated_at DESC, skill_id LIMIT ?`, userID, limit)
}

func (s *Store) listProgress(ctx context.Context, query string, args ...any) ([]SkillProgress, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	var out []SkillProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate progress: %w", err)
	}
	return out, nil
}

// CompletedCount returns how many skills the learner completed.
func (s *Store) CompletedCount(ctx context.Context, userID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM skill_progress WHERE user_id = ? AND status = 'completed'`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count completed: %w", err)
	}
	return n, nil
}

// MarkComplete marks skillID completed. It reports false when the skill
// was already completed.
func (s *Store) MarkComplete(ctx context.Context, userID, skillID string) (bool, error) {
	if err := s.EnsureUser(ctx, userID); err != nil {
		return false, err
	}
	now := s.now()
	res, err := s.db.ExecContext(ctx, `
INSERT INTO skill_progress (user_id, skill_id, status, invocations, started_at, updated_at, completed_at)
VALUES (?, ?, 'completed', 0, ?, ?, ?)
ON CONFLICT(user_id, skill_id) DO UPDATE SET
	status = 'completed', updated_at = excluded.updated_at, completed_at = excluded.completed_at
WHERE skill_progress.status <> 'completed'`,
		userID, skillID, now, now, now)
	if err != nil {
		return false, fmt.Errorf("mark complete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark complete: %w", err)
	}
	return n > 0, nil
}

// AddPoints adds points to the learner and returns the new total.
func (s *Store) AddPoints(ctx context.Context, userID string, points int) (int, error) {
	if points < 0 {
		return 0, fmt.Errorf("points must not be negative, got %d", points)
	}
	if err := s.EnsureUser(ctx, userID); err != nil {
		return 0, err
	}
	var total int
	if err := s.db.QueryRowContext(ctx,
		`UPDATE users SET points = points + ? WHERE id = ? RETURNING points`, points, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("add points: %w", err)
	}
	return total, nil
}

// AwardBadge records a milestone for the learner. It reports false when
// the badge was already held.
func (s *Store) AwardBadge(ctx context.Context, userID, milestoneID string) (bool, error) {
	if err := s.EnsureUser(ctx, userID); err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO badges (user_id, milestone_id, awarded_at) VALUES (?, ?, ?)
ON CONFLICT(user_id, milestone_id) DO NOTHING`, userID, milestoneID, s.now())
	if err != nil {
		return false, fmt.Errorf("award badge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("award badge: %w", err)
	}
	return n > 0, nil
}

// Badges returns the learner's badges in award order.
func (s *Store) Badges(ctx context.Context, userID string) ([]Badge, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT milestone_id, awarded_at FROM badges WHERE user_id = ? ORDER BY awarded_at, milestone_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	defer rows.Close()

	var out []Badge
	for rows.Next() {
		var b Badge
		if err := rows.Scan(&b.MilestoneID, &b.AwardedAt); err != nil {
			return nil, fmt.Errorf("scan badge: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Publish persists an event. Store implements events.Publisher.
func (s *Store) Publish(ctx context.Context, e events.Event) error {
	payload := e.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, user_id, name, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Name, string(data), e.CreatedAt); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Events returns the learner's most recent events, newest first.
func (s *Store) Events(ctx context.Context, userID string, limit int) ([]events.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, user_id, name, payload, created_at FROM events
WHERE user_id = ? ORDER BY rowid DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []events.Event
	for rows.Next() {
		var (
			e       events.Event
			payload string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Name, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &e.Payload); err != nil {
			return nil, fmt.Errorf("decode event payload: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
