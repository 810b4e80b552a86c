package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/learnhooks/internal/hooks"
	"github.com/fyrsmithlabs/learnhooks/internal/plugin"
	"github.com/fyrsmithlabs/learnhooks/internal/progress"
)

// testEnv is an isolated HOME, plugin root and database.
type testEnv struct {
	pluginRoot string
	dbPath     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	root := t.TempDir()
	m := plugin.Manifest{
		Name:        "developer-learning",
		Version:     "1.0.0",
		Description: "Developer learning platform",
		Skills: []plugin.SkillRef{
			{ID: "go-testing", Agent: "backend", File: "skills/go-testing/SKILL.md"},
			{ID: "go-fuzzing", Agent: "backend", File: "skills/go-fuzzing/SKILL.md"},
			{ID: "sql-indexes", Agent: "data", File: "skills/sql-indexes/SKILL.md"},
		},
	}
	for _, s := range m.Skills {
		path := filepath.Join(root, s.File)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		content := fmt.Sprintf("---\nname: %s\ndescription: Learn %s\n---\n", plugin.DisplayName(s.ID), s.ID)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	data, err := json.Marshal(m)
	require.NoError(t, err)
	manifest := filepath.Join(root, plugin.ManifestPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(manifest), 0o755))
	require.NoError(t, os.WriteFile(manifest, data, 0o644))

	return &testEnv{pluginRoot: root, dbPath: filepath.Join(t.TempDir(), "progress.db")}
}

func (e *testEnv) run(args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--plugin", e.pluginRoot, "--db", e.dbPath, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func decode[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), s)
	return v
}

func TestHookCommand_FullJourney(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("hook", "on-load", "--user", "u1", "--name", "Ada", "--json")
	require.NoError(t, err)
	loaded := decode[hookOutput](t, out)
	assert.True(t, loaded.Result.Success)
	assert.Equal(t, hooks.LoadedMessage, loaded.Result.Message)
	require.Len(t, loaded.Notices, 1)
	assert.Equal(t, "Welcome, Ada! 3 skills are waiting for you.", loaded.Notices[0].Message)

	var last hookOutput
	for i := 0; i < progress.DefaultCompletionInvocations; i++ {
		out, err = env.run("hook", "on-skill-invoke", "--user", "u1", "--skill", "go-testing", "--json")
		require.NoError(t, err)
		last = decode[hookOutput](t, out)
		require.True(t, last.Result.Success, last.Result.Error)
		assert.Equal(t, "Go Testing", last.Result.Skill.Name)
	}

	var badges []string
	for _, n := range last.Notices {
		if n.Kind == progress.NoticeBadge {
			badges = append(badges, n.Milestone.ID)
		}
	}
	assert.Equal(t, []string{"first-steps"}, badges)

	out, err = env.run("progress", "--user", "u1", "--json")
	require.NoError(t, err)
	summary := decode[progress.Summary](t, out)
	assert.Equal(t, 1, summary.Completed)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 100, summary.User.Points)

	out, err = env.run("hook", "on-load", "--user", "u1", "--name", "Ada")
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome back, Ada!")
	assert.Contains(t, out, hooks.LoadedMessage)
}

func TestHookCommand_Errors(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run("hook", "on-skill-invoke", "--user", "u1")
	assert.ErrorContains(t, err, "--skill is required")

	_, err = env.run("hook", "on-install", "--user", "u1")
	assert.Error(t, err)

	_, err = env.run("hook", "on-load")
	assert.ErrorContains(t, err, "required flag")

	out, err := env.run("hook", "on-skill-invoke", "--user", "u1", "--skill", "rust-macros")
	assert.ErrorContains(t, err, "hook failed")
	assert.Contains(t, out, "on-skill-invoke failed")
}

func TestProgressCommand_UnknownUser(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run("progress", "--user", "ghost")
	assert.ErrorContains(t, err, `no progress recorded for "ghost"`)
}

func TestValidateCommand(t *testing.T) {
	env := newTestEnv(t)

	// The test plugin lacks agents, commands and docs.
	out, err := env.run("validate")
	assert.ErrorIs(t, err, errValidationFailed)
	assert.Contains(t, out, "Validating plugin at "+env.pluginRoot)

	out, err = env.run("validate", "--json", env.pluginRoot)
	assert.ErrorIs(t, err, errValidationFailed)
	report := decode[plugin.Report](t, out)
	assert.NotEmpty(t, report.Errors)
	assert.Contains(t, report.Successes, "3 skills defined")
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := loadConfig(&globalFlags{pluginRoot: "/srv/plugin", dbPath: "/tmp/x.db", logLevel: "debug"})
	require.NoError(t, err)
	assert.Equal(t, "/srv/plugin", cfg.Plugin.Root)
	assert.Equal(t, "/tmp/x.db", cfg.Storage.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)

	_, err = loadConfig(&globalFlags{logLevel: "loud"})
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestTelemetryConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := loadConfig(&globalFlags{})
	require.NoError(t, err)

	tc := telemetryConfig(cfg)
	assert.False(t, tc.Enabled)
	assert.Equal(t, "learnhooks", tc.ServiceName)
	assert.Equal(t, cfg.Server.ShutdownTimeout, tc.ShutdownTimeout)
	assert.NoError(t, tc.Validate())
}
