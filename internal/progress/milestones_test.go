package progress

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRule_Reached(t *testing.T) {
	tests := []struct {
		name  string
		rule  Rule
		stats Stats
		want  bool
	}{
		{"count met", Rule{Kind: KindCompletedCount, Threshold: 5}, Stats{Completed: 5}, true},
		{"count short", Rule{Kind: KindCompletedCount, Threshold: 5}, Stats{Completed: 4}, false},
		{"percent met", Rule{Kind: KindCompletedPercent, Threshold: 50}, Stats{Completed: 3, Total: 6}, true},
		{"percent short", Rule{Kind: KindCompletedPercent, Threshold: 50}, Stats{Completed: 2, Total: 6}, false},
		{"percent empty catalog", Rule{Kind: KindCompletedPercent, Threshold: 50}, Stats{}, false},
		{"points met", Rule{Kind: KindPoints, Threshold: 1000}, Stats{Points: 1200}, true},
		{"unknown kind", Rule{Kind: "streak", Threshold: 1}, Stats{Completed: 10}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.Reached(tt.stats))
		})
	}
}

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()
	require.NoError(t, rules.Validate())

	reached := rules.Reached(Stats{Completed: 5, Total: 10, Points: 500})
	ids := make([]string, len(reached))
	for i, r := range reached {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"first-steps", "getting-started", "halfway-there"}, ids)
}

func TestRules_Validate(t *testing.T) {
	tests := []struct {
		name  string
		rules Rules
	}{
		{"missing id", Rules{{Name: "x", Kind: KindPoints, Threshold: 1}}},
		{"duplicate", Rules{{ID: "a", Name: "A", Kind: KindPoints, Threshold: 1}, {ID: "a", Name: "A", Kind: KindPoints, Threshold: 2}}},
		{"missing name", Rules{{ID: "a", Kind: KindPoints, Threshold: 1}}},
		{"zero count", Rules{{ID: "a", Name: "A", Kind: KindCompletedCount}}},
		{"percent over 100", Rules{{ID: "a", Name: "A", Kind: KindCompletedPercent, Threshold: 120}}},
		{"unknown kind", Rules{{ID: "a", Name: "A", Kind: "streak", Threshold: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.rules.Validate())
		})
	}
}

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "milestones.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadRules(t *testing.T) {
	path := writeRules(t, `
[[milestone]]
id = "first"
name = "First"
description = "One down"
kind = "completed_count"
threshold = 1

[[milestone]]
id = "rich"
name = "Rich"
kind = "points"
threshold = 300
`)

	rules, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, Rule{ID: "first", Name: "First", Description: "One down", Kind: KindCompletedCount, Threshold: 1}, rules[0])
	assert.Equal(t, KindPoints, rules[1].Kind)
}

func TestLoadRules_Defaults(t *testing.T) {
	rules, err := LoadRules("")
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), rules)
}

func TestLoadRules_Errors(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = LoadRules(writeRules(t, "title = \"nothing\"\n"))
	assert.Error(t, err)

	_, err = LoadRules(writeRules(t, ""))
	assert.ErrorIs(t, err, ErrNoMilestones)

	_, err = LoadRules(writeRules(t, "[[milestone]]\nid = \"a\"\nname = \"A\"\nkind = \"points\"\nthreshold = 0\n"))
	assert.Error(t, err)

	_, err = LoadRules(writeRules(t, "[[milestone]]\nid = \"a\"\nname = \"A\"\nkind = \"points\"\nthreshold = 1\ncolour = \"red\"\n"))
	assert.ErrorContains(t, err, "unknown key")
}
