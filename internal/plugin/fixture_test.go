package plugin

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeFile creates root/rel with content, making parent directories.
func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func writeManifest(t *testing.T, root string, m any) {
	t.Helper()
	data, err := json.MarshalIndent(m, "", "  ")
	require.NoError(t, err)
	writeFile(t, root, ManifestPath, string(data))
}

// newPluginRoot builds a complete, valid plugin with agents agents and
// skillsPerAgent skills each.
func newPluginRoot(t *testing.T, agents, skillsPerAgent int) (string, *Manifest) {
	t.Helper()
	root := t.TempDir()

	m := &Manifest{
		Name:        "developer-learning",
		Version:     "1.1.0",
		Description: "Developer learning platform",
		Author:      &Author{Name: "Learning Team"},
		Keywords:    []string{"learning", "golang"},
	}
	for a := 0; a < agents; a++ {
		agentID := fmt.Sprintf("agent-%d", a)
		agentFile := fmt.Sprintf("agents/%s.md", agentID)
		writeFile(t, root, agentFile, "---\nname: "+agentID+"\n---\n\n# Agent "+agentID+"\n")
		m.Agents = append(m.Agents, Agent{ID: agentID, File: agentFile})

		for s := 0; s < skillsPerAgent; s++ {
			skillID := fmt.Sprintf("skill-%d-%d", a, s)
			skillFile := fmt.Sprintf("skills/cat-%d/%s/SKILL.md", a, skillID)
			writeFile(t, root, skillFile, fmt.Sprintf(
				"---\nname: Skill %d.%d\ndescription: Practice topic %d of agent %d\n---\n\n# Skill\n", a, s, s, a))
			m.Skills = append(m.Skills, SkillRef{ID: skillID, Agent: agentID, File: skillFile})
		}
	}
	writeFile(t, root, "commands/learn.md", "# Learn\n")
	m.Commands = []Command{{Name: "learn", File: "commands/learn.md", Description: "Start learning"}}

	writeFile(t, root, "hooks/hooks.json", `{"onLoad": "hooks/on-load.js"}`)
	writeFile(t, root, "hooks/on-load.js", "module.exports = async () => ({success: true})\n")
	writeFile(t, root, "hooks/on-skill-invoke.js", "module.exports = async () => ({success: true})\n")
	for _, doc := range docFiles {
		writeFile(t, root, doc, doc+"\n")
	}

	writeManifest(t, root, m)
	return root, m
}
