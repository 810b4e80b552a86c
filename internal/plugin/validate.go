package plugin

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	minAgents = 5
	minSkills = 20
)

var (
	requiredFields = []string{"name", "version", "description", "author", "agents", "skills", "commands"}
	hookFiles      = []string{"on-load.js", "on-skill-invoke.js"}
	docFiles       = []string{"README.md", "CHANGELOG.md", "INTEGRATION.md", "QUALITY_STANDARDS.md", "LICENSE"}
)

// Report collects validation outcomes.
type Report struct {
	Successes []string `json:"successes"`
	Warnings  []string `json:"warnings"`
	Errors    []string `json:"errors"`
}

// OK reports whether validation found no errors.
func (r *Report) OK() bool {
	return len(r.Errors) == 0
}

func (r *Report) pass(format string, args ...any) {
	r.Successes = append(r.Successes, fmt.Sprintf(format, args...))
}

func (r *Report) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Report) fail(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Validate checks the plugin layout under root.
func Validate(root string) *Report {
	v := &validator{root: root, report: &Report{}}

	m := v.manifest()
	if m != nil {
		v.agents(m)
		v.skills(m)
		v.commands(m)
	}
	v.hooks()
	v.docs()
	if m != nil {
		v.integration(m)
	}
	return v.report
}

type validator struct {
	root   string
	report *Report
}

func (v *validator) path(rel string) string {
	return filepath.Join(v.root, rel)
}

func (v *validator) exists(rel string) bool {
	_, err := os.Stat(v.path(rel))
	return err == nil
}

func (v *validator) manifest() *Manifest {
	data, err := os.ReadFile(v.path(ManifestPath))
	if err != nil {
		v.report.fail("reading plugin.json: %v", err)
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		v.report.fail("parsing plugin.json: %v", err)
		return nil
	}
	for _, field := range requiredFields {
		if _, ok := raw[field]; ok {
			v.report.pass("plugin.json field %q present", field)
		} else {
			v.report.fail("plugin.json missing required field: %s", field)
		}
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		v.report.fail("decoding plugin.json: %v", err)
		return nil
	}

	v.report.pass("%d agents defined", len(m.Agents))
	v.report.pass("%d skills defined", len(m.Skills))
	v.report.pass("%d commands defined", len(m.Commands))
	if len(m.Agents) < minAgents {
		v.report.warn("only %d agents (recommend %d+)", len(m.Agents), minAgents)
	}
	if len(m.Skills) < minSkills {
		v.report.warn("only %d skills (recommend %d+)", len(m.Skills), minSkills)
	}
	return &m
}

func (v *validator) agents(m *Manifest) {
	valid := 0
	for _, a := range m.Agents {
		if a.ID == "" || a.File == "" {
			v.report.fail("agent missing id or file reference")
			continue
		}
		data, err := os.ReadFile(v.path(a.File))
		if err != nil {
			v.report.fail("agent file not found: %s", a.File)
			continue
		}
		content := string(data)
		if !strings.Contains(content, "---") || !strings.Contains(content, "# ") {
			v.report.fail("agent %s missing frontmatter or title", a.ID)
			continue
		}
		valid++
	}
	v.report.pass("%d of %d agents have proper structure", valid, len(m.Agents))
}

func (v *validator) skills(m *Manifest) {
	found := 0
	for _, s := range m.Skills {
		if s.ID == "" || s.File == "" {
			continue
		}
		if v.exists(s.File) {
			found++
		} else {
			v.report.warn("skill file not found: %s", s.File)
		}
	}
	v.report.pass("%d skill files validated", found)
}

func (v *validator) commands(m *Manifest) {
	found := 0
	for _, c := range m.Commands {
		if c.File == "" {
			v.report.fail("command %q missing file reference", c.Name)
			continue
		}
		if v.exists(c.File) {
			found++
		} else {
			v.report.fail("command file not found: %s", c.File)
		}
	}
	v.report.pass("%d command files validated", found)
}

func (v *validator) hooks() {
	data, err := os.ReadFile(v.path("hooks/hooks.json"))
	switch {
	case os.IsNotExist(err):
		v.report.warn("hooks.json not found")
	case err != nil:
		v.report.fail("reading hooks.json: %v", err)
	case !json.Valid(data):
		v.report.fail("hooks.json is not valid JSON")
	default:
		v.report.pass("hooks.json is valid JSON")
	}

	for _, hook := range hookFiles {
		if v.exists(filepath.Join("hooks", hook)) {
			v.report.pass("hook %s found", hook)
		} else {
			v.report.warn("hook %s not found", hook)
		}
	}
}

func (v *validator) docs() {
	for _, doc := range docFiles {
		if v.exists(doc) {
			v.report.pass("%s present", doc)
		} else {
			v.report.warn("%s missing", doc)
		}
	}
}

func (v *validator) integration(m *Manifest) {
	agentIDs := make(map[string]bool, len(m.Agents))
	dupAgents := false
	for _, a := range m.Agents {
		if agentIDs[a.ID] {
			dupAgents = true
		}
		agentIDs[a.ID] = true
	}

	unmapped := map[string]bool{}
	for _, s := range m.Skills {
		if s.Agent != "" && !agentIDs[s.Agent] {
			unmapped[s.Agent] = true
		}
	}
	if len(unmapped) > 0 {
		names := make([]string, 0, len(unmapped))
		for name := range unmapped {
			names = append(names, name)
		}
		sort.Strings(names)
		v.report.fail("skills reference non-existent agents: %s", strings.Join(names, ", "))
	} else {
		v.report.pass("all skill-agent mappings valid")
	}

	if dupAgents {
		v.report.fail("duplicate agent IDs found")
	}

	skillIDs := make(map[string]bool, len(m.Skills))
	dupSkills := false
	for _, s := range m.Skills {
		if skillIDs[s.ID] {
			dupSkills = true
		}
		skillIDs[s.ID] = true
	}
	if dupSkills {
		v.report.fail("duplicate skill IDs found")
	} else if !dupAgents {
		v.report.pass("no duplicate IDs")
	}
}
