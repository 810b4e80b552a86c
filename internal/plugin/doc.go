// Package plugin loads and validates the Claude plugin layout the learning
// hooks ship inside.
//
// A plugin root contains .claude-plugin/plugin.json listing agents, skills
// and commands. LoadCatalog turns the manifest and each skill's SKILL.md
// frontmatter into the skill catalog the host serves; Validate checks the
// whole layout and reports successes, warnings and errors; Watcher reloads
// the catalog when the manifest changes.
package plugin
