package plugin

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestPath is the manifest location relative to the plugin root.
const ManifestPath = ".claude-plugin/plugin.json"

var (
	// ErrInvalidManifest indicates plugin.json could not be read or parsed.
	ErrInvalidManifest = errors.New("invalid plugin manifest")

	// ErrSkillNotFound indicates a skill id is not in the catalog.
	ErrSkillNotFound = errors.New("skill not found")
)

// Author identifies the plugin author. plugin.json may give it as a plain
// string or as an object.
type Author struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	URL   string `json:"url,omitempty"`
}

// UnmarshalJSON accepts either "name" or {"name": ...}.
func (a *Author) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(`"`)) {
		return json.Unmarshal(data, &a.Name)
	}
	type plain Author
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = Author(p)
	return nil
}

// Agent is an agent definition file.
type Agent struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	File        string `json:"file"`
}

// SkillRef is a skill entry in the manifest.
type SkillRef struct {
	ID    string `json:"id"`
	Agent string `json:"agent,omitempty"`
	File  string `json:"file"`
}

// Command is a slash command definition.
type Command struct {
	Name        string `json:"name"`
	File        string `json:"file"`
	Description string `json:"description,omitempty"`
}

// Manifest is the parsed plugin.json.
type Manifest struct {
	Name        string     `json:"name"`
	Version     string     `json:"version"`
	Description string     `json:"description"`
	Author      *Author    `json:"author,omitempty"`
	Keywords    []string   `json:"keywords,omitempty"`
	Agents      []Agent    `json:"agents"`
	Skills      []SkillRef `json:"skills"`
	Commands    []Command  `json:"commands"`
}

// LoadManifest reads plugin.json under root.
func LoadManifest(root string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(root, ManifestPath))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrInvalidManifest, ManifestPath, err)
	}
	return &m, nil
}
