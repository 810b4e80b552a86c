package plugin

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrNoFrontmatter indicates a markdown file has no leading --- block.
var ErrNoFrontmatter = errors.New("no frontmatter")

// Frontmatter is the YAML header of SKILL.md and agent files.
type Frontmatter struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags,omitempty"`
}

// ParseFrontmatter splits a markdown document into its YAML header and body.
func ParseFrontmatter(data []byte) (*Frontmatter, []byte, error) {
	lines := bytes.SplitAfter(data, []byte("\n"))
	if len(lines) == 0 || !isFence(lines[0]) {
		return nil, data, ErrNoFrontmatter
	}

	offset := len(lines[0])
	for _, line := range lines[1:] {
		if isFence(line) {
			header := data[len(lines[0]):offset]
			body := data[offset+len(line):]

			var fm Frontmatter
			if err := yaml.Unmarshal(header, &fm); err != nil {
				return nil, data, fmt.Errorf("parsing frontmatter: %w", err)
			}
			return &fm, body, nil
		}
		offset += len(line)
	}
	return nil, data, fmt.Errorf("%w: unterminated block", ErrNoFrontmatter)
}

func isFence(line []byte) bool {
	return bytes.Equal(bytes.TrimRight(line, " \t\r\n"), []byte("---"))
}
