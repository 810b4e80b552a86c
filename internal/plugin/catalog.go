package plugin

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fyrsmithlabs/learnhooks/internal/hooks"
)

// Catalog is the set of skills a plugin offers.
type Catalog struct {
	root     string
	manifest *Manifest
	skills   []hooks.Skill
	byID     map[string]int
}

// LoadCatalog loads the manifest under root and each skill's frontmatter.
// A skill whose SKILL.md is missing or has no frontmatter gets a name
// derived from its id.
func LoadCatalog(root string) (*Catalog, error) {
	m, err := LoadManifest(root)
	if err != nil {
		return nil, err
	}
	return NewCatalog(root, m)
}

// NewCatalog builds a catalog from an already parsed manifest.
func NewCatalog(root string, m *Manifest) (*Catalog, error) {
	c := &Catalog{
		root:     root,
		manifest: m,
		skills:   make([]hooks.Skill, 0, len(m.Skills)),
		byID:     make(map[string]int, len(m.Skills)),
	}
	for _, ref := range m.Skills {
		if ref.ID == "" {
			continue
		}
		if _, dup := c.byID[ref.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate skill id %q", ErrInvalidManifest, ref.ID)
		}
		skill, err := c.describe(ref)
		if err != nil {
			return nil, err
		}
		c.byID[ref.ID] = len(c.skills)
		c.skills = append(c.skills, skill)
	}
	return c, nil
}

func (c *Catalog) describe(ref SkillRef) (hooks.Skill, error) {
	skill := hooks.Skill{
		ID:    ref.ID,
		Name:  DisplayName(ref.ID),
		Agent: ref.Agent,
		File:  ref.File,
	}
	if ref.File == "" {
		return skill, nil
	}

	data, err := os.ReadFile(filepath.Join(c.root, ref.File))
	if errors.Is(err, os.ErrNotExist) {
		return skill, nil
	}
	if err != nil {
		return skill, fmt.Errorf("reading skill %s: %w", ref.ID, err)
	}

	fm, _, err := ParseFrontmatter(data)
	if errors.Is(err, ErrNoFrontmatter) {
		return skill, nil
	}
	if err != nil {
		return skill, fmt.Errorf("skill %s: %w", ref.ID, err)
	}
	if fm.Name != "" {
		skill.Name = fm.Name
	}
	skill.Description = fm.Description
	return skill, nil
}

// Skill returns the skill with the given id.
func (c *Catalog) Skill(id string) (hooks.Skill, error) {
	i, ok := c.byID[id]
	if !ok {
		return hooks.Skill{}, fmt.Errorf("%w: %s", ErrSkillNotFound, id)
	}
	return c.skills[i], nil
}

// Skills returns every skill in manifest order.
func (c *Catalog) Skills() []hooks.Skill {
	out := make([]hooks.Skill, len(c.skills))
	copy(out, c.skills)
	return out
}

// Len returns the number of skills.
func (c *Catalog) Len() int {
	return len(c.skills)
}

// Manifest returns the manifest the catalog was built from.
func (c *Catalog) Manifest() *Manifest {
	return c.manifest
}

// DisplayName turns a skill id such as "ci-cd-pipelines" into "Ci Cd Pipelines".
func DisplayName(id string) string {
	words := strings.FieldsFunc(id, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
