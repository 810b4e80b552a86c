package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/learnhooks/internal/hooks"
	"github.com/fyrsmithlabs/learnhooks/internal/plugin"
	"github.com/fyrsmithlabs/learnhooks/internal/progress"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")).Italic(true)
	badgeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true)
	bulletIndent = "  "
)

func renderSkills(b *strings.Builder, skills []hooks.Skill) {
	for _, s := range skills {
		line := bulletIndent + "• " + s.Name
		if s.Description != "" {
			line += mutedStyle.Render(" - " + s.Description)
		}
		b.WriteString(line + "\n")
	}
}

// renderHook writes a hook's notices followed by its result line.
func renderHook(w io.Writer, hookType hooks.HookType, res hooks.Result, notices []progress.Notice) {
	var b strings.Builder
	for _, n := range notices {
		switch n.Kind {
		case progress.NoticeBadge:
			b.WriteString(badgeStyle.Render("★ "+n.Message) + "\n")
		case progress.NoticeWelcome, progress.NoticeResume:
			b.WriteString(titleStyle.Render(n.Message) + "\n")
		default:
			b.WriteString(n.Message + "\n")
		}
		renderSkills(&b, n.Skills)
	}

	switch {
	case !res.Success:
		b.WriteString(errorStyle.Render("✗ "+string(hookType)+" failed: ") + res.Error + "\n")
	case res.Skill != nil:
		b.WriteString(okStyle.Render("✓ ") + "Now learning: " + res.Skill.Name + "\n")
	default:
		b.WriteString(okStyle.Render("✓ ") + res.Message + "\n")
	}
	fmt.Fprint(w, b.String())
}

// renderReport writes a validation report in the order successes,
// warnings, errors.
func renderReport(w io.Writer, root string, r *plugin.Report) {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Validating plugin at "+root) + "\n\n")
	for _, s := range r.Successes {
		b.WriteString(okStyle.Render("✓ ") + s + "\n")
	}
	for _, s := range r.Warnings {
		b.WriteString(warnStyle.Render("! ") + s + "\n")
	}
	for _, s := range r.Errors {
		b.WriteString(errorStyle.Render("✗ ") + s + "\n")
	}
	b.WriteString("\n")
	if r.OK() {
		b.WriteString(okStyle.Render(fmt.Sprintf("Plugin is valid (%d warnings)", len(r.Warnings))) + "\n")
	} else {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Plugin has %d errors", len(r.Errors))) + "\n")
	}
	fmt.Fprint(w, b.String())
}

func renderSummary(w io.Writer, s *progress.Summary) {
	var b strings.Builder
	name := s.User.Name
	if name == "" {
		name = s.User.ID
	}
	b.WriteString(titleStyle.Render("Progress for "+name) + "\n")
	fmt.Fprintf(&b, "%sSkills completed: %d/%d\n", bulletIndent, s.Completed, s.Total)
	fmt.Fprintf(&b, "%sPoints: %d\n", bulletIndent, s.User.Points)
	fmt.Fprintf(&b, "%sSessions: %d\n", bulletIndent, s.User.Sessions)

	if len(s.Skills) > 0 {
		b.WriteString("\n" + titleStyle.Render("Skills") + "\n")
		for _, p := range s.Skills {
			status := warnStyle.Render(string(p.Status))
			if p.Status == hooks.StatusCompleted {
				status = okStyle.Render(string(p.Status))
			}
			fmt.Fprintf(&b, "%s%-32s %s %s\n", bulletIndent, p.SkillID, status,
				mutedStyle.Render(fmt.Sprintf("(%d invocations)", p.Invocations)))
		}
	}
	if len(s.Badges) > 0 {
		b.WriteString("\n" + titleStyle.Render("Badges") + "\n")
		for _, badge := range s.Badges {
			b.WriteString(bulletIndent + badgeStyle.Render("★ "+badge.MilestoneID) + "\n")
		}
	}
	fmt.Fprint(w, b.String())
}
