package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/starford/grove/internal/garden"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorDim    = lipgloss.Color("240")
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleError   = lipgloss.NewStyle().Foreground(colorRed)
	styleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
)

// severe problems keep a note out of the garden; the rest are broken links.
func severe(kind string) bool {
	switch kind {
	case garden.ProblemUnreadable, garden.ProblemInvalid, garden.ProblemDuplicate:
		return true
	}
	return false
}

// printReport writes a human-readable check report.
func printReport(w io.Writer, rep garden.Report) {
	fmt.Fprintln(w, styleTitle.Render("Garden check"))
	fmt.Fprintln(w, styleDim.Render(fmt.Sprintf("  %d published, %d drafts", rep.Notes, rep.Drafts)))

	for _, p := range rep.Problems {
		icon := styleWarning.Render(iconWarning)
		if severe(p.Kind) {
			icon = styleError.Render(iconError)
		}
		where := p.Slug
		if where == "" {
			where = p.Path
		}
		line := fmt.Sprintf("%s %s %s", icon, where, styleDim.Render(p.Kind))
		if p.Target != "" {
			line += " → " + p.Target
		}
		fmt.Fprintln(w, line)
		if p.Message != "" {
			fmt.Fprintln(w, "  "+styleDim.Render(p.Message))
		}
	}

	if rep.OK() {
		fmt.Fprintln(w, styleSuccess.Render(iconSuccess)+" no problems found")
		return
	}
	fmt.Fprintln(w, styleError.Render(iconError)+fmt.Sprintf(" %d problem(s)", len(rep.Problems)))
}
