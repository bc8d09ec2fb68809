// Package help renders the key reference overlay from the active key map.
package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/adminui/sysdash/internal/theme"
)

// Section is a titled group of bindings.
type Section struct {
	Title    string
	Bindings []key.Binding
}

// Markdown lists the enabled bindings of each section as a markdown document.
func Markdown(sections []Section) string {
	var b strings.Builder
	b.WriteString("# Keys\n")
	for _, s := range sections {
		var rows []string
		for _, kb := range s.Bindings {
			if !kb.Enabled() {
				continue
			}
			h := kb.Help()
			rows = append(rows, fmt.Sprintf("- `%s` %s", h.Key, h.Desc))
		}
		if len(rows) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n%s\n", s.Title, strings.Join(rows, "\n"))
	}
	return b.String()
}

// Render converts doc to styled terminal output wrapped at width. If glamour
// fails the markdown source is returned unchanged.
func Render(doc string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return doc
	}
	out, err := r.Render(doc)
	if err != nil {
		return doc
	}
	return strings.Trim(out, "\n")
}

// View renders the overlay panel.
func View(sections []Section, width, height int) string {
	innerW := max(min(width-4, 72), 30)

	body := Render(Markdown(sections), innerW-4)
	if lines := strings.Split(body, "\n"); len(lines) > height-6 && height > 10 {
		body = strings.Join(lines[:height-7], "\n") + "\n" + theme.StyleDimmed.Render("  ...")
	}

	panel := lipgloss.NewStyle().
		Width(innerW).
		Padding(0, 1).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBorder)
	footer := theme.StyleDimmed.Render("?/esc:close")
	return panel.Render(lipgloss.JoinVertical(lipgloss.Left, body, footer))
}
