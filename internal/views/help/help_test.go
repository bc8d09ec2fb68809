package help

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/x/ansi"
)

func testSections() []Section {
	disabled := key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "hidden"))
	disabled.SetEnabled(false)
	return []Section{
		{Title: "Processes", Bindings: []key.Binding{
			key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
			key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
			disabled,
		}},
		{Title: "Empty", Bindings: []key.Binding{disabled}},
	}
}

func TestMarkdown(t *testing.T) {
	doc := Markdown(testSections())

	for _, want := range []string{"# Keys", "## Processes", "- `r` refresh", "- `s` sort"} {
		if !strings.Contains(doc, want) {
			t.Errorf("markdown missing %q:\n%s", want, doc)
		}
	}
	if strings.Contains(doc, "hidden") {
		t.Error("disabled binding should be omitted")
	}
	if strings.Contains(doc, "## Empty") {
		t.Error("section without enabled bindings should be omitted")
	}
}

func TestViewRendersBindings(t *testing.T) {
	out := ansi.Strip(View(testSections(), 100, 40))
	for _, want := range []string{"Processes", "refresh", "sort", "esc:close"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q:\n%s", want, out)
		}
	}
}
