package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Detail is one labelled value in a header or result box. Details render in
// the order given.
type Detail struct {
	Key   string
	Value string
}

// Header is the banner printed at the start of a command: what runs and
// against which router.
type Header struct {
	Title   string   // e.g., "ROUTE"
	Command string   // e.g., "kumo route 3 1"
	Params  []Detail // e.g., {"Router", "192.168.1.50"}
	Width   int
}

// NewHeader creates a header sized to the terminal.
func NewHeader(title, command string, params ...Detail) *Header {
	return &Header{
		Title:   title,
		Command: command,
		Params:  params,
		Width:   GetTerminalWidth(),
	}
}

// Render returns the styled header
func (h *Header) Render() string {
	width := clampWidth(h.Width)

	top := lipgloss.JoinVertical(lipgloss.Left,
		HeaderTitleStyle.Render(strings.ToUpper(h.Title)),
		HeaderCommandStyle.Render(h.Command),
	)

	content := top
	if len(h.Params) > 0 {
		divider := lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Render(strings.Repeat("─", max(10, width-6)))
		content = lipgloss.JoinVertical(lipgloss.Left, top, divider, renderDetails(h.Params, "  "))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2).
		Render(content)
}

// String implements fmt.Stringer
func (h *Header) String() string {
	return h.Render()
}

// renderDetails lines up "Key: Value" pairs with the keys padded to the
// longest one.
func renderDetails(details []Detail, indent string) string {
	keyWidth := 0
	for _, d := range details {
		keyWidth = max(keyWidth, lipgloss.Width(d.Key)+1)
	}
	keyStyle := KeyStyle.Width(keyWidth)

	lines := make([]string, 0, len(details))
	for _, d := range details {
		lines = append(lines, indent+keyStyle.Render(d.Key+":")+" "+ValueStyle.Render(d.Value))
	}
	return strings.Join(lines, "\n")
}
