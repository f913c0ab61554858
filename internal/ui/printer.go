package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Format selects how command results are printed.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text or json)", s)
	}
}

// Printer writes styled output, or JSON when its format asks for it.
type Printer struct {
	out    io.Writer
	width  int
	format Format
}

// NewPrinter creates a Printer. A nil w writes to os.Stdout.
func NewPrinter(w io.Writer, format Format) *Printer {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = FormatText
	}
	return &Printer{out: w, width: GetTerminalWidth(), format: format}
}

// JSON reports whether output is JSON.
func (p *Printer) JSON() bool {
	return p.format == FormatJSON
}

// Width returns the width used for boxes
func (p *Printer) Width() int {
	return p.width
}

// SetWidth overrides the terminal width.
func (p *Printer) SetWidth(width int) {
	p.width = width
}

// Writer returns the underlying writer
func (p *Printer) Writer() io.Writer {
	return p.out
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintJSON writes v as indented JSON.
func (p *Printer) PrintJSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Emit prints v as JSON in JSON mode and calls text otherwise.
func (p *Printer) Emit(v any, text func()) error {
	if p.JSON() {
		return p.PrintJSON(v)
	}
	text()
	return nil
}

// PrintHeader prints a command header box. Suppressed in JSON mode.
func (p *Printer) PrintHeader(title, command string, params ...Detail) {
	if p.JSON() {
		return
	}
	h := NewHeader(title, command, params...)
	h.Width = p.width
	p.Println(h.Render())
	p.Newline()
}

// PrintSuccess prints a success box
func (p *Printer) PrintSuccess(title string, details ...Detail) {
	r := NewSuccessResult(title, details...)
	r.Width = p.width
	p.Println(r.Render())
}

// PrintWarning prints a warning box
func (p *Printer) PrintWarning(title string, details ...Detail) {
	r := NewWarningResult(title, details...)
	r.Width = p.width
	p.Println(r.Render())
}

// PrintFailure prints a failure box with troubleshooting tips
func (p *Printer) PrintFailure(title string, err error, troubleshooting []string) {
	r := NewFailureResult(title, err, troubleshooting)
	r.Width = p.width
	p.Println(r.Render())
}

// PrintDetails prints aligned key/value lines without a box.
func (p *Printer) PrintDetails(details ...Detail) {
	p.Println(renderDetails(details, "  "))
}

// PrintPleaseWait prints a notice for a long-running step.
func (p *Printer) PrintPleaseWait(message, durationHint string) {
	if p.JSON() {
		return
	}
	style := lipgloss.NewStyle().Foreground(PrimaryColor).Bold(true).PaddingLeft(2)
	line := style.Render("⏳ " + message)
	if durationHint != "" {
		line += " " + StepNoteStyle.Render("("+durationHint+")")
	}
	p.Println(line + style.Render("..."))
}
