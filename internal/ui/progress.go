package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// StepStatus represents the current state of a step
type StepStatus int

const (
	StepPending  StepStatus = iota // Not yet started
	StepRunning                    // Currently executing
	StepComplete                   // Successfully completed
	StepFailed                     // Failed
	StepSkipped                    // Skipped
)

// Step is one stage of a multi-step command
type Step struct {
	Number  int
	Name    string
	Status  StepStatus
	Message string // Optional note, e.g. "16 ports"
}

// Progress tracks a fixed list of steps and renders a bar and step lines.
type Progress struct {
	Steps   []Step
	Current int
	Percent float64
	bar     progress.Model
}

// NewProgress creates a progress tracker with one pending step per name.
func NewProgress(names ...string) *Progress {
	steps := make([]Step, len(names))
	for i, name := range names {
		steps[i] = Step{Number: i + 1, Name: name}
	}
	return &Progress{
		Steps: steps,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
	}
}

// Total returns the number of steps.
func (p *Progress) Total() int {
	return len(p.Steps)
}

// UpdateStep records a step's status and note. Out-of-range steps are ignored.
func (p *Progress) UpdateStep(number int, status StepStatus, message string) {
	if number < 1 || number > len(p.Steps) {
		return
	}
	p.Steps[number-1].Status = status
	p.Steps[number-1].Message = message

	if status == StepRunning {
		p.Current = number
		return
	}
	done := 0
	for _, s := range p.Steps {
		if s.Status == StepComplete || s.Status == StepSkipped {
			done++
		}
	}
	p.Percent = float64(done) / float64(len(p.Steps))
}

// RenderBar renders the progress bar with percentage and step counter.
func (p *Progress) RenderBar() string {
	return lipgloss.NewStyle().
		PaddingLeft(2).
		Render(fmt.Sprintf("%s  [%d/%d]", p.bar.ViewAs(p.Percent), p.Current, p.Total()))
}

// RenderStep renders one step line: counter, name, marker and note.
func (p *Progress) RenderStep(step Step) string {
	var (
		marker string
		style  lipgloss.Style
	)
	switch step.Status {
	case StepComplete:
		marker, style = MarkerComplete, StepCompleteStyle
	case StepRunning:
		marker, style = MarkerRunning, StepRunningStyle
	case StepFailed:
		marker, style = MarkerFailure, ErrorTitleStyle
	case StepSkipped:
		marker, style = MarkerSkipped, StepPendingStyle
	default:
		marker, style = MarkerPending, StepPendingStyle
	}

	var b strings.Builder
	fmt.Fprintf(&b, "  [%d/%d] ", step.Number, p.Total())
	b.WriteString(style.Render(step.Name))
	b.WriteString(strings.Repeat(" ", max(1, 36-lipgloss.Width(step.Name))))
	b.WriteString(style.Render(marker))
	if step.Message != "" {
		b.WriteString("  ")
		b.WriteString(StepNoteStyle.Render("(" + step.Message + ")"))
	}
	return b.String()
}

// Render returns the bar followed by every step line.
func (p *Progress) Render() string {
	lines := []string{p.RenderBar(), ""}
	for _, s := range p.Steps {
		lines = append(lines, p.RenderStep(s))
	}
	return strings.Join(lines, "\n")
}

// String implements fmt.Stringer
func (p *Progress) String() string {
	return p.Render()
}

// StepCallback reports progress on a step.
type StepCallback func(number int, status StepStatus, message string)
