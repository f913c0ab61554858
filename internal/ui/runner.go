package ui

import (
	"fmt"
	"io"
	"os"
	"time"
)

// RunnerConfig describes a multi-step command.
type RunnerConfig struct {
	Title     string
	Command   string
	Params    []Detail
	StepNames []string

	// Troubleshooting returns hints for a failure. Nil prints none.
	Troubleshooting func(error) []string

	// Output defaults to os.Stdout.
	Output io.Writer

	// Width defaults to the terminal width.
	Width int
}

// Runner prints a header, one line per finished step and a result box.
type Runner struct {
	config   RunnerConfig
	progress *Progress
	out      io.Writer
	width    int
}

// NewRunner creates a runner.
func NewRunner(config RunnerConfig) *Runner {
	out := config.Output
	if out == nil {
		out = os.Stdout
	}
	width := config.Width
	if width == 0 {
		width = GetTerminalWidth()
	}
	return &Runner{
		config:   config,
		progress: NewProgress(config.StepNames...),
		out:      out,
		width:    width,
	}
}

// Operation is the work a Runner wraps. It reports steps through onStep and
// returns details for the success box.
type Operation func(onStep StepCallback) ([]Detail, error)

// Run executes op and prints its progress and outcome. It returns op's error.
func (r *Runner) Run(op Operation) error {
	start := time.Now()

	header := NewHeader(r.config.Title, r.config.Command, r.config.Params...)
	header.Width = r.width
	fmt.Fprintln(r.out, header.Render())
	fmt.Fprintln(r.out)

	details, err := op(r.onStep)
	elapsed := time.Since(start).Round(time.Millisecond)
	fmt.Fprintln(r.out)

	var result *Result
	if err != nil {
		var tips []string
		if r.config.Troubleshooting != nil {
			tips = r.config.Troubleshooting(err)
		}
		result = NewFailureResult(r.config.Title+" failed", err, tips)
	} else {
		result = NewSuccessResult(r.config.Title+" complete", details...)
		result.AddDetail("Duration", elapsed.String())
	}
	result.Width = r.width
	fmt.Fprintln(r.out, result.Render())
	return err
}

func (r *Runner) onStep(number int, status StepStatus, message string) {
	r.progress.UpdateStep(number, status, message)
	if number < 1 || number > r.progress.Total() {
		return
	}

	line := r.progress.RenderStep(r.progress.Steps[number-1])
	if status == StepRunning {
		// Overwritten by the final status of the step.
		fmt.Fprint(r.out, line+"\r")
		return
	}
	fmt.Fprintln(r.out, line)
}
