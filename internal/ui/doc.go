// Package ui renders the one-shot output of the kumo command line: command
// headers, step lists, result boxes and tables.
//
// Unlike the full-screen dashboard in package tui, nothing here waits for
// input beyond a yes/no confirmation or a password prompt. Everything writes
// to an io.Writer so commands can be tested against a buffer.
//
// # Components
//
//   - Header: banner naming the command and the router it talks to
//   - Runner: header, one line per step, then a success or failure box
//   - Result: success, failure and warning boxes with aligned details
//   - Printer: text or JSON output selected by --format
//   - RenderTable: rounded tables for matrices, labels and scan results
//
// # Example
//
//	runner := ui.NewRunner(ui.RunnerConfig{
//	    Title:     "Route",
//	    Command:   "kumo route 3 1",
//	    Params:    []ui.Detail{{Key: "Router", Value: address}},
//	    StepNames: []string{"Logging in", "Routing"},
//	})
//	err := runner.Run(func(onStep ui.StepCallback) ([]ui.Detail, error) {
//	    onStep(1, ui.StepRunning, "")
//	    ...
//	    return []ui.Detail{{Key: "Destination 3", Value: "source 1"}}, nil
//	})
//
// # Logging
//
// Logging stays silent unless KUMO_LOG_LEVEL or --log-level asks for it, so
// the curated output is not interleaved with log lines.
package ui
