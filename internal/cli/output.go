package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lguimbarda/termflow/flow"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The pipeline ended abnormally or produced infinite output
	ExitCommandError = 2 // Command error (bad arguments, config, database)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message; empty when the error was already printed
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Reported reports whether the error has already been written to the
// command output.
func (e *ExitError) Reported() bool {
	return e.Message == ""
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Response is the JSON output of every command.
type Response struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   *Result   `json:"data"`
	Error  *CLIError `json:"error,omitempty"`
}

// Result is what a pipeline run committed.
type Result struct {
	Values    []string `json:"values"`
	Terms     int64    `json:"terms"`
	Truncated bool     `json:"truncated,omitempty"`
}

// CLIError describes the violation that ended a run.
type CLIError struct {
	Stage    string `json:"stage"`
	Contract string `json:"contract"`
	Message  string `json:"message"`
}

// writeReport prints report in format and returns an ExitError when the
// run did not end normally.
func writeReport(w io.Writer, format string, report flow.Report[string]) error {
	values, err := report.Values()
	result := &Result{Values: values, Terms: report.Stats.Terms, Truncated: report.Truncated}
	if result.Values == nil {
		result.Values = []string{}
	}

	var violation *flow.Violation
	if err != nil && !errors.As(err, &violation) {
		return WrapExitError(ExitFailure, "collect output", err)
	}

	if format == "json" {
		resp := Response{Status: "ok", Data: result}
		if violation != nil {
			resp.Status = "error"
			resp.Error = &CLIError{Stage: violation.Stage, Contract: violation.Contract, Message: violation.Error()}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return WrapExitError(ExitFailure, "write output", err)
		}
	} else {
		line := strings.Join(result.Values, ",")
		if result.Truncated {
			line += ",..."
		}
		fmt.Fprintln(w, line)
		if violation != nil {
			fmt.Fprintf(w, "abnormal: %v\n", violation)
		}
	}

	if violation != nil {
		return &ExitError{Code: ExitFailure, Err: violation}
	}
	return nil
}
