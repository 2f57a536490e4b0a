package core

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Causes carried by Violations. Use errors.Is against a Violation or an
// error returned by a stage constructor.
var (
	// ErrContract marks construction-time failures: invalid arguments
	// rejected before any stage exists. They are programmer errors.
	ErrContract = errors.New("contract violation")

	ErrNilParameter    = errors.New("required parameter is nil")
	ErrNegativeIndex   = errors.New("index must not be negative")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrInfinite        = errors.New("term is infinite")
	ErrEmptyCycle      = errors.New("cycle must not be empty")
	ErrNonPositive     = errors.New("count must be greater than zero")
)

// Violation is the descriptive failure record carried by Abnormal terms
// and returned by stage constructors. It explains a failure without
// unwinding the pipeline.
type Violation struct {
	// Stage names the stage that detected the failure.
	Stage string
	// Contract names the obligation that was not met, e.g. "index_within_input".
	Contract string
	// Evidence is the offending value, if any.
	Evidence any
	// Cause is the underlying error; errors.Is and errors.As see through it.
	Cause error
}

// NewViolation creates a Violation for a data-level failure.
func NewViolation(stage, contract string, evidence any, cause error) *Violation {
	return &Violation{Stage: stage, Contract: contract, Evidence: evidence, Cause: cause}
}

// Contract creates a construction-time Violation. The result matches both
// ErrContract and cause under errors.Is.
func Contract(stage, contract string, evidence any, cause error) *Violation {
	return &Violation{Stage: stage, Contract: contract, Evidence: evidence, Cause: errors.Join(ErrContract, cause)}
}

func (v *Violation) Error() string {
	var sb strings.Builder
	sb.WriteString(v.Stage)
	sb.WriteString(": ")
	sb.WriteString(v.Contract)
	if v.Evidence != nil {
		fmt.Fprintf(&sb, " (evidence: %v)", v.Evidence)
	}
	if v.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(strings.ReplaceAll(v.Cause.Error(), "\n", "; "))
	}
	return sb.String()
}

func (v *Violation) Unwrap() error { return v.Cause }

// Must panics if err is non-nil and returns v otherwise.
// It is meant for pipelines built from literal, known-good arguments.
func Must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// ErrPanic wraps a recovered panic value as an error.
// This is used when a user-provided function panics while a stage steps.
// It includes a cleaned-up stack trace that excludes internal termflow frames.
type ErrPanic struct {
	Value any
	Stack string // Cleaned stack trace
}

func (e ErrPanic) Error() string {
	if e.Stack != "" {
		return fmt.Sprintf("panic: %v\n%s", e.Value, e.Stack)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// NewPanicError creates an ErrPanic from a recovered value with a cleaned stack trace.
// It captures the current stack and removes internal termflow frames to show only
// user code, making it easier to identify where the panic originated.
func NewPanicError(recovered any) ErrPanic {
	return ErrPanic{
		Value: recovered,
		Stack: cleanStack(captureStack(4)), // skip: runtime.Callers, captureStack, NewPanicError, defer func
	}
}

// captureStack returns the current stack trace as a string.
func captureStack(skip int) string {
	const maxFrames = 32
	var pcs [maxFrames]uintptr
	n := runtime.Callers(skip, pcs[:])
	if n == 0 {
		return ""
	}

	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder

	for {
		frame, more := frames.Next()
		fmt.Fprintf(&sb, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}

	return sb.String()
}

// cleanStack removes internal termflow frames from a stack trace.
// It keeps user code and standard library frames while filtering out
// github.com/lguimbarda/termflow/flow/ frames.
func cleanStack(stack string) string {
	lines := strings.Split(stack, "\n")
	var result []string
	var skipNext bool

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		// Function lines are unindented; file:line entries follow them.
		if !strings.HasPrefix(line, "\t") {
			if strings.Contains(line, "github.com/lguimbarda/termflow/flow/") {
				skipNext = true
				continue
			}
			skipNext = false
		} else if skipNext {
			continue
		}

		result = append(result, line)
	}

	return strings.Join(result, "\n")
}

// recovered converts a recovered panic into an Abnormal term for stage.
func recovered[V any](stage string, r any) Term[V] {
	return Abnormal[V](NewViolation(stage, "function_must_not_panic", nil, NewPanicError(r)))
}
