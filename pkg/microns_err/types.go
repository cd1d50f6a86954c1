// pkg/microns_err/types.go

package microns_err

import (
	"errors"
	"fmt"
	"strings"
)

// UserError marks an error as expected and recoverable by the user.
type UserError struct {
	cause error
}

func (e *UserError) Error() string {
	return e.cause.Error()
}

func (e *UserError) Unwrap() error {
	return e.cause
}

// NewExpectedError wraps an error for softer UX handling.
func NewExpectedError(err error) error {
	if err == nil {
		return nil
	}
	return &UserError{cause: err}
}

// IsExpectedUserError checks if the error is marked as expected.
func IsExpectedUserError(err error) bool {
	var e *UserError
	return errors.As(err, &e)
}

// ValidationError reports a service definition that cannot be accepted.
type ValidationError struct {
	Service string // Service name (if known)
	Field   string // Field name (if applicable)
	Message string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Service != "" && e.Field != "":
		return fmt.Sprintf("service '%s' field '%s': %s", e.Service, e.Field, e.Message)
	case e.Service != "":
		return fmt.Sprintf("service '%s': %s", e.Service, e.Message)
	case e.Field != "":
		return fmt.Sprintf("field '%s': %s", e.Field, e.Message)
	default:
		return e.Message
	}
}

// IOError reports registry, template or manifest files that could not be read or written.
type IOError struct {
	Op   string // read, write, parse, mkdir
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError returns nil when err is nil.
func NewIOError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Path: path, Err: err}
}

// ProcessError reports an orchestrator invocation that failed to start or exited non-zero.
type ProcessError struct {
	Command    string   // binary that was (or would have been) executed
	Args       []string // arguments passed to Command
	Dir        string   // working directory
	ExitStatus int      // -1 when the process never started or was killed
	Output     string   // combined stdout/stderr captured from the process
	Err        error
}

func (e *ProcessError) Error() string {
	cmdline := strings.TrimSpace(e.Command + " " + strings.Join(e.Args, " "))
	msg := fmt.Sprintf("orchestrator command %q", cmdline)
	if e.ExitStatus >= 0 {
		msg += fmt.Sprintf(" exited with status %d", e.ExitStatus)
	} else {
		msg += " failed to run"
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	if summary := strings.TrimSpace(e.Output); summary != "" {
		msg += ": " + ExtractSummary(summary, 2)
	}
	return msg
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// AsProcessError extracts a ProcessError from err.
func AsProcessError(err error) (*ProcessError, bool) {
	var e *ProcessError
	ok := errors.As(err, &e)
	return e, ok
}
