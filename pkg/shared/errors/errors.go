package errors

import (
	"errors"
	"fmt"
)

// Exit codes returned by the CLI.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitConfig  = 2
)

// ErrTimeout marks results collected before the run deadline expired.
var ErrTimeout = errors.New("analysis timed out")

// ParseError describes a file the parser recovered from.
type ParseError struct {
	Path     string
	Language string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %q as %s: %v", e.Path, e.Language, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError wraps err with the file that failed.
func NewParseError(path, language string, err error) error {
	return &ParseError{Path: path, Language: language, Err: err}
}

// DetectorError is raised when a detector method fails or panics on a shard.
type DetectorError struct {
	Finding string
	Method  string
	Path    string
	Err     error
}

func (e *DetectorError) Error() string {
	return fmt.Sprintf("detector %q (%s) failed on %q: %v", e.Method, e.Finding, e.Path, e.Err)
}

func (e *DetectorError) Unwrap() error {
	return e.Err
}

// NewDetectorError builds a DetectorError from a returned error or a recovered panic value.
func NewDetectorError(finding, method, path string, cause interface{}) error {
	var err error
	switch v := cause.(type) {
	case error:
		err = v
	default:
		err = fmt.Errorf("panic: %v", v)
	}
	return &DetectorError{Finding: finding, Method: method, Path: path, Err: err}
}

// FatalError stops the run and carries the process exit code.
type FatalError struct {
	ExitCode int
	Message  string
	Err      error
}

func (e *FatalError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// NewFatalError creates a FatalError with the given exit code.
func NewFatalError(code int, message string, err error) *FatalError {
	return &FatalError{ExitCode: code, Message: message, Err: err}
}

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var fatal *FatalError
	if errors.As(err, &fatal) {
		return fatal.ExitCode
	}
	return ExitFailure
}
