package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/parabola/internal/quad"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Integration failure or job expectation mismatch
	ExitCommandError = 2 // Command error (bad arguments, missing files, domain errors)
)

// Error codes reported in CLIError.Code besides the quad error codes.
const (
	ErrCodeGeneric  = "ERROR"
	ErrCodeUsage    = "USAGE"
	ErrCodeConfig   = "CONFIG"
	ErrCodeStore    = "STORE"
	ErrCodeMismatch = "MISMATCH"
	ErrCodeCanceled = "CANCELED"
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported is set once the error has been written to the output.
	Reported bool
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
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// IsReported reports whether err has already been written to the output.
func IsReported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Reported
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // quad error code or one of the ErrCode constants
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// TextRenderer is implemented by results with a human-readable form.
type TextRenderer interface {
	RenderText(w io.Writer, p *message.Printer) error
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	if r, ok := data.(TextRenderer); ok {
		return r.RenderText(f.Writer, newPrinter())
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Result outputs data together with an optional failure. A non-nil failure
// sets status "error" and makes Result return an ExitFailure error.
func (f *OutputFormatter) Result(data any, failure *CLIError) error {
	if failure == nil {
		return f.Success(data)
	}

	if f.Format == "json" {
		if err := json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Data:   data,
			Error:  failure,
		}); err != nil {
			return err
		}
	} else {
		if r, ok := data.(TextRenderer); ok {
			if err := r.RenderText(f.Writer, newPrinter()); err != nil {
				return err
			}
		}
		fmt.Fprintf(f.Writer, "FAIL [%s]: %s\n", failure.Code, failure.Message)
	}

	exitErr := NewExitError(ExitFailure, failure.Message)
	exitErr.Reported = true
	return exitErr
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports an error and returns the ExitError the command exits with.
func (f *OutputFormatter) Fail(exitCode int, code, message string, err error) error {
	var details any
	if err != nil {
		details = err.Error()
	}
	_ = f.Error(code, message, details)

	exitErr := WrapExitError(exitCode, message, err)
	exitErr.Reported = true
	return exitErr
}

// FailIntegration reports a failed integration call. Caller mistakes
// (domain, precision, invalid arguments) exit with ExitCommandError, failures
// while computing exit with ExitFailure.
func (f *OutputFormatter) FailIntegration(message string, err error) error {
	var qe *quad.Error
	switch {
	case errors.As(err, &qe):
		exitCode := ExitFailure
		switch qe.Code {
		case quad.ErrCodeDomain, quad.ErrCodePrecision, quad.ErrCodeInvalidArgument:
			exitCode = ExitCommandError
		}
		return f.Fail(exitCode, string(qe.Code), message, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return f.Fail(ExitFailure, ErrCodeCanceled, message, err)
	default:
		return f.Fail(ExitFailure, ErrCodeGeneric, message, err)
	}
}

// VerboseLog outputs a message only if verbose mode is enabled.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// newPrinter formats counts with digit grouping ("10,000").
func newPrinter() *message.Printer {
	return message.NewPrinter(language.English)
}
