package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/dicegraph/internal/config"
	"github.com/roach88/dicegraph/internal/dice"
	"github.com/roach88/dicegraph/internal/engine"
	"github.com/roach88/dicegraph/internal/lower"
	"github.com/roach88/dicegraph/internal/optimizer"
	"github.com/roach88/dicegraph/internal/syntax"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Evaluation or test failure (bad expression, scenarios failed, replay mismatch)
	ExitCommandError = 2 // Command error (invalid flags, config or database problems)
)

// Error codes reported in the JSON envelope. Lowering errors keep their own
// E2xx codes.
const (
	ErrCodeGeneric     = "E001"
	ErrCodeSyntax      = "E101"
	ErrCodeFold        = "E301"
	ErrCodeNotConstant = "E302"
	ErrCodeRuntime     = "E401"
	ErrCodeBudget      = "E402"
	ErrCodeProtocol    = "E403"
	ErrCodeStore       = "E501"
	ErrCodeConfig      = "E601"
)

// errorCode classifies err for the JSON envelope.
func errorCode(err error) string {
	var parseErr *syntax.ParseError
	var lowerErr *lower.Error
	var foldErr *optimizer.FoldError
	var runtimeErr *engine.RuntimeError
	var configErr *config.Error

	switch {
	case errors.As(err, &parseErr):
		return ErrCodeSyntax
	case errors.As(err, &lowerErr):
		return lowerErr.Code
	case errors.As(err, &foldErr):
		return ErrCodeFold
	case errors.Is(err, dice.ErrNotConstant):
		return ErrCodeNotConstant
	case engine.IsBudgetExceeded(err):
		return ErrCodeBudget
	case engine.IsProtocolError(err):
		return ErrCodeProtocol
	case errors.As(err, &runtimeErr):
		return ErrCodeRuntime
	case errors.As(err, &configErr):
		return ErrCodeConfig
	}
	return ErrCodeGeneric
}

// Fail reports err through the formatter and returns the ExitError the
// command should end with.
func (f *OutputFormatter) Fail(exitCode int, message string, err error) error {
	return f.FailCode(exitCode, errorCode(err), message, err)
}

// FailCode is Fail with an explicit error code.
func (f *OutputFormatter) FailCode(exitCode int, code, message string, err error) error {
	_ = f.Error(code, fmt.Sprintf("%s: %v", message, err), nil)
	exitErr := WrapExitError(exitCode, message, err)
	exitErr.Reported = true
	return exitErr
}

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported is set once the error was written through an OutputFormatter.
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
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// IsReported reports whether err was already written to the user.
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
	Status  string      `json:"status"`             // "ok" or "error"
	Data    interface{} `json:"data,omitempty"`     // success payload
	Error   *CLIError   `json:"error,omitempty"`    // error details
	TraceID string      `json:"trace_id,omitempty"` // optional session correlation
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"`              // "E101", "E201", etc.
	Message string      `json:"message"`           // human-readable message
	Details interface{} `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
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

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
