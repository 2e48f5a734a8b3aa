package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Process exit statuses. A failed check (no embedding, a decomposition
// that does not validate, a failing scenario) exits 1; anything the user
// must fix before the command can run at all exits 2.
const (
	ExitSuccess      = 0
	ExitFailure      = 1
	ExitCommandError = 2
)

// ExitError carries the process exit status out of a cobra RunE.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches an exit status to err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode reports the status main should exit with. Errors that
// never passed through NewExitError or WrapExitError count as failures.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter renders command results either as a single JSON
// envelope per invocation or as plain text.
type OutputFormatter struct {
	Format string
	Writer io.Writer

	// ErrWriter receives verbose diagnostics. When nil they share Writer,
	// which is only safe for text output.
	ErrWriter io.Writer
	Verbose   bool
}

// CLIResponse is the JSON envelope every command writes.
type CLIResponse struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
	JobID  string    `json:"job_id,omitempty"`
}

// CLIError is the error member of a CLIResponse. Code is one of the
// ErrCode constants.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (f *OutputFormatter) isJSON() bool { return f.Format == "json" }

// emit writes resp as JSON. Multi-error reports are indented so they stay
// readable in a terminal.
func (f *OutputFormatter) emit(resp CLIResponse, indented bool) error {
	enc := json.NewEncoder(f.Writer)
	if indented {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(resp)
}

// Success writes data as an "ok" envelope, or prints it as-is in text mode.
func (f *OutputFormatter) Success(data any) error {
	if !f.isJSON() {
		_, err := fmt.Fprintln(f.Writer, data)
		return err
	}
	return f.emit(CLIResponse{Status: "ok", Data: data}, false)
}

// SuccessJob is Success for commands that executed a job; the id is
// lifted into the envelope so callers need not dig through data.
func (f *OutputFormatter) SuccessJob(jobID string, data any) error {
	if !f.isJSON() {
		_, err := fmt.Fprintln(f.Writer, data)
		return err
	}
	return f.emit(CLIResponse{Status: "ok", Data: data, JobID: jobID}, false)
}

// Error reports a single coded error. Details only reach text output
// when verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.isJSON() {
		return f.emit(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		}, false)
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Errors reports several errors at once. The first becomes the envelope's
// error and data carries the full report.
func (f *OutputFormatter) Errors(first CLIError, report any) error {
	return f.emit(CLIResponse{Status: "error", Error: &first, Data: report}, true)
}

// VerboseLog prints a diagnostic line when Verbose is set.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if f.Verbose {
		fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
	}
}

// GetErrWriter returns where diagnostics go.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter == nil {
		return f.Writer
	}
	return f.ErrWriter
}
