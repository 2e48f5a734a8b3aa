package exec

import (
	"errors"
	"fmt"
)

// RunErrorCode categorizes run errors.
type RunErrorCode string

const (
	// ErrCodeAcceleratorFailed indicates the accelerator returned an error.
	ErrCodeAcceleratorFailed RunErrorCode = "ACCELERATOR_FAILED"

	// ErrCodeCancelled indicates the context ended before the job finished.
	ErrCodeCancelled RunErrorCode = "CANCELLED"

	// ErrCodeDecomposition indicates base ++ sub did not reproduce an input.
	ErrCodeDecomposition RunErrorCode = "DECOMPOSITION_MISMATCH"
)

// RunError represents an error during a job.
type RunError struct {
	Code    RunErrorCode
	Message string

	// JobID identifies the affected job.
	JobID string

	// Circuit names the circuit being executed, if any.
	Circuit string

	Err error
}

// Error implements the error interface.
func (e *RunError) Error() string {
	if e.Circuit != "" {
		return fmt.Sprintf("%s: %s (job=%s, circuit=%s)", e.Code, e.Message, e.JobID, e.Circuit)
	}
	return fmt.Sprintf("%s: %s (job=%s)", e.Code, e.Message, e.JobID)
}

func (e *RunError) Unwrap() error { return e.Err }

// IsAcceleratorError returns true if the error came from the accelerator.
// Uses errors.As to handle wrapped errors.
func IsAcceleratorError(err error) bool {
	var re *RunError
	if errors.As(err, &re) {
		return re.Code == ErrCodeAcceleratorFailed
	}
	return false
}

// IsCancelled returns true if the job stopped because its context ended.
func IsCancelled(err error) bool {
	var re *RunError
	if errors.As(err, &re) {
		return re.Code == ErrCodeCancelled
	}
	return false
}

func newAcceleratorError(jobID, circuit string, err error) *RunError {
	return &RunError{
		Code:    ErrCodeAcceleratorFailed,
		Message: err.Error(),
		JobID:   jobID,
		Circuit: circuit,
		Err:     err,
	}
}

func newCancelledError(jobID string, err error) *RunError {
	return &RunError{
		Code:    ErrCodeCancelled,
		Message: "job cancelled",
		JobID:   jobID,
		Err:     err,
	}
}
