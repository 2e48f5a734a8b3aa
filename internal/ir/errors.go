package ir

import (
	"errors"
	"fmt"
)

// Sentinel errors for instruction tree operations. Typed errors below wrap
// them so callers can use errors.Is without caring about detail.
var (
	ErrIndexOutOfRange      = errors.New("instruction index out of range")
	ErrDuplicateInstruction = errors.New("instruction already present in composite")
	ErrUnknownInstruction   = errors.New("unknown instruction")
	ErrParameterCount       = errors.New("parameter count mismatch")
	ErrArity                = errors.New("wrong number of qubits")
	ErrUnknownVariable      = errors.New("unknown variable")
)

// IndexError reports an index outside [0, Len) for the named composite.
type IndexError struct {
	Composite string
	Index     int
	Len       int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("composite %q: index %d out of range [0,%d)", e.Composite, e.Index, e.Len)
}

func (e *IndexError) Unwrap() error { return ErrIndexOutOfRange }

// DuplicateInstructionError reports an attempt to add an instruction object
// that is already a direct child of the composite.
type DuplicateInstructionError struct {
	Composite   string
	Instruction string
}

func (e *DuplicateInstructionError) Error() string {
	return fmt.Sprintf("composite %q: instruction %q already added", e.Composite, e.Instruction)
}

func (e *DuplicateInstructionError) Unwrap() error { return ErrDuplicateInstruction }

// ArityError reports a gate constructed with the wrong number of qubits.
type ArityError struct {
	Name string
	Want int
	Got  int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%s: expected %d qubit(s), got %d", e.Name, e.Want, e.Got)
}

func (e *ArityError) Unwrap() error { return ErrArity }

// UnsupportedOperationError is the panic value raised when an operation is
// invoked on a node kind that does not support it. It is a programmer error,
// never a runtime condition.
type UnsupportedOperationError struct {
	Operation string
	Kind      string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s is not supported on %s", e.Operation, e.Kind)
}

// Unsupported panics with an UnsupportedOperationError.
func Unsupported(operation, kind string) {
	panic(&UnsupportedOperationError{Operation: operation, Kind: kind})
}

// IsIndexError reports whether err is or wraps an IndexError.
func IsIndexError(err error) bool {
	var e *IndexError
	return errors.As(err, &e)
}

// IsDuplicateError reports whether err is or wraps a DuplicateInstructionError.
func IsDuplicateError(err error) bool {
	var e *DuplicateInstructionError
	return errors.As(err, &e)
}
