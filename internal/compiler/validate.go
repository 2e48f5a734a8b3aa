package compiler

import (
	"fmt"

	"github.com/roach88/xacc/internal/anneal"
	"github.com/roach88/xacc/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedIRType = "E100" // unsupported IR type for validation

	// Composite errors (E101-E109)
	ErrEmptyComposite     = "E101" // no instructions
	ErrDuplicateVariable  = "E102" // variable declared twice
	ErrUndeclaredVariable = "E103" // parameter references an undeclared variable
	ErrUnresolvedCall     = "E104" // call placeholder left after linking

	// Annealing program errors (E110-E119)
	ErrNoTerms = "E110" // program has no enabled terms

	// Unit errors (E120-E129)
	ErrDuplicateName = "E120" // circuit and program share a name
)

// ValidationError represents a validation error in compiled IR.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates compiled IR. Returns all errors found (does not
// fail-fast). Supports *ir.Composite, *anneal.Program and *Unit.
func Validate(v any) []ValidationError {
	switch x := v.(type) {
	case *anneal.Program:
		return validateProgram(x)
	case *ir.Composite:
		return validateCircuit(x)
	case *Unit:
		return validateUnit(x)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported IR type: %T", v),
			Code:    ErrUnsupportedIRType,
		}}
	}
}

func validateCircuit(c *ir.Composite) []ValidationError {
	var errs []ValidationError
	field := "circuit." + c.Name()

	if c.NInstructions() == 0 {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: "circuit has no instructions",
			Code:    ErrEmptyComposite,
		})
	}
	errs = append(errs, validateVariables(c, field)...)

	for inst := range ir.All(c) {
		if sub := ir.AsComposite(inst); sub != nil && sub.Tag() == TagCall {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("unresolved call to %q", sub.Name()),
				Code:    ErrUnresolvedCall,
			})
		}
	}
	return errs
}

func validateProgram(p *anneal.Program) []ValidationError {
	var errs []ValidationError
	field := "anneal." + p.Name()

	if len(p.Terms()) == 0 {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: "program has no enabled terms",
			Code:    ErrNoTerms,
		})
	}
	errs = append(errs, validateVariables(p.Composite, field)...)
	return errs
}

// validateVariables checks that declared variables are unique and that
// every variable parameter below c is declared on c.
func validateVariables(c *ir.Composite, field string) []ValidationError {
	var errs []ValidationError

	declared := make(map[string]bool)
	for i, name := range c.Variables() {
		if declared[name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.variables[%d]", field, i),
				Message: fmt.Sprintf("duplicate variable: %q", name),
				Code:    ErrDuplicateVariable,
			})
		}
		declared[name] = true
	}

	reported := make(map[string]bool)
	for inst := range ir.All(c) {
		if inst.IsComposite() {
			continue
		}
		for _, p := range inst.Parameters() {
			name, ok := p.(ir.Var)
			if !ok || declared[string(name)] || reported[string(name)] {
				continue
			}
			reported[string(name)] = true
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("%s uses undeclared variable %q", inst.Name(), string(name)),
				Code:    ErrUndeclaredVariable,
			})
		}
	}
	return errs
}

func validateUnit(u *Unit) []ValidationError {
	var errs []ValidationError
	circuits := make(map[string]bool, len(u.Circuits))
	for _, c := range u.Circuits {
		circuits[c.Name()] = true
		errs = append(errs, validateCircuit(c)...)
	}
	for _, p := range u.Programs {
		if circuits[p.Name()] {
			errs = append(errs, ValidationError{
				Field:   "anneal." + p.Name(),
				Message: fmt.Sprintf("name %q is used by both a circuit and an anneal program", p.Name()),
				Code:    ErrDuplicateName,
			})
		}
		errs = append(errs, validateProgram(p)...)
	}
	return errs
}
