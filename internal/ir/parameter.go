package ir

import (
	"math"
	"strconv"
)

// Parameter is a sealed union of instruction parameter values.
//
// The marker method prevents types outside this package from satisfying
// the interface. Use a type switch to discriminate:
//
//	switch p := param.(type) {
//	case Int:
//	case Double:
//	case Str:
//	case Complex:
//	case Var:
//	}
type Parameter interface {
	parameter() // unexported marker
	String() string
}

// Int is an integer parameter.
type Int int64

// Double is a real-valued parameter. Rotation angles and annealing weights
// are Doubles.
type Double float64

// Str is a literal string parameter.
type Str string

// Complex is a complex-valued parameter.
type Complex complex128

// Var is a symbolic parameter that refers to a composite variable by name.
// Binding replaces it with a Double.
type Var string

func (Int) parameter()     {}
func (Double) parameter()  {}
func (Str) parameter()     {}
func (Complex) parameter() {}
func (Var) parameter()     {}

func (p Int) String() string     { return strconv.FormatInt(int64(p), 10) }
func (p Double) String() string  { return strconv.FormatFloat(float64(p), 'g', -1, 64) }
func (p Str) String() string     { return string(p) }
func (p Complex) String() string { return strconv.FormatComplex(complex128(p), 'g', -1, 128) }
func (p Var) String() string     { return string(p) }

// ParamEqual reports whether a and b hold the same variant and value.
// An Int and a Double are never equal, even when numerically identical.
func ParamEqual(a, b Parameter) bool {
	switch av := a.(type) {
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Double:
		bv, ok := b.(Double)
		return ok && av == bv
	case Str:
		bv, ok := b.(Str)
		return ok && av == bv
	case Complex:
		bv, ok := b.(Complex)
		return ok && av == bv
	case Var:
		bv, ok := b.(Var)
		return ok && av == bv
	default:
		return a == nil && b == nil
	}
}

// AsFloat returns the numeric value of p when p is an Int or a Double.
func AsFloat(p Parameter) (float64, bool) {
	switch v := p.(type) {
	case Int:
		return float64(v), true
	case Double:
		return float64(v), true
	default:
		return math.NaN(), false
	}
}

// ParamsEqual compares two parameter lists element-wise.
func ParamsEqual(a, b []Parameter) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !ParamEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}
