package ir

import "fmt"

// DWQMIName is the instruction name of every annealing term.
const DWQMIName = "dwqmi"

// DWQMI is a single annealing term: a bias when both qubits are equal, a
// coupler otherwise. It carries exactly one parameter, the weight.
type DWQMI struct {
	q1, q2   int
	weight   Parameter
	disabled bool
}

var _ Instruction = (*DWQMI)(nil)

// NewDWQMI creates a coupler between q1 and q2, or a bias when q1 == q2.
func NewDWQMI(q1, q2 int, weight float64) *DWQMI {
	return &DWQMI{q1: q1, q2: q2, weight: Double(weight)}
}

// NewBias creates a bias term on q.
func NewBias(q int, weight float64) *DWQMI {
	return NewDWQMI(q, q, weight)
}

// NewDWQMIParam creates a term whose weight may be symbolic.
func NewDWQMIParam(q1, q2 int, weight Parameter) *DWQMI {
	if weight == nil {
		weight = Double(0)
	}
	return &DWQMI{q1: q1, q2: q2, weight: weight}
}

func (d *DWQMI) instruction()            {}
func (d *DWQMI) asComposite() *Composite { return nil }

func (d *DWQMI) Name() string            { return DWQMIName }
func (d *DWQMI) Bits() []int             { return []int{d.q1, d.q2} }
func (d *DWQMI) Parameters() []Parameter { return []Parameter{d.weight} }
func (d *DWQMI) IsComposite() bool       { return false }
func (d *DWQMI) IsEnabled() bool         { return !d.disabled }
func (d *DWQMI) Enable()                 { d.disabled = false }
func (d *DWQMI) Disable()                { d.disabled = true }

// Qubits returns the two qubit slots.
func (d *DWQMI) Qubits() (int, int) { return d.q1, d.q2 }

// IsBias reports whether the term is a bias.
func (d *DWQMI) IsBias() bool { return d.q1 == d.q2 }

// Weight returns the weight parameter.
func (d *DWQMI) Weight() Parameter { return d.weight }

// SetWeight replaces the weight parameter.
func (d *DWQMI) SetWeight(p Parameter) { d.weight = p }

// SetBits replaces both qubits. Exactly two bits are required.
func (d *DWQMI) SetBits(bits []int) error {
	if len(bits) != 2 {
		return &ArityError{Name: DWQMIName, Want: 2, Got: len(bits)}
	}
	d.q1, d.q2 = bits[0], bits[1]
	return nil
}

func (d *DWQMI) Clone() Instruction {
	c := *d
	return &c
}

// String renders "q1 q2 w".
func (d *DWQMI) String() string {
	return fmt.Sprintf("%d %d %s", d.q1, d.q2, d.weight.String())
}
