package harness

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// weightTolerance absorbs float noise from summed couplings.
const weightTolerance = 1e-9

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Job trace for context, may be empty
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s\n", event.Seq, event.Circuit)
		}
	}
	return buf.String()
}

func failure(typ string, expected, actual any, trace []TraceEvent) error {
	return &AssertionError{
		Type:     typ,
		Expected: fmt.Sprint(expected),
		Actual:   fmt.Sprint(actual),
		Trace:    trace,
	}
}

// decomposition returns the result's decomposition or an error when the
// scenario did not produce one.
func decomposition(result *Result, typ string) (*Decomposition, error) {
	if result.Decomposition == nil {
		return nil, failure(typ, "a decomposition", "no circuits were decomposed", nil)
	}
	return result.Decomposition, nil
}

func assertBaseLength(result *Result, a Assertion) error {
	d, err := decomposition(result, a.Type)
	if err != nil {
		return err
	}
	if len(d.Base) != a.Count {
		return failure(a.Type, fmt.Sprintf("%d base instruction(s)", a.Count),
			fmt.Sprintf("%d %v", len(d.Base), d.Base), result.Trace)
	}
	return nil
}

func assertBaseInstructions(result *Result, a Assertion) error {
	d, err := decomposition(result, a.Type)
	if err != nil {
		return err
	}
	if !slices.Equal(d.Base, a.Instructions) {
		return failure(a.Type, a.Instructions, d.Base, result.Trace)
	}
	return nil
}

func assertSubCount(result *Result, a Assertion) error {
	d, err := decomposition(result, a.Type)
	if err != nil {
		return err
	}
	if len(d.Subs) != a.Count {
		return failure(a.Type, fmt.Sprintf("%d sub-circuit(s)", a.Count),
			fmt.Sprintf("%d sub-circuit(s)", len(d.Subs)), result.Trace)
	}
	return nil
}

// assertSubInstructions compares a sub-circuit exactly. An empty
// instructions list asserts an empty sub-circuit.
func assertSubInstructions(result *Result, a Assertion) error {
	d, err := decomposition(result, a.Type)
	if err != nil {
		return err
	}
	sub, ok := d.Sub(a.Circuit)
	if !ok {
		return failure(a.Type, fmt.Sprintf("sub-circuit for %s", a.Circuit), "not found", result.Trace)
	}
	want := a.Instructions
	if want == nil {
		want = []string{}
	}
	if !slices.Equal(sub.Instructions, want) {
		return failure(a.Type, fmt.Sprintf("%s: %v", a.Circuit, want),
			fmt.Sprintf("%s: %v", a.Circuit, sub.Instructions), result.Trace)
	}
	return nil
}

func assertValidates(result *Result, a Assertion) error {
	d, err := decomposition(result, a.Type)
	if err != nil {
		return err
	}
	if d.Valid != a.expected() {
		return failure(a.Type, fmt.Sprintf("valid=%t", a.expected()), fmt.Sprintf("valid=%t", d.Valid), nil)
	}
	return nil
}

// assertExecuted checks the set of circuits the accelerator ran.
// Sub-circuits run concurrently, so order is not compared.
func assertExecuted(result *Result, a Assertion) error {
	want := slices.Sorted(slices.Values(a.Circuits))
	got := slices.Sorted(slices.Values(result.Received))
	if !slices.Equal(got, want) {
		return failure(a.Type, want, got, result.Trace)
	}
	return nil
}

func problemGraph(result *Result, typ string) (*GraphSnapshot, error) {
	if result.Graph == nil {
		return nil, failure(typ, "a problem graph", "no program was converted", nil)
	}
	return result.Graph, nil
}

func assertGraphOrder(result *Result, a Assertion) error {
	g, err := problemGraph(result, a.Type)
	if err != nil {
		return err
	}
	if g.Order != a.Count {
		return failure(a.Type, fmt.Sprintf("%d vertex(es)", a.Count), fmt.Sprintf("%d vertex(es)", g.Order), nil)
	}
	return nil
}

func assertGraphSize(result *Result, a Assertion) error {
	g, err := problemGraph(result, a.Type)
	if err != nil {
		return err
	}
	if g.Size != a.Count {
		return failure(a.Type, fmt.Sprintf("%d edge(s)", a.Count), fmt.Sprintf("%d edge(s)", g.Size), nil)
	}
	return nil
}

// assertEdgeWeight looks the edge up in either orientation.
func assertEdgeWeight(result *Result, a Assertion) error {
	g, err := problemGraph(result, a.Type)
	if err != nil {
		return err
	}
	u, v := min(a.U, a.V), max(a.U, a.V)
	for _, e := range g.Edges {
		if e.U != u || e.V != v {
			continue
		}
		if math.Abs(e.Weight-a.Weight) > weightTolerance {
			return failure(a.Type, fmt.Sprintf("%d-%d weight %g", u, v, a.Weight),
				fmt.Sprintf("%d-%d weight %g", u, v, e.Weight), nil)
		}
		return nil
	}
	return failure(a.Type, fmt.Sprintf("%d-%d weight %g", u, v, a.Weight), "edge not found", nil)
}

func assertEmbeds(result *Result, a Assertion) error {
	found := result.Embedding != nil && result.Embedding.Found
	if found != a.expected() {
		return failure(a.Type, fmt.Sprintf("found=%t", a.expected()), fmt.Sprintf("found=%t", found), nil)
	}
	return nil
}

func assertMaxChainLength(result *Result, a Assertion) error {
	if result.Embedding == nil || !result.Embedding.Found {
		return failure(a.Type, fmt.Sprintf("max chain %d", a.Count), "no embedding found", nil)
	}
	if result.Embedding.MaxChainLength != a.Count {
		return failure(a.Type, fmt.Sprintf("max chain %d", a.Count),
			fmt.Sprintf("max chain %d", result.Embedding.MaxChainLength), nil)
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertBaseLength:
			err = assertBaseLength(result, assertion)
		case AssertBaseInstructions:
			err = assertBaseInstructions(result, assertion)
		case AssertSubCount:
			err = assertSubCount(result, assertion)
		case AssertSubInstructions:
			err = assertSubInstructions(result, assertion)
		case AssertValidates:
			err = assertValidates(result, assertion)
		case AssertExecuted:
			err = assertExecuted(result, assertion)
		case AssertGraphOrder:
			err = assertGraphOrder(result, assertion)
		case AssertGraphSize:
			err = assertGraphSize(result, assertion)
		case AssertEdgeWeight:
			err = assertEdgeWeight(result, assertion)
		case AssertEmbeds:
			err = assertEmbeds(result, assertion)
		case AssertMaxChainLength:
			err = assertMaxChainLength(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
