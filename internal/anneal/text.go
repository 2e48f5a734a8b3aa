package anneal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/xacc/internal/ir"
)

// ParseError reports a malformed term in the text form.
type ParseError struct {
	Line    int
	Term    string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %q: %s", e.Line, e.Term, e.Message)
}

// ErrVariableName is returned for a variable name the text form cannot
// carry: it must be an identifier that does not also parse as a number
// ("inf" and "nan" do).
var ErrVariableName = errors.New("variable name cannot be written as text")

const (
	varsKeyword    = "vars"
	disabledMarker = "!"
)

// Persist writes the program in its text form. A "vars ...;" line
// declares the variables in order, then each term follows as "q1 q2 w;".
// Disabled terms, including those under a disabled composite, are written
// with a leading "!".
func (p *Program) Persist(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if vars := p.Variables(); len(vars) > 0 {
		for _, v := range vars {
			if !isVariableName(v) {
				return fmt.Errorf("persist %s: %q: %w", p.Name(), v, ErrVariableName)
			}
		}
		fmt.Fprintf(bw, "%s %s;\n", varsKeyword, strings.Join(vars, " "))
	}
	if err := writeTerms(bw, p.Composite, true); err != nil {
		return fmt.Errorf("persist %s: %w", p.Name(), err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("persist %s: %w", p.Name(), err)
	}
	return nil
}

func writeTerms(w io.Writer, c *ir.Composite, enabled bool) error {
	for _, child := range c.Instructions() {
		on := enabled && child.IsEnabled()
		if sub := ir.AsComposite(child); sub != nil {
			if err := writeTerms(w, sub, on); err != nil {
				return err
			}
			continue
		}
		term, ok := child.(*ir.DWQMI)
		if !ok {
			return fmt.Errorf("%w: found %q", ErrNotAnnealing, child.Name())
		}
		if v, isVar := term.Weight().(ir.Var); isVar && !isVariableName(string(v)) {
			return fmt.Errorf("%q: %w", string(v), ErrVariableName)
		}
		prefix := ""
		if !on {
			prefix = disabledMarker
		}
		fmt.Fprintf(w, "%s%s;\n", prefix, term.String())
	}
	return nil
}

// Load reads the text form written by Persist. Terms are separated by ';'
// or newlines; "#" and "//" start comments. A "vars" line must come before
// the first term. Without one, weights that are not numbers declare
// variables in order of first use.
func Load(r io.Reader, name string) (*Program, error) {
	l := &textLoader{p: NewProgram(name)}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		l.line++
		text := sc.Text()
		if i := strings.Index(text, "#"); i >= 0 {
			text = text[:i]
		}
		if i := strings.Index(text, "//"); i >= 0 {
			text = text[:i]
		}
		for _, term := range strings.Split(text, ";") {
			term = strings.TrimSpace(term)
			if term == "" {
				continue
			}
			if err := l.entry(term); err != nil {
				return nil, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return l.p, nil
}

type textLoader struct {
	p        *Program
	line     int
	declared bool
}

func (l *textLoader) fail(term, format string, args ...any) error {
	return &ParseError{Line: l.line, Term: term, Message: fmt.Sprintf(format, args...)}
}

func (l *textLoader) entry(term string) error {
	fields := strings.Fields(term)
	if fields[0] == varsKeyword {
		return l.declare(term, fields[1:])
	}

	disabled := strings.HasPrefix(fields[0], disabledMarker)
	if disabled {
		fields[0] = strings.TrimPrefix(fields[0], disabledMarker)
	}
	if len(fields) != 3 {
		return l.fail(term, "expected 3 fields, got %d", len(fields))
	}
	q1, err := strconv.Atoi(fields[0])
	if err != nil || q1 < 0 {
		return l.fail(term, "invalid qubit %s", fields[0])
	}
	q2, err := strconv.Atoi(fields[1])
	if err != nil || q2 < 0 {
		return l.fail(term, "invalid qubit %s", fields[1])
	}

	var weight ir.Parameter
	if w, err := strconv.ParseFloat(fields[2], 64); err == nil {
		weight = ir.Double(w)
	} else {
		name := fields[2]
		switch {
		case !isIdentifier(name):
			return l.fail(term, "invalid weight %s", name)
		case slices.Contains(l.p.Variables(), name):
		case l.declared:
			return l.fail(term, "undeclared variable %s", name)
		default:
			l.p.AddVariable(name)
		}
		weight = ir.Var(name)
	}

	d := ir.NewDWQMIParam(q1, q2, weight)
	if disabled {
		d.Disable()
	}
	return l.p.AddInstruction(d)
}

func (l *textLoader) declare(term string, names []string) error {
	if l.p.NInstructions() > 0 {
		return l.fail(term, "variables must be declared before the first term")
	}
	for _, name := range names {
		if !isVariableName(name) {
			return l.fail(term, "invalid variable name %s", name)
		}
	}
	l.p.AddVariables(names...)
	l.declared = true
	return nil
}

// isVariableName reports whether s reads back from the text form as a
// variable rather than a number.
func isVariableName(s string) bool {
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return false
	}
	return isIdentifier(s)
}

func isIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z':
		case i > 0 && '0' <= r && r <= '9':
		default:
			return false
		}
	}
	return s != ""
}
