package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Node kinds in the canonical encoding.
const (
	kindGate      = "gate"
	kindDWQMI     = "dwqmi"
	kindComposite = "composite"
)

// MarshalComposite returns the canonical JSON encoding of c.
func MarshalComposite(c *Composite) ([]byte, error) {
	obj, err := encodeInstruction(c)
	if err != nil {
		return nil, err
	}
	return MarshalCanonical(obj)
}

// UnmarshalComposite decodes bytes produced by MarshalComposite.
// Expanders are not part of the encoding and are not restored.
func UnmarshalComposite(data []byte) (*Composite, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode composite: %w", err)
	}
	inst, err := decodeInstruction(raw)
	if err != nil {
		return nil, err
	}
	c := AsComposite(inst)
	if c == nil {
		return nil, fmt.Errorf("decode composite: top-level node is %q", inst.Name())
	}
	return c, nil
}

func encodeInstruction(inst Instruction) (map[string]any, error) {
	obj := map[string]any{
		"name":    inst.Name(),
		"enabled": inst.IsEnabled(),
	}
	if c := AsComposite(inst); c != nil {
		obj["kind"] = kindComposite
		obj["tag"] = c.tag
		vars := make([]any, len(c.variables))
		for i, v := range c.variables {
			vars[i] = v
		}
		obj["variables"] = vars
		children := make([]any, len(c.children))
		for i, child := range c.children {
			enc, err := encodeInstruction(child)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", c.name, i, err)
			}
			children[i] = enc
		}
		obj["instructions"] = children
		return obj, nil
	}

	switch inst.(type) {
	case *Gate:
		obj["kind"] = kindGate
	case *DWQMI:
		obj["kind"] = kindDWQMI
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownInstruction, inst)
	}
	bits := inst.Bits()
	encBits := make([]any, len(bits))
	for i, b := range bits {
		encBits[i] = b
	}
	obj["bits"] = encBits
	params := inst.Parameters()
	encParams := make([]any, len(params))
	for i, p := range params {
		encParams[i] = encodeParameter(p)
	}
	obj["params"] = encParams
	return obj, nil
}

func encodeParameter(p Parameter) map[string]any {
	switch v := p.(type) {
	case Int:
		return map[string]any{"type": "int", "value": int64(v)}
	case Double:
		return map[string]any{"type": "double", "value": float64(v)}
	case Str:
		return map[string]any{"type": "string", "value": string(v)}
	case Complex:
		return map[string]any{"type": "complex", "re": real(v), "im": imag(v)}
	case Var:
		return map[string]any{"type": "var", "value": string(v)}
	default:
		return map[string]any{"type": "unknown"}
	}
}

func decodeInstruction(raw map[string]any) (Instruction, error) {
	name, _ := raw["name"].(string)
	enabled, _ := raw["enabled"].(bool)
	kind, _ := raw["kind"].(string)

	var inst Instruction
	switch kind {
	case kindComposite:
		c := NewComposite(name)
		c.tag, _ = raw["tag"].(string)
		vars, _ := raw["variables"].([]any)
		for _, v := range vars {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("composite %q: variable is %T, want string", name, v)
			}
			c.variables = append(c.variables, s)
		}
		children, _ := raw["instructions"].([]any)
		for i, child := range children {
			m, ok := child.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("composite %q: instruction %d is %T", name, i, child)
			}
			dec, err := decodeInstruction(m)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", name, i, err)
			}
			c.children = append(c.children, dec)
		}
		inst = c

	case kindGate, kindDWQMI:
		bits, err := decodeBits(raw["bits"])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		rawParams, _ := raw["params"].([]any)
		params := make([]Parameter, len(rawParams))
		for i, rp := range rawParams {
			m, ok := rp.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s: param %d is %T", name, i, rp)
			}
			p, err := decodeParameter(m)
			if err != nil {
				return nil, fmt.Errorf("%s: param %d: %w", name, i, err)
			}
			params[i] = p
		}
		if kind == kindGate {
			inst = NewGate(name, bits, params...)
			break
		}
		if len(bits) != 2 || len(params) != 1 {
			return nil, fmt.Errorf("%s: %w", name, ErrParameterCount)
		}
		inst = NewDWQMIParam(bits[0], bits[1], params[0])

	default:
		return nil, fmt.Errorf("%w: kind %q", ErrUnknownInstruction, kind)
	}

	if !enabled {
		inst.Disable()
	}
	return inst, nil
}

func decodeBits(v any) ([]int, error) {
	raw, _ := v.([]any)
	bits := make([]int, len(raw))
	for i, b := range raw {
		n, ok := b.(json.Number)
		if !ok {
			return nil, fmt.Errorf("bit %d is %T", i, b)
		}
		q, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("bit %d: %w", i, err)
		}
		bits[i] = int(q)
	}
	return bits, nil
}

func decodeParameter(m map[string]any) (Parameter, error) {
	typ, _ := m["type"].(string)
	switch typ {
	case "int":
		n, ok := m["value"].(json.Number)
		if !ok {
			return nil, fmt.Errorf("int value is %T", m["value"])
		}
		v, err := n.Int64()
		if err != nil {
			return nil, err
		}
		return Int(v), nil
	case "double":
		v, err := decodeFloat(m["value"])
		if err != nil {
			return nil, err
		}
		return Double(v), nil
	case "string":
		s, _ := m["value"].(string)
		return Str(s), nil
	case "var":
		s, _ := m["value"].(string)
		return Var(s), nil
	case "complex":
		re, err := decodeFloat(m["re"])
		if err != nil {
			return nil, err
		}
		im, err := decodeFloat(m["im"])
		if err != nil {
			return nil, err
		}
		return Complex(complex(re, im)), nil
	default:
		return nil, fmt.Errorf("unknown parameter type %q", typ)
	}
}

func decodeFloat(v any) (float64, error) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("number is %T", v)
	}
	return n.Float64()
}
