package compiler

import (
	"errors"
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError reports a malformed circuit or anneal block. Field names the
// offending key ("gate", "bits", "terms", "rbm.nv", ...) and selects the
// CLI error code. Block is "circuit <name>" or "anneal <name>" once the
// error has left the block's compiler.
type CompileError struct {
	Block   string
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	var b strings.Builder
	if e.Pos.IsValid() {
		fmt.Fprintf(&b, "%s:%d:%d: ", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column())
	}
	if e.Block != "" {
		b.WriteString(e.Block)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "%s: %s", e.Field, e.Message)
	return b.String()
}

// inBlock attributes err to the named block. CompileErrors are annotated
// in place; anything else is wrapped.
func inBlock(err error, kind, name string) error {
	block := kind + " " + name
	var ce *CompileError
	if errors.As(err, &ce) {
		if ce.Block == "" {
			ce.Block = block
		}
		return err
	}
	return fmt.Errorf("%s: %w", block, err)
}

// formatCUEError turns the first CUE error into a positioned CompileError.
// Errors without a position are returned unchanged.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return err
	}
	first := list[0]
	positions := cueerrors.Positions(first)
	if len(positions) == 0 {
		return err
	}
	return &CompileError{Field: "cue", Message: first.Error(), Pos: positions[0]}
}
