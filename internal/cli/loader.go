package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/xacc/internal/compiler"
)

// LoadMode selects whether LoadSpecs stops at the first compile error.
type LoadMode int

const (
	LoadModeFailFast LoadMode = iota
	LoadModeCollectAll
)

// LoadResult is a compiled specs directory.
type LoadResult struct {
	Unit      *compiler.Unit
	CUEValue  cue.Value
	FileCount int
}

// LoadError is a coded failure from loading or compiling specs. Pos is
// set when the failure points into a CUE file.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	msg := e.Code + ": " + e.Message
	if !e.Pos.IsValid() {
		return msg
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), msg)
}

func loadFailure(code, format string, args ...any) []error {
	return []error{&LoadError{Code: code, Message: fmt.Sprintf(format, args...)}}
}

// LoadSpecs builds the CUE package in dir and compiles its circuit and
// anneal blocks.
//
// A nil result means dir never got as far as compiling: it is missing,
// empty of .cue files, or fails to build. Otherwise the result is usable
// and the errors are per-block compile failures.
func LoadSpecs(dir string, mode LoadMode) (*LoadResult, []error) {
	switch info, err := os.Stat(dir); {
	case errors.Is(err, fs.ErrNotExist):
		return nil, loadFailure(ErrCodeNotFound, "specs directory not found: %s", dir)
	case err != nil:
		return nil, loadFailure(ErrCodeNotFound, "error accessing specs directory: %v", err)
	case !info.IsDir():
		return nil, loadFailure(ErrCodeNotFound, "not a directory: %s", dir)
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, loadFailure(ErrCodeScanError, "error scanning directory: %v", err)
	}
	if len(files) == 0 {
		return nil, loadFailure(ErrCodeNoFiles, "no CUE files found in %s", dir)
	}

	value, errs := buildPackage(dir)
	if errs != nil {
		return nil, errs
	}

	unit, compileErrs := compiler.CompileUnit(value, mode == LoadModeFailFast)
	for _, err := range compileErrs {
		errs = append(errs, convertCompileError(err))
	}
	if len(errs) == 0 && len(unit.Circuits)+len(unit.Programs) == 0 {
		errs = loadFailure(ErrCodeGeneric, "no circuits or anneal programs found in specs")
	}
	return &LoadResult{Unit: unit, CUEValue: value, FileCount: len(files)}, errs
}

func buildPackage(dir string) (cue.Value, []error) {
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return cue.Value{}, loadFailure(ErrCodeLoadFailed, "no CUE instances loaded")
	}
	if err := instances[0].Err; err != nil {
		return cue.Value{}, loadFailure(ErrCodeLoadFailed, "loading CUE files: %v", err)
	}
	value := cuecontext.New().BuildInstance(instances[0])
	if err := value.Err(); err != nil {
		return cue.Value{}, loadFailure(ErrCodeBuildFailed, "building CUE value: %v", err)
	}
	return value, nil
}

// FindCUEFiles lists every .cue file under dir, recursively.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && strings.HasSuffix(path, ".cue") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError assigns a code to a CompileUnit failure, keeping
// the CUE position when the compiler recorded one.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{Code: MapFieldToErrorCode(compileErr.Field), Message: compileErr.Message, Pos: compileErr.Pos}
	}
	code := ErrCodeGeneric
	if errors.Is(err, compiler.ErrCallCycle) {
		code = ErrCodeCallCycle
	} else if errors.Is(err, compiler.ErrUnknownCall) {
		code = ErrCodeUnknownCall
	}
	return &LoadError{Code: code, Message: err.Error()}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeDatabase    = "E008" // Database open/read/write error
	ErrCodeUsage       = "E009" // Bad flag or argument value

	// Circuit compile errors
	ErrCodeInstructions = "E201" // Malformed instruction list or entry
	ErrCodeGate         = "E202" // Unknown gate or wrong arity
	ErrCodeBits         = "E203" // Bad qubit indices
	ErrCodeParams       = "E204" // Bad gate parameters
	ErrCodeVariables    = "E205" // Bad variable declarations
	ErrCodeCallCycle    = "E206" // Recursive circuit calls
	ErrCodeUnknownCall  = "E207" // Call to an unknown circuit

	// Anneal compile errors
	ErrCodeTerms = "E210" // Malformed terms or undeclared weight
	ErrCodeType  = "E211" // Unknown program type
	ErrCodeRBM   = "E212" // Bad rbm block

	// Runtime errors
	ErrCodeDecomposition = "E301" // Decomposition does not reproduce inputs
	ErrCodeEmbedding     = "E302" // No embedding found
	ErrCodeExecution     = "E303" // Accelerator failure
	ErrCodeScenario      = "E304" // Conformance scenario failed
)

// MapFieldToErrorCode returns the code for a CompileError's field.
func MapFieldToErrorCode(field string) string {
	if field == "rbm" || strings.HasPrefix(field, "rbm.") {
		return ErrCodeRBM
	}
	if code, ok := fieldCodes[field]; ok {
		return code
	}
	return ErrCodeGeneric
}

var fieldCodes = map[string]string{
	"instructions": ErrCodeInstructions,
	"composite":    ErrCodeInstructions,
	"gate":         ErrCodeGate,
	"bits":         ErrCodeBits,
	"params":       ErrCodeParams,
	"variables":    ErrCodeVariables,
	"terms":        ErrCodeTerms,
	"type":         ErrCodeType,
}
