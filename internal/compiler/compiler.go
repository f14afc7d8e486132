// Package compiler wires the pipeline together: internal/syntax parses,
// internal/resolve binds, internal/lower lifts to SSA, internal/codegen
// emits NASM. Compile is the one entry point spec.md §6 documents; it is a
// pure function of its input, with no package-level mutable state, so that
// repeated calls within one process never interfere with each other.
package compiler

import (
	"github.com/pkg/errors"

	"fncc/internal/ast"
	"fncc/internal/bound"
	"fncc/internal/codegen"
	"fncc/internal/lower"
	"fncc/internal/resolve"
	"fncc/internal/ssa"
	"fncc/internal/syntax"
)

// Target names a pipeline stage whose intermediate form can be inspected
// instead of (or alongside) final assembly.
type Target string

const (
	TargetSurface Target = "surface"
	TargetBound   Target = "bound"
	TargetSSA     Target = "ssa"
	TargetASM     Target = "asm"
)

// Result carries every intermediate form a caller might want to print or
// execute, not just the final assembly: the driver's --target flag selects
// among these without re-running the pipeline.
type Result struct {
	Surface *ast.Prog
	Bound   *bound.Prog
	SSA     *ssa.Program
	Asm     string
}

// Compile runs the full pipeline over source and returns every intermediate
// form. It fails on the first syntax or resolution error; lowering and code
// generation do not produce user-facing errors; they panic on an invariant
// violation, which indicates a bug in an earlier stage rather than bad
// input (spec.md §7).
func Compile(source string) (*Result, error) {
	prog, err := syntax.Parse(source)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}

	r := resolve.New()
	bp, err := r.ResolveProg(prog)
	if err != nil {
		return nil, errors.Wrap(err, "resolve")
	}

	lw := lower.New(r)
	sp := lw.LowerProg(bp)

	asm := codegen.Emit(sp)

	return &Result{Surface: prog, Bound: bp, SSA: sp, Asm: asm}, nil
}
