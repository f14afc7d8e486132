package codegen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fncc/internal/codegen"
	"fncc/internal/lower"
	"fncc/internal/resolve"
	"fncc/internal/ssa"
	"fncc/internal/syntax"
)

func mustEmit(t *testing.T, src string) string {
	t.Helper()
	p, err := syntax.Parse(src)
	require.NoError(t, err)
	r := resolve.New()
	bp, err := r.ResolveProg(p)
	require.NoError(t, err)
	sp := lower.New(r).LowerProg(bp)
	return codegen.Emit(sp)
}

func TestEmitIncludesEntryLabelAndFrame(t *testing.T) {
	asm := mustEmit(t, "def main(n): n + 1")
	assert.Contains(t, asm, "global entry")
	assert.Contains(t, asm, "entry:")
	assert.Contains(t, asm, "sub rsp")
	assert.Contains(t, asm, "add rsp")
	assert.Contains(t, asm, "ret")
}

func TestEmitMinimalProgramStillReservesParamSlot(t *testing.T) {
	// main's own parameter always occupies at least one slot, so even the
	// smallest possible program reserves a (small) frame.
	asm := mustEmit(t, "def main(n): n")
	assert.Contains(t, asm, "sub rsp, 8")
}

func TestEmitDeclaresExterns(t *testing.T) {
	asm := mustEmit(t, "extern helper(a)\ndef main(n): helper(n)")
	assert.Contains(t, asm, "extern helper")
	assert.Contains(t, asm, "call helper")
}

func TestEmitArithmeticUsesScratchRegisters(t *testing.T) {
	asm := mustEmit(t, "def main(n): n * 2")
	assert.Contains(t, asm, "imul rax, r10")
}

func TestEmitComparisonUsesSetcc(t *testing.T) {
	asm := mustEmit(t, "def main(n): n < 10")
	assert.Contains(t, asm, "setl al")
}

func TestEmitConditionalBranchUsesJcc(t *testing.T) {
	asm := mustEmit(t, "def main(n): if n > 0: 1 else: 0")
	assert.Contains(t, asm, "cmp rax, 0")
	assert.Contains(t, asm, "jne ")
	assert.Contains(t, asm, "jmp ")
}

func TestEmitPanicsOnTooManyCallArguments(t *testing.T) {
	src := "extern sink(a, b, c, d, e, f, g)\ndef main(n): sink(n, n, n, n, n, n, n)"
	p, err := syntax.Parse(src)
	require.NoError(t, err)
	r := resolve.New()
	bp, err := r.ResolveProg(p)
	require.NoError(t, err)
	sp := lower.New(r).LowerProg(bp)
	assert.Panics(t, func() { codegen.Emit(sp) })
}

func TestEmitEmptyProgramDoesNotPanic(t *testing.T) {
	prog := &ssa.Program{}
	assert.NotPanics(t, func() { codegen.Emit(prog) }, "an empty program should emit without panicking")
}
