package printer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fncc/internal/lower"
	"fncc/internal/printer"
	"fncc/internal/resolve"
	"fncc/internal/syntax"
)

func TestPrintSurfaceRendersProgramShape(t *testing.T) {
	p, err := syntax.Parse("extern helper(a)\ndef main(n): let x = n in if x > 0: helper(x) else: 0")
	require.NoError(t, err)
	out := printer.PrintSurface(p)
	assert.Contains(t, out, "PROGRAM main(n)")
	assert.Contains(t, out, "EXTERN helper(a)")
	assert.Contains(t, out, "LET")
	assert.Contains(t, out, "IF")
	assert.Contains(t, out, "CALL helper")
}

func TestPrintBoundRendersResolvedNames(t *testing.T) {
	p, err := syntax.Parse("def main(n): let x = n in x + 1")
	require.NoError(t, err)
	bp, err := resolve.New().ResolveProg(p)
	require.NoError(t, err)
	out := printer.PrintBound(bp)
	// The resolver renames the entry point to the reserved unmangled "entry".
	assert.Contains(t, out, "PROGRAM entry")
	assert.Contains(t, out, "LET")
	// bound VarNames render as hint%idx, not bare source identifiers.
	assert.Contains(t, out, "%")
}

func TestPrintSSARendersBlocksAndTerminators(t *testing.T) {
	p, err := syntax.Parse("def main(n): n + 1")
	require.NoError(t, err)
	r := resolve.New()
	bp, err := r.ResolveProg(p)
	require.NoError(t, err)
	sp := lower.New(r).LowerProg(bp)
	out := printer.PrintSSA(sp)
	assert.NotEmpty(t, out)
	assert.Contains(t, out, "main_tail#0(")
	assert.Contains(t, out, "return ")
}
