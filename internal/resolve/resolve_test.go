package resolve_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fncc/internal/bound"
	"fncc/internal/resolve"
	"fncc/internal/syntax"
)

func mustParse(t *testing.T, src string) *bound.Prog {
	t.Helper()
	p, err := syntax.Parse(src)
	require.NoError(t, err)
	bp, err := resolve.New().ResolveProg(p)
	require.NoError(t, err)
	return bp
}

func TestResolveEntryParamIsFresh(t *testing.T) {
	bp := mustParse(t, "def main(n): n")
	v, ok := bp.Body.(*bound.Var)
	require.True(t, ok)
	assert.Equal(t, bp.Param.Name, v.Name)
}

func TestResolveLetSequentialScope(t *testing.T) {
	bp := mustParse(t, "def main(n): let x = n, y = x + 1 in y")
	let, ok := bp.Body.(*bound.Let)
	require.True(t, ok)
	require.Len(t, let.Bindings, 2)

	yRHS, ok := let.Bindings[1].Expr.(*bound.PrimApp)
	require.True(t, ok)
	xUse, ok := yRHS.Args[0].(*bound.Var)
	require.True(t, ok)
	assert.Equal(t, let.Bindings[0].Var.Name, xUse.Name)
}

func resolveErr(t *testing.T, src string) *resolve.Error {
	t.Helper()
	p, err := syntax.Parse(src)
	require.NoError(t, err)
	_, err = resolve.New().ResolveProg(p)
	require.Error(t, err)
	rerr, ok := err.(*resolve.Error)
	require.True(t, ok, "expected a *resolve.Error, got %T", err)
	return rerr
}

func TestUnboundVariable(t *testing.T) {
	assert.Equal(t, resolve.UnboundVariable, resolveErr(t, "def main(n): m").Kind)
}

func TestDuplicateVariableInLet(t *testing.T) {
	assert.Equal(t, resolve.DuplicateVariable, resolveErr(t, "def main(n): let x = 1, x = 2 in x").Kind)
}

func TestUnboundFunction(t *testing.T) {
	assert.Equal(t, resolve.UnboundFunction, resolveErr(t, "def main(n): ghost(n)").Kind)
}

func TestDuplicateFunctionInFunDefs(t *testing.T) {
	assert.Equal(t, resolve.DuplicateFunction,
		resolveErr(t, "def main(n): def f(x): x and f(x): x in f(n)").Kind)
}

func TestDuplicateParameter(t *testing.T) {
	assert.Equal(t, resolve.DuplicateParameter, resolveErr(t, "def main(n): def f(x, x): x in f(n, n)").Kind)
}

func TestArityMismatch(t *testing.T) {
	rerr := resolveErr(t, "extern helper(a, b)\ndef main(n): helper(n)")
	assert.Equal(t, resolve.ArityMismatch, rerr.Kind)
	assert.Equal(t, 2, rerr.Expected)
	assert.Equal(t, 1, rerr.Found)
}

func TestMutualRecursionResolves(t *testing.T) {
	src := `def main(n):
  def is_even(x): if x == 0: true else: is_odd(x - 1)
  and is_odd(x): if x == 0: false else: is_even(x - 1)
  in is_even(n)`
	bp := mustParse(t, src)
	defs, ok := bp.Body.(*bound.FunDefs)
	require.True(t, ok)
	require.Len(t, defs.Decls, 2)
	assert.NotEqual(t, defs.Decls[0].Name, defs.Decls[1].Name)
}
