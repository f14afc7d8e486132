package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fncc/internal/compiler"
)

func TestCompileProducesAllStages(t *testing.T) {
	res, err := compiler.Compile("def main(n): n + 1")
	require.NoError(t, err)
	assert.NotNil(t, res.Surface)
	assert.NotNil(t, res.Bound)
	assert.NotNil(t, res.SSA)
	assert.Contains(t, res.Asm, "global entry")
}

func TestCompileSurfacesSyntaxErrors(t *testing.T) {
	_, err := compiler.Compile("def main(n) n")
	assert.Error(t, err)
}

func TestCompileSurfacesResolveErrors(t *testing.T) {
	_, err := compiler.Compile("def main(n): m")
	assert.Error(t, err)
}

func TestCompileWithExterns(t *testing.T) {
	res, err := compiler.Compile("extern print(x)\ndef main(n): print(n)")
	require.NoError(t, err)
	require.Len(t, res.SSA.Externs, 1)
	assert.Contains(t, res.Asm, "extern print")
	assert.Contains(t, res.Asm, "call print")
}

func TestCompileIsPureAcrossRepeatedCalls(t *testing.T) {
	r1, err := compiler.Compile("def main(n): n + 1")
	require.NoError(t, err)
	r2, err := compiler.Compile("def main(n): n + 1")
	require.NoError(t, err)
	assert.Equal(t, r1.Asm, r2.Asm, "identical input must compile to identical output regardless of call order")
}
