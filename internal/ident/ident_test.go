package ident_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fncc/internal/ident"
)

func TestVarNameEqualityIgnoresHint(t *testing.T) {
	var g ident.Gen
	a := g.Fresh("x")
	b := g.Fresh("x")
	assert.False(t, a.Equal(b), "two Fresh calls must never collide even with the same hint")
	assert.True(t, a.Equal(a))
}

func TestVarNameStringFormat(t *testing.T) {
	var g ident.Gen
	v := g.Fresh("n")
	assert.Equal(t, "n%0", v.String())
}

func TestFunNameMangledVsUnmangledNeverEqual(t *testing.T) {
	var g ident.FunGen
	mangled := g.Fresh("helper")
	unmangled := ident.UnmangledFun("helper")
	assert.False(t, mangled.Equal(unmangled))
	assert.False(t, mangled.IsUnmangled())
	assert.True(t, unmangled.IsUnmangled())
}

func TestUnmangledFunNameStringIsBare(t *testing.T) {
	f := ident.UnmangledFun("entry")
	assert.Equal(t, "entry", f.String())
}

func TestMangledFunNameStringIncludesIndex(t *testing.T) {
	var g ident.FunGen
	f := g.Fresh("loop")
	assert.Equal(t, "loop@0", f.String())
	f2 := g.Fresh("loop")
	assert.Equal(t, "loop@1", f2.String())
	assert.False(t, f.Equal(f2))
}

func TestBlockNameStringFormat(t *testing.T) {
	var g ident.BlockGen
	b := g.Fresh("join")
	assert.Equal(t, "join#0", b.String())
}

func TestGeneratorsAreIndependentCounters(t *testing.T) {
	var vg ident.Gen
	var fg ident.FunGen
	v := vg.Fresh("n")
	f := fg.Fresh("n")
	// Both start their own counters at 0; they are disjoint kinds so this
	// is not a collision.
	assert.Equal(t, 0, v.Idx())
	assert.Equal(t, "n%0", v.String())
	assert.Equal(t, "n@0", f.String())
}
