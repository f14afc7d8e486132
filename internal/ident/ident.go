// Package ident defines the three disjoint identifier kinds shared by every
// stage of the compiler: VarName, FunName and BlockName. Each kind pairs a
// monotonically increasing index with a textual hint used only for display;
// the index is what equality and hashing are keyed on.
package ident

import "fmt"

// VarName identifies a local variable. It is always "mangled": two VarNames
// compare equal iff their indices match, regardless of hint.
type VarName struct {
	idx  int
	hint string
}

// Hint returns the display hint associated with v. It carries no semantic
// weight; only Idx participates in equality.
func (v VarName) Hint() string { return v.hint }

// Idx returns the unique index assigned to v by its generator.
func (v VarName) Idx() int { return v.idx }

// String renders v in the "hint%idx" display form.
func (v VarName) String() string { return fmt.Sprintf("%s%%%d", v.hint, v.idx) }

// Equal reports whether v and other denote the same variable.
func (v VarName) Equal(other VarName) bool { return v.idx == other.idx }

// FunKind distinguishes mangled from unmangled function names.
type FunKind int

const (
	// Mangled function names are produced by the FunName generator during
	// lambda-lifting; they carry an index.
	Mangled FunKind = iota
	// Unmangled function names are bare strings reserved for the program
	// entry point and for declared externs.
	Unmangled
)

// FunName identifies a function. It is either Unmangled (bare string,
// reserved for the entry point and externs) or Mangled (index + hint).
// Equality uses the whole tag: a Mangled and an Unmangled FunName with the
// same hint are never equal.
type FunName struct {
	kind FunKind
	idx  int
	hint string
}

// UnmangledFun constructs an Unmangled FunName from a bare link-time symbol.
func UnmangledFun(hint string) FunName {
	return FunName{kind: Unmangled, hint: hint}
}

// Hint returns the display hint associated with f.
func (f FunName) Hint() string { return f.hint }

// IsUnmangled reports whether f is the Unmangled variant.
func (f FunName) IsUnmangled() bool { return f.kind == Unmangled }

// String renders f as "hint@idx" when mangled, or bare "hint" when unmangled.
func (f FunName) String() string {
	if f.kind == Unmangled {
		return f.hint
	}
	return fmt.Sprintf("%s@%d", f.hint, f.idx)
}

// Equal reports whether f and other denote the same function.
func (f FunName) Equal(other FunName) bool {
	if f.kind != other.kind {
		return false
	}
	if f.kind == Unmangled {
		return f.hint == other.hint
	}
	return f.idx == other.idx
}

// BlockName identifies a basic block label. Always mangled.
type BlockName struct {
	idx  int
	hint string
}

// Hint returns the display hint associated with b.
func (b BlockName) Hint() string { return b.hint }

// String renders b in the "hint#idx" display form.
func (b BlockName) String() string { return fmt.Sprintf("%s#%d", b.hint, b.idx) }

// Equal reports whether b and other denote the same block.
func (b BlockName) Equal(other BlockName) bool { return b.idx == other.idx }

// Gen is a private, single-compilation counter of VarNames. Indices are
// never reused within a compile; a fresh Gen should be created per Compile
// call so that no state leaks across compilations (see spec.md §5,
// "Lifecycle").
type Gen struct {
	next int
}

// Fresh allocates and returns a new VarName with the given display hint.
func (g *Gen) Fresh(hint string) VarName {
	v := VarName{idx: g.next, hint: hint}
	g.next++
	return v
}

// FunGen is a private, single-compilation counter of mangled FunNames.
type FunGen struct {
	next int
}

// Fresh allocates and returns a new Mangled FunName with the given hint.
func (g *FunGen) Fresh(hint string) FunName {
	f := FunName{kind: Mangled, idx: g.next, hint: hint}
	g.next++
	return f
}

// BlockGen is a private, single-compilation counter of BlockNames.
type BlockGen struct {
	next int
}

// Fresh allocates and returns a new BlockName with the given hint.
func (g *BlockGen) Fresh(hint string) BlockName {
	b := BlockName{idx: g.next, hint: hint}
	g.next++
	return b
}
