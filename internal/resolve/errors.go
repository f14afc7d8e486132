package resolve

import (
	"fmt"

	"fncc/internal/ast"
)

// Kind enumerates the six error kinds the resolver can report (spec.md §7).
type Kind int

const (
	UnboundVariable Kind = iota
	DuplicateVariable
	UnboundFunction
	DuplicateFunction
	DuplicateParameter
	ArityMismatch
)

func (k Kind) String() string {
	switch k {
	case UnboundVariable:
		return "unbound variable"
	case DuplicateVariable:
		return "duplicate variable"
	case UnboundFunction:
		return "unbound function"
	case DuplicateFunction:
		return "duplicate function"
	case DuplicateParameter:
		return "duplicate parameter"
	case ArityMismatch:
		return "arity mismatch"
	default:
		return "unknown resolve error"
	}
}

// Error is the resolver's single error type, carrying the offending
// original name string and the source location of the offending occurrence,
// per the taxonomy in spec.md §4.1 and §7.
type Error struct {
	Kind     Kind
	Name     string
	Loc      ast.SrcLoc
	Expected int // Only meaningful when Kind == ArityMismatch.
	Found    int // Only meaningful when Kind == ArityMismatch.
}

func (e *Error) Error() string {
	switch e.Kind {
	case UnboundVariable:
		return fmt.Sprintf("variable %q unbound", e.Name)
	case DuplicateVariable:
		return fmt.Sprintf("%q defined twice in let-expression", e.Name)
	case UnboundFunction:
		return fmt.Sprintf("function %q unbound", e.Name)
	case DuplicateFunction:
		return fmt.Sprintf("function %q declared twice", e.Name)
	case DuplicateParameter:
		return fmt.Sprintf("parameter %q declared twice", e.Name)
	case ArityMismatch:
		return fmt.Sprintf("%q called with %d argument(s), expected %d", e.Name, e.Found, e.Expected)
	default:
		return fmt.Sprintf("resolve error for %q", e.Name)
	}
}

func unboundVariable(name string, loc ast.SrcLoc) error {
	return &Error{Kind: UnboundVariable, Name: name, Loc: loc}
}

func duplicateVariable(name string, loc ast.SrcLoc) error {
	return &Error{Kind: DuplicateVariable, Name: name, Loc: loc}
}

func unboundFunction(name string, loc ast.SrcLoc) error {
	return &Error{Kind: UnboundFunction, Name: name, Loc: loc}
}

func duplicateFunction(name string, loc ast.SrcLoc) error {
	return &Error{Kind: DuplicateFunction, Name: name, Loc: loc}
}

func duplicateParameter(name string, loc ast.SrcLoc) error {
	return &Error{Kind: DuplicateParameter, Name: name, Loc: loc}
}

func arityMismatch(name string, expected, found int, loc ast.SrcLoc) error {
	return &Error{Kind: ArityMismatch, Name: name, Expected: expected, Found: found, Loc: loc}
}
