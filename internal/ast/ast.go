// Package ast defines the surface abstract syntax tree produced by the
// parser (internal/syntax) and consumed by the resolver (internal/resolve).
//
// Expr is a closed algebraic sum: every variant implements the unexported
// exprNode method so that no type outside this package can masquerade as an
// Expr. Pattern matching happens through ordinary Go type switches in
// resolve, lower and printer rather than through visitor-pattern dynamic
// dispatch.
package ast

// SrcLoc is a 1-dimensional span of source locations, as produced by the
// parser. Offsets are byte offsets into the source text; neither the core
// nor the driver maps them to line/column ranges.
type SrcLoc struct {
	StartIx int
	EndIx   int // exclusive
}

// Prim enumerates the primitive operators available to Prim expressions.
type Prim int

const (
	Add1 Prim = iota
	Sub1
	Add
	Sub
	Mul
	Not
	And
	Or
	Lt
	Le
	Gt
	Ge
	Eq
	Neq
)

// Arity returns the number of operands Prim p expects.
func (p Prim) Arity() int {
	switch p {
	case Add1, Sub1, Not:
		return 1
	default:
		return 2
	}
}

// String renders p using its surface-syntax spelling.
func (p Prim) String() string {
	switch p {
	case Add1:
		return "add1"
	case Sub1:
		return "sub1"
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Not:
		return "not"
	case And:
		return "and"
	case Or:
		return "or"
	case Lt:
		return "<"
	case Le:
		return "<="
	case Gt:
		return ">"
	case Ge:
		return ">="
	case Eq:
		return "=="
	case Neq:
		return "!="
	default:
		return "<unknown prim>"
	}
}

// Param is a formal parameter: a name and the location of its declaration.
type Param struct {
	Name string
	Loc  SrcLoc
}

// ExtDecl declares an external function. Its parameter names are
// informational only; they do not bind in any body.
type ExtDecl struct {
	Name   string
	Params []Param
	Loc    SrcLoc
}

// Binding is a single `let` binding: a name and its right-hand-side
// expression.
type Binding struct {
	Var  Param
	Expr Expr
}

// FunDecl declares a nested, possibly-recursive function.
type FunDecl struct {
	Name   string
	Params []Param
	Body   Expr
	Loc    SrcLoc
}

// Prog is the top-level surface program: extern declarations, the entry
// point's name and parameter, and its body.
type Prog struct {
	Externs []ExtDecl
	Name    string // Conventionally "main".
	Param   Param
	Body    Expr
	Loc     SrcLoc
}

// Expr is the closed sum of surface expression forms.
type Expr interface {
	Loc() SrcLoc
	exprNode()
}

// Num is an integer literal.
type Num struct {
	Value int64
	L     SrcLoc
}

func (n *Num) Loc() SrcLoc { return n.L }
func (*Num) exprNode()     {}

// Bool is a boolean literal.
type Bool struct {
	Value bool
	L     SrcLoc
}

func (b *Bool) Loc() SrcLoc { return b.L }
func (*Bool) exprNode()     {}

// Var is a variable reference by surface name.
type Var struct {
	Name string
	L    SrcLoc
}

func (v *Var) Loc() SrcLoc { return v.L }
func (*Var) exprNode()     {}

// PrimApp is the application of a primitive operator to its arguments.
type PrimApp struct {
	Op   Prim
	Args []Expr
	L    SrcLoc
}

func (p *PrimApp) Loc() SrcLoc { return p.L }
func (*PrimApp) exprNode()     {}

// Let introduces a list of left-to-right bindings visible in Body.
type Let struct {
	Bindings []Binding
	Body     Expr
	L        SrcLoc
}

func (l *Let) Loc() SrcLoc { return l.L }
func (*Let) exprNode()     {}

// If is a conditional expression.
type If struct {
	Cond Expr
	Thn  Expr
	Els  Expr
	L    SrcLoc
}

func (i *If) Loc() SrcLoc { return i.L }
func (*If) exprNode()     {}

// FunDefs introduces a mutually recursive cluster of nested function
// declarations visible in Body (and in each other).
type FunDefs struct {
	Decls []FunDecl
	Body  Expr
	L     SrcLoc
}

func (f *FunDefs) Loc() SrcLoc { return f.L }
func (*FunDefs) exprNode()     {}

// Call is a direct call to a named function (extern or declared).
type Call struct {
	Fun  string
	Args []Expr
	L    SrcLoc
}

func (c *Call) Loc() SrcLoc { return c.L }
func (*Call) exprNode()     {}
