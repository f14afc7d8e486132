// Package bound defines the bound abstract syntax tree: structurally
// identical to internal/ast, except that every variable occurrence carries
// an ident.VarName and every function name carries an ident.FunName.
//
// Invariant (spec.md §3): in a bound program, every variable-occurrence
// VarName has a unique binding site reachable by lexical scope, every
// call's FunName is bound by either an extern, the entry, or an enclosing
// function-definition block, and every call's arity matches its
// declaration. internal/resolve is the only producer of bound.Prog values;
// internal/lower, internal/interp and internal/printer consume them.
package bound

import (
	"fncc/internal/ast"
	"fncc/internal/ident"
)

// Param pairs a resolved VarName with the source location of its surface
// declaration.
type Param struct {
	Name ident.VarName
	Loc  ast.SrcLoc
}

// ExtDecl declares an external function, now with a resolved FunName and
// resolved (but unbound-in-body) formal parameters.
type ExtDecl struct {
	Name   ident.FunName
	Params []Param
	Loc    ast.SrcLoc
}

// Binding is a single resolved `let` binding.
type Binding struct {
	Var  Param
	Expr Expr
}

// FunDecl is a resolved nested function declaration.
type FunDecl struct {
	Name   ident.FunName
	Params []Param
	Body   Expr
	Loc    ast.SrcLoc
}

// Prog is the resolved top-level program.
type Prog struct {
	Externs []ExtDecl
	Name    ident.FunName // Always the reserved unmangled "entry".
	Param   Param
	Body    Expr
	Loc     ast.SrcLoc
}

// Expr is the closed sum of bound expression forms, mirroring internal/ast.
type Expr interface {
	Loc() ast.SrcLoc
	exprNode()
}

type Num struct {
	Value int64
	L     ast.SrcLoc
}

func (n *Num) Loc() ast.SrcLoc { return n.L }
func (*Num) exprNode()         {}

type Bool struct {
	Value bool
	L     ast.SrcLoc
}

func (b *Bool) Loc() ast.SrcLoc { return b.L }
func (*Bool) exprNode()         {}

// Var is a variable occurrence, now carrying its resolved VarName.
type Var struct {
	Name ident.VarName
	L    ast.SrcLoc
}

func (v *Var) Loc() ast.SrcLoc { return v.L }
func (*Var) exprNode()         {}

type PrimApp struct {
	Op   ast.Prim
	Args []Expr
	L    ast.SrcLoc
}

func (p *PrimApp) Loc() ast.SrcLoc { return p.L }
func (*PrimApp) exprNode()         {}

type Let struct {
	Bindings []Binding
	Body     Expr
	L        ast.SrcLoc
}

func (l *Let) Loc() ast.SrcLoc { return l.L }
func (*Let) exprNode()         {}

type If struct {
	Cond Expr
	Thn  Expr
	Els  Expr
	L    ast.SrcLoc
}

func (i *If) Loc() ast.SrcLoc { return i.L }
func (*If) exprNode()         {}

type FunDefs struct {
	Decls []FunDecl
	Body  Expr
	L     ast.SrcLoc
}

func (f *FunDefs) Loc() ast.SrcLoc { return f.L }
func (*FunDefs) exprNode()         {}

// Call is a direct call, now carrying the resolved target FunName.
type Call struct {
	Fun  ident.FunName
	Args []Expr
	L    ast.SrcLoc
}

func (c *Call) Loc() ast.SrcLoc { return c.L }
func (*Call) exprNode()         {}
