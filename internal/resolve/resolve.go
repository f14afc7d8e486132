// Package resolve implements binding analysis (spec.md §4.1): it walks the
// surface program with lexical scoping and produces the bound program,
// failing with an *Error the first time a scoping rule is violated.
//
// Two lexically scoped mappings are threaded through the walk: string ->
// VarName for variables, and string -> (FunName, arity) for functions. Both
// are backed by github.com/benbjohnson/immutable's persistent Map, so that
// extending the scope for a sub-expression never mutates the caller's view
// of it — scope restoration on return from a subexpression is automatic,
// exactly as spec.md §4.1 asks for.
package resolve

import (
	"github.com/benbjohnson/immutable"
	"github.com/pkg/errors"

	"fncc/internal/ast"
	"fncc/internal/bound"
	"fncc/internal/ident"
)

// envFun records a declared function's bound name and its declared arity,
// used to validate call sites.
type envFun struct {
	name  ident.FunName
	arity int
}

// env is the resolver's persistent lexical scope.
type env struct {
	vars  *immutable.Map
	funcs *immutable.Map
}

func newEnv() env {
	return env{vars: immutable.NewMap(nil), funcs: immutable.NewMap(nil)}
}

func (e env) withVar(name string, v ident.VarName) env {
	return env{vars: e.vars.Set(name, v), funcs: e.funcs}
}

func (e env) withFunc(name string, f envFun) env {
	return env{vars: e.vars, funcs: e.funcs.Set(name, f)}
}

func (e env) lookupVar(name string) (ident.VarName, bool) {
	v, ok := e.vars.Get(name)
	if !ok {
		return ident.VarName{}, false
	}
	return v.(ident.VarName), true
}

func (e env) lookupFunc(name string) (envFun, bool) {
	v, ok := e.funcs.Get(name)
	if !ok {
		return envFun{}, false
	}
	return v.(envFun), true
}

// Resolver owns the VarName and FunName generators for a single
// compilation. The BlockName generator belongs to the lowerer, which
// consumes a Resolver's counters to keep all three identifier spaces
// disjoint and monotonic across the whole compile (spec.md §3, "Lifecycle").
type Resolver struct {
	Vars ident.Gen
	Funs ident.FunGen
}

// New returns a Resolver with fresh, zeroed identifier generators.
func New() *Resolver {
	return &Resolver{}
}

// ResolveProg resolves a surface program into a bound program, or returns
// the first *Error encountered.
func (r *Resolver) ResolveProg(p *ast.Prog) (*bound.Prog, error) {
	e := newEnv()

	// The entry function is reserved under the unmangled name "entry" with
	// arity 1, and registered under the program's surface name so that a
	// recursive call to the program's own name resolves.
	entryName := ident.UnmangledFun("entry")
	e = e.withFunc(p.Name, envFun{name: entryName, arity: 1})

	externs := make([]bound.ExtDecl, 0, len(p.Externs))
	for _, decl := range p.Externs {
		if _, ok := e.lookupFunc(decl.Name); ok {
			return nil, duplicateFunction(decl.Name, decl.Loc)
		}
		name := ident.UnmangledFun(decl.Name)
		// Extern parameters are resolved against a throwaway scope: they are
		// informational only and never bind in a body.
		_, params, err := r.resolveParams(decl.Params, newEnv())
		if err != nil {
			return nil, err
		}
		e = e.withFunc(decl.Name, envFun{name: name, arity: len(params)})
		externs = append(externs, bound.ExtDecl{Name: name, Params: params, Loc: decl.Loc})
	}

	paramVar := r.Vars.Fresh(p.Param.Name)
	e = e.withVar(p.Param.Name, paramVar)

	body, err := r.resolveExpr(p.Body, e)
	if err != nil {
		return nil, err
	}

	return &bound.Prog{
		Externs: externs,
		Name:    entryName,
		Param:   bound.Param{Name: paramVar, Loc: p.Param.Loc},
		Body:    body,
		Loc:     p.Loc,
	}, nil
}

// resolveParams checks params for duplicates, allocates a fresh VarName for
// each, and returns the scope extended with them alongside the resolved
// parameter list. Callers that don't want the parameters to leak into a
// body's scope (externs) simply discard the returned env.
func (r *Resolver) resolveParams(params []ast.Param, e env) (env, []bound.Param, error) {
	seen := make(map[string]bool, len(params))
	for _, p := range params {
		if seen[p.Name] {
			return e, nil, duplicateParameter(p.Name, p.Loc)
		}
		seen[p.Name] = true
	}

	out := make([]bound.Param, len(params))
	for i, p := range params {
		v := r.Vars.Fresh(p.Name)
		e = e.withVar(p.Name, v)
		out[i] = bound.Param{Name: v, Loc: p.Loc}
	}
	return e, out, nil
}

func (r *Resolver) resolveExpr(expr ast.Expr, e env) (bound.Expr, error) {
	switch n := expr.(type) {
	case *ast.Num:
		return &bound.Num{Value: n.Value, L: n.L}, nil

	case *ast.Bool:
		return &bound.Bool{Value: n.Value, L: n.L}, nil

	case *ast.Var:
		v, ok := e.lookupVar(n.Name)
		if !ok {
			return nil, unboundVariable(n.Name, n.L)
		}
		return &bound.Var{Name: v, L: n.L}, nil

	case *ast.PrimApp:
		args, err := r.resolveExprs(n.Args, e)
		if err != nil {
			return nil, err
		}
		return &bound.PrimApp{Op: n.Op, Args: args, L: n.L}, nil

	case *ast.Let:
		seen := make(map[string]bool, len(n.Bindings))
		for _, b := range n.Bindings {
			if seen[b.Var.Name] {
				return nil, duplicateVariable(b.Var.Name, b.Var.Loc)
			}
			seen[b.Var.Name] = true
		}

		// Left to right over the remaining bindings and the body: each RHS
		// sees the bindings to its left, but not itself or later siblings.
		bindings := make([]bound.Binding, len(n.Bindings))
		cur := e
		for i, b := range n.Bindings {
			be, err := r.resolveExpr(b.Expr, cur)
			if err != nil {
				return nil, err
			}
			v := r.Vars.Fresh(b.Var.Name)
			cur = cur.withVar(b.Var.Name, v)
			bindings[i] = bound.Binding{Var: bound.Param{Name: v, Loc: b.Var.Loc}, Expr: be}
		}

		body, err := r.resolveExpr(n.Body, cur)
		if err != nil {
			return nil, err
		}
		return &bound.Let{Bindings: bindings, Body: body, L: n.L}, nil

	case *ast.If:
		cond, err := r.resolveExpr(n.Cond, e)
		if err != nil {
			return nil, err
		}
		thn, err := r.resolveExpr(n.Thn, e)
		if err != nil {
			return nil, err
		}
		els, err := r.resolveExpr(n.Els, e)
		if err != nil {
			return nil, err
		}
		return &bound.If{Cond: cond, Thn: thn, Els: els, L: n.L}, nil

	case *ast.FunDefs:
		// Mutually recursive: check duplicates, then introduce every
		// declaration's fresh FunName and arity before resolving any body.
		seen := make(map[string]bool, len(n.Decls))
		cur := e
		for _, d := range n.Decls {
			if seen[d.Name] {
				return nil, duplicateFunction(d.Name, d.Loc)
			}
			seen[d.Name] = true
			fn := r.Funs.Fresh(d.Name)
			cur = cur.withFunc(d.Name, envFun{name: fn, arity: len(d.Params)})
		}

		decls := make([]bound.FunDecl, len(n.Decls))
		for i, d := range n.Decls {
			bd, err := r.resolveFunDecl(d, cur)
			if err != nil {
				return nil, err
			}
			decls[i] = bd
		}

		body, err := r.resolveExpr(n.Body, cur)
		if err != nil {
			return nil, err
		}
		return &bound.FunDefs{Decls: decls, Body: body, L: n.L}, nil

	case *ast.Call:
		ef, ok := e.lookupFunc(n.Fun)
		if !ok {
			return nil, unboundFunction(n.Fun, n.L)
		}
		if ef.arity != len(n.Args) {
			return nil, arityMismatch(n.Fun, ef.arity, len(n.Args), n.L)
		}
		args, err := r.resolveExprs(n.Args, e)
		if err != nil {
			return nil, err
		}
		return &bound.Call{Fun: ef.name, Args: args, L: n.L}, nil

	default:
		return nil, errors.Errorf("resolve: unhandled surface expression %T", expr)
	}
}

func (r *Resolver) resolveExprs(exprs []ast.Expr, e env) ([]bound.Expr, error) {
	out := make([]bound.Expr, len(exprs))
	for i, a := range exprs {
		ba, err := r.resolveExpr(a, e)
		if err != nil {
			return nil, err
		}
		out[i] = ba
	}
	return out, nil
}

// resolveFunDecl resolves a single function declaration. The caller must
// have already checked decl.Name for duplication and installed it in e.
func (r *Resolver) resolveFunDecl(decl ast.FunDecl, e env) (bound.FunDecl, error) {
	ef, ok := e.lookupFunc(decl.Name)
	if !ok {
		return bound.FunDecl{}, errors.Errorf("resolve: function decl %q missing from its own scope", decl.Name)
	}
	e2, params, err := r.resolveParams(decl.Params, e)
	if err != nil {
		return bound.FunDecl{}, err
	}
	body, err := r.resolveExpr(decl.Body, e2)
	if err != nil {
		return bound.FunDecl{}, err
	}
	return bound.FunDecl{Name: ef.name, Params: params, Body: body, Loc: decl.Loc}, nil
}
