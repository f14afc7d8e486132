// Package interp provides reference interpreters for the bound AST and for
// SSA, used by the driver's --execute flag and by tests asserting semantic
// preservation across internal/lower: the bound-AST interpreter and the SSA
// interpreter must agree on every input. Both reject programs that declare
// externs, and neither runs the assembly internal/codegen emits.
//
// Go's call stack already gives every recursive walk here the continuation
// the original tree-walking interpreter built by hand; there is no need to
// reify it as an explicit machine.
package interp

import (
	"fmt"

	"fncc/internal/ast"
	"fncc/internal/bound"
	"fncc/internal/ident"
	"fncc/internal/ssa"
)

// Error reports a failure during interpretation: an unbound name, an arity
// mismatch, or a call to an extern (the reference interpreters only run
// extern-free programs).
type Error struct {
	msg string
}

func (e *Error) Error() string { return e.msg }

func errorf(format string, args ...interface{}) error {
	return &Error{msg: fmt.Sprintf(format, args...)}
}

/* ------------------------------- bound AST ------------------------------- */

type closure struct {
	env   map[ident.VarName]int64
	decls map[ident.FunName]*bound.FunDecl
	name  ident.FunName
}

// Bound interprets a resolved program with entry argument arg, returning the
// entry's result. p must contain no extern declarations; Bound rejects
// programs that do, since an extern has no body to interpret.
func Bound(p *bound.Prog, arg int64) (int64, error) {
	if len(p.Externs) > 0 {
		return 0, errorf("interp: bound interpreter does not support extern declarations")
	}
	env := map[ident.VarName]int64{p.Param.Name: arg}
	bi := &boundInterp{funcs: map[ident.FunName]closure{
		p.Name: {env: map[ident.VarName]int64{}, decls: map[ident.FunName]*bound.FunDecl{
			p.Name: {Name: p.Name, Params: []bound.Param{p.Param}, Body: p.Body},
		}, name: p.Name},
	}}
	return bi.eval(p.Body, env)
}

type boundInterp struct {
	funcs map[ident.FunName]closure
}

func (bi *boundInterp) eval(e bound.Expr, env map[ident.VarName]int64) (int64, error) {
	switch n := e.(type) {
	case *bound.Num:
		return n.Value, nil

	case *bound.Bool:
		if n.Value {
			return 1, nil
		}
		return 0, nil

	case *bound.Var:
		v, ok := env[n.Name]
		if !ok {
			return 0, errorf("interp: unbound variable %s", n.Name)
		}
		return v, nil

	case *bound.PrimApp:
		return bi.evalPrim(n, env)

	case *bound.Let:
		child := copyEnv(env)
		for _, b := range n.Bindings {
			v, err := bi.eval(b.Expr, child)
			if err != nil {
				return 0, err
			}
			child[b.Var.Name] = v
		}
		return bi.eval(n.Body, child)

	case *bound.If:
		c, err := bi.eval(n.Cond, env)
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return bi.eval(n.Thn, env)
		}
		return bi.eval(n.Els, env)

	case *bound.FunDefs:
		decls := make(map[ident.FunName]*bound.FunDecl, len(n.Decls))
		for i := range n.Decls {
			decls[n.Decls[i].Name] = &n.Decls[i]
		}
		closureEnv := bi.funcs
		next := make(map[ident.FunName]closure, len(closureEnv)+len(decls))
		for k, v := range closureEnv {
			next[k] = v
		}
		for name := range decls {
			next[name] = closure{env: env, decls: decls, name: name}
		}
		saved := bi.funcs
		bi.funcs = next
		v, err := bi.eval(n.Body, env)
		bi.funcs = saved
		return v, err

	case *bound.Call:
		args := make([]int64, len(n.Args))
		for i, a := range n.Args {
			v, err := bi.eval(a, env)
			if err != nil {
				return 0, err
			}
			args[i] = v
		}
		return bi.call(n.Fun, args)

	default:
		return 0, errorf("interp: unhandled bound expression %T", e)
	}
}

func (bi *boundInterp) call(fun ident.FunName, args []int64) (int64, error) {
	clo, ok := bi.funcs[fun]
	if !ok {
		return 0, errorf("interp: unbound function %s", fun)
	}
	decl, ok := clo.decls[clo.name]
	if !ok {
		return 0, errorf("interp: unbound function %s", fun)
	}
	if len(args) != len(decl.Params) {
		return 0, errorf("interp: calling %s with wrong arity: expected %d, got %d", fun, len(decl.Params), len(args))
	}

	callEnv := copyEnv(clo.env)
	next := make(map[ident.FunName]closure, len(bi.funcs))
	for k, v := range bi.funcs {
		next[k] = v
	}
	for name := range clo.decls {
		next[name] = closure{env: clo.env, decls: clo.decls, name: name}
	}
	for i, p := range decl.Params {
		callEnv[p.Name] = args[i]
	}

	saved := bi.funcs
	bi.funcs = next
	v, err := bi.eval(decl.Body, callEnv)
	bi.funcs = saved
	return v, err
}

func (bi *boundInterp) evalPrim(n *bound.PrimApp, env map[ident.VarName]int64) (int64, error) {
	args := make([]int64, len(n.Args))
	for i, a := range n.Args {
		v, err := bi.eval(a, env)
		if err != nil {
			return 0, err
		}
		args[i] = v
	}
	return applyPrim(n.Op, args)
}

func applyPrim(op ast.Prim, args []int64) (int64, error) {
	b2i := func(b bool) int64 {
		if b {
			return 1
		}
		return 0
	}
	switch op {
	case ast.Add1:
		return args[0] + 1, nil
	case ast.Sub1:
		return args[0] - 1, nil
	case ast.Not:
		return b2i(args[0] == 0), nil
	case ast.Add:
		return args[0] + args[1], nil
	case ast.Sub:
		return args[0] - args[1], nil
	case ast.Mul:
		return args[0] * args[1], nil
	case ast.And:
		return b2i(args[0] != 0 && args[1] != 0), nil
	case ast.Or:
		return b2i(args[0] != 0 || args[1] != 0), nil
	case ast.Lt:
		return b2i(args[0] < args[1]), nil
	case ast.Le:
		return b2i(args[0] <= args[1]), nil
	case ast.Gt:
		return b2i(args[0] > args[1]), nil
	case ast.Ge:
		return b2i(args[0] >= args[1]), nil
	case ast.Eq:
		return b2i(args[0] == args[1]), nil
	case ast.Neq:
		return b2i(args[0] != args[1]), nil
	default:
		return 0, errorf("interp: unhandled primitive %v", op)
	}
}

func copyEnv(env map[ident.VarName]int64) map[ident.VarName]int64 {
	c := make(map[ident.VarName]int64, len(env)+4)
	for k, v := range env {
		c[k] = v
	}
	return c
}

/* ---------------------------------- SSA ----------------------------------- */

// SSA interprets an SSA program with entry argument arg. p must contain no
// extern declarations.
func SSA(p *ssa.Program, arg int64) (int64, error) {
	if len(p.Externs) > 0 {
		return 0, errorf("interp: SSA interpreter does not support extern declarations")
	}
	si := &ssaInterp{
		funs:   map[ident.FunName]ssa.FunBlock{},
		blocks: map[ident.BlockName]ssa.BasicBlock{},
	}
	for _, f := range p.FunBlocks {
		si.funs[f.Name] = f
	}
	for _, b := range p.BasicBlocks {
		si.blocks[b.Label] = b
	}

	entry, ok := si.funs[ident.UnmangledFun("entry")]
	if !ok {
		return 0, errorf("interp: no entry function")
	}
	return si.callFun(entry, []int64{arg})
}

type ssaInterp struct {
	funs   map[ident.FunName]ssa.FunBlock
	blocks map[ident.BlockName]ssa.BasicBlock
}

func (si *ssaInterp) callFun(f ssa.FunBlock, args []int64) (int64, error) {
	if len(args) != len(f.Params) {
		return 0, errorf("interp: calling %s with wrong arity: expected %d, got %d", f.Name, len(f.Params), len(args))
	}
	env := make(map[ident.VarName]int64, len(f.Params))
	for i, p := range f.Params {
		env[p] = args[i]
	}
	return si.runBranch(&f.Body, env)
}

func (si *ssaInterp) runBranch(br *ssa.Branch, env map[ident.VarName]int64) (int64, error) {
	args := make([]int64, len(br.Args))
	for i, a := range br.Args {
		v, err := si.runImmediate(a, env)
		if err != nil {
			return 0, err
		}
		args[i] = v
	}
	blk, ok := si.blocks[br.Target]
	if !ok {
		return 0, errorf("interp: unbound block %s", br.Target)
	}
	if len(args) != len(blk.Params) {
		return 0, errorf("interp: branching to %s with wrong arity: expected %d, got %d", br.Target, len(blk.Params), len(args))
	}
	// A block reads its enclosing scope as well as its own parameters; the
	// environment it is branched from holds that scope.
	next := copyEnv(env)
	for i, p := range blk.Params {
		next[p] = args[i]
	}
	return si.runBody(blk.Body, next)
}

func (si *ssaInterp) runBody(b ssa.BlockBody, env map[ident.VarName]int64) (int64, error) {
	switch n := b.(type) {
	case *ssa.TerminatorBody:
		return si.runTerminator(n.Term, env)

	case *ssa.OperationBody:
		v, err := si.runOperation(n.Op, env)
		if err != nil {
			return 0, err
		}
		env[n.Dest] = v
		return si.runBody(n.Next, env)

	case *ssa.SubBlocksBody:
		for _, blk := range n.Blocks {
			si.blocks[blk.Label] = blk
		}
		return si.runBody(n.Next, env)

	default:
		return 0, errorf("interp: unhandled block body %T", b)
	}
}

func (si *ssaInterp) runTerminator(t ssa.Terminator, env map[ident.VarName]int64) (int64, error) {
	switch n := t.(type) {
	case *ssa.Return:
		return si.runImmediate(n.Imm, env)

	case *ssa.Branch:
		return si.runBranch(n, env)

	case *ssa.ConditionalBranch:
		c, ok := env[n.Cond]
		if !ok {
			return 0, errorf("interp: unbound variable %s", n.Cond)
		}
		target := n.Els
		if c != 0 {
			target = n.Thn
		}
		return si.runBranch(&ssa.Branch{Target: target}, env)

	default:
		return 0, errorf("interp: unhandled terminator %T", t)
	}
}

func (si *ssaInterp) runOperation(op ssa.Operation, env map[ident.VarName]int64) (int64, error) {
	switch n := op.(type) {
	case *ssa.ImmediateOp:
		return si.runImmediate(n.Imm, env)

	case *ssa.Prim1Op:
		v, err := si.runImmediate(n.Arg, env)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case ssa.BitNot:
			return ^v, nil
		case ssa.IntToBool:
			if v != 0 {
				return 1, nil
			}
			return 0, nil
		default:
			return 0, errorf("interp: unhandled unary primitive %v", n.Op)
		}

	case *ssa.Prim2Op:
		a, err := si.runImmediate(n.Arg1, env)
		if err != nil {
			return 0, err
		}
		b, err := si.runImmediate(n.Arg2, env)
		if err != nil {
			return 0, err
		}
		return runPrim2(n.Op, a, b)

	case *ssa.CallOp:
		args := make([]int64, len(n.Args))
		for i, a := range n.Args {
			v, err := si.runImmediate(a, env)
			if err != nil {
				return 0, err
			}
			args[i] = v
		}
		f, ok := si.funs[n.Fun]
		if !ok {
			return 0, errorf("interp: unbound function %s", n.Fun)
		}
		return si.callFun(f, args)

	default:
		return 0, errorf("interp: unhandled operation %T", op)
	}
}

func runPrim2(op ssa.Prim2Kind, a, b int64) (int64, error) {
	bi := func(c bool) int64 {
		if c {
			return 1
		}
		return 0
	}
	switch op {
	case ssa.OpAdd:
		return a + b, nil
	case ssa.OpSub:
		return a - b, nil
	case ssa.OpMul:
		return a * b, nil
	case ssa.OpBitAnd:
		return a & b, nil
	case ssa.OpBitOr:
		return a | b, nil
	case ssa.OpBitXor:
		return a ^ b, nil
	case ssa.OpLt:
		return bi(a < b), nil
	case ssa.OpLe:
		return bi(a <= b), nil
	case ssa.OpGt:
		return bi(a > b), nil
	case ssa.OpGe:
		return bi(a >= b), nil
	case ssa.OpEq:
		return bi(a == b), nil
	case ssa.OpNeq:
		return bi(a != b), nil
	default:
		return 0, errorf("interp: unhandled binary primitive %v", op)
	}
}

func (si *ssaInterp) runImmediate(imm ssa.Immediate, env map[ident.VarName]int64) (int64, error) {
	switch n := imm.(type) {
	case ssa.VarImm:
		v, ok := env[n.Name]
		if !ok {
			return 0, errorf("interp: unbound variable %s", n.Name)
		}
		return v, nil
	case ssa.ConstImm:
		return n.Value, nil
	default:
		return 0, errorf("interp: unhandled immediate %T", imm)
	}
}
