// Package lower implements the lowerer (spec.md §4.2): translation of a
// bound program into an SSA program, performing lambda-lifting of local
// functions with free-variable capture and administrative-normal-form-style
// sequencing of primitive applications, all in continuation-passing style.
package lower

import (
	"fmt"

	"fncc/internal/ast"
	"fncc/internal/bound"
	"fncc/internal/ident"
	"fncc/internal/resolve"
	"fncc/internal/ssa"
)

// kont is the translator's continuation: it describes what to do with the
// value of the subexpression currently being lowered. The zero value is not
// meaningful; construct with kReturn or kBlock.
type kont struct {
	isReturn bool
	dest     ident.VarName
	next     ssa.BlockBody
}

func kReturn() kont { return kont{isReturn: true} }

func kBlock(dest ident.VarName, next ssa.BlockBody) kont {
	return kont{dest: dest, next: next}
}

// invoke materializes k on an immediate value.
func (k kont) invoke(imm ssa.Immediate) ssa.BlockBody {
	if k.isReturn {
		return &ssa.TerminatorBody{Term: &ssa.Return{Imm: imm}}
	}
	return &ssa.OperationBody{Dest: k.dest, Op: &ssa.ImmediateOp{Imm: imm}, Next: k.next}
}

// funKind distinguishes the two ways a call can compile.
type funKind int

const (
	funExtern funKind = iota
	funLocal
)

// funInfo is the lowering environment's entry for a single FunName.
type funInfo struct {
	kind funKind
	// captured is the free-variable snapshot taken at the function's
	// definition site; only meaningful for funLocal.
	captured []ident.VarName
	// block is the shared tail BlockName reached by tail branches; only
	// meaningful for funLocal.
	block ident.BlockName
	// liftedName is the top-level FunName non-tail calls go through;
	// only meaningful for funLocal.
	liftedName ident.FunName
}

// Lowerer holds the (shared, not copied) identifier generators inherited
// from the Resolver plus lowering-local state: the map from FunName to
// calling convention, a lexically scoped stack of in-scope VarNames used to
// compute free-variable snapshots, and the flat accumulator of top-level
// FunBlocks produced by lambda-lifting (FunBlocks, unlike nested tail
// blocks, are not nested control flow and so are assembled into the final
// Program outside of any BlockBody).
type Lowerer struct {
	vars   *ident.Gen
	funs   *ident.FunGen
	blocks ident.BlockGen

	funcs  map[ident.FunName]*funInfo
	locals []ident.VarName

	liftedFuns []ssa.FunBlock
}

// New returns a Lowerer that continues the identifier counters of r, so
// that VarName/FunName indices stay monotonic and disjoint across the whole
// compile (spec.md §3, "Lifecycle").
func New(r *resolve.Resolver) *Lowerer {
	return &Lowerer{
		vars:  &r.Vars,
		funs:  &r.Funs,
		funcs: make(map[ident.FunName]*funInfo),
	}
}

func (lw *Lowerer) pushLocal(v ident.VarName) { lw.locals = append(lw.locals, v) }

func (lw *Lowerer) popLocal() { lw.locals = lw.locals[:len(lw.locals)-1] }

// snapshotLocals copies the lexical stack of currently in-scope variables —
// the free-variable snapshot used by lambda-lifting.
func (lw *Lowerer) snapshotLocals() []ident.VarName {
	out := make([]ident.VarName, len(lw.locals))
	copy(out, lw.locals)
	return out
}

// LowerProg translates a bound program into an SSA program.
func (lw *Lowerer) LowerProg(p *bound.Prog) *ssa.Program {
	mainTail := lw.blocks.Fresh("main_tail")
	lw.funcs[p.Name] = &funInfo{kind: funLocal, block: mainTail, liftedName: p.Name}

	externs := make([]ssa.Extern, len(p.Externs))
	for i, e := range p.Externs {
		lw.funcs[e.Name] = &funInfo{kind: funExtern}
		params := make([]ident.VarName, len(e.Params))
		for j, pp := range e.Params {
			params[j] = pp.Name
		}
		externs[i] = ssa.Extern{Name: e.Name, Params: params}
	}

	mainFunBlock := ssa.FunBlock{
		Name:   p.Name,
		Params: []ident.VarName{p.Param.Name},
		Body: ssa.Branch{
			Target: mainTail,
			Args:   []ssa.Immediate{ssa.VarImm{Name: p.Param.Name}},
		},
	}

	lw.pushLocal(p.Param.Name)
	body := lw.lowerExpr(p.Body, kReturn())
	lw.popLocal()

	mainBlock := ssa.BasicBlock{
		Label:  mainTail,
		Params: []ident.VarName{p.Param.Name},
		Body:   body,
	}

	funBlocks := make([]ssa.FunBlock, 0, 1+len(lw.liftedFuns))
	funBlocks = append(funBlocks, mainFunBlock)
	funBlocks = append(funBlocks, lw.liftedFuns...)

	return &ssa.Program{
		Externs:     externs,
		FunBlocks:   funBlocks,
		BasicBlocks: []ssa.BasicBlock{mainBlock},
	}
}

func (lw *Lowerer) lowerExpr(expr bound.Expr, k kont) ssa.BlockBody {
	switch n := expr.(type) {
	case *bound.Num:
		return k.invoke(ssa.ConstImm{Value: n.Value})

	case *bound.Bool:
		v := int64(0)
		if n.Value {
			v = 1
		}
		return k.invoke(ssa.ConstImm{Value: v})

	case *bound.Var:
		return k.invoke(ssa.VarImm{Name: n.Name})

	case *bound.PrimApp:
		return lw.lowerPrim(n, k)

	case *bound.Let:
		return lw.lowerLet(n, k)

	case *bound.If:
		return lw.lowerIf(n, k)

	case *bound.FunDefs:
		return lw.lowerFunDefs(n, k)

	case *bound.Call:
		return lw.lowerCall(n, k)

	default:
		panic(fmt.Sprintf("lower: unhandled bound expression %T", expr))
	}
}

// foldArgs evaluates args left to right into slots, then wraps tail. Built
// right-to-left (args[len-1] innermost) so that, once fully nested, arg 0's
// lowered form is outermost and therefore executes first at runtime.
func (lw *Lowerer) foldArgs(args []bound.Expr, slots []ident.VarName, tail ssa.BlockBody) ssa.BlockBody {
	body := tail
	for i := len(args) - 1; i >= 0; i-- {
		body = lw.lowerExpr(args[i], kBlock(slots[i], body))
	}
	return body
}

func (lw *Lowerer) freshSlots(n int, hint string) []ident.VarName {
	slots := make([]ident.VarName, n)
	for i := range slots {
		slots[i] = lw.vars.Fresh(hint)
	}
	return slots
}

func (lw *Lowerer) lowerPrim(n *bound.PrimApp, k kont) ssa.BlockBody {
	slots := lw.freshSlots(len(n.Args), "t")

	var dest ident.VarName
	var next ssa.BlockBody
	if k.isReturn {
		dest = lw.vars.Fresh("p_res")
		next = k.invoke(ssa.VarImm{Name: dest})
	} else {
		dest = k.dest
		next = k.next
	}

	var opBody ssa.BlockBody
	switch n.Op {
	case ast.Add1:
		opBody = prim2Body(dest, ssa.OpAdd, ssa.VarImm{Name: slots[0]}, ssa.ConstImm{Value: 1}, next)
	case ast.Sub1:
		opBody = prim2Body(dest, ssa.OpSub, ssa.VarImm{Name: slots[0]}, ssa.ConstImm{Value: 1}, next)
	case ast.Not:
		t := lw.vars.Fresh("t")
		inner := prim2Body(dest, ssa.OpBitXor, ssa.VarImm{Name: t}, ssa.ConstImm{Value: 1}, next)
		opBody = &ssa.OperationBody{
			Dest: t,
			Op:   &ssa.Prim1Op{Op: ssa.IntToBool, Arg: ssa.VarImm{Name: slots[0]}},
			Next: inner,
		}
	case ast.Add:
		opBody = prim2Body(dest, ssa.OpAdd, ssa.VarImm{Name: slots[0]}, ssa.VarImm{Name: slots[1]}, next)
	case ast.Sub:
		opBody = prim2Body(dest, ssa.OpSub, ssa.VarImm{Name: slots[0]}, ssa.VarImm{Name: slots[1]}, next)
	case ast.Mul:
		opBody = prim2Body(dest, ssa.OpMul, ssa.VarImm{Name: slots[0]}, ssa.VarImm{Name: slots[1]}, next)
	case ast.Lt:
		opBody = prim2Body(dest, ssa.OpLt, ssa.VarImm{Name: slots[0]}, ssa.VarImm{Name: slots[1]}, next)
	case ast.Le:
		opBody = prim2Body(dest, ssa.OpLe, ssa.VarImm{Name: slots[0]}, ssa.VarImm{Name: slots[1]}, next)
	case ast.Gt:
		opBody = prim2Body(dest, ssa.OpGt, ssa.VarImm{Name: slots[0]}, ssa.VarImm{Name: slots[1]}, next)
	case ast.Ge:
		opBody = prim2Body(dest, ssa.OpGe, ssa.VarImm{Name: slots[0]}, ssa.VarImm{Name: slots[1]}, next)
	case ast.Eq:
		opBody = prim2Body(dest, ssa.OpEq, ssa.VarImm{Name: slots[0]}, ssa.VarImm{Name: slots[1]}, next)
	case ast.Neq:
		opBody = prim2Body(dest, ssa.OpNeq, ssa.VarImm{Name: slots[0]}, ssa.VarImm{Name: slots[1]}, next)
	case ast.And, ast.Or:
		bop := ssa.OpBitAnd
		if n.Op == ast.Or {
			bop = ssa.OpBitOr
		}
		b0 := lw.vars.Fresh("b")
		b1 := lw.vars.Fresh("b")
		core := prim2Body(dest, bop, ssa.VarImm{Name: b0}, ssa.VarImm{Name: b1}, next)
		core = &ssa.OperationBody{
			Dest: b1,
			Op:   &ssa.Prim1Op{Op: ssa.IntToBool, Arg: ssa.VarImm{Name: slots[1]}},
			Next: core,
		}
		opBody = &ssa.OperationBody{
			Dest: b0,
			Op:   &ssa.Prim1Op{Op: ssa.IntToBool, Arg: ssa.VarImm{Name: slots[0]}},
			Next: core,
		}
	default:
		panic(fmt.Sprintf("lower: unhandled primitive %v", n.Op))
	}

	return lw.foldArgs(n.Args, slots, opBody)
}

func prim2Body(dest ident.VarName, op ssa.Prim2Kind, a1, a2 ssa.Immediate, next ssa.BlockBody) ssa.BlockBody {
	return &ssa.OperationBody{Dest: dest, Op: &ssa.Prim2Op{Op: op, Arg1: a1, Arg2: a2}, Next: next}
}

func (lw *Lowerer) lowerLet(n *bound.Let, k kont) ssa.BlockBody {
	for _, b := range n.Bindings {
		lw.pushLocal(b.Var.Name)
	}
	body := lw.lowerExpr(n.Body, k)

	for i := len(n.Bindings) - 1; i >= 0; i-- {
		b := n.Bindings[i]
		lw.popLocal() // binding i must not see itself as a captured local
		body = lw.lowerExpr(b.Expr, kBlock(b.Var.Name, body))
	}
	return body
}

func (lw *Lowerer) lowerIf(n *bound.If, k kont) ssa.BlockBody {
	condVar := lw.vars.Fresh("cond")
	thnLabel := lw.blocks.Fresh("thn")
	elsLabel := lw.blocks.Fresh("els")

	condTerm := &ssa.TerminatorBody{Term: &ssa.ConditionalBranch{Cond: condVar, Thn: thnLabel, Els: elsLabel}}
	condBody := lw.lowerExpr(n.Cond, kBlock(condVar, condTerm))

	if k.isReturn {
		thnBody := lw.lowerExpr(n.Thn, kReturn())
		elsBody := lw.lowerExpr(n.Els, kReturn())
		blocks := []ssa.BasicBlock{
			{Label: thnLabel, Body: thnBody},
			{Label: elsLabel, Body: elsBody},
		}
		return &ssa.SubBlocksBody{Blocks: blocks, Next: condBody}
	}

	joinLabel := lw.blocks.Fresh("join")
	thnRes := lw.vars.Fresh("thn_res")
	elsRes := lw.vars.Fresh("els_res")

	thnBranch := &ssa.TerminatorBody{Term: &ssa.Branch{Target: joinLabel, Args: []ssa.Immediate{ssa.VarImm{Name: thnRes}}}}
	elsBranch := &ssa.TerminatorBody{Term: &ssa.Branch{Target: joinLabel, Args: []ssa.Immediate{ssa.VarImm{Name: elsRes}}}}

	thnBody := lw.lowerExpr(n.Thn, kBlock(thnRes, thnBranch))
	elsBody := lw.lowerExpr(n.Els, kBlock(elsRes, elsBranch))

	blocks := []ssa.BasicBlock{
		{Label: thnLabel, Body: thnBody},
		{Label: elsLabel, Body: elsBody},
		{Label: joinLabel, Params: []ident.VarName{k.dest}, Body: k.next},
	}
	return &ssa.SubBlocksBody{Blocks: blocks, Next: condBody}
}

func (lw *Lowerer) lowerFunDefs(n *bound.FunDefs, k kont) ssa.BlockBody {
	type pending struct {
		decl      bound.FunDecl
		tailLabel ident.BlockName
		captured  []ident.VarName
	}

	pendings := make([]pending, len(n.Decls))
	for i, decl := range n.Decls {
		tailLabel := lw.blocks.Fresh(decl.Name.Hint() + "_tail")
		captured := lw.snapshotLocals()
		lw.funcs[decl.Name] = &funInfo{kind: funLocal, captured: captured, block: tailLabel}
		pendings[i] = pending{decl: decl, tailLabel: tailLabel, captured: captured}
	}

	tails := make([]ssa.BasicBlock, 0, len(pendings))
	for _, pd := range pendings {
		decl := pd.decl
		params := make([]ident.VarName, len(decl.Params))
		for i, p := range decl.Params {
			params[i] = p.Name
		}

		for _, p := range params {
			lw.pushLocal(p)
		}
		for _, c := range pd.captured {
			lw.pushLocal(c)
		}
		body := lw.lowerExpr(decl.Body, kReturn())
		for range pd.captured {
			lw.popLocal()
		}
		for range params {
			lw.popLocal()
		}

		tailParams := make([]ident.VarName, 0, len(params)+len(pd.captured))
		tailParams = append(tailParams, params...)
		tailParams = append(tailParams, pd.captured...)
		tails = append(tails, ssa.BasicBlock{Label: pd.tailLabel, Params: tailParams, Body: body})

		liftedName := lw.funs.Fresh(decl.Name.Hint())
		lw.funcs[decl.Name].liftedName = liftedName

		freshParams := make([]ident.VarName, len(params))
		for i, p := range params {
			freshParams[i] = lw.vars.Fresh(p.Hint())
		}

		liftedArgs := make([]ssa.Immediate, 0, len(freshParams)+len(pd.captured))
		for _, p := range freshParams {
			liftedArgs = append(liftedArgs, ssa.VarImm{Name: p})
		}
		for _, c := range pd.captured {
			liftedArgs = append(liftedArgs, ssa.VarImm{Name: c})
		}

		liftedParams := make([]ident.VarName, 0, len(freshParams)+len(pd.captured))
		liftedParams = append(liftedParams, freshParams...)
		liftedParams = append(liftedParams, pd.captured...)

		lw.liftedFuns = append(lw.liftedFuns, ssa.FunBlock{
			Name:   liftedName,
			Params: liftedParams,
			Body:   ssa.Branch{Target: pd.tailLabel, Args: liftedArgs},
		})
	}

	body := lw.lowerExpr(n.Body, k)
	return &ssa.SubBlocksBody{Blocks: tails, Next: body}
}

func (lw *Lowerer) lowerCall(n *bound.Call, k kont) ssa.BlockBody {
	slots := lw.freshSlots(len(n.Args), "a")

	info, ok := lw.funcs[n.Fun]
	if !ok {
		panic(fmt.Sprintf("lower: call to %s has no lowering-environment entry — resolver invariant violated", n.Fun))
	}

	var opBody ssa.BlockBody
	switch info.kind {
	case funExtern:
		callArgs := make([]ssa.Immediate, len(slots))
		for i, s := range slots {
			callArgs[i] = ssa.VarImm{Name: s}
		}
		res := lw.vars.Fresh("res")
		opBody = &ssa.OperationBody{
			Dest: res,
			Op:   &ssa.CallOp{Fun: n.Fun, Args: callArgs},
			Next: k.invoke(ssa.VarImm{Name: res}),
		}

	case funLocal:
		branchArgs := make([]ssa.Immediate, 0, len(slots)+len(info.captured))
		for _, s := range slots {
			branchArgs = append(branchArgs, ssa.VarImm{Name: s})
		}
		for _, c := range info.captured {
			branchArgs = append(branchArgs, ssa.VarImm{Name: c})
		}
		if k.isReturn {
			opBody = &ssa.TerminatorBody{Term: &ssa.Branch{Target: info.block, Args: branchArgs}}
		} else {
			opBody = &ssa.OperationBody{
				Dest: k.dest,
				Op:   &ssa.CallOp{Fun: info.liftedName, Args: branchArgs},
				Next: k.next,
			}
		}

	default:
		panic("lower: unreachable funKind")
	}

	return lw.foldArgs(n.Args, slots, opBody)
}
