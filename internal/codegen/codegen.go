package codegen

import (
	"fmt"

	"fncc/internal/ident"
	"fncc/internal/ssa"
)

// argRegs is the System V AMD64 integer argument-register order. Calls with
// more than len(argRegs) arguments (for a lifted local function, counting
// the captured variables appended to its arguments) are rejected with a
// panic: supporting a stack-passed overflow would require shifting every
// in-flight stack-slot
// offset by the same amount mid-block, which the single flat rsp-relative
// slot space this backend uses cannot do without a frame pointer. See
// DESIGN.md.
var argRegs = [...]Reg{Rdi, Rsi, Rdx, Rcx, R8, R9}

// env is the codegen-time map from SSA names to stack-slot numbers, mirroring
// the teacher's arena/blocks bookkeeping. next grows monotonically across
// the whole program: every SSA variable, anywhere in the program, gets its
// own slot, except across sibling SubBlocks branches, which fork from a
// common env and so may reuse the same physical slot — safe, since only one
// sibling ever executes per visit.
type env struct {
	next    int
	arena   map[ident.VarName]int
	blocks  map[ident.BlockName]int
	maxSlot *int
}

func newEnv() *env {
	max := 0
	return &env{next: 1, arena: make(map[ident.VarName]int), blocks: make(map[ident.BlockName]int), maxSlot: &max}
}

func (e *env) clone() *env {
	arena := make(map[ident.VarName]int, len(e.arena))
	for k, v := range e.arena {
		arena[k] = v
	}
	blocks := make(map[ident.BlockName]int, len(e.blocks))
	for k, v := range e.blocks {
		blocks[k] = v
	}
	return &env{next: e.next, arena: arena, blocks: blocks, maxSlot: e.maxSlot}
}

func (e *env) allocate(v ident.VarName) int {
	loc := e.next
	e.arena[v] = loc
	e.next++
	if loc > *e.maxSlot {
		*e.maxSlot = loc
	}
	return loc
}

func (e *env) lookup(v ident.VarName) int {
	loc, ok := e.arena[v]
	if !ok {
		panic(fmt.Sprintf("codegen: variable %s read before it was allocated a slot", v))
	}
	return loc
}

type emitter struct {
	instrs        []Instr
	frameBoundary map[ident.BlockName]bool
}

func (em *emitter) emit(i Instr) { em.instrs = append(em.instrs, i) }

// Emit translates p into NASM assembly text.
func Emit(p *ssa.Program) string {
	em := &emitter{frameBoundary: make(map[ident.BlockName]bool)}
	for _, f := range p.FunBlocks {
		if !isEntry(f) {
			em.frameBoundary[f.Body.Target] = true
		}
	}

	em.emit(&SectionInstr{Name: ".data"})
	em.emit(&SectionInstr{Name: ".text"})
	em.emit(&GlobalInstr{Name: "entry"})

	e := newEnv()

	for _, ext := range p.Externs {
		em.emit(&ExternInstr{Name: ext.Name.String()})
	}

	// Register every top-level basic block's base offset before emitting
	// any of them, so forward references (branches into a block not yet
	// emitted) resolve to the right slots.
	for _, b := range p.BasicBlocks {
		e.blocks[b.Label] = e.next
	}
	for _, b := range p.BasicBlocks {
		em.emitBasicBlock(b, e.clone(), false)
	}
	for _, f := range p.FunBlocks {
		em.emitFunBlock(f, e)
	}

	return render(patchFrame(em.instrs, *e.maxSlot))
}

func isEntry(f ssa.FunBlock) bool {
	return f.Name.IsUnmangled() && f.Name.Hint() == "entry"
}

// patchFrame replaces the framePrologue/frameEpilogue placeholders with
// concrete sub/add rsp instructions sized to the largest slot number any
// single execution path allocated, or drops them if nothing was allocated.
func patchFrame(instrs []Instr, maxSlot int) []Instr {
	if maxSlot == 0 {
		out := make([]Instr, 0, len(instrs))
		for _, i := range instrs {
			switch i.(type) {
			case *framePrologue, *frameEpilogue:
				continue
			}
			out = append(out, i)
		}
		return out
	}

	size := int32(8 * maxSlot)
	out := make([]Instr, 0, len(instrs))
	for _, i := range instrs {
		switch i.(type) {
		case *framePrologue:
			out = append(out, &SubInstr{Args: BinToReg{Reg: Rsp, Arg: SignedArg32{Value: size}}})
		case *frameEpilogue:
			out = append(out, &AddInstr{Args: BinToReg{Reg: Rsp, Arg: SignedArg32{Value: size}}})
		default:
			out = append(out, i)
		}
	}
	return out
}

// emitFunBlock emits a top-level function entry: a trampoline that stores
// its System V incoming arguments into the slots its target block expects
// and jumps there. The entry point additionally reserves the program's
// whole stack frame, since it is the only FunBlock genuinely entered from
// outside the compile unit.
func (em *emitter) emitFunBlock(f ssa.FunBlock, e *env) {
	em.emit(&LabelInstr{Name: f.Name.String()})

	if isEntry(f) {
		em.emit(&framePrologue{})
	}

	if len(f.Params) > len(argRegs) {
		panic(fmt.Sprintf("codegen: function %s has %d parameters, more than the %d supported", f.Name, len(f.Params), len(argRegs)))
	}

	base, ok := e.blocks[f.Body.Target]
	if !ok {
		panic(fmt.Sprintf("codegen: no offset registered for block %s", f.Body.Target))
	}
	for i := range f.Params {
		em.emit(storeMem(base+i, argRegs[i]))
	}
	em.emit(&JmpInstr{Target: f.Body.Target.String()})
}

func (em *emitter) emitBasicBlock(b ssa.BasicBlock, e *env, insideCall bool) {
	em.emit(&LabelInstr{Name: b.Label.String()})
	for _, p := range b.Params {
		e.allocate(p)
	}
	em.emitBlockBody(b.Body, e, insideCall)
}

func (em *emitter) emitBlockBody(b ssa.BlockBody, e *env, insideCall bool) {
	switch n := b.(type) {
	case *ssa.TerminatorBody:
		em.emitTerminator(n.Term, e, insideCall)

	case *ssa.OperationBody:
		em.emitOperation(n.Dest, n.Op, e)
		em.emitBlockBody(n.Next, e, insideCall)

	case *ssa.SubBlocksBody:
		for _, blk := range n.Blocks {
			e.blocks[blk.Label] = e.next
		}
		em.emitBlockBody(n.Next, e.clone(), insideCall)
		for _, blk := range n.Blocks {
			nextInside := insideCall || em.frameBoundary[blk.Label]
			em.emitBasicBlock(blk, e.clone(), nextInside)
		}

	default:
		panic(fmt.Sprintf("codegen: unhandled block body %T", b))
	}
}

func (em *emitter) emitTerminator(t ssa.Terminator, e *env, insideCall bool) {
	switch n := t.(type) {
	case *ssa.Return:
		em.emitImmReg(n.Imm, Rax, e)
		// A Return reached from within a lambda-lifted function's own call
		// boundary shares the program's single flat frame and must not
		// touch rsp: the pending `call` that entered it owns the one
		// matching `ret`. Only entry's own dynamic extent restores the
		// frame it reserved.
		if !insideCall {
			em.emit(&frameEpilogue{})
		}
		em.emit(&RetInstr{})

	case *ssa.Branch:
		em.emitBranch(n, e)

	case *ssa.ConditionalBranch:
		slot := e.lookup(n.Cond)
		em.emit(loadMem(Rax, slot))
		em.emit(&CmpInstr{Args: BinToReg{Reg: Rax, Arg: SignedArg32{Value: 0}}})
		em.emit(&JccInstr{CC: CCNE, Target: n.Thn.String()})
		em.emit(&JmpInstr{Target: n.Els.String()})

	default:
		panic(fmt.Sprintf("codegen: unhandled terminator %T", t))
	}
}

func (em *emitter) emitBranch(br *ssa.Branch, e *env) {
	base, ok := e.blocks[br.Target]
	if !ok {
		panic(fmt.Sprintf("codegen: no offset registered for block %s", br.Target))
	}
	for i, arg := range br.Args {
		em.emitImmReg(arg, Rax, e)
		em.emit(storeMem(base+i, Rax))
	}
	em.emit(&JmpInstr{Target: br.Target.String()})
}

func (em *emitter) emitOperation(dest ident.VarName, op ssa.Operation, e *env) {
	switch n := op.(type) {
	case *ssa.ImmediateOp:
		em.emitImmReg(n.Imm, Rax, e)

	case *ssa.Prim1Op:
		em.emitImmReg(n.Arg, Rax, e)
		switch n.Op {
		case ssa.BitNot:
			em.emit(&MovInstr{Args: MovToReg{Reg: R10, Src: SignedArg64{Value: -1}}})
			em.emit(&XorInstr{Args: BinToReg{Reg: Rax, Arg: RegArg32{Reg: R10}}})
		case ssa.IntToBool:
			em.emit(&CmpInstr{Args: BinToReg{Reg: Rax, Arg: SignedArg32{Value: 0}}})
			em.emit(&MovInstr{Args: MovToReg{Reg: Rax, Src: SignedArg64{Value: 0}}})
			em.emit(&SetCCInstr{CC: CCNE, Reg: Al})
		default:
			panic(fmt.Sprintf("codegen: unhandled unary primitive %v", n.Op))
		}

	case *ssa.Prim2Op:
		em.emitImmReg(n.Arg1, Rax, e)
		em.emitImmReg(n.Arg2, R10, e)
		ba := BinToReg{Reg: Rax, Arg: RegArg32{Reg: R10}}
		switch n.Op {
		case ssa.OpAdd:
			em.emit(&AddInstr{Args: ba})
		case ssa.OpSub:
			em.emit(&SubInstr{Args: ba})
		case ssa.OpMul:
			em.emit(&IMulInstr{Args: ba})
		case ssa.OpBitAnd:
			em.emit(&AndInstr{Args: ba})
		case ssa.OpBitOr:
			em.emit(&OrInstr{Args: ba})
		case ssa.OpBitXor:
			em.emit(&XorInstr{Args: ba})
		case ssa.OpLt:
			em.emitCC(CCL, ba)
		case ssa.OpLe:
			em.emitCC(CCLE, ba)
		case ssa.OpGt:
			em.emitCC(CCG, ba)
		case ssa.OpGe:
			em.emitCC(CCGE, ba)
		case ssa.OpEq:
			em.emitCC(CCE, ba)
		case ssa.OpNeq:
			em.emitCC(CCNE, ba)
		default:
			panic(fmt.Sprintf("codegen: unhandled binary primitive %v", n.Op))
		}

	case *ssa.CallOp:
		em.emitCall(n, e)

	default:
		panic(fmt.Sprintf("codegen: unhandled operation %T", op))
	}

	dst := e.allocate(dest)
	em.emit(storeMem(dst, Rax))
}

// emitCC materializes a comparison's boolean result into rax: setcc only
// writes al, so rax must be zeroed first.
func (em *emitter) emitCC(cc ConditionCode, ba BinArgs) {
	em.emit(&CmpInstr{Args: ba})
	em.emit(&MovInstr{Args: MovToReg{Reg: Rax, Src: SignedArg64{Value: 0}}})
	em.emit(&SetCCInstr{CC: cc, Reg: Al})
}

func (em *emitter) emitImmReg(imm ssa.Immediate, reg Reg, e *env) {
	switch n := imm.(type) {
	case ssa.VarImm:
		em.emit(loadMem(reg, e.lookup(n.Name)))
	case ssa.ConstImm:
		em.emit(loadSigned(reg, n.Value))
	default:
		panic(fmt.Sprintf("codegen: unhandled immediate %T", imm))
	}
}

// emitCall marshals arguments into the System V integer argument registers
// and calls Fun, leaving its result in rax for the caller (emitOperation)
// to store.
func (em *emitter) emitCall(c *ssa.CallOp, e *env) {
	if len(c.Args) > len(argRegs) {
		panic(fmt.Sprintf("codegen: call to %s has %d arguments, more than the %d supported", c.Fun, len(c.Args), len(argRegs)))
	}
	for i, arg := range c.Args {
		em.emitImmReg(arg, argRegs[i], e)
	}
	em.emit(&CallInstr{Name: c.Fun.String()})
}
