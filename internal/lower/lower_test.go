package lower_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fncc/internal/lower"
	"fncc/internal/resolve"
	"fncc/internal/ssa"
	"fncc/internal/syntax"
)

func mustLower(t *testing.T, src string) *ssa.Program {
	t.Helper()
	p, err := syntax.Parse(src)
	require.NoError(t, err)
	r := resolve.New()
	bp, err := r.ResolveProg(p)
	require.NoError(t, err)
	return lower.New(r).LowerProg(bp)
}

// mainTail returns the BasicBlock that main's FunBlock branches to.
func mainTail(t *testing.T, p *ssa.Program) ssa.BasicBlock {
	t.Helper()
	require.Len(t, p.BasicBlocks, 1)
	return p.BasicBlocks[0]
}

// opsOf flattens a chain of OperationBody nodes (stopping at the first
// Terminator or SubBlocks) into its Operations, in order.
func opsOf(body ssa.BlockBody) []ssa.Operation {
	var out []ssa.Operation
	for {
		op, ok := body.(*ssa.OperationBody)
		if !ok {
			return out
		}
		out = append(out, op.Op)
		body = op.Next
	}
}

func TestLowerArithmeticReturnsDirectly(t *testing.T) {
	p := mustLower(t, "def main(n): n + 1")
	blk := mainTail(t, p)

	var prim *ssa.Prim2Op
	for _, op := range opsOf(blk.Body) {
		if p2, ok := op.(*ssa.Prim2Op); ok {
			prim = p2
		}
	}
	require.NotNil(t, prim, "expected a Prim2Op somewhere in the operation chain")
	assert.Equal(t, ssa.OpAdd, prim.Op)

	term := terminatorOf(t, blk.Body)
	_, ok := term.(*ssa.Return)
	assert.True(t, ok, "expected the arithmetic result to flow straight into a Return")
}

func TestLowerExternCallUsesCallOp(t *testing.T) {
	p := mustLower(t, "extern helper(a)\ndef main(n): helper(n)")
	require.Len(t, p.Externs, 1)
	assert.Equal(t, 1, len(p.Externs[0].Params))

	blk := mainTail(t, p)
	var call *ssa.CallOp
	for _, op := range opsOf(blk.Body) {
		if c, ok := op.(*ssa.CallOp); ok {
			call = c
		}
	}
	require.NotNil(t, call, "expected a CallOp somewhere in the operation chain")
	assert.Equal(t, p.Externs[0].Name, call.Fun)
}

func TestLowerIfNonTailJoinsThroughBlock(t *testing.T) {
	p := mustLower(t, "def main(n): (if n > 0: 1 else: 0) + 1")
	blk := mainTail(t, p)
	sub, ok := blk.Body.(*ssa.SubBlocksBody)
	require.True(t, ok, "expected if-in-non-tail-position to introduce sub-blocks, got %T", blk.Body)
	// thn, els, join
	require.Len(t, sub.Blocks, 3)
	join := sub.Blocks[2]
	require.Len(t, join.Params, 1)
}

func TestLowerIfTailPositionHasNoJoinBlock(t *testing.T) {
	p := mustLower(t, "def main(n): if n > 0: 1 else: 0")
	blk := mainTail(t, p)
	sub, ok := blk.Body.(*ssa.SubBlocksBody)
	require.True(t, ok)
	require.Len(t, sub.Blocks, 2, "a tail-position if needs only thn/els blocks, no join")
	for _, b := range sub.Blocks {
		term, ok := b.Body.(*ssa.TerminatorBody)
		require.True(t, ok)
		_, ok = term.Term.(*ssa.Return)
		assert.True(t, ok)
	}
}

// terminatorOf walks an OperationBody/SubBlocksBody chain down to the
// Terminator that ultimately ends it.
func terminatorOf(t *testing.T, body ssa.BlockBody) ssa.Terminator {
	t.Helper()
	for {
		switch b := body.(type) {
		case *ssa.TerminatorBody:
			return b.Term
		case *ssa.OperationBody:
			body = b.Next
		case *ssa.SubBlocksBody:
			body = b.Next
		default:
			t.Fatalf("unexpected BlockBody %T", body)
		}
	}
}

func TestLowerLocalFunTailCallBranchesDirectly(t *testing.T) {
	src := `def main(n):
  def loop(x): if x == 0: x else: loop(x - 1)
  in loop(n)`
	p := mustLower(t, src)
	// One lifted FunBlock in addition to main.
	require.Len(t, p.FunBlocks, 2)

	blk := mainTail(t, p)
	sub, ok := blk.Body.(*ssa.SubBlocksBody)
	require.True(t, ok)
	require.Len(t, sub.Blocks, 1, "a single def...in introduces exactly one tail block")
	loopTail := sub.Blocks[0]

	// The if inside loop's tail-position body should itself compile to a
	// tail if: a SubBlocksBody with exactly a thn/els pair, each of whose
	// branches ends in either a Return or a Branch back to loopTail itself
	// (the self tail call), never a CallOp.
	ifBody, ok := loopTail.Body.(*ssa.SubBlocksBody)
	require.True(t, ok)
	require.Len(t, ifBody.Blocks, 2)
	for _, b := range ifBody.Blocks {
		switch tm := terminatorOf(t, b.Body).(type) {
		case *ssa.Return:
		case *ssa.Branch:
			assert.Equal(t, loopTail.Label, tm.Target, "self tail call should branch back to its own tail block")
		default:
			t.Fatalf("unexpected terminator %T", tm)
		}
	}
}

func TestLowerFunDefsCapturesFreeVariables(t *testing.T) {
	src := `def main(n):
  def addN(x): x + n
  in addN(1)`
	p := mustLower(t, src)
	require.Len(t, p.FunBlocks, 2)
	lifted := p.FunBlocks[1]
	// addN closes over n, so its lifted top-level FunBlock must take two
	// params: the fresh copy of x plus the captured n.
	assert.Len(t, lifted.Params, 2)
}
