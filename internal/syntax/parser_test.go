package syntax

import (
	"testing"

	"fncc/internal/ast"
)

func TestParseSimpleEntry(t *testing.T) {
	p, err := Parse("def main(n): n + 1")
	if err != nil {
		t.Fatalf("Parse returned an error: %s", err)
	}
	if p.Name != "main" || p.Param.Name != "n" {
		t.Fatalf("unexpected entry signature: %+v", p)
	}
	add, ok := p.Body.(*ast.PrimApp)
	if !ok || add.Op != ast.Add {
		t.Fatalf("expected a top-level +, got %#v", p.Body)
	}
}

func TestParseLetAndIf(t *testing.T) {
	p, err := Parse("def main(n): let x = n, y = x * 2 in if y > 0: y else: 0 - y")
	if err != nil {
		t.Fatalf("Parse returned an error: %s", err)
	}
	let, ok := p.Body.(*ast.Let)
	if !ok || len(let.Bindings) != 2 {
		t.Fatalf("expected a 2-binding let, got %#v", p.Body)
	}
	if let.Bindings[0].Var.Name != "x" || let.Bindings[1].Var.Name != "y" {
		t.Fatalf("unexpected binding names: %+v", let.Bindings)
	}
	if _, ok := let.Body.(*ast.If); !ok {
		t.Fatalf("expected the let body to be an if, got %#v", let.Body)
	}
}

func TestParseUnaryPrimVersusCall(t *testing.T) {
	p, err := Parse("extern helper(a, b)\ndef main(n): add1(helper(n, n))")
	if err != nil {
		t.Fatalf("Parse returned an error: %s", err)
	}
	add1, ok := p.Body.(*ast.PrimApp)
	if !ok || add1.Op != ast.Add1 {
		t.Fatalf("expected a top-level add1, got %#v", p.Body)
	}
	call, ok := add1.Args[0].(*ast.Call)
	if !ok || call.Fun != "helper" || len(call.Args) != 2 {
		t.Fatalf("expected a 2-arg call to helper, got %#v", add1.Args[0])
	}
}

func TestParseMutuallyRecursiveFunDefs(t *testing.T) {
	src := `def main(n):
  def is_even(x): if x == 0: true else: is_odd(x - 1)
  and is_odd(x): if x == 0: false else: is_even(x - 1)
  in is_even(n)`
	p, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse returned an error: %s", err)
	}
	defs, ok := p.Body.(*ast.FunDefs)
	if !ok || len(defs.Decls) != 2 {
		t.Fatalf("expected a 2-declaration FunDefs, got %#v", p.Body)
	}
	if defs.Decls[0].Name != "is_even" || defs.Decls[1].Name != "is_odd" {
		t.Fatalf("unexpected decl names: %+v", defs.Decls)
	}
}

func TestParseArityErrorOnUnaryPrim(t *testing.T) {
	if _, err := Parse("def main(n): add1(n, n)"); err == nil {
		t.Fatal("expected an arity error for add1 with two arguments, got none")
	}
}

func TestParseUnexpectedTrailingInput(t *testing.T) {
	if _, err := Parse("def main(n): n extra"); err == nil {
		t.Fatal("expected an error for trailing input after the program body, got none")
	}
}
