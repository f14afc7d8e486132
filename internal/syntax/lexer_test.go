package syntax

import "testing"

// TestLex verifies that a short sample program is tokenized into exactly
// the expected sequence of item types and values.
func TestLex(t *testing.T) {
	src := `extern print(x)
def add1_twice(n):
  let m = add1(n) in
    if m < 10: add1(m) else: m
`
	exp := []struct {
		typ itemType
		val string
	}{
		{itemExtern, "extern"},
		{itemIdent, "print"},
		{itemLParen, "("},
		{itemIdent, "x"},
		{itemRParen, ")"},
		{itemDef, "def"},
		{itemIdent, "add1_twice"},
		{itemLParen, "("},
		{itemIdent, "n"},
		{itemRParen, ")"},
		{itemColon, ":"},
		{itemLet, "let"},
		{itemIdent, "m"},
		{itemEquals, "="},
		{itemIdent, "add1"},
		{itemLParen, "("},
		{itemIdent, "n"},
		{itemRParen, ")"},
		{itemIn, "in"},
		{itemIf, "if"},
		{itemIdent, "m"},
		{itemLt, "<"},
		{itemNum, "10"},
		{itemColon, ":"},
		{itemIdent, "add1"},
		{itemLParen, "("},
		{itemIdent, "m"},
		{itemRParen, ")"},
		{itemElse, "else"},
		{itemColon, ":"},
		{itemIdent, "m"},
		{itemEOF, ""},
	}

	items, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex returned an error: %s", err)
	}
	if len(items) != len(exp) {
		t.Fatalf("expected %d tokens, got %d: %v", len(exp), len(items), items)
	}
	for i, e := range exp {
		if items[i].typ != e.typ || items[i].val != e.val {
			t.Errorf("token %d: expected {%v %q}, got {%v %q}", i, e.typ, e.val, items[i].typ, items[i].val)
		}
	}
}

func TestLexRejectsFloat(t *testing.T) {
	if _, err := Lex("1.5"); err == nil {
		t.Fatal("expected an error for a floating-point literal, got none")
	}
}

func TestLexRejectsBareBang(t *testing.T) {
	if _, err := Lex("! true"); err == nil {
		t.Fatal("expected an error for a bare '!', got none")
	}
}

func TestLexSkipsComments(t *testing.T) {
	items, err := Lex("# a comment\n42")
	if err != nil {
		t.Fatalf("Lex returned an error: %s", err)
	}
	if len(items) != 2 || items[0].typ != itemNum || items[0].val != "42" {
		t.Fatalf("expected a single NUM token followed by EOF, got %v", items)
	}
}
