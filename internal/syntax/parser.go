package syntax

import (
	"fmt"

	"fncc/internal/ast"
)

var unaryPrims = map[string]ast.Prim{
	"add1": ast.Add1,
	"sub1": ast.Sub1,
	"not":  ast.Not,
}

type parser struct {
	items []item
	pos   int
}

// Parse scans and parses src into a surface program.
func Parse(src string) (*ast.Prog, error) {
	items, err := Lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{items: items}
	return p.parseProg()
}

func (p *parser) cur() item { return p.items[p.pos] }

func (p *parser) advance() item {
	i := p.items[p.pos]
	if p.pos < len(p.items)-1 {
		p.pos++
	}
	return i
}

func (p *parser) expect(typ itemType) (item, error) {
	if p.cur().typ != typ {
		return item{}, fmt.Errorf("syntax: expected %s, found %s at offset %d", describe(typ), describe(p.cur().typ), p.cur().start)
	}
	return p.advance(), nil
}

func (p *parser) loc(start int) ast.SrcLoc {
	return ast.SrcLoc{StartIx: start, EndIx: p.items[p.pos].start}
}

func (p *parser) parseProg() (*ast.Prog, error) {
	start := p.cur().start

	var externs []ast.ExtDecl
	for p.cur().typ == itemExtern {
		d, err := p.parseExtern()
		if err != nil {
			return nil, err
		}
		externs = append(externs, d)
	}

	if _, err := p.expect(itemDef); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(itemIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(itemLParen); err != nil {
		return nil, err
	}
	paramTok, err := p.expect(itemIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(itemRParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(itemColon); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if p.cur().typ != itemEOF {
		return nil, fmt.Errorf("syntax: unexpected trailing %s at offset %d", describe(p.cur().typ), p.cur().start)
	}

	return &ast.Prog{
		Externs: externs,
		Name:    nameTok.val,
		Param:   ast.Param{Name: paramTok.val, Loc: ast.SrcLoc{StartIx: paramTok.start, EndIx: paramTok.end}},
		Body:    body,
		Loc:     p.loc(start),
	}, nil
}

func (p *parser) parseExtern() (ast.ExtDecl, error) {
	start := p.cur().start
	if _, err := p.expect(itemExtern); err != nil {
		return ast.ExtDecl{}, err
	}
	nameTok, err := p.expect(itemIdent)
	if err != nil {
		return ast.ExtDecl{}, err
	}
	if _, err := p.expect(itemLParen); err != nil {
		return ast.ExtDecl{}, err
	}
	params, err := p.parseParamList()
	if err != nil {
		return ast.ExtDecl{}, err
	}
	if _, err := p.expect(itemRParen); err != nil {
		return ast.ExtDecl{}, err
	}
	return ast.ExtDecl{Name: nameTok.val, Params: params, Loc: p.loc(start)}, nil
}

func (p *parser) parseParamList() ([]ast.Param, error) {
	var params []ast.Param
	if p.cur().typ == itemRParen {
		return params, nil
	}
	for {
		tok, err := p.expect(itemIdent)
		if err != nil {
			return nil, err
		}
		params = append(params, ast.Param{Name: tok.val, Loc: ast.SrcLoc{StartIx: tok.start, EndIx: tok.end}})
		if p.cur().typ != itemComma {
			break
		}
		p.advance()
	}
	return params, nil
}

func (p *parser) parseArgList() ([]ast.Expr, error) {
	var args []ast.Expr
	if p.cur().typ == itemRParen {
		return args, nil
	}
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		if p.cur().typ != itemComma {
			break
		}
		p.advance()
	}
	return args, nil
}

func (p *parser) parseExpr() (ast.Expr, error) { return p.parseOr() }

func (p *parser) parseOr() (ast.Expr, error) {
	start := p.cur().start
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur().typ == itemOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.PrimApp{Op: ast.Or, Args: []ast.Expr{left, right}, L: p.loc(start)}
	}
	return left, nil
}

func (p *parser) parseAnd() (ast.Expr, error) {
	start := p.cur().start
	left, err := p.parseCmp()
	if err != nil {
		return nil, err
	}
	for p.cur().typ == itemAnd {
		p.advance()
		right, err := p.parseCmp()
		if err != nil {
			return nil, err
		}
		left = &ast.PrimApp{Op: ast.And, Args: []ast.Expr{left, right}, L: p.loc(start)}
	}
	return left, nil
}

var cmpOps = map[itemType]ast.Prim{
	itemLt: ast.Lt, itemLe: ast.Le, itemGt: ast.Gt, itemGe: ast.Ge, itemEqEq: ast.Eq, itemNeq: ast.Neq,
}

func (p *parser) parseCmp() (ast.Expr, error) {
	start := p.cur().start
	left, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	if op, ok := cmpOps[p.cur().typ]; ok {
		p.advance()
		right, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		left = &ast.PrimApp{Op: op, Args: []ast.Expr{left, right}, L: p.loc(start)}
	}
	return left, nil
}

func (p *parser) parseAdd() (ast.Expr, error) {
	start := p.cur().start
	left, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for p.cur().typ == itemPlus || p.cur().typ == itemMinus {
		op := ast.Add
		if p.cur().typ == itemMinus {
			op = ast.Sub
		}
		p.advance()
		right, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		left = &ast.PrimApp{Op: op, Args: []ast.Expr{left, right}, L: p.loc(start)}
	}
	return left, nil
}

func (p *parser) parseMul() (ast.Expr, error) {
	start := p.cur().start
	left, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for p.cur().typ == itemStar {
		p.advance()
		right, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		left = &ast.PrimApp{Op: ast.Mul, Args: []ast.Expr{left, right}, L: p.loc(start)}
	}
	return left, nil
}

func (p *parser) parseAtom() (ast.Expr, error) {
	start := p.cur().start
	switch p.cur().typ {
	case itemNum:
		tok := p.advance()
		var v int64
		if _, err := fmt.Sscanf(tok.val, "%d", &v); err != nil {
			return nil, fmt.Errorf("syntax: malformed integer literal %q at offset %d", tok.val, tok.start)
		}
		return &ast.Num{Value: v, L: p.loc(start)}, nil

	case itemTrue:
		p.advance()
		return &ast.Bool{Value: true, L: p.loc(start)}, nil

	case itemFalse:
		p.advance()
		return &ast.Bool{Value: false, L: p.loc(start)}, nil

	case itemLParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(itemRParen); err != nil {
			return nil, err
		}
		return e, nil

	case itemLet:
		return p.parseLet()

	case itemIf:
		return p.parseIf()

	case itemDef:
		return p.parseFunDefs()

	case itemIdent:
		tok := p.advance()
		if p.cur().typ == itemLParen {
			p.advance()
			args, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(itemRParen); err != nil {
				return nil, err
			}
			if prim, ok := unaryPrims[tok.val]; ok {
				if len(args) != prim.Arity() {
					return nil, fmt.Errorf("syntax: %q expects %d argument(s), found %d at offset %d", tok.val, prim.Arity(), len(args), tok.start)
				}
				return &ast.PrimApp{Op: prim, Args: args, L: p.loc(start)}, nil
			}
			return &ast.Call{Fun: tok.val, Args: args, L: p.loc(start)}, nil
		}
		return &ast.Var{Name: tok.val, L: p.loc(start)}, nil

	default:
		return nil, fmt.Errorf("syntax: unexpected %s at offset %d", describe(p.cur().typ), p.cur().start)
	}
}

func (p *parser) parseLet() (ast.Expr, error) {
	start := p.cur().start
	p.advance() // "let"

	var bindings []ast.Binding
	for {
		nameTok, err := p.expect(itemIdent)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(itemEquals); err != nil {
			return nil, err
		}
		rhs, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, ast.Binding{
			Var:  ast.Param{Name: nameTok.val, Loc: ast.SrcLoc{StartIx: nameTok.start, EndIx: nameTok.end}},
			Expr: rhs,
		})
		if p.cur().typ != itemComma {
			break
		}
		p.advance()
	}

	if _, err := p.expect(itemIn); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.Let{Bindings: bindings, Body: body, L: p.loc(start)}, nil
}

func (p *parser) parseIf() (ast.Expr, error) {
	start := p.cur().start
	p.advance() // "if"
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(itemColon); err != nil {
		return nil, err
	}
	thn, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(itemElse); err != nil {
		return nil, err
	}
	if _, err := p.expect(itemColon); err != nil {
		return nil, err
	}
	els, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.If{Cond: cond, Thn: thn, Els: els, L: p.loc(start)}, nil
}

func (p *parser) parseFunDefs() (ast.Expr, error) {
	start := p.cur().start

	p.advance() // "def"
	var decls []ast.FunDecl
	for {
		decl, err := p.parseFunDecl()
		if err != nil {
			return nil, err
		}
		decls = append(decls, decl)
		if p.cur().typ != itemAnd {
			break
		}
		p.advance() // "and"
		if _, err := p.expect(itemDef); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(itemIn); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.FunDefs{Decls: decls, Body: body, L: p.loc(start)}, nil
}

func (p *parser) parseFunDecl() (ast.FunDecl, error) {
	start := p.cur().start
	nameTok, err := p.expect(itemIdent)
	if err != nil {
		return ast.FunDecl{}, err
	}
	if _, err := p.expect(itemLParen); err != nil {
		return ast.FunDecl{}, err
	}
	params, err := p.parseParamList()
	if err != nil {
		return ast.FunDecl{}, err
	}
	if _, err := p.expect(itemRParen); err != nil {
		return ast.FunDecl{}, err
	}
	if _, err := p.expect(itemColon); err != nil {
		return ast.FunDecl{}, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return ast.FunDecl{}, err
	}
	return ast.FunDecl{Name: nameTok.val, Params: params, Body: body, Loc: p.loc(start)}, nil
}
