// Package printer renders each compilation stage as an indented text dump,
// in the style of the teacher's ir.Node.Print: one line per node, children
// indented two spaces deeper than their parent. It exists to support the
// driver's staged --target output (SPEC_FULL.md §4 item 2); it is not
// consulted by any other package.
package printer

import (
	"fmt"
	"strconv"
	"strings"

	"fncc/internal/ast"
	"fncc/internal/bound"
	"fncc/internal/ssa"
)

// PrintSurface renders a surface program.
func PrintSurface(p *ast.Prog) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "PROGRAM %s(%s)\n", p.Name, p.Param.Name)
	for _, e := range p.Externs {
		fmt.Fprintf(&sb, "  EXTERN %s(%s)\n", e.Name, joinParams(e.Params))
	}
	printSurfaceExpr(&sb, p.Body, 1)
	return sb.String()
}

func joinParams(params []ast.Param) string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}

func printSurfaceExpr(sb *strings.Builder, e ast.Expr, depth int) {
	indent := strings.Repeat("  ", depth)
	switch n := e.(type) {
	case *ast.Num:
		fmt.Fprintf(sb, "%sNUM %d\n", indent, n.Value)
	case *ast.Bool:
		fmt.Fprintf(sb, "%sBOOL %s\n", indent, strconv.FormatBool(n.Value))
	case *ast.Var:
		fmt.Fprintf(sb, "%sVAR %s\n", indent, n.Name)
	case *ast.PrimApp:
		fmt.Fprintf(sb, "%sPRIM %s\n", indent, n.Op)
		for _, a := range n.Args {
			printSurfaceExpr(sb, a, depth+1)
		}
	case *ast.Let:
		fmt.Fprintf(sb, "%sLET\n", indent)
		for _, b := range n.Bindings {
			fmt.Fprintf(sb, "%s  %s =\n", indent, b.Var.Name)
			printSurfaceExpr(sb, b.Expr, depth+2)
		}
		fmt.Fprintf(sb, "%sIN\n", indent)
		printSurfaceExpr(sb, n.Body, depth+1)
	case *ast.If:
		fmt.Fprintf(sb, "%sIF\n", indent)
		printSurfaceExpr(sb, n.Cond, depth+1)
		fmt.Fprintf(sb, "%sTHEN\n", indent)
		printSurfaceExpr(sb, n.Thn, depth+1)
		fmt.Fprintf(sb, "%sELSE\n", indent)
		printSurfaceExpr(sb, n.Els, depth+1)
	case *ast.FunDefs:
		fmt.Fprintf(sb, "%sDEFS\n", indent)
		for _, d := range n.Decls {
			fmt.Fprintf(sb, "%s  %s(%s) =\n", indent, d.Name, joinParams(d.Params))
			printSurfaceExpr(sb, d.Body, depth+2)
		}
		fmt.Fprintf(sb, "%sIN\n", indent)
		printSurfaceExpr(sb, n.Body, depth+1)
	case *ast.Call:
		fmt.Fprintf(sb, "%sCALL %s\n", indent, n.Fun)
		for _, a := range n.Args {
			printSurfaceExpr(sb, a, depth+1)
		}
	default:
		fmt.Fprintf(sb, "%s<unknown surface node %T>\n", indent, e)
	}
}

// PrintBound renders a resolved program, identical in shape to
// PrintSurface but dumping resolved VarName/FunName identities so that
// binding analysis is visible in the output.
func PrintBound(p *bound.Prog) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "PROGRAM %s(%s)\n", p.Name, p.Param.Name)
	for _, e := range p.Externs {
		fmt.Fprintf(&sb, "  EXTERN %s(%d params)\n", e.Name, len(e.Params))
	}
	printBoundExpr(&sb, p.Body, 1)
	return sb.String()
}

func printBoundExpr(sb *strings.Builder, e bound.Expr, depth int) {
	indent := strings.Repeat("  ", depth)
	switch n := e.(type) {
	case *bound.Num:
		fmt.Fprintf(sb, "%sNUM %d\n", indent, n.Value)
	case *bound.Bool:
		fmt.Fprintf(sb, "%sBOOL %s\n", indent, strconv.FormatBool(n.Value))
	case *bound.Var:
		fmt.Fprintf(sb, "%sVAR %s\n", indent, n.Name)
	case *bound.PrimApp:
		fmt.Fprintf(sb, "%sPRIM %s\n", indent, n.Op)
		for _, a := range n.Args {
			printBoundExpr(sb, a, depth+1)
		}
	case *bound.Let:
		fmt.Fprintf(sb, "%sLET\n", indent)
		for _, b := range n.Bindings {
			fmt.Fprintf(sb, "%s  %s =\n", indent, b.Var.Name)
			printBoundExpr(sb, b.Expr, depth+2)
		}
		fmt.Fprintf(sb, "%sIN\n", indent)
		printBoundExpr(sb, n.Body, depth+1)
	case *bound.If:
		fmt.Fprintf(sb, "%sIF\n", indent)
		printBoundExpr(sb, n.Cond, depth+1)
		fmt.Fprintf(sb, "%sTHEN\n", indent)
		printBoundExpr(sb, n.Thn, depth+1)
		fmt.Fprintf(sb, "%sELSE\n", indent)
		printBoundExpr(sb, n.Els, depth+1)
	case *bound.FunDefs:
		fmt.Fprintf(sb, "%sDEFS\n", indent)
		for _, d := range n.Decls {
			fmt.Fprintf(sb, "%s  %s =\n", indent, d.Name)
			printBoundExpr(sb, d.Body, depth+2)
		}
		fmt.Fprintf(sb, "%sIN\n", indent)
		printBoundExpr(sb, n.Body, depth+1)
	case *bound.Call:
		fmt.Fprintf(sb, "%sCALL %s\n", indent, n.Fun)
		for _, a := range n.Args {
			printBoundExpr(sb, a, depth+1)
		}
	default:
		fmt.Fprintf(sb, "%s<unknown bound node %T>\n", indent, e)
	}
}

// PrintSSA renders an SSA program. ssa.Program already knows how to render
// itself; this wrapper exists so callers only ever import internal/printer
// for stage output, keeping the dependency direction one-way.
func PrintSSA(p *ssa.Program) string {
	return p.String()
}
