package parser

import (
	"fmt"
	"strings"
)

// Emitter prints a tree back to Python source text.
type Emitter struct{}

func (e *Emitter) Emit(root *Node) ([]byte, error) {
	builder := &strings.Builder{}
	switch root.Kind {
	case KindModule:
		for i, stmt := range root.Body {
			if i > 0 && stmt.Kind == KindFunctionDef {
				builder.WriteString("\n")
			}
			e.emitStatement(builder, stmt, 0)
		}
	default:
		e.emitStatement(builder, root, 0)
	}
	return []byte(builder.String()), nil
}

func (e *Emitter) emitSuite(b *strings.Builder, suite []*Node, depth int) {
	if len(suite) == 0 {
		e.line(b, depth, "pass")
		return
	}
	for _, stmt := range suite {
		e.emitStatement(b, stmt, depth)
	}
}

func (e *Emitter) line(b *strings.Builder, depth int, text string) {
	b.WriteString(strings.Repeat("    ", depth))
	b.WriteString(text)
	b.WriteString("\n")
}

func (e *Emitter) emitStatement(b *strings.Builder, n *Node, depth int) {
	switch n.Kind {
	case KindFunctionDef:
		e.line(b, depth, fmt.Sprintf("def %s(%s):", n.Name, strings.Join(n.Params, ", ")))
		e.emitSuite(b, n.Body, depth+1)
	case KindReturn:
		if n.Value == nil {
			e.line(b, depth, "return")
		} else {
			e.line(b, depth, "return "+e.expr(n.Value, 0))
		}
	case KindAssign:
		var parts []string
		for _, target := range n.Targets {
			parts = append(parts, e.expr(target, 0))
		}
		parts = append(parts, e.expr(n.Value, 0))
		e.line(b, depth, strings.Join(parts, " = "))
	case KindAugAssign:
		e.line(b, depth, fmt.Sprintf("%s %s %s", e.expr(n.Target, 0), n.Op, e.expr(n.Value, 0)))
	case KindExpr:
		e.line(b, depth, e.expr(n.Value, 0))
	case KindIf:
		e.emitIf(b, n, depth, "if")
	case KindFor:
		e.line(b, depth, fmt.Sprintf("for %s in %s:", e.expr(n.Target, 0), e.expr(n.Iter, 0)))
		e.emitSuite(b, n.Body, depth+1)
	case KindWhile:
		e.line(b, depth, "while "+e.expr(n.Test, 0)+":")
		e.emitSuite(b, n.Body, depth+1)
	case KindBreak:
		e.line(b, depth, "break")
	case KindContinue:
		e.line(b, depth, "continue")
	case KindPass:
		e.line(b, depth, "pass")
	case KindUnsupported:
		e.emitRaw(b, n.Raw, depth)
	default:
		e.line(b, depth, "pass")
	}
}

// emitRaw re-indents preserved source text of constructs outside the
// analyzed subset.
func (e *Emitter) emitRaw(b *strings.Builder, raw string, depth int) {
	lines := strings.Split(raw, "\n")
	prefix := ""
	if len(lines) > 0 {
		trimmed := strings.TrimLeft(lines[0], " \t")
		prefix = lines[0][:len(lines[0])-len(trimmed)]
	}
	for _, line := range lines {
		e.line(b, depth, strings.TrimPrefix(line, prefix))
	}
}

// emitIf prints an if chain, folding a single-If orelse back into elif form.
func (e *Emitter) emitIf(b *strings.Builder, n *Node, depth int, keyword string) {
	e.line(b, depth, keyword+" "+e.expr(n.Test, 0)+":")
	e.emitSuite(b, n.Body, depth+1)
	if len(n.Orelse) == 0 {
		return
	}
	if len(n.Orelse) == 1 && n.Orelse[0].Kind == KindIf {
		e.emitIf(b, n.Orelse[0], depth, "elif")
		return
	}
	e.line(b, depth, "else:")
	e.emitSuite(b, n.Orelse, depth+1)
}

// Operator precedence, low to high; operands of lower precedence than their
// context are parenthesized.
const (
	precTernary = iota + 1
	precOr
	precAnd
	precNot
	precCompare
	precBitOr
	precBitXor
	precBitAnd
	precShift
	precAdd
	precMul
	precUnary
	precPower
	precAtom
)

func binPrecedence(op string) int {
	switch op {
	case "|":
		return precBitOr
	case "^":
		return precBitXor
	case "&":
		return precBitAnd
	case "<<", ">>":
		return precShift
	case "+", "-":
		return precAdd
	case "*", "/", "//", "%", "@":
		return precMul
	case "**":
		return precPower
	}
	return precAdd
}

func precedence(n *Node) int {
	switch n.Kind {
	case KindIfExp:
		return precTernary
	case KindBoolOp:
		if n.Op == "or" {
			return precOr
		}
		return precAnd
	case KindUnaryOp:
		if n.Op == "not" {
			return precNot
		}
		return precUnary
	case KindCompare:
		return precCompare
	case KindBinOp:
		return binPrecedence(n.Op)
	}
	return precAtom
}

func (e *Emitter) expr(n *Node, context int) string {
	if n == nil {
		return ""
	}
	text := e.exprText(n)
	if precedence(n) < context {
		return "(" + text + ")"
	}
	return text
}

func (e *Emitter) exprText(n *Node) string {
	switch n.Kind {
	case KindName:
		return n.Name
	case KindConstant:
		return n.Raw
	case KindBinOp:
		prec := binPrecedence(n.Op)
		// left associative except **
		left, right := prec, prec+1
		if n.Op == "**" {
			left, right = prec+1, prec
		}
		return fmt.Sprintf("%s %s %s", e.expr(n.Left, left), n.Op, e.expr(n.Right, right))
	case KindBoolOp:
		prec := precedence(n)
		var parts []string
		for _, v := range n.Values {
			parts = append(parts, e.expr(v, prec))
		}
		return strings.Join(parts, " "+n.Op+" ")
	case KindUnaryOp:
		prec := precedence(n)
		if n.Op == "not" {
			return "not " + e.expr(n.Operand, prec)
		}
		return n.Op + e.expr(n.Operand, prec)
	case KindCompare:
		out := e.expr(n.Left, precCompare+1)
		for i, cmp := range n.Comparators {
			op := "=="
			if i < len(n.Ops) {
				op = n.Ops[i]
			}
			out += " " + op + " " + e.expr(cmp, precCompare+1)
		}
		return out
	case KindIfExp:
		return fmt.Sprintf("%s if %s else %s",
			e.expr(n.Then, precTernary+1), e.expr(n.Test, precTernary+1), e.expr(n.Else, precTernary))
	case KindCall:
		var args []string
		for _, arg := range n.Args {
			args = append(args, e.expr(arg, 0))
		}
		return e.expr(n.Func, precAtom) + "(" + strings.Join(args, ", ") + ")"
	case KindAttribute:
		return e.expr(n.Value, precAtom) + "." + n.Name
	case KindSubscript:
		return e.expr(n.Value, precAtom) + "[" + e.expr(n.Index, 0) + "]"
	case KindSlice:
		out := e.expr(n.Lower, 0) + ":" + e.expr(n.Upper, 0)
		if n.Step != nil {
			out += ":" + e.expr(n.Step, 0)
		}
		return out
	case KindList:
		return "[" + e.joinElements(n.Elts) + "]"
	case KindSet:
		if len(n.Elts) == 0 {
			return "set()"
		}
		return "{" + e.joinElements(n.Elts) + "}"
	case KindTuple:
		if len(n.Elts) == 1 {
			return e.expr(n.Elts[0], precTernary) + ","
		}
		return e.joinElements(n.Elts)
	case KindDict:
		var parts []string
		for i, key := range n.Keys {
			parts = append(parts, e.expr(key, 0)+": "+e.expr(n.Values[i], 0))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindUnsupported:
		return n.Raw
	}
	return ""
}

func (e *Emitter) joinElements(elts []*Node) string {
	var parts []string
	for _, elt := range elts {
		parts = append(parts, e.expr(elt, precTernary))
	}
	return strings.Join(parts, ", ")
}
