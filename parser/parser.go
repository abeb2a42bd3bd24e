package parser

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/viant/afs"
)

// File is a parsed source file: the structured tree, the raw source it was
// produced from, and the function table built by a single walk.
type File struct {
	Path      string
	Source    []byte
	Root      *Node
	Functions map[string]*Node
}

// Parser converts Python source into the structured tree the analysis
// consumes. Parsing itself is delegated to tree-sitter.
type Parser struct {
	parser *sitter.Parser
	fs     afs.Service
}

func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &Parser{parser: p, fs: afs.New()}
}

// ParseFile loads a source file (local path or afs URL) and parses it.
func (p *Parser) ParseFile(ctx context.Context, location string) (*File, error) {
	src, err := p.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, err
	}
	file, err := p.ParseSource(src)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", location, err)
	}
	file.Path = location
	return file, nil
}

// ParseSource parses source bytes into a File.
func (p *Parser) ParseSource(src []byte) (*File, error) {
	tree := p.parser.Parse(nil, src)
	if tree == nil {
		return nil, errors.New("failed to parse source")
	}
	c := &converter{src: src}
	root := c.convertModule(tree.RootNode())
	return &File{Source: src, Root: root, Functions: CollectFunctions(root)}, nil
}

type converter struct {
	src    []byte
	nextID int
}

func (c *converter) text(n *sitter.Node) string {
	return string(c.src[n.StartByte():n.EndByte()])
}

func (c *converter) node(kind Kind, n *sitter.Node) *Node {
	c.nextID++
	return &Node{
		Kind:      kind,
		ID:        c.nextID,
		Line:      int(n.StartPoint().Row) + 1,
		EndLine:   int(n.EndPoint().Row) + 1,
		StartByte: n.StartByte(),
		EndByte:   n.EndByte(),
	}
}

func (c *converter) convertModule(root *sitter.Node) *Node {
	module := c.node(KindModule, root)
	module.Body = c.convertSuite(root)
	return module
}

// convertSuite converts the named statement children of a block-like node.
func (c *converter) convertSuite(n *sitter.Node) []*Node {
	var out []*Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		ch := n.NamedChild(i)
		if ch.Type() == "comment" {
			continue
		}
		out = append(out, c.convertStatement(ch))
	}
	return out
}

func (c *converter) convertStatement(n *sitter.Node) *Node {
	switch n.Type() {
	case "function_definition":
		fn := c.node(KindFunctionDef, n)
		if name := n.ChildByFieldName("name"); name != nil {
			fn.Name = c.text(name)
		}
		if params := n.ChildByFieldName("parameters"); params != nil {
			for i := 0; i < int(params.NamedChildCount()); i++ {
				// positional plain names only; defaults, keyword-only and
				// varargs are not consumed
				if param := params.NamedChild(i); param.Type() == "identifier" {
					fn.Params = append(fn.Params, c.text(param))
				}
			}
		}
		if body := n.ChildByFieldName("body"); body != nil {
			fn.Body = c.convertSuite(body)
		}
		return fn
	case "expression_statement":
		inner := n.NamedChild(0)
		if inner == nil {
			return c.node(KindUnsupported, n)
		}
		switch inner.Type() {
		case "assignment":
			return c.convertAssign(inner)
		case "augmented_assignment":
			aug := c.node(KindAugAssign, inner)
			if left := inner.ChildByFieldName("left"); left != nil {
				aug.Target = c.convertExpr(left)
			}
			if op := inner.ChildByFieldName("operator"); op != nil {
				aug.Op = c.text(op)
			}
			if right := inner.ChildByFieldName("right"); right != nil {
				aug.Value = c.convertExpr(right)
			}
			return aug
		}
		expr := c.node(KindExpr, n)
		expr.Value = c.convertExpr(inner)
		return expr
	case "return_statement":
		ret := c.node(KindReturn, n)
		if n.NamedChildCount() > 0 {
			ret.Value = c.convertExpr(n.NamedChild(0))
		}
		return ret
	case "if_statement":
		return c.convertIf(n, int(n.EndPoint().Row)+1)
	case "for_statement":
		loop := c.node(KindFor, n)
		if left := n.ChildByFieldName("left"); left != nil {
			loop.Target = c.convertExpr(left)
		}
		if right := n.ChildByFieldName("right"); right != nil {
			loop.Iter = c.convertExpr(right)
		}
		if body := n.ChildByFieldName("body"); body != nil {
			loop.Body = c.convertSuite(body)
		}
		return loop
	case "while_statement":
		loop := c.node(KindWhile, n)
		if cond := n.ChildByFieldName("condition"); cond != nil {
			loop.Test = c.convertExpr(cond)
		}
		if body := n.ChildByFieldName("body"); body != nil {
			loop.Body = c.convertSuite(body)
		}
		return loop
	case "break_statement":
		return c.node(KindBreak, n)
	case "continue_statement":
		return c.node(KindContinue, n)
	case "pass_statement":
		return c.node(KindPass, n)
	}
	// outside the analyzed subset; keep the raw text so re-emission is lossless
	stmt := c.node(KindUnsupported, n)
	stmt.Raw = c.text(n)
	return stmt
}

// convertIf builds the If chain; elif clauses nest as a single-statement
// orelse. Every node of one chain shares the chain's end line so merge
// locations agree across levels.
func (c *converter) convertIf(n *sitter.Node, chainEnd int) *Node {
	stmt := c.node(KindIf, n)
	stmt.EndLine = chainEnd
	if cond := n.ChildByFieldName("condition"); cond != nil {
		stmt.Test = c.convertExpr(cond)
	}
	if cons := n.ChildByFieldName("consequence"); cons != nil {
		stmt.Body = c.convertSuite(cons)
	}
	// alternatives appear as elif_clause/else_clause siblings; rebuild the
	// nested orelse shape
	current := stmt
	for i := 0; i < int(n.NamedChildCount()); i++ {
		ch := n.NamedChild(i)
		switch ch.Type() {
		case "elif_clause":
			nested := c.node(KindIf, ch)
			nested.EndLine = chainEnd
			if cond := ch.ChildByFieldName("condition"); cond != nil {
				nested.Test = c.convertExpr(cond)
			}
			if cons := ch.ChildByFieldName("consequence"); cons != nil {
				nested.Body = c.convertSuite(cons)
			}
			current.Orelse = []*Node{nested}
			current = nested
		case "else_clause":
			if body := ch.ChildByFieldName("body"); body != nil {
				current.Orelse = c.convertSuite(body)
			}
		}
	}
	return stmt
}

func (c *converter) convertAssign(n *sitter.Node) *Node {
	stmt := c.node(KindAssign, n)
	right := n.ChildByFieldName("right")
	if left := n.ChildByFieldName("left"); left != nil {
		stmt.Targets = append(stmt.Targets, c.convertExpr(left))
	}
	// chained assignment (a = b = value) nests on the right
	for right != nil && right.Type() == "assignment" {
		if left := right.ChildByFieldName("left"); left != nil {
			stmt.Targets = append(stmt.Targets, c.convertExpr(left))
		}
		right = right.ChildByFieldName("right")
	}
	if right != nil {
		stmt.Value = c.convertExpr(right)
	}
	return stmt
}

func (c *converter) convertExpr(n *sitter.Node) *Node {
	switch n.Type() {
	case "parenthesized_expression":
		if inner := n.NamedChild(0); inner != nil {
			return c.convertExpr(inner)
		}
	case "identifier":
		name := c.node(KindName, n)
		name.Name = c.text(n)
		return name
	case "integer", "float", "string", "concatenated_string", "true", "false", "none":
		lit := c.node(KindConstant, n)
		lit.Raw = c.text(n)
		return lit
	case "binary_operator":
		bin := c.node(KindBinOp, n)
		bin.Left = c.convertExpr(n.ChildByFieldName("left"))
		bin.Right = c.convertExpr(n.ChildByFieldName("right"))
		if op := n.ChildByFieldName("operator"); op != nil {
			bin.Op = c.text(op)
		}
		return bin
	case "boolean_operator":
		op := c.node(KindBoolOp, n)
		if o := n.ChildByFieldName("operator"); o != nil {
			op.Op = c.text(o)
		}
		op.Values = []*Node{
			c.convertExpr(n.ChildByFieldName("left")),
			c.convertExpr(n.ChildByFieldName("right")),
		}
		return op
	case "not_operator":
		un := c.node(KindUnaryOp, n)
		un.Op = "not"
		if arg := n.ChildByFieldName("argument"); arg != nil {
			un.Operand = c.convertExpr(arg)
		}
		return un
	case "unary_operator":
		un := c.node(KindUnaryOp, n)
		if op := n.ChildByFieldName("operator"); op != nil {
			un.Op = c.text(op)
		}
		if arg := n.ChildByFieldName("argument"); arg != nil {
			un.Operand = c.convertExpr(arg)
		}
		return un
	case "comparison_operator":
		cmp := c.node(KindCompare, n)
		for i := 0; i < int(n.ChildCount()); i++ {
			ch := n.Child(i)
			if ch.IsNamed() {
				if cmp.Left == nil {
					cmp.Left = c.convertExpr(ch)
				} else {
					cmp.Comparators = append(cmp.Comparators, c.convertExpr(ch))
				}
			} else {
				cmp.Ops = append(cmp.Ops, c.text(ch))
			}
		}
		return cmp
	case "call":
		call := c.node(KindCall, n)
		if fn := n.ChildByFieldName("function"); fn != nil {
			call.Func = c.convertExpr(fn)
		}
		if args := n.ChildByFieldName("arguments"); args != nil {
			for i := 0; i < int(args.NamedChildCount()); i++ {
				arg := args.NamedChild(i)
				if arg.Type() == "keyword_argument" || arg.Type() == "comment" {
					// keyword arguments are not consumed
					continue
				}
				call.Args = append(call.Args, c.convertExpr(arg))
			}
		}
		return call
	case "attribute":
		attr := c.node(KindAttribute, n)
		if obj := n.ChildByFieldName("object"); obj != nil {
			attr.Value = c.convertExpr(obj)
		}
		if fld := n.ChildByFieldName("attribute"); fld != nil {
			attr.Name = c.text(fld)
		}
		return attr
	case "subscript":
		sub := c.node(KindSubscript, n)
		if value := n.ChildByFieldName("value"); value != nil {
			sub.Value = c.convertExpr(value)
		}
		if idx := n.ChildByFieldName("subscript"); idx != nil {
			sub.Index = c.convertExpr(idx)
		}
		return sub
	case "slice":
		return c.convertSlice(n)
	case "list":
		lst := c.node(KindList, n)
		lst.Elts = c.convertElements(n)
		return lst
	case "set":
		set := c.node(KindSet, n)
		set.Elts = c.convertElements(n)
		return set
	case "tuple", "expression_list", "pattern_list", "tuple_pattern":
		tup := c.node(KindTuple, n)
		tup.Elts = c.convertElements(n)
		return tup
	case "dictionary":
		dict := c.node(KindDict, n)
		for i := 0; i < int(n.NamedChildCount()); i++ {
			pair := n.NamedChild(i)
			if pair.Type() != "pair" {
				continue
			}
			dict.Keys = append(dict.Keys, c.convertExpr(pair.ChildByFieldName("key")))
			dict.Values = append(dict.Values, c.convertExpr(pair.ChildByFieldName("value")))
		}
		return dict
	case "conditional_expression":
		cond := c.node(KindIfExp, n)
		if n.NamedChildCount() >= 3 {
			cond.Then = c.convertExpr(n.NamedChild(0))
			cond.Test = c.convertExpr(n.NamedChild(1))
			cond.Else = c.convertExpr(n.NamedChild(2))
		}
		return cond
	}
	expr := c.node(KindUnsupported, n)
	expr.Raw = c.text(n)
	return expr
}

func (c *converter) convertElements(n *sitter.Node) []*Node {
	var out []*Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		ch := n.NamedChild(i)
		if ch.Type() == "comment" {
			continue
		}
		out = append(out, c.convertExpr(ch))
	}
	return out
}

// convertSlice splits a[l:u:s] bounds on the ':' separators.
func (c *converter) convertSlice(n *sitter.Node) *Node {
	slice := c.node(KindSlice, n)
	section := 0
	for i := 0; i < int(n.ChildCount()); i++ {
		ch := n.Child(i)
		if !ch.IsNamed() {
			if strings.TrimSpace(c.text(ch)) == ":" {
				section++
			}
			continue
		}
		bound := c.convertExpr(ch)
		switch section {
		case 0:
			slice.Lower = bound
		case 1:
			slice.Upper = bound
		default:
			slice.Step = bound
		}
	}
	return slice
}
