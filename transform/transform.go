package transform

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/viant/pyflow/analyzer"
	"github.com/viant/pyflow/analyzer/flow"
	"github.com/viant/pyflow/parser"
)

// Run drives the transform pipeline to a fixpoint: dead assignments are
// removed, unremovable dead names are renamed to underscore, dominating
// single-constant definitions are propagated into their use sites, and
// emptied blocks are repaired. Once the tree stops changing, the variables
// that do not affect any return are reported and the program is re-emitted.
func Run(file *parser.File, out io.Writer) error {
	tree := file.Root
	for {
		snapshot := tree.Copy()
		removeDead(tree)
		repairBlocks(tree)
		renameUnderscore(tree)
		propagateConstants(tree)
		removeDead(tree)
		repairBlocks(tree)
		if tree.Equal(snapshot) {
			break
		}
	}

	findings := NewDeadCode(parser.CollectFunctions(tree)).Find()
	names := make([]string, 0, len(findings.ReturnIrrelevant))
	for name := range findings.ReturnIrrelevant {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		irrelevant := findings.ReturnIrrelevant[name]
		if len(irrelevant) == 0 {
			continue
		}
		fmt.Fprintln(out, "These variables do not affect return in function:", name)
		fmt.Fprintln(out, "["+strings.Join(irrelevant, ", ")+"]")
	}

	emitter := &parser.Emitter{}
	src, err := emitter.Emit(tree)
	if err != nil {
		return err
	}
	_, err = out.Write(src)
	return err
}

// -----------------------------------------------------------------------------
// Dead assignment removal
// -----------------------------------------------------------------------------

func removeDead(tree *parser.Node) {
	findings := NewDeadCode(parser.CollectFunctions(tree)).Find()
	forEachFunction(tree, func(fn *parser.Node) {
		filterFunctionSuites(fn, func(suite []*parser.Node) []*parser.Node {
			var out []*parser.Node
			for _, stmt := range suite {
				if stmt.Kind == parser.KindAssign && !keepAssign(stmt, fn.Name, findings) {
					continue
				}
				out = append(out, stmt)
			}
			return out
		})
	})
}

// keepAssign decides whether an assignment survives; a multi-target
// statement stays as long as any live target remains.
func keepAssign(stmt *parser.Node, fn string, findings *Findings) bool {
	if len(stmt.Targets) == 1 && stmt.Targets[0].Kind == parser.KindName {
		target := stmt.Targets[0]
		if findings.isOverridden(fn, target.Name, target.Line) || findings.isUnused(fn, target.Name) {
			return false
		}
		return true
	}
	for _, target := range stmt.Targets {
		if target.Kind != parser.KindName {
			return true
		}
	}
	var live []*parser.Node
	for _, target := range stmt.Targets {
		if findings.isOverridden(fn, target.Name, target.Line) || findings.isUnused(fn, target.Name) {
			continue
		}
		live = append(live, target)
	}
	if len(live) == 0 {
		return false
	}
	stmt.Targets = live
	return true
}

// -----------------------------------------------------------------------------
// Underscore renaming
// -----------------------------------------------------------------------------

// renameUnderscore renames dead names that cannot be removed syntactically
// (iterator targets and similar) to underscore.
func renameUnderscore(tree *parser.Node) {
	findings := NewDeadCode(parser.CollectFunctions(tree)).Find()
	forEachFunction(tree, func(fn *parser.Node) {
		rewriteFunctionNames(fn, func(name *parser.Node) *parser.Node {
			if findings.isOverridden(fn.Name, name.Name, name.Line) || findings.isUnused(fn.Name, name.Name) {
				name.Name = "_"
			}
			return name
		})
	})
}

// -----------------------------------------------------------------------------
// Constant propagation
// -----------------------------------------------------------------------------

// propagateConstants substitutes, at every use site, the dominating single
// constant definition for the name read.
func propagateConstants(tree *parser.Node) {
	functions := parser.CollectFunctions(tree)
	analysis := analyzer.New(functions, analyzer.WithConstantTracking())
	results := map[string]*flow.Result{}
	for name, fn := range functions {
		results[name] = analysis.ProcessFunction(fn, nil)
	}
	forEachFunction(tree, func(fn *parser.Node) {
		result := results[fn.Name]
		if result == nil {
			return
		}
		index := &DeadCode{defs: result.Refs, scopes: result.Scopes}
		rewriteFunctionNames(fn, func(name *parser.Node) *parser.Node {
			return substituteConstant(name, result, index)
		})
	})
}

func substituteConstant(name *parser.Node, result *flow.Result, index *DeadCode) *parser.Node {
	uses, usedSomewhere := result.Uses[name.Name]
	defs, defined := result.Refs[name.Name]
	if !usedSomewhere || !defined {
		return name
	}
	loc := flow.Real(name.Line)
	if !containsLocation(uses, loc) {
		return name
	}
	if _, isDefLine := defs[loc]; isDefLine {
		return name
	}
	// the newest earlier definition whose scope dominates the use
	scopes := result.Scopes[name.Name]
	useScope := index.scopeForLine(name.Line)
	best, found := flow.Location(0), false
	for _, def := range flow.SortedLocations(defs) {
		if def >= loc {
			break
		}
		if scopes[def].Subsumes(useScope) {
			best, found = def, true
		}
	}
	if !found {
		return name
	}
	deps := defs[best].Deps
	if len(deps) == 1 && deps[0].IsConst() {
		return deps[0].Const.Copy()
	}
	return name
}

// -----------------------------------------------------------------------------
// Block repair
// -----------------------------------------------------------------------------

// repairBlocks drops conditionals whose suites were all emptied and for loops
// whose body was emptied; an if that kept an else gets a no-op body instead.
// A while loop is always kept; an emptied body is emitted as pass.
func repairBlocks(tree *parser.Node) {
	forEachFunction(tree, func(fn *parser.Node) {
		fn.Body = repairSuite(fn.Body)
	})
}

func repairSuite(suite []*parser.Node) []*parser.Node {
	var out []*parser.Node
	for _, stmt := range suite {
		switch stmt.Kind {
		case parser.KindIf:
			stmt.Body = repairSuite(stmt.Body)
			stmt.Orelse = repairSuite(stmt.Orelse)
			if len(stmt.Body) == 0 && len(stmt.Orelse) == 0 {
				continue
			}
			if len(stmt.Body) == 0 {
				stmt.Body = []*parser.Node{{Kind: parser.KindPass, Line: stmt.Line, EndLine: stmt.Line}}
			}
		case parser.KindFor:
			stmt.Body = repairSuite(stmt.Body)
			if len(stmt.Body) == 0 {
				continue
			}
		case parser.KindWhile:
			stmt.Body = repairSuite(stmt.Body)
		}
		out = append(out, stmt)
	}
	return out
}

// -----------------------------------------------------------------------------
// Tree helpers
// -----------------------------------------------------------------------------

func forEachFunction(tree *parser.Node, visit func(fn *parser.Node)) {
	tree.Walk(func(n *parser.Node) bool {
		if n.Kind == parser.KindFunctionDef {
			visit(n)
		}
		return true
	})
}

// filterFunctionSuites rebuilds every statement suite of one function,
// without descending into nested function definitions.
func filterFunctionSuites(fn *parser.Node, filter func([]*parser.Node) []*parser.Node) {
	var apply func(suite []*parser.Node) []*parser.Node
	apply = func(suite []*parser.Node) []*parser.Node {
		filtered := filter(suite)
		for _, stmt := range filtered {
			switch stmt.Kind {
			case parser.KindIf:
				stmt.Body = apply(stmt.Body)
				stmt.Orelse = apply(stmt.Orelse)
			case parser.KindFor, parser.KindWhile:
				stmt.Body = apply(stmt.Body)
			}
		}
		return filtered
	}
	fn.Body = apply(fn.Body)
}

// rewriteFunctionNames applies replace to every name node of the function
// body, rewiring substitutions in place; nested functions are left to their
// own visit.
func rewriteFunctionNames(fn *parser.Node, replace func(*parser.Node) *parser.Node) {
	var rewriteExpr func(n *parser.Node) *parser.Node
	rewriteExpr = func(n *parser.Node) *parser.Node {
		if n == nil {
			return nil
		}
		if n.Kind == parser.KindName {
			return replace(n)
		}
		n.Value = rewriteExpr(n.Value)
		n.Test = rewriteExpr(n.Test)
		n.Then = rewriteExpr(n.Then)
		n.Else = rewriteExpr(n.Else)
		n.Target = rewriteExpr(n.Target)
		n.Iter = rewriteExpr(n.Iter)
		n.Left = rewriteExpr(n.Left)
		n.Right = rewriteExpr(n.Right)
		n.Operand = rewriteExpr(n.Operand)
		n.Func = rewriteExpr(n.Func)
		n.Index = rewriteExpr(n.Index)
		n.Lower = rewriteExpr(n.Lower)
		n.Upper = rewriteExpr(n.Upper)
		n.Step = rewriteExpr(n.Step)
		for i, elt := range n.Elts {
			n.Elts[i] = rewriteExpr(elt)
		}
		for i, key := range n.Keys {
			n.Keys[i] = rewriteExpr(key)
		}
		for i, value := range n.Values {
			n.Values[i] = rewriteExpr(value)
		}
		for i, cmp := range n.Comparators {
			n.Comparators[i] = rewriteExpr(cmp)
		}
		for i, arg := range n.Args {
			n.Args[i] = rewriteExpr(arg)
		}
		for i, target := range n.Targets {
			n.Targets[i] = rewriteExpr(target)
		}
		return n
	}
	var walkSuite func(suite []*parser.Node)
	walkSuite = func(suite []*parser.Node) {
		for _, stmt := range suite {
			if stmt.Kind == parser.KindFunctionDef {
				continue
			}
			rewriteExpr(stmt)
			walkSuite(stmt.Body)
			walkSuite(stmt.Orelse)
		}
	}
	walkSuite(fn.Body)
}
