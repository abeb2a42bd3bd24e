package analyzer

import (
	"github.com/viant/pyflow/analyzer/flow"
	"github.com/viant/pyflow/parser"
)

// -----------------------------------------------------------------------------
// Node traversal
// -----------------------------------------------------------------------------

// process evaluates one node. For expression-shaped nodes it returns the
// ordered list of tokens the expression reads (duplicates retained);
// statement-shaped nodes mutate the tables and return nil. Unsupported nodes
// are skipped silently.
func (a *Analysis) process(n *parser.Node, refs flow.Table, last flow.LastUpdate, uses flow.UseTable) []flow.Token {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case parser.KindReturn:
		a.handleReturn(n, refs, last, uses)
		return nil
	case parser.KindConstant:
		if !a.trackConstants {
			return nil
		}
		return []flow.Token{flow.ConstToken(n)}
	case parser.KindName:
		return []flow.Token{flow.NameToken(n.Name)}
	case parser.KindExpr:
		return a.process(n.Value, refs, last, uses)
	case parser.KindUnaryOp:
		return a.process(n.Operand, refs, last, uses)
	case parser.KindBinOp:
		return append(a.process(n.Left, refs, last, uses), a.process(n.Right, refs, last, uses)...)
	case parser.KindBoolOp:
		var reads []flow.Token
		for _, value := range n.Values {
			reads = append(reads, a.process(value, refs, last, uses)...)
		}
		return reads
	case parser.KindCompare:
		reads := a.process(n.Left, refs, last, uses)
		for _, cmp := range n.Comparators {
			reads = append(reads, a.process(cmp, refs, last, uses)...)
		}
		return reads
	case parser.KindList, parser.KindTuple, parser.KindSet:
		var reads []flow.Token
		for _, elt := range n.Elts {
			reads = append(reads, a.process(elt, refs, last, uses)...)
		}
		return reads
	case parser.KindDict:
		var reads []flow.Token
		for _, key := range n.Keys {
			reads = append(reads, a.process(key, refs, last, uses)...)
		}
		for _, value := range n.Values {
			reads = append(reads, a.process(value, refs, last, uses)...)
		}
		return reads
	case parser.KindIfExp:
		reads := a.process(n.Test, refs, last, uses)
		reads = append(reads, a.process(n.Then, refs, last, uses)...)
		return append(reads, a.process(n.Else, refs, last, uses)...)
	case parser.KindAttribute:
		reads := a.process(n.Value, refs, last, uses)
		return append(reads, flow.NameToken(n.Name))
	case parser.KindSubscript:
		return append(a.process(n.Value, refs, last, uses), a.process(n.Index, refs, last, uses)...)
	case parser.KindSlice:
		return append(a.process(n.Lower, refs, last, uses), a.process(n.Upper, refs, last, uses)...)
	case parser.KindCall:
		return a.handleCall(n, refs, last, uses)
	case parser.KindAssign:
		a.handleAssign(n, refs, last, uses)
		return nil
	case parser.KindAugAssign:
		a.handleAugAssign(n, refs, last, uses)
		return nil
	case parser.KindIf:
		a.pushScope(n.ID)
		a.processIf(n, refs, last, uses)
		return nil
	case parser.KindFor:
		a.handleFor(n, refs, last, uses)
		return nil
	case parser.KindWhile:
		a.pushScope(n.ID)
		a.loopFixpoint(n, n.Body, refs, last, uses)
		return nil
	case parser.KindBreak, parser.KindContinue, parser.KindPass:
		return nil
	}
	return nil
}

// -------------------- Returns -------------------------

func (a *Analysis) handleReturn(n *parser.Node, refs flow.Table, last flow.LastUpdate, uses flow.UseTable) {
	reads := a.process(n.Value, refs, last, uses)
	loc := flow.Real(n.Line)
	refs.Set("return", loc, flow.Entry{Deps: reads})
	a.scopes.Set("return", loc, a.scope)
	for _, t := range reads {
		uses.Add(t, loc)
	}
}

// -------------------- Calls -------------------------

// handleCall evaluates a call expression. In analysis mode a user-defined
// callee is descended via the call join; any other name callee contributes
// its bare name plus the argument reads. Propagation mode never descends.
func (a *Analysis) handleCall(n *parser.Node, refs flow.Table, last flow.LastUpdate, uses flow.UseTable) []flow.Token {
	callLoc := flow.Real(n.Line)
	if a.trackConstants {
		var reads []flow.Token
		if n.Func != nil && n.Func.Kind == parser.KindName {
			reads = append(reads, flow.NameToken(n.Func.Name))
		}
		for _, arg := range n.Args {
			reads = append(reads, a.process(arg, refs, last, uses)...)
		}
		for _, t := range reads {
			uses.Add(t, callLoc)
		}
		return reads
	}
	if n.Func != nil && n.Func.Kind == parser.KindName {
		callee := n.Func.Name
		if fn, ok := a.functions[callee]; ok {
			argLists := make([][]flow.Token, 0, len(n.Args))
			var returnVars []flow.Token
			for _, arg := range n.Args {
				cur := a.process(arg, refs, last, uses)
				argLists = append(argLists, cur)
				returnVars = append(returnVars, cur...)
			}
			for _, t := range returnVars {
				uses.Add(t, callLoc)
			}
			// black-box on arity mismatch or a callee already on the stack:
			// no dependency refinement is recorded
			if res := a.ProcessFunction(fn, argLists); res != nil {
				refs.Set(callee, callLoc, flow.Entry{Join: res.Refs})
			}
			return append([]flow.Token{flow.NameToken(callee)}, returnVars...)
		}
		// non-user callee: assume every input affects the output
		reads := []flow.Token{flow.NameToken(callee)}
		for _, arg := range n.Args {
			reads = append(reads, a.process(arg, refs, last, uses)...)
		}
		for _, t := range reads {
			uses.Add(t, callLoc)
		}
		return reads
	}
	var reads []flow.Token
	for _, arg := range n.Args {
		reads = append(reads, a.process(arg, refs, last, uses)...)
	}
	for _, t := range reads {
		uses.Add(t, callLoc)
	}
	return reads
}

// -------------------- Assignments -------------------------

func (a *Analysis) handleAssign(n *parser.Node, refs flow.Table, last flow.LastUpdate, uses flow.UseTable) {
	for _, target := range n.Targets {
		switch target.Kind {
		case parser.KindTuple:
			if n.Value != nil && n.Value.Kind == parser.KindTuple && len(target.Elts) == len(n.Value.Elts) {
				// element-wise desugaring of a tuple-to-tuple assignment
				for i, elt := range target.Elts {
					a.updateReferencesCheckAugmentation(elt, n.Value.Elts[i], refs, last, uses)
				}
				continue
			}
			a.updateReferencesCheckAugmentation(target, n.Value, refs, last, uses)
		case parser.KindSubscript:
			// a[b] = e updates only a; the index contribution is dropped
			a.updateReferences(peelSubscript(target), n.Value, refs, last, uses, false)
		default:
			a.updateReferencesCheckAugmentation(target, n.Value, refs, last, uses)
		}
	}
}

func (a *Analysis) handleAugAssign(n *parser.Node, refs flow.Table, last flow.LastUpdate, uses flow.UseTable) {
	target := n.Target
	if target == nil {
		return
	}
	if target.Kind == parser.KindSubscript {
		// the index does not change under an augmented store
		target = peelSubscript(target)
	}
	a.updateReferences(target, n.Value, refs, last, uses, true)
}

func peelSubscript(target *parser.Node) *parser.Node {
	for target != nil && target.Kind == parser.KindSubscript {
		target = target.Value
	}
	return target
}

// updateReferences records a definition of every name the target yields.
// The prior definition of an already defined name is unioned in. With
// augmented set the target also re-reads itself: the name is appended as a
// self-dependency and a self-read use is registered.
func (a *Analysis) updateReferences(target, value *parser.Node, refs flow.Table, last flow.LastUpdate, uses flow.UseTable, augmented bool) {
	if target == nil {
		return
	}
	deps := a.process(value, refs, last, uses)
	results := a.process(target, refs, last, uses)
	loc := flow.Real(target.Line)
	for _, dep := range deps {
		uses.Add(dep, loc)
	}
	for _, res := range results {
		if res.IsConst() {
			continue
		}
		name := res.Name
		recorded := deps
		if augmented {
			recorded = append(append([]flow.Token(nil), deps...), res)
			uses.Add(res, loc)
		}
		if prior, defined := last[name]; defined {
			merged := append(append([]flow.Token(nil), refs.Deps(name, prior)...), recorded...)
			refs.Set(name, loc, flow.Entry{Deps: merged})
		} else {
			refs.Set(name, loc, flow.Entry{Deps: recorded})
		}
		last[name] = loc
		a.scopes.Set(name, loc, a.scope)
	}
}

// updateReferencesCheckAugmentation handles plain assignment targets: the
// prior definition is unioned in only when the target reads itself on the
// right-hand side; otherwise the new definition replaces it.
func (a *Analysis) updateReferencesCheckAugmentation(target, value *parser.Node, refs flow.Table, last flow.LastUpdate, uses flow.UseTable) {
	if target == nil {
		return
	}
	deps := a.process(value, refs, last, uses)
	results := a.process(target, refs, last, uses)
	loc := flow.Real(target.Line)
	for _, dep := range deps {
		uses.Add(dep, loc)
	}
	for _, res := range results {
		if res.IsConst() {
			continue
		}
		name := res.Name
		_, defined := last[name]
		switch {
		case !defined:
			refs.Set(name, loc, flow.Entry{Deps: deps})
		case containsToken(deps, res):
			merged := append(append([]flow.Token(nil), refs.Deps(name, last[name])...), deps...)
			refs.Set(name, loc, flow.Entry{Deps: merged})
		default:
			refs.Set(name, loc, flow.Entry{Deps: deps})
		}
		last[name] = loc
		a.scopes.Set(name, loc, a.scope)
	}
}

func containsToken(tokens []flow.Token, t flow.Token) bool {
	for _, cur := range tokens {
		if cur == t {
			return true
		}
	}
	return false
}

// -------------------- Loops -------------------------

func (a *Analysis) handleFor(n *parser.Node, refs flow.Table, last flow.LastUpdate, uses flow.UseTable) {
	a.pushScope(n.ID)
	targets := a.process(n.Target, refs, last, uses)
	deps := a.process(n.Iter, refs, last, uses)
	loc := flow.Real(n.Line)
	for _, dep := range deps {
		uses.Add(dep, loc)
	}
	// the iteration variable starts fresh on every loop entry
	for _, target := range targets {
		if target.IsConst() {
			continue
		}
		refs[target.Name] = map[flow.Location]flow.Entry{loc: {Deps: deps}}
		last[target.Name] = loc
		a.scopes.Replace(target.Name, loc, a.scope)
	}
	a.loopFixpoint(n, n.Body, refs, last, uses)
}
