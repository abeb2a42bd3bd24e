package analyzer

import (
	"github.com/viant/pyflow/analyzer/flow"
	"github.com/viant/pyflow/parser"
)

// -----------------------------------------------------------------------------
// Structured control flow: conditional merge and loop fixpoint
// -----------------------------------------------------------------------------

// hasEffectiveElse descends else-if chains; only a non-empty tail else makes
// the conditional cover all paths.
func hasEffectiveElse(n *parser.Node) bool {
	orelse := n.Orelse
	for len(orelse) > 0 {
		if orelse[0].Kind != parser.KindIf {
			break
		}
		orelse = orelse[0].Orelse
	}
	return len(orelse) > 0
}

// processIf interprets both branches and unifies the resulting states at a
// synthetic merge location. The caller has already pushed the If scope.
func (a *Analysis) processIf(n *parser.Node, refs flow.Table, last flow.LastUpdate, uses flow.UseTable) {
	testReads := a.process(n.Test, refs, last, uses)
	testLoc := flow.Real(n.Line)
	if n.Test != nil {
		testLoc = flow.Real(n.Test.Line)
	}
	for _, t := range testReads {
		uses.Add(t, testLoc)
	}

	before := refs.Clone()
	beforeLast := last.Clone()
	elseRefs := refs.Clone()
	elseLast := last.Clone()

	for _, stmt := range n.Body {
		a.process(stmt, refs, last, uses)
	}
	a.popScope()

	// a plain else branch gets a distinct scope identity; an elif chain
	// carries its own If nodes
	pushed := false
	if len(n.Orelse) > 0 && n.Orelse[0].Kind != parser.KindIf {
		a.pushScope(a.nextSyntheticID())
		pushed = true
	}
	for _, stmt := range n.Orelse {
		a.process(stmt, elseRefs, elseLast, uses)
	}
	if pushed {
		a.popScope()
	}

	mergeLoc := flow.Merge(n.EndLine)
	for _, name := range refs.Names() {
		if a.isFunction(name) {
			continue
		}
		elseEntries, inElse := elseRefs[name]
		if !inElse {
			continue
		}
		differs := flow.EntriesDiffer(refs[name], elseEntries)
		if differs {
			for loc, e := range elseEntries {
				refs[name][loc] = e
			}
		}
		cur, okCur := last[name]
		alt, okAlt := elseLast[name]
		if okCur && okAlt && (differs || cur != alt) {
			merged := flow.Dedup(append(append([]flow.Token(nil), refs.Deps(name, cur)...), elseEntries[alt].Deps...))
			refs.Set(name, mergeLoc, flow.Entry{Deps: merged})
			last[name] = mergeLoc
			a.scopes.Set(name, mergeLoc, a.scope)
		}
	}

	// no-else repair: when the conditional may not execute, definitions from
	// before it must stay reachable
	if hasEffectiveElse(n) {
		return
	}
	for _, name := range before.Names() {
		if a.isFunction(name) {
			continue
		}
		cur, okCur := last[name]
		prior, okPrior := beforeLast[name]
		if !okCur || !okPrior {
			continue
		}
		merged := flow.Dedup(append(append([]flow.Token(nil), refs.Deps(name, cur)...), before.Deps(name, prior)...))
		refs.Set(name, cur, flow.Entry{Deps: merged})
	}
}

// loopFixpoint re-interprets the loop body until no new (variable, location)
// pairs appear, folding each round's new contributions into a definition at
// the loop line. Termination follows from the finite universe of pairs. The
// caller has already pushed the loop scope.
func (a *Analysis) loopFixpoint(n *parser.Node, body []*parser.Node, refs flow.Table, last flow.LastUpdate, uses flow.UseTable) {
	before := refs.Clone()
	for _, stmt := range body {
		a.process(stmt, refs, last, uses)
	}
	loopLoc := flow.Real(n.Line)
	for {
		changed := false
		for _, name := range before.Names() {
			if a.isFunction(name) {
				continue
			}
			var combined []flow.Token
			for _, loc := range flow.SortedLocations(refs[name]) {
				if _, seen := before[name][loc]; !seen {
					combined = append(combined, refs[name][loc].Deps...)
				}
			}
			if len(combined) == 0 {
				continue
			}
			combined = flow.Dedup(combined)
			refs.Set(name, loopLoc, flow.Entry{Deps: combined})
			last[name] = loopLoc
			a.scopes.Set(name, loopLoc, a.scope)
			for _, t := range combined {
				uses.Add(t, loopLoc)
			}
			changed = true
		}
		if !changed {
			break
		}
		before = refs.Clone()
		for _, stmt := range body {
			a.process(stmt, refs, last, uses)
		}
	}
	a.popScope()

	// publish the state flowing out of the loop at a synthetic exit location
	exitLoc := flow.Merge(n.EndLine)
	for _, name := range refs.Names() {
		entry, ok := refs[name][loopLoc]
		if !ok {
			continue
		}
		refs.Set(name, exitLoc, entry)
		last[name] = exitLoc
		a.scopes.Set(name, exitLoc, a.scope)
	}
}
