package transform

import (
	"sort"

	"github.com/viant/pyflow/analyzer"
	"github.com/viant/pyflow/analyzer/flow"
	"github.com/viant/pyflow/parser"
)

// DeadCode identifies dead code from the dataflow tables: definitions
// overridden before any use, names never read at all, and names that do not
// contribute to the function's return.
type DeadCode struct {
	functions map[string]*parser.Node
	analysis  *analyzer.Analysis
	// tables of the function currently being inspected
	defs   flow.Table
	scopes flow.ScopeTable
}

func NewDeadCode(functions map[string]*parser.Node) *DeadCode {
	return &DeadCode{
		functions: functions,
		analysis:  analyzer.New(functions, analyzer.WithConstantTracking()),
	}
}

// Findings holds the three dead-code categories, keyed by function name.
type Findings struct {
	// Overridden maps function to variable to the dead definition lines
	Overridden map[string]map[string][]flow.Location
	// Unused lists variables defined but never read
	Unused map[string][]string
	// ReturnIrrelevant lists variables that never reach a return value
	ReturnIrrelevant map[string][]string
}

func (f *Findings) isOverridden(fn, name string, line int) bool {
	for _, loc := range f.Overridden[fn][name] {
		if loc == flow.Real(line) {
			return true
		}
	}
	return false
}

func (f *Findings) isUnused(fn, name string) bool {
	for _, cur := range f.Unused[fn] {
		if cur == name {
			return true
		}
	}
	return false
}

// Find analyzes every function and collects the three categories.
func (d *DeadCode) Find() *Findings {
	findings := &Findings{
		Overridden:       map[string]map[string][]flow.Location{},
		Unused:           map[string][]string{},
		ReturnIrrelevant: map[string][]string{},
	}
	names := make([]string, 0, len(d.functions))
	for name := range d.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		result := d.analysis.ProcessFunction(d.functions[name], nil)
		if result == nil {
			continue
		}
		d.defs = result.Refs
		d.scopes = result.Scopes
		findings.Overridden[name] = map[string][]flow.Location{}
		for _, variable := range result.Refs.Names() {
			if variable == "return" {
				continue
			}
			uses, used := result.Uses[variable]
			if !used {
				findings.Unused[name] = append(findings.Unused[name], variable)
				continue
			}
			d.findOverridden(variable, uses, findings.Overridden[name])
		}
		findings.ReturnIrrelevant[name] = d.findReturnIrrelevant()
	}
	return findings
}

// scopeForLine returns the scope snapshot of any definition recorded at the
// line, walking upwards through preceding lines; statements with no
// recorded definition above them get the function-level scope.
func (d *DeadCode) scopeForLine(line int) flow.Scope {
	for ; line > 0; line-- {
		loc := flow.Real(line)
		for _, variable := range d.defs.Names() {
			if _, ok := d.defs[variable][loc]; ok {
				return d.scopes[variable][loc]
			}
		}
	}
	return nil
}

// findOverridden collects, per use, the real-line definitions that may reach
// it; a definition whose scope is subsumed by a later one in the same bucket
// can never be observed and is dead.
func (d *DeadCode) findOverridden(variable string, uses []flow.Location, out map[string][]flow.Location) {
	defs := d.defs[variable]
	scopes := d.scopes[variable]
	visited := map[flow.Location]bool{}
	for _, use := range dedupLocations(uses) {
		useScope := d.scopeForLine(use.Display())
		var current []flow.Location
		for _, def := range flow.SortedLocations(defs) {
			if !def.IsReal() || def >= use || visited[def] {
				continue
			}
			if useScope.Comparable(scopes[def]) {
				current = append(current, def)
				visited[def] = true
			}
		}
		if len(current) < 2 {
			continue
		}
		for i := 0; i < len(current)-1; i++ {
			for j := i + 1; j < len(current); j++ {
				if scopes[current[j]].Subsumes(scopes[current[i]]) && !containsLocation(out[variable], current[i]) {
					out[variable] = append(out[variable], current[i])
				}
			}
		}
	}
}

type reachItem struct {
	line flow.Location
	name string
}

// findReturnIrrelevant walks backwards from every return site; variables the
// walk never reaches cannot affect the returned value.
func (d *DeadCode) findReturnIrrelevant() []string {
	reached := map[string]bool{}
	returns := d.defs["return"]
	for _, line := range flow.SortedLocations(returns) {
		if line == flow.ReturnJoin {
			continue
		}
		visited := map[reachItem]bool{}
		var queue []reachItem
		for _, t := range returns[line].Deps {
			if t.IsConst() {
				continue
			}
			item := reachItem{line: line, name: t.Name}
			visited[item] = true
			queue = append(queue, item)
		}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			if _, ok := d.functions[cur.name]; ok {
				continue
			}
			sites, ok := d.defs[cur.name]
			if !ok {
				continue
			}
			next, ok := flow.PickLocation(flow.SortedLocations(sites), cur.line)
			if !ok {
				continue
			}
			for _, t := range sites[next].Deps {
				if t.IsConst() {
					continue
				}
				item := reachItem{line: next, name: t.Name}
				if !visited[item] {
					visited[item] = true
					queue = append(queue, item)
				}
			}
		}
		for item := range visited {
			reached[item.name] = true
		}
	}
	var out []string
	for _, variable := range d.defs.Names() {
		if variable == "return" || reached[variable] {
			continue
		}
		if _, ok := d.functions[variable]; ok {
			continue
		}
		out = append(out, variable)
	}
	return out
}

func dedupLocations(locations []flow.Location) []flow.Location {
	seen := map[flow.Location]bool{}
	out := make([]flow.Location, 0, len(locations))
	for _, loc := range locations {
		if !seen[loc] {
			seen[loc] = true
			out = append(out, loc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func containsLocation(locations []flow.Location, loc flow.Location) bool {
	for _, cur := range locations {
		if cur == loc {
			return true
		}
	}
	return false
}
