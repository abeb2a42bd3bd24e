package analyzer

// analyzer.go
// -----------------------------------------------------------------------------
// Intraprocedural reaching-definition and dependency analysis over a Python
// program tree. For every program location the engine computes which source
// locations may have contributed to each variable's value (reference table),
// where every name is read (use table) and the control-structure scope of
// every definition (scope table). Synthetic definitions at fractional line
// numbers represent merge/exit points of structured control flow.
// -----------------------------------------------------------------------------

import (
	"github.com/viant/pyflow/analyzer/flow"
	"github.com/viant/pyflow/parser"
)

// Analysis runs the dataflow engine over the functions of one program. The
// function table is shared read-only across invocations; the reference, use
// and last-update tables are owned per ProcessFunction call.
type Analysis struct {
	functions map[string]*parser.Node
	// scope is the stack of enclosing control-structure node ids
	scope flow.Scope
	// scopes accumulates the scope snapshot of every definition
	scopes flow.ScopeTable
	// trackConstants switches the evaluator to propagation mode: literal
	// constants become dependency tokens and user callees are not descended
	trackConstants bool
	// active guards against re-entering a callee already on the stack
	active map[string]bool
	// synthetic hands out ids for else-branch scope markers
	synthetic int
	exporter  ReportExporter
}

// New creates an analysis over the given function table.
func New(functions map[string]*parser.Node, options ...Option) *Analysis {
	ret := &Analysis{
		functions: functions,
		scopes:    flow.ScopeTable{},
		active:    map[string]bool{},
	}
	for _, opt := range options {
		if opt != nil {
			opt(ret)
		}
	}
	return ret
}

// Functions exposes the shared function table.
func (a *Analysis) Functions() map[string]*parser.Node { return a.functions }

func (a *Analysis) isFunction(name string) bool {
	_, ok := a.functions[name]
	return ok
}

func (a *Analysis) pushScope(id int) { a.scope = append(a.scope, id) }

func (a *Analysis) popScope() { a.scope = a.scope[:len(a.scope)-1] }

// nextSyntheticID returns a fresh negative id, distinct from parser node ids.
func (a *Analysis) nextSyntheticID() int {
	a.synthetic--
	return a.synthetic
}

// ProcessFunction analyzes one function with the given argument dependency
// lists, one per formal parameter. A nil result means the call could not be
// joined (arity mismatch, or the callee is already being evaluated) and the
// caller must treat it as a black box. Calling with no argument lists binds
// every parameter to an empty dependency list; this is how top-level
// analysis enters a function.
func (a *Analysis) ProcessFunction(fn *parser.Node, args [][]flow.Token) *flow.Result {
	if fn == nil || fn.Kind != parser.KindFunctionDef {
		return nil
	}
	if a.active[fn.Name] {
		return nil
	}
	if len(args) != 0 && len(args) != len(fn.Params) {
		return nil
	}
	a.active[fn.Name] = true
	defer delete(a.active, fn.Name)

	refs := flow.Table{}
	last := flow.LastUpdate{}
	uses := flow.UseTable{}
	fnLoc := flow.Real(fn.Line)
	for i, param := range fn.Params {
		var deps []flow.Token
		if i < len(args) {
			deps = args[i]
		}
		refs.Set(param, fnLoc, flow.Entry{Deps: deps})
		last[param] = fnLoc
		a.scopes.Set(param, fnLoc, nil)
	}
	for _, stmt := range fn.Body {
		a.process(stmt, refs, last, uses)
	}
	a.joinReturns(refs)
	return &flow.Result{Refs: refs, Uses: uses, Scopes: a.scopes.Clone()}
}

// joinReturns merges every return site into the reserved ReturnJoin key.
func (a *Analysis) joinReturns(refs flow.Table) {
	var union []flow.Token
	if sites, ok := refs["return"]; ok {
		for _, loc := range flow.SortedLocations(sites) {
			union = append(union, sites[loc].Deps...)
		}
	}
	refs.Set("return", flow.ReturnJoin, flow.Entry{Deps: union})
	a.scopes.Set("return", flow.ReturnJoin, nil)
}

// AnalyzeAll analyzes every function of the file and, when an exporter is
// configured, exports the assembled report.
func (a *Analysis) AnalyzeAll(file *parser.File) (map[string]*flow.Result, error) {
	results := map[string]*flow.Result{}
	for name, fn := range a.functions {
		if res := a.ProcessFunction(fn, nil); res != nil {
			results[name] = res
		}
	}
	if a.exporter != nil {
		report, err := BuildReport(file, results)
		if err != nil {
			return nil, err
		}
		if err := a.exporter.Export(report); err != nil {
			return nil, err
		}
	}
	return results, nil
}
