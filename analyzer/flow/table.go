package flow

import "sort"

// Entry is one definition record: the dependency tokens contributed at a
// location, or, for user-function call sites, the callee's joined table.
type Entry struct {
	Deps []Token
	Join Table
}

// IsJoin reports whether the entry holds a nested callee table.
func (e Entry) IsJoin() bool { return e.Join != nil }

func (e Entry) equal(other Entry) bool {
	if e.IsJoin() != other.IsJoin() {
		return false
	}
	if e.IsJoin() {
		return sameTable(e.Join, other.Join)
	}
	if len(e.Deps) != len(other.Deps) {
		return false
	}
	for i := range e.Deps {
		if e.Deps[i] != other.Deps[i] {
			return false
		}
	}
	return true
}

func sameTable(a, b Table) bool {
	if len(a) != len(b) {
		return false
	}
	for name, entries := range a {
		if !entriesEqual(entries, b[name]) {
			return false
		}
	}
	return true
}

func entriesEqual(a, b map[Location]Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for loc, e := range a {
		other, ok := b[loc]
		if !ok || !e.equal(other) {
			return false
		}
	}
	return true
}

// Table is the reference table: variable name to location to definition
// entry. R[v][l] records everything that may contribute to the value of v
// computed at l.
type Table map[string]map[Location]Entry

// Set records a definition entry.
func (t Table) Set(name string, loc Location, e Entry) {
	m, ok := t[name]
	if !ok {
		m = map[Location]Entry{}
		t[name] = m
	}
	m[loc] = e
}

// Deps returns the dependency tokens recorded for (name, loc).
func (t Table) Deps(name string, loc Location) []Token {
	if m, ok := t[name]; ok {
		return m[loc].Deps
	}
	return nil
}

// Clone copies the table and every dependency list; constant nodes and
// nested callee (Join) tables stay shared.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for name, entries := range t {
		m := make(map[Location]Entry, len(entries))
		for loc, e := range entries {
			m[loc] = Entry{Deps: append([]Token(nil), e.Deps...), Join: e.Join}
		}
		out[name] = m
	}
	return out
}

// EntriesDiffer reports whether two per-variable sub-mappings differ.
func EntriesDiffer(a, b map[Location]Entry) bool { return !entriesEqual(a, b) }

// Names returns the variable names of the table in sorted order.
func (t Table) Names() []string {
	out := make([]string, 0, len(t))
	for name := range t {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// LastUpdate maps each variable to its most recent definition location.
type LastUpdate map[string]Location

func (l LastUpdate) Clone() LastUpdate {
	out := make(LastUpdate, len(l))
	for name, loc := range l {
		out[name] = loc
	}
	return out
}

// UseTable maps a name to the locations where it is read. Duplicates are
// retained; consumers deduplicate.
type UseTable map[string][]Location

// Add records a read of a name token at a location; constant tokens carry
// no name and are skipped.
func (u UseTable) Add(t Token, loc Location) {
	if t.IsConst() {
		return
	}
	u[t.Name] = append(u[t.Name], loc)
}

// ScopeTable maps (variable, location) to the scope-stack snapshot active at
// the definition.
type ScopeTable map[string]map[Location]Scope

// Set merges a snapshot into the table.
func (s ScopeTable) Set(name string, loc Location, scope Scope) {
	m, ok := s[name]
	if !ok {
		m = map[Location]Scope{}
		s[name] = m
	}
	m[loc] = scope.Clone()
}

// Replace discards any previous snapshots of name.
func (s ScopeTable) Replace(name string, loc Location, scope Scope) {
	s[name] = map[Location]Scope{loc: scope.Clone()}
}

func (s ScopeTable) Clone() ScopeTable {
	out := make(ScopeTable, len(s))
	for name, entries := range s {
		m := make(map[Location]Scope, len(entries))
		for loc, scope := range entries {
			m[loc] = scope.Clone()
		}
		out[name] = m
	}
	return out
}

// Result is the outcome of analyzing one function.
type Result struct {
	Refs   Table
	Uses   UseTable
	Scopes ScopeTable
}
