package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/pyflow/parser"
)

func TestScopeSubsumes(t *testing.T) {
	tests := []struct {
		description string
		scope       Scope
		other       Scope
		expect      bool
	}{
		{description: "empty scope dominates everything", scope: nil, other: Scope{1, 2}, expect: true},
		{description: "equal scopes", scope: Scope{1, 2}, other: Scope{1, 2}, expect: true},
		{description: "prefix dominates extension", scope: Scope{1}, other: Scope{1, 2}, expect: true},
		{description: "extension does not dominate prefix", scope: Scope{1, 2}, other: Scope{1}, expect: false},
		{description: "diverging scopes", scope: Scope{1, 3}, other: Scope{1, 2}, expect: false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.expect, tc.scope.Subsumes(tc.other), tc.description)
	}
}

func TestScopeComparable(t *testing.T) {
	assert.True(t, Scope{1}.Comparable(Scope{1, 2}))
	assert.True(t, Scope{1, 2}.Comparable(Scope{1}))
	assert.False(t, Scope{1, 2}.Comparable(Scope{1, 3}))
}

func TestLocation(t *testing.T) {
	assert.True(t, Real(7).IsReal())
	assert.False(t, Merge(7).IsReal())
	assert.Equal(t, 7, Merge(7).Display())
	assert.True(t, Real(7) < Merge(7))
	assert.True(t, Merge(7) < Real(8))
}

func TestPickLocation(t *testing.T) {
	keys := []Location{Real(2), Real(5), Merge(6)}
	tests := []struct {
		description string
		line        Location
		expect      Location
	}{
		{description: "greatest key not exceeding the line", line: Real(5), expect: Real(5)},
		{description: "fractional key below the line", line: Real(7), expect: Merge(6)},
		{description: "return join picks the greatest overall", line: ReturnJoin, expect: Merge(6)},
		{description: "all keys exceeding pick the greatest overall", line: Real(1), expect: Merge(6)},
	}
	for _, tc := range tests {
		got, ok := PickLocation(keys, tc.line)
		assert.True(t, ok, tc.description)
		assert.Equal(t, tc.expect, got, tc.description)
	}
	_, ok := PickLocation(nil, Real(1))
	assert.False(t, ok)
}

func TestDedup(t *testing.T) {
	lit := &parser.Node{Kind: parser.KindConstant, Raw: "1"}
	tokens := []Token{NameToken("a"), NameToken("b"), NameToken("a"), ConstToken(lit), ConstToken(lit)}
	assert.Equal(t, []Token{NameToken("a"), NameToken("b"), ConstToken(lit)}, Dedup(tokens))
}

func TestTableClone(t *testing.T) {
	table := Table{}
	table.Set("a", Real(2), Entry{Deps: []Token{NameToken("b")}})
	clone := table.Clone()
	clone.Set("a", Real(3), Entry{Deps: []Token{NameToken("c")}})
	assert.Len(t, table["a"], 1, "clone mutation must not leak back")
	assert.Len(t, clone["a"], 2)
	assert.False(t, EntriesDiffer(table["a"], table.Clone()["a"]))
	assert.True(t, EntriesDiffer(table["a"], clone["a"]))
}

func TestUseTableSkipsConstants(t *testing.T) {
	uses := UseTable{}
	uses.Add(NameToken("a"), Real(2))
	uses.Add(ConstToken(&parser.Node{Kind: parser.KindConstant, Raw: "1"}), Real(2))
	uses.Add(NameToken("a"), Real(3))
	assert.Equal(t, []Location{Real(2), Real(3)}, uses["a"])
	assert.Len(t, uses, 1)
}
