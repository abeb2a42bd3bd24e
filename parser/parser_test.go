package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSource(t *testing.T) {
	source := `def f(x, y):
    a = x + y
    if a > 0:
        a -= 1
    else:
        a = 0
    for i in range(5):
        a += i
    return a
`
	file, err := NewParser().ParseSource([]byte(source))
	require.NoError(t, err)
	require.NotNil(t, file.Root)
	assert.Equal(t, KindModule, file.Root.Kind)

	fn := file.Functions["f"]
	require.NotNil(t, fn)
	assert.Equal(t, KindFunctionDef, fn.Kind)
	assert.Equal(t, []string{"x", "y"}, fn.Params)
	assert.Equal(t, 1, fn.Line)
	assert.Equal(t, 9, fn.EndLine)
	require.Len(t, fn.Body, 4)

	assign := fn.Body[0]
	assert.Equal(t, KindAssign, assign.Kind)
	assert.Equal(t, 2, assign.Line)
	require.Len(t, assign.Targets, 1)
	assert.Equal(t, "a", assign.Targets[0].Name)
	assert.Equal(t, KindBinOp, assign.Value.Kind)
	assert.Equal(t, "+", assign.Value.Op)

	cond := fn.Body[1]
	assert.Equal(t, KindIf, cond.Kind)
	assert.Equal(t, KindCompare, cond.Test.Kind)
	assert.Equal(t, []string{">"}, cond.Test.Ops)
	require.Len(t, cond.Body, 1)
	assert.Equal(t, KindAugAssign, cond.Body[0].Kind)
	assert.Equal(t, "-=", cond.Body[0].Op)
	require.Len(t, cond.Orelse, 1)
	assert.Equal(t, KindAssign, cond.Orelse[0].Kind)

	loop := fn.Body[2]
	assert.Equal(t, KindFor, loop.Kind)
	assert.Equal(t, "i", loop.Target.Name)
	assert.Equal(t, KindCall, loop.Iter.Kind)
	assert.Equal(t, "range", loop.Iter.Func.Name)
	require.Len(t, loop.Iter.Args, 1)
	assert.Equal(t, KindConstant, loop.Iter.Args[0].Kind)
	assert.Equal(t, "5", loop.Iter.Args[0].Raw)
	assert.Equal(t, 7, loop.Line)
	assert.Equal(t, 8, loop.EndLine)

	ret := fn.Body[3]
	assert.Equal(t, KindReturn, ret.Kind)
	assert.Equal(t, 9, ret.Line)
	assert.Equal(t, "a", ret.Value.Name)
}

func TestParseElifChainSharesEndLine(t *testing.T) {
	source := `def f(x):
    if x > 1:
        a = 1
    elif x > 0:
        a = 2
    else:
        a = 3
    return a
`
	file, err := NewParser().ParseSource([]byte(source))
	require.NoError(t, err)
	fn := file.Functions["f"]
	require.NotNil(t, fn)

	outer := fn.Body[0]
	require.Equal(t, KindIf, outer.Kind)
	require.Len(t, outer.Orelse, 1)
	nested := outer.Orelse[0]
	assert.Equal(t, KindIf, nested.Kind)
	assert.Equal(t, outer.EndLine, nested.EndLine, "chain levels share the chain end line")
	require.Len(t, nested.Orelse, 1)
	assert.Equal(t, KindAssign, nested.Orelse[0].Kind)
}

func TestParseExpressions(t *testing.T) {
	source := `def g(p):
    t = p.field
    s = p[1:2]
    u = p[0]
    d = {1: p, 2: t}
    l = [p, t]
    b = p and t or not p
    c = p if t else u
    m, n = p, t
    return d, l, b, c, m, n, s, u
`
	file, err := NewParser().ParseSource([]byte(source))
	require.NoError(t, err)
	fn := file.Functions["g"]
	require.NotNil(t, fn)

	attr := fn.Body[0].Value
	assert.Equal(t, KindAttribute, attr.Kind)
	assert.Equal(t, "field", attr.Name)
	assert.Equal(t, "p", attr.Value.Name)

	slice := fn.Body[1].Value
	require.Equal(t, KindSubscript, slice.Kind)
	require.Equal(t, KindSlice, slice.Index.Kind)
	assert.Equal(t, "1", slice.Index.Lower.Raw)
	assert.Equal(t, "2", slice.Index.Upper.Raw)

	sub := fn.Body[2].Value
	assert.Equal(t, KindSubscript, sub.Kind)
	assert.Equal(t, "0", sub.Index.Raw)

	dict := fn.Body[3].Value
	require.Equal(t, KindDict, dict.Kind)
	require.Len(t, dict.Keys, 2)
	require.Len(t, dict.Values, 2)

	list := fn.Body[4].Value
	assert.Equal(t, KindList, list.Kind)
	assert.Len(t, list.Elts, 2)

	boolOp := fn.Body[5].Value
	require.Equal(t, KindBoolOp, boolOp.Kind)
	assert.Equal(t, "or", boolOp.Op)
	assert.Equal(t, KindUnaryOp, boolOp.Values[1].Kind)
	assert.Equal(t, "not", boolOp.Values[1].Op)

	ifExp := fn.Body[6].Value
	require.Equal(t, KindIfExp, ifExp.Kind)
	assert.Equal(t, "t", ifExp.Test.Name)
	assert.Equal(t, "p", ifExp.Then.Name)
	assert.Equal(t, "u", ifExp.Else.Name)

	tuple := fn.Body[7]
	require.Equal(t, KindAssign, tuple.Kind)
	require.Len(t, tuple.Targets, 1)
	assert.Equal(t, KindTuple, tuple.Targets[0].Kind)
	assert.Len(t, tuple.Targets[0].Elts, 2)
	assert.Equal(t, KindTuple, tuple.Value.Kind)
}

func TestCollectFunctions(t *testing.T) {
	source := `def outer():
    def inner():
        return 1
    return inner()

def other():
    pass
`
	file, err := NewParser().ParseSource([]byte(source))
	require.NoError(t, err)
	assert.Len(t, file.Functions, 3)
	assert.Contains(t, file.Functions, "outer")
	assert.Contains(t, file.Functions, "inner")
	assert.Contains(t, file.Functions, "other")
}

func TestCopyAndEqual(t *testing.T) {
	source := `def f():
    a = 1
    return a
`
	file, err := NewParser().ParseSource([]byte(source))
	require.NoError(t, err)
	snapshot := file.Root.Copy()
	assert.True(t, file.Root.Equal(snapshot))

	file.Root.Walk(func(n *Node) bool {
		if n.Kind == KindName && n.Name == "a" {
			n.Name = "b"
		}
		return true
	})
	assert.False(t, file.Root.Equal(snapshot))
}
