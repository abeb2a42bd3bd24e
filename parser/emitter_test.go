package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitRoundTrip(t *testing.T) {
	tests := []struct {
		description string
		source      string
	}{
		{
			description: "function with control flow",
			source: `def f(x, y):
    a = x + y
    if a > 0:
        a -= 1
    else:
        a = 0
    for i in range(5):
        a += i
    while a > 10:
        a = a - 1
    return a
`,
		},
		{
			description: "nested operators keep precedence parentheses",
			source: `def g(a, b, c):
    return a * (b + c) - a / (b - c)
`,
		},
		{
			description: "compound literals and subscripts",
			source: `def h(p, t):
    d = {1: p, 2: t}
    l = [p, t, 3]
    s = p[1:2]
    u = p.field[0]
    return d[1] if t else l
`,
		},
		{
			description: "elif chain",
			source: `def k(x):
    if x > 1:
        a = 1
    elif x > 0:
        a = 2
    else:
        a = 3
    return a
`,
		},
		{
			description: "loop control statements",
			source: `def l(items):
    for i in items:
        if i > 3:
            break
        else:
            continue
    return i
`,
		},
	}
	p := NewParser()
	emitter := &Emitter{}
	for _, tc := range tests {
		file, err := p.ParseSource([]byte(tc.source))
		require.NoError(t, err, tc.description)
		emitted, err := emitter.Emit(file.Root)
		require.NoError(t, err, tc.description)
		assert.Equal(t, tc.source, string(emitted), tc.description)

		// re-parsing the emitted text yields an equal tree
		again, err := p.ParseSource(emitted)
		require.NoError(t, err, tc.description)
		assert.True(t, file.Root.Equal(again.Root), tc.description)
	}
}

func TestEmitEmptySuite(t *testing.T) {
	fn := &Node{Kind: KindFunctionDef, Name: "f", Line: 1, EndLine: 1}
	emitted, err := (&Emitter{}).Emit(fn)
	require.NoError(t, err)
	assert.Equal(t, "def f():\n    pass\n", string(emitted))
}
