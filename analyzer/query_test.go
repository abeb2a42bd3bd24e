package analyzer_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/pyflow/analyzer"
	"github.com/viant/pyflow/analyzer/flow"
	"github.com/viant/pyflow/parser"
)

func TestDependenciesOutput(t *testing.T) {
	source := `def callee(p):
    return p

def caller():
    v = 5
    w = callee(v)
    return w
`
	analysis, result := analyze(t, source, "caller")
	out := &bytes.Buffer{}
	analysis.Dependencies(result.Refs, "w", flow.Real(7), out)
	text := out.String()

	assert.Contains(t, text, "Variable w depends on these variables at line: 6")
	assert.Contains(t, text, "Dependencies from function: callee")
	assert.Contains(t, text, "Returned values from the function")
	assert.Contains(t, text, "Variable v depends on these variables at line: 5")
	// synthetic fractional locations never surface
	assert.NotContains(t, text, ".5")
}

func TestDependenciesMergeLocationDisplaysRealLine(t *testing.T) {
	source := `def q():
    a = 1
    for i in range(3):
        a = i
    return a
`
	analysis, result := analyze(t, source, "q")
	out := &bytes.Buffer{}
	analysis.Dependencies(result.Refs, "a", flow.Real(5), out)
	assert.Contains(t, out.String(), "Variable a depends on these variables at line: 4")
	assert.NotContains(t, out.String(), "4.5")
}

func TestRunInteractiveRepromptsUntilValid(t *testing.T) {
	source := `def f():
    a = 1
    b = a
    return b
`
	file, err := parser.NewParser().ParseSource([]byte(source))
	require.NoError(t, err)
	analysis := analyzer.New(file.Functions)

	in := strings.NewReader("missing\nf\nnope\nb\n99\n4\n")
	out := &bytes.Buffer{}
	require.NoError(t, analysis.RunInteractive(in, out))
	text := out.String()

	assert.Contains(t, text, "Function does not exist")
	assert.Contains(t, text, "Variable does not exist")
	assert.Contains(t, text, "Line is out of the function scope")
	assert.Contains(t, text, "Variable b depends on these variables at line: 3")
	assert.Contains(t, text, "Variable a depends on these variables at line: 2")
}
