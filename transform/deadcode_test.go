package transform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/pyflow/analyzer/flow"
	"github.com/viant/pyflow/parser"
	"github.com/viant/pyflow/transform"
)

func findDeadCode(t *testing.T, source string) *transform.Findings {
	t.Helper()
	file, err := parser.NewParser().ParseSource([]byte(source))
	require.NoError(t, err)
	return transform.NewDeadCode(file.Functions).Find()
}

func TestOverriddenDefinition(t *testing.T) {
	source := `def p():
    a = 1
    a = 2
    return a
`
	findings := findDeadCode(t, source)
	assert.Equal(t, []flow.Location{flow.Real(2)}, findings.Overridden["p"]["a"])
	assert.Empty(t, findings.Unused["p"])
}

func TestBranchDefinitionsAreNotOverridden(t *testing.T) {
	source := `def h(x):
    if x:
        y = 1
    else:
        y = 2
    return y
`
	findings := findDeadCode(t, source)
	assert.Empty(t, findings.Overridden["h"]["y"], "definitions in sibling branches do not dominate each other")
}

func TestUnusedNames(t *testing.T) {
	source := `def g():
    a = 1
    c = 0
    for i in range(5):
        a += 2
    return a
`
	findings := findDeadCode(t, source)
	assert.ElementsMatch(t, []string{"c", "i"}, findings.Unused["g"])
	assert.NotContains(t, findings.Unused["g"], "a")
}

func TestReturnIrrelevant(t *testing.T) {
	source := `def g(x):
    a = x
    b = 2
    for i in range(3):
        b += a
    return a
`
	findings := findDeadCode(t, source)
	assert.Contains(t, findings.ReturnIrrelevant["g"], "b")
	assert.Contains(t, findings.ReturnIrrelevant["g"], "i")
	assert.NotContains(t, findings.ReturnIrrelevant["g"], "a")
	assert.NotContains(t, findings.ReturnIrrelevant["g"], "return")
}

func TestUnusedAndReturnIrrelevantAreDisjointFromUses(t *testing.T) {
	source := `def f():
    a = 1
    b = a
    c = 5
    return b
`
	file, err := parser.NewParser().ParseSource([]byte(source))
	require.NoError(t, err)
	findings := transform.NewDeadCode(file.Functions).Find()
	assert.Equal(t, []string{"c"}, findings.Unused["f"])
	assert.ElementsMatch(t, []string{"c"}, findings.ReturnIrrelevant["f"])
}
