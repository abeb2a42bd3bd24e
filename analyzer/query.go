package analyzer

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/viant/pyflow/analyzer/flow"
	"github.com/viant/pyflow/parser"
)

// -----------------------------------------------------------------------------
// Dependency query
// -----------------------------------------------------------------------------

type queryItem struct {
	name string
	line flow.Location
}

// Dependencies walks the dependency closure of (name, line) over the
// reference table, printing each step to w. Variables absent from the table
// are escaping inputs and are returned as the out-of-scope set. Entries of
// user-defined functions recurse into the callee's joined table from
// ("return", ReturnJoin); PickLocation then selects the greatest return key,
// which is the callee's last return site whenever it has one.
func (a *Analysis) Dependencies(refs flow.Table, name string, line flow.Location, w io.Writer) []string {
	queue := []queryItem{{name: name, line: line}}
	visited := map[string]bool{name: true}
	var outside []string
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		sites, ok := refs[cur.name]
		if !ok {
			outside = append(outside, cur.name)
			continue
		}
		target, ok := flow.PickLocation(flow.SortedLocations(sites), cur.line)
		if !ok {
			continue
		}
		if a.isFunction(cur.name) {
			join := sites[target].Join
			if join == nil {
				continue
			}
			fmt.Fprintln(w, "Dependencies from function:", cur.name)
			for _, escaped := range a.Dependencies(join, "return", flow.ReturnJoin, w) {
				if !visited[escaped] {
					visited[escaped] = true
					queue = append(queue, queryItem{name: escaped, line: cur.line})
				}
			}
			continue
		}
		if cur.name == "return" {
			fmt.Fprintln(w, "Returned values from the function")
		} else {
			fmt.Fprintf(w, "Variable %s depends on these variables at line: %d\n", cur.name, target.Display())
		}
		deps := sites[target].Deps
		fmt.Fprintln(w, formatTokens(deps))
		for _, t := range deps {
			if t.IsConst() || visited[t.Name] {
				continue
			}
			visited[t.Name] = true
			queue = append(queue, queryItem{name: t.Name, line: target})
		}
	}
	return outside
}

func formatTokens(tokens []flow.Token) string {
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		parts = append(parts, t.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// -----------------------------------------------------------------------------
// Interactive session
// -----------------------------------------------------------------------------

// RunInteractive drives the interactive query loop: pick a function, a
// variable and a line, reprompting until each selection is valid, then print
// the dependency closure.
func (a *Analysis) RunInteractive(in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	prompt := func(text string) (string, error) {
		fmt.Fprint(out, text)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		return strings.TrimSpace(scanner.Text()), nil
	}

	var fn *parser.Node
	for {
		name, err := prompt("Pick function to analyze: ")
		if err != nil {
			return err
		}
		if fn = a.functions[name]; fn != nil {
			break
		}
		fmt.Fprintln(out, "Function does not exist")
	}

	result := a.ProcessFunction(fn, nil)
	if result == nil {
		return fmt.Errorf("cannot analyze function %s", fn.Name)
	}

	var variable string
	for {
		name, err := prompt("Pick variable name to analyze: ")
		if err != nil {
			return err
		}
		if _, ok := result.Refs[name]; ok {
			variable = name
			break
		}
		fmt.Fprintln(out, "Variable does not exist")
	}

	var line int
	for {
		text, err := prompt("Pick line number to analyze: ")
		if err != nil {
			return err
		}
		value, err := strconv.Atoi(text)
		if err != nil || value > fn.EndLine {
			fmt.Fprintln(out, "Line is out of the function scope")
			continue
		}
		line = value
		break
	}

	a.Dependencies(result.Refs, variable, flow.Real(line), out)
	return nil
}
