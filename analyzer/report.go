package analyzer

import (
	"fmt"
	"io"
	"sort"

	"github.com/minio/highwayhash"
	"github.com/viant/pyflow/analyzer/flow"
	"github.com/viant/pyflow/parser"
	"gopkg.in/yaml.v3"
)

var hashKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// digest hashes a function's source slice for stable identification.
func digest(data []byte) (uint64, error) {
	hash, err := highwayhash.New64(hashKey)
	if err != nil {
		return 0, err
	}
	_, err = hash.Write(data)
	return hash.Sum64(), err
}

// Report is the serializable view of an analysis run.
type Report struct {
	Functions []*FunctionReport `yaml:"functions"`
}

// FunctionReport carries one function's tables; locations are rendered
// through Display so synthetic fractional lines never surface.
type FunctionReport struct {
	Name      string            `yaml:"name"`
	Digest    string            `yaml:"digest,omitempty"`
	Variables []*VariableReport `yaml:"variables,omitempty"`
	Uses      map[string][]int  `yaml:"uses,omitempty"`
}

type VariableReport struct {
	Name        string              `yaml:"name"`
	Definitions []*DefinitionReport `yaml:"definitions,omitempty"`
}

type DefinitionReport struct {
	Line      int      `yaml:"line"`
	DependsOn []string `yaml:"dependsOn,omitempty"`
}

// ReportExporter sends an assembled report to a sink.
type ReportExporter interface {
	Export(report *Report) error
}

// YAMLExporter marshals reports to a writer.
type YAMLExporter struct {
	Writer io.Writer
}

func (e *YAMLExporter) Export(report *Report) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return err
	}
	_, err = e.Writer.Write(data)
	return err
}

// BuildReport assembles the per-function report from analysis results.
func BuildReport(file *parser.File, results map[string]*flow.Result) (*Report, error) {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	report := &Report{}
	for _, name := range names {
		result := results[name]
		fr := &FunctionReport{Name: name, Uses: map[string][]int{}}
		if file != nil {
			if fn := file.Functions[name]; fn != nil && int(fn.EndByte) <= len(file.Source) {
				sum, err := digest(file.Source[fn.StartByte:fn.EndByte])
				if err != nil {
					return nil, err
				}
				fr.Digest = fmt.Sprintf("%016x", sum)
			}
		}
		for _, variable := range result.Refs.Names() {
			vr := &VariableReport{Name: variable}
			sites := result.Refs[variable]
			for _, loc := range flow.SortedLocations(sites) {
				dr := &DefinitionReport{Line: loc.Display()}
				for _, t := range sites[loc].Deps {
					dr.DependsOn = append(dr.DependsOn, t.String())
				}
				vr.Definitions = append(vr.Definitions, dr)
			}
			fr.Variables = append(fr.Variables, vr)
		}
		for used, locations := range result.Uses {
			lines := make([]int, 0, len(locations))
			for _, loc := range locations {
				lines = append(lines, loc.Display())
			}
			sort.Ints(lines)
			fr.Uses[used] = lines
		}
		report.Functions = append(report.Functions, fr)
	}
	return report, nil
}
