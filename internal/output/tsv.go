// # internal/output/tsv.go
package output

import (
	"fmt"
	"strings"

	"didact/internal/graph"
)

type TSVGenerator struct {
	graph *graph.DependencyGraph
}

func NewTSVGenerator(g *graph.DependencyGraph) *TSVGenerator {
	return &TSVGenerator{graph: g}
}

func (t *TSVGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("From\tTo\tModule\tLine\n")
	for _, e := range t.graph.Edges {
		buf.WriteString(fmt.Sprintf("%s\t%s\t%s\t%d\n", e.From, e.To, e.ModuleName, e.Line))
	}

	return buf.String(), nil
}
