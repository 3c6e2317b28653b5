// # internal/output/mermaid.go
package output

import (
	"fmt"
	"sort"
	"strings"

	"didact/internal/graph"
)

type MermaidGenerator struct {
	graph *graph.DependencyGraph
}

func NewMermaidGenerator(g *graph.DependencyGraph) *MermaidGenerator {
	return &MermaidGenerator{graph: g}
}

// Generate renders a flowchart suitable for embedding in Markdown. Node ids
// must be alphanumeric, so file paths become n0..nN with the path as label.
func (m *MermaidGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("flowchart LR\n")

	paths := make([]string, 0, len(m.graph.Nodes))
	for p := range m.graph.Nodes {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	ids := make(map[string]string, len(paths))
	for i, p := range paths {
		ids[p] = fmt.Sprintf("n%d", i)
		buf.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", ids[p], escapeMermaid(p)))
	}

	for _, e := range m.graph.Edges {
		from, okFrom := ids[e.From]
		to, okTo := ids[e.To]
		if !okFrom || !okTo {
			continue
		}
		buf.WriteString(fmt.Sprintf("    %s --> %s\n", from, to))
	}

	inCycle := make(map[string]bool)
	for _, cycle := range m.graph.CircularDependencies {
		for _, p := range cycle.Files {
			inCycle[p] = true
		}
	}
	if len(inCycle) > 0 {
		buf.WriteString("    classDef cycle fill:#fdd,stroke:#c00\n")
		members := make([]string, 0, len(inCycle))
		for p := range inCycle {
			if id, ok := ids[p]; ok {
				members = append(members, id)
			}
		}
		sort.Strings(members)
		buf.WriteString("    class " + strings.Join(members, ",") + " cycle\n")
	}

	return buf.String(), nil
}

func escapeMermaid(s string) string {
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return strings.ReplaceAll(s, "[", "&#91;")
}
