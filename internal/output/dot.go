// # internal/output/dot.go
package output

import (
	"fmt"
	"sort"
	"strings"

	"didact/internal/graph"
)

type DOTGenerator struct {
	graph *graph.DependencyGraph
	// scores maps file path to teaching score for node coloring.
	scores map[string]float64
}

func NewDOTGenerator(g *graph.DependencyGraph, scores map[string]float64) *DOTGenerator {
	return &DOTGenerator{graph: g, scores: scores}
}

func (d *DOTGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("digraph dependencies {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8, penwidth=1.2];\n")
	buf.WriteString("  splines=polyline;\n")
	buf.WriteString("  overlap=false;\n\n")

	// Build cycle edge set for highlighting
	cycleEdges := make(map[string]map[string]bool)
	inCycle := make(map[string]bool)
	for _, cycle := range d.graph.CircularDependencies {
		for i := 0; i < len(cycle.Files); i++ {
			from := cycle.Files[i]
			to := cycle.Files[(i+1)%len(cycle.Files)]
			if cycleEdges[from] == nil {
				cycleEdges[from] = make(map[string]bool)
			}
			cycleEdges[from][to] = true
			inCycle[from] = true
		}
	}

	paths := make([]string, 0, len(d.graph.Nodes))
	for p := range d.graph.Nodes {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		node := d.graph.Nodes[p]
		label := fmt.Sprintf("%s\\n[%s]", p, node.Language)
		attrs := ""
		switch {
		case inCycle[p]:
			attrs = ", color=\"red\", fillcolor=\"mistyrose\", style=\"rounded,filled\""
		case d.scores[p] >= 0.7:
			attrs = ", fillcolor=\"palegreen\", style=\"rounded,filled\""
		}
		buf.WriteString(fmt.Sprintf("  %q [label=\"%s\"%s];\n", p, label, attrs))
	}
	buf.WriteString("\n")

	for _, e := range d.graph.Edges {
		if cycleEdges[e.From][e.To] {
			buf.WriteString(fmt.Sprintf("  %q -> %q [color=\"red\", penwidth=2.0];\n", e.From, e.To))
		} else {
			buf.WriteString(fmt.Sprintf("  %q -> %q;\n", e.From, e.To))
		}
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}
