// # internal/graph/detect.go
package graph

import "sort"

// detectCycles reports every strongly connected component with more than one
// file, plus single files that import themselves.
func detectCycles(g *DependencyGraph) []CircularDependency {
	nodes := make([]string, 0, len(g.Nodes))
	for p := range g.Nodes {
		nodes = append(nodes, p)
	}
	sort.Strings(nodes)

	adjacency := make(map[string][]string, len(nodes))
	selfEdge := make(map[string]bool)
	for _, e := range g.Edges {
		if e.From == e.To {
			selfEdge[e.From] = true
			continue
		}
		adjacency[e.From] = append(adjacency[e.From], e.To)
	}
	for from := range adjacency {
		sort.Strings(adjacency[from])
	}

	var cycles []CircularDependency
	for _, component := range stronglyConnectedComponents(nodes, adjacency) {
		if len(component) < 2 {
			continue
		}
		cycles = append(cycles, CircularDependency{
			Files: cycleOrder(component, adjacency),
		})
	}
	for _, p := range nodes {
		if selfEdge[p] {
			cycles = append(cycles, CircularDependency{Files: []string{p}})
		}
	}

	sort.Slice(cycles, func(i, j int) bool {
		return cycles[i].Files[0] < cycles[j].Files[0]
	})
	return cycles
}

// stronglyConnectedComponents runs Tarjan's algorithm. Components come back
// in reverse topological order; each is sorted for stable output.
func stronglyConnectedComponents(nodes []string, adjacency map[string][]string) [][]string {
	index := 0
	indices := make(map[string]int, len(nodes))
	lowlinks := make(map[string]int, len(nodes))
	onStack := make(map[string]bool, len(nodes))
	var stack []string
	var components [][]string

	var strongConnect func(v string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlinks[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adjacency[v] {
			if _, seen := indices[w]; !seen {
				strongConnect(w)
				if lowlinks[w] < lowlinks[v] {
					lowlinks[v] = lowlinks[w]
				}
			} else if onStack[w] {
				if indices[w] < lowlinks[v] {
					lowlinks[v] = indices[w]
				}
			}
		}

		if lowlinks[v] == indices[v] {
			var component []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				component = append(component, w)
				if w == v {
					break
				}
			}
			sort.Strings(component)
			components = append(components, component)
		}
	}

	for _, v := range nodes {
		if _, seen := indices[v]; !seen {
			strongConnect(v)
		}
	}
	return components
}

// cycleOrder walks edges inside the component starting from its smallest
// member so the reported cycle reads as an actual import chain.
func cycleOrder(component []string, adjacency map[string][]string) []string {
	inComponent := make(map[string]bool, len(component))
	for _, p := range component {
		inComponent[p] = true
	}

	ordered := make([]string, 0, len(component))
	visited := make(map[string]bool, len(component))
	current := component[0]
	for !visited[current] {
		ordered = append(ordered, current)
		visited[current] = true
		next := ""
		for _, w := range adjacency[current] {
			if inComponent[w] && !visited[w] {
				next = w
				break
			}
		}
		if next == "" {
			break
		}
		current = next
	}

	// The greedy walk can strand members when the component is not a
	// simple ring; append leftovers so every participant is reported.
	for _, p := range component {
		if !visited[p] {
			ordered = append(ordered, p)
		}
	}
	return ordered
}
