// # internal/graph/graph_test.go
package graph

import (
	"testing"

	"didact/internal/parser"
)

func pyFile(path string, imports ...string) FileInput {
	f := FileInput{Path: path, Language: "python"}
	for _, m := range imports {
		f.Imports = append(f.Imports, parser.ImportInfo{ModuleName: m, Line: 1})
	}
	return f
}

func TestBuildResolvesPythonImports(t *testing.T) {
	g := Build("proj", []FileInput{
		pyFile("proj/a.py", "b", "os"),
		pyFile("proj/b.py"),
	})

	if len(g.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(g.Nodes))
	}
	if len(g.Edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(g.Edges))
	}
	e := g.Edges[0]
	if e.From != "proj/a.py" || e.To != "proj/b.py" {
		t.Errorf("unexpected edge %s -> %s", e.From, e.To)
	}
	if g.ExternalDependencies["os"] != 1 {
		t.Errorf("expected os tallied as external, got %v", g.ExternalDependencies)
	}
}

func TestCycleDetection(t *testing.T) {
	g := Build("proj", []FileInput{
		pyFile("proj/a.py", "b"),
		pyFile("proj/b.py", "c"),
		pyFile("proj/c.py", "a"),
	})

	if len(g.CircularDependencies) != 1 {
		t.Fatalf("expected exactly 1 cycle, got %d", len(g.CircularDependencies))
	}
	cycle := g.CircularDependencies[0].Files
	if len(cycle) != 3 {
		t.Fatalf("expected cycle of 3 files, got %v", cycle)
	}
	want := map[string]bool{"proj/a.py": true, "proj/b.py": true, "proj/c.py": true}
	for _, f := range cycle {
		if !want[f] {
			t.Errorf("unexpected cycle member %s", f)
		}
	}
	// Cycle order follows the import chain from the smallest member.
	if cycle[0] != "proj/a.py" || cycle[1] != "proj/b.py" || cycle[2] != "proj/c.py" {
		t.Errorf("cycle not in import order: %v", cycle)
	}
}

func TestAcyclicChainHasNoCycles(t *testing.T) {
	g := Build("proj", []FileInput{
		pyFile("proj/a.py", "b"),
		pyFile("proj/b.py", "c"),
		pyFile("proj/c.py"),
	})
	if len(g.CircularDependencies) != 0 {
		t.Errorf("expected no cycles, got %v", g.CircularDependencies)
	}
}

func TestSelfImportReportedAsCycle(t *testing.T) {
	g := Build("proj", []FileInput{pyFile("proj/a.py", "a")})
	if len(g.CircularDependencies) != 1 {
		t.Fatalf("expected self-import cycle, got %v", g.CircularDependencies)
	}
	if files := g.CircularDependencies[0].Files; len(files) != 1 || files[0] != "proj/a.py" {
		t.Errorf("unexpected self cycle %v", files)
	}
}

func TestRelativeScriptImports(t *testing.T) {
	g := Build("web", []FileInput{
		{Path: "web/src/app.ts", Language: "typescript", Imports: []parser.ImportInfo{
			{ModuleName: "./util", Line: 1},
			{ModuleName: "./components", Line: 2},
			{ModuleName: "react", Line: 3, IsExternal: true},
		}},
		{Path: "web/src/util.ts", Language: "typescript"},
		{Path: "web/src/components/index.ts", Language: "typescript"},
	})

	if len(g.Edges) != 2 {
		t.Fatalf("expected 2 edges, got %v", g.Edges)
	}
	targets := map[string]bool{}
	for _, e := range g.Edges {
		targets[e.To] = true
	}
	if !targets["web/src/util.ts"] || !targets["web/src/components/index.ts"] {
		t.Errorf("unexpected targets %v", targets)
	}
	if g.ExternalDependencies["react"] != 1 {
		t.Errorf("react should be external: %v", g.ExternalDependencies)
	}
}

func TestGoPackageSuffixResolution(t *testing.T) {
	g := Build("repo", []FileInput{
		{Path: "repo/cmd/tool/main.go", Language: "go", Imports: []parser.ImportInfo{
			{ModuleName: "example.com/repo/internal/store", Line: 4},
			{ModuleName: "fmt", Line: 5},
		}},
		{Path: "repo/internal/store/store.go", Language: "go"},
	})

	if len(g.Edges) != 1 {
		t.Fatalf("expected 1 edge, got %v", g.Edges)
	}
	if g.Edges[0].To != "repo/internal/store/store.go" {
		t.Errorf("unexpected target %s", g.Edges[0].To)
	}
	if g.ExternalDependencies["fmt"] != 1 {
		t.Errorf("fmt should be external: %v", g.ExternalDependencies)
	}
}

func TestPythonRelativeImport(t *testing.T) {
	g := Build("pkg", []FileInput{
		pyFile("pkg/sub/mod.py", ".helper"),
		pyFile("pkg/sub/helper.py"),
		{Path: "pkg/sub/__init__.py", Language: "python"},
	})

	found := false
	for _, e := range g.Edges {
		if e.From == "pkg/sub/mod.py" && e.To == "pkg/sub/helper.py" {
			found = true
		}
	}
	if !found {
		t.Errorf("relative import not resolved: %v", g.Edges)
	}
}
