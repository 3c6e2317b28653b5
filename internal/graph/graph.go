// # internal/graph/graph.go
package graph

import (
	"path"
	"sort"
	"strings"

	"didact/internal/parser"
)

type FileNode struct {
	Path     string   `json:"path"`
	Language string   `json:"language"`
	Exports  []string `json:"exports,omitempty"`
}

type DependencyEdge struct {
	From       string `json:"from"`
	To         string `json:"to"`
	ModuleName string `json:"module_name"`
	Line       int    `json:"line"`
}

type CircularDependency struct {
	// Files lists the participants in cycle order.
	Files []string `json:"files"`
}

// DependencyGraph owns the full node/edge set for one codebase snapshot.
// It is rebuilt wholesale on each codebase analysis: edge resolution depends
// on the full import/export surface, and patching risks stale edges after a
// file is deleted or an import removed.
type DependencyGraph struct {
	Nodes                map[string]FileNode  `json:"nodes"`
	Edges                []DependencyEdge     `json:"edges"`
	CircularDependencies []CircularDependency `json:"circular_dependencies"`
	// ExternalDependencies tallies unresolved imports by module name.
	ExternalDependencies map[string]int `json:"external_dependencies"`
}

// FileInput is the slice of a FileAnalysis the graph builder needs. Workers
// hand results over by value; the builder owns everything it creates.
type FileInput struct {
	Path     string
	Language string
	Imports  []parser.ImportInfo
	Exports  []string
}

// Build constructs the graph for one snapshot. Nodes are keyed by the path
// as given; resolution works on root-relative, slash-separated paths.
func Build(root string, files []FileInput) *DependencyGraph {
	g := &DependencyGraph{
		Nodes:                make(map[string]FileNode, len(files)),
		ExternalDependencies: make(map[string]int),
	}

	sorted := append([]FileInput(nil), files...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	index := newModuleIndex(root, sorted)

	for _, f := range sorted {
		g.Nodes[f.Path] = FileNode{
			Path:     f.Path,
			Language: f.Language,
			Exports:  append([]string(nil), f.Exports...),
		}
	}

	for _, f := range sorted {
		for _, imp := range f.Imports {
			targets := index.resolve(f, imp)
			if len(targets) == 0 {
				g.ExternalDependencies[imp.ModuleName]++
				continue
			}
			for _, target := range targets {
				if target == f.Path {
					continue
				}
				g.Edges = append(g.Edges, DependencyEdge{
					From:       f.Path,
					To:         target,
					ModuleName: imp.ModuleName,
					Line:       imp.Line,
				})
			}
		}
	}

	g.CircularDependencies = detectCycles(g)
	return g
}

// moduleIndex maps language-specific module spellings back to file paths.
type moduleIndex struct {
	root string
	// byModule maps a module key to the file paths it could refer to.
	byModule map[string][]string
	// byDir maps a relative directory to the files inside it (for Go
	// package-level imports).
	byDir map[string][]string
	// byRelPath maps a relative path (with extension) to the node path.
	byRelPath map[string]string
}

func newModuleIndex(root string, files []FileInput) *moduleIndex {
	idx := &moduleIndex{
		root:      root,
		byModule:  make(map[string][]string),
		byDir:     make(map[string][]string),
		byRelPath: make(map[string]string),
	}

	for _, f := range files {
		rel := relSlashPath(root, f.Path)
		idx.byRelPath[rel] = f.Path
		dir := path.Dir(rel)
		idx.byDir[dir] = append(idx.byDir[dir], f.Path)

		for _, key := range moduleKeys(rel, f.Language) {
			idx.byModule[key] = append(idx.byModule[key], f.Path)
		}
	}
	return idx
}

// moduleKeys lists every module name the file at rel can be imported as.
func moduleKeys(rel, language string) []string {
	noExt := strings.TrimSuffix(rel, path.Ext(rel))
	var keys []string

	switch language {
	case "python":
		dotted := strings.ReplaceAll(noExt, "/", ".")
		if strings.HasSuffix(dotted, ".__init__") {
			dotted = strings.TrimSuffix(dotted, ".__init__")
		}
		keys = append(keys, dotted)
		if base := path.Base(noExt); base != dotted && base != "__init__" {
			keys = append(keys, base)
		}
	case "java":
		keys = append(keys, strings.ReplaceAll(noExt, "/", "."))
	case "rust":
		colons := strings.ReplaceAll(noExt, "/", "::")
		keys = append(keys, colons, "crate::"+colons)
		if strings.HasSuffix(colons, "::mod") {
			trimmed := strings.TrimSuffix(colons, "::mod")
			keys = append(keys, trimmed, "crate::"+trimmed)
		}
	}
	return keys
}

func (idx *moduleIndex) resolve(from FileInput, imp parser.ImportInfo) []string {
	switch from.Language {
	case "javascript", "typescript":
		return idx.resolveRelative(from.Path, imp.ModuleName)
	case "go":
		return idx.resolveGoPackage(imp.ModuleName)
	case "python":
		if strings.HasPrefix(imp.ModuleName, ".") {
			return idx.resolvePythonRelative(from.Path, imp.ModuleName)
		}
		return idx.byModule[imp.ModuleName]
	default:
		return idx.byModule[imp.ModuleName]
	}
}

var scriptExtensions = []string{".js", ".cjs", ".mjs", ".ts", ".tsx"}

func (idx *moduleIndex) resolveRelative(fromPath, specifier string) []string {
	if !strings.HasPrefix(specifier, ".") && !strings.HasPrefix(specifier, "/") {
		return nil
	}
	fromRel := relSlashPath(idx.root, fromPath)
	joined := path.Join(path.Dir(fromRel), specifier)

	if target, ok := idx.byRelPath[joined]; ok {
		return []string{target}
	}
	for _, ext := range scriptExtensions {
		if target, ok := idx.byRelPath[joined+ext]; ok {
			return []string{target}
		}
		if target, ok := idx.byRelPath[path.Join(joined, "index"+ext)]; ok {
			return []string{target}
		}
	}
	return nil
}

// resolveGoPackage matches an import path against analyzed directories by
// suffix, longest relative directory first.
func (idx *moduleIndex) resolveGoPackage(importPath string) []string {
	var best string
	for dir := range idx.byDir {
		if dir == "." {
			continue
		}
		if importPath == dir || strings.HasSuffix(importPath, "/"+dir) {
			if len(dir) > len(best) {
				best = dir
			}
		}
	}
	if best == "" {
		return nil
	}
	targets := append([]string(nil), idx.byDir[best]...)
	sort.Strings(targets)
	return targets
}

func (idx *moduleIndex) resolvePythonRelative(fromPath, module string) []string {
	dots := 0
	for dots < len(module) && module[dots] == '.' {
		dots++
	}
	rest := module[dots:]

	dir := path.Dir(relSlashPath(idx.root, fromPath))
	for i := 1; i < dots; i++ {
		dir = path.Dir(dir)
	}

	target := dir
	if rest != "" {
		target = path.Join(dir, strings.ReplaceAll(rest, ".", "/"))
	}

	if p, ok := idx.byRelPath[target+".py"]; ok {
		return []string{p}
	}
	if p, ok := idx.byRelPath[path.Join(target, "__init__.py")]; ok {
		return []string{p}
	}
	return nil
}

func relSlashPath(root, filePath string) string {
	rel := filePath
	if root != "" {
		trimmed := strings.TrimPrefix(filePath, root)
		if trimmed != filePath {
			rel = strings.TrimLeft(trimmed, "/\\")
		}
	}
	return strings.ReplaceAll(rel, "\\", "/")
}
