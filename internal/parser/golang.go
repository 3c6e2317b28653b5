// # internal/parser/golang.go
package parser

import (
	"strings"
	"unicode"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// GoExtractor normalizes Go parse trees. Go has no class construct, so
// methods are recorded as free functions with the receiver as the first
// parameter; ClassInfo is never invented for receiver types.
type GoExtractor struct{}

func (e *GoExtractor) Extract(root *sitter.Node, source []byte, filePath string) (*SymbolInfo, error) {
	symbols := &SymbolInfo{}

	for i := uint(0); i < root.ChildCount(); i++ {
		child := root.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "import_declaration":
			e.extractImports(child, source, symbols)
		case "function_declaration", "method_declaration":
			e.extractFunction(child, source, symbols)
		case "type_declaration":
			e.extractTypeExports(child, source, symbols)
		}
	}

	return symbols, nil
}

func (e *GoExtractor) extractImports(node *sitter.Node, source []byte, symbols *SymbolInfo) {
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		for i := uint(0); i < n.ChildCount(); i++ {
			child := n.Child(i)
			if child == nil {
				continue
			}
			if child.Kind() != "import_spec" {
				walk(child)
				continue
			}

			var path string
			for j := uint(0); j < child.ChildCount(); j++ {
				spec := child.Child(j)
				if spec != nil && spec.Kind() == "interpreted_string_literal" {
					path = strings.Trim(nodeText(spec, source), "\"")
				}
			}
			if path == "" {
				continue
			}

			symbols.Imports = append(symbols.Imports, ImportInfo{
				ModuleName: path,
				IsExternal: goImportLooksExternal(path),
				Line:       startLine(child),
			})
		}
	}
	walk(node)
}

func (e *GoExtractor) extractFunction(node *sitter.Node, source []byte, symbols *SymbolInfo) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		nameNode = childOfKind(node, "identifier")
	}
	name := nodeText(nameNode, source)
	if name == "" {
		return
	}

	fn := FunctionInfo{
		Name:      name,
		Doc:       precedingComment(node, source, "comment"),
		StartLine: startLine(node),
		EndLine:   endLine(node),
	}

	if receiver := node.ChildByFieldName("receiver"); receiver != nil {
		fn.Parameters = append(fn.Parameters, strings.Trim(nodeText(receiver, source), "()"))
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		for i := uint(0); i < params.ChildCount(); i++ {
			p := params.Child(i)
			if p != nil && p.Kind() == "parameter_declaration" {
				fn.Parameters = append(fn.Parameters, nodeText(p, source))
			}
		}
	}
	if result := node.ChildByFieldName("result"); result != nil {
		fn.ReturnType = nodeText(result, source)
	}

	symbols.Functions = append(symbols.Functions, fn)
	if isExportedGoName(name) {
		symbols.Exports = append(symbols.Exports, name)
	}
}

func (e *GoExtractor) extractTypeExports(node *sitter.Node, source []byte, symbols *SymbolInfo) {
	for i := uint(0); i < node.ChildCount(); i++ {
		spec := node.Child(i)
		if spec == nil || spec.Kind() != "type_spec" {
			continue
		}
		name := nodeText(childOfKind(spec, "type_identifier"), source)
		if isExportedGoName(name) {
			symbols.Exports = append(symbols.Exports, name)
		}
	}
}

func isExportedGoName(name string) bool {
	return name != "" && unicode.IsUpper(rune(name[0]))
}

// goImportLooksExternal reports whether an import path names a module from
// outside the repository: stdlib ("fmt", "net/http") stays internal-looking
// but can never resolve to a project file either, so only domain-qualified
// paths are flagged.
func goImportLooksExternal(path string) bool {
	first := path
	if idx := strings.Index(path, "/"); idx > 0 {
		first = path[:idx]
	}
	return strings.Contains(first, ".")
}
