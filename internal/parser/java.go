// # internal/parser/java.go
package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// JavaExtractor normalizes Java parse trees. Every method lives on its
// ClassInfo; Java has no free functions so SymbolInfo.Functions stays empty.
type JavaExtractor struct{}

func (e *JavaExtractor) Extract(root *sitter.Node, source []byte, filePath string) (*SymbolInfo, error) {
	symbols := &SymbolInfo{}

	for i := uint(0); i < root.ChildCount(); i++ {
		child := root.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "import_declaration":
			e.extractImport(child, source, symbols)
		case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
			e.extractClass(child, source, symbols)
		}
	}

	return symbols, nil
}

func (e *JavaExtractor) extractImport(node *sitter.Node, source []byte, symbols *SymbolInfo) {
	path := ""
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if kind := child.Kind(); kind == "scoped_identifier" || kind == "identifier" {
			path = nodeText(child, source)
		}
	}
	if path == "" {
		return
	}

	imp := ImportInfo{
		ModuleName: path,
		IsExternal: strings.HasPrefix(path, "java.") || strings.HasPrefix(path, "javax."),
		Line:       startLine(node),
	}
	if idx := strings.LastIndex(path, "."); idx > 0 && idx < len(path)-1 {
		imp.ImportedNames = []string{path[idx+1:]}
	}
	symbols.Imports = append(symbols.Imports, imp)
}

func (e *JavaExtractor) extractClass(node *sitter.Node, source []byte, symbols *SymbolInfo) {
	name := nodeText(node.ChildByFieldName("name"), source)
	if name == "" {
		return
	}

	cls := ClassInfo{
		Name:      name,
		Doc:       precedingComment(node, source, "block_comment", "line_comment"),
		StartLine: startLine(node),
		EndLine:   endLine(node),
	}

	if superclass := node.ChildByFieldName("superclass"); superclass != nil {
		base := strings.TrimSpace(strings.TrimPrefix(nodeText(superclass, source), "extends"))
		if base != "" {
			cls.BaseClasses = append(cls.BaseClasses, base)
		}
	}
	if interfaces := node.ChildByFieldName("interfaces"); interfaces != nil {
		if list := childOfKind(interfaces, "type_list"); list != nil {
			for i := uint(0); i < list.ChildCount(); i++ {
				iface := list.Child(i)
				if iface == nil || iface.Kind() == "," {
					continue
				}
				cls.BaseClasses = append(cls.BaseClasses, nodeText(iface, source))
			}
		}
	}

	if body := node.ChildByFieldName("body"); body != nil {
		for i := uint(0); i < body.ChildCount(); i++ {
			member := body.Child(i)
			if member == nil {
				continue
			}
			switch member.Kind() {
			case "method_declaration", "constructor_declaration":
				if fn, ok := e.method(member, source); ok {
					cls.Methods = append(cls.Methods, fn)
				}
			case "class_declaration", "interface_declaration", "enum_declaration":
				// Nested types are indexed as their own classes.
				e.extractClass(member, source, symbols)
			}
		}
	}

	symbols.Classes = append(symbols.Classes, cls)
	if e.isPublic(node, source) {
		symbols.Exports = append(symbols.Exports, name)
	}
}

func (e *JavaExtractor) method(node *sitter.Node, source []byte) (FunctionInfo, bool) {
	name := nodeText(node.ChildByFieldName("name"), source)
	if name == "" {
		return FunctionInfo{}, false
	}

	fn := FunctionInfo{
		Name:      name,
		Doc:       precedingComment(node, source, "block_comment", "line_comment"),
		StartLine: startLine(node),
		EndLine:   endLine(node),
	}

	if params := node.ChildByFieldName("parameters"); params != nil {
		for i := uint(0); i < params.ChildCount(); i++ {
			p := params.Child(i)
			if p != nil && (p.Kind() == "formal_parameter" || p.Kind() == "spread_parameter") {
				fn.Parameters = append(fn.Parameters, nodeText(p, source))
			}
		}
	}
	if ret := node.ChildByFieldName("type"); ret != nil {
		fn.ReturnType = nodeText(ret, source)
	}
	fn.Decorators = e.annotations(node, source)

	return fn, true
}

// annotations captures @Annotation markers as opaque strings.
func (e *JavaExtractor) annotations(node *sitter.Node, source []byte) []string {
	modifiers := childOfKind(node, "modifiers")
	if modifiers == nil {
		return nil
	}
	var out []string
	for i := uint(0); i < modifiers.ChildCount(); i++ {
		m := modifiers.Child(i)
		if m == nil {
			continue
		}
		if kind := m.Kind(); kind == "annotation" || kind == "marker_annotation" {
			out = append(out, strings.TrimPrefix(nodeText(m, source), "@"))
		}
	}
	return out
}

func (e *JavaExtractor) isPublic(node *sitter.Node, source []byte) bool {
	modifiers := childOfKind(node, "modifiers")
	if modifiers == nil {
		return false
	}
	return strings.Contains(nodeText(modifiers, source), "public")
}
