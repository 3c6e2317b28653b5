// # internal/parser/python.go
package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// PythonExtractor normalizes Python parse trees. Methods stay on their
// ClassInfo; only module-level defs become free functions. Functions nested
// inside other functions are deliberately not indexed.
type PythonExtractor struct{}

func (e *PythonExtractor) Extract(root *sitter.Node, source []byte, filePath string) (*SymbolInfo, error) {
	symbols := &SymbolInfo{}
	var explicitAll []string

	for i := uint(0); i < root.ChildCount(); i++ {
		child := root.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "import_statement":
			e.extractImport(child, source, symbols)
		case "import_from_statement":
			e.extractFromImport(child, source, symbols)
		case "function_definition":
			if fn, ok := e.function(child, source, nil); ok {
				symbols.Functions = append(symbols.Functions, fn)
			}
		case "class_definition":
			e.extractClass(child, source, symbols, nil)
		case "decorated_definition":
			e.extractDecorated(child, source, symbols)
		case "expression_statement":
			if names := e.dunderAll(child, source); names != nil {
				explicitAll = names
			}
		}
	}

	if explicitAll != nil {
		symbols.Exports = explicitAll
	} else {
		for _, fn := range symbols.Functions {
			if isPublicName(fn.Name) {
				symbols.Exports = append(symbols.Exports, fn.Name)
			}
		}
		for _, cls := range symbols.Classes {
			if isPublicName(cls.Name) {
				symbols.Exports = append(symbols.Exports, cls.Name)
			}
		}
	}

	return symbols, nil
}

func (e *PythonExtractor) extractImport(node *sitter.Node, source []byte, symbols *SymbolInfo) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "dotted_name", "identifier":
			symbols.Imports = append(symbols.Imports, ImportInfo{
				ModuleName: nodeText(child, source),
				Line:       startLine(child),
			})
		case "aliased_import":
			if name := childOfKind(child, "dotted_name"); name != nil {
				symbols.Imports = append(symbols.Imports, ImportInfo{
					ModuleName: nodeText(name, source),
					Line:       startLine(child),
				})
			}
		}
	}
}

func (e *PythonExtractor) extractFromImport(node *sitter.Node, source []byte, symbols *SymbolInfo) {
	imp := ImportInfo{Line: startLine(node)}
	sawFrom := false

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "from":
			sawFrom = true
		case "relative_import":
			imp.ModuleName = nodeText(child, source)
		case "dotted_name", "identifier":
			if sawFrom && imp.ModuleName == "" {
				imp.ModuleName = nodeText(child, source)
			} else {
				imp.ImportedNames = append(imp.ImportedNames, nodeText(child, source))
			}
		case "aliased_import":
			if name := child.Child(0); name != nil {
				imp.ImportedNames = append(imp.ImportedNames, nodeText(name, source))
			}
		case "wildcard_import":
			imp.ImportedNames = append(imp.ImportedNames, "*")
		}
	}

	if imp.ModuleName != "" {
		symbols.Imports = append(symbols.Imports, imp)
	}
}

func (e *PythonExtractor) extractDecorated(node *sitter.Node, source []byte, symbols *SymbolInfo) {
	var decorators []string
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "decorator":
			decorators = append(decorators, strings.TrimPrefix(nodeText(child, source), "@"))
		case "function_definition":
			if fn, ok := e.function(child, source, decorators); ok {
				symbols.Functions = append(symbols.Functions, fn)
			}
		case "class_definition":
			e.extractClass(child, source, symbols, decorators)
		}
	}
}

func (e *PythonExtractor) extractClass(node *sitter.Node, source []byte, symbols *SymbolInfo, decorators []string) {
	name := nodeText(node.ChildByFieldName("name"), source)
	if name == "" {
		return
	}
	_ = decorators // class decorators are not part of the symbol model

	cls := ClassInfo{
		Name:      name,
		StartLine: startLine(node),
		EndLine:   endLine(node),
	}

	if superclasses := node.ChildByFieldName("superclasses"); superclasses != nil {
		for i := uint(0); i < superclasses.ChildCount(); i++ {
			base := superclasses.Child(i)
			if base == nil {
				continue
			}
			if kind := base.Kind(); kind == "identifier" || kind == "attribute" {
				cls.BaseClasses = append(cls.BaseClasses, nodeText(base, source))
			}
		}
	}

	if body := node.ChildByFieldName("body"); body != nil {
		cls.Doc = docstring(body, source)
		for i := uint(0); i < body.ChildCount(); i++ {
			stmt := body.Child(i)
			if stmt == nil {
				continue
			}
			switch stmt.Kind() {
			case "function_definition":
				if fn, ok := e.function(stmt, source, nil); ok {
					cls.Methods = append(cls.Methods, fn)
				}
			case "decorated_definition":
				var methodDecorators []string
				for j := uint(0); j < stmt.ChildCount(); j++ {
					part := stmt.Child(j)
					if part == nil {
						continue
					}
					if part.Kind() == "decorator" {
						methodDecorators = append(methodDecorators, strings.TrimPrefix(nodeText(part, source), "@"))
					} else if part.Kind() == "function_definition" {
						if fn, ok := e.function(part, source, methodDecorators); ok {
							cls.Methods = append(cls.Methods, fn)
						}
					}
				}
			}
		}
	}

	symbols.Classes = append(symbols.Classes, cls)
}

func (e *PythonExtractor) function(node *sitter.Node, source []byte, decorators []string) (FunctionInfo, bool) {
	name := nodeText(node.ChildByFieldName("name"), source)
	if name == "" {
		return FunctionInfo{}, false
	}

	fn := FunctionInfo{
		Name:       name,
		StartLine:  startLine(node),
		EndLine:    endLine(node),
		IsAsync:    hasChildOfKind(node, "async"),
		Decorators: decorators,
	}

	if params := node.ChildByFieldName("parameters"); params != nil {
		for i := uint(0); i < params.ChildCount(); i++ {
			p := params.Child(i)
			if p == nil {
				continue
			}
			switch p.Kind() {
			case "identifier":
				fn.Parameters = append(fn.Parameters, nodeText(p, source))
			case "typed_parameter", "default_parameter", "typed_default_parameter",
				"list_splat_pattern", "dictionary_splat_pattern":
				fn.Parameters = append(fn.Parameters, nodeText(p, source))
			}
		}
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		fn.ReturnType = nodeText(ret, source)
	}
	if body := node.ChildByFieldName("body"); body != nil {
		fn.Doc = docstring(body, source)
	}

	return fn, true
}

// docstring returns the leading string literal of a block, if any.
func docstring(body *sitter.Node, source []byte) string {
	first := body.Child(0)
	if first == nil || first.Kind() != "expression_statement" {
		return ""
	}
	str := first.Child(0)
	if str == nil || str.Kind() != "string" {
		return ""
	}
	return strings.TrimSpace(stripStringQuotes(nodeText(str, source)))
}

func (e *PythonExtractor) dunderAll(node *sitter.Node, source []byte) []string {
	assign := childOfKind(node, "assignment")
	if assign == nil {
		return nil
	}
	left := assign.ChildByFieldName("left")
	if left == nil || nodeText(left, source) != "__all__" {
		return nil
	}
	right := assign.ChildByFieldName("right")
	if right == nil || right.Kind() != "list" {
		return nil
	}

	var names []string
	for i := uint(0); i < right.ChildCount(); i++ {
		item := right.Child(i)
		if item != nil && item.Kind() == "string" {
			names = append(names, stripStringQuotes(nodeText(item, source)))
		}
	}
	return names
}
