// # internal/parser/javascript.go
package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// JavaScriptExtractor covers both JavaScript and TypeScript trees; the two
// grammars share node kinds for everything the symbol model needs. TS-only
// constructs with no model equivalent (interfaces, type aliases) contribute
// exports and nothing else.
type JavaScriptExtractor struct {
	typescript bool
}

func (e *JavaScriptExtractor) Extract(root *sitter.Node, source []byte, filePath string) (*SymbolInfo, error) {
	symbols := &SymbolInfo{}
	e.walkProgram(root, source, symbols, false)
	return symbols, nil
}

func (e *JavaScriptExtractor) walkProgram(node *sitter.Node, source []byte, symbols *SymbolInfo, exported bool) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "import_statement":
			e.extractImport(child, source, symbols)
		case "export_statement":
			e.extractExport(child, source, symbols)
		case "function_declaration", "generator_function_declaration":
			if fn, ok := e.function(child, source); ok {
				symbols.Functions = append(symbols.Functions, fn)
				if exported {
					symbols.Exports = append(symbols.Exports, fn.Name)
				}
			}
		case "class_declaration":
			if cls, ok := e.class(child, source); ok {
				symbols.Classes = append(symbols.Classes, cls)
				if exported {
					symbols.Exports = append(symbols.Exports, cls.Name)
				}
			}
		case "lexical_declaration", "variable_declaration":
			e.extractArrowFunctions(child, source, symbols, exported)
		case "interface_declaration", "type_alias_declaration", "enum_declaration":
			if exported {
				if name := nodeText(child.ChildByFieldName("name"), source); name != "" {
					symbols.Exports = append(symbols.Exports, name)
				}
			}
		}
	}
}

func (e *JavaScriptExtractor) extractImport(node *sitter.Node, source []byte, symbols *SymbolInfo) {
	sourceNode := node.ChildByFieldName("source")
	if sourceNode == nil {
		return
	}
	specifier := stripStringQuotes(nodeText(sourceNode, source))
	imp := ImportInfo{
		ModuleName: specifier,
		IsExternal: !strings.HasPrefix(specifier, ".") && !strings.HasPrefix(specifier, "/"),
		Line:       startLine(node),
	}

	if clause := childOfKind(node, "import_clause"); clause != nil {
		var collect func(n *sitter.Node)
		collect = func(n *sitter.Node) {
			for i := uint(0); i < n.ChildCount(); i++ {
				part := n.Child(i)
				if part == nil {
					continue
				}
				switch part.Kind() {
				case "identifier":
					imp.ImportedNames = append(imp.ImportedNames, nodeText(part, source))
				case "import_specifier":
					if name := part.ChildByFieldName("name"); name != nil {
						imp.ImportedNames = append(imp.ImportedNames, nodeText(name, source))
					}
				case "named_imports", "namespace_import":
					collect(part)
				}
			}
		}
		collect(clause)
	}

	symbols.Imports = append(symbols.Imports, imp)
}

func (e *JavaScriptExtractor) extractExport(node *sitter.Node, source []byte, symbols *SymbolInfo) {
	// export default expr
	if hasChildOfKind(node, "default") {
		symbols.Exports = append(symbols.Exports, "default")
	}

	if clause := childOfKind(node, "export_clause"); clause != nil {
		for i := uint(0); i < clause.ChildCount(); i++ {
			spec := clause.Child(i)
			if spec != nil && spec.Kind() == "export_specifier" {
				if name := spec.ChildByFieldName("name"); name != nil {
					symbols.Exports = append(symbols.Exports, nodeText(name, source))
				}
			}
		}
		return
	}

	if decl := node.ChildByFieldName("declaration"); decl != nil {
		before := len(symbols.Functions) + len(symbols.Classes)
		e.walkDeclaration(decl, source, symbols)
		// The comment sits above the export statement, not the declaration.
		if doc := docComment(node, source); doc != "" && len(symbols.Functions)+len(symbols.Classes) > before {
			if n := len(symbols.Functions); n > 0 && symbols.Functions[n-1].Doc == "" {
				symbols.Functions[n-1].Doc = doc
			} else if n := len(symbols.Classes); n > 0 && symbols.Classes[n-1].Doc == "" {
				symbols.Classes[n-1].Doc = doc
			}
		}
	}
}

// walkDeclaration handles the declaration inside an export statement; the
// declared symbols are both indexed and exported.
func (e *JavaScriptExtractor) walkDeclaration(decl *sitter.Node, source []byte, symbols *SymbolInfo) {
	switch decl.Kind() {
	case "function_declaration", "generator_function_declaration":
		if fn, ok := e.function(decl, source); ok {
			symbols.Functions = append(symbols.Functions, fn)
			symbols.Exports = append(symbols.Exports, fn.Name)
		}
	case "class_declaration":
		if cls, ok := e.class(decl, source); ok {
			symbols.Classes = append(symbols.Classes, cls)
			symbols.Exports = append(symbols.Exports, cls.Name)
		}
	case "lexical_declaration", "variable_declaration":
		e.extractArrowFunctions(decl, source, symbols, true)
	case "interface_declaration", "type_alias_declaration", "enum_declaration":
		if name := nodeText(decl.ChildByFieldName("name"), source); name != "" {
			symbols.Exports = append(symbols.Exports, name)
		}
	}
}

func (e *JavaScriptExtractor) extractArrowFunctions(node *sitter.Node, source []byte, symbols *SymbolInfo, exported bool) {
	for i := uint(0); i < node.ChildCount(); i++ {
		declarator := node.Child(i)
		if declarator == nil || declarator.Kind() != "variable_declarator" {
			continue
		}
		value := declarator.ChildByFieldName("value")
		if value == nil {
			continue
		}
		kind := value.Kind()
		if kind != "arrow_function" && kind != "function_expression" && kind != "function" {
			continue
		}
		name := nodeText(declarator.ChildByFieldName("name"), source)
		if name == "" {
			continue
		}

		fn := FunctionInfo{
			Name:      name,
			Doc:       precedingComment(node, source, "comment"),
			StartLine: startLine(node),
			EndLine:   endLine(node),
			IsAsync:   hasChildOfKind(value, "async"),
		}
		e.fillParams(value, source, &fn)
		symbols.Functions = append(symbols.Functions, fn)
		if exported {
			symbols.Exports = append(symbols.Exports, name)
		}
	}
}

func (e *JavaScriptExtractor) function(node *sitter.Node, source []byte) (FunctionInfo, bool) {
	name := nodeText(node.ChildByFieldName("name"), source)
	if name == "" {
		return FunctionInfo{}, false
	}

	fn := FunctionInfo{
		Name:      name,
		Doc:       docComment(node, source),
		StartLine: startLine(node),
		EndLine:   endLine(node),
		IsAsync:   hasChildOfKind(node, "async"),
	}
	e.fillParams(node, source, &fn)
	return fn, true
}

func (e *JavaScriptExtractor) class(node *sitter.Node, source []byte) (ClassInfo, bool) {
	name := nodeText(node.ChildByFieldName("name"), source)
	if name == "" {
		return ClassInfo{}, false
	}

	cls := ClassInfo{
		Name:      name,
		Doc:       docComment(node, source),
		StartLine: startLine(node),
		EndLine:   endLine(node),
	}

	if heritage := childOfKind(node, "class_heritage"); heritage != nil {
		for i := uint(0); i < heritage.ChildCount(); i++ {
			part := heritage.Child(i)
			if part == nil {
				continue
			}
			if kind := part.Kind(); kind == "identifier" || kind == "member_expression" {
				cls.BaseClasses = append(cls.BaseClasses, nodeText(part, source))
			}
		}
	}

	if body := node.ChildByFieldName("body"); body != nil {
		for i := uint(0); i < body.ChildCount(); i++ {
			member := body.Child(i)
			if member == nil || member.Kind() != "method_definition" {
				continue
			}
			methodName := nodeText(member.ChildByFieldName("name"), source)
			if methodName == "" {
				continue
			}
			method := FunctionInfo{
				Name:      methodName,
				Doc:       docComment(member, source),
				StartLine: startLine(member),
				EndLine:   endLine(member),
				IsAsync:   hasChildOfKind(member, "async"),
			}
			e.fillParams(member, source, &method)
			cls.Methods = append(cls.Methods, method)
		}
	}

	return cls, true
}

func (e *JavaScriptExtractor) fillParams(node *sitter.Node, source []byte, fn *FunctionInfo) {
	if params := node.ChildByFieldName("parameters"); params != nil {
		for i := uint(0); i < params.ChildCount(); i++ {
			p := params.Child(i)
			if p == nil {
				continue
			}
			switch p.Kind() {
			case "identifier", "required_parameter", "optional_parameter",
				"object_pattern", "array_pattern", "rest_pattern", "assignment_pattern":
				fn.Parameters = append(fn.Parameters, nodeText(p, source))
			}
		}
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		fn.ReturnType = strings.TrimPrefix(nodeText(ret, source), ": ")
	}
}

func docComment(node *sitter.Node, source []byte) string {
	return precedingComment(node, source, "comment")
}
