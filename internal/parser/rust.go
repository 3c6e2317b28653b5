// # internal/parser/rust.go
package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// RustExtractor normalizes Rust parse trees. Struct and enum items become
// ClassInfo entries; methods from an impl block attach to the item's
// ClassInfo when that item is declared in the same file, otherwise they are
// recorded as free functions.
type RustExtractor struct{}

type rustImplBlock struct {
	target  string
	methods []FunctionInfo
}

func (e *RustExtractor) Extract(root *sitter.Node, source []byte, filePath string) (*SymbolInfo, error) {
	symbols := &SymbolInfo{}
	var impls []rustImplBlock

	for i := uint(0); i < root.ChildCount(); i++ {
		child := root.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "use_declaration":
			e.extractUse(child, source, symbols)
		case "function_item":
			if fn, ok := e.function(child, source); ok {
				symbols.Functions = append(symbols.Functions, fn)
				if e.isPub(child, source) {
					symbols.Exports = append(symbols.Exports, fn.Name)
				}
			}
		case "struct_item", "enum_item":
			e.extractStruct(child, source, symbols)
		case "impl_item":
			if impl, ok := e.extractImpl(child, source); ok {
				impls = append(impls, impl)
			}
		}
	}

	for _, impl := range impls {
		attached := false
		for i := range symbols.Classes {
			if symbols.Classes[i].Name == impl.target {
				symbols.Classes[i].Methods = append(symbols.Classes[i].Methods, impl.methods...)
				attached = true
				break
			}
		}
		if !attached {
			symbols.Functions = append(symbols.Functions, impl.methods...)
		}
	}

	return symbols, nil
}

func (e *RustExtractor) extractUse(node *sitter.Node, source []byte, symbols *SymbolInfo) {
	arg := node.ChildByFieldName("argument")
	if arg == nil {
		return
	}
	path := nodeText(arg, source)
	module := path
	var names []string

	// use a::b::{c, d} keeps a::b as the module and c, d as imported names.
	if idx := strings.Index(path, "{"); idx >= 0 {
		module = strings.TrimSuffix(strings.TrimSpace(path[:idx]), "::")
		inner := strings.Trim(path[idx:], "{}")
		for _, name := range strings.Split(inner, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				names = append(names, name)
			}
		}
	} else if idx := strings.LastIndex(path, "::"); idx > 0 {
		names = append(names, path[idx+2:])
	}

	first := module
	if idx := strings.Index(module, "::"); idx > 0 {
		first = module[:idx]
	}

	symbols.Imports = append(symbols.Imports, ImportInfo{
		ModuleName:    module,
		ImportedNames: names,
		IsExternal:    first != "crate" && first != "self" && first != "super" && first != "std",
		Line:          startLine(node),
	})
}

func (e *RustExtractor) extractStruct(node *sitter.Node, source []byte, symbols *SymbolInfo) {
	name := nodeText(node.ChildByFieldName("name"), source)
	if name == "" {
		return
	}

	symbols.Classes = append(symbols.Classes, ClassInfo{
		Name:      name,
		Doc:       precedingComment(node, source, "line_comment", "block_comment"),
		StartLine: startLine(node),
		EndLine:   endLine(node),
	})
	if e.isPub(node, source) {
		symbols.Exports = append(symbols.Exports, name)
	}
}

func (e *RustExtractor) extractImpl(node *sitter.Node, source []byte) (rustImplBlock, bool) {
	typeNode := node.ChildByFieldName("type")
	if typeNode == nil {
		return rustImplBlock{}, false
	}
	impl := rustImplBlock{target: e.baseTypeName(nodeText(typeNode, source))}

	if body := node.ChildByFieldName("body"); body != nil {
		for i := uint(0); i < body.ChildCount(); i++ {
			member := body.Child(i)
			if member == nil || member.Kind() != "function_item" {
				continue
			}
			if fn, ok := e.function(member, source); ok {
				impl.methods = append(impl.methods, fn)
			}
		}
	}

	return impl, len(impl.methods) > 0 || impl.target != ""
}

func (e *RustExtractor) function(node *sitter.Node, source []byte) (FunctionInfo, bool) {
	name := nodeText(node.ChildByFieldName("name"), source)
	if name == "" {
		return FunctionInfo{}, false
	}

	fn := FunctionInfo{
		Name:      name,
		Doc:       precedingComment(node, source, "line_comment", "block_comment"),
		StartLine: startLine(node),
		EndLine:   endLine(node),
		IsAsync:   hasChildOfKind(node, "async"),
	}

	if params := node.ChildByFieldName("parameters"); params != nil {
		for i := uint(0); i < params.ChildCount(); i++ {
			p := params.Child(i)
			if p == nil {
				continue
			}
			if kind := p.Kind(); kind == "parameter" || kind == "self_parameter" {
				fn.Parameters = append(fn.Parameters, nodeText(p, source))
			}
		}
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		fn.ReturnType = nodeText(ret, source)
	}

	return fn, true
}

// baseTypeName strips generic arguments: "Foo<T>" resolves to "Foo".
func (e *RustExtractor) baseTypeName(text string) string {
	if idx := strings.Index(text, "<"); idx > 0 {
		return strings.TrimSpace(text[:idx])
	}
	return strings.TrimSpace(text)
}

func (e *RustExtractor) isPub(node *sitter.Node, source []byte) bool {
	return hasChildOfKind(node, "visibility_modifier")
}
