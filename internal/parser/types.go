// # internal/parser/types.go
package parser

import (
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Span is a closed line range, 1-based.
type Span struct {
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`
}

// ParseResult is owned by the pipeline invocation that created it. The tree
// handle is released after symbol extraction; only derived data is cached.
type ParseResult struct {
	FilePath   string
	Language   string
	Tree       *sitter.Tree
	Source     []byte
	HasErrors  bool
	ErrorSpans []Span
	ParseTime  time.Duration
}

// Close releases the underlying tree. Safe to call more than once.
func (r *ParseResult) Close() {
	if r.Tree != nil {
		r.Tree.Close()
		r.Tree = nil
	}
}

type FunctionInfo struct {
	Name       string   `json:"name"`
	Parameters []string `json:"parameters,omitempty"`
	ReturnType string   `json:"return_type,omitempty"`
	Doc        string   `json:"doc,omitempty"`
	StartLine  int      `json:"start_line"`
	EndLine    int      `json:"end_line"`
	Complexity int      `json:"complexity"`
	IsAsync    bool     `json:"is_async,omitempty"`
	Decorators []string `json:"decorators,omitempty"`
}

type ClassInfo struct {
	Name        string         `json:"name"`
	Methods     []FunctionInfo `json:"methods,omitempty"`
	BaseClasses []string       `json:"base_classes,omitempty"`
	Doc         string         `json:"doc,omitempty"`
	StartLine   int            `json:"start_line"`
	EndLine     int            `json:"end_line"`
}

type ImportInfo struct {
	ModuleName    string   `json:"module_name"`
	ImportedNames []string `json:"imported_names,omitempty"`
	// IsExternal is a syntactic hint set by the extractor (for example a bare
	// npm specifier or a domain-qualified Go import path). The dependency
	// graph builder computes the authoritative tally via edge resolution.
	IsExternal bool `json:"is_external"`
	Line       int  `json:"line"`
}

// SymbolInfo is the language-agnostic symbol model. Constructs a language
// does not have are omitted, never invented.
type SymbolInfo struct {
	Functions []FunctionInfo `json:"functions,omitempty"`
	Classes   []ClassInfo    `json:"classes,omitempty"`
	Imports   []ImportInfo   `json:"imports,omitempty"`
	Exports   []string       `json:"exports,omitempty"`
}

// FunctionCount counts free functions plus methods.
func (s *SymbolInfo) FunctionCount() int {
	n := len(s.Functions)
	for i := range s.Classes {
		n += len(s.Classes[i].Methods)
	}
	return n
}

// AllFunctions returns pointers to every function and method, so callers can
// annotate them in place before the analysis is frozen.
func (s *SymbolInfo) AllFunctions() []*FunctionInfo {
	out := make([]*FunctionInfo, 0, s.FunctionCount())
	for i := range s.Functions {
		out = append(out, &s.Functions[i])
	}
	for i := range s.Classes {
		for j := range s.Classes[i].Methods {
			out = append(out, &s.Classes[i].Methods[j])
		}
	}
	return out
}
