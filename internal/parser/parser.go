// # internal/parser/parser.go
package parser

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"didact/internal/core/errors"
)

// Parser dispatches a file to a concrete grammar and holds one extractor per
// language. The orchestrator above it is unaware of per-language quirks.
type Parser struct {
	loader     *GrammarLoader
	extractors map[string]Extractor
}

// Extractor walks a parse tree into the language-agnostic symbol model.
// Implementations must be best-effort on partial trees: a missing expected
// child is skipped, never a reason to fail.
type Extractor interface {
	Extract(root *sitter.Node, source []byte, filePath string) (*SymbolInfo, error)
}

func NewParser(loader *GrammarLoader) *Parser {
	p := &Parser{
		loader:     loader,
		extractors: make(map[string]Extractor),
	}
	p.RegisterExtractor("go", &GoExtractor{})
	p.RegisterExtractor("python", &PythonExtractor{})
	p.RegisterExtractor("javascript", &JavaScriptExtractor{})
	p.RegisterExtractor("typescript", &JavaScriptExtractor{typescript: true})
	p.RegisterExtractor("java", &JavaExtractor{})
	p.RegisterExtractor("rust", &RustExtractor{})
	return p
}

func (p *Parser) RegisterExtractor(lang string, e Extractor) {
	p.extractors[lang] = e
}

func (p *Parser) IsSupportedPath(path string) bool {
	return DetectLanguage(p.loader.languageRegistry(), path, nil) != ""
}

func (p *Parser) IsTestFile(path string) bool {
	return IsTestFile(p.loader.languageRegistry(), path)
}

// ParseFile selects a grammar by extension (shebang fallback) and returns a
// ParseResult. Recoverable syntax errors keep the partial tree with
// HasErrors set; a hard parser crash is converted to a recorded error so one
// bad file cannot abort a batch. The caller owns the result and must Close it.
func (p *Parser) ParseFile(path string, content []byte) (result *ParseResult, err error) {
	lang := DetectLanguage(p.loader.languageRegistry(), path, content)
	if lang == "" {
		return nil, errors.AddContext(
			errors.New(errors.CodeUnsupportedLanguage, "no grammar registered"),
			errors.CtxPath, path)
	}

	grammar := p.grammarFor(lang, path)
	if grammar == nil {
		return nil, errors.AddContext(
			errors.New(errors.CodeUnsupportedLanguage, fmt.Sprintf("grammar not loaded: %s", lang)),
			errors.CtxPath, path)
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = errors.AddContext(
				errors.Wrap(fmt.Errorf("%v", r), errors.CodeParserFault, "parser crashed"),
				errors.CtxPath, path)
		}
	}()

	start := time.Now()
	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(grammar); err != nil {
		return nil, errors.Wrap(err, errors.CodeParserFault, "set language")
	}

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, errors.AddContext(
			errors.New(errors.CodeParserFault, "parse returned no tree"),
			errors.CtxPath, path)
	}

	root := tree.RootNode()
	result = &ParseResult{
		FilePath:  path,
		Language:  lang,
		Tree:      tree,
		Source:    content,
		HasErrors: root.HasError(),
		ParseTime: time.Since(start),
	}
	if result.HasErrors {
		result.ErrorSpans = collectErrorSpans(root)
	}
	return result, nil
}

// ExtractSymbols runs the per-language extractor over a parse result.
// Extraction proceeds best-effort over whatever named nodes exist; a panic
// inside an extractor yields whatever was already collected.
func (p *Parser) ExtractSymbols(result *ParseResult) (symbols *SymbolInfo, err error) {
	extractor := p.extractors[result.Language]
	if extractor == nil {
		return nil, errors.New(errors.CodeUnsupportedLanguage,
			fmt.Sprintf("no extractor for: %s", result.Language))
	}
	if result.Tree == nil {
		return nil, errors.New(errors.CodeExtractionFailure, "parse tree already released")
	}

	defer func() {
		if r := recover(); r != nil {
			if symbols == nil {
				symbols = &SymbolInfo{}
			}
			err = errors.AddContext(
				errors.Wrap(fmt.Errorf("%v", r), errors.CodeExtractionFailure, "extractor crashed"),
				errors.CtxPath, result.FilePath)
		}
	}()

	symbols, err = extractor.Extract(result.Tree.RootNode(), result.Source, result.FilePath)
	if err != nil {
		return symbols, errors.Wrap(err, errors.CodeExtractionFailure, "symbol walk failed")
	}
	if symbols == nil {
		symbols = &SymbolInfo{}
	}
	return symbols, nil
}

func (p *Parser) grammarFor(lang, path string) *sitter.Language {
	if lang == "typescript" && strings.EqualFold(filepath.Ext(path), ".tsx") {
		if g := p.loader.Language("tsx"); g != nil {
			return g
		}
	}
	return p.loader.Language(lang)
}

func collectErrorSpans(root *sitter.Node) []Span {
	var spans []Span
	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		if node.IsError() || node.IsMissing() {
			spans = append(spans, Span{
				StartLine: int(node.StartPosition().Row) + 1,
				EndLine:   int(node.EndPosition().Row) + 1,
			})
			return
		}
		if !node.HasError() {
			return
		}
		for i := uint(0); i < node.ChildCount(); i++ {
			walk(node.Child(i))
		}
	}
	walk(root)
	return spans
}
