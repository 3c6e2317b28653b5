// # internal/analyzer/complexity.go
package analyzer

import (
	"strings"

	"didact/internal/parser"
)

// ComplexityMetrics is derived once per file and never mutated afterwards.
type ComplexityMetrics struct {
	AvgComplexity       float64 `json:"avg_complexity"`
	MaxComplexity       int     `json:"max_complexity"`
	MinComplexity       int     `json:"min_complexity"`
	HighComplexityCount int     `json:"high_complexity_count"`
	TrivialCount        int     `json:"trivial_count"`
	TotalFunctions      int     `json:"total_functions"`
}

var branchTokens = map[string][]string{
	"go":         {"if", "for", "case", "select"},
	"python":     {"if", "elif", "for", "while", "except", "and", "or"},
	"javascript": {"if", "for", "while", "case", "catch"},
	"typescript": {"if", "for", "while", "case", "catch"},
	"java":       {"if", "for", "while", "case", "catch"},
	"rust":       {"if", "while", "for", "match"},
}

var operatorLanguages = map[string]bool{
	"go":         true,
	"javascript": true,
	"typescript": true,
	"java":       true,
	"rust":       true,
}

// Measure computes cyclomatic complexity for every function and method in
// the symbol model by scanning its line range in the raw source. It never
// writes to the model, so it can run while other readers hold it; values
// come back in AllFunctions order together with the file-level aggregate.
// Counting is lexical and best-effort: string and comment content is
// stripped per line before tokens are counted.
func Measure(symbols *parser.SymbolInfo, source []byte, language string) ([]int, ComplexityMetrics) {
	lines := strings.Split(string(source), "\n")
	functions := symbols.AllFunctions()

	metrics := ComplexityMetrics{TotalFunctions: len(functions)}
	if len(functions) == 0 {
		return nil, metrics
	}

	complexities := make([]int, len(functions))
	total := 0
	metrics.MinComplexity = -1
	for i, fn := range functions {
		c := functionComplexity(lines, fn.StartLine, fn.EndLine, language)
		complexities[i] = c
		total += c
		if c > metrics.MaxComplexity {
			metrics.MaxComplexity = c
		}
		if metrics.MinComplexity < 0 || c < metrics.MinComplexity {
			metrics.MinComplexity = c
		}
		if c > 10 {
			metrics.HighComplexityCount++
		}
		if c < 2 {
			metrics.TrivialCount++
		}
	}
	metrics.AvgComplexity = float64(total) / float64(len(functions))
	return complexities, metrics
}

// Apply writes measured complexities into the model, in the AllFunctions
// order Measure produced them. The caller must hold exclusive access.
func Apply(symbols *parser.SymbolInfo, complexities []int) {
	for i, fn := range symbols.AllFunctions() {
		if i >= len(complexities) {
			return
		}
		fn.Complexity = complexities[i]
	}
}

// Annotate measures and applies in one step.
func Annotate(symbols *parser.SymbolInfo, source []byte, language string) ComplexityMetrics {
	complexities, metrics := Measure(symbols, source, language)
	Apply(symbols, complexities)
	return metrics
}

func functionComplexity(lines []string, start, end int, language string) int {
	complexity := 1
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}

	tokens := branchTokens[language]
	for i := start - 1; i < end; i++ {
		code := stripLine(lines[i], language)
		for _, token := range tokens {
			complexity += countWord(code, token)
		}
		if operatorLanguages[language] {
			complexity += strings.Count(code, "&&") + strings.Count(code, "||")
		}
	}
	return complexity
}

// stripLine drops string literal content and trailing comments so keywords
// inside them are not counted. Multi-line strings are not tracked; this is a
// per-line approximation.
func stripLine(line, language string) string {
	var b strings.Builder
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			quote = c
			b.WriteByte(' ')
			continue
		case '#':
			if language == "python" {
				return b.String()
			}
		case '/':
			if i+1 < len(line) && line[i+1] == '/' && language != "python" {
				return b.String()
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// countWord counts whole-word occurrences of token in code.
func countWord(code, token string) int {
	count := 0
	for idx := 0; ; {
		pos := strings.Index(code[idx:], token)
		if pos < 0 {
			return count
		}
		pos += idx
		before := pos == 0 || !isWordByte(code[pos-1])
		afterIdx := pos + len(token)
		after := afterIdx >= len(code) || !isWordByte(code[afterIdx])
		if before && after {
			count++
		}
		idx = afterIdx
	}
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
