// # internal/analyzer/analyzer_test.go
package analyzer

import (
	"strings"
	"testing"

	"didact/internal/parser"
)

func TestAnnotatePython(t *testing.T) {
	source := `def simple():
    return 1

def branchy(items):
    out = []
    for item in items:
        if item and item > 0:
            out.append(item)
        elif item == 0:
            out.append(0)
    return out
`
	symbols := &parser.SymbolInfo{
		Functions: []parser.FunctionInfo{
			{Name: "simple", StartLine: 1, EndLine: 2},
			{Name: "branchy", StartLine: 4, EndLine: 11},
		},
	}

	metrics := Annotate(symbols, []byte(source), "python")

	if metrics.TotalFunctions != 2 {
		t.Fatalf("Expected 2 functions, got %d", metrics.TotalFunctions)
	}
	if symbols.Functions[0].Complexity != 1 {
		t.Errorf("simple should have complexity 1, got %d", symbols.Functions[0].Complexity)
	}
	// for + if + and + elif = 4 decision points on top of the base 1.
	if symbols.Functions[1].Complexity != 5 {
		t.Errorf("branchy should have complexity 5, got %d", symbols.Functions[1].Complexity)
	}
	if metrics.MaxComplexity != 5 || metrics.MinComplexity != 1 {
		t.Errorf("Unexpected min/max: %+v", metrics)
	}
	if metrics.TrivialCount != 1 {
		t.Errorf("Expected 1 trivial function, got %d", metrics.TrivialCount)
	}
}

func TestAnnotateGoIgnoresStringsAndComments(t *testing.T) {
	source := `func describe() string {
	// if this comment counted, the count would be wrong
	return "if and for are words here"
}
`
	symbols := &parser.SymbolInfo{
		Functions: []parser.FunctionInfo{{Name: "describe", StartLine: 1, EndLine: 4}},
	}

	Annotate(symbols, []byte(source), "go")

	if symbols.Functions[0].Complexity != 1 {
		t.Errorf("Expected complexity 1, got %d", symbols.Functions[0].Complexity)
	}
}

func TestAnnotateCountsMethods(t *testing.T) {
	source := strings.Repeat("x\n", 20)
	symbols := &parser.SymbolInfo{
		Classes: []parser.ClassInfo{{
			Name:    "C",
			Methods: []parser.FunctionInfo{{Name: "m", StartLine: 1, EndLine: 2}},
		}},
	}

	metrics := Annotate(symbols, []byte(source), "python")
	if metrics.TotalFunctions != 1 {
		t.Errorf("Methods must be counted, got %d", metrics.TotalFunctions)
	}
	if symbols.Classes[0].Methods[0].Complexity != 1 {
		t.Errorf("Expected method complexity to be annotated in place")
	}
}

func TestMeasureLeavesModelUntouched(t *testing.T) {
	source := `def branchy(x):
    if x:
        for i in x:
            pass
`
	symbols := &parser.SymbolInfo{
		Functions: []parser.FunctionInfo{{Name: "branchy", StartLine: 1, EndLine: 4}},
	}

	complexities, metrics := Measure(symbols, []byte(source), "python")

	if symbols.Functions[0].Complexity != 0 {
		t.Errorf("Measure must not write the model, got complexity %d", symbols.Functions[0].Complexity)
	}
	if len(complexities) != 1 || complexities[0] != 3 {
		t.Fatalf("Expected [3], got %v", complexities)
	}
	if metrics.MaxComplexity != 3 {
		t.Errorf("Expected max 3, got %d", metrics.MaxComplexity)
	}

	Apply(symbols, complexities)
	if symbols.Functions[0].Complexity != 3 {
		t.Errorf("Apply should write measured values, got %d", symbols.Functions[0].Complexity)
	}
}

func TestAnnotateEmpty(t *testing.T) {
	metrics := Annotate(&parser.SymbolInfo{}, nil, "go")
	if metrics.TotalFunctions != 0 || metrics.AvgComplexity != 0 {
		t.Errorf("Expected zero metrics, got %+v", metrics)
	}
}

func TestDocumentationCoverage(t *testing.T) {
	symbols := &parser.SymbolInfo{
		Functions: []parser.FunctionInfo{
			{Name: "a", Doc: "documented"},
			{Name: "b"},
		},
		Classes: []parser.ClassInfo{{
			Name: "C",
			Doc:  "documented",
			Methods: []parser.FunctionInfo{
				{Name: "m"},
			},
		}},
	}

	got := DocumentationCoverage(symbols)
	if got != 0.5 {
		t.Errorf("Expected 0.5, got %f", got)
	}

	if DocumentationCoverage(&parser.SymbolInfo{}) != 0 {
		t.Error("Empty file should score 0")
	}
}
