// # internal/scoring/scoring_test.go
package scoring

import (
	"strings"
	"testing"

	"didact/internal/analyzer"
	"didact/internal/parser"
	"didact/internal/patterns"
)

func sampleSymbols() *parser.SymbolInfo {
	return &parser.SymbolInfo{
		Functions: []parser.FunctionInfo{
			{Name: "load", Doc: "Load the thing.", Complexity: 3},
			{Name: "store", Doc: "Store the thing.", Complexity: 4},
		},
		Classes: []parser.ClassInfo{
			{Name: "Repo", Doc: "Repository.", Methods: []parser.FunctionInfo{
				{Name: "get", Doc: "Get by id.", Complexity: 2},
			}},
		},
		Exports: []string{"load", "store", "Repo"},
	}
}

func sampleMetrics() analyzer.ComplexityMetrics {
	return analyzer.ComplexityMetrics{
		AvgComplexity:  3.0,
		MaxComplexity:  4,
		MinComplexity:  2,
		TotalFunctions: 3,
	}
}

func TestScoreBounded(t *testing.T) {
	cases := []struct {
		name     string
		symbols  *parser.SymbolInfo
		metrics  analyzer.ComplexityMetrics
		coverage float64
		detected []patterns.DetectedPattern
	}{
		{"empty", &parser.SymbolInfo{}, analyzer.ComplexityMetrics{}, 0, nil},
		{"nil symbols", nil, analyzer.ComplexityMetrics{}, 0, nil},
		{"typical", sampleSymbols(), sampleMetrics(), 0.8, []patterns.DetectedPattern{
			{PatternType: "factory", Confidence: 0.7},
		}},
		{"overloaded", sampleSymbols(), analyzer.ComplexityMetrics{AvgComplexity: 50, TotalFunctions: 5}, 2.0,
			[]patterns.DetectedPattern{
				{PatternType: "a", Confidence: 5},
				{PatternType: "b", Confidence: 5},
				{PatternType: "c", Confidence: 5},
			}},
	}

	for _, tc := range cases {
		s := Score(tc.symbols, tc.metrics, tc.coverage, tc.detected)
		for name, v := range map[string]float64{
			"total":         s.TotalScore,
			"documentation": s.Documentation,
			"complexity":    s.Complexity,
			"pattern":       s.Pattern,
			"structure":     s.Structure,
		} {
			if v < 0 || v > 1 {
				t.Errorf("%s: %s component out of range: %f", tc.name, name, v)
			}
		}
	}
}

func TestScoreDeterministic(t *testing.T) {
	detected := []patterns.DetectedPattern{
		{PatternType: "factory", Confidence: 0.7},
		{PatternType: "observer", Confidence: 0.5},
	}
	a := Score(sampleSymbols(), sampleMetrics(), 0.8, detected)
	b := Score(sampleSymbols(), sampleMetrics(), 0.8, detected)
	if a != b {
		t.Errorf("score not deterministic: %+v vs %+v", a, b)
	}
}

func TestDocumentedFileOutscoresUndocumented(t *testing.T) {
	detected := []patterns.DetectedPattern{{PatternType: "factory", Confidence: 0.6}}
	documented := Score(sampleSymbols(), sampleMetrics(), 0.9, detected)
	undocumented := Score(sampleSymbols(), sampleMetrics(), 0.0, detected)
	if documented.TotalScore <= undocumented.TotalScore {
		t.Errorf("documentation should raise the score: %f vs %f",
			documented.TotalScore, undocumented.TotalScore)
	}
}

func TestComplexitySweetSpot(t *testing.T) {
	mid := analyzer.ComplexityMetrics{AvgComplexity: 4, TotalFunctions: 3}
	trivial := analyzer.ComplexityMetrics{AvgComplexity: 1, TotalFunctions: 3}
	hostile := analyzer.ComplexityMetrics{AvgComplexity: 18, TotalFunctions: 3}

	if complexityScore(mid) != 1 {
		t.Errorf("mid-band average should score 1, got %f", complexityScore(mid))
	}
	if complexityScore(trivial) >= complexityScore(mid) {
		t.Errorf("trivial code should score below the sweet spot")
	}
	if complexityScore(hostile) >= complexityScore(mid) {
		t.Errorf("hostile code should score below the sweet spot")
	}
}

func TestExplanationMentionsPatterns(t *testing.T) {
	s := Score(sampleSymbols(), sampleMetrics(), 0.9, []patterns.DetectedPattern{
		{PatternType: "factory", Confidence: 0.8},
	})
	if s.Explanation == "" {
		t.Fatal("expected a non-empty explanation")
	}
	if want := "factory"; !strings.Contains(s.Explanation, want) {
		t.Errorf("explanation %q should mention %q", s.Explanation, want)
	}
}
