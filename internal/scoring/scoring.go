// # internal/scoring/scoring.go
package scoring

import (
	"fmt"
	"sort"
	"strings"

	"didact/internal/analyzer"
	"didact/internal/parser"
	"didact/internal/patterns"
)

// Component weights. They sum to 1 so the total stays in [0,1] as long as
// every component does.
const (
	weightDocumentation = 0.35
	weightComplexity    = 0.25
	weightPatterns      = 0.25
	weightStructure     = 0.15
)

// Complexity scoring bands. Functions averaging inside the sweet spot read
// as substantive without being hostile to a learner.
const (
	complexitySweetLow  = 2.0
	complexitySweetHigh = 6.0
	complexityCeiling   = 20.0
)

type TeachingValueScore struct {
	TotalScore    float64 `json:"total_score"`
	Documentation float64 `json:"documentation"`
	Complexity    float64 `json:"complexity"`
	Pattern       float64 `json:"pattern"`
	Structure     float64 `json:"structure"`
	Explanation   string  `json:"explanation"`
}

// Score is pure: same inputs always yield the same score, and every
// component plus the total lands in [0,1].
func Score(symbols *parser.SymbolInfo, metrics analyzer.ComplexityMetrics, docCoverage float64, detected []patterns.DetectedPattern) TeachingValueScore {
	doc := clamp01(docCoverage)
	cpx := complexityScore(metrics)
	pat := patternScore(detected)
	str := structureScore(symbols)

	s := TeachingValueScore{
		Documentation: doc,
		Complexity:    cpx,
		Pattern:       pat,
		Structure:     str,
	}
	s.TotalScore = clamp01(weightDocumentation*doc +
		weightComplexity*cpx +
		weightPatterns*pat +
		weightStructure*str)
	s.Explanation = explain(s, metrics, detected)
	return s
}

// complexityScore rewards the middle band: trivial files teach little,
// hostile ones teach badly.
func complexityScore(m analyzer.ComplexityMetrics) float64 {
	if m.TotalFunctions == 0 {
		return 0
	}
	avg := m.AvgComplexity
	switch {
	case avg >= complexitySweetLow && avg <= complexitySweetHigh:
		return 1
	case avg < complexitySweetLow:
		// Linear ramp from 0 at avg=1 (every function trivial).
		if avg <= 1 {
			return 0.2
		}
		return 0.2 + 0.8*(avg-1)/(complexitySweetLow-1)
	default:
		// Decay toward 0 as the average approaches the ceiling.
		if avg >= complexityCeiling {
			return 0
		}
		return 1 - (avg-complexitySweetHigh)/(complexityCeiling-complexitySweetHigh)
	}
}

// patternScore sums detector confidences and saturates: a file showing
// three solid patterns is already excellent teaching material.
func patternScore(detected []patterns.DetectedPattern) float64 {
	var sum float64
	for _, p := range detected {
		sum += clamp01(p.Confidence)
	}
	return clamp01(sum / 3.0)
}

// structureScore looks at symbol shape: named exports, a reasonable number
// of definitions, and functions that are neither anonymous blobs nor a
// single monolith.
func structureScore(symbols *parser.SymbolInfo) float64 {
	if symbols == nil {
		return 0
	}
	defs := len(symbols.Functions) + len(symbols.Classes)
	if defs == 0 {
		return 0
	}

	var score float64
	// Some definitions, but not a dumping ground.
	switch {
	case defs >= 2 && defs <= 12:
		score += 0.5
	case defs == 1 || (defs > 12 && defs <= 25):
		score += 0.3
	default:
		score += 0.1
	}
	if len(symbols.Exports) > 0 {
		score += 0.3
	}
	for _, c := range symbols.Classes {
		if len(c.Methods) > 0 {
			score += 0.2
			break
		}
	}
	return clamp01(score)
}

func explain(s TeachingValueScore, m analyzer.ComplexityMetrics, detected []patterns.DetectedPattern) string {
	var parts []string

	switch {
	case s.Documentation >= 0.7:
		parts = append(parts, "well documented")
	case s.Documentation >= 0.3:
		parts = append(parts, "partially documented")
	default:
		parts = append(parts, "sparsely documented")
	}

	if m.TotalFunctions > 0 {
		switch {
		case s.Complexity >= 0.8:
			parts = append(parts, fmt.Sprintf("approachable complexity (avg %.1f)", m.AvgComplexity))
		case m.AvgComplexity > complexitySweetHigh:
			parts = append(parts, fmt.Sprintf("high complexity (avg %.1f)", m.AvgComplexity))
		default:
			parts = append(parts, "mostly trivial functions")
		}
	}

	if len(detected) > 0 {
		names := make(map[string]bool, len(detected))
		for _, p := range detected {
			names[p.PatternType] = true
		}
		list := make([]string, 0, len(names))
		for n := range names {
			list = append(list, n)
		}
		sort.Strings(list)
		parts = append(parts, "demonstrates "+strings.Join(list, ", "))
	}

	return strings.Join(parts, "; ")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
