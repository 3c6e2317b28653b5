// # internal/patterns/registry.go
package patterns

import (
	"fmt"
	"log/slog"

	"didact/internal/parser"
)

// DetectedPattern is one confidence-scored match. Detectors run
// independently; duplicates for the same type and overlapping lines are
// allowed and left for consumers to reconcile.
type DetectedPattern struct {
	PatternType string                 `json:"pattern_type"`
	FilePath    string                 `json:"file_path"`
	Confidence  float64                `json:"confidence"`
	Evidence    []string               `json:"evidence,omitempty"`
	LineNumbers []int                  `json:"line_numbers,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// Detector inspects the symbol model and raw source of one file. A detector
// must not rely on another detector's output; registration order carries no
// ordering guarantee.
type Detector interface {
	Name() string
	Detect(symbols *parser.SymbolInfo, source []byte, filePath string) []DetectedPattern
}

// Registry holds the detectors registered at process start and fans each
// file out to all of them. One detector failing loses only that detector's
// matches, never the file's analysis.
type Registry struct {
	detectors []Detector
}

func NewRegistry() *Registry {
	return &Registry{}
}

// DefaultRegistry returns a registry with every built-in detector.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&SingletonDetector{})
	r.Register(&FactoryDetector{})
	r.Register(&ObserverDetector{})
	r.Register(&DecoratorUsageDetector{})
	r.Register(&AsyncDetector{})
	r.Register(&ErrorHandlingDetector{})
	r.Register(&InheritanceDetector{})
	r.Register(&RecursionDetector{})
	r.Register(&TestingDetector{})
	return r
}

func (r *Registry) Register(d Detector) {
	r.detectors = append(r.detectors, d)
}

func (r *Registry) Size() int {
	return len(r.detectors)
}

// DetectAll unions the output of every registered detector.
func (r *Registry) DetectAll(symbols *parser.SymbolInfo, source []byte, filePath string) []DetectedPattern {
	var all []DetectedPattern
	for _, d := range r.detectors {
		matches := r.runOne(d, symbols, source, filePath)
		all = append(all, matches...)
	}
	return all
}

func (r *Registry) runOne(d Detector, symbols *parser.SymbolInfo, source []byte, filePath string) (matches []DetectedPattern) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Warn("pattern detector failed, skipping its matches",
				"detector", d.Name(), "path", filePath, "error", fmt.Sprintf("%v", rec))
			matches = nil
		}
	}()
	matches = d.Detect(symbols, source, filePath)
	for i := range matches {
		if matches[i].Confidence < 0 {
			matches[i].Confidence = 0
		}
		if matches[i].Confidence > 1 {
			matches[i].Confidence = 1
		}
	}
	return matches
}
