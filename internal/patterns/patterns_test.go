// # internal/patterns/patterns_test.go
package patterns

import (
	"testing"

	"didact/internal/parser"
)

func TestFactoryDetector(t *testing.T) {
	symbols := &parser.SymbolInfo{
		Functions: []parser.FunctionInfo{
			{Name: "NewServer", StartLine: 10, ReturnType: "*Server"},
			{Name: "shutdown", StartLine: 30},
		},
	}

	matches := (&FactoryDetector{}).Detect(symbols, nil, "server.go")
	if len(matches) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(matches))
	}
	m := matches[0]
	if m.PatternType != "factory" {
		t.Errorf("Expected factory, got %s", m.PatternType)
	}
	if m.Confidence <= 0 || m.Confidence > 1 {
		t.Errorf("Confidence out of range: %f", m.Confidence)
	}
	if len(m.LineNumbers) != 1 || m.LineNumbers[0] != 10 {
		t.Errorf("Expected line 10, got %v", m.LineNumbers)
	}
}

func TestObserverNeedsTwoVerbs(t *testing.T) {
	one := &parser.SymbolInfo{
		Functions: []parser.FunctionInfo{{Name: "subscribe", StartLine: 1}},
	}
	if got := (&ObserverDetector{}).Detect(one, nil, "bus.py"); got != nil {
		t.Errorf("One verb should not match, got %v", got)
	}

	two := &parser.SymbolInfo{
		Functions: []parser.FunctionInfo{
			{Name: "subscribe", StartLine: 1},
			{Name: "notify_all", StartLine: 9},
		},
	}
	if got := (&ObserverDetector{}).Detect(two, nil, "bus.py"); len(got) != 1 {
		t.Errorf("Two verbs should match, got %v", got)
	}
}

func TestErrorHandlingDetector(t *testing.T) {
	source := []byte(`func run() error {
	if err := open(); err != nil {
		return err
	}
	if err != nil {
		return err
	}
	return nil
}
`)
	matches := (&ErrorHandlingDetector{}).Detect(&parser.SymbolInfo{}, source, "run.go")
	if len(matches) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(matches))
	}
	if matches[0].Metadata["handler_count"] != 2 {
		t.Errorf("Expected 2 handlers, got %v", matches[0].Metadata)
	}
}

func TestRecursionDetector(t *testing.T) {
	source := []byte(`def fib(n):
    if n < 2:
        return n
    return fib(n - 1) + fib(n - 2)
`)
	symbols := &parser.SymbolInfo{
		Functions: []parser.FunctionInfo{{Name: "fib", StartLine: 1, EndLine: 4}},
	}
	matches := (&RecursionDetector{}).Detect(symbols, source, "fib.py")
	if len(matches) != 1 {
		t.Fatalf("Expected recursion match, got %v", matches)
	}
}

type panicDetector struct{}

func (d *panicDetector) Name() string { return "panics" }
func (d *panicDetector) Detect(*parser.SymbolInfo, []byte, string) []DetectedPattern {
	panic("detector bug")
}

type overconfidentDetector struct{}

func (d *overconfidentDetector) Name() string { return "overconfident" }
func (d *overconfidentDetector) Detect(_ *parser.SymbolInfo, _ []byte, path string) []DetectedPattern {
	return []DetectedPattern{{PatternType: "overconfident", FilePath: path, Confidence: 7.5}}
}

func TestRegistryIsolatesFailures(t *testing.T) {
	r := NewRegistry()
	r.Register(&panicDetector{})
	r.Register(&overconfidentDetector{})

	matches := r.DetectAll(&parser.SymbolInfo{}, nil, "x.py")
	if len(matches) != 1 {
		t.Fatalf("Panic must only lose that detector's matches, got %d", len(matches))
	}
	if matches[0].Confidence != 1 {
		t.Errorf("Confidence must be clamped to [0,1], got %f", matches[0].Confidence)
	}
}

func TestDefaultRegistryEndToEnd(t *testing.T) {
	source := []byte(`import threading

_instance = None

def get_instance():
    global _instance
    if _instance is None:
        _instance = Engine()
    return _instance

class Engine(Base):
    """Engine with a singleton accessor."""

    async def start(self):
        pass
`)
	symbols := &parser.SymbolInfo{
		Functions: []parser.FunctionInfo{{Name: "get_instance", StartLine: 5, EndLine: 9}},
		Classes: []parser.ClassInfo{{
			Name:        "Engine",
			BaseClasses: []string{"Base"},
			StartLine:   11,
			EndLine:     15,
			Methods:     []parser.FunctionInfo{{Name: "start", IsAsync: true, StartLine: 14, EndLine: 15}},
		}},
	}

	matches := DefaultRegistry().DetectAll(symbols, source, "engine.py")

	types := make(map[string]bool)
	for _, m := range matches {
		types[m.PatternType] = true
		if m.Confidence < 0 || m.Confidence > 1 {
			t.Errorf("Confidence out of range for %s: %f", m.PatternType, m.Confidence)
		}
		if m.FilePath != "engine.py" {
			t.Errorf("Wrong file path: %s", m.FilePath)
		}
	}
	for _, expected := range []string{"singleton", "inheritance", "async_concurrency"} {
		if !types[expected] {
			t.Errorf("Expected %s pattern, got %v", expected, types)
		}
	}
}
