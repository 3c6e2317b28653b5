// # internal/patterns/detectors.go
package patterns

import (
	"fmt"
	"strings"

	"didact/internal/parser"
)

func sourceLines(source []byte) []string {
	return strings.Split(string(source), "\n")
}

func findLines(lines []string, substrings ...string) ([]int, []string) {
	var nums []int
	var evidence []string
	for i, line := range lines {
		for _, substr := range substrings {
			if strings.Contains(line, substr) {
				nums = append(nums, i+1)
				evidence = append(evidence, strings.TrimSpace(line))
				break
			}
		}
	}
	return nums, evidence
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

// SingletonDetector looks for single-instance construction idioms:
// sync.Once guarded constructors, __new__ overrides, getInstance accessors
// and module-level instance slots.
type SingletonDetector struct{}

func (d *SingletonDetector) Name() string { return "singleton" }

func (d *SingletonDetector) Detect(symbols *parser.SymbolInfo, source []byte, filePath string) []DetectedPattern {
	lines := sourceLines(source)
	nums, evidence := findLines(lines, "sync.Once", "getInstance", "get_instance", "_instance =", "__new__")

	signals := len(nums)
	for _, cls := range symbols.Classes {
		for _, m := range cls.Methods {
			if m.Name == "__new__" || m.Name == "getInstance" || m.Name == "instance" {
				signals++
			}
		}
	}
	if signals == 0 {
		return nil
	}

	return []DetectedPattern{{
		PatternType: "singleton",
		FilePath:    filePath,
		Confidence:  clamp01(0.4 + 0.2*float64(signals)),
		Evidence:    evidence,
		LineNumbers: nums,
	}}
}

// FactoryDetector flags files whose functions follow constructor-factory
// naming and return something.
type FactoryDetector struct{}

func (d *FactoryDetector) Name() string { return "factory" }

func (d *FactoryDetector) Detect(symbols *parser.SymbolInfo, source []byte, filePath string) []DetectedPattern {
	var factories []string
	var nums []int
	for _, fn := range symbols.Functions {
		if isFactoryName(fn.Name) {
			factories = append(factories, fn.Name)
			nums = append(nums, fn.StartLine)
		}
	}
	for _, cls := range symbols.Classes {
		for _, m := range cls.Methods {
			if isFactoryName(m.Name) {
				factories = append(factories, cls.Name+"."+m.Name)
				nums = append(nums, m.StartLine)
			}
		}
	}
	if len(factories) == 0 {
		return nil
	}

	evidence := make([]string, 0, len(factories))
	for _, name := range factories {
		evidence = append(evidence, fmt.Sprintf("factory-style constructor %s", name))
	}
	return []DetectedPattern{{
		PatternType: "factory",
		FilePath:    filePath,
		Confidence:  clamp01(0.35 + 0.15*float64(len(factories))),
		Evidence:    evidence,
		LineNumbers: nums,
	}}
}

func isFactoryName(name string) bool {
	lower := strings.ToLower(name)
	for _, prefix := range []string{"new", "make", "create", "build", "from_"} {
		if strings.HasPrefix(lower, prefix) && len(name) > len(prefix) {
			return true
		}
	}
	return false
}

// ObserverDetector needs at least two distinct pub/sub verbs before it
// believes a file implements the pattern.
type ObserverDetector struct{}

func (d *ObserverDetector) Name() string { return "observer" }

var observerVerbs = []string{"subscribe", "unsubscribe", "notify", "emit", "addListener", "add_listener", "publish", "on_event"}

func (d *ObserverDetector) Detect(symbols *parser.SymbolInfo, source []byte, filePath string) []DetectedPattern {
	seen := make(map[string]bool)
	var nums []int
	var evidence []string

	check := func(name string, line int) {
		lower := strings.ToLower(name)
		for _, verb := range observerVerbs {
			if strings.Contains(lower, strings.ToLower(verb)) && !seen[verb] {
				seen[verb] = true
				nums = append(nums, line)
				evidence = append(evidence, fmt.Sprintf("%s resembles %s", name, verb))
			}
		}
	}

	for _, fn := range symbols.Functions {
		check(fn.Name, fn.StartLine)
	}
	for _, cls := range symbols.Classes {
		for _, m := range cls.Methods {
			check(m.Name, m.StartLine)
		}
	}

	if len(seen) < 2 {
		return nil
	}
	return []DetectedPattern{{
		PatternType: "observer",
		FilePath:    filePath,
		Confidence:  clamp01(0.3 + 0.2*float64(len(seen))),
		Evidence:    evidence,
		LineNumbers: nums,
	}}
}

// DecoratorUsageDetector reports decorator/annotation use captured by the
// extractors as opaque strings.
type DecoratorUsageDetector struct{}

func (d *DecoratorUsageDetector) Name() string { return "decorator" }

func (d *DecoratorUsageDetector) Detect(symbols *parser.SymbolInfo, source []byte, filePath string) []DetectedPattern {
	var nums []int
	var evidence []string
	count := 0

	collect := func(fn *parser.FunctionInfo) {
		if len(fn.Decorators) == 0 {
			return
		}
		count += len(fn.Decorators)
		nums = append(nums, fn.StartLine)
		evidence = append(evidence, fmt.Sprintf("%s uses %s", fn.Name, strings.Join(fn.Decorators, ", ")))
	}
	for _, fn := range symbols.AllFunctions() {
		collect(fn)
	}

	if count == 0 {
		return nil
	}
	return []DetectedPattern{{
		PatternType: "decorator",
		FilePath:    filePath,
		Confidence:  clamp01(0.5 + 0.1*float64(count)),
		Evidence:    evidence,
		LineNumbers: nums,
		Metadata:    map[string]interface{}{"decorator_count": count},
	}}
}

// AsyncDetector covers async/await definitions, goroutines and channels.
type AsyncDetector struct{}

func (d *AsyncDetector) Name() string { return "async_concurrency" }

func (d *AsyncDetector) Detect(symbols *parser.SymbolInfo, source []byte, filePath string) []DetectedPattern {
	var nums []int
	var evidence []string

	for _, fn := range symbols.AllFunctions() {
		if fn.IsAsync {
			nums = append(nums, fn.StartLine)
			evidence = append(evidence, fmt.Sprintf("async function %s", fn.Name))
		}
	}

	lines := sourceLines(source)
	goNums, goEvidence := findLines(lines, "go func", "chan ", "make(chan", "sync.WaitGroup", "await ", "tokio::spawn", "Promise.all")
	nums = append(nums, goNums...)
	evidence = append(evidence, goEvidence...)

	if len(nums) == 0 {
		return nil
	}
	return []DetectedPattern{{
		PatternType: "async_concurrency",
		FilePath:    filePath,
		Confidence:  clamp01(0.4 + 0.1*float64(len(nums))),
		Evidence:    evidence,
		LineNumbers: nums,
	}}
}

// ErrorHandlingDetector scores explicit error paths: Go error returns,
// try/except blocks, catch clauses and Rust Result propagation.
type ErrorHandlingDetector struct{}

func (d *ErrorHandlingDetector) Name() string { return "error_handling" }

func (d *ErrorHandlingDetector) Detect(symbols *parser.SymbolInfo, source []byte, filePath string) []DetectedPattern {
	lines := sourceLines(source)
	nums, evidence := findLines(lines, "if err != nil", "except ", "except:", "catch", "raise ", ".unwrap_or", "Result<")

	if len(nums) == 0 {
		return nil
	}
	return []DetectedPattern{{
		PatternType: "error_handling",
		FilePath:    filePath,
		Confidence:  clamp01(0.3 + 0.1*float64(len(nums))),
		Evidence:    evidence,
		LineNumbers: nums,
		Metadata:    map[string]interface{}{"handler_count": len(nums)},
	}}
}

// InheritanceDetector reports class hierarchies visible in the symbol model.
type InheritanceDetector struct{}

func (d *InheritanceDetector) Name() string { return "inheritance" }

func (d *InheritanceDetector) Detect(symbols *parser.SymbolInfo, source []byte, filePath string) []DetectedPattern {
	var nums []int
	var evidence []string
	for _, cls := range symbols.Classes {
		if len(cls.BaseClasses) == 0 {
			continue
		}
		nums = append(nums, cls.StartLine)
		evidence = append(evidence, fmt.Sprintf("%s extends %s", cls.Name, strings.Join(cls.BaseClasses, ", ")))
	}
	if len(nums) == 0 {
		return nil
	}
	return []DetectedPattern{{
		PatternType: "inheritance",
		FilePath:    filePath,
		Confidence:  clamp01(0.5 + 0.15*float64(len(nums))),
		Evidence:    evidence,
		LineNumbers: nums,
	}}
}

// RecursionDetector flags functions whose body calls their own name.
type RecursionDetector struct{}

func (d *RecursionDetector) Name() string { return "recursion" }

func (d *RecursionDetector) Detect(symbols *parser.SymbolInfo, source []byte, filePath string) []DetectedPattern {
	lines := sourceLines(source)
	var nums []int
	var evidence []string

	for _, fn := range symbols.AllFunctions() {
		if fn.Name == "" || fn.StartLine < 1 || fn.EndLine > len(lines) {
			continue
		}
		call := fn.Name + "("
		// Skip the signature line itself.
		for i := fn.StartLine; i < fn.EndLine; i++ {
			if strings.Contains(lines[i], call) {
				nums = append(nums, i+1)
				evidence = append(evidence, fmt.Sprintf("%s calls itself", fn.Name))
				break
			}
		}
	}

	if len(nums) == 0 {
		return nil
	}
	return []DetectedPattern{{
		PatternType: "recursion",
		FilePath:    filePath,
		Confidence:  clamp01(0.6 + 0.1*float64(len(nums))),
		Evidence:    evidence,
		LineNumbers: nums,
	}}
}

// TestingDetector recognizes test files and assertion-heavy code.
type TestingDetector struct{}

func (d *TestingDetector) Name() string { return "testing" }

func (d *TestingDetector) Detect(symbols *parser.SymbolInfo, source []byte, filePath string) []DetectedPattern {
	var nums []int
	var evidence []string

	for _, fn := range symbols.AllFunctions() {
		lower := strings.ToLower(fn.Name)
		if strings.HasPrefix(lower, "test") && len(fn.Name) > 4 {
			nums = append(nums, fn.StartLine)
			evidence = append(evidence, fmt.Sprintf("test function %s", fn.Name))
		}
	}

	lines := sourceLines(source)
	assertNums, assertEvidence := findLines(lines, "assert ", "assertEqual", "require.", "expect(")
	nums = append(nums, assertNums...)
	evidence = append(evidence, assertEvidence...)

	if len(nums) == 0 {
		return nil
	}
	return []DetectedPattern{{
		PatternType: "testing",
		FilePath:    filePath,
		Confidence:  clamp01(0.4 + 0.1*float64(len(nums))),
		Evidence:    evidence,
		LineNumbers: nums,
	}}
}
