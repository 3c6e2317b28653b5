// # internal/analyzer/docs.go
package analyzer

import "didact/internal/parser"

// DocumentationCoverage is the share of documented entities (functions,
// methods, classes) in [0,1]. A file with no entities scores zero; there is
// nothing documented about it.
func DocumentationCoverage(symbols *parser.SymbolInfo) float64 {
	total := 0
	documented := 0

	for i := range symbols.Functions {
		total++
		if symbols.Functions[i].Doc != "" {
			documented++
		}
	}
	for i := range symbols.Classes {
		total++
		if symbols.Classes[i].Doc != "" {
			documented++
		}
		for j := range symbols.Classes[i].Methods {
			total++
			if symbols.Classes[i].Methods[j].Doc != "" {
				documented++
			}
		}
	}

	if total == 0 {
		return 0
	}
	return float64(documented) / float64(total)
}
