package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

type LanguageSpec struct {
	Name             string
	Extensions       []string
	Filenames        []string
	ShebangPrograms  []string
	TestFileSuffixes []string
	Enabled          bool
}

type LanguageOverride struct {
	Enabled    *bool
	Extensions []string
	Filenames  []string
}

func DefaultLanguageRegistry() map[string]LanguageSpec {
	return map[string]LanguageSpec{
		"go": {
			Name:             "go",
			Extensions:       []string{".go"},
			TestFileSuffixes: []string{"_test.go"},
			Enabled:          true,
		},
		"python": {
			Name:             "python",
			Extensions:       []string{".py"},
			ShebangPrograms:  []string{"python", "python2", "python3"},
			TestFileSuffixes: []string{"_test.py"},
			Enabled:          true,
		},
		"javascript": {
			Name:             "javascript",
			Extensions:       []string{".js", ".cjs", ".mjs"},
			ShebangPrograms:  []string{"node"},
			TestFileSuffixes: []string{".test.js", ".spec.js"},
			Enabled:          true,
		},
		"typescript": {
			Name:             "typescript",
			Extensions:       []string{".ts", ".tsx"},
			TestFileSuffixes: []string{".test.ts", ".spec.ts"},
			Enabled:          true,
		},
		"java": {
			Name:       "java",
			Extensions: []string{".java"},
			Enabled:    true,
		},
		"rust": {
			Name:       "rust",
			Extensions: []string{".rs"},
			Enabled:    true,
		},
	}
}

func BuildLanguageRegistry(overrides map[string]LanguageOverride) (map[string]LanguageSpec, error) {
	registry := cloneLanguageRegistry(DefaultLanguageRegistry())
	if overrides == nil {
		return registry, nil
	}

	for language, override := range overrides {
		spec, ok := registry[language]
		if !ok {
			return nil, fmt.Errorf("unknown language override %q", language)
		}
		if override.Enabled != nil {
			spec.Enabled = *override.Enabled
		}
		if len(override.Extensions) > 0 {
			spec.Extensions = normalizeExtensions(override.Extensions)
		}
		if len(override.Filenames) > 0 {
			spec.Filenames = append([]string(nil), override.Filenames...)
		}
		registry[language] = spec
	}

	if err := validateLanguageRegistry(registry); err != nil {
		return nil, err
	}
	return registry, nil
}

// DetectLanguage maps a path to a registered language name, falling back to
// shebang sniffing for extension-less scripts. Empty string means no grammar.
func DetectLanguage(registry map[string]LanguageSpec, filePath string, content []byte) string {
	ext := strings.ToLower(filepath.Ext(filePath))
	base := strings.ToLower(filepath.Base(filePath))

	for _, id := range sortedRegistryIDs(registry) {
		spec := registry[id]
		if !spec.Enabled {
			continue
		}
		for _, e := range spec.Extensions {
			if e == ext && ext != "" {
				return id
			}
		}
		for _, name := range spec.Filenames {
			if name == base {
				return id
			}
		}
	}

	if ext == "" {
		if program := shebangProgram(content); program != "" {
			for _, id := range sortedRegistryIDs(registry) {
				spec := registry[id]
				if !spec.Enabled {
					continue
				}
				for _, p := range spec.ShebangPrograms {
					if p == program {
						return id
					}
				}
			}
		}
	}

	return ""
}

// shebangProgram returns the interpreter name from a leading #! line,
// unwrapping "env".
func shebangProgram(content []byte) string {
	if !bytes.HasPrefix(content, []byte("#!")) {
		return ""
	}
	scanner := bufio.NewScanner(bytes.NewReader(content))
	if !scanner.Scan() {
		return ""
	}
	fields := strings.Fields(strings.TrimPrefix(scanner.Text(), "#!"))
	if len(fields) == 0 {
		return ""
	}
	program := path.Base(fields[0])
	if program == "env" && len(fields) > 1 {
		program = path.Base(fields[1])
	}
	return program
}

func IsTestFile(registry map[string]LanguageSpec, filePath string) bool {
	base := strings.ToLower(filepath.Base(filePath))
	for _, spec := range registry {
		if !spec.Enabled {
			continue
		}
		for _, suffix := range spec.TestFileSuffixes {
			if strings.HasSuffix(base, suffix) {
				return true
			}
		}
	}
	return false
}

func cloneLanguageRegistry(in map[string]LanguageSpec) map[string]LanguageSpec {
	out := make(map[string]LanguageSpec, len(in))
	for id, spec := range in {
		copySpec := spec
		copySpec.Extensions = append([]string(nil), spec.Extensions...)
		copySpec.Filenames = append([]string(nil), spec.Filenames...)
		copySpec.ShebangPrograms = append([]string(nil), spec.ShebangPrograms...)
		copySpec.TestFileSuffixes = append([]string(nil), spec.TestFileSuffixes...)
		out[id] = copySpec
	}
	return out
}

func validateLanguageRegistry(registry map[string]LanguageSpec) error {
	extOwner := make(map[string]string)
	for _, id := range sortedRegistryIDs(registry) {
		spec := registry[id]
		if !spec.Enabled {
			continue
		}
		for _, ext := range normalizeExtensions(spec.Extensions) {
			if existing, ok := extOwner[ext]; ok && existing != id {
				return fmt.Errorf("duplicate extension %q owned by %q and %q", ext, existing, id)
			}
			extOwner[ext] = id
		}
	}
	return nil
}

func normalizeExtensions(values []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(values))
	for _, value := range values {
		raw := strings.TrimSpace(strings.ToLower(value))
		if raw == "" {
			continue
		}
		if !strings.HasPrefix(raw, ".") {
			raw = "." + raw
		}
		if seen[raw] {
			continue
		}
		seen[raw] = true
		out = append(out, raw)
	}
	sort.Strings(out)
	return out
}

func sortedRegistryIDs(registry map[string]LanguageSpec) []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
