// # internal/parser/extractor_common.go
package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if start > end || end > uint(len(source)) {
		return ""
	}
	return string(source[start:end])
}

func startLine(node *sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

func endLine(node *sitter.Node) int {
	return int(node.EndPosition().Row) + 1
}

func childOfKind(node *sitter.Node, kind string) *sitter.Node {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}

func hasChildOfKind(node *sitter.Node, kind string) bool {
	return childOfKind(node, kind) != nil
}

// precedingComment gathers the contiguous run of comment siblings directly
// above a node, stripped of comment markers. Works for //, ///, # and /* */
// style comments.
func precedingComment(node *sitter.Node, source []byte, kinds ...string) string {
	kindSet := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		kindSet[k] = true
	}

	var lines []string
	prev := node.PrevSibling()
	expectedLine := startLine(node)
	for prev != nil && kindSet[prev.Kind()] {
		// A blank line between the comment and the node breaks the run.
		if endLine(prev) < expectedLine-1 {
			break
		}
		expectedLine = startLine(prev)
		lines = append([]string{stripCommentMarkers(nodeText(prev, source))}, lines...)
		prev = prev.PrevSibling()
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func stripCommentMarkers(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "/*") {
		text = strings.TrimSuffix(strings.TrimPrefix(text, "/*"), "*/")
		var cleaned []string
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "*"))
			cleaned = append(cleaned, line)
		}
		return strings.TrimSpace(strings.Join(cleaned, "\n"))
	}
	for _, marker := range []string{"///", "//!", "//", "#"} {
		if strings.HasPrefix(text, marker) {
			return strings.TrimSpace(strings.TrimPrefix(text, marker))
		}
	}
	return text
}

// stripStringQuotes removes matching quote pairs, including python
// triple-quotes and raw/byte prefixes.
func stripStringQuotes(text string) string {
	text = strings.TrimSpace(text)
	for _, prefix := range []string{"r", "b", "f", "u", "R", "B", "F", "U"} {
		if len(text) > 1 && strings.HasPrefix(text, prefix) && (text[1] == '"' || text[1] == '\'') {
			text = text[1:]
			break
		}
	}
	for _, q := range []string{`"""`, `'''`, `"`, `'`, "`"} {
		if strings.HasPrefix(text, q) && strings.HasSuffix(text, q) && len(text) >= 2*len(q) {
			return text[len(q) : len(text)-len(q)]
		}
	}
	return text
}

func isPublicName(name string) bool {
	return name != "" && !strings.HasPrefix(name, "_")
}
