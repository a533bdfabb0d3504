// Package syntax resolves enclosing code scopes with Tree-sitter.
//
// Given file content and a line range, [Lookup.Enclosing] returns the text of
// the smallest enclosing function, method, or class span, annotated with line
// numbers. JavaScript and TypeScript sources are parsed with the Tree-sitter
// JavaScript grammar; other languages fall back to a fixed window of
// surrounding lines.
package syntax

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
)

// fallbackWindow is the number of lines included above and below the target
// range when no syntax tree is available.
const fallbackWindow = 8

// scopeNodeKinds are the Tree-sitter node kinds treated as enclosing scopes.
var scopeNodeKinds = map[string]struct{}{
	"function_declaration": {},
	"function_expression":  {},
	"arrow_function":       {},
	"method_definition":    {},
	"generator_function":   {},
	"class_declaration":    {},
	"class_body":           {},
}

// Lookup wraps a Tree-sitter parser for enclosing-scope queries.
type Lookup struct {
	parser *tree_sitter.Parser
}

// NewLookup creates a Lookup with the JavaScript grammar loaded.
func NewLookup() (*Lookup, error) {
	parser := tree_sitter.NewParser()
	lang := tree_sitter.NewLanguage(tree_sitter_javascript.Language())
	if err := parser.SetLanguage(lang); err != nil {
		parser.Close()
		return nil, fmt.Errorf("loading javascript grammar: %w", err)
	}
	return &Lookup{parser: parser}, nil
}

// Close releases parser resources.
func (l *Lookup) Close() {
	if l.parser != nil {
		l.parser.Close()
	}
}

// Enclosing returns the smallest enclosing function/class span covering the
// 1-based line range [startLine, endLine], with line-number annotations. For
// files the grammar cannot parse it returns a fixed surrounding window.
func (l *Lookup) Enclosing(filename, content string, startLine, endLine int) string {
	if !parsableFile(filename) || l.parser == nil {
		return window(content, startLine, endLine)
	}

	tree := l.parser.Parse([]byte(content), nil)
	if tree == nil {
		return window(content, startLine, endLine)
	}
	defer tree.Close()

	node := smallestScope(tree.RootNode(), uint(startLine-1), uint(endLine-1))
	if node == nil {
		return window(content, startLine, endLine)
	}

	first := int(node.StartPosition().Row) + 1
	last := int(node.EndPosition().Row) + 1
	return numberedSlice(content, first, last)
}

func parsableFile(filename string) bool {
	for _, ext := range []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs"} {
		if strings.HasSuffix(filename, ext) {
			return true
		}
	}
	return false
}

// smallestScope walks down the tree toward the deepest scope node whose row
// span covers [startRow, endRow].
func smallestScope(node *tree_sitter.Node, startRow, endRow uint) *tree_sitter.Node {
	var best *tree_sitter.Node
	current := node
	for current != nil {
		if _, ok := scopeNodeKinds[current.Kind()]; ok {
			best = current
		}
		var next *tree_sitter.Node
		for i := uint(0); i < current.ChildCount(); i++ {
			child := current.Child(i)
			if child == nil {
				continue
			}
			if child.StartPosition().Row <= startRow && child.EndPosition().Row >= endRow {
				next = child
				break
			}
		}
		current = next
	}
	return best
}

// window returns a fixed range of lines around the target range.
func window(content string, startLine, endLine int) string {
	lines := strings.Split(content, "\n")
	first := startLine - fallbackWindow
	if first < 1 {
		first = 1
	}
	last := endLine + fallbackWindow
	if last > len(lines) {
		last = len(lines)
	}
	return numberedSlice(content, first, last)
}

// numberedSlice renders lines [first, last] (1-based, inclusive) prefixed
// with their line numbers.
func numberedSlice(content string, first, last int) string {
	lines := strings.Split(content, "\n")
	if first < 1 {
		first = 1
	}
	if last > len(lines) {
		last = len(lines)
	}
	var b strings.Builder
	for i := first; i <= last; i++ {
		fmt.Fprintf(&b, "%4d: %s\n", i, lines[i-1])
	}
	return strings.TrimRight(b.String(), "\n")
}
