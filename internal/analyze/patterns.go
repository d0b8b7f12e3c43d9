package analyze

import (
	"fmt"
	"strings"

	"coursegen/internal/parser"
)

// Pattern detection is rule based. Rules run in a fixed order and scan the
// tree with sorted, stable traversal, so the same tree always produces the
// same pattern list.

type patternRule struct {
	patternType string
	confidence  float64
	detect      func(tree *parser.Tree, lang parser.Language, symbols SymbolInfo) ([]int, []string)
}

var patternRules = []patternRule{
	{"error_handling", 0.9, detectErrorHandling},
	{"async_await", 0.95, detectAsyncAwait},
	{"concurrency", 0.85, detectConcurrency},
	{"decorator_usage", 0.9, detectDecorators},
	{"generator", 0.85, detectGenerators},
	{"context_manager", 0.9, detectContextManagers},
	{"comprehension", 0.8, detectComprehensions},
	{"inheritance", 0.9, detectInheritance},
	{"recursion", 0.75, detectRecursion},
}

// detectPatterns runs every rule against the tree. A rule that matches
// nothing contributes nothing.
func detectPatterns(path string, tree *parser.Tree, lang parser.Language, symbols SymbolInfo) []DetectedPattern {
	patterns := make([]DetectedPattern, 0)
	if tree == nil || tree.Root == nil {
		return patterns
	}
	for _, rule := range patternRules {
		lines, evidence := rule.detect(tree, lang, symbols)
		if len(lines) == 0 && len(evidence) == 0 {
			continue
		}
		patterns = append(patterns, DetectedPattern{
			PatternType: rule.patternType,
			FilePath:    path,
			Confidence:  rule.confidence,
			Evidence:    evidence,
			Lines:       lines,
		})
	}
	return patterns
}

func findByType(tree *parser.Tree, types ...string) []*parser.Node {
	return tree.Root.FindAll(typeSet(types))
}

func nodeEvidence(n *parser.Node) string {
	text := n.Text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSpace(text)
	if text == "" {
		text = n.Type
	}
	if len(text) > 80 {
		text = text[:80]
	}
	return fmt.Sprintf("%s (line %d)", text, n.StartLine)
}

func collect(nodes []*parser.Node) ([]int, []string) {
	var lines []int
	var evidence []string
	for _, n := range nodes {
		lines = append(lines, n.StartLine)
		evidence = append(evidence, nodeEvidence(n))
	}
	return lines, evidence
}

func detectErrorHandling(tree *parser.Tree, lang parser.Language, _ SymbolInfo) ([]int, []string) {
	if lang == parser.LangGo {
		var hits []*parser.Node
		for _, n := range findByType(tree, "if_statement") {
			cond := n.ChildByField("condition")
			if cond != nil && strings.Contains(cond.Text, "err != nil") {
				hits = append(hits, n)
			}
		}
		return collect(hits)
	}
	return collect(findByType(tree, "try_statement", "try_expression", "catch_block"))
}

func detectAsyncAwait(tree *parser.Tree, lang parser.Language, _ SymbolInfo) ([]int, []string) {
	if lang == parser.LangGo {
		return nil, nil
	}
	fnTypes := typeSet(functionNodeTypes(lang))
	var hits []*parser.Node
	tree.Root.Walk(func(n *parser.Node) bool {
		if n.Type == "await" || n.Type == "await_expression" || (fnTypes[n.Type] && isAsync(n)) {
			hits = append(hits, n)
		}
		return true
	})
	return collect(hits)
}

func detectConcurrency(tree *parser.Tree, lang parser.Language, _ SymbolInfo) ([]int, []string) {
	if lang != parser.LangGo {
		return nil, nil
	}
	return collect(findByType(tree, "go_statement", "select_statement", "channel_type"))
}

func detectDecorators(tree *parser.Tree, _ parser.Language, _ SymbolInfo) ([]int, []string) {
	return collect(findByType(tree, "decorator"))
}

func detectGenerators(tree *parser.Tree, _ parser.Language, _ SymbolInfo) ([]int, []string) {
	return collect(findByType(tree, "yield", "yield_expression"))
}

func detectContextManagers(tree *parser.Tree, lang parser.Language, _ SymbolInfo) ([]int, []string) {
	if lang == parser.LangGo {
		return collect(findByType(tree, "defer_statement"))
	}
	return collect(findByType(tree, "with_statement"))
}

func detectComprehensions(tree *parser.Tree, lang parser.Language, _ SymbolInfo) ([]int, []string) {
	if lang != parser.LangPython {
		return nil, nil
	}
	return collect(findByType(tree,
		"list_comprehension", "dictionary_comprehension", "set_comprehension", "generator_expression"))
}

func detectInheritance(_ *parser.Tree, _ parser.Language, symbols SymbolInfo) ([]int, []string) {
	var lines []int
	var evidence []string
	for _, cls := range symbols.Classes {
		if len(cls.BaseClasses) == 0 {
			continue
		}
		lines = append(lines, cls.StartLine)
		evidence = append(evidence, fmt.Sprintf("%s extends %s (line %d)",
			cls.Name, strings.Join(cls.BaseClasses, ", "), cls.StartLine))
	}
	return lines, evidence
}

func detectRecursion(tree *parser.Tree, lang parser.Language, _ SymbolInfo) ([]int, []string) {
	fnTypes := typeSet(functionNodeTypes(lang))
	callTypes := typeSet([]string{"call", "call_expression", "method_invocation", "call_suffix"})
	var lines []int
	var evidence []string
	tree.Root.Walk(func(n *parser.Node) bool {
		if !fnTypes[n.Type] {
			return true
		}
		name := nodeName(n)
		if name == "" {
			return true
		}
		for _, call := range n.FindAll(callTypes) {
			callee := call.ChildByField("function")
			if callee == nil {
				callee = call.FirstChildOfType("identifier")
			}
			if callee != nil && callee.Text == name {
				lines = append(lines, call.StartLine)
				evidence = append(evidence, fmt.Sprintf("%s calls itself (line %d)", name, call.StartLine))
				break
			}
		}
		return true
	})
	return lines, evidence
}
