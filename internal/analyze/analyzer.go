package analyze

import (
	"strconv"

	"coursegen/internal/parser"
)

// DefaultAnalyzer runs the full extractor suite over a parse tree. It is
// stateless and safe for concurrent use.
type DefaultAnalyzer struct{}

// NewAnalyzer returns the standard fact extractor.
func NewAnalyzer() *DefaultAnalyzer {
	return &DefaultAnalyzer{}
}

// Analyze extracts symbols, patterns, complexity, documentation coverage and
// the teaching value score from one tree.
func (a *DefaultAnalyzer) Analyze(path string, tree *parser.Tree) *Facts {
	lang := parser.LangUnknown
	if tree != nil {
		lang = tree.Language
	}

	symbols := extractSymbols(tree, lang)
	funcs := extractComplexity(tree, lang)
	attachComplexity(&symbols, funcs)
	metrics := aggregateComplexity(funcs)
	patterns := detectPatterns(path, tree, lang, symbols)
	coverage := docCoverage(symbols)

	return &Facts{
		Symbols:       symbols,
		Patterns:      patterns,
		Complexity:    metrics,
		DocCoverage:   coverage,
		TeachingValue: scoreTeachingValue(symbols, patterns, metrics, coverage),
	}
}

// attachComplexity copies per-function measurements onto the extracted
// symbols, matching on name and start line.
func attachComplexity(symbols *SymbolInfo, funcs []funcComplexity) {
	byKey := make(map[string]int, len(funcs))
	for _, f := range funcs {
		byKey[key(f.name, f.startLine)] = f.complexity
	}
	for i := range symbols.Functions {
		fn := &symbols.Functions[i]
		if cx, ok := byKey[key(fn.Name, fn.StartLine)]; ok {
			fn.Complexity = cx
		}
	}
	for i := range symbols.Classes {
		for j := range symbols.Classes[i].Methods {
			m := &symbols.Classes[i].Methods[j]
			if cx, ok := byKey[key(m.Name, m.StartLine)]; ok {
				m.Complexity = cx
			}
		}
	}
}

func key(name string, line int) string {
	return name + ":" + strconv.Itoa(line)
}
