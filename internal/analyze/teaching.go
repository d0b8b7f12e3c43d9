package analyze

import (
	"fmt"
	"math"
)

// Component weights for the teaching value score. They sum to 1.0.
const (
	weightDocumentation = 0.30
	weightComplexity    = 0.25
	weightPatterns      = 0.25
	weightStructure     = 0.20
)

// docCoverage is the fraction of functions and classes carrying
// documentation. A file with nothing documentable scores zero.
func docCoverage(symbols SymbolInfo) float64 {
	total, documented := 0, 0
	count := func(doc string) {
		total++
		if doc != "" {
			documented++
		}
	}
	for _, f := range symbols.Functions {
		count(f.Docstring)
	}
	for _, c := range symbols.Classes {
		count(c.Docstring)
		for _, m := range c.Methods {
			count(m.Docstring)
		}
	}
	if total == 0 {
		return 0
	}
	return float64(documented) / float64(total)
}

// scoreTeachingValue computes the composite score. Every input is an
// extracted fact, so the result is bit-identical across runs for identical
// content.
func scoreTeachingValue(symbols SymbolInfo, patterns []DetectedPattern, complexity ComplexityMetrics, coverage float64) TeachingValueScore {
	docScore := coverage
	cxScore := complexityScore(complexity, functionCount(symbols))
	patScore := patternScore(patterns)
	structScore := structureScore(symbols)

	total := weightDocumentation*docScore +
		weightComplexity*cxScore +
		weightPatterns*patScore +
		weightStructure*structScore

	return TeachingValueScore{
		TotalScore:         total,
		DocumentationScore: docScore,
		ComplexityScore:    cxScore,
		PatternScore:       patScore,
		StructureScore:     structScore,
		Explanation: fmt.Sprintf(
			"doc=%.2f complexity=%.2f patterns=%.2f structure=%.2f -> %.2f",
			docScore, cxScore, patScore, structScore, total),
	}
}

func functionCount(symbols SymbolInfo) int {
	n := len(symbols.Functions)
	for _, c := range symbols.Classes {
		n += len(c.Methods)
	}
	return n
}

// complexityScore peaks for files whose average complexity sits in the
// readable-but-nontrivial band around 4 and falls off linearly on both
// sides. Files with no functions get a flat baseline.
func complexityScore(m ComplexityMetrics, funcs int) float64 {
	if funcs == 0 {
		return 0.3
	}
	score := 1.0 - math.Abs(m.AverageComplexity-4.0)/6.0
	if score < 0 {
		return 0
	}
	return score
}

// patternScore saturates at three full-confidence patterns.
func patternScore(patterns []DetectedPattern) float64 {
	sum := 0.0
	for _, p := range patterns {
		sum += p.Confidence
	}
	score := sum / 3.0
	if score > 1 {
		return 1
	}
	return score
}

// structureScore rewards files with a few well-shaped units over empty
// files and grab-bag modules.
func structureScore(symbols SymbolInfo) float64 {
	funcs := functionCount(symbols)
	score := 0.0
	if funcs > 0 {
		score += 0.5
	}
	if len(symbols.Classes) > 0 {
		score += 0.3
	}
	if funcs >= 2 && funcs <= 20 {
		score += 0.2
	}
	return score
}
