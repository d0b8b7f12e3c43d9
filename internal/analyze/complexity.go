package analyze

import "coursegen/internal/parser"

// highComplexityThreshold marks functions worth calling out as refactoring
// candidates; trivial functions sit at the floor of 1.
const highComplexityThreshold = 10

// funcComplexity is the per-function measurement before aggregation.
type funcComplexity struct {
	name       string
	startLine  int
	complexity int
	nesting    int
}

// extractComplexity measures every function-like node in the tree, including
// anonymous forms. Decision points inside a nested function belong to the
// nested function, not the enclosing one.
func extractComplexity(tree *parser.Tree, lang parser.Language) []funcComplexity {
	if tree == nil || tree.Root == nil {
		return nil
	}
	fnTypes := typeSet(complexityFunctionNodeTypes(lang))
	decisions := typeSet(decisionNodeTypes(lang))
	nesting := typeSet(nestingNodeTypes(lang))

	var results []funcComplexity
	tree.Root.Walk(func(n *parser.Node) bool {
		if !fnTypes[n.Type] {
			return true
		}
		name := nodeName(n)
		if name == "" {
			name = "<anonymous>"
		}
		fc := funcComplexity{
			name:       name,
			startLine:  n.StartLine,
			complexity: 1,
		}
		measure(n, fnTypes, decisions, nesting, 0, &fc)
		results = append(results, fc)
		return true // keep walking so nested functions get their own entry
	})
	return results
}

// measure counts decision points and tracks maximum nesting depth below fn,
// pruning at nested function boundaries.
func measure(fn *parser.Node, fnTypes, decisions, nesting map[string]bool, depth int, fc *funcComplexity) {
	for _, c := range fn.Children {
		if fnTypes[c.Type] {
			continue
		}
		if decisions[c.Type] {
			if c.Type != "binary_expression" || isBooleanOperator(c) {
				fc.complexity++
			}
		}
		d := depth
		if nesting[c.Type] {
			d++
			if d > fc.nesting {
				fc.nesting = d
			}
		}
		measure(c, fnTypes, decisions, nesting, d, fc)
	}
}

// aggregateComplexity folds per-function measurements into file metrics.
// Anonymous functions contribute to the averages but are not named in the
// high or trivial lists.
func aggregateComplexity(funcs []funcComplexity) ComplexityMetrics {
	m := ComplexityMetrics{}
	if len(funcs) == 0 {
		return m
	}
	totalCx, totalNest := 0, 0
	m.MinComplexity = funcs[0].complexity
	for _, f := range funcs {
		totalCx += f.complexity
		totalNest += f.nesting
		if f.complexity > m.MaxComplexity {
			m.MaxComplexity = f.complexity
		}
		if f.complexity < m.MinComplexity {
			m.MinComplexity = f.complexity
		}
		if f.name == "<anonymous>" {
			continue
		}
		if f.complexity > highComplexityThreshold {
			m.HighComplexityFuncs = append(m.HighComplexityFuncs, f.name)
		}
		if f.complexity == 1 {
			m.TrivialFuncs = append(m.TrivialFuncs, f.name)
		}
	}
	n := float64(len(funcs))
	m.AverageComplexity = float64(totalCx) / n
	m.AverageNestingDepth = float64(totalNest) / n
	return m
}
