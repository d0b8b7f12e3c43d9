package codebase

import (
	"path"
	"sort"
	"strings"

	"coursegen/internal/analyze"
	"coursegen/internal/parser"
)

// BuildGraph resolves import statements across analyzed files into a
// dependency graph. Keys of analyses are root-relative slash paths. Imports
// that do not resolve to another analyzed file count as external.
func BuildGraph(analyses map[string]*analyze.FileAnalysis) *DependencyGraph {
	g := &DependencyGraph{
		Nodes:          make(map[string]*GraphNode, len(analyses)),
		Edges:          make([]GraphEdge, 0),
		ExternalCounts: make(map[string]int),
	}

	paths := make([]string, 0, len(analyses))
	known := make(map[string]bool, len(analyses))
	for p := range analyses {
		paths = append(paths, p)
		known[p] = true
		g.Nodes[p] = &GraphNode{}
	}
	sort.Strings(paths)

	edgeIdx := make(map[[2]string]int)
	for _, from := range paths {
		fa := analyses[from]
		for _, imp := range fa.Symbols.Imports {
			to := resolveImport(from, imp.Module, fa.Language, known)
			if to == "" {
				g.ExternalCounts[imp.Module]++
				continue
			}
			if to == from {
				continue
			}
			key := [2]string{from, to}
			if i, ok := edgeIdx[key]; ok {
				g.Edges[i].Count++
				continue
			}
			edgeIdx[key] = len(g.Edges)
			g.Edges = append(g.Edges, GraphEdge{From: from, To: to, Count: 1})
		}
	}
	sort.Slice(g.Edges, func(i, j int) bool {
		if g.Edges[i].From != g.Edges[j].From {
			return g.Edges[i].From < g.Edges[j].From
		}
		return g.Edges[i].To < g.Edges[j].To
	})

	// edges are sorted From then To, so both adjacency lists come out
	// sorted without another pass
	for _, e := range g.Edges {
		g.Nodes[e.From].Imports = append(g.Nodes[e.From].Imports, e.To)
		g.Nodes[e.To].ImportedBy = append(g.Nodes[e.To].ImportedBy, e.From)
	}

	g.Cycles = findCycles(paths, g.Edges)
	return g
}

// resolveImport maps an import string to a root-relative file path, or ""
// when the import points outside the codebase.
func resolveImport(from, module string, lang parser.Language, known map[string]bool) string {
	switch lang {
	case parser.LangPython:
		return resolvePythonImport(from, module, known)
	case parser.LangJavaScript, parser.LangTypeScript, parser.LangTSX:
		return resolveJSImport(from, module, known)
	case parser.LangGo:
		return resolveGoImport(module, known)
	default:
		return ""
	}
}

func resolvePythonImport(from, module string, known map[string]bool) string {
	dir := path.Dir(from)
	rest := module
	if strings.HasPrefix(module, ".") {
		// each leading dot past the first walks one directory up
		dots := len(module) - len(strings.TrimLeft(module, "."))
		rest = module[dots:]
		for i := 1; i < dots; i++ {
			dir = path.Dir(dir)
		}
	} else {
		dir = ""
	}

	base := strings.ReplaceAll(rest, ".", "/")
	candidates := []string{
		path.Join(dir, base+".py"),
		path.Join(dir, base, "__init__.py"),
	}
	for _, c := range candidates {
		if known[c] {
			return c
		}
	}
	return ""
}

func resolveJSImport(from, module string, known map[string]bool) string {
	if !strings.HasPrefix(module, ".") {
		return ""
	}
	base := path.Join(path.Dir(from), module)
	candidates := []string{base}
	for _, ext := range []string{".ts", ".tsx", ".js", ".jsx"} {
		candidates = append(candidates, base+ext, path.Join(base, "index"+ext))
	}
	for _, c := range candidates {
		if known[c] {
			return c
		}
	}
	return ""
}

// resolveGoImport matches the import path's package directory against known
// files. Without module metadata this is a suffix heuristic: the import
// "example.com/x/internal/util" matches files under "internal/util/".
func resolveGoImport(module string, known map[string]bool) string {
	segs := strings.Split(module, "/")
	for i := 0; i < len(segs); i++ {
		dir := strings.Join(segs[i:], "/")
		var match string
		for p := range known {
			if path.Dir(p) == dir && strings.HasSuffix(p, ".go") {
				if match == "" || p < match {
					match = p
				}
			}
		}
		if match != "" {
			return match
		}
	}
	return ""
}

// findCycles runs Tarjan's strongly connected components over the graph and
// reports every component with more than one node. Each cycle is rotated so
// its lexicographically smallest member comes first, which makes cycle
// output stable across runs.
func findCycles(nodes []string, edges []GraphEdge) [][]string {
	adj := make(map[string][]string)
	for _, e := range edges {
		adj[e.From] = append(adj[e.From], e.To)
	}
	for _, succ := range adj {
		sort.Strings(succ)
	}

	index := make(map[string]int, len(nodes))
	low := make(map[string]int, len(nodes))
	onStack := make(map[string]bool)
	var stack []string
	next := 0
	var cycles [][]string

	var strongconnect func(v string)
	strongconnect = func(v string) {
		index[v] = next
		low[v] = next
		next++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adj[v] {
			if _, seen := index[w]; !seen {
				strongconnect(w)
				if low[w] < low[v] {
					low[v] = low[w]
				}
			} else if onStack[w] {
				if index[w] < low[v] {
					low[v] = index[w]
				}
			}
		}

		if low[v] == index[v] {
			var comp []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			if len(comp) > 1 {
				cycles = append(cycles, canonicalCycle(comp))
			}
		}
	}

	for _, v := range nodes {
		if _, seen := index[v]; !seen {
			strongconnect(v)
		}
	}

	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}

// canonicalCycle rotates the component so the smallest path leads. Tarjan
// pops components in reverse traversal order, so reverse first to recover
// the traversal direction.
func canonicalCycle(comp []string) []string {
	for i, j := 0, len(comp)-1; i < j; i, j = i+1, j-1 {
		comp[i], comp[j] = comp[j], comp[i]
	}
	min := 0
	for i, p := range comp {
		if p < comp[min] {
			min = i
		}
	}
	rotated := make([]string, 0, len(comp))
	rotated = append(rotated, comp[min:]...)
	rotated = append(rotated, comp[:min]...)
	return rotated
}
