package analyze

import (
	"reflect"
	"testing"

	"coursegen/internal/parser"
)

func node(typ string, start, end int, children ...*parser.Node) *parser.Node {
	return &parser.Node{Type: typ, StartLine: start, EndLine: end, Children: children}
}

func leaf(typ, text string, line int) *parser.Node {
	return &parser.Node{Type: typ, Text: text, StartLine: line, EndLine: line}
}

func withField(field string, n *parser.Node) *parser.Node {
	n.Field = field
	return n
}

// pythonFixture builds the tree a python module like the following would
// produce:
//
//	import os
//	from typing import List
//
//	def f1(x):
//	    """Doubles x."""
//	    if x > 0:
//	        return x * 2
//	    return 0
//
//	def f2():
//	    pass
//
//	@cached
//	async def async_f(items):
//	    for i in items:
//	        pass
//	    return [i for i in items]
//
//	class C:
//	    """Base class."""
//	    def m1(self):
//	        """A method."""
//	        pass
//
//	class D(C):
//	    pass
func pythonFixture() *parser.Tree {
	f1 := node("function_definition", 4, 8,
		leaf("def", "def", 4),
		withField("name", leaf("identifier", "f1", 4)),
		withField("parameters", node("parameters", 4, 4, leaf("identifier", "x", 4))),
		withField("body", node("block", 5, 8,
			node("expression_statement", 5, 5, leaf("string", `"""Doubles x."""`, 5)),
			node("if_statement", 6, 7,
				node("return_statement", 7, 7)),
			node("return_statement", 8, 8),
		)),
	)
	f2 := node("function_definition", 10, 11,
		leaf("def", "def", 10),
		withField("name", leaf("identifier", "f2", 10)),
		withField("parameters", node("parameters", 10, 10)),
		withField("body", node("block", 11, 11, node("pass_statement", 11, 11))),
	)
	asyncF := node("decorated_definition", 13, 18,
		leaf("decorator", "@cached", 13),
		withField("definition", node("function_definition", 14, 18,
			leaf("async", "async", 14),
			leaf("def", "def", 14),
			withField("name", leaf("identifier", "async_f", 14)),
			withField("parameters", node("parameters", 14, 14, leaf("identifier", "items", 14))),
			withField("body", node("block", 15, 18,
				node("for_statement", 15, 16, node("pass_statement", 16, 16)),
				node("return_statement", 17, 18,
					node("list_comprehension", 18, 18)),
			)),
		)),
	)
	classC := node("class_definition", 20, 24,
		leaf("class", "class", 20),
		withField("name", leaf("identifier", "C", 20)),
		withField("body", node("block", 21, 24,
			node("expression_statement", 21, 21, leaf("string", `"""Base class."""`, 21)),
			node("function_definition", 22, 24,
				leaf("def", "def", 22),
				withField("name", leaf("identifier", "m1", 22)),
				withField("parameters", node("parameters", 22, 22, leaf("identifier", "self", 22))),
				withField("body", node("block", 23, 24,
					node("expression_statement", 23, 23, leaf("string", `"""A method."""`, 23)),
					node("pass_statement", 24, 24),
				)),
			),
		)),
	)
	classD := node("class_definition", 26, 27,
		leaf("class", "class", 26),
		withField("name", leaf("identifier", "D", 26)),
		withField("superclasses", node("argument_list", 26, 26, leaf("identifier", "C", 26))),
		withField("body", node("block", 27, 27, node("pass_statement", 27, 27))),
	)
	imports := []*parser.Node{
		node("import_statement", 1, 1, leaf("dotted_name", "os", 1)),
		node("import_from_statement", 2, 2,
			withField("module_name", leaf("dotted_name", "typing", 2)),
			leaf("dotted_name", "List", 2)),
	}

	root := node("module", 1, 27)
	root.Children = append(root.Children, imports...)
	root.Children = append(root.Children, f1, f2, asyncF, classC, classD)
	return &parser.Tree{Language: parser.LangPython, Root: root}
}

func TestExtractSymbolsPython(t *testing.T) {
	info := extractSymbols(pythonFixture(), parser.LangPython)

	if got := len(info.Functions); got != 3 {
		t.Fatalf("expected 3 functions, got %d: %+v", got, info.Functions)
	}
	byName := map[string]FunctionInfo{}
	for _, f := range info.Functions {
		byName[f.Name] = f
	}
	for _, want := range []string{"f1", "f2", "async_f"} {
		if _, ok := byName[want]; !ok {
			t.Errorf("missing function %q", want)
		}
	}
	if !byName["async_f"].IsAsync {
		t.Error("async_f should be async")
	}
	if byName["f1"].IsAsync || byName["f2"].IsAsync {
		t.Error("f1 and f2 should not be async")
	}
	if got := byName["async_f"].Decorators; len(got) != 1 || got[0] != "cached" {
		t.Errorf("async_f decorators = %v, want [cached]", got)
	}
	if got := byName["f1"].Docstring; got != "Doubles x." {
		t.Errorf("f1 docstring = %q", got)
	}
	if got := byName["f1"].Parameters; len(got) != 1 || got[0] != "x" {
		t.Errorf("f1 parameters = %v", got)
	}

	if got := len(info.Classes); got != 2 {
		t.Fatalf("expected 2 classes, got %d", got)
	}
	classes := map[string]ClassInfo{}
	for _, c := range info.Classes {
		classes[c.Name] = c
	}
	if got := classes["C"].Docstring; got != "Base class." {
		t.Errorf("C docstring = %q", got)
	}
	if got := classes["C"].Methods; len(got) != 1 || got[0].Name != "m1" {
		t.Errorf("C methods = %+v", got)
	}
	if got := classes["D"].BaseClasses; len(got) != 1 || got[0] != "C" {
		t.Errorf("D base classes = %v, want [C]", got)
	}

	if got := len(info.Imports); got != 2 {
		t.Fatalf("expected 2 imports, got %d: %+v", got, info.Imports)
	}
	if info.Imports[0].Module != "os" {
		t.Errorf("first import = %q, want os", info.Imports[0].Module)
	}
	from := info.Imports[1]
	if from.Module != "typing" || len(from.Names) != 1 || from.Names[0] != "List" {
		t.Errorf("from-import = %+v", from)
	}
}

func TestComplexityPython(t *testing.T) {
	tree := pythonFixture()
	funcs := extractComplexity(tree, parser.LangPython)

	byName := map[string]funcComplexity{}
	for _, f := range funcs {
		byName[f.name] = f
	}
	// f1: base 1 + if
	if got := byName["f1"].complexity; got != 2 {
		t.Errorf("f1 complexity = %d, want 2", got)
	}
	if got := byName["f2"].complexity; got != 1 {
		t.Errorf("f2 complexity = %d, want 1", got)
	}
	// async_f: base 1 + for + comprehension
	if got := byName["async_f"].complexity; got != 3 {
		t.Errorf("async_f complexity = %d, want 3", got)
	}

	m := aggregateComplexity(funcs)
	if m.MaxComplexity != 3 {
		t.Errorf("max = %d, want 3", m.MaxComplexity)
	}
	if m.MinComplexity != 1 {
		t.Errorf("min = %d, want 1", m.MinComplexity)
	}
	found := false
	for _, name := range m.TrivialFuncs {
		if name == "f2" {
			found = true
		}
	}
	if !found {
		t.Errorf("trivial funcs = %v, want f2 included", m.TrivialFuncs)
	}
	if len(m.HighComplexityFuncs) != 0 {
		t.Errorf("unexpected high complexity funcs: %v", m.HighComplexityFuncs)
	}
}

func TestAggregateComplexityEmpty(t *testing.T) {
	m := aggregateComplexity(nil)
	if m.AverageComplexity != 0 || m.MaxComplexity != 0 || m.MinComplexity != 0 {
		t.Errorf("empty aggregate should be zero: %+v", m)
	}
}

func TestDocCoverage(t *testing.T) {
	info := extractSymbols(pythonFixture(), parser.LangPython)
	// documented: f1, C, m1; undocumented: f2, async_f, D
	got := docCoverage(info)
	if got != 0.5 {
		t.Errorf("doc coverage = %v, want 0.5", got)
	}

	if got := docCoverage(SymbolInfo{}); got != 0 {
		t.Errorf("empty file coverage = %v, want 0", got)
	}
}

func TestDetectPatternsPython(t *testing.T) {
	tree := pythonFixture()
	symbols := extractSymbols(tree, parser.LangPython)
	patterns := detectPatterns("pkg/mod.py", tree, parser.LangPython, symbols)

	byType := map[string]DetectedPattern{}
	for _, p := range patterns {
		byType[p.PatternType] = p
		if p.FilePath != "pkg/mod.py" {
			t.Errorf("pattern %s file = %q", p.PatternType, p.FilePath)
		}
		if p.Confidence <= 0 || p.Confidence > 1 {
			t.Errorf("pattern %s confidence out of range: %v", p.PatternType, p.Confidence)
		}
	}
	for _, want := range []string{"decorator_usage", "comprehension", "inheritance", "async_await"} {
		if _, ok := byType[want]; !ok {
			t.Errorf("missing pattern %q, got %v", want, patterns)
		}
	}
	inh := byType["inheritance"]
	if len(inh.Evidence) != 1 || inh.Evidence[0] != "D extends C (line 26)" {
		t.Errorf("inheritance evidence = %v", inh.Evidence)
	}
}

func TestDetectPatternsGo(t *testing.T) {
	cond := withField("condition", leaf("binary_expression", "err != nil", 3))
	root := node("source_file", 1, 10,
		node("function_declaration", 1, 6,
			withField("name", leaf("identifier", "run", 1)),
			withField("body", node("block", 1, 6,
				node("if_statement", 3, 5, cond),
				node("go_statement", 6, 6),
			)),
		),
	)
	tree := &parser.Tree{Language: parser.LangGo, Root: root}
	symbols := extractSymbols(tree, parser.LangGo)
	patterns := detectPatterns("main.go", tree, parser.LangGo, symbols)

	types := map[string]bool{}
	for _, p := range patterns {
		types[p.PatternType] = true
	}
	if !types["error_handling"] {
		t.Errorf("expected error_handling, got %v", patterns)
	}
	if !types["concurrency"] {
		t.Errorf("expected concurrency, got %v", patterns)
	}
	if types["async_await"] {
		t.Error("go files should not report async_await")
	}
}

func TestDetectRecursion(t *testing.T) {
	root := node("module", 1, 4,
		node("function_definition", 1, 4,
			leaf("def", "def", 1),
			withField("name", leaf("identifier", "fib", 1)),
			withField("body", node("block", 2, 4,
				node("return_statement", 3, 3,
					node("call", 3, 3,
						withField("function", leaf("identifier", "fib", 3)))),
			)),
		),
	)
	tree := &parser.Tree{Language: parser.LangPython, Root: root}
	lines, evidence := detectRecursion(tree, parser.LangPython, SymbolInfo{})
	if len(lines) != 1 || lines[0] != 3 {
		t.Errorf("recursion lines = %v", lines)
	}
	if len(evidence) != 1 || evidence[0] != "fib calls itself (line 3)" {
		t.Errorf("recursion evidence = %v", evidence)
	}
}

func TestPrecedingCommentDoc(t *testing.T) {
	root := node("source_file", 1, 5,
		leaf("comment", "// run starts the loop.", 1),
		node("function_declaration", 2, 5,
			withField("name", leaf("identifier", "run", 2)),
			withField("body", node("block", 2, 5)),
		),
	)
	tree := &parser.Tree{Language: parser.LangGo, Root: root}
	info := extractSymbols(tree, parser.LangGo)
	if len(info.Functions) != 1 {
		t.Fatalf("expected 1 function, got %+v", info.Functions)
	}
	if got := info.Functions[0].Docstring; got != "run starts the loop." {
		t.Errorf("docstring = %q", got)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	a := NewAnalyzer()
	first := a.Analyze("pkg/mod.py", pythonFixture())
	for i := 0; i < 5; i++ {
		again := a.Analyze("pkg/mod.py", pythonFixture())
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("analysis not deterministic:\nfirst: %+v\nagain: %+v", first, again)
		}
	}
	if first.TeachingValue.TotalScore <= 0 || first.TeachingValue.TotalScore > 1 {
		t.Errorf("total score out of range: %v", first.TeachingValue.TotalScore)
	}
	if first.TeachingValue.Explanation == "" {
		t.Error("explanation should not be empty")
	}
}

func TestAnalyzeAttachesComplexity(t *testing.T) {
	facts := NewAnalyzer().Analyze("pkg/mod.py", pythonFixture())
	for _, f := range facts.Symbols.Functions {
		if f.Name == "f1" && f.Complexity != 2 {
			t.Errorf("f1 complexity = %d, want 2", f.Complexity)
		}
		if f.Name == "async_f" && f.Complexity != 3 {
			t.Errorf("async_f complexity = %d, want 3", f.Complexity)
		}
	}
}

func TestAnalyzeNilTree(t *testing.T) {
	facts := NewAnalyzer().Analyze("empty.py", nil)
	if len(facts.Symbols.Functions) != 0 || len(facts.Patterns) != 0 {
		t.Errorf("nil tree should yield empty facts: %+v", facts)
	}
	if facts.DocCoverage != 0 {
		t.Errorf("nil tree coverage = %v", facts.DocCoverage)
	}
}

func TestTeachingScoreComponents(t *testing.T) {
	tree := pythonFixture()
	facts := NewAnalyzer().Analyze("pkg/mod.py", tree)
	tv := facts.TeachingValue
	if tv.DocumentationScore != 0.5 {
		t.Errorf("doc score = %v, want 0.5", tv.DocumentationScore)
	}
	if tv.StructureScore != 1.0 {
		// functions, classes, and a count in the sweet spot
		t.Errorf("structure score = %v, want 1.0", tv.StructureScore)
	}
	want := weightDocumentation*tv.DocumentationScore +
		weightComplexity*tv.ComplexityScore +
		weightPatterns*tv.PatternScore +
		weightStructure*tv.StructureScore
	if tv.TotalScore != want {
		t.Errorf("total = %v, want %v", tv.TotalScore, want)
	}
}
