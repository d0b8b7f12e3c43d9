package parser

import "testing"

func TestLanguageFromExtension(t *testing.T) {
	tests := []struct {
		ext  string
		want Language
		ok   bool
	}{
		{".go", LangGo, true},
		{".py", LangPython, true},
		{".ipynb", LangPython, true},
		{".ts", LangTypeScript, true},
		{".tsx", LangTSX, true},
		{".jsx", LangJavaScript, true},
		{".rs", LangRust, true},
		{".java", LangJava, true},
		{".kt", LangKotlin, true},
		{".txt", LangUnknown, false},
		{"", LangUnknown, false},
	}

	for _, tt := range tests {
		got, ok := LanguageFromExtension(tt.ext)
		if got != tt.want || ok != tt.ok {
			t.Errorf("LanguageFromExtension(%q) = (%v, %v), want (%v, %v)", tt.ext, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path    string
		content string
		want    Language
	}{
		{"main.py", "def main():\n    pass\n", LangPython},
		{"main.go", "package main\n\nfunc main() {}\n", LangGo},
		{"app.ts", "const x: number = 1;\n", LangTypeScript},
		{"notes.txt", "hello\n", LangUnknown},
	}

	for _, tt := range tests {
		got, _ := DetectLanguage(tt.path, []byte(tt.content))
		if got != tt.want {
			t.Errorf("DetectLanguage(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestIsNotebook(t *testing.T) {
	if !IsNotebook("analysis.ipynb") {
		t.Error("expected .ipynb to be a notebook")
	}
	if IsNotebook("analysis.py") {
		t.Error("expected .py not to be a notebook")
	}
}

func testTree() *Node {
	return &Node{
		Type:      "module",
		StartLine: 1,
		EndLine:   5,
		Children: []*Node{
			{
				Type:      "function_definition",
				StartLine: 1,
				EndLine:   3,
				Children: []*Node{
					{Type: "identifier", Field: "name", Text: "foo", StartLine: 1, EndLine: 1},
					{Type: "parameters", Field: "parameters", StartLine: 1, EndLine: 1},
					{Type: "block", Field: "body", StartLine: 2, EndLine: 3},
				},
			},
			{
				Type:      "function_definition",
				StartLine: 4,
				EndLine:   5,
				Children: []*Node{
					{Type: "identifier", Field: "name", Text: "bar", StartLine: 4, EndLine: 4},
				},
			},
		},
	}
}

func TestChildByField(t *testing.T) {
	fn := testTree().Children[0]

	name := fn.ChildByField("name")
	if name == nil || name.Text != "foo" {
		t.Fatalf("expected name child foo, got %+v", name)
	}
	if fn.ChildByField("missing") != nil {
		t.Error("expected nil for missing field")
	}
}

func TestFindAll(t *testing.T) {
	root := testTree()

	fns := root.FindAll(map[string]bool{"function_definition": true})
	if len(fns) != 2 {
		t.Fatalf("expected 2 functions, got %d", len(fns))
	}
	if fns[0].ChildByField("name").Text != "foo" {
		t.Error("expected depth-first order with foo first")
	}
}

func TestWalkPrune(t *testing.T) {
	root := testTree()

	var visited []string
	root.Walk(func(n *Node) bool {
		visited = append(visited, n.Type)
		return n.Type != "function_definition" // prune function bodies
	})

	for _, typ := range visited {
		if typ == "identifier" {
			t.Error("expected pruned subtrees not to be visited")
		}
	}
}

func TestNodeLines(t *testing.T) {
	n := &Node{StartLine: 3, EndLine: 7}
	if n.Lines() != 5 {
		t.Errorf("expected 5 lines, got %d", n.Lines())
	}
}
