package analyze

import (
	"strings"

	"coursegen/internal/parser"
)

// symbolExtractor walks a tree and collects functions, classes and imports.
// It carries no state between files.
type symbolExtractor struct {
	lang     parser.Language
	fnTypes  map[string]bool
	clsTypes map[string]bool
	impTypes map[string]bool
}

func extractSymbols(tree *parser.Tree, lang parser.Language) SymbolInfo {
	e := &symbolExtractor{
		lang:     lang,
		fnTypes:  typeSet(functionNodeTypes(lang)),
		clsTypes: typeSet(classNodeTypes(lang)),
		impTypes: typeSet(importNodeTypes(lang)),
	}
	info := SymbolInfo{
		Functions: make([]FunctionInfo, 0),
		Classes:   make([]ClassInfo, 0),
		Imports:   make([]ImportInfo, 0),
	}
	if tree == nil || tree.Root == nil {
		return info
	}
	e.walkContainer(tree.Root, &info, nil)
	if lang == parser.LangJavaScript || lang == parser.LangTypeScript || lang == parser.LangTSX {
		info.Exports = collectExports(tree.Root)
	}
	return info
}

// walkContainer visits the children of a structural node. Function bodies are
// not descended into for symbol purposes, so nested helpers stay private.
// When inClass is non-nil, functions are recorded as its methods.
func (e *symbolExtractor) walkContainer(n *parser.Node, out *SymbolInfo, inClass *ClassInfo) {
	for i, c := range n.Children {
		switch {
		case c.Type == "decorated_definition":
			decs := decoratorNames(c)
			def := decoratedDefinition(c)
			if def == nil {
				continue
			}
			if e.fnTypes[def.Type] {
				e.addFunction(def, n.Children, i, decs, out, inClass)
			} else if e.clsTypes[def.Type] {
				e.addClass(def, n.Children, i, decs, out)
			}
		case e.fnTypes[c.Type]:
			e.addFunction(c, n.Children, i, nil, out, inClass)
		case e.clsTypes[c.Type]:
			e.addClass(c, n.Children, i, nil, out)
		case e.impTypes[c.Type]:
			e.addImport(c, out)
		default:
			e.walkContainer(c, out, inClass)
		}
	}
}

func (e *symbolExtractor) addFunction(n *parser.Node, siblings []*parser.Node, idx int, decorators []string, out *SymbolInfo, inClass *ClassInfo) {
	name := nodeName(n)
	if name == "" {
		return
	}
	fn := FunctionInfo{
		Name:       name,
		Parameters: paramList(n, e.lang),
		ReturnType: returnType(n, e.lang),
		Docstring:  e.docstring(n, siblings, idx),
		StartLine:  n.StartLine,
		EndLine:    n.EndLine,
		Complexity: 1,
		IsAsync:    isAsync(n),
		Decorators: decorators,
	}
	if inClass != nil {
		inClass.Methods = append(inClass.Methods, fn)
		return
	}
	out.Functions = append(out.Functions, fn)
}

func (e *symbolExtractor) addClass(n *parser.Node, siblings []*parser.Node, idx int, decorators []string, out *SymbolInfo) {
	name := nodeName(n)
	if name == "" {
		return
	}
	cls := ClassInfo{
		Name:        name,
		Docstring:   e.docstring(n, siblings, idx),
		StartLine:   n.StartLine,
		EndLine:     n.EndLine,
		BaseClasses: baseClasses(n, e.lang),
		Decorators:  decorators,
	}
	if body := classBody(n, e.lang); body != nil {
		e.walkContainer(body, out, &cls)
	}
	out.Classes = append(out.Classes, cls)
}

func (e *symbolExtractor) addImport(n *parser.Node, out *SymbolInfo) {
	switch e.lang {
	case parser.LangPython:
		e.addPythonImport(n, out)
	case parser.LangGo:
		path := ""
		if p := n.ChildByField("path"); p != nil {
			path = stripQuotes(p.Text)
		} else if s := n.FirstChildOfType("interpreted_string_literal"); s != nil {
			path = stripQuotes(s.Text)
		}
		if path != "" {
			out.Imports = append(out.Imports, ImportInfo{Module: path, Line: n.StartLine})
		}
	case parser.LangJavaScript, parser.LangTypeScript, parser.LangTSX:
		src := n.ChildByField("source")
		if src == nil {
			src = n.FirstChildOfType("string")
		}
		if src == nil {
			return
		}
		imp := ImportInfo{Module: stripQuotes(src.Text), Line: n.StartLine}
		for _, id := range n.FindAll(map[string]bool{"identifier": true, "import_specifier": true}) {
			if id.Type == "identifier" && id.Text != "" {
				imp.Names = append(imp.Names, id.Text)
			} else if id.Type == "import_specifier" {
				if nm := nodeName(id); nm != "" {
					imp.Names = append(imp.Names, nm)
				}
			}
		}
		out.Imports = append(out.Imports, imp)
	default:
		// rust use_declaration, java import_declaration, kotlin import_header
		text := n.Text
		text = strings.TrimSuffix(strings.TrimSpace(text), ";")
		for _, kw := range []string{"use ", "import "} {
			text = strings.TrimPrefix(text, kw)
		}
		if text != "" {
			out.Imports = append(out.Imports, ImportInfo{Module: text, Line: n.StartLine})
		}
	}
}

func (e *symbolExtractor) addPythonImport(n *parser.Node, out *SymbolInfo) {
	if n.Type == "import_from_statement" {
		mod := n.ChildByField("module_name")
		if mod == nil {
			return
		}
		imp := ImportInfo{Module: mod.Text, Line: n.StartLine}
		seenModule := false
		for _, c := range n.Children {
			if c == mod {
				seenModule = true
				continue
			}
			if !seenModule {
				continue
			}
			switch c.Type {
			case "dotted_name", "identifier", "wildcard_import":
				imp.Names = append(imp.Names, c.Text)
			case "aliased_import":
				if nm := c.ChildByField("name"); nm != nil {
					imp.Names = append(imp.Names, nm.Text)
				}
			}
		}
		out.Imports = append(out.Imports, imp)
		return
	}
	// plain "import a.b, c" yields one entry per module
	for _, c := range n.Children {
		switch c.Type {
		case "dotted_name", "identifier":
			out.Imports = append(out.Imports, ImportInfo{Module: c.Text, Line: n.StartLine})
		case "aliased_import":
			if nm := c.ChildByField("name"); nm != nil {
				out.Imports = append(out.Imports, ImportInfo{Module: nm.Text, Line: n.StartLine})
			}
		}
	}
}

// docstring resolves documentation for a definition. Python keeps it as the
// first statement of the body; everything else uses comment siblings that end
// on the line directly above the definition.
func (e *symbolExtractor) docstring(n *parser.Node, siblings []*parser.Node, idx int) string {
	if e.lang == parser.LangPython {
		return pythonDocstring(n)
	}
	return precedingComment(siblings, idx, n.StartLine)
}

func pythonDocstring(n *parser.Node) string {
	body := n.ChildByField("body")
	if body == nil || len(body.Children) == 0 {
		return ""
	}
	first := body.Children[0]
	if first.Type != "expression_statement" {
		return ""
	}
	str := first.FirstChildOfType("string")
	if str == nil {
		return ""
	}
	return cleanDocstring(str.Text)
}

func precedingComment(siblings []*parser.Node, idx int, defLine int) string {
	var parts []string
	want := defLine - 1
	for i := idx - 1; i >= 0; i-- {
		s := siblings[i]
		if !isCommentType(s.Type) || s.EndLine != want {
			break
		}
		parts = append([]string{cleanComment(s.Text)}, parts...)
		want = s.StartLine - 1
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func isCommentType(t string) bool {
	return t == "comment" || t == "line_comment" || t == "block_comment"
}

func cleanComment(text string) string {
	text = strings.TrimPrefix(text, "//")
	text = strings.TrimPrefix(text, "/*")
	text = strings.TrimSuffix(text, "*/")
	text = strings.TrimPrefix(strings.TrimSpace(text), "* ")
	return strings.TrimSpace(text)
}

func cleanDocstring(text string) string {
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(text, q) && strings.HasSuffix(text, q) && len(text) >= 2*len(q) {
			return strings.TrimSpace(text[len(q) : len(text)-len(q)])
		}
	}
	return strings.TrimSpace(text)
}

// nodeName returns the declared name of a definition node.
func nodeName(n *parser.Node) string {
	if nm := n.ChildByField("name"); nm != nil {
		return nm.Text
	}
	for _, t := range []string{"identifier", "type_identifier", "property_identifier", "simple_identifier", "field_identifier"} {
		if c := n.FirstChildOfType(t); c != nil {
			return c.Text
		}
	}
	return ""
}

func isAsync(n *parser.Node) bool {
	for _, c := range n.Children {
		if c.Text == "async" {
			return true
		}
		// the name marks the end of modifiers
		if c.Field == "name" {
			break
		}
	}
	return false
}

func decoratorNames(decorated *parser.Node) []string {
	var names []string
	for _, c := range decorated.Children {
		if c.Type != "decorator" {
			continue
		}
		name := strings.TrimPrefix(strings.TrimSpace(c.Text), "@")
		if i := strings.IndexByte(name, '('); i > 0 {
			name = name[:i]
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

func decoratedDefinition(decorated *parser.Node) *parser.Node {
	if def := decorated.ChildByField("definition"); def != nil {
		return def
	}
	for _, c := range decorated.Children {
		if c.Type != "decorator" {
			return c
		}
	}
	return nil
}

func paramList(n *parser.Node, lang parser.Language) []string {
	params := n.ChildByField("parameters")
	if params == nil {
		params = n.FirstChildOfType("parameters")
	}
	if params == nil {
		params = n.FirstChildOfType("formal_parameters")
	}
	if params == nil {
		return []string{}
	}
	names := make([]string, 0, len(params.Children))
	for _, c := range params.Children {
		names = append(names, paramNames(c, lang)...)
	}
	return names
}

func paramNames(c *parser.Node, lang parser.Language) []string {
	switch c.Type {
	case "identifier", "simple_identifier":
		return []string{c.Text}
	case "parameter_declaration":
		// Go allows several names per declaration
		var names []string
		for _, id := range c.Children {
			if id.Type == "identifier" && id.Field != "type" {
				names = append(names, id.Text)
			}
		}
		return names
	case "list_splat_pattern", "dictionary_splat_pattern":
		return []string{c.Text}
	}
	if nm := c.ChildByField("name"); nm != nil {
		return []string{nm.Text}
	}
	if p := c.ChildByField("pattern"); p != nil {
		return []string{p.Text}
	}
	if id := c.FirstChildOfType("identifier"); id != nil {
		return []string{id.Text}
	}
	return nil
}

func returnType(n *parser.Node, lang parser.Language) string {
	for _, field := range []string{"return_type", "result", "type"} {
		if rt := n.ChildByField(field); rt != nil {
			return strings.TrimPrefix(strings.TrimSpace(rt.Text), ": ")
		}
	}
	return ""
}

func baseClasses(n *parser.Node, lang parser.Language) []string {
	switch lang {
	case parser.LangPython:
		sup := n.ChildByField("superclasses")
		if sup == nil {
			return nil
		}
		var bases []string
		for _, c := range sup.Children {
			if c.Type == "identifier" || c.Type == "attribute" {
				bases = append(bases, c.Text)
			}
		}
		return bases
	case parser.LangJavaScript, parser.LangTypeScript, parser.LangTSX:
		her := n.FirstChildOfType("class_heritage")
		if her == nil {
			return nil
		}
		var bases []string
		for _, id := range her.FindAll(map[string]bool{"identifier": true}) {
			bases = append(bases, id.Text)
		}
		return bases
	case parser.LangJava:
		var bases []string
		if sc := n.ChildByField("superclass"); sc != nil {
			for _, id := range sc.FindAll(map[string]bool{"type_identifier": true}) {
				bases = append(bases, id.Text)
			}
		}
		if ifs := n.ChildByField("interfaces"); ifs != nil {
			for _, id := range ifs.FindAll(map[string]bool{"type_identifier": true}) {
				bases = append(bases, id.Text)
			}
		}
		return bases
	default:
		return nil
	}
}

func classBody(n *parser.Node, lang parser.Language) *parser.Node {
	if b := n.ChildByField("body"); b != nil {
		return b
	}
	for _, t := range []string{"block", "class_body", "declaration_list", "enum_class_body"} {
		if b := n.FirstChildOfType(t); b != nil {
			return b
		}
	}
	return nil
}

func collectExports(root *parser.Node) []string {
	var exports []string
	for _, exp := range root.FindAll(map[string]bool{"export_statement": true}) {
		if decl := exp.ChildByField("declaration"); decl != nil {
			if nm := nodeName(decl); nm != "" {
				exports = append(exports, nm)
				continue
			}
			for _, vd := range decl.FindAll(map[string]bool{"variable_declarator": true}) {
				if nm := nodeName(vd); nm != "" {
					exports = append(exports, nm)
				}
			}
			continue
		}
		for _, spec := range exp.FindAll(map[string]bool{"export_specifier": true}) {
			if nm := nodeName(spec); nm != "" {
				exports = append(exports, nm)
			}
		}
	}
	return exports
}

func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range []string{`"`, "'", "`"} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2 {
			return s[1 : len(s)-1]
		}
	}
	return s
}
