package analyze

import "coursegen/internal/parser"

// The grammar tables map languages to the tree node types each extractor
// cares about. They are compile-time data: adding a language means extending
// these switches, nothing else.

// functionNodeTypes returns the node types that declare a named function.
// Anonymous forms (lambdas, closures) are counted for complexity but not
// reported as symbols.
func functionNodeTypes(lang parser.Language) []string {
	switch lang {
	case parser.LangGo:
		return []string{"function_declaration", "method_declaration"}
	case parser.LangJavaScript, parser.LangTypeScript, parser.LangTSX:
		return []string{"function_declaration", "method_definition", "generator_function_declaration"}
	case parser.LangPython:
		return []string{"function_definition"}
	case parser.LangRust:
		return []string{"function_item"}
	case parser.LangJava:
		return []string{"method_declaration", "constructor_declaration"}
	case parser.LangKotlin:
		return []string{"function_declaration"}
	default:
		return nil
	}
}

// complexityFunctionNodeTypes additionally includes anonymous function forms
// so their branches are attributed somewhere.
func complexityFunctionNodeTypes(lang parser.Language) []string {
	base := functionNodeTypes(lang)
	switch lang {
	case parser.LangGo:
		return append(base, "func_literal")
	case parser.LangJavaScript, parser.LangTypeScript, parser.LangTSX:
		return append(base, "function_expression", "arrow_function")
	case parser.LangPython:
		return append(base, "lambda")
	case parser.LangRust:
		return append(base, "closure_expression")
	case parser.LangJava:
		return append(base, "lambda_expression")
	case parser.LangKotlin:
		return append(base, "lambda_literal", "anonymous_function")
	default:
		return base
	}
}

// classNodeTypes returns the node types that declare a class-like type.
func classNodeTypes(lang parser.Language) []string {
	switch lang {
	case parser.LangGo:
		return []string{"type_spec"}
	case parser.LangJavaScript, parser.LangTypeScript, parser.LangTSX:
		return []string{"class_declaration"}
	case parser.LangPython:
		return []string{"class_definition"}
	case parser.LangRust:
		return []string{"struct_item", "enum_item", "trait_item"}
	case parser.LangJava:
		return []string{"class_declaration", "interface_declaration", "enum_declaration"}
	case parser.LangKotlin:
		return []string{"class_declaration", "object_declaration"}
	default:
		return nil
	}
}

// importNodeTypes returns the node types that introduce an import.
func importNodeTypes(lang parser.Language) []string {
	switch lang {
	case parser.LangGo:
		return []string{"import_spec"}
	case parser.LangJavaScript, parser.LangTypeScript, parser.LangTSX:
		return []string{"import_statement"}
	case parser.LangPython:
		return []string{"import_statement", "import_from_statement"}
	case parser.LangRust:
		return []string{"use_declaration"}
	case parser.LangJava:
		return []string{"import_declaration"}
	case parser.LangKotlin:
		return []string{"import_header"}
	default:
		return nil
	}
}

// decisionNodeTypes returns node types that add one to cyclomatic complexity.
func decisionNodeTypes(lang parser.Language) []string {
	switch lang {
	case parser.LangGo:
		return []string{
			"if_statement",
			"for_statement",
			"expression_case",
			"type_case",
			"communication_case",
			"binary_expression", // only && and ||, filtered by text
		}
	case parser.LangJavaScript, parser.LangTypeScript, parser.LangTSX:
		return []string{
			"if_statement",
			"for_statement",
			"for_in_statement",
			"while_statement",
			"do_statement",
			"switch_case",
			"catch_clause",
			"ternary_expression",
			"binary_expression",
		}
	case parser.LangPython:
		return []string{
			"if_statement",
			"elif_clause",
			"for_statement",
			"while_statement",
			"except_clause",
			"boolean_operator",
			"conditional_expression",
			"list_comprehension",
			"dictionary_comprehension",
			"set_comprehension",
			"generator_expression",
		}
	case parser.LangRust:
		return []string{
			"if_expression",
			"match_arm",
			"while_expression",
			"loop_expression",
			"for_expression",
			"binary_expression",
		}
	case parser.LangJava:
		return []string{
			"if_statement",
			"for_statement",
			"enhanced_for_statement",
			"while_statement",
			"do_statement",
			"switch_block_statement_group",
			"catch_clause",
			"ternary_expression",
			"binary_expression",
		}
	case parser.LangKotlin:
		return []string{
			"if_expression",
			"when_entry",
			"for_statement",
			"while_statement",
			"do_while_statement",
			"catch_block",
			"binary_expression",
			"elvis_expression",
		}
	default:
		return nil
	}
}

// nestingNodeTypes returns node types that increase nesting depth.
func nestingNodeTypes(lang parser.Language) []string {
	switch lang {
	case parser.LangGo:
		return []string{
			"if_statement",
			"for_statement",
			"select_statement",
			"type_switch_statement",
			"expression_switch_statement",
			"func_literal",
		}
	case parser.LangJavaScript, parser.LangTypeScript, parser.LangTSX:
		return []string{
			"if_statement",
			"for_statement",
			"for_in_statement",
			"while_statement",
			"do_statement",
			"switch_statement",
			"try_statement",
			"arrow_function",
			"function_expression",
		}
	case parser.LangPython:
		return []string{
			"if_statement",
			"for_statement",
			"while_statement",
			"try_statement",
			"with_statement",
		}
	case parser.LangRust:
		return []string{
			"if_expression",
			"match_expression",
			"while_expression",
			"loop_expression",
			"for_expression",
			"closure_expression",
		}
	case parser.LangJava:
		return []string{
			"if_statement",
			"for_statement",
			"enhanced_for_statement",
			"while_statement",
			"do_statement",
			"switch_expression",
			"try_statement",
			"lambda_expression",
		}
	case parser.LangKotlin:
		return []string{
			"if_expression",
			"when_expression",
			"for_statement",
			"while_statement",
			"do_while_statement",
			"try_expression",
			"lambda_literal",
		}
	default:
		return nil
	}
}

// isBooleanOperator reports whether a binary_expression node is a short
// circuit operator. Python spells these as boolean_operator nodes, which
// count unconditionally.
func isBooleanOperator(n *parser.Node) bool {
	if n.Type == "boolean_operator" {
		return true
	}
	if n.Type != "binary_expression" {
		return false
	}
	for _, c := range n.Children {
		if c.Text == "&&" || c.Text == "||" {
			return true
		}
	}
	return false
}

func typeSet(types []string) map[string]bool {
	m := make(map[string]bool, len(types))
	for _, t := range types {
		m[t] = true
	}
	return m
}
