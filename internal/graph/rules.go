package graph

func set(labels ...string) map[string]bool {
	m := make(map[string]bool, len(labels))
	for _, l := range labels {
		m[l] = true
	}
	return m
}

var javaFlow = &flowRules{
	roots: set("method_declaration", "constructor_declaration", "compact_constructor_declaration",
		"lambda_expression", "static_initializer"),
	blocks: set("block", "constructor_body"),
	simple: set("local_variable_declaration", "expression_statement", "explicit_constructor_invocation",
		"assert_statement", "local_class_declaration", "class_declaration", "record_declaration",
		"interface_declaration", "enum_declaration"),
	handlers: map[string]flowHandler{
		"if_statement":                 flowIf,
		"while_statement":              flowWhile,
		"do_statement":                 flowDo,
		"for_statement":                flowFor,
		"enhanced_for_statement":       flowForEach,
		"switch_expression":            flowSwitch,
		"switch_statement":             flowSwitch,
		"try_statement":                flowTry,
		"try_with_resources_statement": flowTry,
		"labeled_statement":            flowLabeled,
		"break_statement":              flowBreak,
		"continue_statement":           flowContinue,
		"return_statement":             flowExit,
		"throw_statement":              flowExit,
		"yield_statement":              flowExit,
		"synchronized_statement":       flowWrapped,
	},
	caseGroups: set("switch_block_statement_group", "switch_rule"),
	arrowCases: set("switch_rule"),
	catches:    set("catch_clause"),
	finally:    set("finally_clause"),
	loops:      set("while_statement", "do_statement", "for_statement", "enhanced_for_statement"),
}

// javascriptFlow also serves TypeScript, whose grammar extends JavaScript's.
var javascriptFlow = &flowRules{
	roots: set("program", "function_declaration", "generator_function_declaration", "function_expression",
		"function", "generator_function", "arrow_function", "method_definition", "class_static_block"),
	blocks: set("program", "statement_block"),
	simple: set("expression_statement", "lexical_declaration", "variable_declaration", "empty_statement",
		"import_statement", "export_statement", "class_declaration", "debugger_statement",
		"type_alias_declaration", "interface_declaration", "enum_declaration", "ambient_declaration",
		"abstract_class_declaration", "module", "internal_module", "import_alias"),
	handlers: map[string]flowHandler{
		"if_statement":       flowIf,
		"else_clause":        flowElse,
		"while_statement":    flowWhile,
		"do_statement":       flowDo,
		"for_statement":      flowFor,
		"for_in_statement":   flowForEach,
		"switch_statement":   flowSwitch,
		"try_statement":      flowTry,
		"labeled_statement":  flowLabeled,
		"break_statement":    flowBreak,
		"continue_statement": flowContinue,
		"return_statement":   flowExit,
		"throw_statement":    flowExit,
		"with_statement":     flowWrapped,
	},
	caseGroups: set("switch_case", "switch_default"),
	arrowCases: set(),
	catches:    set("catch_clause"),
	finally:    set("finally_clause"),
	loops:      set("while_statement", "do_statement", "for_statement", "for_in_statement"),
}

var csharpFlow = &flowRules{
	roots: set("method_declaration", "constructor_declaration", "destructor_declaration",
		"local_function_statement", "lambda_expression", "anonymous_method_expression",
		"accessor_declaration", "operator_declaration", "conversion_operator_declaration"),
	blocks: set("block"),
	simple: set("local_declaration_statement", "expression_statement", "empty_statement",
		"local_function_statement", "yield_statement"),
	handlers: map[string]flowHandler{
		"if_statement":       flowIf,
		"while_statement":    flowWhile,
		"do_statement":       flowDo,
		"for_statement":      flowFor,
		"foreach_statement":  flowForEach,
		"switch_statement":   flowSwitch,
		"try_statement":      flowTry,
		"labeled_statement":  flowLabeled,
		"break_statement":    flowBreak,
		"continue_statement": flowContinue,
		"return_statement":   flowExit,
		"throw_statement":    flowExit,
		"goto_statement":     flowExit,
		"using_statement":    flowWrapped,
		"lock_statement":     flowWrapped,
		"checked_statement":  flowWrapped,
		"unsafe_statement":   flowWrapped,
		"fixed_statement":    flowWrapped,
	},
	caseGroups: set("switch_section"),
	arrowCases: set(),
	catches:    set("catch_clause"),
	finally:    set("finally_clause"),
	loops:      set("while_statement", "do_statement", "for_statement", "foreach_statement"),
}
