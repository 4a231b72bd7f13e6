package symbolic

import (
	"strings"

	"github.com/scan-io-git/skims/internal/graph"
)

func set(labels ...string) map[string]bool {
	m := make(map[string]bool, len(labels))
	for _, l := range labels {
		m[l] = true
	}
	return m
}

// reduceDeclarators handles declarations holding one or more
// variable_declarator children, typed (Java) or not (JavaScript).
func reduceDeclarators(r *reduction, id graph.NodeID) int {
	typ := r.text(r.shard.ChildByField(id, "type"))
	for _, decl := range r.shard.Children(id, "variable_declarator") {
		name := r.shard.ChildByField(decl, "name")
		var deps []int
		if value := r.value(r.shard.ChildByField(decl, "value")); value >= 0 {
			deps = append(deps, value)
		}
		r.emit(r.declaration(decl, r.text(name), typ, deps...))
	}
	return -1
}

// reduceField handles class field definitions with a single name.
func reduceField(r *reduction, id graph.NodeID) int {
	name := r.shard.ChildByField(id, "name", "property")
	var deps []int
	if value := r.value(r.shard.ChildByField(id, "value")); value >= 0 {
		deps = append(deps, value)
	}
	return r.emit(r.declaration(id, r.text(name), r.text(r.shard.ChildByField(id, "type")), deps...))
}

func reduceAssignment(r *reduction, id graph.NodeID) int {
	left := r.shard.ChildByField(id, "left")
	right := r.shard.ChildByField(id, "right")
	op := r.between(left, right)
	compound := r.label(id) == "augmented_assignment_expression" || (op != "" && op != "=")
	return r.assignment(id, left, right, compound)
}

func reduceIdentifier(r *reduction, id graph.NodeID) int {
	return r.lookup(id)
}

func reduceParenthesized(r *reduction, id graph.NodeID) int {
	deps := r.each(id)
	if len(deps) == 0 {
		return -1
	}
	return deps[len(deps)-1]
}

func reduceJavaInvocation(r *reduction, id graph.NodeID) int {
	return r.invocation(id,
		r.shard.ChildByField(id, "object"),
		r.shard.ChildByField(id, "name"),
		r.shard.ChildByField(id, "arguments"))
}

func reduceCall(r *reduction, id graph.NodeID) int {
	fn := r.shard.ChildByField(id, "function")
	args := r.shard.ChildByField(id, "arguments")
	if r.label(fn) == "member_expression" {
		return r.invocation(id,
			r.shard.ChildByField(fn, "object"),
			r.shard.ChildByField(fn, "property"),
			args)
	}
	if r.label(fn) == "identifier" {
		return r.invocation(id, graph.NoNode, fn, args)
	}
	// Calls on computed callees keep the callee as receiver.
	return r.invocation(id, fn, graph.NoNode, args)
}

func reduceInstantiation(r *reduction, id graph.NodeID) int {
	typ := r.shard.ChildByField(id, "type", "constructor")
	step := newStep(graph.StepObjectInstantiation, id)
	step.Symbol = r.text(typ)
	step.Args = r.arguments(r.shard.ChildByField(id, "arguments"))
	step.Deps = append(step.Deps, step.Args...)
	return r.emit(step)
}

func reduceMemberAccess(r *reduction, id graph.NodeID) int {
	object := r.shard.ChildByField(id, "object")
	step := newStep(graph.StepMemberAccess, id)
	step.Symbol = r.text(r.shard.ChildByField(id, "field", "property"))
	step.Object = r.text(object)
	step.Receiver = r.value(object)
	if step.Receiver >= 0 {
		step.Deps = []int{step.Receiver}
	}
	return r.emit(step)
}

// reducePair models object literal properties as assignments so
// { password: "x" } is matched like password = "x".
func reducePair(r *reduction, id graph.NodeID) int {
	key := r.shard.ChildByField(id, "key")
	step := newStep(graph.StepAssignment, id)
	step.Symbol = unquote(r.text(key))
	step.Object = "property"
	if value := r.value(r.shard.ChildByField(id, "value")); value >= 0 {
		step.Deps = []int{value}
	}
	return r.emit(step)
}

var javaRules = &rules{
	scopes: set("method_declaration", "constructor_declaration", "compact_constructor_declaration",
		"lambda_expression", "static_initializer", "class_body"),
	transparent: set("block", "constructor_body", "switch_block", "switch_block_statement_group",
		"switch_rule", "switch_label", "resource_specification", "program", "catch_formal_parameter"),
	literals: map[string]string{
		"string_literal":                 "string",
		"text_block":                     "string",
		"character_literal":              "string",
		"decimal_integer_literal":        "number",
		"hex_integer_literal":            "number",
		"octal_integer_literal":          "number",
		"binary_integer_literal":         "number",
		"decimal_floating_point_literal": "number",
		"hex_floating_point_literal":     "number",
		"true":                           "boolean",
		"false":                          "boolean",
		"null_literal":                   "null",
	},
	handlers: map[string]reduceFunc{
		"local_variable_declaration": reduceDeclarators,
		"field_declaration":          reduceDeclarators,
		"constant_declaration":       reduceDeclarators,
		"assignment_expression":      reduceAssignment,
		"method_invocation":          reduceJavaInvocation,
		"object_creation_expression": reduceInstantiation,
		"field_access":               reduceMemberAccess,
		"identifier":                 reduceIdentifier,
		"parenthesized_expression":   reduceParenthesized,
	},
}

var javascriptRules = &rules{
	scopes: set("program", "function_declaration", "generator_function_declaration", "function_expression",
		"function", "generator_function", "arrow_function", "method_definition", "class_body"),
	transparent: set("statement_block", "lexical_declaration", "variable_declaration", "switch_body",
		"switch_case", "switch_default", "export_statement"),
	literals: map[string]string{
		"string":          "string",
		"template_string": "string",
		"number":          "number",
		"true":            "boolean",
		"false":           "boolean",
		"null":            "null",
		"undefined":       "null",
		"regex":           "regex",
	},
	handlers: map[string]reduceFunc{
		"variable_declarator":             reduceSingleDeclarator,
		"public_field_definition":         reduceField,
		"field_definition":                reduceField,
		"assignment_expression":           reduceAssignment,
		"augmented_assignment_expression": reduceAssignment,
		"call_expression":                 reduceCall,
		"new_expression":                  reduceInstantiation,
		"member_expression":               reduceMemberAccess,
		"identifier":                      reduceIdentifier,
		"parenthesized_expression":        reduceParenthesized,
		"pair":                            reducePair,
	},
}

func reduceSingleDeclarator(r *reduction, id graph.NodeID) int {
	name := r.shard.ChildByField(id, "name")
	var deps []int
	if value := r.value(r.shard.ChildByField(id, "value")); value >= 0 {
		deps = append(deps, value)
	}
	// const, let or var
	typ := ""
	if parent := r.shard.Node(id).Parent; parent != graph.NoNode {
		if kind, _, ok := strings.Cut(r.text(parent), " "); ok {
			typ = kind
		}
	}
	return r.emit(r.declaration(id, r.text(name), typ, deps...))
}
