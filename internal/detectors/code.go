package detectors

import (
	"iter"
	"strings"

	"github.com/scan-io-git/skims/internal/graph"
)

// steps yields every step of every scope of the shard in scope order.
func steps(s *graph.Shard) iter.Seq2[graph.Steps, int] {
	return func(yield func(graph.Steps, int) bool) {
		for _, scope := range s.Scopes() {
			list := s.Steps[scope]
			for i := range list {
				if !yield(list, i) {
					return
				}
			}
		}
	}
}

// hardcodedSecret flags declarations and assignments of secret-like names
// whose value resolves to a plain string literal.
func hardcodedSecret(c *Context) iter.Seq[Hit] {
	return func(yield func(Hit) bool) {
		for list, i := range steps(c.Shard) {
			step := list[i]
			if step.Kind != graph.StepDeclaration && step.Kind != graph.StepAssignment {
				continue
			}
			if len(step.Deps) == 0 || !c.Policy.IsSecretName(step.Symbol) {
				continue
			}
			value, ok := list.Resolve(i)
			if !ok || value.Kind != graph.StepLiteral || value.Interpolated || value.ValueType != "string" {
				continue
			}
			if strings.TrimSpace(value.Value) == "" {
				continue
			}
			if !yield(Hit{Node: step.Node, Detail: step.Symbol}) {
				return
			}
		}
	}
}

// insecureHash flags MessageDigest.getInstance and crypto.createHash calls
// whose algorithm argument resolves to a broken digest.
func insecureHash(c *Context) iter.Seq[Hit] {
	return func(yield func(Hit) bool) {
		for list, i := range steps(c.Shard) {
			step := list[i]
			if step.Kind != graph.StepMethodInvocation || len(step.Args) == 0 {
				continue
			}
			switch {
			case step.Symbol == "getInstance" && lastSegment(step.Object) == "MessageDigest":
			case step.Symbol == "createHash" || step.Symbol == "createHmac":
			default:
				continue
			}
			alg, ok := list.Literal(step.Args[0])
			if !ok || !c.Policy.IsWeakHash(alg) {
				continue
			}
			if !yield(Hit{Node: step.Node, Detail: alg}) {
				return
			}
		}
	}
}

// javaGenericCatch flags catch clauses naming a catch-all exception type,
// one hit per offending type of a multi-catch.
func javaGenericCatch(c *Context) iter.Seq[Hit] {
	s := c.Shard
	return func(yield func(Hit) bool) {
		for catch := range s.ByLabel("catch_clause") {
			for typ := range s.Descendants(catch, 3, "type_identifier", "scoped_type_identifier") {
				if parentLabel(s, typ) != "catch_type" {
					continue
				}
				name := s.Text(typ)
				if c.Policy.IsGenericException(name) && !yield(Hit{Node: typ, Detail: name}) {
					return
				}
			}
		}
	}
}

// javaGenericThrows flags generic types in method throws clauses.
func javaGenericThrows(c *Context) iter.Seq[Hit] {
	s := c.Shard
	return func(yield func(Hit) bool) {
		for throws := range s.ByLabel("throws") {
			for _, typ := range s.Children(throws, "type_identifier", "scoped_type_identifier") {
				name := s.Text(typ)
				if c.Policy.IsGenericException(name) && !yield(Hit{Node: typ, Detail: name}) {
					return
				}
			}
		}
	}
}

// genericThrow flags throw statements instantiating a generic exception.
func genericThrow(c *Context) iter.Seq[Hit] {
	s := c.Shard
	return func(yield func(Hit) bool) {
		for throw := range s.ByLabel("throw_statement") {
			for created := range s.Descendants(throw, 2, "object_creation_expression", "new_expression") {
				typ := s.ChildByField(created, "type", "constructor")
				if typ == graph.NoNode {
					continue
				}
				name := s.Text(typ)
				if c.Policy.IsGenericException(name) && !yield(Hit{Node: typ, Detail: name}) {
					return
				}
			}
		}
	}
}

// csharpGenericCatch flags catch declarations of generic types and general
// catch clauses without a declaration.
func csharpGenericCatch(c *Context) iter.Seq[Hit] {
	s := c.Shard
	return func(yield func(Hit) bool) {
		for catch := range s.ByLabel("catch_clause") {
			decl := s.FirstChild(catch, "catch_declaration")
			if decl == graph.NoNode {
				if !yield(Hit{Node: catch, Detail: "catch-all"}) {
					return
				}
				continue
			}
			typ := s.ChildByField(decl, "type")
			if typ == graph.NoNode {
				continue
			}
			name := s.Text(typ)
			if c.Policy.IsGenericException(name) && !yield(Hit{Node: typ, Detail: name}) {
				return
			}
		}
	}
}

// emptyCatch flags catch clauses reached from a try body whose block has
// no statements.
func emptyCatch(c *Context) iter.Seq[Hit] {
	s := c.Shard
	return func(yield func(Hit) bool) {
		for catch := range s.ByLabel("catch_clause") {
			if !reachedMaybe(s, catch) {
				continue
			}
			body := s.ChildByField(catch, "body")
			if body == graph.NoNode || len(s.Node(body).Children) > 0 {
				continue
			}
			if !yield(Hit{Node: catch, Detail: caughtType(s, catch)}) {
				return
			}
		}
	}
}

func reachedMaybe(s *graph.Shard, id graph.NodeID) bool {
	for _, e := range s.FlowIn(id) {
		if e.Kind == graph.Maybe {
			return true
		}
	}
	return false
}

func caughtType(s *graph.Shard, catch graph.NodeID) string {
	for typ := range s.Descendants(catch, 3, "catch_type", "type_identifier", "identifier", "qualified_name") {
		switch {
		case s.Node(typ).Label == "catch_type":
			return s.Text(typ)
		case parentLabel(s, typ) == "catch_declaration" && s.Node(typ).Field == "type":
			return s.Text(typ)
		}
	}
	return "exception"
}

func parentLabel(s *graph.Shard, id graph.NodeID) string {
	if parent := s.Node(id).Parent; s.Valid(parent) {
		return s.Node(parent).Label
	}
	return ""
}

func lastSegment(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}
