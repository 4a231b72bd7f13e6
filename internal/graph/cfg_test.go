package graph

import (
	"context"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/skims/internal/language"
	"github.com/scan-io-git/skims/internal/syntax"
)

func buildShard(t *testing.T, lang language.Language, path, src string) *Shard {
	t.Helper()
	tree := syntax.NewParser(hclog.NewNullLogger()).Parse(context.Background(), lang, path, []byte(src))
	require.NoError(t, tree.Err)
	return NewBuilder(hclog.NewNullLogger()).Build(lang, "hash", tree)
}

func nodeByText(t *testing.T, s *Shard, label, text string) NodeID {
	t.Helper()
	for id := range s.ByLabel(label) {
		if s.Text(id) == text {
			return id
		}
	}
	t.Fatalf("no %s node with text %q", label, text)
	return NoNode
}

func targets(s *Shard, from NodeID, kind EdgeKind) []NodeID {
	var out []NodeID
	for _, e := range s.FlowOut(from) {
		if e.Kind == kind {
			out = append(out, e.To)
		}
	}
	return out
}

func wrapJava(body string) string {
	return "class A {\n  void f(int x) {\n" + body + "\n  }\n}\n"
}

func TestIfElseEdges(t *testing.T) {
	s := buildShard(t, language.Java, "A.java", wrapJava(`
    int a = 1;
    if (x > 0) {
      a = 2;
    } else {
      a = 3;
    }
    a = 4;`))

	ifNode := nodeByText(t, s, "if_statement", "if (x > 0) {\n      a = 2;\n    } else {\n      a = 3;\n    }")
	cond := s.ChildByField(ifNode, "condition")
	cons := s.ChildByField(ifNode, "consequence")
	alt := s.ChildByField(ifNode, "alternative")
	require.NotEqual(t, NoNode, cond)

	assert.Equal(t, []NodeID{cond}, targets(s, ifNode, Always))
	assert.Equal(t, []NodeID{cons}, targets(s, cond, True))
	assert.Equal(t, []NodeID{alt}, targets(s, cond, False))

	after := nodeByText(t, s, "expression_statement", "a = 4;")
	assert.True(t, s.HasFlow(nodeByText(t, s, "expression_statement", "a = 2;"), after, Always))
	assert.True(t, s.HasFlow(nodeByText(t, s, "expression_statement", "a = 3;"), after, Always))
	assert.True(t, s.HasFlow(nodeByText(t, s, "local_variable_declaration", "int a = 1;"), ifNode, Always))
}

func TestIfWithoutElseFallsToContinuation(t *testing.T) {
	s := buildShard(t, language.Java, "A.java", wrapJava(`
    if (x > 0) {
      x = 2;
    }
    x = 4;`))

	ifNode := nodeByText(t, s, "if_statement", "if (x > 0) {\n      x = 2;\n    }")
	cond := s.ChildByField(ifNode, "condition")
	after := nodeByText(t, s, "expression_statement", "x = 4;")

	assert.Equal(t, []NodeID{s.ChildByField(ifNode, "consequence")}, targets(s, cond, True))
	assert.Equal(t, []NodeID{after}, targets(s, cond, False))
}

func TestWhileLoopEdges(t *testing.T) {
	s := buildShard(t, language.Java, "A.java", wrapJava(`
    while (x < 10) {
      x++;
    }
    return;`))

	loop := nodeByText(t, s, "while_statement", "while (x < 10) {\n      x++;\n    }")
	cond := s.ChildByField(loop, "condition")
	body := s.ChildByField(loop, "body")
	ret := nodeByText(t, s, "return_statement", "return;")

	assert.Equal(t, []NodeID{body}, targets(s, cond, True))
	assert.Equal(t, []NodeID{ret}, targets(s, cond, False))
	assert.True(t, s.HasFlow(nodeByText(t, s, "expression_statement", "x++;"), cond, Always))
	assert.Empty(t, s.FlowOut(ret))
}

func TestTryCatchFinallyEdges(t *testing.T) {
	s := buildShard(t, language.Java, "A.java", wrapJava(`
    try {
      x = 1;
    } catch (Exception e) {
      x = 2;
    } finally {
      x = 3;
    }
    x = 4;`))

	try := s.FirstChild(s.Root())
	for id := range s.ByLabel("try_statement") {
		try = id
	}
	body := s.ChildByField(try, "body")
	catch := s.FirstChild(try, "catch_clause")
	fin := s.FirstChild(try, "finally_clause")

	assert.Equal(t, []NodeID{body}, targets(s, try, Always))
	assert.Equal(t, []NodeID{catch}, targets(s, body, Maybe))
	assert.True(t, s.HasFlow(nodeByText(t, s, "expression_statement", "x = 1;"), fin, Always))
	assert.True(t, s.HasFlow(nodeByText(t, s, "expression_statement", "x = 2;"), fin, Always))
	assert.True(t, s.HasFlow(nodeByText(t, s, "expression_statement", "x = 3;"), nodeByText(t, s, "expression_statement", "x = 4;"), Always))
}

func single(t *testing.T, s *Shard, label string) NodeID {
	t.Helper()
	var found []NodeID
	for id := range s.ByLabel(label) {
		found = append(found, id)
	}
	require.Len(t, found, 1, label)
	return found[0]
}

func TestTryWithResourcesEdges(t *testing.T) {
	s := buildShard(t, language.Java, "A.java", wrapJava(`
    try (InputStream in = open(); Reader r = wrap(in)) {
      x = 1;
    }
    x = 2;`))

	try := single(t, s, "try_with_resources_statement")
	spec := single(t, s, "resource_specification")
	resources := s.Children(spec, "resource")
	require.Len(t, resources, 2)
	body := s.ChildByField(try, "body")

	assert.Equal(t, []NodeID{spec}, targets(s, try, Always))
	assert.Equal(t, []NodeID{resources[0]}, targets(s, spec, Always))
	assert.Equal(t, []NodeID{resources[1]}, targets(s, resources[0], Always))
	assert.Equal(t, []NodeID{body}, targets(s, resources[1], Always))
	assert.True(t, s.HasFlow(nodeByText(t, s, "expression_statement", "x = 1;"), nodeByText(t, s, "expression_statement", "x = 2;"), Always))
}

func TestDoWhileEdges(t *testing.T) {
	s := buildShard(t, language.Java, "A.java", wrapJava(`
    do {
      x++;
    } while (x < 10);
    return;`))

	loop := single(t, s, "do_statement")
	body := s.ChildByField(loop, "body")
	cond := s.ChildByField(loop, "condition")
	require.NotEqual(t, NoNode, cond)
	ret := nodeByText(t, s, "return_statement", "return;")

	assert.Equal(t, []NodeID{body}, targets(s, loop, Always))
	assert.True(t, s.HasFlow(nodeByText(t, s, "expression_statement", "x++;"), cond, Always))
	assert.Equal(t, []NodeID{body}, targets(s, cond, True))
	assert.Equal(t, []NodeID{ret}, targets(s, cond, False))
}

func TestForEachEdges(t *testing.T) {
	tests := []struct {
		name  string
		lang  language.Language
		path  string
		src   string
		loop  string
		inner string
		after string
	}{
		{
			name: "java enhanced for",
			lang: language.Java,
			path: "A.java",
			src: wrapJava(`    for (String item : items) {
      use(item);
    }
    done();`),
			loop:  "enhanced_for_statement",
			inner: "use(item);",
			after: "done();",
		},
		{
			name: "javascript for in",
			lang: language.JavaScript,
			path: "app.js",
			src: `function f(obj) {
  for (const k in obj) {
    use(k);
  }
  done();
}
`,
			loop:  "for_in_statement",
			inner: "use(k);",
			after: "done();",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := buildShard(t, tt.lang, tt.path, tt.src)
			loop := single(t, s, tt.loop)
			body := s.ChildByField(loop, "body")
			after := nodeByText(t, s, "expression_statement", tt.after)

			assert.Equal(t, []NodeID{body}, targets(s, loop, True))
			assert.Equal(t, []NodeID{after}, targets(s, loop, False))
			assert.True(t, s.HasFlow(nodeByText(t, s, "expression_statement", tt.inner), loop, Always))
		})
	}
}

func TestCSharpSwitchAndBareCatch(t *testing.T) {
	s := buildShard(t, language.CSharp, "A.cs", `class A {
  void F(int x) {
    switch (x) {
      case 1:
        x = 10;
        break;
      default:
        x = 30;
        break;
    }
    try {
      x = 1;
    } catch {
      x = 2;
    }
    x = 4;
  }
}
`)

	sw := single(t, s, "switch_statement")
	sections := s.Children(s.ChildByField(sw, "body"), "switch_section")
	require.Len(t, sections, 2)
	assert.ElementsMatch(t, sections, targets(s, sw, Maybe))

	try := single(t, s, "try_statement")
	for _, brk := range s.Children(sections[0], "break_statement") {
		assert.True(t, s.HasFlow(brk, try, Always))
	}

	body := s.ChildByField(try, "body")
	catch := single(t, s, "catch_clause")
	assert.Equal(t, []NodeID{catch}, targets(s, body, Maybe))
	assert.Equal(t, []NodeID{s.ChildByField(catch, "body")}, targets(s, catch, Always))

	after := nodeByText(t, s, "expression_statement", "x = 4;")
	assert.True(t, s.HasFlow(nodeByText(t, s, "expression_statement", "x = 2;"), after, Always))
	assert.True(t, s.HasFlow(nodeByText(t, s, "expression_statement", "x = 1;"), after, Always))
}

func TestSwitchFallthrough(t *testing.T) {
	s := buildShard(t, language.Java, "A.java", wrapJava(`
    switch (x) {
      case 1:
        x = 10;
      case 2:
        x = 20;
        break;
      default:
        x = 30;
    }
    x = 40;`))

	var sw NodeID = NoNode
	for id := range s.ByLabel("switch_expression", "switch_statement") {
		sw = id
	}
	require.NotEqual(t, NoNode, sw)
	groups := s.Children(s.ChildByField(sw, "body"), "switch_block_statement_group")
	require.Len(t, groups, 3)

	assert.ElementsMatch(t, groups, targets(s, sw, Maybe))

	after := nodeByText(t, s, "expression_statement", "x = 40;")
	assert.True(t, s.HasFlow(nodeByText(t, s, "expression_statement", "x = 10;"), groups[1], Always))
	assert.True(t, s.HasFlow(nodeByText(t, s, "break_statement", "break;"), after, Always))
	assert.False(t, s.HasFlow(nodeByText(t, s, "expression_statement", "x = 20;"), groups[2], Always))
	assert.True(t, s.HasFlow(nodeByText(t, s, "expression_statement", "x = 30;"), after, Always))
}

func TestLabeledContinue(t *testing.T) {
	s := buildShard(t, language.Java, "A.java", wrapJava(`
    outer:
    for (int i = 0; i < 3; i++) {
      for (int j = 0; j < 3; j++) {
        continue outer;
      }
    }`))

	cont := nodeByText(t, s, "continue_statement", "continue outer;")
	update := nodeByText(t, s, "update_expression", "i++")
	assert.Equal(t, []NodeID{update}, targets(s, cont, Always))
}

func TestJavaScriptIfElse(t *testing.T) {
	s := buildShard(t, language.JavaScript, "app.js", `function f(x) {
  if (x) {
    a();
  } else {
    b();
  }
}
`)
	ifNode := s.FirstChild(s.Root())
	for id := range s.ByLabel("if_statement") {
		ifNode = id
	}
	cond := s.ChildByField(ifNode, "condition")
	alt := s.ChildByField(ifNode, "alternative")
	assert.Equal(t, "else_clause", s.Node(alt).Label)
	assert.Equal(t, []NodeID{s.ChildByField(ifNode, "consequence")}, targets(s, cond, True))
	assert.Equal(t, []NodeID{alt}, targets(s, cond, False))
	assert.Len(t, targets(s, alt, Always), 1)
}

func TestEdgesAreDeduplicated(t *testing.T) {
	s := buildShard(t, language.Java, "A.java", wrapJava("    x = 1;\n    x = 2;"))
	before := len(s.Flow)
	require.NotZero(t, before)

	e := s.Flow[0]
	assert.False(t, s.addEdge(e.From, e.To, e.Kind))
	assert.Len(t, s.Flow, before)

	s.Seal()
	assert.False(t, s.addEdge(e.To, e.From, Maybe))
	assert.Len(t, s.Flow, before)
}

func TestDeclarativeShardsHaveNoFlow(t *testing.T) {
	s := buildShard(t, language.HCL, "main.tf", "resource \"aws_ebs_volume\" \"v\" {\n  size = 10\n}\n")
	assert.NotZero(t, s.Len())
	assert.Empty(t, s.Flow)
}

func TestKotlinShardsHaveNoFlow(t *testing.T) {
	s := buildShard(t, language.Kotlin, "Main.kt", "fun main() {\n    if (ready) {\n        run()\n    }\n}\n")
	assert.Equal(t, "source_file", s.Node(s.Root()).Label)
	assert.NotZero(t, s.Len())
	assert.Empty(t, s.Flow)
}

func TestBuildEmptyTree(t *testing.T) {
	tree := syntax.NewParser(hclog.NewNullLogger()).Parse(context.Background(), language.CloudFormation, "bad.yaml", []byte("a: [b\n"))
	s := NewBuilder(hclog.NewNullLogger()).Build(language.CloudFormation, "hash", tree)
	assert.Equal(t, 0, s.Len())
	assert.True(t, s.Partial)
	assert.Equal(t, NoNode, s.Root())
}
