package symbolic

import (
	"context"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/skims/internal/graph"
	"github.com/scan-io-git/skims/internal/language"
	"github.com/scan-io-git/skims/internal/syntax"
)

func reduce(t *testing.T, lang language.Language, path, src string) *graph.Shard {
	t.Helper()
	logger := hclog.NewNullLogger()
	tree := syntax.NewParser(logger).Parse(context.Background(), lang, path, []byte(src))
	require.NoError(t, tree.Err)
	shard := graph.NewBuilder(logger).Build(lang, "hash", tree)
	NewReducer(logger).Reduce(shard)
	return shard
}

func scopeSteps(t *testing.T, s *graph.Shard, label string) graph.Steps {
	t.Helper()
	for id := range s.ByLabel(label) {
		return s.Steps[id]
	}
	t.Fatalf("no %s scope", label)
	return nil
}

func findStep(steps graph.Steps, kind graph.StepKind, symbol string) (int, bool) {
	for i, st := range steps {
		if st.Kind == kind && st.Symbol == symbol {
			return i, true
		}
	}
	return -1, false
}

func TestJavaShadowingAndResolution(t *testing.T) {
	s := reduce(t, language.Java, "A.java", `class A {
  void f() {
    String alg = "MD5";
    alg = "SHA-256";
    MessageDigest.getInstance(alg);
    int n = 1;
    n += 2;
  }
}
`)
	steps := scopeSteps(t, s, "method_declaration")

	idx, ok := findStep(steps, graph.StepMethodInvocation, "getInstance")
	require.True(t, ok)
	call := steps[idx]
	assert.Equal(t, "MessageDigest", call.Object)
	require.Len(t, call.Args, 1)

	value, ok := steps.Literal(call.Args[0])
	require.True(t, ok)
	assert.Equal(t, "SHA-256", value)

	// the receiver is a library class and stays unresolved
	require.GreaterOrEqual(t, call.Receiver, 0)
	receiver := steps[call.Receiver]
	assert.Equal(t, graph.StepSymbolLookup, receiver.Kind)
	assert.Empty(t, receiver.Deps)

	decl, ok := findStep(steps, graph.StepDeclaration, "alg")
	require.True(t, ok)
	assert.Equal(t, "String", steps[decl].Object)
	value, ok = steps.Literal(decl)
	require.True(t, ok)
	assert.Equal(t, "MD5", value)

	compound, ok := findStep(steps, graph.StepAssignment, "n")
	require.True(t, ok)
	_, ok = steps.Literal(compound)
	assert.False(t, ok)

	ref, ok := s.StepFor(call.Node)
	require.True(t, ok)
	assert.Equal(t, idx, ref.Index)
}

func TestJavaScriptSteps(t *testing.T) {
	s := reduce(t, language.JavaScript, "app.js", "const crypto = require(\"crypto\");\n"+
		"function h(data) {\n"+
		"  let algo = `md5`;\n"+
		"  const digest = crypto.createHash(algo);\n"+
		"  const tag = `sha${data}`;\n"+
		"  const cfg = { password: \"hunter2\" };\n"+
		"}\n")

	steps := scopeSteps(t, s, "function_declaration")

	param, ok := findStep(steps, graph.StepDeclaration, "data")
	require.True(t, ok)
	assert.Empty(t, steps[param].Deps)

	idx, ok := findStep(steps, graph.StepMethodInvocation, "createHash")
	require.True(t, ok)
	value, ok := steps.Literal(steps[idx].Args[0])
	require.True(t, ok)
	assert.Equal(t, "md5", value)

	tag, ok := findStep(steps, graph.StepDeclaration, "tag")
	require.True(t, ok)
	_, ok = steps.Literal(tag)
	assert.False(t, ok)
	resolved, ok := steps.Resolve(tag)
	require.True(t, ok)
	assert.True(t, resolved.Interpolated)

	pw, ok := findStep(steps, graph.StepAssignment, "password")
	require.True(t, ok)
	value, ok = steps.Literal(pw)
	require.True(t, ok)
	assert.Equal(t, "hunter2", value)

	decl, ok := findStep(steps, graph.StepDeclaration, "algo")
	require.True(t, ok)
	assert.Equal(t, "let", steps[decl].Object)

	program := scopeSteps(t, s, "program")
	req, ok := findStep(program, graph.StepMethodInvocation, "require")
	require.True(t, ok)
	assert.Equal(t, graph.NoNode, graph.NodeID(program[req].Receiver))
}

func TestReduceSkipsDeclarativeAndSealedShards(t *testing.T) {
	logger := hclog.NewNullLogger()
	s := reduce(t, language.HCL, "main.tf", "variable \"x\" {}\n")
	assert.Empty(t, s.Steps)

	tree := syntax.NewParser(logger).Parse(context.Background(), language.Java, "A.java", []byte("class A { void f() { int x = 1; } }"))
	sealed := graph.NewBuilder(logger).Build(language.Java, "hash", tree)
	sealed.Seal()
	assert.Zero(t, NewReducer(logger).Reduce(sealed))
	assert.Empty(t, sealed.Steps)
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`"abc"`, "abc"},
		{`'abc'`, "abc"},
		{"`abc`", "abc"},
		{`"a\"b"`, `a"b`},
		{"\"\"\"\n  text\n\"\"\"", "text"},
		{`abc`, "abc"},
		{`"`, `"`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, unquote(tt.in), tt.in)
	}
}
