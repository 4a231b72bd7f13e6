package vulnerability

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/skims/internal/detectors"
	"github.com/scan-io-git/skims/internal/finding"
	"github.com/scan-io-git/skims/internal/graph"
	"github.com/scan-io-git/skims/internal/language"
	"github.com/scan-io-git/skims/internal/snippet"
	"github.com/scan-io-git/skims/internal/syntax"
)

const dockerfile = "FROM alpine:3.19\nENV DB_PASSWORD=supersecret123\n"

func dockerShard(t *testing.T) *graph.Shard {
	t.Helper()
	logger := hclog.NewNullLogger()
	tree := syntax.NewParser(logger).Parse(context.Background(), language.Dockerfile, "build/Dockerfile", []byte(dockerfile))
	require.NoError(t, tree.Err)
	s := graph.NewBuilder(logger).Build(language.Dockerfile, "hash", tree)
	s.Seal()
	return s
}

func dockerHit(t *testing.T, s *graph.Shard) (detectors.Method, detectors.Hit) {
	t.Helper()
	methods := detectors.Select([]finding.ID{finding.F359})
	require.Len(t, methods, 1)
	hits, err := detectors.Run(context.Background(), methods[0], &detectors.Context{Shard: s, Policy: finding.DefaultPolicy()})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	return methods[0], hits[0]
}

func TestMaterialize(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "build"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "build", "Dockerfile"), []byte(dockerfile), 0o644))

	s := dockerShard(t)
	method, hit := dockerHit(t, s)

	v, ok := NewMaterializer(root, snippet.DefaultOptions(), hclog.NewNullLogger()).Materialize(s, method, hit)
	require.True(t, ok)
	assert.Equal(t, finding.F359, v.Finding)
	assert.Equal(t, "359. Sensitive information in container image", v.Title)
	assert.Equal(t, "build/Dockerfile", v.Path)
	assert.Equal(t, "2:16", v.Where())
	assert.Equal(t, []string{"CWE-798"}, v.CWE)
	assert.Equal(t, finding.SeverityHigh, v.Severity)
	assert.Equal(t, "dockerfile_secret", v.Method)
	assert.Contains(t, v.Description, "DB_PASSWORD")
	assert.Contains(t, v.Snippet, "¦ >  2 ¦ ENV DB_PASSWORD=supersecret123")
	assert.True(t, strings.HasSuffix(v.Snippet, "^ Column 16"))

	// the column lands on the flagged value
	line := strings.Split(dockerfile, "\n")[v.Line-1]
	assert.True(t, strings.HasPrefix(line[v.Column:], "supersecret123"))
}

func TestMaterializeWithoutSource(t *testing.T) {
	s := dockerShard(t)
	method, hit := dockerHit(t, s)

	v, ok := NewMaterializer(t.TempDir(), snippet.DefaultOptions(), hclog.NewNullLogger()).Materialize(s, method, hit)
	require.True(t, ok)
	assert.Empty(t, v.Snippet)
	assert.Equal(t, 2, v.Line)
}

func TestMaterializeRejectsEscapingPath(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "repo")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(parent, "Dockerfile"), []byte(dockerfile), 0o644))

	s := dockerShard(t)
	method, hit := dockerHit(t, s)
	s.Path = "../Dockerfile"

	v, ok := NewMaterializer(root, snippet.DefaultOptions(), hclog.NewNullLogger()).Materialize(s, method, hit)
	require.True(t, ok)
	assert.Empty(t, v.Snippet)
	assert.Equal(t, "../Dockerfile", v.Path)
}

func TestMaterializeRejectsUnknownNode(t *testing.T) {
	s := dockerShard(t)
	method, _ := dockerHit(t, s)
	m := NewMaterializer(t.TempDir(), snippet.DefaultOptions(), hclog.NewNullLogger())

	for _, id := range []graph.NodeID{graph.NodeID(s.Len()), 4096, -3} {
		var ok bool
		require.NotPanics(t, func() { _, ok = m.Materialize(s, method, detectors.Hit{Node: id}) })
		assert.False(t, ok, "node %d", id)
	}
}

func vuln(id finding.ID, path string, line, column int, method string) Vulnerability {
	return Vulnerability{Finding: id, Path: path, Line: line, Column: column, Method: method}
}

func TestStoreSnapshot(t *testing.T) {
	s := NewStore()
	s.Store(vuln(finding.F009, "a.js", 1, 0, "m"))
	seq := s.All()
	s.Store(vuln(finding.F009, "a.js", 2, 0, "m"))

	assert.Len(t, slices.Collect(seq), 1)
	assert.Len(t, slices.Collect(s.All()), 2)
	assert.Equal(t, 2, s.Len())

	s.Reset()
	assert.Zero(t, s.Len())
	assert.Empty(t, slices.Collect(s.All()))
}

func TestStoreConcurrentProducers(t *testing.T) {
	stores := NewStores()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for line := 1; line <= 50; line++ {
				stores.For(finding.F024).Store(vuln(finding.F024, "main.tf", line, i, "m"))
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, map[finding.ID]int{finding.F024: 400}, stores.Counts())
	assert.Len(t, stores.Merge(), 400)
}

func TestMergeDeduplicates(t *testing.T) {
	stores := NewStores()
	stores.For(finding.F060).Store(vuln(finding.F060, "A.java", 6, 14, "java_generic_throw"))
	stores.For(finding.F060).Store(vuln(finding.F060, "A.java", 6, 14, "java_generic_catch"))
	stores.For(finding.F060).Store(vuln(finding.F060, "A.java", 2, 28, "java_generic_throws"))
	stores.For(finding.F009).Store(vuln(finding.F009, "B.java", 1, 0, "java_hardcoded_secret"))

	merged := stores.Merge()
	require.Len(t, merged, 3)
	assert.Equal(t, finding.F009, merged[0].Finding)
	assert.Equal(t, 2, merged[1].Line)
	assert.Equal(t, "java_generic_catch", merged[2].Method)

	stores.Reset()
	assert.Empty(t, stores.Merge())
}
