package vulnerability

import (
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/skims/internal/detectors"
	"github.com/scan-io-git/skims/internal/finding"
	"github.com/scan-io-git/skims/internal/graph"
	"github.com/scan-io-git/skims/internal/snippet"
	"github.com/scan-io-git/skims/pkg/shared/files"
)

// Materializer builds vulnerabilities from detector hits. Snippets are read
// from the files under root.
type Materializer struct {
	root    string
	options snippet.Options
	logger  hclog.Logger
}

// NewMaterializer creates a Materializer for the files under root.
func NewMaterializer(root string, options snippet.Options, logger hclog.Logger) *Materializer {
	return &Materializer{root: root, options: options, logger: logger}
}

// Materialize locates hit in s and describes it with the catalog entry of
// the method's finding. A snippet that cannot be rendered is left empty.
// It returns false when hit does not address a node of s.
func (m *Materializer) Materialize(s *graph.Shard, method detectors.Method, hit detectors.Hit) (Vulnerability, bool) {
	if !s.Valid(hit.Node) {
		m.logger.Warn("hit outside of the shard", "path", s.Path, "node", hit.Node, "method", method.Name)
		return Vulnerability{}, false
	}
	f := finding.MustGet(method.Finding)
	node := s.Node(hit.Node)

	v := Vulnerability{
		Finding:     f.ID,
		Title:       f.Label(),
		Path:        s.Path,
		Line:        node.Line,
		Column:      node.Column,
		Detail:      hit.Detail,
		Method:      method.Name,
		CWE:         f.CWEs(),
		Severity:    f.Severity,
		Description: f.Describe(hit.Detail),
	}

	source, err := files.EnsureWithinRoot(m.root, filepath.Join(m.root, filepath.FromSlash(s.Path)))
	if err != nil {
		m.logger.Warn("shard path outside of the scanned root", "path", s.Path, "error", err)
		return v, true
	}
	v.Snippet = snippet.RenderFile(source, v.Line, v.Column, m.options)
	if v.Snippet == "" {
		m.logger.Debug("snippet unavailable", "path", s.Path, "line", v.Line)
	}
	return v, true
}
