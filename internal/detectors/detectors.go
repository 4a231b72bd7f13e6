// Package detectors holds the vulnerability detector methods. A method is a
// pure function over one read-only shard; a finding may be served by several
// methods whose hits are merged by the caller.
package detectors

import (
	"context"
	"iter"

	"github.com/scan-io-git/skims/internal/finding"
	"github.com/scan-io-git/skims/internal/graph"
	"github.com/scan-io-git/skims/internal/language"
	"github.com/scan-io-git/skims/pkg/shared/errors"
)

// Hit is one node flagged by a method. Detail names the offending value and
// feeds the finding description.
type Hit struct {
	Node   graph.NodeID `msgpack:"node"`
	Detail string       `msgpack:"detail,omitempty"`
}

// Context is the read-only input of a method.
type Context struct {
	Shard  *graph.Shard
	Policy finding.Policy
}

// CheckFunc yields the hits of a method on one shard.
type CheckFunc func(c *Context) iter.Seq[Hit]

// Method binds a check to the finding it reports and the language it reads.
type Method struct {
	Name     string
	Finding  finding.ID
	Language language.Language
	Check    CheckFunc
}

// Run executes m on shard behind a recover boundary: a panicking method
// yields a DetectorError and no hits, leaving other methods unaffected.
func Run(ctx context.Context, m Method, c *Context) (hits []Hit, err error) {
	defer func() {
		if r := recover(); r != nil {
			hits = nil
			err = errors.NewDetectorError(string(m.Finding), m.Name, c.Shard.Path, r)
		}
	}()

	if c.Shard.Language != m.Language {
		return nil, nil
	}
	for hit := range m.Check(c) {
		if err := ctx.Err(); err != nil {
			return hits, err
		}
		if !c.Shard.Valid(hit.Node) {
			continue
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
