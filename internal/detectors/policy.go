package detectors

import (
	"iter"
	"slices"

	"github.com/scan-io-git/skims/internal/finding"
	"github.com/scan-io-git/skims/internal/graph"
)

// statement is an IAM policy statement extracted from either HCL or a
// CloudFormation document.
type statement struct {
	effect    string
	actions   []graph.NodeID
	resources []string
}

// excessive yields the wildcard or write actions of an Allow statement that
// applies to every resource.
func (st statement) excessive(c *Context, s *graph.Shard) iter.Seq[Hit] {
	return func(yield func(Hit) bool) {
		if st.effect != "Allow" || !slices.Contains(st.resources, "*") {
			return
		}
		for _, id := range st.actions {
			action := s.Node(id).Value
			if !finding.IsWildcardAction(action) && !c.Policy.IsWriteAction(action) {
				continue
			}
			if !yield(Hit{Node: id, Detail: action}) {
				return
			}
		}
	}
}
