package graph

import (
	"iter"
	"slices"
)

func labelSet(labels []string) func(string) bool {
	if len(labels) == 0 {
		return func(string) bool { return true }
	}
	return func(label string) bool { return slices.Contains(labels, label) }
}

// Text returns the source text of a node, or its Value when the node has
// no byte range.
func (s *Shard) Text(id NodeID) string {
	if !s.Valid(id) {
		return ""
	}
	n := &s.Nodes[id]
	if n.StartByte >= 0 && n.EndByte >= n.StartByte && n.EndByte <= len(s.Source) && n.EndByte > n.StartByte {
		return string(s.Source[n.StartByte:n.EndByte])
	}
	return n.Value
}

// Children returns the ordered children of id matching labels.
func (s *Shard) Children(id NodeID, labels ...string) []NodeID {
	if !s.Valid(id) {
		return nil
	}
	match := labelSet(labels)
	var out []NodeID
	for _, child := range s.Nodes[id].Children {
		if match(s.Nodes[child].Label) {
			out = append(out, child)
		}
	}
	return out
}

// FirstChild returns the first child of id matching labels.
func (s *Shard) FirstChild(id NodeID, labels ...string) NodeID {
	if !s.Valid(id) {
		return NoNode
	}
	match := labelSet(labels)
	for _, child := range s.Nodes[id].Children {
		if match(s.Nodes[child].Label) {
			return child
		}
	}
	return NoNode
}

// ChildByField returns the first child of id stored under any of fields.
func (s *Shard) ChildByField(id NodeID, fields ...string) NodeID {
	if !s.Valid(id) {
		return NoNode
	}
	for _, field := range fields {
		for _, child := range s.Nodes[id].Children {
			if s.Nodes[child].Field == field {
				return child
			}
		}
	}
	return NoNode
}

// ChildrenByField returns every child of id stored under field.
func (s *Shard) ChildrenByField(id NodeID, field string) []NodeID {
	if !s.Valid(id) {
		return nil
	}
	var out []NodeID
	for _, child := range s.Nodes[id].Children {
		if s.Nodes[child].Field == field {
			out = append(out, child)
		}
	}
	return out
}

// Ancestors yields the ancestors of id from the nearest outwards, filtered
// by labels. A depth above zero bounds how many levels are climbed.
func (s *Shard) Ancestors(id NodeID, depth int, labels ...string) iter.Seq[NodeID] {
	match := labelSet(labels)
	return func(yield func(NodeID) bool) {
		if !s.Valid(id) {
			return
		}
		level := 0
		for cur := s.Nodes[id].Parent; cur != NoNode; cur = s.Nodes[cur].Parent {
			level++
			if depth > 0 && level > depth {
				return
			}
			if match(s.Nodes[cur].Label) && !yield(cur) {
				return
			}
		}
	}
}

// NearestAncestor returns the closest ancestor of id with one of labels.
func (s *Shard) NearestAncestor(id NodeID, labels ...string) NodeID {
	for anc := range s.Ancestors(id, 0, labels...) {
		return anc
	}
	return NoNode
}

// Descendants yields the descendants of id in pre-order, filtered by labels.
// A depth above zero bounds how many levels are descended.
func (s *Shard) Descendants(id NodeID, depth int, labels ...string) iter.Seq[NodeID] {
	match := labelSet(labels)
	return func(yield func(NodeID) bool) {
		if !s.Valid(id) {
			return
		}
		type item struct {
			id    NodeID
			level int
		}
		stack := []item{{id, 0}}
		for len(stack) > 0 {
			it := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if it.id != id && match(s.Nodes[it.id].Label) && !yield(it.id) {
				return
			}
			if depth > 0 && it.level >= depth {
				continue
			}
			children := s.Nodes[it.id].Children
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, item{children[i], it.level + 1})
			}
		}
	}
}

// Siblings yields the other children of id's parent, filtered by labels.
func (s *Shard) Siblings(id NodeID, labels ...string) iter.Seq[NodeID] {
	match := labelSet(labels)
	return func(yield func(NodeID) bool) {
		if !s.Valid(id) || s.Nodes[id].Parent == NoNode {
			return
		}
		for _, sib := range s.Nodes[s.Nodes[id].Parent].Children {
			if sib != id && match(s.Nodes[sib].Label) && !yield(sib) {
				return
			}
		}
	}
}

// ByLabel yields every node of the shard with one of labels.
func (s *Shard) ByLabel(labels ...string) iter.Seq[NodeID] {
	match := labelSet(labels)
	return func(yield func(NodeID) bool) {
		for i := range s.Nodes {
			if match(s.Nodes[i].Label) && !yield(NodeID(i)) {
				return
			}
		}
	}
}

// FlowOut returns the control-flow edges leaving id.
func (s *Shard) FlowOut(id NodeID) []Edge {
	out := make([]Edge, 0, len(s.flowOut[id]))
	for _, i := range s.flowOut[id] {
		out = append(out, s.Flow[i])
	}
	return out
}

// FlowIn returns the control-flow edges entering id.
func (s *Shard) FlowIn(id NodeID) []Edge {
	in := make([]Edge, 0, len(s.flowIn[id]))
	for _, i := range s.flowIn[id] {
		in = append(in, s.Flow[i])
	}
	return in
}

// HasFlow reports whether the edge (from, to, kind) exists.
func (s *Shard) HasFlow(from, to NodeID, kind EdgeKind) bool {
	_, ok := s.edgeSet[Edge{From: from, To: to, Kind: kind}]
	return ok
}
