package graph

import (
	"sort"

	"github.com/scan-io-git/skims/internal/language"
)

// NodeID addresses a node inside one shard.
type NodeID int32

// NoNode marks an absent node reference.
const NoNode NodeID = -1

// EdgeKind classifies a control-flow edge.
type EdgeKind uint8

const (
	Always EdgeKind = iota + 1
	Maybe
	True
	False
)

func (k EdgeKind) String() string {
	switch k {
	case Always:
		return "ALWAYS"
	case Maybe:
		return "MAYBE"
	case True:
		return "TRUE"
	case False:
		return "FALSE"
	}
	return "UNKNOWN"
}

// Node is a property graph node. Line is 1-based, Column is a 0-based byte
// offset into the line.
type Node struct {
	ID        NodeID
	Label     string
	Field     string
	Value     string
	Tag       string
	Line      int
	Column    int
	EndLine   int
	EndColumn int
	StartByte int
	EndByte   int
	Parent    NodeID
	Children  []NodeID
}

// Edge is a control-flow edge between two nodes of the same shard.
type Edge struct {
	From NodeID
	To   NodeID
	Kind EdgeKind
}

// Shard is the property graph of one file.
type Shard struct {
	Path     string
	Language language.Language
	Hash     string
	Source   []byte
	Partial  bool
	Nodes    []Node
	Flow     []Edge
	Steps    map[NodeID]Steps

	sealed   bool
	edgeSet  map[Edge]struct{}
	flowOut  map[NodeID][]int
	flowIn   map[NodeID][]int
	stepRefs map[NodeID]StepRef
}

// StepRef locates the syntax step produced for a node.
type StepRef struct {
	Scope NodeID
	Index int
}

func newShard(path string, lang language.Language, hash string, src []byte) *Shard {
	return &Shard{
		Path:     path,
		Language: lang,
		Hash:     hash,
		Source:   src,
		Steps:    map[NodeID]Steps{},
		edgeSet:  map[Edge]struct{}{},
		flowOut:  map[NodeID][]int{},
		flowIn:   map[NodeID][]int{},
		stepRefs: map[NodeID]StepRef{},
	}
}

// Root returns the id of the root node, NoNode for an empty shard.
func (s *Shard) Root() NodeID {
	if len(s.Nodes) == 0 {
		return NoNode
	}
	return 0
}

// Len returns the number of nodes.
func (s *Shard) Len() int {
	return len(s.Nodes)
}

// Valid reports whether id addresses a node of this shard.
func (s *Shard) Valid(id NodeID) bool {
	return id >= 0 && int(id) < len(s.Nodes)
}

// Node returns the node with the given id. It panics on invalid ids.
func (s *Shard) Node(id NodeID) *Node {
	return &s.Nodes[id]
}

// Sealed reports whether the shard has been handed to detectors.
func (s *Shard) Sealed() bool {
	return s.sealed
}

// Seal freezes the shard. Builders must not add edges or steps afterwards.
func (s *Shard) Seal() {
	s.sealed = true
}

// addEdge records a control-flow edge once per (from, to, kind) triple.
func (s *Shard) addEdge(from, to NodeID, kind EdgeKind) bool {
	if s.sealed || !s.Valid(from) || !s.Valid(to) {
		return false
	}
	e := Edge{From: from, To: to, Kind: kind}
	if _, ok := s.edgeSet[e]; ok {
		return false
	}
	s.edgeSet[e] = struct{}{}
	s.Flow = append(s.Flow, e)
	s.flowOut[from] = append(s.flowOut[from], len(s.Flow)-1)
	s.flowIn[to] = append(s.flowIn[to], len(s.Flow)-1)
	return true
}

// SetSteps attaches the syntax steps of one scope. It is a no-op on sealed shards.
func (s *Shard) SetSteps(scope NodeID, steps Steps) bool {
	if s.sealed || !s.Valid(scope) {
		return false
	}
	s.Steps[scope] = steps
	for i, step := range steps {
		s.stepRefs[step.Node] = StepRef{Scope: scope, Index: i}
	}
	return true
}

// StepFor returns the step produced for node id.
func (s *Shard) StepFor(id NodeID) (StepRef, bool) {
	ref, ok := s.stepRefs[id]
	return ref, ok
}

// Scopes returns the step scopes in node order.
func (s *Shard) Scopes() []NodeID {
	scopes := make([]NodeID, 0, len(s.Steps))
	for id := range s.Steps {
		scopes = append(scopes, id)
	}
	sort.Slice(scopes, func(i, j int) bool { return scopes[i] < scopes[j] })
	return scopes
}

// reindex rebuilds the lookup tables after decoding.
func (s *Shard) reindex() {
	s.edgeSet = make(map[Edge]struct{}, len(s.Flow))
	s.flowOut = map[NodeID][]int{}
	s.flowIn = map[NodeID][]int{}
	for i, e := range s.Flow {
		s.edgeSet[e] = struct{}{}
		s.flowOut[e.From] = append(s.flowOut[e.From], i)
		s.flowIn[e.To] = append(s.flowIn[e.To], i)
	}
	s.stepRefs = map[NodeID]StepRef{}
	if s.Steps == nil {
		s.Steps = map[NodeID]Steps{}
	}
	for scope, steps := range s.Steps {
		for i, step := range steps {
			s.stepRefs[step.Node] = StepRef{Scope: scope, Index: i}
		}
	}
}
