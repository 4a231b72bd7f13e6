package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vmihailenco/msgpack/v4"

	"github.com/scan-io-git/skims/internal/language"
)

// SchemaVersion is bumped whenever the encoded shard layout changes.
// Entries written with another version are rejected by Decode.
const SchemaVersion = 1

var (
	// ErrSchemaVersion is returned when decoding a shard of another schema version.
	ErrSchemaVersion = errors.New("unsupported shard schema version")
	// ErrCorruptShard is returned when a decoded shard references nodes or
	// steps it does not contain.
	ErrCorruptShard = errors.New("corrupt shard")
)

type shardRecord struct {
	Version  int           `msgpack:"version"`
	Path     string        `msgpack:"path"`
	Language uint8         `msgpack:"language"`
	Hash     string        `msgpack:"hash"`
	Source   []byte        `msgpack:"source"`
	Partial  bool          `msgpack:"partial,omitempty"`
	Nodes    []nodeRecord  `msgpack:"nodes"`
	Flow     []edgeRecord  `msgpack:"flow,omitempty"`
	Scopes   []scopeRecord `msgpack:"scopes,omitempty"`
}

type nodeRecord struct {
	Label     string `msgpack:"label"`
	Field     string `msgpack:"field,omitempty"`
	Value     string `msgpack:"value,omitempty"`
	Tag       string `msgpack:"tag,omitempty"`
	Line      int    `msgpack:"line"`
	Column    int    `msgpack:"column"`
	EndLine   int    `msgpack:"end_line"`
	EndColumn int    `msgpack:"end_column"`
	StartByte int    `msgpack:"start_byte"`
	EndByte   int    `msgpack:"end_byte"`
	Parent    int32  `msgpack:"parent"`
}

type edgeRecord struct {
	From int32 `msgpack:"from"`
	To   int32 `msgpack:"to"`
	Kind uint8 `msgpack:"kind"`
}

type scopeRecord struct {
	Scope int32        `msgpack:"scope"`
	Steps []stepRecord `msgpack:"steps"`
}

type stepRecord struct {
	Kind         uint8  `msgpack:"kind"`
	Node         int32  `msgpack:"node"`
	Symbol       string `msgpack:"symbol,omitempty"`
	Object       string `msgpack:"object,omitempty"`
	Value        string `msgpack:"value,omitempty"`
	ValueType    string `msgpack:"value_type,omitempty"`
	Interpolated bool   `msgpack:"interpolated,omitempty"`
	Receiver     int    `msgpack:"receiver"`
	Args         []int  `msgpack:"args,omitempty"`
	Deps         []int  `msgpack:"deps,omitempty"`
}

// Codec serializes shards for the cache.
type Codec struct{}

// Encode writes s using the current schema version.
func (Codec) Encode(s *Shard) ([]byte, error) {
	rec := shardRecord{
		Version:  SchemaVersion,
		Path:     s.Path,
		Language: uint8(s.Language),
		Hash:     s.Hash,
		Source:   s.Source,
		Partial:  s.Partial,
		Nodes:    make([]nodeRecord, len(s.Nodes)),
		Flow:     make([]edgeRecord, len(s.Flow)),
	}
	for i, n := range s.Nodes {
		rec.Nodes[i] = nodeRecord{
			Label: n.Label, Field: n.Field, Value: n.Value, Tag: n.Tag,
			Line: n.Line, Column: n.Column, EndLine: n.EndLine, EndColumn: n.EndColumn,
			StartByte: n.StartByte, EndByte: n.EndByte,
			Parent: int32(n.Parent),
		}
	}
	for i, e := range s.Flow {
		rec.Flow[i] = edgeRecord{From: int32(e.From), To: int32(e.To), Kind: uint8(e.Kind)}
	}
	for _, scope := range s.Scopes() {
		sr := scopeRecord{Scope: int32(scope)}
		for _, st := range s.Steps[scope] {
			sr.Steps = append(sr.Steps, stepRecord{
				Kind: uint8(st.Kind), Node: int32(st.Node),
				Symbol: st.Symbol, Object: st.Object, Value: st.Value, ValueType: st.ValueType,
				Interpolated: st.Interpolated, Receiver: st.Receiver, Args: st.Args, Deps: st.Deps,
			})
		}
		rec.Scopes = append(rec.Scopes, sr)
	}

	data, err := msgpack.Marshal(&rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode shard %q: %w", s.Path, err)
	}
	return data, nil
}

// Decode reads a shard and seals it.
func (Codec) Decode(data []byte) (*Shard, error) {
	var rec shardRecord
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode shard: %w", err)
	}
	if rec.Version != SchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSchemaVersion, rec.Version, SchemaVersion)
	}
	if err := rec.validate(); err != nil {
		return nil, fmt.Errorf("failed to decode shard %q: %w", rec.Path, err)
	}

	s := newShard(rec.Path, language.Language(rec.Language), rec.Hash, rec.Source)
	s.Partial = rec.Partial
	s.Nodes = make([]Node, len(rec.Nodes))
	for i, n := range rec.Nodes {
		parent := NodeID(n.Parent)
		s.Nodes[i] = Node{
			ID: NodeID(i), Label: n.Label, Field: n.Field, Value: n.Value, Tag: n.Tag,
			Line: n.Line, Column: n.Column, EndLine: n.EndLine, EndColumn: n.EndColumn,
			StartByte: n.StartByte, EndByte: n.EndByte,
			Parent: parent,
		}
		if parent != NoNode {
			s.Nodes[parent].Children = append(s.Nodes[parent].Children, NodeID(i))
		}
	}
	for _, e := range rec.Flow {
		s.Flow = append(s.Flow, Edge{From: NodeID(e.From), To: NodeID(e.To), Kind: EdgeKind(e.Kind)})
	}
	sort.SliceStable(rec.Scopes, func(i, j int) bool { return rec.Scopes[i].Scope < rec.Scopes[j].Scope })
	for _, sr := range rec.Scopes {
		steps := make(Steps, 0, len(sr.Steps))
		for _, st := range sr.Steps {
			steps = append(steps, Step{
				Kind: StepKind(st.Kind), Node: NodeID(st.Node),
				Symbol: st.Symbol, Object: st.Object, Value: st.Value, ValueType: st.ValueType,
				Interpolated: st.Interpolated, Receiver: st.Receiver, Args: st.Args, Deps: st.Deps,
			})
		}
		s.Steps[NodeID(sr.Scope)] = steps
	}
	s.reindex()
	s.Seal()
	return s, nil
}

// validate checks every node reference of the record. Parents must precede
// their children so the tree stays acyclic.
func (rec *shardRecord) validate() error {
	count := int32(len(rec.Nodes))
	valid := func(id int32) bool { return id >= 0 && id < count }

	for i, n := range rec.Nodes {
		if n.Parent < int32(NoNode) || n.Parent >= int32(i) {
			return fmt.Errorf("%w: node %d has parent %d", ErrCorruptShard, i, n.Parent)
		}
	}
	for _, e := range rec.Flow {
		if !valid(e.From) || !valid(e.To) {
			return fmt.Errorf("%w: edge %d -> %d out of range", ErrCorruptShard, e.From, e.To)
		}
	}
	for _, sr := range rec.Scopes {
		if !valid(sr.Scope) {
			return fmt.Errorf("%w: scope %d out of range", ErrCorruptShard, sr.Scope)
		}
		steps := len(sr.Steps)
		inSteps := func(idx int) bool { return idx >= -1 && idx < steps }
		for j, st := range sr.Steps {
			if !valid(st.Node) || !inSteps(st.Receiver) {
				return fmt.Errorf("%w: step %d of scope %d is out of range", ErrCorruptShard, j, sr.Scope)
			}
			for _, idx := range append(append([]int{}, st.Args...), st.Deps...) {
				if !inSteps(idx) {
					return fmt.Errorf("%w: step %d of scope %d depends on %d", ErrCorruptShard, j, sr.Scope, idx)
				}
			}
		}
	}
	return nil
}
