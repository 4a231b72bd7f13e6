package graph

import (
	"sort"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/skims/internal/language"
	"github.com/scan-io-git/skims/internal/syntax"
)

// Builder lowers syntax trees into shards.
type Builder struct {
	logger hclog.Logger
	rules  map[language.Language]*flowRules
}

// NewBuilder creates a Builder with the control-flow rule tables of every
// imperative language.
func NewBuilder(logger hclog.Logger) *Builder {
	return &Builder{
		logger: logger,
		rules: map[language.Language]*flowRules{
			language.Java:       javaFlow,
			language.JavaScript: javascriptFlow,
			language.TypeScript: javascriptFlow,
			language.CSharp:     csharpFlow,
		},
	}
}

// Build converts tree into a shard. Every syntax node becomes exactly one
// graph node, ids are assigned in pre-order so a subtree occupies a
// contiguous id range.
func (b *Builder) Build(lang language.Language, hash string, tree *syntax.Tree) *Shard {
	shard := newShard(tree.Path, lang, hash, tree.Source)
	shard.Partial = tree.Partial || tree.Err != nil
	if tree.Empty() {
		return shard
	}

	lower(shard, tree.Root)

	if rules, ok := b.rules[lang]; ok {
		unknown := buildFlow(shard, rules)
		if len(unknown) > 0 {
			labels := make([]string, 0, len(unknown))
			for label := range unknown {
				labels = append(labels, label)
			}
			sort.Strings(labels)
			b.logger.Debug("statements without flow rules treated as opaque", "path", shard.Path, "labels", labels)
		}
	}
	return shard
}

func lower(shard *Shard, root *syntax.Node) {
	type item struct {
		node   *syntax.Node
		parent NodeID
	}
	stack := []item{{root, NoNode}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		id := NodeID(len(shard.Nodes))
		n := it.node
		shard.Nodes = append(shard.Nodes, Node{
			ID:        id,
			Label:     n.Label,
			Field:     n.Field,
			Value:     n.Value,
			Tag:       n.Tag,
			Line:      n.Start.Line,
			Column:    n.Start.Column,
			EndLine:   n.End.Line,
			EndColumn: n.End.Column,
			StartByte: n.StartByte,
			EndByte:   n.EndByte,
			Parent:    it.parent,
		})
		if it.parent != NoNode {
			shard.Nodes[it.parent].Children = append(shard.Nodes[it.parent].Children, id)
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, item{n.Children[i], id})
		}
	}
}
