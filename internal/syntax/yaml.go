package syntax

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// parseYAML lowers YAML and JSON documents (CloudFormation templates).
// Only the first document of a multi-document stream is kept.
func parseYAML(path string, src []byte) (*Node, bool, error) {
	text := src
	if strings.EqualFold(filepath.Ext(path), ".json") {
		// Same length replacement keeps every column intact.
		text = bytes.ReplaceAll(src, []byte("\t"), []byte(" "))
	}

	var doc yaml.Node
	dec := yaml.NewDecoder(bytes.NewReader(text))
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			root := newNode("document")
			return root, false, nil
		}
		return nil, false, err
	}

	l := &yamlLowerer{lines: newLineIndex(src)}
	return l.lower(&doc), false, nil
}

type yamlLowerer struct {
	lines *lineIndex
}

func (l *yamlLowerer) place(n *Node, y *yaml.Node) {
	n.Start = Position{Line: y.Line, Column: l.lines.charColumn(y.Line, y.Column)}
	n.End = n.Start
	if y.Kind == yaml.ScalarNode {
		n.End.Column = n.Start.Column + len(y.Value)
	}
	n.StartByte = l.lines.byteOffset(n.Start)
}

func (l *yamlLowerer) lower(root *yaml.Node) *Node {
	type item struct {
		src *yaml.Node
		dst *Node
	}
	out := l.convert(root)
	stack := []item{{root, out}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch it.src.Kind {
		case yaml.MappingNode:
			for i := 0; i+1 < len(it.src.Content); i += 2 {
				key, value := it.src.Content[i], it.src.Content[i+1]
				pair := newNode("pair")
				pair.Value = key.Value
				l.place(pair, key)

				k := l.convert(key)
				k.Field = "key"
				v := l.convert(value)
				v.Field = "value"
				pair.Children = []*Node{k, v}
				it.dst.Children = append(it.dst.Children, pair)
				stack = append(stack, item{key, k}, item{value, v})
			}
		case yaml.DocumentNode, yaml.SequenceNode:
			for _, child := range it.src.Content {
				n := l.convert(child)
				it.dst.Children = append(it.dst.Children, n)
				stack = append(stack, item{child, n})
			}
		}
	}
	return out
}

func (l *yamlLowerer) convert(y *yaml.Node) *Node {
	var n *Node
	switch y.Kind {
	case yaml.DocumentNode:
		n = newNode("document")
	case yaml.MappingNode:
		n = newNode("mapping")
	case yaml.SequenceNode:
		n = newNode("sequence")
	case yaml.AliasNode:
		n = newNode("alias")
		n.Value = y.Value
	default:
		n = newNode("scalar")
		n.Value = y.Value
	}
	if y.Tag != "" && !strings.HasPrefix(y.Tag, "!!") {
		n.Tag = y.Tag
	}
	l.place(n, y)
	return n
}
