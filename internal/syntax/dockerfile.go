package syntax

import (
	"bytes"
	"strings"

	"github.com/moby/buildkit/frontend/dockerfile/parser"
)

// parseDockerfile lowers a Dockerfile into one node per instruction.
// ENV and LABEL arguments become name/value pairs, ARG declarations are
// split on the first '=' the same way.
func parseDockerfile(src []byte) (*Node, bool, error) {
	res, err := parser.Parse(bytes.NewReader(src))
	if err != nil {
		return nil, false, err
	}

	lines := newLineIndex(src)
	root := newNode("dockerfile")
	root.Start = Position{Line: 1}
	root.End = lines.offset(len(src))
	root.StartByte, root.EndByte = 0, len(src)
	for _, instr := range res.AST.Children {
		root.Children = append(root.Children, lowerInstruction(lines, instr))
	}
	return root, false, nil
}

func lowerInstruction(lines *lineIndex, instr *parser.Node) *Node {
	kind := strings.ToLower(instr.Value)
	n := newNode(kind + "_instruction")
	n.Value = instr.Original
	n.Tag = strings.Join(instr.Flags, " ")

	first := lines.line(instr.StartLine)
	indent := len(first) - len(bytes.TrimLeft(first, " \t"))
	n.Start = Position{Line: instr.StartLine, Column: indent}
	n.End = Position{Line: instr.EndLine, Column: len(lines.line(instr.EndLine))}
	n.StartByte = lines.byteOffset(n.Start)
	n.EndByte = lines.byteOffset(n.End)

	c := &cursor{lines: lines, line: instr.StartLine, col: indent + len(instr.Value), end: instr.EndLine, fallback: n.Start}
	switch kind {
	case "env", "label":
		for p := instr.Next; p != nil && p.Next != nil; p = p.Next.Next {
			n.Children = append(n.Children, c.pair(kind+"_pair", p.Value, p.Next.Value))
		}
	case "arg":
		for p := instr.Next; p != nil; p = p.Next {
			name, value, _ := strings.Cut(p.Value, "=")
			n.Children = append(n.Children, c.pair("arg_pair", name, value))
		}
	default:
		for p := instr.Next; p != nil; p = p.Next {
			arg := newNode("argument")
			arg.Value = p.Value
			c.locate(arg, p.Value)
			n.Children = append(n.Children, arg)
		}
	}
	return n
}

// cursor walks forward through the source lines of one instruction to place
// its arguments.
type cursor struct {
	lines    *lineIndex
	line     int
	col      int
	end      int
	fallback Position
}

func (c *cursor) pair(label, name, value string) *Node {
	pair := newNode(label)
	pair.Value = name

	key := newNode("name")
	key.Field = "name"
	key.Value = name
	c.locate(key, name)

	val := newNode("value")
	val.Field = "value"
	val.Value = value
	c.skipSeparator()
	c.locate(val, value)

	pair.Start, pair.StartByte = key.Start, key.StartByte
	pair.End, pair.EndByte = val.End, val.EndByte
	pair.Children = []*Node{key, val}
	return pair
}

func (c *cursor) skipSeparator() {
	text := c.lines.line(c.line)
	for c.col < len(text) && (text[c.col] == '=' || text[c.col] == ' ' || text[c.col] == '\t') {
		c.col++
	}
}

func (c *cursor) locate(n *Node, s string) {
	if s == "" {
		n.Start = Position{Line: c.line, Column: c.col}
		n.End = n.Start
		n.StartByte = c.lines.byteOffset(n.Start)
		n.EndByte = n.StartByte
		return
	}
	// Values spanning continuation lines are matched by their first line.
	needle := []byte(strings.SplitN(s, "\n", 2)[0])
	for ln := c.line; ln <= c.end; ln++ {
		text := c.lines.line(ln)
		from := 0
		if ln == c.line {
			from = c.col
		}
		if from > len(text) {
			continue
		}
		if idx := bytes.Index(text[from:], needle); idx >= 0 {
			n.Start = Position{Line: ln, Column: from + idx}
			n.End = Position{Line: ln, Column: from + idx + len(needle)}
			n.StartByte = c.lines.byteOffset(n.Start)
			n.EndByte = c.lines.byteOffset(n.End)
			c.line, c.col = ln, n.End.Column
			return
		}
	}
	n.Start, n.End = c.fallback, c.fallback
}
