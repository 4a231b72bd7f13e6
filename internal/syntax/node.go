package syntax

import (
	"bytes"
	"unicode/utf8"
)

// Position is a location in a source file. Line is 1-based, Column is the
// 0-based byte offset into the line, so a tab always counts as one column.
type Position struct {
	Line   int
	Column int
}

// Node is a concrete syntax tree node. Leaf nodes carry their text in Value,
// declarative formats also set Value on interior nodes (block types, keys).
type Node struct {
	Label string
	// Field is the grammar field name this node occupies in its parent.
	Field string
	Value string
	// Tag holds format specific qualifiers such as a YAML tag or a Dockerfile flag.
	Tag   string
	Start Position
	End   Position
	// StartByte and EndByte address the node text in the source, -1 when unknown.
	StartByte int
	EndByte   int
	Children  []*Node
}

// Tree is the result of parsing one file.
type Tree struct {
	Path   string
	Root   *Node
	Source []byte
	// Partial is set when the parser recovered from errors.
	Partial bool
	Err     error
}

// Empty reports whether the tree has no usable nodes.
func (t *Tree) Empty() bool {
	return t == nil || t.Root == nil
}

// Walk visits nodes in pre-order without recursion. Returning false from fn
// skips the children of the visited node.
func Walk(root *Node, fn func(*Node) bool) {
	if root == nil {
		return
	}
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(n) {
			continue
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
}

// Count returns the number of nodes in the tree rooted at root.
func Count(root *Node) int {
	total := 0
	Walk(root, func(*Node) bool {
		total++
		return true
	})
	return total
}

func newNode(label string) *Node {
	return &Node{Label: label, StartByte: -1, EndByte: -1}
}

// lineIndex maps byte offsets and character columns onto Positions.
type lineIndex struct {
	src    []byte
	starts []int
}

func newLineIndex(src []byte) *lineIndex {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{src: src, starts: starts}
}

func (li *lineIndex) lines() int {
	return len(li.starts)
}

// line returns the text of a 1-based line without its terminator.
func (li *lineIndex) line(n int) []byte {
	if n < 1 || n > len(li.starts) {
		return nil
	}
	start := li.starts[n-1]
	end := len(li.src)
	if n < len(li.starts) {
		end = li.starts[n] - 1
	}
	return bytes.TrimSuffix(li.src[start:end], []byte("\r"))
}

// offset converts a byte offset into a Position.
func (li *lineIndex) offset(off int) Position {
	if off < 0 {
		off = 0
	}
	if off > len(li.src) {
		off = len(li.src)
	}
	lo, hi := 0, len(li.starts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if li.starts[mid] <= off {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return Position{Line: lo + 1, Column: off - li.starts[lo]}
}

// byteOffset returns the absolute offset of a Position, -1 if out of range.
func (li *lineIndex) byteOffset(p Position) int {
	if p.Line < 1 || p.Line > len(li.starts) {
		return -1
	}
	return li.starts[p.Line-1] + p.Column
}

// charColumn converts a 1-based character column into a 0-based byte column.
func (li *lineIndex) charColumn(line, col int) int {
	text := li.line(line)
	if col <= 1 {
		return 0
	}
	off := 0
	for i := 1; i < col && off < len(text); i++ {
		_, size := utf8.DecodeRune(text[off:])
		off += size
	}
	return off
}
