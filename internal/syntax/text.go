package syntax

import (
	"regexp"
	"strings"
)

var keyValueLine = regexp.MustCompile(`^(\s*)(?:export\s+)?([A-Za-z0-9_.\-]+)(\s*[=:]\s*)(.*?)\s*$`)

// parseText lowers line oriented files (.env, .properties). Every
// significant line is a node, KEY=value lines get name/value children.
func parseText(src []byte) *Node {
	lines := newLineIndex(src)
	root := newNode("text_file")
	root.Start = Position{Line: 1}
	root.End = lines.offset(len(src))
	root.StartByte, root.EndByte = 0, len(src)

	for ln := 1; ln <= lines.lines(); ln++ {
		text := string(lines.line(ln))
		trimmed := strings.TrimSpace(text)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "!") {
			continue
		}

		line := newNode("line")
		line.Value = text
		line.Start = Position{Line: ln}
		line.End = Position{Line: ln, Column: len(text)}
		line.StartByte = lines.byteOffset(line.Start)
		line.EndByte = lines.byteOffset(line.End)

		if m := keyValueLine.FindStringSubmatchIndex(text); m != nil {
			line.Label = "key_value"
			key := newNode("name")
			key.Field = "name"
			key.Value = text[m[4]:m[5]]
			key.Start = Position{Line: ln, Column: m[4]}
			key.End = Position{Line: ln, Column: m[5]}

			value := newNode("value")
			value.Field = "value"
			value.Value = text[m[8]:m[9]]
			value.Start = Position{Line: ln, Column: m[8]}
			value.End = Position{Line: ln, Column: m[9]}

			for _, n := range []*Node{key, value} {
				n.StartByte = lines.byteOffset(n.Start)
				n.EndByte = lines.byteOffset(n.End)
			}
			line.Value = key.Value
			line.Children = []*Node{key, value}
		}
		root.Children = append(root.Children, line)
	}
	return root
}
