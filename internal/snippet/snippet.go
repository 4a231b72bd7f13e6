package snippet

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	DefaultContext    = 10
	DefaultMaxColumns = 72
)

// Options controls the size of a rendered snippet. They must stay the same
// for a whole run so every snippet has the same layout.
type Options struct {
	Context    int
	MaxColumns int
	Wrap       bool
}

// DefaultOptions returns the layout used when nothing is configured.
func DefaultOptions() Options {
	return Options{Context: DefaultContext, MaxColumns: DefaultMaxColumns}
}

// RenderFile reads path and renders the snippet around line and column.
// Returns an empty string on any error.
func RenderFile(path string, line, column int, opts Options) string {
	if strings.TrimSpace(path) == "" || line <= 0 {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil || !utf8.Valid(data) {
		return ""
	}
	return Render(string(data), line, column, opts)
}

// Render draws lines around the 1-based line of content as a table with a
// ">" marker on that line and a column footer. column is the 0-based
// offset into the line. Returns an empty string when line is out of range.
func Render(content string, line, column int, opts Options) string {
	if opts.MaxColumns <= 0 {
		opts.MaxColumns = DefaultMaxColumns
	}
	if opts.Context < 0 {
		opts.Context = 0
	}

	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	if line < 1 || line > len(lines) {
		return ""
	}
	start, end := Window(line, len(lines), opts.Context)

	numWidth := max(4, len(strconv.Itoa(end))+2)
	offset := 0
	if !opts.Wrap {
		offset = horizontalOffset(normalize(lines[line-1]), column, opts.MaxColumns)
	}

	var b strings.Builder
	writeRow(&b, pad("line", numWidth), pad("File", opts.MaxColumns))
	writeRow(&b, strings.Repeat("-", numWidth), strings.Repeat("-", opts.MaxColumns))
	for n := start; n <= end; n++ {
		text := []rune(normalize(lines[n-1]))
		num := fmt.Sprintf("%*d", numWidth, n)
		if n == line {
			num = ">" + num[1:]
		}

		if opts.Wrap {
			chunks := chunk(text, opts.MaxColumns)
			for i, c := range chunks {
				if i > 0 {
					num = strings.Repeat(" ", numWidth)
				}
				writeRow(&b, num, pad(string(c), opts.MaxColumns))
			}
			continue
		}

		if offset < len(text) {
			text = text[offset:]
		} else {
			text = nil
		}
		if len(text) > opts.MaxColumns {
			text = text[:opts.MaxColumns]
		}
		writeRow(&b, num, pad(string(text), opts.MaxColumns))
	}
	fmt.Fprintf(&b, "  ^ Column %d", column)
	return b.String()
}

// Window returns the first and last line to show around line in a file of
// total lines. Lines within context of the top show the first 2*context+1
// lines, others are centered and clipped to the file.
func Window(line, total, context int) (int, int) {
	if line <= context {
		return 1, min(total, 2*context+1)
	}
	return line - context, min(total, line+context)
}

func writeRow(b *strings.Builder, num, text string) {
	b.WriteString("¦ ")
	b.WriteString(num)
	b.WriteString(" ¦ ")
	b.WriteString(text)
	b.WriteString(" ¦\n")
}

// normalize renders tabs as one space so that every byte offset keeps its
// column, and drops carriage returns.
func normalize(s string) string {
	s = strings.TrimSuffix(s, "\r")
	return strings.ReplaceAll(s, "\t", " ")
}

// horizontalOffset picks the first visible rune so that column stays in
// view when the flagged line is wider than the budget.
func horizontalOffset(text string, column, width int) int {
	if column < 0 {
		return 0
	}
	if column > len(text) {
		column = len(text)
	}
	runeCol := utf8.RuneCountInString(text[:column])
	if runeCol < width {
		return 0
	}
	return runeCol - width/2
}

func chunk(text []rune, width int) [][]rune {
	if len(text) == 0 {
		return [][]rune{nil}
	}
	var out [][]rune
	for len(text) > width {
		out = append(out, text[:width])
		text = text[width:]
	}
	return append(out, text)
}

func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
