package syntax

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/kotlin"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/scan-io-git/skims/internal/language"
)

var errSyntax = errors.New("source contains syntax errors")

var grammars = map[language.Language]func() *sitter.Language{
	language.Java:       java.GetLanguage,
	language.JavaScript: javascript.GetLanguage,
	language.TypeScript: typescript.GetLanguage,
	language.CSharp:     csharp.GetLanguage,
	language.Kotlin:     kotlin.GetLanguage,
}

// comment labels are dropped while lowering so the tree is comment insensitive.
var commentLabels = map[string]bool{
	"comment":       true,
	"line_comment":  true,
	"block_comment": true,
}

// ParserPool hands out one tree-sitter parser per goroutine and language.
type ParserPool struct {
	pools map[language.Language]*sync.Pool
}

// NewParserPool creates pools for every grammar the engine ships.
func NewParserPool() *ParserPool {
	pools := make(map[language.Language]*sync.Pool, len(grammars))
	for lang, grammar := range grammars {
		grammar := grammar
		pools[lang] = &sync.Pool{
			New: func() interface{} {
				parser := sitter.NewParser()
				parser.SetLanguage(grammar())
				return parser
			},
		}
	}
	return &ParserPool{pools: pools}
}

func (p *ParserPool) get(lang language.Language) (*sitter.Parser, bool) {
	pool, ok := p.pools[lang]
	if !ok {
		return nil, false
	}
	return pool.Get().(*sitter.Parser), true
}

func (p *ParserPool) put(lang language.Language, parser *sitter.Parser) {
	parser.Reset()
	p.pools[lang].Put(parser)
}

// parseTreeSitter parses code languages and lowers the concrete tree into
// Nodes, keeping named nodes only.
func (p *ParserPool) parseTreeSitter(ctx context.Context, lang language.Language, src []byte) (*Node, bool, error) {
	parser, ok := p.get(lang)
	if !ok {
		return nil, false, fmt.Errorf("no grammar for %s", lang)
	}
	defer p.put(lang, parser)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, false, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, false, errors.New("parser returned no root")
	}

	type item struct {
		src *sitter.Node
		dst *Node
	}
	out := lowerSitter(root, "", src)
	stack := []item{{root, out}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		count := int(it.src.ChildCount())
		for i := 0; i < count; i++ {
			child := it.src.Child(i)
			if child == nil || !child.IsNamed() || commentLabels[child.Type()] {
				continue
			}
			node := lowerSitter(child, it.src.FieldNameForChild(i), src)
			it.dst.Children = append(it.dst.Children, node)
			stack = append(stack, item{child, node})
		}
	}

	if root.HasError() {
		return out, true, errSyntax
	}
	return out, false, nil
}

func lowerSitter(n *sitter.Node, field string, src []byte) *Node {
	start, end := n.StartPoint(), n.EndPoint()
	node := &Node{
		Label:     n.Type(),
		Field:     field,
		Start:     Position{Line: int(start.Row) + 1, Column: int(start.Column)},
		End:       Position{Line: int(end.Row) + 1, Column: int(end.Column)},
		StartByte: int(n.StartByte()),
		EndByte:   int(n.EndByte()),
	}
	if n.NamedChildCount() == 0 {
		node.Value = n.Content(src)
	}
	return node
}
