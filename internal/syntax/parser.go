package syntax

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/skims/internal/language"
	serrors "github.com/scan-io-git/skims/pkg/shared/errors"
)

// parseFunc is one entry of the adapter table. It returns the root node,
// whether the tree is partial, and the parser diagnostic if any.
type parseFunc func(ctx context.Context, path string, src []byte) (*Node, bool, error)

// Parser routes file content to the adapter registered for its language.
type Parser struct {
	logger   hclog.Logger
	adapters map[language.Language]parseFunc
}

// NewParser builds the adapter table.
func NewParser(logger hclog.Logger) *Parser {
	pool := NewParserPool()
	code := func(lang language.Language) parseFunc {
		return func(ctx context.Context, _ string, src []byte) (*Node, bool, error) {
			return pool.parseTreeSitter(ctx, lang, src)
		}
	}

	return &Parser{
		logger: logger,
		adapters: map[language.Language]parseFunc{
			language.Java:       code(language.Java),
			language.JavaScript: code(language.JavaScript),
			language.TypeScript: code(language.TypeScript),
			language.CSharp:     code(language.CSharp),
			language.Kotlin:     code(language.Kotlin),
			language.HCL: func(_ context.Context, path string, src []byte) (*Node, bool, error) {
				return parseHCL(path, src)
			},
			language.CloudFormation: func(_ context.Context, path string, src []byte) (*Node, bool, error) {
				return parseYAML(path, src)
			},
			language.Dockerfile: func(_ context.Context, _ string, src []byte) (*Node, bool, error) {
				return parseDockerfile(src)
			},
			language.Text: func(_ context.Context, _ string, src []byte) (*Node, bool, error) {
				return parseText(src), false, nil
			},
		},
	}
}

// Supports reports whether an adapter exists for lang.
func (p *Parser) Supports(lang language.Language) bool {
	_, ok := p.adapters[lang]
	return ok
}

// Parse never fails: malformed input yields an empty or partial tree whose
// Err field describes the problem, and a warning is logged.
func (p *Parser) Parse(ctx context.Context, lang language.Language, path string, src []byte) (tree *Tree) {
	tree = &Tree{Path: path, Source: src}

	adapter, ok := p.adapters[lang]
	if !ok {
		tree.Err = serrors.NewParseError(path, lang.String(), fmt.Errorf("no adapter registered"))
		p.logger.Warn("no parser for language", "path", path, "language", lang.String())
		return tree
	}

	defer func() {
		if r := recover(); r != nil {
			tree.Root = nil
			tree.Partial = false
			tree.Err = serrors.NewParseError(path, lang.String(), fmt.Errorf("panic: %v", r))
			p.logger.Warn("parser panicked", "path", path, "language", lang.String(), "error", r)
		}
	}()

	root, partial, err := adapter(ctx, path, src)
	tree.Root = root
	tree.Partial = partial
	if err != nil {
		tree.Err = serrors.NewParseError(path, lang.String(), err)
		if root == nil {
			p.logger.Warn("failed to parse file", "path", path, "language", lang.String(), "error", err)
		} else {
			p.logger.Warn("parsed file with errors", "path", path, "language", lang.String(), "error", err)
		}
	}
	return tree
}
