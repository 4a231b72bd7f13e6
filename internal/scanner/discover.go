package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/h2non/filetype"

	"github.com/scan-io-git/skims/internal/language"
	"github.com/scan-io-git/skims/pkg/shared/files"
)

// skippedDirs are never descended into.
var skippedDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	".terraform":   true,
	"node_modules": true,
	"vendor":       true,
}

// Source is one routable file found under the scan root.
type Source struct {
	// Path is relative to the root, with forward slashes.
	Path     string
	Abs      string
	Language language.Language
}

// Discover walks root and returns the routable files matching include and
// not matching exclude, ordered by path. The second result counts the
// files left out.
func Discover(ctx context.Context, root string, include, exclude []string) ([]Source, int, error) {
	if err := files.ValidateDir(root); err != nil {
		return nil, 0, fmt.Errorf("invalid scan root: %w", err)
	}

	var sources []Source
	skipped := 0
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel := files.RelativePath(root, p)
		if d.IsDir() {
			if p != root && (skippedDirs[d.Name()] || matchAny(exclude, rel)) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		lang := language.Route(rel)
		if lang == language.Unknown || matchAny(exclude, rel) || (len(include) > 0 && !matchAny(include, rel)) {
			skipped++
			return nil
		}
		sources = append(sources, Source{Path: rel, Abs: p, Language: lang})
		return nil
	})
	if err != nil {
		return nil, skipped, fmt.Errorf("failed to walk %q: %w", root, err)
	}

	sort.Slice(sources, func(i, j int) bool { return sources[i].Path < sources[j].Path })
	return sources, skipped, nil
}

// matchAny reports whether rel equals, lies under, or glob-matches one of
// patterns. Patterns without a slash also match the base name.
func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		p = strings.Trim(filepath.ToSlash(strings.TrimSpace(p)), "/")
		if p == "" {
			continue
		}
		if rel == p || strings.HasPrefix(rel, p+"/") {
			return true
		}
		if ok, _ := path.Match(p, rel); ok {
			return true
		}
		if !strings.Contains(p, "/") {
			if ok, _ := path.Match(p, path.Base(rel)); ok {
				return true
			}
		}
	}
	return false
}

// isBinary reports whether content starts with the signature of a known
// binary format.
func isBinary(content []byte) bool {
	kind, err := filetype.Match(content)
	return err == nil && kind != filetype.Unknown
}
