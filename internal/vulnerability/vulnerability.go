// Package vulnerability turns detector hits into located vulnerability
// records and collects them per finding during a run.
package vulnerability

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/scan-io-git/skims/internal/finding"
)

// Vulnerability is one located detection of a finding.
type Vulnerability struct {
	Finding     finding.ID       `json:"finding" msgpack:"finding"`
	Title       string           `json:"title" msgpack:"title"`
	Path        string           `json:"path" msgpack:"path"`
	Line        int              `json:"line" msgpack:"line"`
	Column      int              `json:"column" msgpack:"column"`
	Detail      string           `json:"detail,omitempty" msgpack:"detail,omitempty"`
	Method      string           `json:"method" msgpack:"method"`
	CWE         []string         `json:"cwe" msgpack:"cwe"`
	Severity    finding.Severity `json:"severity" msgpack:"severity"`
	Description string           `json:"description" msgpack:"description"`
	Snippet     string           `json:"snippet,omitempty" msgpack:"snippet,omitempty"`
}

// Key identifies a vulnerability for deduplication.
type Key struct {
	Finding finding.ID
	Path    string
	Line    int
	Column  int
}

// Key returns the deduplication key of v.
func (v Vulnerability) Key() Key {
	return Key{Finding: v.Finding, Path: v.Path, Line: v.Line, Column: v.Column}
}

// Where formats the position as line:column.
func (v Vulnerability) Where() string {
	return fmt.Sprintf("%d:%d", v.Line, v.Column)
}

// CWEList joins the CWE identifiers with "+".
func (v Vulnerability) CWEList() string {
	return strings.Join(v.CWE, "+")
}

// Compare orders vulnerabilities by key, then by method and detail.
func Compare(a, b Vulnerability) int {
	return cmp.Or(
		cmp.Compare(a.Finding, b.Finding),
		cmp.Compare(a.Path, b.Path),
		cmp.Compare(a.Line, b.Line),
		cmp.Compare(a.Column, b.Column),
		cmp.Compare(a.Method, b.Method),
		cmp.Compare(a.Detail, b.Detail),
	)
}
