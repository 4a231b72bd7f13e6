package finding

import (
	"fmt"
	"slices"
	"strings"
)

// ID identifies a vulnerability class of the catalog.
type ID string

const (
	F009 ID = "F009"
	F024 ID = "F024"
	F031 ID = "F031"
	F052 ID = "F052"
	F060 ID = "F060"
	F061 ID = "F061"
	F250 ID = "F250"
	F359 ID = "F359"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Finding is a static catalog entry. Entries are never mutated at runtime.
type Finding struct {
	ID          ID
	Title       string
	CWE         []string
	Severity    Severity
	Description string
}

// Label is the display title used by reports, e.g. "009. Sensitive information in source code".
func (f Finding) Label() string {
	return fmt.Sprintf("%s. %s", strings.TrimPrefix(string(f.ID), "F"), f.Title)
}

// CWEs returns the sorted CWE identifiers.
func (f Finding) CWEs() []string {
	out := slices.Clone(f.CWE)
	slices.Sort(out)
	return out
}

// Describe renders the description template with the hit detail.
func (f Finding) Describe(detail string) string {
	if detail == "" {
		detail = "the flagged construct"
	}
	return strings.ReplaceAll(f.Description, "{detail}", detail)
}

var catalog = map[ID]Finding{
	F009: {
		ID:          F009,
		Title:       "Sensitive information in source code",
		CWE:         []string{"CWE-798"},
		Severity:    SeverityHigh,
		Description: "The source code stores a credential in plain text: {detail}.",
	},
	F024: {
		ID:          F024,
		Title:       "Unrestricted access between network segments",
		CWE:         []string{"CWE-284"},
		Severity:    SeverityHigh,
		Description: "A security group allows ingress from any address: {detail}.",
	},
	F031: {
		ID:          F031,
		Title:       "Excessive privileges",
		CWE:         []string{"CWE-250", "CWE-266"},
		Severity:    SeverityMedium,
		Description: "A policy statement allows {detail} on every resource.",
	},
	F052: {
		ID:          F052,
		Title:       "Insecure encryption algorithm",
		CWE:         []string{"CWE-310", "CWE-327"},
		Severity:    SeverityMedium,
		Description: "The code computes digests with the broken algorithm {detail}.",
	},
	F060: {
		ID:          F060,
		Title:       "Insecure exceptions",
		CWE:         []string{"CWE-396", "CWE-397"},
		Severity:    SeverityLow,
		Description: "The code catches or throws the generic exception type {detail}.",
	},
	F061: {
		ID:          F061,
		Title:       "Traceability loss",
		CWE:         []string{"CWE-390"},
		Severity:    SeverityLow,
		Description: "The catch block for {detail} discards the error without handling it.",
	},
	F250: {
		ID:          F250,
		Title:       "Unencrypted hard drives",
		CWE:         []string{"CWE-311", "CWE-312"},
		Severity:    SeverityMedium,
		Description: "The volume {detail} is not encrypted at rest.",
	},
	F359: {
		ID:          F359,
		Title:       "Sensitive information in container image",
		CWE:         []string{"CWE-798"},
		Severity:    SeverityHigh,
		Description: "The Dockerfile bakes the secret {detail} into the image.",
	},
}

// Get returns the catalog entry for id.
func Get(id ID) (Finding, bool) {
	f, ok := catalog[id]
	return f, ok
}

// MustGet returns the catalog entry for id and panics when it is unknown.
func MustGet(id ID) Finding {
	f, ok := catalog[id]
	if !ok {
		panic(fmt.Sprintf("unknown finding %q", id))
	}
	return f
}

// All returns the catalog ordered by id.
func All() []Finding {
	out := make([]Finding, 0, len(catalog))
	for _, f := range catalog {
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b Finding) int { return strings.Compare(string(a.ID), string(b.ID)) })
	return out
}

// Parse resolves user input such as "F009", "f009" or "009" to a catalog id.
func Parse(s string) (ID, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(s, "F") {
		s = "F" + s
	}
	if _, ok := catalog[ID(s)]; !ok {
		return "", fmt.Errorf("unknown finding %q", s)
	}
	return ID(s), nil
}
