package finding

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/scan-io-git/skims/internal/config"
)

var (
	defaultSecretWords = []string{
		"password", "passwd", "pwd", "secret", "token", "api_key", "apikey",
		"access_key", "private_key", "client_secret", "credential", "auth_token", "authorization",
	}
	defaultGenericExceptions = []string{
		"Exception", "Throwable", "RuntimeException", "Error",
		"System.Exception", "SystemException", "NullPointerException",
	}
	defaultWeakHashes   = []string{"md2", "md4", "md5", "sha1", "sha-1"}
	defaultWriteActions = []string{
		"Put*", "Create*", "Delete*", "Update*", "Attach*", "Detach*", "iam:PassRole",
	}
)

// Policy holds the heuristic word-lists detectors match against.
type Policy struct {
	SecretWords       []string
	GenericExceptions []string
	WeakHashes        []string
	WriteActions      []string
}

// DefaultPolicy returns the built-in word-lists.
func DefaultPolicy() Policy {
	return Policy{
		SecretWords:       slices.Clone(defaultSecretWords),
		GenericExceptions: slices.Clone(defaultGenericExceptions),
		WeakHashes:        slices.Clone(defaultWeakHashes),
		WriteActions:      slices.Clone(defaultWriteActions),
	}
}

// NewPolicy overrides the defaults with the non-empty lists of cfg.
func NewPolicy(cfg config.Policy) Policy {
	p := DefaultPolicy()
	p.SecretWords = config.SetThen(cfg.SecretWords, p.SecretWords)
	p.GenericExceptions = config.SetThen(cfg.GenericExceptions, p.GenericExceptions)
	p.WeakHashes = config.SetThen(cfg.WeakHashes, p.WeakHashes)
	p.WriteActions = config.SetThen(cfg.WriteActions, p.WriteActions)
	return p
}

// IsSecretName reports whether an identifier looks like it holds a secret.
// Separators and case are ignored, so dbPassword, DB_PASSWORD and db-password
// all match "password".
func (p Policy) IsSecretName(name string) bool {
	n := normalizeName(name)
	if n == "" {
		return false
	}
	return lo.SomeBy(p.SecretWords, func(w string) bool {
		w = normalizeName(w)
		return w != "" && strings.Contains(n, w)
	})
}

// IsGenericException reports whether a type name is a catch-all exception.
// Qualified names match on their last segment too.
func (p Policy) IsGenericException(typ string) bool {
	typ = strings.TrimSpace(typ)
	short := typ
	if i := strings.LastIndex(typ, "."); i >= 0 {
		short = typ[i+1:]
	}
	return lo.Contains(p.GenericExceptions, typ) || lo.Contains(p.GenericExceptions, short)
}

// IsWeakHash reports whether an algorithm name is a broken digest.
func (p Policy) IsWeakHash(alg string) bool {
	alg = strings.ToLower(strings.TrimSpace(alg))
	return lo.SomeBy(p.WeakHashes, func(w string) bool { return strings.ToLower(w) == alg })
}

// IsWildcardAction reports whether an IAM action pattern covers every
// action of a service or of all services, e.g. "*" or "s3:*".
func IsWildcardAction(action string) bool {
	return action == "*" || strings.HasSuffix(action, ":*")
}

// IsWriteAction reports whether an IAM action grants write access. Entries
// with a service prefix match the whole action. Entries ending in * match
// the action verb by prefix.
func (p Policy) IsWriteAction(action string) bool {
	_, verb, found := strings.Cut(action, ":")
	if !found {
		verb = action
	}
	return lo.SomeBy(p.WriteActions, func(w string) bool {
		if strings.Contains(w, ":") {
			return strings.EqualFold(w, action)
		}
		if prefix, ok := strings.CutSuffix(w, "*"); ok {
			return prefix != "" && strings.HasPrefix(verb, prefix)
		}
		return w == verb
	})
}

// Fingerprint identifies the policy in cache keys so that changing a
// word-list invalidates cached detector results.
func (p Policy) Fingerprint() string {
	h := sha256.New()
	for _, list := range [][]string{p.SecretWords, p.GenericExceptions, p.WeakHashes, p.WriteActions} {
		sorted := slices.Clone(list)
		slices.Sort(sorted)
		h.Write([]byte(strings.Join(sorted, "\x00")))
		h.Write([]byte{0xff})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func normalizeName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r == '_' || r == '-' || r == '.' || r == ' ' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
