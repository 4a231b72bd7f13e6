package detectors

import (
	"iter"
	"regexp"
	"strings"

	"github.com/scan-io-git/skims/internal/graph"
)

// variableRef matches $VAR and ${VAR} references.
var variableRef = regexp.MustCompile(`\$(\{[A-Za-z_][A-Za-z0-9_]*|[A-Za-z_])`)

// literalSecret reports whether value is a literal worth flagging: not
// empty and not built from a variable reference.
func literalSecret(value string) bool {
	value = strings.Trim(strings.TrimSpace(value), `"'`)
	return value != "" && !variableRef.MatchString(value)
}

// dockerfileSecret flags ENV and ARG declarations of secret-like names
// with a literal value. The hit points at the value.
func dockerfileSecret(c *Context) iter.Seq[Hit] {
	s := c.Shard
	return func(yield func(Hit) bool) {
		for pair := range s.ByLabel("env_pair", "arg_pair") {
			name := s.Node(pair).Value
			if !c.Policy.IsSecretName(name) {
				continue
			}
			value := s.ChildByField(pair, "value")
			if value == graph.NoNode || !literalSecret(s.Node(value).Value) {
				continue
			}
			if !yield(Hit{Node: value, Detail: name}) {
				return
			}
		}
	}
}

// textSecret flags KEY=value lines of .env and .properties files.
func textSecret(c *Context) iter.Seq[Hit] {
	s := c.Shard
	return func(yield func(Hit) bool) {
		for line := range s.ByLabel("key_value") {
			name := s.Node(line).Value
			if !c.Policy.IsSecretName(name) {
				continue
			}
			value := s.ChildByField(line, "value")
			if value == graph.NoNode || !literalSecret(s.Node(value).Value) {
				continue
			}
			if !yield(Hit{Node: value, Detail: name}) {
				return
			}
		}
	}
}
