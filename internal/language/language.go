package language

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Language is the closed set of inputs the engine knows how to parse.
type Language uint8

const (
	Unknown Language = iota
	Java
	JavaScript
	TypeScript
	CSharp
	HCL
	CloudFormation
	Dockerfile
	Text
	Kotlin
)

var names = map[Language]string{
	Unknown:        "unknown",
	Java:           "java",
	JavaScript:     "javascript",
	TypeScript:     "typescript",
	CSharp:         "csharp",
	HCL:            "hcl",
	CloudFormation: "cloudformation",
	Dockerfile:     "dockerfile",
	Text:           "text",
	Kotlin:         "kotlin",
}

// All lists every routable language in a stable order.
func All() []Language {
	return []Language{Java, JavaScript, TypeScript, CSharp, Kotlin, HCL, CloudFormation, Dockerfile, Text}
}

func (l Language) String() string {
	if name, ok := names[l]; ok {
		return name
	}
	return fmt.Sprintf("language(%d)", uint8(l))
}

// Parse converts a configuration name into a Language.
func Parse(name string) (Language, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for lang, n := range names {
		if n == name && lang != Unknown {
			return lang, nil
		}
	}
	return Unknown, fmt.Errorf("unsupported language %q", name)
}

// Imperative reports whether shards of this language get control-flow edges.
func (l Language) Imperative() bool {
	switch l {
	case Java, JavaScript, TypeScript, CSharp:
		return true
	}
	return false
}

// Symbolic reports whether syntax steps are reduced for this language.
func (l Language) Symbolic() bool {
	switch l {
	case Java, JavaScript, TypeScript:
		return true
	}
	return false
}

var extensions = map[string]Language{
	".java":       Java,
	".js":         JavaScript,
	".jsx":        JavaScript,
	".mjs":        JavaScript,
	".cjs":        JavaScript,
	".ts":         TypeScript,
	".mts":        TypeScript,
	".cts":        TypeScript,
	".cs":         CSharp,
	".kt":         Kotlin,
	".kts":        Kotlin,
	".tf":         HCL,
	".hcl":        HCL,
	".yaml":       CloudFormation,
	".yml":        CloudFormation,
	".json":       CloudFormation,
	".template":   CloudFormation,
	".dockerfile": Dockerfile,
	".env":        Text,
	".properties": Text,
}

// Route picks the language for a repository path from its file name or
// extension. Unroutable paths return Unknown.
func Route(path string) Language {
	base := filepath.Base(path)
	lower := strings.ToLower(base)

	switch {
	case lower == "dockerfile",
		strings.HasPrefix(lower, "dockerfile."),
		strings.HasSuffix(lower, ".dockerfile"):
		return Dockerfile
	case lower == ".env", strings.HasPrefix(lower, ".env."):
		return Text
	case strings.HasSuffix(lower, ".d.ts"):
		return Unknown
	}

	if lang, ok := extensions[strings.ToLower(filepath.Ext(base))]; ok {
		return lang
	}
	return Unknown
}
