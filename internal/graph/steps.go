package graph

// StepKind is the variant of a syntax step.
type StepKind uint8

const (
	StepDeclaration StepKind = iota + 1
	StepAssignment
	StepMethodInvocation
	StepMemberAccess
	StepObjectInstantiation
	StepLiteral
	StepSymbolLookup
	StepExpression
)

var stepKindNames = map[StepKind]string{
	StepDeclaration:         "declaration",
	StepAssignment:          "assignment",
	StepMethodInvocation:    "method_invocation",
	StepMemberAccess:        "member_access",
	StepObjectInstantiation: "object_instantiation",
	StepLiteral:             "literal",
	StepSymbolLookup:        "symbol_lookup",
	StepExpression:          "expression",
}

func (k StepKind) String() string {
	if name, ok := stepKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Step is one linearized operation of a scope.
//
// Symbol is the declared or assigned name, the invoked method, the accessed
// member or the instantiated type depending on Kind. Object is the receiver
// text for invocations and member access, and the declared type for
// declarations. Deps are indexes of earlier steps in the same scope.
type Step struct {
	Kind         StepKind
	Node         NodeID
	Symbol       string
	Object       string
	Value        string
	ValueType    string
	Interpolated bool
	Receiver     int
	Args         []int
	Deps         []int
}

// Steps is the ordered step list of one scope.
type Steps []Step

// Lookup walks backward from before (exclusive) and returns the index of the
// latest declaration, assignment or lookup of symbol. Later definitions
// shadow earlier ones.
func (s Steps) Lookup(symbol string, before int) (int, bool) {
	if before > len(s) {
		before = len(s)
	}
	for i := before - 1; i >= 0; i-- {
		step := s[i]
		if step.Symbol != symbol {
			continue
		}
		switch step.Kind {
		case StepDeclaration, StepAssignment, StepSymbolLookup:
			return i, true
		}
	}
	return -1, false
}

// Resolve follows value dependencies from idx until it reaches a step that
// produces a value on its own: a literal, an invocation, an instantiation or
// an unresolved lookup.
func (s Steps) Resolve(idx int) (Step, bool) {
	seen := map[int]bool{}
	for idx >= 0 && idx < len(s) && !seen[idx] {
		seen[idx] = true
		step := s[idx]
		switch step.Kind {
		case StepDeclaration, StepAssignment, StepSymbolLookup:
			if len(step.Deps) == 0 {
				return step, true
			}
			idx = step.Deps[len(step.Deps)-1]
		case StepExpression:
			if len(step.Deps) != 1 {
				return step, true
			}
			idx = step.Deps[0]
		default:
			return step, true
		}
	}
	return Step{}, false
}

// Literal resolves idx and returns the string value it evaluates to when
// that value is a plain, non-interpolated literal.
func (s Steps) Literal(idx int) (string, bool) {
	step, ok := s.Resolve(idx)
	if !ok || step.Kind != StepLiteral || step.Interpolated {
		return "", false
	}
	return step.Value, true
}
