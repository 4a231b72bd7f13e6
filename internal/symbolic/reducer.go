package symbolic

import (
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/skims/internal/graph"
	"github.com/scan-io-git/skims/internal/language"
)

// reduceFunc turns the subtree at id into steps and returns the index of
// the step holding its value, -1 when it has none.
type reduceFunc func(r *reduction, id graph.NodeID) int

type rules struct {
	// scopes get their own step list.
	scopes map[string]bool
	// transparent nodes only reduce their children.
	transparent map[string]bool
	// literals maps literal labels to their value type.
	literals map[string]string
	handlers map[string]reduceFunc
}

func (r *rules) isTransparent(label string) bool {
	return r.transparent[label] ||
		strings.HasSuffix(label, "_statement") ||
		strings.HasSuffix(label, "_clause")
}

// Reducer builds the syntax steps of code shards.
type Reducer struct {
	logger hclog.Logger
	rules  map[language.Language]*rules
}

// NewReducer creates a Reducer for the languages with step rules.
func NewReducer(logger hclog.Logger) *Reducer {
	return &Reducer{
		logger: logger,
		rules: map[language.Language]*rules{
			language.Java:       javaRules,
			language.JavaScript: javascriptRules,
			language.TypeScript: javascriptRules,
		},
	}
}

// Reduce attaches one step list per scope to s and returns the number of
// scopes reduced. Shards of other languages are left untouched.
func (rd *Reducer) Reduce(s *graph.Shard) int {
	rs, ok := rd.rules[s.Language]
	if !ok || s.Len() == 0 || s.Sealed() {
		return 0
	}

	scopes := 0
	for id := range s.ByLabel() {
		if !rs.scopes[s.Node(id).Label] {
			continue
		}
		r := &reduction{shard: s, rules: rs}
		r.scope(id)
		s.SetSteps(id, r.steps)
		scopes++
	}
	rd.logger.Trace("reduced syntax steps", "path", s.Path, "scopes", scopes)
	return scopes
}

type reduction struct {
	shard *graph.Shard
	rules *rules
	steps graph.Steps
}

func newStep(kind graph.StepKind, node graph.NodeID) graph.Step {
	return graph.Step{Kind: kind, Node: node, Receiver: -1}
}

func (r *reduction) emit(step graph.Step) int {
	r.steps = append(r.steps, step)
	return len(r.steps) - 1
}

func (r *reduction) label(id graph.NodeID) string {
	return r.shard.Node(id).Label
}

func (r *reduction) text(id graph.NodeID) string {
	if id == graph.NoNode {
		return ""
	}
	return r.shard.Text(id)
}

// scope reduces a scope root: parameters become declarations without
// dependencies, then the body is reduced in source order.
func (r *reduction) scope(id graph.NodeID) {
	params := r.shard.ChildByField(id, "parameters", "parameter")
	body := r.shard.ChildByField(id, "body")
	if params == graph.NoNode && body == graph.NoNode {
		r.each(id)
		return
	}
	if params != graph.NoNode {
		r.parameters(params)
	}
	if body != graph.NoNode {
		r.value(body)
	}
}

func (r *reduction) parameters(id graph.NodeID) {
	if r.label(id) == "identifier" {
		r.emit(r.declaration(id, r.text(id), ""))
		return
	}
	for p := range r.shard.Descendants(id, 0, "identifier", "shorthand_property_identifier_pattern") {
		r.emit(r.declaration(p, r.text(p), ""))
	}
}

func (r *reduction) declaration(id graph.NodeID, name, typ string, deps ...int) graph.Step {
	step := newStep(graph.StepDeclaration, id)
	step.Symbol = name
	step.Object = typ
	step.Deps = deps
	return step
}

// each reduces the children of id and returns the value steps they produced.
func (r *reduction) each(id graph.NodeID) []int {
	var out []int
	for _, child := range r.shard.Node(id).Children {
		if idx := r.value(child); idx >= 0 {
			out = append(out, idx)
		}
	}
	return out
}

func (r *reduction) value(id graph.NodeID) int {
	if id == graph.NoNode {
		return -1
	}
	label := r.label(id)

	if r.rules.scopes[label] {
		step := newStep(graph.StepExpression, id)
		step.Symbol = label
		return r.emit(step)
	}
	if vt, ok := r.rules.literals[label]; ok {
		return r.literal(id, vt)
	}
	if h := r.rules.handlers[label]; h != nil {
		return h(r, id)
	}
	if r.rules.isTransparent(label) {
		r.each(id)
		return -1
	}

	deps := r.each(id)
	step := newStep(graph.StepExpression, id)
	step.Symbol = label
	step.Deps = deps
	if len(r.shard.Node(id).Children) == 0 {
		step.Value = r.text(id)
	}
	return r.emit(step)
}

func (r *reduction) literal(id graph.NodeID, valueType string) int {
	step := newStep(graph.StepLiteral, id)
	step.ValueType = valueType
	step.Value = unquote(r.text(id))
	for sub := range r.shard.Descendants(id, 0, "template_substitution", "interpolation") {
		step.Interpolated = true
		step.Deps = append(step.Deps, r.each(sub)...)
	}
	return r.emit(step)
}

func (r *reduction) lookup(id graph.NodeID) int {
	step := newStep(graph.StepSymbolLookup, id)
	step.Symbol = r.text(id)
	if dep, ok := r.steps.Lookup(step.Symbol, len(r.steps)); ok {
		step.Deps = []int{dep}
	}
	return r.emit(step)
}

func (r *reduction) invocation(id, object, name, args graph.NodeID) int {
	step := newStep(graph.StepMethodInvocation, id)
	step.Symbol = r.text(name)
	if object != graph.NoNode {
		step.Object = r.text(object)
		step.Receiver = r.value(object)
		if step.Receiver >= 0 {
			step.Deps = append(step.Deps, step.Receiver)
		}
	}
	step.Args = r.arguments(args)
	step.Deps = append(step.Deps, step.Args...)
	return r.emit(step)
}

func (r *reduction) arguments(args graph.NodeID) []int {
	if args == graph.NoNode {
		return nil
	}
	return r.each(args)
}

func (r *reduction) assignment(id, left, right graph.NodeID, compound bool) int {
	value := r.value(right)
	if compound {
		prev := r.lookup(left)
		expr := newStep(graph.StepExpression, id)
		expr.Symbol = "compound_assignment"
		expr.Deps = []int{prev}
		if value >= 0 {
			expr.Deps = append(expr.Deps, value)
		}
		value = r.emit(expr)
	}

	step := newStep(graph.StepAssignment, id)
	step.Symbol = r.simpleName(left)
	step.Object = r.text(left)
	if value >= 0 {
		step.Deps = []int{value}
	}
	return r.emit(step)
}

// between returns the source text separating two sibling nodes, which is
// where anonymous tokens such as operators live.
func (r *reduction) between(a, b graph.NodeID) string {
	if a == graph.NoNode || b == graph.NoNode {
		return ""
	}
	start, end := r.shard.Node(a).EndByte, r.shard.Node(b).StartByte
	if start < 0 || end < start || end > len(r.shard.Source) {
		return ""
	}
	return strings.TrimSpace(string(r.shard.Source[start:end]))
}

// simpleName returns the member name of a qualified target like this.key.
func (r *reduction) simpleName(id graph.NodeID) string {
	if field := r.shard.ChildByField(id, "field", "property"); field != graph.NoNode {
		return r.text(field)
	}
	return r.text(id)
}

// unquote strips the delimiters of a string literal and resolves escapes
// when the literal is a valid Go-compatible quoted string.
func unquote(text string) string {
	if strings.HasPrefix(text, `"""`) && strings.HasSuffix(text, `"""`) && len(text) >= 6 {
		return strings.TrimSpace(text[3 : len(text)-3])
	}
	if len(text) < 2 {
		return text
	}
	first, last := text[0], text[len(text)-1]
	if first != last || (first != '"' && first != '\'' && first != '`') {
		return text
	}
	if first == '"' {
		if s, err := strconv.Unquote(text); err == nil {
			return s
		}
	}
	return text[1 : len(text)-1]
}
