package graph

import "strings"

// flowHandler assigns the control-flow edges of one construct and schedules
// its nested statements on the builder stack.
type flowHandler func(b *flowBuilder, f frame)

// flowRules is the control-flow grammar of one language family.
type flowRules struct {
	// roots start a fresh flow graph: functions, methods, lambdas.
	roots map[string]bool
	// blocks are statement lists.
	blocks map[string]bool
	// simple statements have no inner flow and continue with next.
	simple     map[string]bool
	handlers   map[string]flowHandler
	caseGroups map[string]bool
	arrowCases map[string]bool
	catches    map[string]bool
	finally    map[string]bool
	loops      map[string]bool
}

func (r *flowRules) statement(label string) bool {
	return r.blocks[label] || r.simple[label] || r.handlers[label] != nil || strings.HasSuffix(label, "_statement")
}

type labelScope struct {
	name   string
	brk    NodeID
	cont   NodeID
	parent *labelScope
}

func (l *labelScope) find(name string) *labelScope {
	for cur := l; cur != nil; cur = cur.parent {
		if cur.name == name {
			return cur
		}
	}
	return nil
}

// frame is the inherited context of a statement: where control goes after
// it, and where break and continue jump to.
type frame struct {
	node   NodeID
	next   NodeID
	brk    NodeID
	cont   NodeID
	labels *labelScope
}

func (f frame) with(node, next NodeID) frame {
	f.node = node
	f.next = next
	return f
}

type flowBuilder struct {
	shard   *Shard
	rules   *flowRules
	stack   []frame
	unknown map[string]int
}

// buildFlow assigns control-flow edges to every root of the shard and
// returns the statement labels it had no rule for.
func buildFlow(s *Shard, rules *flowRules) map[string]int {
	b := &flowBuilder{shard: s, rules: rules, unknown: map[string]int{}}
	for i := range s.Nodes {
		id := NodeID(i)
		label := s.Nodes[i].Label
		if !rules.roots[label] {
			continue
		}
		if rules.blocks[label] {
			b.run(frame{node: id, next: NoNode, brk: NoNode, cont: NoNode})
			continue
		}
		b.enterRoot(id)
	}
	return b.unknown
}

func (b *flowBuilder) enterRoot(id NodeID) {
	body := b.body(id)
	if body == NoNode {
		return
	}
	b.link(id, body, Always)
	if b.rules.blocks[b.label(body)] {
		b.run(frame{node: body, next: NoNode, brk: NoNode, cont: NoNode})
	}
}

func (b *flowBuilder) run(start frame) {
	b.stack = append(b.stack[:0], start)
	for len(b.stack) > 0 {
		f := b.stack[len(b.stack)-1]
		b.stack = b.stack[:len(b.stack)-1]
		b.visit(f)
	}
}

func (b *flowBuilder) push(f frame) {
	b.stack = append(b.stack, f)
}

func (b *flowBuilder) visit(f frame) {
	label := b.label(f.node)
	if b.rules.blocks[label] {
		b.sequence(f, f.node, b.statements(f.node))
		return
	}
	if h := b.rules.handlers[label]; h != nil {
		h(b, f)
		return
	}
	if !b.rules.simple[label] && !b.rules.roots[label] {
		b.unknown[label]++
	}
	b.link(f.node, f.next, Always)
}

// sequence links from into the first statement and chains the rest, the
// last statement inheriting f.next.
func (b *flowBuilder) sequence(f frame, from NodeID, stmts []NodeID) {
	if len(stmts) == 0 {
		b.link(from, f.next, Always)
		return
	}
	b.link(from, stmts[0], Always)
	for i, st := range stmts {
		next := f.next
		if i+1 < len(stmts) {
			next = stmts[i+1]
		}
		b.push(f.with(st, next))
	}
}

func (b *flowBuilder) link(from, to NodeID, kind EdgeKind) {
	if from == NoNode || to == NoNode {
		return
	}
	b.shard.addEdge(from, to, kind)
}

func (b *flowBuilder) label(id NodeID) string {
	if !b.shard.Valid(id) {
		return ""
	}
	return b.shard.Nodes[id].Label
}

func (b *flowBuilder) field(id NodeID, names ...string) NodeID {
	return b.shard.ChildByField(id, names...)
}

func (b *flowBuilder) statements(id NodeID) []NodeID {
	var out []NodeID
	for _, child := range b.shard.Nodes[id].Children {
		label := b.shard.Nodes[child].Label
		if b.rules.statement(label) || b.rules.roots[label] {
			out = append(out, child)
		}
	}
	return out
}

// body finds the statement list attached to a construct.
func (b *flowBuilder) body(id NodeID) NodeID {
	if body := b.field(id, "body"); body != NoNode {
		return body
	}
	for _, child := range b.shard.Nodes[id].Children {
		if b.rules.blocks[b.label(child)] {
			return child
		}
	}
	return NoNode
}

func (b *flowBuilder) continueTarget(id NodeID) NodeID {
	if !b.rules.loops[b.label(id)] {
		return NoNode
	}
	if upd := b.field(id, "update", "increment"); upd != NoNode {
		return upd
	}
	if cond := b.field(id, "condition"); cond != NoNode {
		return cond
	}
	return id
}

func (b *flowBuilder) jumpLabel(id NodeID) string {
	if l := b.field(id, "label"); l != NoNode {
		return b.shard.Text(l)
	}
	if l := b.shard.FirstChild(id, "identifier", "statement_identifier"); l != NoNode {
		return b.shard.Text(l)
	}
	return ""
}

func flowIf(b *flowBuilder, f frame) {
	cond := b.field(f.node, "condition")
	cons := b.field(f.node, "consequence")
	alt := b.field(f.node, "alternative")

	src := f.node
	if cond != NoNode {
		b.link(f.node, cond, Always)
		src = cond
	}
	if cons != NoNode {
		b.link(src, cons, True)
		b.push(f.with(cons, f.next))
	} else {
		b.link(src, f.next, True)
	}
	if alt != NoNode {
		b.link(src, alt, False)
		b.push(f.with(alt, f.next))
	} else {
		b.link(src, f.next, False)
	}
}

func flowElse(b *flowBuilder, f frame) {
	var inner NodeID = NoNode
	if children := b.shard.Nodes[f.node].Children; len(children) > 0 {
		inner = children[0]
	}
	if inner == NoNode {
		b.link(f.node, f.next, Always)
		return
	}
	b.link(f.node, inner, Always)
	b.push(f.with(inner, f.next))
}

// loopBody enters body from head on TRUE; break leaves to f.next and the
// end of the body flows back to back.
func (b *flowBuilder) loopBody(f frame, head, body, back NodeID) {
	if body == NoNode {
		return
	}
	b.link(head, body, True)
	inner := f.with(body, back)
	inner.brk = f.next
	inner.cont = back
	b.push(inner)
}

func flowWhile(b *flowBuilder, f frame) {
	head := f.node
	if cond := b.field(f.node, "condition"); cond != NoNode {
		b.link(f.node, cond, Always)
		head = cond
	}
	b.loopBody(f, head, b.field(f.node, "body"), head)
	b.link(head, f.next, False)
}

func flowFor(b *flowBuilder, f frame) {
	entry := f.node
	if init := b.field(f.node, "init", "initializer"); init != NoNode {
		b.link(entry, init, Always)
		entry = init
	}
	head := entry
	if cond := b.field(f.node, "condition"); cond != NoNode {
		b.link(entry, cond, Always)
		head = cond
	}
	back := head
	if upd := b.field(f.node, "update", "increment"); upd != NoNode {
		b.link(upd, head, Always)
		back = upd
	}
	b.loopBody(f, head, b.field(f.node, "body"), back)
	b.link(head, f.next, False)
}

func flowForEach(b *flowBuilder, f frame) {
	b.loopBody(f, f.node, b.field(f.node, "body"), f.node)
	b.link(f.node, f.next, False)
}

func flowDo(b *flowBuilder, f frame) {
	body := b.field(f.node, "body")
	cond := b.field(f.node, "condition")
	back := cond
	if back == NoNode {
		back = f.node
	}
	if body != NoNode {
		b.link(f.node, body, Always)
		inner := f.with(body, back)
		inner.brk = f.next
		inner.cont = back
		b.push(inner)
	}
	if cond != NoNode {
		b.link(cond, body, True)
		b.link(cond, f.next, False)
	}
}

func flowSwitch(b *flowBuilder, f frame) {
	body := b.field(f.node, "body")
	if body == NoNode {
		b.link(f.node, f.next, Always)
		return
	}

	var groups []NodeID
	for _, child := range b.shard.Nodes[body].Children {
		if b.rules.caseGroups[b.label(child)] {
			groups = append(groups, child)
		}
	}

	hasDefault := false
	for i, g := range groups {
		b.link(f.node, g, Maybe)
		if b.label(g) == "switch_default" || strings.HasPrefix(strings.TrimSpace(b.shard.Text(g)), "default") {
			hasDefault = true
		}

		fall := f.next
		if i+1 < len(groups) && !b.rules.arrowCases[b.label(g)] {
			fall = groups[i+1]
		}
		inner := f.with(g, fall)
		inner.brk = f.next
		b.sequence(inner, g, b.statements(g))
	}
	if !hasDefault {
		b.link(f.node, f.next, Maybe)
	}
}

func flowTry(b *flowBuilder, f frame) {
	body := b.field(f.node, "body")
	var catches []NodeID
	fin := NoNode
	for _, child := range b.shard.Nodes[f.node].Children {
		switch label := b.label(child); {
		case b.rules.catches[label]:
			catches = append(catches, child)
		case b.rules.finally[label]:
			fin = child
		}
	}

	after := f.next
	if fin != NoNode {
		after = fin
	}

	entry := f.node
	if res := b.field(f.node, "resources"); res != NoNode {
		b.link(entry, res, Always)
		entry = res
		for _, r := range b.shard.Nodes[res].Children {
			b.link(entry, r, Always)
			entry = r
		}
	}

	src := entry
	if body != NoNode {
		b.link(entry, body, Always)
		b.push(f.with(body, after))
		src = body
	} else {
		b.link(entry, after, Always)
	}

	for _, c := range catches {
		b.link(src, c, Maybe)
		if cb := b.body(c); cb != NoNode {
			b.link(c, cb, Always)
			b.push(f.with(cb, after))
		} else {
			b.link(c, after, Always)
		}
	}

	if fin != NoNode {
		if fb := b.body(fin); fb != NoNode {
			b.link(fin, fb, Always)
			b.push(f.with(fb, f.next))
		} else {
			b.link(fin, f.next, Always)
		}
	}
}

func flowLabeled(b *flowBuilder, f frame) {
	inner := b.field(f.node, "body")
	if inner == NoNode {
		if children := b.shard.Nodes[f.node].Children; len(children) > 0 {
			inner = children[len(children)-1]
		}
	}
	if inner == NoNode || !b.rules.statement(b.label(inner)) {
		b.link(f.node, f.next, Always)
		return
	}

	b.link(f.node, inner, Always)
	g := f.with(inner, f.next)
	g.labels = &labelScope{
		name:   b.jumpLabel(f.node),
		brk:    f.next,
		cont:   b.continueTarget(inner),
		parent: f.labels,
	}
	b.push(g)
}

func flowBreak(b *flowBuilder, f frame) {
	target := f.brk
	if name := b.jumpLabel(f.node); name != "" {
		if scope := f.labels.find(name); scope != nil {
			target = scope.brk
		}
	}
	b.link(f.node, target, Always)
}

func flowContinue(b *flowBuilder, f frame) {
	target := f.cont
	if name := b.jumpLabel(f.node); name != "" {
		if scope := f.labels.find(name); scope != nil && scope.cont != NoNode {
			target = scope.cont
		}
	}
	b.link(f.node, target, Always)
}

// flowExit ends the path: return, throw, goto.
func flowExit(*flowBuilder, frame) {}

// flowWrapped enters the single body of constructs like synchronized or using.
func flowWrapped(b *flowBuilder, f frame) {
	body := b.body(f.node)
	if body == NoNode {
		b.link(f.node, f.next, Always)
		return
	}
	b.link(f.node, body, Always)
	b.push(f.with(body, f.next))
}
