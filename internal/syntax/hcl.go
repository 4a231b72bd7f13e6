package syntax

import (
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// parseHCL lowers a Terraform/HCL file. Block types and attribute names are
// kept in Value so detectors can match resources without re-reading source.
func parseHCL(path string, src []byte) (*Node, bool, error) {
	file, diags := hclsyntax.ParseConfig(src, path, hcl.InitialPos)
	if file == nil {
		return nil, false, diags
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, false, diags
	}

	l := &hclLowerer{lines: newLineIndex(src), src: src}
	root := newNode("config_file")
	l.place(root, body.SrcRange)
	root.Children = l.body(body)

	if diags.HasErrors() {
		return root, true, diags
	}
	return root, false, nil
}

type hclLowerer struct {
	lines *lineIndex
	src   []byte
}

func (l *hclLowerer) place(n *Node, rng hcl.Range) {
	n.Start = l.lines.offset(rng.Start.Byte)
	n.End = l.lines.offset(rng.End.Byte)
	n.StartByte = rng.Start.Byte
	n.EndByte = rng.End.Byte
}

func (l *hclLowerer) body(body *hclsyntax.Body) []*Node {
	nodes := make([]*Node, 0, len(body.Attributes)+len(body.Blocks))
	for _, attr := range body.Attributes {
		nodes = append(nodes, l.attribute(attr))
	}
	for _, block := range body.Blocks {
		nodes = append(nodes, l.block(block))
	}
	// Attributes come from a map, restore source order.
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].StartByte < nodes[j].StartByte
	})
	return nodes
}

func (l *hclLowerer) block(block *hclsyntax.Block) *Node {
	n := newNode("block")
	n.Value = block.Type
	l.place(n, hcl.RangeBetween(block.TypeRange, block.CloseBraceRange))
	for i, label := range block.Labels {
		ln := newNode("block_label")
		ln.Value = label
		if i < len(block.LabelRanges) {
			l.place(ln, block.LabelRanges[i])
		}
		n.Children = append(n.Children, ln)
	}
	if block.Body != nil {
		n.Children = append(n.Children, l.body(block.Body)...)
	}
	return n
}

func (l *hclLowerer) attribute(attr *hclsyntax.Attribute) *Node {
	n := newNode("attribute")
	n.Value = attr.Name
	l.place(n, attr.SrcRange)
	if value := l.expr(attr.Expr); value != nil {
		value.Field = "value"
		n.Children = append(n.Children, value)
	}
	return n
}

func (l *hclLowerer) expr(expr hclsyntax.Expression) *Node {
	if expr == nil {
		return nil
	}

	var n *Node
	switch e := expr.(type) {
	case *hclsyntax.LiteralValueExpr:
		n = literalNode(e.Val)
	case *hclsyntax.TemplateExpr:
		if e.IsStringLiteral() {
			n = newNode("string_lit")
			if val, diags := e.Value(nil); !diags.HasErrors() && val.Type() == cty.String && val.IsKnown() && !val.IsNull() {
				n.Value = val.AsString()
			}
			break
		}
		n = newNode("template")
		for _, part := range e.Parts {
			n.Children = appendNode(n.Children, l.expr(part))
		}
	case *hclsyntax.TemplateWrapExpr:
		n = newNode("template_wrap")
		n.Children = appendNode(n.Children, l.expr(e.Wrapped))
	case *hclsyntax.TupleConsExpr:
		n = newNode("tuple")
		for _, item := range e.Exprs {
			n.Children = appendNode(n.Children, l.expr(item))
		}
	case *hclsyntax.ObjectConsExpr:
		n = newNode("object")
		for _, item := range e.Items {
			n.Children = append(n.Children, l.objectItem(item))
		}
	case *hclsyntax.ObjectConsKeyExpr:
		if name := hcl.ExprAsKeyword(e.Wrapped); name != "" && !e.ForceNonLiteral {
			n = newNode("identifier")
			n.Value = name
			break
		}
		return l.expr(e.Wrapped)
	case *hclsyntax.ScopeTraversalExpr:
		n = newNode("traversal")
		n.Value = traversalText(e.Traversal)
	case *hclsyntax.FunctionCallExpr:
		n = newNode("function_call")
		n.Value = e.Name
		for _, arg := range e.Args {
			n.Children = appendNode(n.Children, l.expr(arg))
		}
	default:
		n = newNode("expression")
		rng := expr.Range()
		if rng.Start.Byte >= 0 && rng.End.Byte <= len(l.src) && rng.Start.Byte <= rng.End.Byte {
			n.Value = string(l.src[rng.Start.Byte:rng.End.Byte])
		}
	}
	l.place(n, expr.Range())
	return n
}

func (l *hclLowerer) objectItem(item hclsyntax.ObjectConsItem) *Node {
	n := newNode("object_item")
	l.place(n, hcl.RangeBetween(item.KeyExpr.Range(), item.ValueExpr.Range()))
	if key := l.expr(item.KeyExpr); key != nil {
		key.Field = "key"
		n.Value = key.Value
		n.Children = append(n.Children, key)
	}
	if value := l.expr(item.ValueExpr); value != nil {
		value.Field = "value"
		n.Children = append(n.Children, value)
	}
	return n
}

func literalNode(val cty.Value) *Node {
	switch {
	case val.IsNull():
		return newNode("null_lit")
	case !val.IsKnown():
		return newNode("expression")
	case val.Type() == cty.String:
		n := newNode("string_lit")
		n.Value = val.AsString()
		return n
	case val.Type() == cty.Bool:
		n := newNode("bool_lit")
		n.Value = "false"
		if val.True() {
			n.Value = "true"
		}
		return n
	case val.Type() == cty.Number:
		n := newNode("number_lit")
		n.Value = val.AsBigFloat().Text('f', -1)
		return n
	}
	return newNode("expression")
}

func traversalText(traversal hcl.Traversal) string {
	var b strings.Builder
	for _, step := range traversal {
		switch s := step.(type) {
		case hcl.TraverseRoot:
			b.WriteString(s.Name)
		case hcl.TraverseAttr:
			b.WriteByte('.')
			b.WriteString(s.Name)
		case hcl.TraverseIndex:
			b.WriteString("[*]")
		case hcl.TraverseSplat:
			b.WriteString(".*")
		}
	}
	return b.String()
}

func appendNode(nodes []*Node, n *Node) []*Node {
	if n == nil {
		return nodes
	}
	return append(nodes, n)
}
