package detectors

import (
	"iter"

	"github.com/scan-io-git/skims/internal/graph"
)

var openCIDRs = map[string]bool{"0.0.0.0/0": true, "::/0": true}

var cidrAttributes = map[string]bool{
	"cidr_blocks":      true,
	"ipv6_cidr_blocks": true,
	"cidr_ipv4":        true,
	"cidr_ipv6":        true,
}

// tfBlocks yields the top level blocks of kind (resource, data) whose first
// label is one of types.
func tfBlocks(s *graph.Shard, kind string, types ...string) iter.Seq[graph.NodeID] {
	return func(yield func(graph.NodeID) bool) {
		for _, block := range s.Children(s.Root(), "block") {
			if s.Node(block).Value != kind {
				continue
			}
			label := s.FirstChild(block, "block_label")
			if label == graph.NoNode {
				continue
			}
			for _, t := range types {
				if s.Node(label).Value == t {
					if !yield(block) {
						return
					}
					break
				}
			}
		}
	}
}

// tfName renders a block as type.name for hit details.
func tfName(s *graph.Shard, block graph.NodeID) string {
	labels := s.Children(block, "block_label")
	name := ""
	for i, l := range labels {
		if i > 0 {
			name += "."
		}
		name += s.Node(l).Value
	}
	return name
}

// tfAttr returns the value node of the named attribute of a block, or of
// the named item of an object.
func tfAttr(s *graph.Shard, id graph.NodeID, name string) graph.NodeID {
	for _, child := range s.Children(id, "attribute", "object_item") {
		if s.Node(child).Value == name {
			return s.ChildByField(child, "value")
		}
	}
	return graph.NoNode
}

// tfStrings yields the string literals of a value that is a string or a
// list of strings.
func tfStrings(s *graph.Shard, value graph.NodeID) []graph.NodeID {
	if value == graph.NoNode {
		return nil
	}
	switch s.Node(value).Label {
	case "string_lit":
		return []graph.NodeID{value}
	case "tuple":
		return s.Children(value, "string_lit")
	}
	return nil
}

// tfBool resolves a literal boolean. Known is false for references and
// other expressions.
func tfBool(s *graph.Shard, value graph.NodeID) (val, known bool) {
	if value == graph.NoNode {
		return false, false
	}
	n := s.Node(value)
	switch n.Label {
	case "bool_lit", "string_lit":
		switch n.Value {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

// terraformUnrestrictedCIDR flags open CIDR literals on security group
// ingress blocks and ingress rules.
func terraformUnrestrictedCIDR(c *Context) iter.Seq[Hit] {
	s := c.Shard
	return func(yield func(Hit) bool) {
		for block := range tfBlocks(s, "resource", "aws_security_group") {
			for _, ingress := range s.Children(block, "block", "attribute") {
				if s.Node(ingress).Value != "ingress" {
					continue
				}
				for hit := range openCIDRsUnder(s, ingress) {
					if !yield(hit) {
						return
					}
				}
			}
		}
		for block := range tfBlocks(s, "resource", "aws_security_group_rule") {
			if typ := tfAttr(s, block, "type"); typ == graph.NoNode || s.Node(typ).Value != "ingress" {
				continue
			}
			for hit := range openCIDRsUnder(s, block) {
				if !yield(hit) {
					return
				}
			}
		}
		for block := range tfBlocks(s, "resource", "aws_vpc_security_group_ingress_rule") {
			for hit := range openCIDRsUnder(s, block) {
				if !yield(hit) {
					return
				}
			}
		}
	}
}

// openCIDRsUnder looks at CIDR attributes and object items below id, which
// covers both the block and the attribute-as-block syntax.
func openCIDRsUnder(s *graph.Shard, id graph.NodeID) iter.Seq[Hit] {
	return func(yield func(Hit) bool) {
		for attr := range s.Descendants(id, 0, "attribute", "object_item") {
			if !cidrAttributes[s.Node(attr).Value] {
				continue
			}
			for _, lit := range tfStrings(s, s.ChildByField(attr, "value")) {
				cidr := s.Node(lit).Value
				if openCIDRs[cidr] && !yield(Hit{Node: lit, Detail: cidr}) {
					return
				}
			}
		}
	}
}

// terraformExcessivePermissions inspects aws_iam_policy_document statements
// and inline jsonencode policies.
func terraformExcessivePermissions(c *Context) iter.Seq[Hit] {
	s := c.Shard
	return func(yield func(Hit) bool) {
		for doc := range tfBlocks(s, "data", "aws_iam_policy_document") {
			for _, stmt := range s.Children(doc, "block") {
				if s.Node(stmt).Value != "statement" {
					continue
				}
				st := statement{effect: "Allow"}
				if effect := tfAttr(s, stmt, "effect"); effect != graph.NoNode {
					st.effect = s.Node(effect).Value
				}
				st.actions = tfStrings(s, tfAttr(s, stmt, "actions"))
				for _, r := range tfStrings(s, tfAttr(s, stmt, "resources")) {
					st.resources = append(st.resources, s.Node(r).Value)
				}
				for hit := range st.excessive(c, s) {
					if !yield(hit) {
						return
					}
				}
			}
		}
		for call := range s.ByLabel("function_call") {
			if s.Node(call).Value != "jsonencode" {
				continue
			}
			for obj := range s.Descendants(call, 0, "object") {
				action := tfAttr(s, obj, "Action")
				if action == graph.NoNode {
					continue
				}
				st := statement{effect: "Allow", actions: tfStrings(s, action)}
				if effect := tfAttr(s, obj, "Effect"); effect != graph.NoNode {
					st.effect = s.Node(effect).Value
				}
				for _, r := range tfStrings(s, tfAttr(s, obj, "Resource")) {
					st.resources = append(st.resources, s.Node(r).Value)
				}
				for hit := range st.excessive(c, s) {
					if !yield(hit) {
						return
					}
				}
			}
		}
	}
}

// terraformUnencryptedVolume flags EBS volumes without encryption and
// instance block devices that disable it.
func terraformUnencryptedVolume(c *Context) iter.Seq[Hit] {
	s := c.Shard
	return func(yield func(Hit) bool) {
		for block := range tfBlocks(s, "resource", "aws_ebs_volume") {
			value := tfAttr(s, block, "encrypted")
			enabled, known := tfBool(s, value)
			switch {
			case value == graph.NoNode:
				if !yield(Hit{Node: block, Detail: tfName(s, block)}) {
					return
				}
			case known && !enabled:
				if !yield(Hit{Node: value, Detail: tfName(s, block)}) {
					return
				}
			}
		}
		for block := range tfBlocks(s, "resource", "aws_instance", "aws_launch_template") {
			for device := range s.Descendants(block, 3, "block") {
				switch s.Node(device).Value {
				case "root_block_device", "ebs_block_device", "ebs":
				default:
					continue
				}
				value := tfAttr(s, device, "encrypted")
				if enabled, known := tfBool(s, value); known && !enabled {
					if !yield(Hit{Node: value, Detail: tfName(s, block) + "." + s.Node(device).Value}) {
						return
					}
				}
			}
		}
	}
}
