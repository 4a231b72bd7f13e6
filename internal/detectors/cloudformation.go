package detectors

import (
	"iter"

	"github.com/scan-io-git/skims/internal/graph"
)

type cfnResource struct {
	name  string
	node  graph.NodeID
	props graph.NodeID
}

// cfnMapping returns the first mapping of a CloudFormation document.
func cfnMapping(s *graph.Shard) graph.NodeID {
	root := s.Root()
	if root == graph.NoNode {
		return graph.NoNode
	}
	if s.Node(root).Label == "mapping" {
		return root
	}
	return s.FirstChild(root, "mapping")
}

// cfnValue returns the value node stored under key in a mapping.
func cfnValue(s *graph.Shard, mapping graph.NodeID, key string) graph.NodeID {
	if mapping == graph.NoNode || s.Node(mapping).Label != "mapping" {
		return graph.NoNode
	}
	for _, pair := range s.Children(mapping, "pair") {
		if s.Node(pair).Value == key {
			return s.ChildByField(pair, "value")
		}
	}
	return graph.NoNode
}

// cfnScalars returns the scalars of a value that is a scalar or a sequence
// of scalars.
func cfnScalars(s *graph.Shard, value graph.NodeID) []graph.NodeID {
	if value == graph.NoNode {
		return nil
	}
	switch s.Node(value).Label {
	case "scalar":
		return []graph.NodeID{value}
	case "sequence":
		return s.Children(value, "scalar")
	}
	return nil
}

// cfnItems returns the elements of a sequence, or the value itself when a
// single mapping is given where a list is allowed.
func cfnItems(s *graph.Shard, value graph.NodeID) []graph.NodeID {
	if value == graph.NoNode {
		return nil
	}
	if s.Node(value).Label == "sequence" {
		return s.Node(value).Children
	}
	return []graph.NodeID{value}
}

// cfnResources yields the resources of the given types.
func cfnResources(s *graph.Shard, types ...string) iter.Seq[cfnResource] {
	return func(yield func(cfnResource) bool) {
		resources := cfnValue(s, cfnMapping(s), "Resources")
		if resources == graph.NoNode || s.Node(resources).Label != "mapping" {
			return
		}
		for _, pair := range s.Children(resources, "pair") {
			body := s.ChildByField(pair, "value")
			typ := cfnValue(s, body, "Type")
			if typ == graph.NoNode {
				continue
			}
			for _, t := range types {
				if s.Node(typ).Value != t {
					continue
				}
				res := cfnResource{name: s.Node(pair).Value, node: pair, props: cfnValue(s, body, "Properties")}
				if !yield(res) {
					return
				}
				break
			}
		}
	}
}

func cfnUnrestrictedCIDR(c *Context) iter.Seq[Hit] {
	s := c.Shard
	check := func(rule graph.NodeID, yield func(Hit) bool) bool {
		for _, key := range []string{"CidrIp", "CidrIpv6"} {
			value := cfnValue(s, rule, key)
			if value == graph.NoNode || s.Node(value).Label != "scalar" {
				continue
			}
			cidr := s.Node(value).Value
			if openCIDRs[cidr] && !yield(Hit{Node: value, Detail: cidr}) {
				return false
			}
		}
		return true
	}
	return func(yield func(Hit) bool) {
		for res := range cfnResources(s, "AWS::EC2::SecurityGroup") {
			for _, rule := range cfnItems(s, cfnValue(s, res.props, "SecurityGroupIngress")) {
				if !check(rule, yield) {
					return
				}
			}
		}
		for res := range cfnResources(s, "AWS::EC2::SecurityGroupIngress") {
			if !check(res.props, yield) {
				return
			}
		}
	}
}

func cfnExcessivePermissions(c *Context) iter.Seq[Hit] {
	s := c.Shard
	return func(yield func(Hit) bool) {
		var docs []graph.NodeID
		for res := range cfnResources(s, "AWS::IAM::Policy", "AWS::IAM::ManagedPolicy") {
			docs = append(docs, cfnValue(s, res.props, "PolicyDocument"))
		}
		for res := range cfnResources(s, "AWS::IAM::Role", "AWS::IAM::User", "AWS::IAM::Group") {
			for _, policy := range cfnItems(s, cfnValue(s, res.props, "Policies")) {
				docs = append(docs, cfnValue(s, policy, "PolicyDocument"))
			}
		}
		for _, doc := range docs {
			for _, stmt := range cfnItems(s, cfnValue(s, doc, "Statement")) {
				st := statement{actions: cfnScalars(s, cfnValue(s, stmt, "Action"))}
				if effect := cfnValue(s, stmt, "Effect"); effect != graph.NoNode {
					st.effect = s.Node(effect).Value
				}
				for _, r := range cfnScalars(s, cfnValue(s, stmt, "Resource")) {
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

func cfnUnencryptedVolume(c *Context) iter.Seq[Hit] {
	s := c.Shard
	return func(yield func(Hit) bool) {
		for res := range cfnResources(s, "AWS::EC2::Volume") {
			value := cfnValue(s, res.props, "Encrypted")
			switch {
			case value == graph.NoNode:
				if !yield(Hit{Node: res.node, Detail: res.name}) {
					return
				}
			case s.Node(value).Label == "scalar" && s.Node(value).Tag == "" && s.Node(value).Value != "true":
				if !yield(Hit{Node: value, Detail: res.name}) {
					return
				}
			}
		}
	}
}
