// pkg/compose/nodes.go

package compose

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func nullNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

func seqNode(items []string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: []*yaml.Node{}}
	for _, item := range items {
		n.Content = append(n.Content, strNode(item))
	}
	return n
}

func emptyMapNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: []*yaml.Node{}}
}

// cloneNode deep-copies n. Trees reaching it have had aliases expanded.
func cloneNode(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Content != nil {
		c.Content = make([]*yaml.Node, len(n.Content))
		for i, child := range n.Content {
			c.Content[i] = cloneNode(child)
		}
	}
	return &c
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null")
}

// expandAliases returns a copy of n without anchors or aliases: every alias is
// replaced by a copy of its target, and "<<" merge keys are folded into their
// mapping with explicit keys taking precedence.
func expandAliases(n *yaml.Node) (*yaml.Node, error) {
	return expand(n, map[*yaml.Node]bool{})
}

func expand(n *yaml.Node, active map[*yaml.Node]bool) (*yaml.Node, error) {
	if n == nil {
		return nil, nil
	}
	if n.Kind == yaml.AliasNode {
		if n.Alias == nil {
			return nil, fmt.Errorf("line %d: alias *%s has no anchor", n.Line, n.Value)
		}
		if active[n.Alias] {
			return nil, fmt.Errorf("line %d: alias *%s refers to itself", n.Line, n.Value)
		}
		active[n.Alias] = true
		defer delete(active, n.Alias)
		return expand(n.Alias, active)
	}

	c := *n
	c.Anchor = ""
	c.Alias = nil
	if n.Kind == yaml.MappingNode {
		content, err := expandMapping(n, active)
		if err != nil {
			return nil, err
		}
		c.Content = content
		return &c, nil
	}
	if n.Content != nil {
		c.Content = make([]*yaml.Node, len(n.Content))
		for i, child := range n.Content {
			ec, err := expand(child, active)
			if err != nil {
				return nil, err
			}
			c.Content[i] = ec
		}
	}
	return &c, nil
}

func isMergeKey(k *yaml.Node) bool {
	return k.Kind == yaml.ScalarNode && k.Value == "<<" && k.ShortTag() == "!!merge"
}

// expandMapping emits n's pairs in order. A merge key is replaced by the
// pairs of its source mapping(s) that n does not set explicitly; with a list
// of sources the earlier one wins.
func expandMapping(n *yaml.Node, active map[*yaml.Node]bool) ([]*yaml.Node, error) {
	explicit := map[string]bool{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if k := n.Content[i]; !isMergeKey(k) {
			explicit[k.Value] = true
		}
	}

	out := []*yaml.Node{}
	emitted := map[string]bool{}
	emit := func(k, v *yaml.Node) error {
		if emitted[k.Value] {
			return nil
		}
		emitted[k.Value] = true
		ek, err := expand(k, active)
		if err != nil {
			return err
		}
		ev, err := expand(v, active)
		if err != nil {
			return err
		}
		out = append(out, ek, ev)
		return nil
	}

	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if !isMergeKey(k) {
			if err := emit(k, v); err != nil {
				return nil, err
			}
			continue
		}

		src, err := expand(v, active)
		if err != nil {
			return nil, err
		}
		sources := []*yaml.Node{src}
		if src.Kind == yaml.SequenceNode {
			sources = src.Content
		}
		for _, m := range sources {
			if m.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("line %d: merge value must be a mapping or a list of mappings, got %s", k.Line, kindName(m))
			}
			for j := 0; j+1 < len(m.Content); j += 2 {
				if explicit[m.Content[j].Value] {
					continue
				}
				if err := emit(m.Content[j], m.Content[j+1]); err != nil {
					return nil, err
				}
			}
		}
	}
	return out, nil
}
