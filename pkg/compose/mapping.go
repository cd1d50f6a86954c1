// pkg/compose/mapping.go

package compose

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Mapping is an insertion-ordered string-keyed YAML mapping. Overwriting a key
// keeps its original position; new keys are appended.
type Mapping struct {
	keys   []string
	values map[string]*yaml.Node
}

func NewMapping() *Mapping {
	return &Mapping{values: map[string]*yaml.Node{}}
}

// mappingFromNode converts a YAML mapping node. A null node yields an empty mapping.
func mappingFromNode(n *yaml.Node) (*Mapping, error) {
	m := NewMapping()
	if isNull(n) {
		return m, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping, got %s", n.Line, kindName(n))
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		m.Set(n.Content[i].Value, n.Content[i+1])
	}
	return m, nil
}

func (m *Mapping) Set(key string, value *yaml.Node) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

func (m *Mapping) Get(key string) (*yaml.Node, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns keys in mapping order.
func (m *Mapping) Keys() []string {
	return append([]string(nil), m.keys...)
}

func (m *Mapping) Len() int {
	return len(m.keys)
}

// Clone deep-copies the mapping and its values.
func (m *Mapping) Clone() *Mapping {
	c := NewMapping()
	for _, k := range m.keys {
		c.Set(k, cloneNode(m.values[k]))
	}
	return c
}

// Node renders the mapping as a YAML mapping node.
func (m *Mapping) Node() *yaml.Node {
	n := emptyMapNode()
	for _, k := range m.keys {
		n.Content = append(n.Content, strNode(k), m.values[k])
	}
	return n
}

func kindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar " + n.ShortTag()
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown node"
	}
}
