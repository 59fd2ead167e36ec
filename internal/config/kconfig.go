package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kconfig is one user option assignment, already rendered the way prj.conf
// expects it.
type Kconfig struct {
	Key   string
	Value string
}

// KconfigList keeps the file order of the kconfigs mapping.
type KconfigList []Kconfig

// UnmarshalYAML decodes a mapping while preserving key order. Booleans
// become y/n, integers stay bare, and other scalars are quoted unless they
// already are or spell y, n or a hex literal.
func (l *KconfigList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: kconfigs must be a mapping", node.Line)
	}
	out := make(KconfigList, 0, len(node.Content)/2)
	seen := make(map[string]int, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: kconfig %s must be a scalar", v.Line, k.Value)
		}
		kv := Kconfig{Key: k.Value, Value: kconfigValue(v)}
		if idx, dup := seen[kv.Key]; dup {
			out[idx] = kv
			continue
		}
		seen[kv.Key] = len(out)
		out = append(out, kv)
	}
	*l = out
	return nil
}

// MarshalYAML renders the list back as an ordered mapping.
func (l KconfigList) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, kv := range l {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: kv.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Value: kv.Value},
		)
	}
	return node, nil
}

func kconfigValue(v *yaml.Node) string {
	switch v.Tag {
	case "!!bool":
		var b bool
		if err := v.Decode(&b); err == nil {
			if b {
				return "y"
			}
			return "n"
		}
	case "!!int":
		return v.Value
	}
	s := v.Value
	switch {
	case s == "y" || s == "n":
		return s
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		return s
	case len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"':
		return s
	}
	return strconv.Quote(s)
}
