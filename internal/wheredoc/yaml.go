package wheredoc

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/wherec/internal/queryir"
)

func decodeYAML(data []byte) (queryir.Node, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &Error{Format: FormatYAML, Message: err.Error()}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, &Error{Format: FormatYAML, Message: "empty document"}
	}
	return yamlValue(root.Content[0])
}

// DecodeYAMLNode converts an already parsed YAML node, such as a field of a
// larger document, into a where-tree. Mapping order is preserved.
func DecodeYAMLNode(n *yaml.Node) (queryir.Node, error) {
	if n == nil || n.Kind == 0 {
		return nil, &Error{Format: FormatYAML, Message: "empty document"}
	}
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return nil, &Error{Format: FormatYAML, Message: "empty document"}
		}
		n = n.Content[0]
	}
	return yamlValue(n)
}

func yamlValue(n *yaml.Node) (queryir.Node, error) {
	fail := func(format string, args ...any) error {
		return &Error{
			Format:  FormatYAML,
			Pos:     fmt.Sprintf("%d:%d", n.Line, n.Column),
			Message: fmt.Sprintf(format, args...),
		}
	}

	switch n.Kind {
	case yaml.AliasNode:
		return yamlValue(n.Alias)
	case yaml.ScalarNode:
		if tag := n.ShortTag(); (tag == "!!int" || tag == "!!float") && numberPattern.MatchString(n.Value) {
			v, err := number(n.Value)
			if err != nil {
				return nil, fail("%v", err)
			}
			return queryir.Scalar{V: v}, nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fail("%v", err)
		}
		return queryir.Scalar{V: v}, nil
	case yaml.SequenceNode:
		list := make(queryir.List, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := yamlValue(c)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	case yaml.MappingNode:
		fields := make([]field, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind != yaml.ScalarNode {
				return nil, fail("object keys must be strings")
			}
			v, err := yamlValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			fields = append(fields, field{key: k.Value, value: v})
		}
		node, err := object(fields)
		if err != nil {
			return nil, fail("%v", err)
		}
		return node, nil
	}
	return nil, fail("unsupported YAML node")
}
