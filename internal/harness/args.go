package harness

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/callbind/internal/ir"
)

// ParseArgs parses a YAML argument list.
//
// The list is a sequence. An item that is a mapping with exactly the keys
// name and value is a named argument; a mapping with only a value key is a
// positional argument; any other item is itself a positional value:
//
//	[1, {name: timezone, value: "Europe/Paris"}]
//
// An empty document is an empty argument list.
func ParseArgs(data []byte) (ir.Args, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse args: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return ir.Args{}, nil
	}
	return ArgsFromNode(doc.Content[0])
}

// ArgsFromNode converts an already-decoded YAML sequence to an argument list.
// A nil or null node yields an empty list.
func ArgsFromNode(node *yaml.Node) (ir.Args, error) {
	if isAbsent(node) {
		return ir.Args{}, nil
	}
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: args must be a sequence", node.Line)
	}

	args := make(ir.Args, 0, len(node.Content))
	for i, item := range node.Content {
		arg, err := argFromNode(item)
		if err != nil {
			return nil, fmt.Errorf("args[%d]: %w", i, err)
		}
		args = append(args, arg)
	}
	return args, nil
}

// ValuesFromNode converts a YAML sequence to IR values, in order.
func ValuesFromNode(node *yaml.Node) ([]ir.IRValue, error) {
	if isAbsent(node) {
		return []ir.IRValue{}, nil
	}
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: expected a sequence of values", node.Line)
	}

	values := make([]ir.IRValue, len(node.Content))
	for i, item := range node.Content {
		v, err := valueFromNode(item)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		values[i] = v
	}
	return values, nil
}

func argFromNode(node *yaml.Node) (ir.Arg, error) {
	if node.Kind == yaml.MappingNode {
		name, value, ok := argFields(node)
		if ok {
			v, err := valueFromNode(value)
			if err != nil {
				return ir.Arg{}, err
			}
			if name == nil {
				return ir.Positional(v), nil
			}
			if name.Kind != yaml.ScalarNode || name.Value == "" {
				return ir.Arg{}, fmt.Errorf("line %d: argument name must be a non-empty string", name.Line)
			}
			return ir.Named(name.Value, v), nil
		}
	}

	v, err := valueFromNode(node)
	if err != nil {
		return ir.Arg{}, err
	}
	return ir.Positional(v), nil
}

// argFields reports whether a mapping is an argument wrapper: a value key,
// optionally with a name key, and nothing else.
func argFields(node *yaml.Node) (name, value *yaml.Node, ok bool) {
	for i := 0; i+1 < len(node.Content); i += 2 {
		switch node.Content[i].Value {
		case "name":
			name = node.Content[i+1]
		case "value":
			value = node.Content[i+1]
		default:
			return nil, nil, false
		}
	}
	return name, value, value != nil
}

func valueFromNode(node *yaml.Node) (ir.IRValue, error) {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return nil, fmt.Errorf("line %d: %w", node.Line, err)
	}
	v, err := ir.FromGo(normalizeYAML(raw))
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", node.Line, err)
	}
	return v, nil
}

// normalizeYAML rewrites mappings with non-string keys so they convert to
// IR objects. yaml.v3 only produces map[string]any when every key is a string.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[fmt.Sprint(k)] = normalizeYAML(elem)
		}
		return out
	case map[string]any:
		for k, elem := range val {
			val[k] = normalizeYAML(elem)
		}
		return val
	case []any:
		for i, elem := range val {
			val[i] = normalizeYAML(elem)
		}
		return val
	default:
		return v
	}
}

func isAbsent(node *yaml.Node) bool {
	return node == nil || node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.Tag == "!!null")
}
