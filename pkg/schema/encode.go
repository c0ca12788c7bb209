package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Encoding is a serialization format for document trees.
type Encoding string

const (
	EncodingJSON Encoding = "json"
	EncodingYAML Encoding = "yaml"
)

// ParseEncoding validates an encoding name.
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(s) {
	case EncodingJSON, EncodingYAML:
		return Encoding(s), nil
	case "yml":
		return EncodingYAML, nil
	default:
		return "", fmt.Errorf("unknown encoding %q (expected json or yaml)", s)
	}
}

// Extension returns the file extension for the encoding.
func (e Encoding) Extension() string {
	if e == EncodingYAML {
		return ".yaml"
	}
	return ".json"
}

// Encode writes m to w in the given encoding. JSON output is indented.
func Encode(w io.Writer, m *Map, enc Encoding) error {
	switch enc {
	case EncodingYAML:
		e := yaml.NewEncoder(w)
		e.SetIndent(2)
		if err := e.Encode(m); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return e.Close()
	default:
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		data = append(data, '\n')
		_, err = w.Write(data)
		return err
	}
}

// MarshalJSON encodes the map as a JSON object in insertion order.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", k, err)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON encodes the list as a JSON array.
func (l *List) MarshalJSON() ([]byte, error) {
	if l.Items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.Items)
}

// MarshalJSON encodes the reference as its resolved name.
func (r *SymbolicRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// MarshalYAML encodes the map as a mapping in insertion order.
func (m *Map) MarshalYAML() (any, error) {
	return yamlNode(m), nil
}

func yamlNode(n Node) *yaml.Node {
	switch v := n.(type) {
	case *Map:
		out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		v.Range(func(k string, child Node) bool {
			out.Content = append(out.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				yamlNode(child))
			return true
		})
		return out
	case *List:
		out := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, it := range v.Items {
			out.Content = append(out.Content, yamlNode(it))
		}
		return out
	case Bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(bool(v))}
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: Text(v)}
	}
}

// DecodeJSON reads a document tree from a JSON object. Object keys are
// sorted, since JSON objects carry no order.
func DecodeJSON(data []byte) (*Map, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to decode json: %w", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("json document is not an object")
	}
	return FromValue(obj).(*Map), nil
}

// FromValue converts decoded JSON or YAML values into nodes. Numbers become
// strings; nulls are dropped.
func FromValue(v any) Node {
	switch val := v.(type) {
	case map[string]any:
		m := NewMap()
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if child := FromValue(val[k]); child != nil {
				m.Set(k, child)
			}
		}
		return m
	case []any:
		l := NewList()
		for _, it := range val {
			if child := FromValue(it); child != nil {
				l.Append(child)
			}
		}
		return l
	case string:
		return String(val)
	case bool:
		return Bool(val)
	case float64:
		return String(strconv.FormatFloat(val, 'f', -1, 64))
	case int:
		return String(strconv.Itoa(val))
	case json.Number:
		return String(val.String())
	default:
		return nil
	}
}
