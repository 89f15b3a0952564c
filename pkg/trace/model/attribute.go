package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

type ValueKind string

const (
	ValueKindString ValueKind = "string"
	ValueKindInt    ValueKind = "int"
	ValueKindFloat  ValueKind = "float"
	ValueKindBool   ValueKind = "bool"
)

// AttributeValue is a tagged union over the four attribute types carried
// on spans and span events. Only the field matching Kind is meaningful.
type AttributeValue struct {
	Kind  ValueKind
	Str   string
	Int   int64
	Float float64
	Bool  bool
}

func StringValue(s string) AttributeValue {
	return AttributeValue{Kind: ValueKindString, Str: s}
}

func IntValue(i int64) AttributeValue {
	return AttributeValue{Kind: ValueKindInt, Int: i}
}

func FloatValue(f float64) AttributeValue {
	return AttributeValue{Kind: ValueKindFloat, Float: f}
}

func BoolValue(b bool) AttributeValue {
	return AttributeValue{Kind: ValueKindBool, Bool: b}
}

type attributeValueJSON struct {
	Type  ValueKind       `json:"type"`
	Value json.RawMessage `json:"value"`
}

func (av AttributeValue) MarshalJSON() ([]byte, error) {
	var value interface{}
	switch av.Kind {
	case ValueKindString:
		value = av.Str
	case ValueKindInt:
		value = av.Int
	case ValueKindFloat:
		value = av.Float
	case ValueKindBool:
		value = av.Bool
	default:
		return nil, fmt.Errorf("unknown attribute value kind %q", av.Kind)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(attributeValueJSON{Type: av.Kind, Value: raw})
}

func (av *AttributeValue) UnmarshalJSON(data []byte) error {
	var wire attributeValueJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	switch wire.Type {
	case ValueKindString:
		av.Kind = ValueKindString
		return json.Unmarshal(wire.Value, &av.Str)
	case ValueKindInt:
		av.Kind = ValueKindInt
		return json.Unmarshal(wire.Value, &av.Int)
	case ValueKindFloat:
		av.Kind = ValueKindFloat
		return json.Unmarshal(wire.Value, &av.Float)
	case ValueKindBool:
		av.Kind = ValueKindBool
		return json.Unmarshal(wire.Value, &av.Bool)
	default:
		return fmt.Errorf("unknown attribute value kind %q", wire.Type)
	}
}

// Attributes maps attribute keys to typed values. Keys are unique and
// serialized in lexicographic order so that encodings are deterministic.
type Attributes map[string]AttributeValue

func (a Attributes) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(a))
	for key := range a {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	buf := []byte{'{'}
	for i, key := range keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		encodedValue, err := json.Marshal(a[key])
		if err != nil {
			return nil, err
		}
		buf = append(buf, encodedKey...)
		buf = append(buf, ':')
		buf = append(buf, encodedValue...)
	}
	return append(buf, '}'), nil
}

func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	clone := make(Attributes, len(a))
	for key, value := range a {
		clone[key] = value
	}
	return clone
}
