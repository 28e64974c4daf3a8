package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Kind discriminates the three descriptor shapes.
type Kind int

const (
	KindScalar Kind = iota
	KindObject
	KindArray
)

// Descriptor is a compiled document-schema node.
//
// A scalar carries a resolved primitive Type and optional Enum / Required constraints.
// An object carries its named children in submission order.
// An array carries a single element template in Elem.
type Descriptor struct {
	Kind     Kind
	Type     FieldType
	Enum     []any
	Required bool
	Fields   Fields
	Elem     *Descriptor
}

// Scalar returns a scalar descriptor of the given resolved type.
func Scalar(t FieldType) Descriptor {
	return Descriptor{Kind: KindScalar, Type: t}
}

// Object returns an object descriptor over fields.
func Object(fields Fields) Descriptor {
	return Descriptor{Kind: KindObject, Fields: fields}
}

// ArrayOf returns an array descriptor whose template is elem.
func ArrayOf(elem Descriptor) Descriptor {
	return Descriptor{Kind: KindArray, Elem: &elem}
}

type scalarJSON struct {
	Type     FieldType `json:"type"`
	Enum     []any     `json:"enum,omitempty"`
	Required bool      `json:"required,omitempty"`
}

// MarshalJSON renders the document-schema shape: {"type":...}, {"child":...} or [template].
func (d Descriptor) MarshalJSON() ([]byte, error) {
	switch d.Kind {
	case KindArray:
		if d.Elem == nil {
			return []byte("[]"), nil
		}
		elem, err := json.Marshal(*d.Elem)
		if err != nil {
			return nil, err
		}
		out := make([]byte, 0, len(elem)+2)
		out = append(out, '[')
		out = append(out, elem...)
		return append(out, ']'), nil
	case KindObject:
		return d.Fields.MarshalJSON()
	default:
		return json.Marshal(scalarJSON{Type: d.Type, Enum: d.Enum, Required: d.Required})
	}
}

// UnmarshalJSON reads the shape written by MarshalJSON. An object whose "type" member is a
// JSON string is a scalar; any other object is an object descriptor.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New("schema: empty descriptor")
	}

	switch data[0] {
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(data, &elems); err != nil {
			return err
		}
		switch len(elems) {
		case 0:
			*d = Descriptor{Kind: KindArray}
			return nil
		case 1:
			var elem Descriptor
			if err := elem.UnmarshalJSON(elems[0]); err != nil {
				return err
			}
			*d = ArrayOf(elem)
			return nil
		default:
			return fmt.Errorf("schema: array descriptor holds %d templates, want 1", len(elems))
		}
	case '{':
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(data, &probe); err != nil {
			return err
		}
		if rawType, ok := probe["type"]; ok && isJSONString(rawType) {
			var s scalarJSON
			if err := json.Unmarshal(data, &s); err != nil {
				return err
			}
			*d = Descriptor{Kind: KindScalar, Type: s.Type, Enum: s.Enum, Required: s.Required}
			return nil
		}
		var fields Fields
		if err := fields.UnmarshalJSON(data); err != nil {
			return err
		}
		*d = Object(fields)
		return nil
	default:
		return fmt.Errorf("schema: descriptor must be a JSON object or array, got %q", data[0])
	}
}

func isJSONString(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '"'
}

// Field is a named descriptor. On its own it marshals as the single-key object {name: descriptor}.
type Field struct {
	Name       string
	Descriptor Descriptor
}

// MarshalJSON renders {name: descriptor}.
func (f Field) MarshalJSON() ([]byte, error) {
	return Fields{f}.MarshalJSON()
}

// UnmarshalJSON reads a single-key object.
func (f *Field) UnmarshalJSON(data []byte) error {
	var fields Fields
	if err := fields.UnmarshalJSON(data); err != nil {
		return err
	}
	if len(fields) != 1 {
		return fmt.Errorf("schema: compiled field must have exactly one key, got %d", len(fields))
	}
	*f = fields[0]
	return nil
}

// Fields is an ordered set of named descriptors.
type Fields []Field

// Get returns the descriptor of the named field.
func (fs Fields) Get(name string) (Descriptor, bool) {
	for _, f := range fs {
		if f.Name == name {
			return f.Descriptor, true
		}
	}
	return Descriptor{}, false
}

// Names returns the field names in order.
func (fs Fields) Names() []string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.Name
	}
	return names
}

// MarshalJSON renders a JSON object preserving field order.
func (fs Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Descriptor)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping its member order.
func (fs *Fields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("schema: fields must be a JSON object")
	}

	fields := Fields{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("schema: unexpected token %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		var d Descriptor
		if err := d.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("schema: field %q: %w", name, err)
		}
		fields = append(fields, Field{Name: name, Descriptor: d})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*fs = fields
	return nil
}
