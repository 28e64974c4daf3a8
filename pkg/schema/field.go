package schema

// FieldType is the type tag of a FieldNode.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeInteger FieldType = "integer"
	TypeObject  FieldType = "object"
)

// FieldNode is one node of a user-submitted field-description tree.
// Children is only meaningful for object nodes; a nil slice means the sequence was absent
// and is left out when encoding, while an empty one is kept.
type FieldNode struct {
	Name       string      `json:"name" yaml:"name"`
	Type       FieldType   `json:"type" yaml:"type"`
	IsArray    bool        `json:"isArray" yaml:"isArray"`
	Children   []FieldNode `json:"children,omitzero" yaml:"children,omitempty"`
	EnumValues []any       `json:"enumValues,omitempty" yaml:"enumValues,omitempty"`
	Required   bool        `json:"required,omitempty" yaml:"required,omitempty"`
}
