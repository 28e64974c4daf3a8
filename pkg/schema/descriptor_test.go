package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptorMarshalShapes(t *testing.T) {
	status := Scalar(TypeString)
	status.Enum = []any{"open", "closed"}
	status.Required = true

	d := Object(Fields{
		{Name: "title", Descriptor: Scalar(TypeString)},
		{Name: "status", Descriptor: status},
		{Name: "tags", Descriptor: ArrayOf(Scalar(TypeString))},
		{Name: "owner", Descriptor: Object(Fields{{Name: "id", Descriptor: Scalar(TypeNumber)}})},
	})

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t,
		`{"title":{"type":"string"},"status":{"type":"string","enum":["open","closed"],"required":true},`+
			`"tags":[{"type":"string"}],"owner":{"id":{"type":"number"}}}`,
		string(out))
}

func TestFieldsPreserveOrder(t *testing.T) {
	fs := Fields{
		{Name: "zeta", Descriptor: Scalar(TypeBoolean)},
		{Name: "alpha", Descriptor: Scalar(TypeNumber)},
	}
	out, err := json.Marshal(fs)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":{"type":"boolean"},"alpha":{"type":"number"}}`, string(out))

	var back Fields
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, []string{"zeta", "alpha"}, back.Names())
}

func TestDescriptorUnmarshalRoundTrip(t *testing.T) {
	// A child literally named "type" is an object descriptor, not a scalar.
	in := `{"type":{"type":"string"},"items":[{"id":{"type":"number","required":true}}],"empty":{}}`

	var d Descriptor
	require.NoError(t, json.Unmarshal([]byte(in), &d))
	require.Equal(t, KindObject, d.Kind)

	typ, ok := d.Fields.Get("type")
	require.True(t, ok)
	assert.Equal(t, Scalar(TypeString), typ)

	items, ok := d.Fields.Get("items")
	require.True(t, ok)
	require.Equal(t, KindArray, items.Kind)
	require.NotNil(t, items.Elem)
	id, ok := items.Elem.Fields.Get("id")
	require.True(t, ok)
	assert.True(t, id.Required)

	empty, ok := d.Fields.Get("empty")
	require.True(t, ok)
	assert.Equal(t, KindObject, empty.Kind)
	assert.Empty(t, empty.Fields)

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestDescriptorUnmarshalRejectsBadShapes(t *testing.T) {
	var d Descriptor
	assert.Error(t, json.Unmarshal([]byte(`"string"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`[{"type":"string"},{"type":"number"}]`), &d))
}

func TestFieldMarshalsAsSingleKeyObject(t *testing.T) {
	f := Field{Name: "count", Descriptor: Scalar(TypeNumber)}
	out, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Equal(t, `{"count":{"type":"number"}}`, string(out))

	var back Field
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, f, back)

	assert.Error(t, json.Unmarshal([]byte(`{"a":{"type":"string"},"b":{"type":"string"}}`), &back))
}

func TestUserAPIRecordResource(t *testing.T) {
	rec := UserAPIRecord{
		UserID: "u1",
		API: map[string]CompiledAPI{
			"a1": {Name: "a1", Resources: map[string]ResourceSchema{"rs1": {Schema: Scalar(TypeString)}}},
		},
	}

	rs, ok := rec.Resource("a1", "rs1")
	assert.True(t, ok)
	assert.Equal(t, Scalar(TypeString), rs.Schema)

	_, ok = rec.Resource("a1", "missing")
	assert.False(t, ok)
	_, ok = rec.Resource("missing", "rs1")
	assert.False(t, ok)
}
