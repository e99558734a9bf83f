package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryDefinitionSchema(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("lookup", "Look something up",
		[]Param{
			{Name: "query", Type: TypeString, Description: "what to find"},
			{Name: "limit", Type: TypeInteger, Description: "max results", Default: 5},
			{Name: "tags", Type: TypeArray, Items: TypeString},
			{Name: "weights", Type: TypeArray, Items: TypeObject},
		},
		func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return "ok", nil
		})

	defs := r.Definitions()
	require.Len(t, defs, 1)

	def := defs[0]
	assert.Equal(t, "function", def.Type)
	assert.Equal(t, "lookup", def.Function.Name)

	params := def.Function.Parameters
	assert.Equal(t, "object", params["type"])

	properties := params["properties"].(map[string]interface{})
	query := properties["query"].(map[string]interface{})
	assert.Equal(t, "string", query["type"])
	assert.Equal(t, "what to find", query["description"])

	tags := properties["tags"].(map[string]interface{})
	assert.Equal(t, "array", tags["type"])
	assert.Equal(t, map[string]interface{}{"type": "string"}, tags["items"])

	// Non-scalar array element types degrade to string.
	weights := properties["weights"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"type": "string"}, weights["items"])

	// Parameters without defaults are required.
	assert.Equal(t, []string{"query", "tags", "weights"}, params["required"])
}

func TestRegistryDefinitionDeterministic(t *testing.T) {
	params := []Param{
		{Name: "a", Type: TypeString},
		{Name: "b", Type: TypeNumber, Default: 1.5},
	}
	handler := func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return nil, nil
	}

	r1 := NewRegistry(nil)
	r1.Register("t", "d", params, handler)
	r2 := NewRegistry(nil)
	r2.Register("t", "d", params, handler)

	assert.Equal(t, r1.Definitions(), r2.Definitions())
}

func TestRegistryDefinitionsInRegistrationOrder(t *testing.T) {
	r := NewRegistry(nil)
	handler := func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return nil, nil
	}
	r.Register("zeta", "", nil, handler)
	r.Register("alpha", "", nil, handler)
	r.Register("mid", "", nil, handler)

	defs := r.Definitions()
	require.Len(t, defs, 3)
	assert.Equal(t, "zeta", defs[0].Function.Name)
	assert.Equal(t, "alpha", defs[1].Function.Name)
	assert.Equal(t, "mid", defs[2].Function.Name)
}

func TestRegistryExecuteUnknownTool(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.Execute(context.Background(), "nope", nil)

	var unknown ErrUnknownTool
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nope", unknown.Name)
}

func TestRegistryExecuteAppliesDefaults(t *testing.T) {
	r := NewRegistry(nil)
	var seen map[string]interface{}
	r.Register("echo", "",
		[]Param{
			{Name: "limit", Type: TypeInteger, Default: 10},
			{Name: "query", Type: TypeString},
		},
		func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			seen = args
			return nil, nil
		})

	_, err := r.Execute(context.Background(), "echo", map[string]interface{}{"query": "x"})
	require.NoError(t, err)
	assert.Equal(t, 10, seen["limit"])
	assert.Equal(t, "x", seen["query"])
}

func TestRegistryExecutePropagatesHandlerError(t *testing.T) {
	r := NewRegistry(nil)
	boom := errors.New("boom")
	r.Register("fail", "", nil,
		func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return nil, boom
		})

	_, err := r.Execute(context.Background(), "fail", nil)
	assert.ErrorIs(t, err, boom)
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "plain", Stringify("plain"))
	assert.Equal(t, `{"a":1}`, Stringify(map[string]interface{}{"a": 1}))
}
