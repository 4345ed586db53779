package cyclicjson

import (
	"testing"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type person struct {
	Name    string    `json:"name"`
	Nick    string    `json:"nick,omitempty"`
	Age     int       `json:"age,omitempty"`
	Friends []*person `json:"friends,omitempty"`
	Best    *person   `json:"best,omitempty"`
}

type priced struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

func TestMarshal_AcyclicHasNoMarkers(t *testing.T) {
	p := &person{Name: "Ada", Age: 36}

	data, err := Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ada","age":36}`, string(data))
	assert.NotContains(t, string(data), idField)
}

func TestMarshal_Omitempty(t *testing.T) {
	data, err := Marshal(&person{Name: "Ada"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ada"}`, string(data))
}

func TestMarshal_PrimitivesAndContainers(t *testing.T) {
	data, err := Marshal(map[string]any{
		"s":    "str",
		"n":    42,
		"f":    1.5,
		"b":    true,
		"none": nil,
		"list": []int{1, 2, 3},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":true,"f":1.5,"list":[1,2,3],"n":42,"none":null,"s":"str"}`, string(data))
}

func TestRoundTrip_Cycle(t *testing.T) {
	ada := &person{Name: "Ada"}
	bob := &person{Name: "Bob", Best: ada}
	ada.Best = bob

	data, err := Marshal(ada)
	require.NoError(t, err)
	assert.True(t, jx.Valid(data))

	var got *person
	require.NoError(t, Unmarshal(data, &got))
	require.NotNil(t, got)
	assert.Equal(t, "Ada", got.Name)
	require.NotNil(t, got.Best)
	assert.Equal(t, "Bob", got.Best.Name)
	assert.Same(t, got, got.Best.Best)
}

func TestRoundTrip_SharedReference(t *testing.T) {
	shared := &person{Name: "Shared"}
	root := &person{
		Name:    "Root",
		Friends: []*person{shared, shared},
	}

	data, err := Marshal(root)
	require.NoError(t, err)

	var got *person
	require.NoError(t, Unmarshal(data, &got))
	require.Len(t, got.Friends, 2)
	assert.Same(t, got.Friends[0], got.Friends[1])
	assert.Equal(t, "Shared", got.Friends[0].Name)
}

func TestRoundTrip_DistinctPointersStayDistinct(t *testing.T) {
	root := &person{
		Name: "Root",
		Friends: []*person{
			{Name: "A"},
			{Name: "A"},
		},
	}

	data, err := Marshal(root)
	require.NoError(t, err)
	assert.NotContains(t, string(data), refField)

	var got *person
	require.NoError(t, Unmarshal(data, &got))
	require.Len(t, got.Friends, 2)
	assert.NotSame(t, got.Friends[0], got.Friends[1])
}

func TestRoundTrip_JSONMarshalerDelegation(t *testing.T) {
	in := priced{Name: "Burger", Price: decimal.RequireFromString("12.99")}

	data, err := Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Burger","price":"12.99"}`, string(data))

	var got priced
	require.NoError(t, Unmarshal(data, &got))
	assert.Equal(t, in.Name, got.Name)
	assert.True(t, in.Price.Equal(got.Price))
}

func TestUnmarshal_IgnoresUnknownMembers(t *testing.T) {
	var got person
	require.NoError(t, Unmarshal([]byte(`{"name":"Ada","extra":[1,2]}`), &got))
	assert.Equal(t, "Ada", got.Name)
}

func TestUnmarshal_InvalidInput(t *testing.T) {
	var got person
	require.Error(t, Unmarshal([]byte(`{"name":`), &got))
}

func TestUnmarshal_UnresolvedRef(t *testing.T) {
	var got *person
	err := Unmarshal([]byte(`{"name":"Ada","best":{"$ref":7}}`), &got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "$ref")
}

func TestUnmarshal_NonPointerTarget(t *testing.T) {
	require.Error(t, Unmarshal([]byte(`{}`), person{}))
}
