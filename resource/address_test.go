package resource

import (
	"context"
	"testing"

	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vector/brandibble-go/order"
)

func TestAddressesValidate_EmptyDraftFailsLocally(t *testing.T) {
	r := &mockRequester{}
	err := NewAddresses(r).Validate(context.Background(), order.Address{})

	var fe order.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Len(t, fe, 4)
	assert.Contains(t, fe, "street_address")
	assert.Contains(t, fe, "city")
	assert.Contains(t, fe, "state")
	assert.Contains(t, fe, "zip_code")
	assert.Empty(t, r.requests)
}

func TestAddressesValidate_ValidDraftGoesRemote(t *testing.T) {
	r := &mockRequester{payload: jx.Raw(`{}`)}
	err := NewAddresses(r).Validate(context.Background(), order.Address{
		StreetAddress: "123 Main St",
		City:          "New York",
		State:         "NY",
		ZipCode:       "10001",
	})
	require.NoError(t, err)
	require.Len(t, r.requests, 1)
	assert.Equal(t, "customers/addresses/validate", r.requests[0].path)
}

func TestAddressesAllAndDelete(t *testing.T) {
	r := &mockRequester{payload: jx.Raw(`{"data":[]}`)}
	addrs := NewAddresses(r)

	_, err := addrs.All(context.Background())
	require.NoError(t, err)
	_, err = addrs.Delete(context.Background(), 42)
	require.NoError(t, err)

	require.Len(t, r.requests, 2)
	assert.Equal(t, "GET", r.requests[0].method)
	assert.Equal(t, "customers/addresses", r.requests[0].path)
	assert.Equal(t, "DELETE", r.requests[1].method)
	assert.Equal(t, "customers/addresses/42", r.requests[1].path)
}
