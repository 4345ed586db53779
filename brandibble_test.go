package brandibble

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vector/brandibble-go/order"
)

func newTestClient(t *testing.T, cfg *Config) *Client {
	t.Helper()
	c, err := New(context.Background(), cfg)
	require.NoError(t, err)
	return c
}

func TestNew_DefaultsToMemoryStorage(t *testing.T) {
	c := newTestClient(t, &Config{APIKey: "k"})
	require.NotNil(t, c.Adapter)
	require.NotNil(t, c.Customers)
	require.NotNil(t, c.Addresses)
	require.NotNil(t, c.Orders)
}

func TestNew_UnknownStorageDriver(t *testing.T) {
	_, err := New(context.Background(), &Config{
		APIKey:  "k",
		Storage: StorageConfig{Driver: "redis"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}

func TestNew_FileStorageRequiresPath(t *testing.T) {
	_, err := New(context.Background(), &Config{
		APIKey:  "k",
		Storage: StorageConfig{Driver: "file"},
	})
	require.Error(t, err)
}

func TestNewOrder_BoundToSession(t *testing.T) {
	c := newTestClient(t, &Config{APIKey: "k"})

	o := c.NewOrder(19, order.ServicePickup)
	_, err := o.AddLineItem(context.Background(), order.Product{ID: 1, Name: "Burger"}, 1)
	require.NoError(t, err)
	assert.Same(t, o, c.Adapter.CurrentOrder())
}

func TestSetup_ColdStart(t *testing.T) {
	c := newTestClient(t, &Config{APIKey: "k"})

	require.NoError(t, c.Setup(context.Background()))
	assert.Nil(t, c.Adapter.CurrentOrder())
	assert.Empty(t, c.Adapter.CustomerToken())
}

func TestSetup_RestoresPersistedSession(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	cfg := &Config{APIKey: "k", Storage: StorageConfig{Driver: "file", Path: path}}

	first := newTestClient(t, cfg)
	o := first.NewOrder(19, order.ServiceDelivery)
	_, err := o.AddLineItem(ctx, order.Product{ID: 4, Name: "Fries"}, 2)
	require.NoError(t, err)
	require.NoError(t, first.Adapter.PersistCustomerToken(ctx, "token-abc"))

	second := newTestClient(t, cfg)
	require.NoError(t, second.Setup(ctx))

	assert.Equal(t, "token-abc", second.Adapter.CustomerToken())
	restored := second.Adapter.CurrentOrder()
	require.NotNil(t, restored)
	assert.Equal(t, o.ID, restored.ID)
	require.Len(t, restored.Cart.LineItems, 1)
	assert.Equal(t, 2, restored.Cart.LineItems[0].Quantity)
}
