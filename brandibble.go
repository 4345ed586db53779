// Package brandibble is a client SDK for a remote commerce ordering API:
// cart assembly, customer/address/payment attachment, checkout, and durable
// session state that survives process restarts.
package brandibble

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"golang.org/x/sync/errgroup"

	"github.com/vector/brandibble-go/adapter"
	"github.com/vector/brandibble-go/order"
	"github.com/vector/brandibble-go/resource"
	"github.com/vector/brandibble-go/storage"
	"github.com/vector/brandibble-go/storage/file"
	"github.com/vector/brandibble-go/storage/memory"
	"github.com/vector/brandibble-go/storage/postgres"
)

// Client is the SDK entry point. It owns one Adapter (the session state)
// and the resource clients built on it. Multiple independent clients can
// coexist in one process.
type Client struct {
	Adapter   *adapter.Adapter
	Customers *resource.Customers
	Addresses *resource.Addresses
	Orders    *resource.Orders
}

// New builds a Client from cfg, opening the configured storage driver.
func New(ctx context.Context, cfg *Config) (*Client, error) {
	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	ad := adapter.New(adapter.Config{
		APIKey:         cfg.APIKey,
		APIBase:        cfg.APIBase,
		Origin:         cfg.Origin,
		RequestTimeout: cfg.RequestTimeout,
		Store:          store,
	})
	return &Client{
		Adapter:   ad,
		Customers: resource.NewCustomers(ad),
		Addresses: resource.NewAddresses(ad),
		Orders:    resource.NewOrders(ad),
	}, nil
}

// NewOrder creates an order bound to this client's session, with the
// resource clients wired in as validators.
func (c *Client) NewOrder(locationID int64, serviceType order.ServiceType, opts ...order.Option) *order.Order {
	base := []order.Option{
		order.WithCustomerValidator(c.Customers),
		order.WithAddressValidator(c.Addresses),
	}
	return order.New(c.Adapter, locationID, serviceType, append(base, opts...)...)
}

// Setup restores the persisted session: the customer token and the current
// order, in parallel. Absence of either is a normal cold-start state.
func (c *Client) Setup(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := c.Adapter.RestoreCustomerToken(ctx)
		return err
	})
	g.Go(func() error {
		_, err := c.Adapter.RestoreCurrentOrder(ctx,
			order.WithCustomerValidator(c.Customers),
			order.WithAddressValidator(c.Addresses),
		)
		return err
	})
	return g.Wait()
}

// Authenticate logs the customer in and persists the returned bearer token,
// so subsequent requests carry it.
func (c *Client) Authenticate(ctx context.Context, email, password string) error {
	token, err := c.Customers.Authenticate(ctx, email, password)
	if err != nil {
		return err
	}
	return c.Adapter.PersistCustomerToken(ctx, token)
}

// Checkout submits the order and, on success, flushes the persisted copy.
// The upstream receipt payload is returned.
func (c *Client) Checkout(ctx context.Context, o *order.Order) (jx.Raw, error) {
	payload, err := c.Orders.Submit(ctx, o)
	if err != nil {
		return nil, err
	}
	if err := c.Adapter.FlushCurrentOrder(ctx); err != nil {
		return nil, err
	}
	return payload, nil
}

func openStore(ctx context.Context, cfg StorageConfig) (storage.Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return memory.New(), nil
	case "file":
		if cfg.Path == "" {
			return nil, errors.New("file storage requires a path")
		}
		return file.New(cfg.Path), nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, errors.New("postgres storage requires a database URL")
		}
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return nil, err
		}
		return postgres.New(pool), nil
	default:
		return nil, errors.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
