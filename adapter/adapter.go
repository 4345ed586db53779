// Package adapter owns the mutable session state of one SDK instance: the
// current order, the customer bearer token, and the storage handle. It
// issues every outbound API request and classifies the responses. There is
// no global adapter; each instance carries its own state, so independent
// sessions can coexist in one process.
package adapter

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/vector/brandibble-go/order"
	"github.com/vector/brandibble-go/pkg/cyclicjson"
	"github.com/vector/brandibble-go/pkg/httptransport"
	"github.com/vector/brandibble-go/storage"
	"github.com/vector/brandibble-go/storage/memory"
)

// Persisted record keys.
const (
	orderKey = "currentOrder"
	tokenKey = "customerToken"
)

// Doer issues a single HTTP request. *http.Client satisfies it. The body of
// the returned response is read exactly once, so implementations need no
// clone capability.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config carries the immutable construction parameters for an Adapter.
type Config struct {
	APIKey  string
	APIBase string
	// Origin is sent as the Origin header when set.
	Origin string
	// RequestTimeout bounds each request; zero disables the timeout race.
	RequestTimeout time.Duration
	// Store defaults to an in-memory store.
	Store storage.Store
	// HTTP defaults to a client with an otel-instrumented transport.
	HTTP Doer
}

var _ order.Session = (*Adapter)(nil)

// Adapter orchestrates persistence and the request protocol.
type Adapter struct {
	apiKey  string
	apiBase string
	origin  string
	timeout time.Duration
	http    Doer
	store   storage.Store

	mu            sync.Mutex
	currentOrder  *order.Order
	customerToken string
}

// New creates an Adapter from cfg, applying the defaults documented on
// Config.
func New(cfg Config) *Adapter {
	client := cfg.HTTP
	if client == nil {
		client = &http.Client{
			Transport: otelhttp.NewTransport(httptransport.RequestID(http.DefaultTransport)),
		}
	}
	store := cfg.Store
	if store == nil {
		store = memory.New()
	}
	return &Adapter{
		apiKey:  cfg.APIKey,
		apiBase: cfg.APIBase,
		origin:  cfg.Origin,
		timeout: cfg.RequestTimeout,
		http:    client,
		store:   store,
	}
}

// CurrentOrder returns the order this adapter currently owns, if any.
func (a *Adapter) CurrentOrder() *order.Order {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentOrder
}

// CustomerToken returns the cached bearer token, if any.
func (a *Adapter) CustomerToken() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.customerToken
}

// CustomerID extracts the customer id embedded in the cached bearer token.
// The token payload is decoded without signature verification; this is a
// convenience read, never used for access control, and any failure yields 0.
func (a *Adapter) CustomerID() int64 {
	token := a.CustomerToken()
	if token == "" {
		return 0
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return 0
	}
	id, ok := claims["customer_id"].(float64)
	if !ok {
		return 0
	}
	return int64(id)
}

// PersistCurrentOrder assigns o as the current order and writes a sanitized
// copy to storage: the full payment instrument is reduced to its remote
// reference (or dropped) and a draft password is removed. The removed values
// are put back on the in-memory order before returning, so the caller keeps
// working with full data; only the durable copy is reduced.
func (a *Adapter) PersistCurrentOrder(ctx context.Context, o *order.Order) (*order.Order, error) {
	a.mu.Lock()
	a.currentOrder = o
	a.mu.Unlock()

	removed := sanitizeOrder(o)
	defer removed.restore(o)

	data, err := cyclicjson.Marshal(o)
	if err != nil {
		return nil, errors.Wrap(err, "encode current order")
	}
	if err := a.store.SetItem(ctx, orderKey, string(data)); err != nil {
		return nil, errors.Wrap(err, "persist current order")
	}
	zctx.From(ctx).Debug("Persisted current order", zap.String("order_id", o.ID))
	return o, nil
}

// RestoreCurrentOrder loads the persisted order, if any. A missing record is
// a normal cold-start state and yields (nil, nil). Unreadable records are
// logged and treated as absent; restore is the sole recovery path, not a
// place to fail hard. Options are applied to the reconstructed order, which
// is how the caller reattaches validators.
func (a *Adapter) RestoreCurrentOrder(ctx context.Context, opts ...order.Option) (*order.Order, error) {
	raw, err := a.store.GetItem(ctx, orderKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "restore current order")
	}

	var saved *order.Order
	if err := cyclicjson.Unmarshal([]byte(raw), &saved); err != nil {
		zctx.From(ctx).Warn("Discarding unreadable persisted order", zap.Error(err))
		return nil, nil
	}
	if saved == nil {
		return nil, nil
	}

	restored := order.New(a, saved.LocationID, saved.ServiceType, opts...)
	if saved.ID != "" {
		restored.ID = saved.ID
	}
	restored.MiscOptions = saved.MiscOptions
	restored.PaymentType = saved.PaymentType
	restored.WantsFutureOrder = saved.WantsFutureOrder
	restored.Customer = saved.Customer
	restored.Address = saved.Address
	restored.CreditCard = saved.CreditCard
	if saved.RequestedAt != "" {
		restored.RequestedAt = saved.RequestedAt
	}
	restored.RehydrateCart(saved.Cart)

	a.mu.Lock()
	a.currentOrder = restored
	a.mu.Unlock()
	return restored, nil
}

// FlushCurrentOrder removes the persisted order and drops the in-memory
// reference.
func (a *Adapter) FlushCurrentOrder(ctx context.Context) error {
	if err := a.store.RemoveItem(ctx, orderKey); err != nil {
		return errors.Wrap(err, "flush current order")
	}
	a.mu.Lock()
	a.currentOrder = nil
	a.mu.Unlock()
	return nil
}

// FlushAll clears storage entirely and drops the in-memory order and token.
func (a *Adapter) FlushAll(ctx context.Context) error {
	if err := a.store.Clear(ctx); err != nil {
		return errors.Wrap(err, "flush all")
	}
	a.mu.Lock()
	a.currentOrder = nil
	a.customerToken = ""
	a.mu.Unlock()
	return nil
}

// RestoreCustomerToken reads the persisted bearer token and caches it.
// Absence yields an empty token and no error.
func (a *Adapter) RestoreCustomerToken(ctx context.Context) (string, error) {
	token, err := a.store.GetItem(ctx, tokenKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", nil
		}
		return "", errors.Wrap(err, "restore customer token")
	}
	a.mu.Lock()
	a.customerToken = token
	a.mu.Unlock()
	return token, nil
}

// PersistCustomerToken writes the bearer token to storage, then caches what
// storage reports back, tolerating stores that normalize values.
func (a *Adapter) PersistCustomerToken(ctx context.Context, token string) error {
	if err := a.store.SetItem(ctx, tokenKey, token); err != nil {
		return errors.Wrap(err, "persist customer token")
	}
	stored, err := a.store.GetItem(ctx, tokenKey)
	if err != nil {
		return errors.Wrap(err, "read back customer token")
	}
	a.mu.Lock()
	a.customerToken = stored
	a.mu.Unlock()
	return nil
}
