// Package order implements the in-memory order aggregate: the cart and its
// line items, the attached customer, address and payment records, and the
// fulfillment metadata. Every mutation persists the order through its
// Session, so durable state tracks the in-memory state change by change.
//
// Operations issued in sequence against the same Order are not serialized by
// the aggregate; callers that mutate one order from multiple goroutines must
// order the calls themselves.
package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// Sentinel errors for cart and attachment operations.
var (
	ErrInvalidProduct     = errors.New("product id is required")
	ErrInvalidQuantity    = errors.New("quantity must be greater than 0")
	ErrNotInCart          = errors.New("line item does not belong to this cart")
	ErrCustomerIsRef      = errors.New("customer reference is attached; clear it before setting a draft")
	ErrAddressIsRef       = errors.New("address reference is attached; clear it before setting a draft")
	ErrCreditCardIsRef    = errors.New("card reference is attached; clear it before setting a full card")
	ErrInvalidServiceType = errors.New("service type must be pickup or delivery")
)

// ServiceType selects how the order is fulfilled.
type ServiceType string

const (
	ServicePickup   ServiceType = "pickup"
	ServiceDelivery ServiceType = "delivery"
)

// Valid reports whether st is a known service type.
func (st ServiceType) Valid() bool {
	return st == ServicePickup || st == ServiceDelivery
}

// PaymentType selects how the order is paid for.
type PaymentType string

const (
	PaymentCash   PaymentType = "cash"
	PaymentCredit PaymentType = "credit"
)

// MiscOptions carries free-form ordering context fixed at creation time.
type MiscOptions map[string]any

// Session is the slice of the adapter the aggregate needs to make its
// mutations durable.
type Session interface {
	PersistCurrentOrder(ctx context.Context, o *Order) (*Order, error)
}

// CustomerValidator validates a draft customer before it is attached.
// Failures are reported as FieldErrors.
type CustomerValidator interface {
	Validate(ctx context.Context, draft Customer) error
}

// AddressValidator validates a draft address before it is attached.
type AddressValidator interface {
	Validate(ctx context.Context, draft Address) error
}

// ProductValidator checks remote price and availability for a product at a
// given quantity.
type ProductValidator interface {
	Validate(ctx context.Context, p Product, quantity int) error
}

// Order is the central aggregate. ID, LocationID, ServiceType and
// MiscOptions are fixed at creation; everything else is mutated through the
// operations below. Exported fields participate in persistence; the session
// and validators do not.
type Order struct {
	ID               string      `json:"uuid"`
	LocationID       int64       `json:"locationId"`
	ServiceType      ServiceType `json:"serviceType"`
	MiscOptions      MiscOptions `json:"miscOptions,omitempty"`
	Cart             *Cart       `json:"cart"`
	Customer         *Customer   `json:"customer,omitempty"`
	Address          *Address    `json:"address,omitempty"`
	PaymentType      PaymentType `json:"paymentType,omitempty"`
	CreditCard       *CreditCard `json:"creditCard,omitempty"`
	RequestedAt      string      `json:"requestedAt,omitempty"`
	WantsFutureOrder bool        `json:"wantsFutureOrder,omitempty"`

	sess      Session
	customers CustomerValidator
	addresses AddressValidator
	products  ProductValidator
}

// Option configures an Order at construction time.
type Option func(*Order)

// WithID overrides the generated identifier; used when restoring a
// persisted order.
func WithID(id string) Option {
	return func(o *Order) { o.ID = id }
}

// WithMiscOptions attaches free-form ordering context.
func WithMiscOptions(m MiscOptions) Option {
	return func(o *Order) { o.MiscOptions = m }
}

// WithPaymentType presets the payment type.
func WithPaymentType(pt PaymentType) Option {
	return func(o *Order) { o.PaymentType = pt }
}

// WithCustomerValidator wires the remote customer validation collaborator.
func WithCustomerValidator(v CustomerValidator) Option {
	return func(o *Order) { o.customers = v }
}

// WithAddressValidator wires the remote address validation collaborator.
func WithAddressValidator(v AddressValidator) Option {
	return func(o *Order) { o.addresses = v }
}

// WithProductValidator wires the remote price/availability check used by
// cart edits.
func WithProductValidator(v ProductValidator) Option {
	return func(o *Order) { o.products = v }
}

// New creates an order bound to sess with an empty cart and a generated
// identifier. The identifier survives serialization round-trips.
func New(sess Session, locationID int64, serviceType ServiceType, opts ...Option) *Order {
	o := &Order{
		ID:          uuid.NewString(),
		LocationID:  locationID,
		ServiceType: serviceType,
		Cart:        &Cart{},
		RequestedAt: "asap",
		sess:        sess,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// AddLineItem validates the product and quantity, appends a line item to the
// cart in insertion order, and persists the order. When a product validator
// is configured the remote availability check runs before the item is added.
func (o *Order) AddLineItem(ctx context.Context, p Product, quantity int) (*LineItem, error) {
	if p.ID == 0 {
		return nil, ErrInvalidProduct
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if o.products != nil {
		if err := o.products.Validate(ctx, p, quantity); err != nil {
			return nil, err
		}
	}
	li := &LineItem{
		ID:       uuid.NewString(),
		Product:  p,
		Quantity: quantity,
		Order:    o,
	}
	o.Cart.LineItems = append(o.Cart.LineItems, li)
	if err := o.persist(ctx); err != nil {
		return nil, err
	}
	return li, nil
}

// RemoveLineItem removes li from the cart by identity. Removing a line item
// that is not in the cart is a no-op.
func (o *Order) RemoveLineItem(ctx context.Context, li *LineItem) error {
	for i, existing := range o.Cart.LineItems {
		if existing == li {
			o.Cart.LineItems = append(o.Cart.LineItems[:i], o.Cart.LineItems[i+1:]...)
			li.Order = nil
			return o.persist(ctx)
		}
	}
	return nil
}

// GetLineItemQuantity returns the quantity of li, or 0 when li is not in
// the cart.
func (o *Order) GetLineItemQuantity(li *LineItem) int {
	for _, existing := range o.Cart.LineItems {
		if existing == li {
			return existing.Quantity
		}
	}
	return 0
}

// SetLineItemQuantity updates the quantity of a cart line item and returns
// the new quantity. On any failure the prior quantity is left unchanged.
func (o *Order) SetLineItemQuantity(ctx context.Context, li *LineItem, quantity int) (int, error) {
	if quantity < 1 {
		return 0, ErrInvalidQuantity
	}
	if !o.owns(li) {
		return 0, ErrNotInCart
	}
	if o.products != nil {
		if err := o.products.Validate(ctx, li.Product, quantity); err != nil {
			return 0, err
		}
	}
	prev := li.Quantity
	li.Quantity = quantity
	if err := o.persist(ctx); err != nil {
		li.Quantity = prev
		return 0, err
	}
	return quantity, nil
}

// SetCustomer attaches a customer to the order and returns the order. A
// reference (customer_id present) is accepted as-is, trusting the caller. A
// draft is validated through the configured customer validator; a validation
// failure carries one FieldErrors entry per invalid field. A draft never
// silently replaces an attached reference.
func (o *Order) SetCustomer(ctx context.Context, c Customer) (*Order, error) {
	if !c.IsReference() {
		if o.Customer != nil && o.Customer.IsReference() {
			return nil, ErrCustomerIsRef
		}
		if o.customers != nil {
			if err := o.customers.Validate(ctx, c); err != nil {
				return nil, err
			}
		}
	}
	attached := c
	o.Customer = &attached
	if err := o.persist(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

// ClearCustomer detaches the customer so a different shape can be set.
func (o *Order) ClearCustomer(ctx context.Context) error {
	o.Customer = nil
	return o.persist(ctx)
}

// SetAddress attaches an address to the order, symmetric to SetCustomer.
// Once valid, the address is stored exactly as given.
func (o *Order) SetAddress(ctx context.Context, a Address) (*Order, error) {
	if !a.IsReference() {
		if o.Address != nil && o.Address.IsReference() {
			return nil, ErrAddressIsRef
		}
		if o.addresses != nil {
			if err := o.addresses.Validate(ctx, a); err != nil {
				return nil, err
			}
		}
	}
	attached := a
	o.Address = &attached
	if err := o.persist(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

// ClearAddress detaches the address so a different shape can be set.
func (o *Order) ClearAddress(ctx context.Context) error {
	o.Address = nil
	return o.persist(ctx)
}

// SetCreditCard attaches payment instrument data. A reference
// (customer_card_id present) is attached directly; a full instrument is held
// in memory pending remote tokenization and never survives persistence.
func (o *Order) SetCreditCard(ctx context.Context, card CreditCard) (*Order, error) {
	if !card.IsReference() && o.CreditCard != nil && o.CreditCard.IsReference() {
		return nil, ErrCreditCardIsRef
	}
	attached := card
	o.CreditCard = &attached
	o.PaymentType = PaymentCredit
	if err := o.persist(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

// ClearCreditCard detaches the payment instrument.
func (o *Order) ClearCreditCard(ctx context.Context) error {
	o.CreditCard = nil
	return o.persist(ctx)
}

// SetPaymentType records how the order will be paid for.
func (o *Order) SetPaymentType(ctx context.Context, pt PaymentType) error {
	o.PaymentType = pt
	return o.persist(ctx)
}

// SetRequestedAt records the fulfillment time. wantsFutureOrder marks the
// order as scheduled rather than ASAP.
func (o *Order) SetRequestedAt(ctx context.Context, requestedAt string, wantsFutureOrder bool) error {
	o.RequestedAt = requestedAt
	o.WantsFutureOrder = wantsFutureOrder
	return o.persist(ctx)
}

// RehydrateCart replaces the cart with deep copies of the given line items,
// re-establishing this order as their sole owner. It is used by the adapter
// during restore and is not part of normal cart editing.
func (o *Order) RehydrateCart(cart *Cart) *Order {
	o.Cart = &Cart{}
	if cart == nil {
		return o
	}
	for _, li := range cart.LineItems {
		if li == nil {
			continue
		}
		dup := &LineItem{
			ID:       li.ID,
			Product:  li.Product,
			Quantity: li.Quantity,
			Order:    o,
		}
		if dup.ID == "" {
			dup.ID = uuid.NewString()
		}
		if len(li.Options) > 0 {
			dup.Options = append([]ItemOption(nil), li.Options...)
		}
		o.Cart.LineItems = append(o.Cart.LineItems, dup)
	}
	return o
}

func (o *Order) owns(li *LineItem) bool {
	for _, existing := range o.Cart.LineItems {
		if existing == li {
			return true
		}
	}
	return false
}

func (o *Order) persist(ctx context.Context) error {
	if o.sess == nil {
		return nil
	}
	_, err := o.sess.PersistCurrentOrder(ctx, o)
	return err
}
