package resource

import (
	"context"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/vector/brandibble-go/order"
)

var _ order.AddressValidator = (*Addresses)(nil)

// Addresses manipulates the authenticated customer's stored addresses.
type Addresses struct {
	r Requester
}

// NewAddresses returns an address resource client on top of r.
func NewAddresses(r Requester) *Addresses {
	return &Addresses{r: r}
}

// Validate checks a draft address. Missing required fields are reported
// locally as order.FieldErrors before any network call.
func (a *Addresses) Validate(ctx context.Context, draft order.Address) error {
	fe := order.FieldErrors{}
	if draft.StreetAddress == "" {
		fe["street_address"] = "street address is required"
	}
	if draft.City == "" {
		fe["city"] = "city is required"
	}
	if draft.State == "" {
		fe["state"] = "state is required"
	}
	if draft.ZipCode == "" {
		fe["zip_code"] = "zip code is required"
	}
	if len(fe) > 0 {
		return fe
	}
	if _, err := a.r.Request(ctx, http.MethodPost, "customers/addresses/validate", draft); err != nil {
		return err
	}
	return nil
}

// All lists the customer's stored addresses.
func (a *Addresses) All(ctx context.Context) (jx.Raw, error) {
	return a.r.Request(ctx, http.MethodGet, "customers/addresses", nil)
}

// Create stores a new address for the customer.
func (a *Addresses) Create(ctx context.Context, draft order.Address) (jx.Raw, error) {
	return a.r.Request(ctx, http.MethodPost, "customers/addresses", draft)
}

// Delete removes a stored address by its remote id.
func (a *Addresses) Delete(ctx context.Context, customerAddressID int64) (jx.Raw, error) {
	return a.r.Request(ctx, http.MethodDelete, addressPath(customerAddressID), nil)
}

func addressPath(id int64) string {
	return "customers/addresses/" + formatID(id)
}
