package resource

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/vector/brandibble-go/order"
)

var _ order.CustomerValidator = (*Customers)(nil)

// Customers manipulates remote customer records.
type Customers struct {
	r Requester
}

// NewCustomers returns a customer resource client on top of r.
func NewCustomers(r Requester) *Customers {
	return &Customers{r: r}
}

// Validate checks a draft customer. Missing required fields are reported
// locally as order.FieldErrors, one entry per field, before any network
// call; drafts that pass the presence check are validated remotely.
func (c *Customers) Validate(ctx context.Context, draft order.Customer) error {
	fe := order.FieldErrors{}
	if draft.FirstName == "" {
		fe["first_name"] = "first name is required"
	}
	if draft.LastName == "" {
		fe["last_name"] = "last name is required"
	}
	if draft.Email == "" {
		fe["email"] = "email is required"
	}
	if draft.Password == "" {
		fe["password"] = "password is required"
	}
	if len(fe) > 0 {
		return fe
	}
	if _, err := c.r.Request(ctx, http.MethodPost, "customers/validate", draft); err != nil {
		return err
	}
	return nil
}

// Create registers a new remote customer from a draft and returns the
// upstream payload.
func (c *Customers) Create(ctx context.Context, draft order.Customer) (jx.Raw, error) {
	return c.r.Request(ctx, http.MethodPost, "customers", draft)
}

// Authenticate exchanges credentials for a bearer token.
func (c *Customers) Authenticate(ctx context.Context, email, password string) (string, error) {
	payload, err := c.r.Request(ctx, http.MethodPost, "customers/authenticate", map[string]any{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", err
	}
	return extractToken(payload)
}

// extractToken pulls the token out of an authenticate response, accepting
// both the top-level and data-wrapped shapes the API has used.
func extractToken(payload jx.Raw) (string, error) {
	var token string
	d := jx.DecodeBytes(payload)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "token":
			s, err := d.Str()
			token = s
			return err
		case "data":
			return d.Obj(func(d *jx.Decoder, key string) error {
				if key != "token" {
					return d.Skip()
				}
				s, err := d.Str()
				token = s
				return err
			})
		default:
			return d.Skip()
		}
	}); err != nil {
		return "", errors.Wrap(err, "parse authenticate response")
	}
	if token == "" {
		return "", errors.New("authenticate response carried no token")
	}
	return token, nil
}
