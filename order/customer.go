package order

import (
	"sort"
	"strings"
)

// Customer is either a reference to an existing remote customer (CustomerID
// only) or an unvalidated draft pending remote creation. The two shapes are
// mutually exclusive and never merged.
type Customer struct {
	CustomerID int64  `json:"customer_id,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	Email      string `json:"email,omitempty"`
	Password   string `json:"password,omitempty"`
}

// IsReference reports whether the customer points at a remote record.
func (c Customer) IsReference() bool { return c.CustomerID != 0 }

// Address is either a reference to a stored remote address
// (CustomerAddressID only) or a draft pending remote validation. Once valid
// it is attached exactly as given.
type Address struct {
	CustomerAddressID int64   `json:"customer_address_id,omitempty"`
	StreetAddress     string  `json:"street_address,omitempty"`
	UnitNumber        string  `json:"unit_number,omitempty"`
	City              string  `json:"city,omitempty"`
	State             string  `json:"state,omitempty"`
	ZipCode           string  `json:"zip_code,omitempty"`
	Latitude          float64 `json:"latitude,omitempty"`
	Longitude         float64 `json:"longitude,omitempty"`
	Company           string  `json:"company,omitempty"`
	ContactName       string  `json:"contact_name,omitempty"`
	ContactPhone      string  `json:"contact_phone,omitempty"`
}

// IsReference reports whether the address points at a remote record.
func (a Address) IsReference() bool { return a.CustomerAddressID != 0 }

// CreditCard holds either a reference to a remotely tokenized card
// (CustomerCardID only) or the full instrument prior to tokenization. Full
// instrument data never survives persistence; only the reference does.
type CreditCard struct {
	CustomerCardID int64  `json:"customer_card_id,omitempty"`
	Number         string `json:"cc_number,omitempty"`
	Expiration     string `json:"cc_expiration,omitempty"`
	CVV            string `json:"cc_cvv,omitempty"`
	ZipCode        string `json:"cc_zip,omitempty"`
}

// IsReference reports whether the card points at a tokenized remote record.
func (c CreditCard) IsReference() bool { return c.CustomerCardID != 0 }

// FieldErrors maps invalid draft field names to messages, one entry per
// invalid field. It is suitable for presenting directly to an end user.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "invalid fields: " + strings.Join(keys, ", ")
}
