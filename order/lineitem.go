package order

import "github.com/shopspring/decimal"

// Product is the menu item a line item points at. Price uses decimal
// arithmetic; totals are computed server-side at submission.
type Product struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name,omitempty"`
	Price decimal.Decimal `json:"price"`
}

// ItemOption is a single option selection on a line item, addressed by its
// option group.
type ItemOption struct {
	GroupID  int64 `json:"group_id"`
	OptionID int64 `json:"id"`
	Quantity int   `json:"quantity,omitempty"`
}

// LineItem is one cart entry. It belongs to exactly one order at a time; the
// back-reference to its owner participates in cyclic-safe persistence and is
// re-established on restore.
type LineItem struct {
	ID       string       `json:"uuid"`
	Product  Product      `json:"product"`
	Quantity int          `json:"quantity"`
	Options  []ItemOption `json:"options,omitempty"`
	Order    *Order       `json:"order"`
}

// Cart holds the order's line items; slice order is display order.
type Cart struct {
	LineItems []*LineItem `json:"lineItems"`
}
