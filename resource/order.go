package resource

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-faster/jx"

	"github.com/vector/brandibble-go/order"
)

// Orders submits assembled orders to the remote API.
type Orders struct {
	r Requester
}

// NewOrders returns an order resource client on top of r.
func NewOrders(r Requester) *Orders {
	return &Orders{r: r}
}

// Validate dry-runs the order server-side without placing it.
func (o *Orders) Validate(ctx context.Context, ord *order.Order) (jx.Raw, error) {
	return o.r.Request(ctx, http.MethodPost, "orders/validate", ord.Format())
}

// Submit places the order. The upstream payload (receipt, totals) is
// returned as-is.
func (o *Orders) Submit(ctx context.Context, ord *order.Order) (jx.Raw, error) {
	return o.r.Request(ctx, http.MethodPost, "orders/create", ord.Format())
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
