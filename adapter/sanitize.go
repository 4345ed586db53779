package adapter

import "github.com/vector/brandibble-go/order"

// The only payment information allowed to reach storage is the remote card
// reference; draft passwords never reach it at all. The in-memory session
// legitimately needs the removed values (e.g. to retry a remote card save),
// so sanitization hands them back for restoration after the write.

type removedSensitive struct {
	creditCard *order.CreditCard
	password   string
}

// sanitizeOrder reduces o to its storable shape in place and returns the
// removed values.
func sanitizeOrder(o *order.Order) removedSensitive {
	var removed removedSensitive

	if o.CreditCard != nil {
		card := *o.CreditCard
		removed.creditCard = &card
		if card.IsReference() {
			o.CreditCard = &order.CreditCard{CustomerCardID: card.CustomerCardID}
		} else {
			o.CreditCard = nil
		}
	}

	if o.Customer != nil && o.Customer.Password != "" {
		removed.password = o.Customer.Password
		o.Customer.Password = ""
	}

	return removed
}

// restore puts the removed values back onto the live order.
func (r removedSensitive) restore(o *order.Order) {
	if r.creditCard != nil {
		o.CreditCard = r.creditCard
	}
	if r.password != "" && o.Customer != nil {
		o.Customer.Password = r.password
	}
}
