package order

// Format builds the submission payload the ordering API expects. Reference
// shapes submit only their remote ids; drafts submit their full fields.
func (o *Order) Format() map[string]any {
	items := make([]map[string]any, 0, len(o.Cart.LineItems))
	for _, li := range o.Cart.LineItems {
		item := map[string]any{
			"id":       li.Product.ID,
			"quantity": li.Quantity,
		}
		if len(li.Options) > 0 {
			opts := make([]map[string]any, 0, len(li.Options))
			for _, sel := range li.Options {
				opts = append(opts, map[string]any{
					"group_id": sel.GroupID,
					"id":       sel.OptionID,
					"quantity": sel.Quantity,
				})
			}
			item["option_groups"] = opts
		}
		items = append(items, item)
	}

	payload := map[string]any{
		"uuid":         o.ID,
		"location_id":  o.LocationID,
		"service_type": string(o.ServiceType),
		"requested_at": o.RequestedAt,
		"cart":         items,
	}
	if o.PaymentType != "" {
		payload["payment_type"] = string(o.PaymentType)
	}
	if o.Customer != nil {
		if o.Customer.IsReference() {
			payload["customer_id"] = o.Customer.CustomerID
		} else {
			payload["customer"] = *o.Customer
		}
	}
	if o.Address != nil {
		if o.Address.IsReference() {
			payload["customer_address_id"] = o.Address.CustomerAddressID
		} else {
			payload["address"] = *o.Address
		}
	}
	if o.CreditCard != nil && o.CreditCard.IsReference() {
		payload["customer_card_id"] = o.CreditCard.CustomerCardID
	}
	return payload
}
