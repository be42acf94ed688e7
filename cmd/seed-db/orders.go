package main

import (
	"encoding/json"

	"github.com/go-faster/errors"

	"github.com/xenking/shipbridge/internal/domain/order"
	"github.com/xenking/shipbridge/internal/domain/shipping"
)

type orderJSON struct {
	ID              string            `json:"id"`
	ShippingMethod  string            `json:"shipping_method"`
	ShippingAddress *shipping.Address `json:"shipping_address"`
	SelectedRate    *struct {
		CarrierID   string `json:"carrier_id"`
		ServiceCode string `json:"service_code"`
		Cost        *int64 `json:"cost"`
	} `json:"selected_rate"`
	Currency     string     `json:"currency"`
	Subtotal     *int64     `json:"subtotal"`
	Total        *int64     `json:"total"`
	ShippingCost *int64     `json:"shipping_cost"`
	Notes        string     `json:"notes"`
	Items        []itemJSON `json:"items"`
}

type itemJSON struct {
	ProductID    string           `json:"product_id"`
	VariantID    string           `json:"variant_id"`
	ProductTitle string           `json:"product_title"`
	VariantTitle string           `json:"variant_title"`
	SKU          string           `json:"sku"`
	Quantity     int              `json:"quantity"`
	Weight       *shipping.Weight `json:"weight"`
	UnitPrice    *int64           `json:"unit_price"`
}

// parseOrders decodes a JSON array of orders. Every order starts pending.
func parseOrders(data []byte) ([]*order.Order, error) {
	var raw []orderJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "decode")
	}

	orders := make([]*order.Order, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i, r := range raw {
		if r.ID == "" {
			return nil, errors.Errorf("order %d: id is required", i)
		}
		if _, dup := seen[r.ID]; dup {
			return nil, errors.Errorf("order %s: duplicate id", r.ID)
		}
		seen[r.ID] = struct{}{}

		method := order.ShippingMethod(r.ShippingMethod)
		if method != order.MethodShipping && method != order.MethodPickup {
			return nil, errors.Errorf("order %s: unknown shipping method %q", r.ID, r.ShippingMethod)
		}

		o := &order.Order{
			ID:              r.ID,
			ShippingMethod:  method,
			ShippingAddress: r.ShippingAddress,
			Currency:        r.Currency,
			Subtotal:        r.Subtotal,
			Total:           r.Total,
			ShippingCost:    r.ShippingCost,
			Notes:           r.Notes,
			ShippingStatus:  shipping.StatusPending,
		}
		if r.SelectedRate != nil {
			o.SelectedRate = &order.SelectedRate{
				CarrierID:   r.SelectedRate.CarrierID,
				ServiceCode: r.SelectedRate.ServiceCode,
				Cost:        r.SelectedRate.Cost,
			}
		}
		for _, it := range r.Items {
			o.Items = append(o.Items, order.LineItem{
				ProductID:    it.ProductID,
				VariantID:    it.VariantID,
				ProductTitle: it.ProductTitle,
				VariantTitle: it.VariantTitle,
				SKU:          it.SKU,
				Quantity:     it.Quantity,
				Weight:       it.Weight,
				UnitPrice:    it.UnitPrice,
			})
		}
		orders = append(orders, o)
	}
	return orders, nil
}
