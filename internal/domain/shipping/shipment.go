package shipping

// ShipmentRequest is the canonical create-shipment payload. The provider
// client adapts it to the active wire format.
type ShipmentRequest struct {
	ExternalOrderID string
	WarehouseID     string
	ShipTo          Address
	CarrierID       string
	ServiceCode     string
	Packages        []Package
	Items           []ShipmentItem
	AmountPaid      *Money
	ShippingPaid    *Money
	Notes           string
}

// Package is one physical parcel.
type Package struct {
	Weight     Weight
	Dimensions *Dimensions
}

// ShipmentItem is one order line carried by the shipment.
type ShipmentItem struct {
	Name      string
	SKU       string
	Quantity  int
	UnitPrice *Money
	Weight    *Weight
}

// ShipmentResponse is the provider's answer to a create-shipment call.
type ShipmentResponse struct {
	HasErrors bool
	Shipments []Shipment
}

// Shipment is a provider-side shipment record.
type Shipment struct {
	ShipmentID      string   `json:"shipment_id"`
	ExternalOrderID string   `json:"external_order_id,omitempty"`
	Status          string   `json:"status,omitempty"`
	CarrierID       string   `json:"carrier_id,omitempty"`
	ServiceCode     string   `json:"service_code,omitempty"`
	WarehouseID     string   `json:"warehouse_id,omitempty"`
	CreatedAt       string   `json:"created_at,omitempty"`
	Errors          []string `json:"errors,omitempty"`
}

// CancelResult reports whether a cancellation was accepted.
type CancelResult struct {
	Success bool `json:"success"`
}
