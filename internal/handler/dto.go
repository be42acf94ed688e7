package handler

import (
	"time"

	"github.com/xenking/shipbridge/internal/domain/order"
	"github.com/xenking/shipbridge/internal/domain/shipping"
	"github.com/xenking/shipbridge/internal/shipment"
)

type addressDTO struct {
	Name         string `json:"name"`
	Company      string `json:"company"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	Region       string `json:"region"`
	PostalCode   string `json:"postal_code" validate:"required"`
	CountryCode  string `json:"country_code" validate:"required,len=2"`
	Residential  string `json:"residential" validate:"omitempty,oneof=yes no unknown"`
}

func (a addressDTO) toDomain() shipping.Address {
	return shipping.Address{
		Name:         a.Name,
		Company:      a.Company,
		Phone:        a.Phone,
		AddressLine1: a.AddressLine1,
		AddressLine2: a.AddressLine2,
		City:         a.City,
		Region:       a.Region,
		PostalCode:   a.PostalCode,
		CountryCode:  a.CountryCode,
		Residential:  shipping.Residential(a.Residential),
	}
}

type weightDTO struct {
	Value float64 `json:"value" validate:"gt=0"`
	Unit  string  `json:"unit" validate:"required"`
}

type dimensionsDTO struct {
	Length float64 `json:"length" validate:"gt=0"`
	Width  float64 `json:"width" validate:"gt=0"`
	Height float64 `json:"height" validate:"gt=0"`
	Unit   string  `json:"unit" validate:"required"`
}

type rateRequest struct {
	ShipTo        addressDTO     `json:"ship_to"`
	ShipFrom      *addressDTO    `json:"ship_from" validate:"omitempty"`
	WarehouseID   string         `json:"warehouse_id"`
	Weight        weightDTO      `json:"weight"`
	Dimensions    *dimensionsDTO `json:"dimensions" validate:"omitempty"`
	CarrierIDs    []string       `json:"carrier_ids" validate:"omitempty,max=20,dive,required"`
	ShippingClass string         `json:"shipping_class"`
}

type rateResponse struct {
	Rates []shipping.Rate `json:"rates"`
}

type validateAddressRequest struct {
	addressDTO
	AddressLine1 string `json:"address_line1" validate:"required"`
}

type triggerRequest struct {
	WarehouseID string `json:"warehouse_id"`
}

type orderPlacedRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}

// shipmentResult reports the outcome of a shipment creation attempt.
type shipmentResult struct {
	OrderID    string `json:"order_id"`
	Success    bool   `json:"success"`
	Skipped    bool   `json:"skipped,omitempty"`
	ShipmentID string `json:"shipment_id,omitempty"`
	Status     string `json:"status,omitempty"`
	Failure    string `json:"failure,omitempty"`
	Error      string `json:"error,omitempty"`
}

func toShipmentResult(orderID string, res shipment.Result) shipmentResult {
	return shipmentResult{
		OrderID:    orderID,
		Success:    res.Success,
		ShipmentID: res.ShipmentID,
		Status:     string(res.Status),
		Failure:    string(res.Failure),
		Error:      res.Error,
	}
}

type carriersResponse struct {
	Carriers []shipping.Carrier `json:"carriers"`
}

type servicesResponse struct {
	Services []shipping.CarrierService `json:"services"`
}

type orderSummary struct {
	ID             string    `json:"id"`
	ShippingMethod string    `json:"shipping_method"`
	ShippingStatus string    `json:"shipping_status"`
	ShipmentID     string    `json:"shipment_id,omitempty"`
	ShippingNote   string    `json:"shipping_note,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type ordersResponse struct {
	Orders []orderSummary `json:"orders"`
}

func toOrderSummary(o order.Order) orderSummary {
	return orderSummary{
		ID:             o.ID,
		ShippingMethod: string(o.ShippingMethod),
		ShippingStatus: string(o.ShippingStatus.OrPending()),
		ShipmentID:     o.ShipmentID,
		ShippingNote:   o.ShippingNote,
		UpdatedAt:      o.UpdatedAt,
	}
}

type webhookResponse struct {
	Outcome string `json:"outcome"`
}
