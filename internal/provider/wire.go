package provider

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/xenking/shipbridge/internal/domain/shipping"
)

// This file holds the v1 wire shapes and their mapping to the canonical
// shipping model. Nothing outside this package sees these types.

// amount marshals as a bare JSON number and accepts numbers or strings.
type amount decimal.Decimal

func (a amount) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(a).String()), nil
}

func (a *amount) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*a = amount(decimal.Zero)
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	*a = amount(d)
	return nil
}

type wireMoney struct {
	Currency string `json:"currency"`
	Amount   amount `json:"amount"`
}

func toWireMoney(m *shipping.Money) *wireMoney {
	if m == nil {
		return nil
	}
	return &wireMoney{Currency: m.Currency, Amount: amount(m.Amount)}
}

func fromWireMoney(m *wireMoney) shipping.Money {
	if m == nil {
		return shipping.Money{Amount: decimal.Zero}
	}
	return shipping.Money{Amount: decimal.Decimal(m.Amount), Currency: m.Currency}
}

type wireAddress struct {
	Name                        string `json:"name,omitempty"`
	Phone                       string `json:"phone,omitempty"`
	CompanyName                 string `json:"company_name,omitempty"`
	AddressLine1                string `json:"address_line1"`
	AddressLine2                string `json:"address_line2,omitempty"`
	CityLocality                string `json:"city_locality"`
	StateProvince               string `json:"state_province"`
	PostalCode                  string `json:"postal_code"`
	CountryCode                 string `json:"country_code"`
	AddressResidentialIndicator string `json:"address_residential_indicator,omitempty"`
}

func toWireAddress(a shipping.Address) wireAddress {
	return wireAddress{
		Name:                        a.Name,
		Phone:                       a.Phone,
		CompanyName:                 a.Company,
		AddressLine1:                a.AddressLine1,
		AddressLine2:                a.AddressLine2,
		CityLocality:                a.City,
		StateProvince:               a.Region,
		PostalCode:                  a.PostalCode,
		CountryCode:                 a.CountryCode,
		AddressResidentialIndicator: string(a.ResidentialOrUnknown()),
	}
}

func fromWireAddress(a wireAddress) shipping.Address {
	out := shipping.Address{
		Name:         a.Name,
		Company:      a.CompanyName,
		AddressLine1: a.AddressLine1,
		AddressLine2: a.AddressLine2,
		City:         a.CityLocality,
		Region:       a.StateProvince,
		PostalCode:   a.PostalCode,
		CountryCode:  a.CountryCode,
		Phone:        a.Phone,
		Residential:  shipping.Residential(a.AddressResidentialIndicator),
	}
	out.Residential = out.ResidentialOrUnknown()
	return out
}

type wireWeight struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

type wireDimensions struct {
	Unit   string  `json:"unit"`
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type wirePackage struct {
	Weight     wireWeight      `json:"weight"`
	Dimensions *wireDimensions `json:"dimensions,omitempty"`
}

func toWirePackage(p shipping.Package) wirePackage {
	wp := wirePackage{Weight: wireWeight{Value: p.Weight.Value, Unit: string(p.Weight.Unit)}}
	if d := p.Dimensions; d != nil {
		wp.Dimensions = &wireDimensions{Unit: string(d.Unit), Length: d.Length, Width: d.Width, Height: d.Height}
	}
	return wp
}

// Rates.

type wireRateRequest struct {
	RateOptions wireRateOptions  `json:"rate_options"`
	Shipment    wireRateShipment `json:"shipment"`
}

type wireRateOptions struct {
	CarrierIDs []string `json:"carrier_ids"`
}

type wireRateShipment struct {
	ShipTo      wireAddress   `json:"ship_to"`
	ShipFrom    *wireAddress  `json:"ship_from,omitempty"`
	WarehouseID string        `json:"warehouse_id,omitempty"`
	Packages    []wirePackage `json:"packages"`
}

type wireRateResponse struct {
	RateResponse struct {
		Rates  []wireRate       `json:"rates"`
		Errors []wireErrorEntry `json:"errors"`
	} `json:"rate_response"`
}

type wireRate struct {
	RateID                string     `json:"rate_id"`
	ServiceCode           string     `json:"service_code"`
	ServiceType           string     `json:"service_type"`
	CarrierID             string     `json:"carrier_id"`
	CarrierCode           string     `json:"carrier_code"`
	CarrierFriendlyName   string     `json:"carrier_friendly_name"`
	ShippingAmount        *wireMoney `json:"shipping_amount"`
	OtherAmount           *wireMoney `json:"other_amount"`
	DeliveryDays          *int       `json:"delivery_days"`
	ShipDate              string     `json:"ship_date"`
	EstimatedDeliveryDate string     `json:"estimated_delivery_date"`
}

func toWireRateRequest(c shipping.RateCriteria) wireRateRequest {
	req := wireRateRequest{
		RateOptions: wireRateOptions{CarrierIDs: c.CarrierIDs},
		Shipment: wireRateShipment{
			ShipTo:      toWireAddress(c.ShipTo),
			WarehouseID: c.WarehouseID,
			Packages:    []wirePackage{toWirePackage(shipping.Package{Weight: c.Weight, Dimensions: c.Dimensions})},
		},
	}
	if c.ShipFrom != nil {
		from := toWireAddress(*c.ShipFrom)
		req.Shipment.ShipFrom = &from
	}
	return req
}

func fromWireRate(r wireRate) shipping.Rate {
	rate := shipping.Rate{
		RateID:                r.RateID,
		ServiceCode:           r.ServiceCode,
		ServiceType:           r.ServiceType,
		CarrierID:             r.CarrierID,
		CarrierCode:           r.CarrierCode,
		CarrierName:           r.CarrierFriendlyName,
		ShippingAmount:        fromWireMoney(r.ShippingAmount),
		OtherAmount:           fromWireMoney(r.OtherAmount),
		ShipDate:              r.ShipDate,
		EstimatedDeliveryDate: r.EstimatedDeliveryDate,
	}
	if r.DeliveryDays != nil {
		rate.DeliveryDays = *r.DeliveryDays
	}
	return rate
}

// Shipments.

type wireCreateShipmentsRequest struct {
	Shipments []wireShipmentRequest `json:"shipments"`
}

type wireShipmentRequest struct {
	ValidateAddress string         `json:"validate_address"`
	CarrierID       string         `json:"carrier_id,omitempty"`
	ServiceCode     string         `json:"service_code,omitempty"`
	ExternalOrderID string         `json:"external_order_id,omitempty"`
	WarehouseID     string         `json:"warehouse_id"`
	ShipTo          wireAddress    `json:"ship_to"`
	Packages        []wirePackage  `json:"packages,omitempty"`
	Items           []wireItem     `json:"items,omitempty"`
	AmountPaid      *wireMoney     `json:"amount_paid,omitempty"`
	ShippingPaid    *wireMoney     `json:"shipping_paid,omitempty"`
	Notes           string         `json:"notes_from_buyer,omitempty"`
	AdvancedOptions map[string]any `json:"advanced_options,omitempty"`
}

type wireItem struct {
	Name      string      `json:"name"`
	SKU       string      `json:"sku,omitempty"`
	Quantity  int         `json:"quantity"`
	UnitPrice *wireMoney  `json:"unit_price,omitempty"`
	Weight    *wireWeight `json:"weight,omitempty"`
}

type wireCreateShipmentsResponse struct {
	HasErrors bool           `json:"has_errors"`
	Shipments []wireShipment `json:"shipments"`
}

type wireShipment struct {
	ShipmentID      string           `json:"shipment_id"`
	ExternalOrderID string           `json:"external_order_id"`
	ShipmentStatus  string           `json:"shipment_status"`
	CarrierID       string           `json:"carrier_id"`
	ServiceCode     string           `json:"service_code"`
	WarehouseID     string           `json:"warehouse_id"`
	CreatedAt       string           `json:"created_at"`
	Errors          []wireErrorEntry `json:"errors"`
}

// wireErrorEntry accepts both plain strings and {"message": ...} objects.
type wireErrorEntry struct {
	Code    string
	Message string
}

func (e *wireErrorEntry) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &e.Message)
	}
	var obj struct {
		ErrorCode string `json:"error_code"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	e.Code, e.Message = obj.ErrorCode, obj.Message
	if e.Message == "" {
		e.Message = e.Code
	}
	return nil
}

func toWireShipment(r shipping.ShipmentRequest) wireShipmentRequest {
	ws := wireShipmentRequest{
		ValidateAddress: "no_validation",
		CarrierID:       r.CarrierID,
		ServiceCode:     r.ServiceCode,
		ExternalOrderID: r.ExternalOrderID,
		WarehouseID:     r.WarehouseID,
		ShipTo:          toWireAddress(r.ShipTo),
		AmountPaid:      toWireMoney(r.AmountPaid),
		ShippingPaid:    toWireMoney(r.ShippingPaid),
		Notes:           r.Notes,
	}
	for _, p := range r.Packages {
		ws.Packages = append(ws.Packages, toWirePackage(p))
	}
	for _, it := range r.Items {
		wi := wireItem{
			Name:      it.Name,
			SKU:       it.SKU,
			Quantity:  it.Quantity,
			UnitPrice: toWireMoney(it.UnitPrice),
		}
		if it.Weight != nil {
			wi.Weight = &wireWeight{Value: it.Weight.Value, Unit: string(it.Weight.Unit)}
		}
		ws.Items = append(ws.Items, wi)
	}
	return ws
}

func fromWireShipment(s wireShipment) shipping.Shipment {
	out := shipping.Shipment{
		ShipmentID:      s.ShipmentID,
		ExternalOrderID: s.ExternalOrderID,
		Status:          s.ShipmentStatus,
		CarrierID:       s.CarrierID,
		ServiceCode:     s.ServiceCode,
		WarehouseID:     s.WarehouseID,
		CreatedAt:       s.CreatedAt,
	}
	for _, e := range s.Errors {
		out.Errors = append(out.Errors, e.Message)
	}
	return out
}

// Carriers.

type wireCarrier struct {
	CarrierID     string        `json:"carrier_id"`
	CarrierCode   string        `json:"carrier_code"`
	FriendlyName  string        `json:"friendly_name"`
	AccountNumber string        `json:"account_number"`
	Services      []wireService `json:"services"`
}

type wireService struct {
	CarrierID     string `json:"carrier_id"`
	ServiceCode   string `json:"service_code"`
	Name          string `json:"name"`
	Domestic      bool   `json:"domestic"`
	International bool   `json:"international"`
}

type wireCarriersResponse struct {
	Carriers []wireCarrier `json:"carriers"`
}

type wireServicesResponse struct {
	Services []wireService `json:"services"`
}

func fromWireService(s wireService) shipping.CarrierService {
	return shipping.CarrierService{
		CarrierID:     s.CarrierID,
		ServiceCode:   s.ServiceCode,
		Name:          s.Name,
		Domestic:      s.Domestic,
		International: s.International,
	}
}

func fromWireCarrier(c wireCarrier) shipping.Carrier {
	out := shipping.Carrier{
		CarrierID:     c.CarrierID,
		CarrierCode:   c.CarrierCode,
		FriendlyName:  c.FriendlyName,
		AccountNumber: c.AccountNumber,
	}
	for _, s := range c.Services {
		out.Services = append(out.Services, fromWireService(s))
	}
	return out
}

// Address validation.

type wireValidationResult struct {
	Status         string              `json:"status"`
	MatchedAddress *wireAddress        `json:"matched_address"`
	Messages       []wireValidationMsg `json:"messages"`
}

type wireValidationMsg struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Type        string `json:"type"`
	MessageType string `json:"message_type"`
}

func (m wireValidationMsg) kind() string {
	if m.MessageType != "" {
		return m.MessageType
	}
	return m.Type
}
