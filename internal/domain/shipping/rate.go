package shipping

// Rate is a quoted price for one carrier service. Rates are only produced
// by the provider client from a provider response.
type Rate struct {
	RateID                string `json:"rate_id"`
	ServiceCode           string `json:"service_code"`
	ServiceType           string `json:"service_type"`
	CarrierID             string `json:"carrier_id"`
	CarrierCode           string `json:"carrier_code"`
	CarrierName           string `json:"carrier_name"`
	ShippingAmount        Money  `json:"shipping_amount"`
	OtherAmount           Money  `json:"other_amount"`
	DeliveryDays          int    `json:"delivery_days,omitempty"`
	ShipDate              string `json:"ship_date,omitempty"`
	EstimatedDeliveryDate string `json:"estimated_delivery_date,omitempty"`
}

// Total returns the shipping amount plus ancillary charges.
func (r Rate) Total() Money {
	return Money{
		Amount:   r.ShippingAmount.Amount.Add(r.OtherAmount.Amount),
		Currency: r.ShippingAmount.Currency,
	}
}

// RateCriteria selects the package and route to quote. Either ShipFrom or
// WarehouseID identifies the origin.
type RateCriteria struct {
	ShipTo        Address
	ShipFrom      *Address
	WarehouseID   string
	Weight        Weight
	Dimensions    *Dimensions
	CarrierIDs    []string
	ShippingClass string
}

// Normalize resolves weight and dimension units so that equivalent inputs
// compare equal.
func (c RateCriteria) Normalize() (RateCriteria, error) {
	w, err := c.Weight.Normalize()
	if err != nil {
		return RateCriteria{}, err
	}
	c.Weight = w
	if c.Dimensions != nil {
		d, err := c.Dimensions.Normalize()
		if err != nil {
			return RateCriteria{}, err
		}
		c.Dimensions = &d
	}
	return c, nil
}

// Carrier is a shipping company account connected to the provider.
type Carrier struct {
	CarrierID     string           `json:"carrier_id"`
	CarrierCode   string           `json:"carrier_code"`
	FriendlyName  string           `json:"friendly_name"`
	AccountNumber string           `json:"account_number,omitempty"`
	Services      []CarrierService `json:"services,omitempty"`
}

// CarrierService is one service level offered by a carrier.
type CarrierService struct {
	CarrierID     string `json:"carrier_id"`
	ServiceCode   string `json:"service_code"`
	Name          string `json:"name"`
	Domestic      bool   `json:"domestic"`
	International bool   `json:"international"`
}

// AddressValidation is the outcome of a best-effort address check.
type AddressValidation struct {
	IsValid           bool     `json:"is_valid"`
	NormalizedAddress *Address `json:"normalized_address,omitempty"`
	Warnings          []string `json:"warnings,omitempty"`
	Errors            []string `json:"errors,omitempty"`
}
