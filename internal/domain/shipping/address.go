package shipping

import "strings"

// Residential reports whether an address is a residence.
type Residential string

const (
	ResidentialYes     Residential = "yes"
	ResidentialNo      Residential = "no"
	ResidentialUnknown Residential = "unknown"
)

// Address is a postal address as exchanged with the provider.
type Address struct {
	Name         string      `json:"name,omitempty"`
	Company      string      `json:"company,omitempty"`
	AddressLine1 string      `json:"address_line1"`
	AddressLine2 string      `json:"address_line2,omitempty"`
	City         string      `json:"city"`
	Region       string      `json:"region"`
	PostalCode   string      `json:"postal_code"`
	CountryCode  string      `json:"country_code"`
	Phone        string      `json:"phone,omitempty"`
	Residential  Residential `json:"residential,omitempty"`
}

// Names of the address fields required before a shipment can be built.
const (
	FieldAddressLine1 = "address_line1"
	FieldCity         = "city"
	FieldRegion       = "region"
	FieldPostalCode   = "postal_code"
	FieldCountryCode  = "country_code"
)

// MissingFields returns the required fields that are blank, in a stable
// order. A nil address is missing all of them.
func (a *Address) MissingFields() []string {
	if a == nil {
		return []string{FieldAddressLine1, FieldCity, FieldRegion, FieldPostalCode, FieldCountryCode}
	}
	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	check(FieldAddressLine1, a.AddressLine1)
	check(FieldCity, a.City)
	check(FieldRegion, a.Region)
	check(FieldPostalCode, a.PostalCode)
	check(FieldCountryCode, a.CountryCode)
	return missing
}

// ResidentialOrUnknown returns the residential indicator, defaulting to
// ResidentialUnknown for empty or unrecognised values.
func (a Address) ResidentialOrUnknown() Residential {
	switch a.Residential {
	case ResidentialYes, ResidentialNo:
		return a.Residential
	default:
		return ResidentialUnknown
	}
}
