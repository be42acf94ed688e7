package shipctl

import (
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/xenking/shipbridge/internal/domain/shipping"
)

type addressFlags struct {
	name, line1, city, region, postal, country string
}

func (a *addressFlags) register(cmd *cobra.Command, prefix string) {
	fs := cmd.Flags()
	fs.StringVar(&a.name, prefix+"name", "", "Recipient name")
	fs.StringVar(&a.line1, prefix+"line1", "", "Street address")
	fs.StringVar(&a.city, prefix+"city", "", "City")
	fs.StringVar(&a.region, prefix+"region", "", "State or province code")
	fs.StringVar(&a.postal, prefix+"postal-code", "", "Postal code")
	fs.StringVar(&a.country, prefix+"country", "US", "ISO 3166-1 alpha-2 country code")
}

func (a *addressFlags) address() shipping.Address {
	return shipping.Address{
		Name:         a.name,
		AddressLine1: a.line1,
		City:         a.city,
		Region:       a.region,
		PostalCode:   a.postal,
		CountryCode:  strings.ToUpper(a.country),
	}
}

// parseDimensions reads LxWxH, for example "12x8x4".
func parseDimensions(s, unit string) (*shipping.Dimensions, error) {
	parts := strings.Split(strings.ToLower(s), "x")
	if len(parts) != 3 {
		return nil, errors.Errorf("dimensions %q: want LxWxH", s)
	}
	var v [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || f <= 0 {
			return nil, errors.Errorf("dimensions %q: %q is not a positive number", s, p)
		}
		v[i] = f
	}
	d, err := shipping.Dimensions{Length: v[0], Width: v[1], Height: v[2], Unit: shipping.DimensionUnit(unit)}.Normalize()
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateRatesCommand quotes rates for one package.
func (f CommandFactory) CreateRatesCommand(flags *Flags) *cobra.Command {
	var (
		to          addressFlags
		warehouseID string
		weight      float64
		weightUnit  string
		dims        string
		dimUnit     string
		carrierIDs  []string
	)
	c := &cobra.Command{
		Use:   "rates",
		Short: "Quote shipping rates for a package",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if to.postal == "" {
				return errors.New("--to-postal-code is required")
			}
			if weight <= 0 {
				return errors.New("--weight must be positive")
			}
			unit, err := shipping.ParseWeightUnit(weightUnit)
			if err != nil {
				return err
			}
			criteria := shipping.RateCriteria{
				ShipTo:      to.address(),
				WarehouseID: warehouseID,
				Weight:      shipping.Weight{Value: weight, Unit: unit},
				CarrierIDs:  carrierIDs,
			}
			if dims != "" {
				if criteria.Dimensions, err = parseDimensions(dims, dimUnit); err != nil {
					return err
				}
			}

			client, err := f.NewClient(flags)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), client.GetRates(cmd.Context(), criteria))
		},
	}
	to.register(c, "to-")
	fs := c.Flags()
	fs.StringVar(&warehouseID, "warehouse", "", "Origin warehouse id")
	fs.Float64Var(&weight, "weight", 0, "Package weight")
	fs.StringVar(&weightUnit, "weight-unit", "lb", "Weight unit: oz, lb, g, kg")
	fs.StringVar(&dims, "dimensions", "", "Package size as LxWxH")
	fs.StringVar(&dimUnit, "dimension-unit", "in", "Dimension unit: in, cm, mm, m, ft")
	fs.StringSliceVar(&carrierIDs, "carrier", nil, "Carrier id to quote; repeatable")
	return c
}

// CreateValidateAddressCommand checks an address with the provider.
func (f CommandFactory) CreateValidateAddressCommand(flags *Flags) *cobra.Command {
	var addr addressFlags
	c := &cobra.Command{
		Use:   "validate-address",
		Short: "Validate and normalize an address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr.line1 == "" || addr.postal == "" {
				return errors.New("--line1 and --postal-code are required")
			}
			client, err := f.NewClient(flags)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), client.ValidateAddress(cmd.Context(), addr.address()))
		},
	}
	addr.register(c, "")
	return c
}
