package shipping

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// WeightUnit is a unit of mass accepted by the provider.
type WeightUnit string

const (
	Ounce    WeightUnit = "ounce"
	Pound    WeightUnit = "pound"
	Gram     WeightUnit = "gram"
	Kilogram WeightUnit = "kilogram"
)

// DimensionUnit is a unit of length. Only Inch and Centimeter are sent to
// the provider; the rest are accepted on input and normalized.
type DimensionUnit string

const (
	Inch       DimensionUnit = "inch"
	Centimeter DimensionUnit = "centimeter"
	Millimeter DimensionUnit = "millimeter"
	Meter      DimensionUnit = "meter"
	Foot       DimensionUnit = "foot"
)

// Kilograms per unit.
const (
	kilogramsPerPound = 0.45359237
	kilogramsPerOunce = 0.0283495231
	kilogramsPerGram  = 0.001
)

// WeightPrecision is the number of decimal places kept on aggregated
// weights sent over the wire.
const WeightPrecision = 3

var (
	// ErrUnknownWeightUnit is returned for unrecognised weight unit names.
	ErrUnknownWeightUnit = errors.New("unknown weight unit")
	// ErrUnknownDimensionUnit is returned for unrecognised length unit names.
	ErrUnknownDimensionUnit = errors.New("unknown dimension unit")
)

// Weight is a mass with an explicit unit.
type Weight struct {
	Value float64    `json:"value"`
	Unit  WeightUnit `json:"unit"`
}

// Dimensions describe a package's outer size.
type Dimensions struct {
	Length float64       `json:"length"`
	Width  float64       `json:"width"`
	Height float64       `json:"height"`
	Unit   DimensionUnit `json:"unit"`
}

var weightAliases = map[string]WeightUnit{
	"ounce": Ounce, "ounces": Ounce, "oz": Ounce,
	"pound": Pound, "pounds": Pound, "lb": Pound, "lbs": Pound,
	"gram": Gram, "grams": Gram, "g": Gram,
	"kilogram": Kilogram, "kilograms": Kilogram, "kg": Kilogram, "kgs": Kilogram,
}

var dimensionAliases = map[string]DimensionUnit{
	"inch": Inch, "inches": Inch, "in": Inch,
	"centimeter": Centimeter, "centimeters": Centimeter, "cm": Centimeter,
	"millimeter": Millimeter, "millimeters": Millimeter, "mm": Millimeter,
	"meter": Meter, "meters": Meter, "m": Meter,
	"foot": Foot, "feet": Foot, "ft": Foot,
}

// ParseWeightUnit maps a unit name or abbreviation to a WeightUnit.
func ParseWeightUnit(s string) (WeightUnit, error) {
	u, ok := weightAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", errors.Wrapf(ErrUnknownWeightUnit, "%q", s)
	}
	return u, nil
}

// ParseDimensionUnit maps a unit name or abbreviation to a DimensionUnit.
func ParseDimensionUnit(s string) (DimensionUnit, error) {
	u, ok := dimensionAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", errors.Wrapf(ErrUnknownDimensionUnit, "%q", s)
	}
	return u, nil
}

func kilogramsPer(u WeightUnit) (float64, error) {
	switch u {
	case Kilogram:
		return 1, nil
	case Gram:
		return kilogramsPerGram, nil
	case Pound:
		return kilogramsPerPound, nil
	case Ounce:
		return kilogramsPerOunce, nil
	default:
		return 0, errors.Wrapf(ErrUnknownWeightUnit, "%q", u)
	}
}

// Kilograms converts w to kilograms.
func (w Weight) Kilograms() (float64, error) {
	f, err := kilogramsPer(w.Unit)
	if err != nil {
		return 0, err
	}
	return w.Value * f, nil
}

// FromKilograms converts a kilogram value to the given unit.
func FromKilograms(kg float64, unit WeightUnit) (Weight, error) {
	f, err := kilogramsPer(unit)
	if err != nil {
		return Weight{}, err
	}
	return Weight{Value: kg / f, Unit: unit}, nil
}

// Normalize resolves unit aliases ("lbs", "KG") to their canonical name.
func (w Weight) Normalize() (Weight, error) {
	u, err := ParseWeightUnit(string(w.Unit))
	if err != nil {
		return Weight{}, err
	}
	return Weight{Value: w.Value, Unit: u}, nil
}

// Valid reports whether the weight carries a positive value and a known unit.
func (w Weight) Valid() bool {
	_, err := kilogramsPer(w.Unit)
	return err == nil && w.Value > 0
}

// Normalize converts dimensions to inches or centimeters: imperial inputs
// become inches, metric inputs become centimeters.
func (d Dimensions) Normalize() (Dimensions, error) {
	u, err := ParseDimensionUnit(string(d.Unit))
	if err != nil {
		return Dimensions{}, err
	}
	scale := func(f float64, unit DimensionUnit) Dimensions {
		return Dimensions{
			Length: roundTo(d.Length*f, 4),
			Width:  roundTo(d.Width*f, 4),
			Height: roundTo(d.Height*f, 4),
			Unit:   unit,
		}
	}
	switch u {
	case Inch:
		return scale(1, Inch), nil
	case Foot:
		return scale(12, Inch), nil
	case Centimeter:
		return scale(1, Centimeter), nil
	case Millimeter:
		return scale(0.1, Centimeter), nil
	case Meter:
		return scale(100, Centimeter), nil
	}
	return Dimensions{}, errors.Wrapf(ErrUnknownDimensionUnit, "%q", d.Unit)
}

// RoundWeight rounds v to WeightPrecision decimal places.
func RoundWeight(v float64) float64 {
	return roundTo(v, WeightPrecision)
}

func roundTo(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
