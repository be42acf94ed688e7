package shipping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeight_KilogramsRoundTrip(t *testing.T) {
	units := []WeightUnit{Gram, Ounce, Pound, Kilogram}
	values := []float64{0.001, 0.5, 1, 3.75, 16, 453.59237, 1000, 12345.678}

	for _, unit := range units {
		for _, v := range values {
			kg, err := Weight{Value: v, Unit: unit}.Kilograms()
			require.NoError(t, err)

			back, err := FromKilograms(kg, unit)
			require.NoError(t, err)
			assert.Equal(t, unit, back.Unit)
			assert.InDelta(t, v, back.Value, v*1e-12, "%v %s", v, unit)
		}
	}
}

func TestWeight_Kilograms(t *testing.T) {
	tests := []struct {
		w    Weight
		want float64
	}{
		{Weight{Value: 1, Unit: Pound}, 0.45359237},
		{Weight{Value: 1, Unit: Ounce}, 0.0283495231},
		{Weight{Value: 1500, Unit: Gram}, 1.5},
		{Weight{Value: 2, Unit: Kilogram}, 2},
	}
	for _, tt := range tests {
		got, err := tt.w.Kilograms()
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-12)
	}

	_, err := Weight{Value: 1, Unit: "stone"}.Kilograms()
	require.ErrorIs(t, err, ErrUnknownWeightUnit)
}

func TestWeight_Normalize(t *testing.T) {
	for in, want := range map[string]WeightUnit{
		"lbs": Pound, "LB": Pound, " kg ": Kilogram, "oz": Ounce, "grams": Gram,
	} {
		w, err := Weight{Value: 2, Unit: WeightUnit(in)}.Normalize()
		require.NoError(t, err, in)
		assert.Equal(t, want, w.Unit, in)
		assert.Equal(t, 2.0, w.Value)
	}

	_, err := Weight{Value: 1, Unit: "tonne"}.Normalize()
	require.ErrorIs(t, err, ErrUnknownWeightUnit)
}

func TestWeight_Valid(t *testing.T) {
	assert.True(t, Weight{Value: 0.1, Unit: Gram}.Valid())
	assert.False(t, Weight{Value: 0, Unit: Gram}.Valid())
	assert.False(t, Weight{Value: -1, Unit: Pound}.Valid())
	assert.False(t, Weight{Value: 1}.Valid())
}

func TestDimensions_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   Dimensions
		want Dimensions
	}{
		{"inch unchanged", Dimensions{10, 5, 2, "in"}, Dimensions{10, 5, 2, Inch}},
		{"feet to inch", Dimensions{1, 0.5, 2, "ft"}, Dimensions{12, 6, 24, Inch}},
		{"centimeter unchanged", Dimensions{30, 20, 10, "CM"}, Dimensions{30, 20, 10, Centimeter}},
		{"millimeter to cm", Dimensions{305, 200, 15, "mm"}, Dimensions{30.5, 20, 1.5, Centimeter}},
		{"meter to cm", Dimensions{0.3, 0.25, 0.1, "m"}, Dimensions{30, 25, 10, Centimeter}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Normalize()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Dimensions{1, 1, 1, "cubit"}.Normalize()
	require.ErrorIs(t, err, ErrUnknownDimensionUnit)
}

func TestRoundWeight(t *testing.T) {
	assert.Equal(t, 3.5, RoundWeight(1.5*2+0.5))
	assert.Equal(t, 0.454, RoundWeight(0.45359237))
	assert.Equal(t, 0.3, RoundWeight(0.1+0.2))
}
