package ratecache

import (
	"strconv"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/shipbridge/internal/domain/shipping"
)

// KeyFor derives the cache key for a rate lookup. Units are normalized
// before the key is built, so "lbs" and "pound" share a key while a pound
// and a kilogram weight of the same value do not.
//
// Segments are, in order: postal code, region, country, weight value,
// weight unit, dimensions, shipping class. Absent optional segments are
// empty, so every key has the same number of separators.
func KeyFor(c shipping.RateCriteria) (string, error) {
	n, err := c.Normalize()
	if err != nil {
		return "", errors.Wrap(err, "normalize criteria")
	}

	var dims string
	if d := n.Dimensions; d != nil {
		dims = formatFloat(d.Length) + "x" + formatFloat(d.Width) + "x" + formatFloat(d.Height) + string(d.Unit)
	}

	return strings.Join([]string{
		normalizeToken(n.ShipTo.PostalCode),
		normalizeToken(n.ShipTo.Region),
		normalizeToken(n.ShipTo.CountryCode),
		formatFloat(shipping.RoundWeight(n.Weight.Value)),
		string(n.Weight.Unit),
		dims,
		strings.ToLower(strings.TrimSpace(n.ShippingClass)),
	}, ":"), nil
}

func normalizeToken(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
