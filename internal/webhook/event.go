package webhook

import (
	"encoding/json"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/shipbridge/internal/domain/shipping"
)

// Event types accepted from the provider.
const (
	TypeShipmentCreated = "shipment.created"
	trackingPrefix      = "tracking."
)

// ErrUnsupportedEvent is returned for events that do not map to a
// shipping status.
var ErrUnsupportedEvent = errors.New("unsupported webhook event")

// Event is a provider notification about one shipment.
type Event struct {
	Type string    `json:"event"`
	Data EventData `json:"data"`
}

// EventData is the shipment-specific part of an event.
type EventData struct {
	ShipmentID        string `json:"shipment_id"`
	TrackingNumber    string `json:"tracking_number,omitempty"`
	StatusCode        string `json:"status_code,omitempty"`
	StatusDescription string `json:"status_description,omitempty"`
}

// trackingStatuses maps provider tracking codes to shipping statuses.
var trackingStatuses = map[string]shipping.Status{
	"AC": shipping.StatusShipped,
	"IT": shipping.StatusInTransit,
	"AT": shipping.StatusOutForDelivery,
	"DE": shipping.StatusDelivered,
	"SP": shipping.StatusDelivered,
	"EX": shipping.StatusException,
	"RS": shipping.StatusReturned,
}

// Parse decodes an event body.
func Parse(body []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return Event{}, errors.Wrap(err, "decode event")
	}
	if ev.Type == "" {
		return Event{}, errors.New("event type is required")
	}
	if ev.Data.ShipmentID == "" {
		return Event{}, errors.New("shipment_id is required")
	}
	return ev, nil
}

// Status returns the shipping status the event reports.
func (e Event) Status() (shipping.Status, error) {
	switch {
	case e.Type == TypeShipmentCreated:
		return shipping.StatusProcessing, nil
	case strings.HasPrefix(e.Type, trackingPrefix):
		s, ok := trackingStatuses[strings.ToUpper(e.Data.StatusCode)]
		if !ok {
			return "", errors.Wrapf(ErrUnsupportedEvent, "tracking status %q", e.Data.StatusCode)
		}
		return s, nil
	}
	return "", errors.Wrapf(ErrUnsupportedEvent, "%q", e.Type)
}
