package shipping

import "github.com/go-faster/errors"

// Status is an order's shipping status.
type Status string

const (
	StatusPending        Status = "pending"
	StatusProcessing     Status = "processing"
	StatusShipped        Status = "shipped"
	StatusInTransit      Status = "in_transit"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusException      Status = "exception"
	StatusReturned       Status = "returned"
	// StatusManualReview is a sink for failed automatic shipment creation.
	// Only a human moves an order out of it, back to pending.
	StatusManualReview Status = "manual_review"
)

// ErrInvalidTransition is returned when a status change is not allowed.
var ErrInvalidTransition = errors.New("invalid shipping status transition")

var transitions = map[Status][]Status{
	StatusPending:        {StatusProcessing, StatusManualReview},
	StatusProcessing:     {StatusShipped, StatusInTransit, StatusOutForDelivery, StatusDelivered, StatusException, StatusReturned},
	StatusShipped:        {StatusInTransit, StatusOutForDelivery, StatusDelivered, StatusException, StatusReturned},
	StatusInTransit:      {StatusOutForDelivery, StatusDelivered, StatusException, StatusReturned},
	StatusOutForDelivery: {StatusDelivered, StatusException, StatusReturned},
	StatusException:      {StatusInTransit, StatusOutForDelivery, StatusDelivered, StatusReturned},
	StatusManualReview:   {StatusPending},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusInTransit,
		StatusOutForDelivery, StatusDelivered, StatusException, StatusReturned,
		StatusManualReview:
		return true
	}
	return false
}

// Terminal reports whether no further automatic transitions leave s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0 || s == StatusManualReview
}

// OrPending treats an empty status as pending: an order without shipping
// history has not been handed to the provider yet.
func (s Status) OrPending() Status {
	if s == "" {
		return StatusPending
	}
	return s
}

// CanTransition reports whether from may move to to. Staying in the same
// state is always allowed so that repeated events are idempotent.
func CanTransition(from, to Status) bool {
	from = from.OrPending()
	if !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates a status change and returns the new status.
func Transition(from, to Status) (Status, error) {
	if !CanTransition(from, to) {
		return from, errors.Wrapf(ErrInvalidTransition, "%s -> %s", from.OrPending(), to)
	}
	return to, nil
}
