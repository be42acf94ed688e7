package shipping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{"", StatusProcessing, true},
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusManualReview, true},
		{StatusPending, StatusDelivered, false},
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusManualReview, false},
		{StatusShipped, StatusInTransit, true},
		{StatusInTransit, StatusOutForDelivery, true},
		{StatusOutForDelivery, StatusDelivered, true},
		{StatusInTransit, StatusShipped, false},
		{StatusException, StatusInTransit, true},
		{StatusDelivered, StatusReturned, false},
		{StatusManualReview, StatusPending, true},
		{StatusManualReview, StatusProcessing, false},
		{StatusDelivered, StatusDelivered, true},
		{StatusPending, "bogus", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%q -> %q", tt.from, tt.to)
	}
}

func TestTransition(t *testing.T) {
	got, err := Transition(StatusPending, StatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, got)

	got, err = Transition(StatusDelivered, StatusInTransit)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusDelivered, got)
}

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusReturned.Terminal())
	assert.True(t, StatusManualReview.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusException.Terminal())
}
