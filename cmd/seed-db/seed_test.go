package main

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/shipbridge/db"
	"github.com/xenking/shipbridge/internal/domain/order"
	"github.com/xenking/shipbridge/internal/domain/shipping"
)

// --- Mock implementations ---

type memStore struct {
	orders  map[string]*order.Order
	created []string
	getErr  error
}

func (m *memStore) Get(_ context.Context, id string) (*order.Order, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if o, ok := m.orders[id]; ok {
		return o, nil
	}
	return nil, errors.Wrapf(order.ErrNotFound, "order %s", id)
}

func (m *memStore) Create(_ context.Context, o *order.Order) error {
	m.orders[o.ID] = o
	m.created = append(m.created, o.ID)
	return nil
}

// --- Tests ---

func TestParseOrders_Embedded(t *testing.T) {
	orders, err := parseOrders(db.SeedOrders)
	require.NoError(t, err)
	require.Len(t, orders, 3)

	first := orders[0]
	assert.Equal(t, "ord-1001", first.ID)
	assert.Equal(t, order.MethodShipping, first.ShippingMethod)
	assert.Equal(t, shipping.StatusPending, first.ShippingStatus)
	require.NotNil(t, first.ShippingAddress)
	assert.Equal(t, "78701", first.ShippingAddress.PostalCode)
	require.NotNil(t, first.SelectedRate)
	assert.Equal(t, int64(899), *first.SelectedRate.Cost)
	require.Len(t, first.Items, 2)
	assert.Equal(t, &shipping.Weight{Value: 400, Unit: shipping.Gram}, first.Items[1].Weight)

	assert.Equal(t, order.MethodPickup, orders[1].ShippingMethod)
	assert.Nil(t, orders[1].ShippingAddress)
}

func TestParseOrders_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: `{`},
		{name: "missing id", data: `[{"shipping_method":"shipping"}]`},
		{name: "duplicate id", data: `[{"id":"a","shipping_method":"pickup"},{"id":"a","shipping_method":"pickup"}]`},
		{name: "unknown method", data: `[{"id":"a","shipping_method":"drone"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseOrders([]byte(tt.data))
			require.Error(t, err)
		})
	}
}

func TestSeedOrders_SkipsExisting(t *testing.T) {
	shipped := &order.Order{ID: "ord-1001", ShippingStatus: shipping.StatusShipped}
	store := &memStore{orders: map[string]*order.Order{"ord-1001": shipped}}

	orders, err := parseOrders(db.SeedOrders)
	require.NoError(t, err)
	require.NoError(t, seedOrders(context.Background(), zap.NewNop(), store, orders))

	assert.Equal(t, []string{"ord-1002", "ord-1003"}, store.created)
	assert.Same(t, shipped, store.orders["ord-1001"])
}

func TestSeedOrders_GetError(t *testing.T) {
	store := &memStore{orders: map[string]*order.Order{}, getErr: errors.New("connection refused")}
	err := seedOrders(context.Background(), zap.NewNop(), store, []*order.Order{{ID: "a"}})
	require.Error(t, err)
	assert.Empty(t, store.created)
}
