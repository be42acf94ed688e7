package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/shipbridge/internal/domain/shipping"
)

func testCriteria() shipping.RateCriteria {
	return shipping.RateCriteria{
		ShipTo: shipping.Address{
			AddressLine1: "1 Main St",
			City:         "Austin",
			Region:       "TX",
			PostalCode:   "78701",
			CountryCode:  "US",
		},
		WarehouseID: "se-wh-1",
		Weight:      shipping.Weight{Value: 1.5, Unit: shipping.Kilogram},
		CarrierIDs:  []string{"se-1"},
	}
}

func TestGetRates(t *testing.T) {
	var body []byte
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		_, _ = io.WriteString(w, `{"rate_response":{"rates":[{
			"rate_id":"rate-1","service_code":"ups_ground","service_type":"UPS Ground",
			"carrier_id":"se-1","carrier_code":"ups","carrier_friendly_name":"UPS",
			"shipping_amount":{"currency":"usd","amount":9.5},
			"other_amount":{"currency":"usd","amount":"0.25"},
			"delivery_days":3
		}],"errors":[]}}`)
	}))

	rates := c.GetRates(context.Background(), testCriteria())
	require.Len(t, rates, 1)

	r := rates[0]
	assert.Equal(t, "rate-1", r.RateID)
	assert.Equal(t, "UPS", r.CarrierName)
	assert.Equal(t, 3, r.DeliveryDays)
	assert.True(t, decimal.RequireFromString("9.5").Equal(r.ShippingAmount.Amount))
	assert.True(t, decimal.RequireFromString("0.25").Equal(r.OtherAmount.Amount))

	var sent map[string]any
	require.NoError(t, json.Unmarshal(body, &sent))
	assert.Equal(t, []any{"se-1"}, sent["rate_options"].(map[string]any)["carrier_ids"])
	shipment := sent["shipment"].(map[string]any)
	assert.Equal(t, "se-wh-1", shipment["warehouse_id"])
	assert.Equal(t, "Austin", shipment["ship_to"].(map[string]any)["city_locality"])
}

func TestGetRates_Advisory(t *testing.T) {
	tests := []struct {
		name      string
		criteria  func() shipping.RateCriteria
		status    int
		body      string
		wantCalls int32
	}{
		{
			name: "no carriers",
			criteria: func() shipping.RateCriteria {
				c := testCriteria()
				c.CarrierIDs = nil
				return c
			},
			wantCalls: 0,
		},
		{
			name:      "client error",
			criteria:  testCriteria,
			status:    http.StatusBadRequest,
			body:      `{"message":"bad"}`,
			wantCalls: 1,
		},
		{
			name:      "server error after retries",
			criteria:  testCriteria,
			status:    http.StatusInternalServerError,
			wantCalls: 4,
		},
		{
			name:      "malformed body",
			criteria:  testCriteria,
			status:    http.StatusOK,
			body:      `{"rate_response":`,
			wantCalls: 1,
		},
		{
			name:      "no rates",
			criteria:  testCriteria,
			status:    http.StatusOK,
			body:      `{"rate_response":{"rates":[],"errors":[{"error_code":"x","message":"no service"}]}}`,
			wantCalls: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))

			rates := c.GetRates(context.Background(), tt.criteria())
			require.NotNil(t, rates)
			assert.Empty(t, rates)
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestCreateShipment(t *testing.T) {
	var (
		idemKey string
		body    []byte
	)
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idemKey = r.Header.Get(headerIdempotencyKey)
		body, _ = io.ReadAll(r.Body)
		_, _ = io.WriteString(w, `{"has_errors":false,"shipments":[{"shipment_id":"se-123","external_order_id":"ord-1","shipment_status":"pending","errors":null}]}`)
	}))

	paid := shipping.MinorToMajor(1250, "usd")
	resp, err := c.CreateShipment(context.Background(), shipping.ShipmentRequest{
		ExternalOrderID: "ord-1",
		WarehouseID:     "se-wh-1",
		ShipTo:          testCriteria().ShipTo,
		Packages:        []shipping.Package{{Weight: shipping.Weight{Value: 3.5, Unit: shipping.Kilogram}}},
		Items:           []shipping.ShipmentItem{{Name: "Mug", Quantity: 2}},
		ShippingPaid:    &paid,
	})
	require.NoError(t, err)
	require.Len(t, resp.Shipments, 1)
	assert.False(t, resp.HasErrors)
	assert.Equal(t, "se-123", resp.Shipments[0].ShipmentID)
	assert.Empty(t, resp.Shipments[0].Errors)

	assert.Equal(t, IdempotencyKey("ord-1"), idemKey)
	assert.Equal(t, IdempotencyKey("ord-1"), IdempotencyKey("ord-1"))
	assert.NotEqual(t, IdempotencyKey("ord-1"), IdempotencyKey("ord-2"))

	var sent struct {
		Shipments []struct {
			WarehouseID  string `json:"warehouse_id"`
			ShippingPaid struct {
				Currency string          `json:"currency"`
				Amount   json.RawMessage `json:"amount"`
			} `json:"shipping_paid"`
			Packages []struct {
				Weight struct {
					Value float64 `json:"value"`
					Unit  string  `json:"unit"`
				} `json:"weight"`
			} `json:"packages"`
		} `json:"shipments"`
	}
	require.NoError(t, json.Unmarshal(body, &sent))
	require.Len(t, sent.Shipments, 1)
	s := sent.Shipments[0]
	assert.Equal(t, "se-wh-1", s.WarehouseID)
	assert.Equal(t, "USD", s.ShippingPaid.Currency)
	assert.Equal(t, "12.5", string(s.ShippingPaid.Amount))
	require.Len(t, s.Packages, 1)
	assert.Equal(t, 3.5, s.Packages[0].Weight.Value)
	assert.Equal(t, "kilogram", s.Packages[0].Weight.Unit)
}

func TestCreateShipment_BusinessErrorsReturned(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"has_errors":true,"shipments":[{"shipment_id":"","errors":["Invalid postal code",{"error_code":"x","message":"Carrier rejected"}]}]}`)
	}))

	resp, err := c.CreateShipment(context.Background(), shipping.ShipmentRequest{ExternalOrderID: "ord-1"})
	require.NoError(t, err)
	assert.True(t, resp.HasErrors)
	require.Len(t, resp.Shipments, 1)
	assert.Equal(t, []string{"Invalid postal code", "Carrier rejected"}, resp.Shipments[0].Errors)
}

func TestCancelShipment(t *testing.T) {
	var (
		method string
		path   string
	)
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))

	res, err := c.CancelShipment(context.Background(), "se-123")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/v1/shipments/se-123/cancel", path)

	_, err = c.CancelShipment(context.Background(), "")
	require.Error(t, err)
}

func TestGetShipment_NotFound(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"errors":[{"error_code":"not_found","message":"shipment not found"}]}`)
	}))

	_, err := c.GetShipment(context.Background(), "se-missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestListCarrierServices(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/carriers/se-1/services", r.URL.Path)
		_, _ = io.WriteString(w, `{"services":[{"carrier_id":"se-1","service_code":"ups_ground","name":"UPS Ground","domestic":true}]}`)
	}))

	services, err := c.ListCarrierServices(context.Background(), "se-1")
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, "ups_ground", services[0].ServiceCode)
	assert.True(t, services[0].Domestic)
}

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantValid    bool
		wantErrors   []string
		wantWarnings []string
		wantCity     string
	}{
		{
			name:      "verified",
			status:    http.StatusOK,
			body:      `[{"status":"verified","matched_address":{"address_line1":"1 MAIN ST","city_locality":"AUSTIN","state_province":"TX","postal_code":"78701-0001","country_code":"US","address_residential_indicator":"yes"},"messages":[]}]`,
			wantValid: true,
			wantCity:  "AUSTIN",
		},
		{
			name:         "warning is valid",
			status:       http.StatusOK,
			body:         `[{"status":"warning","messages":[{"message":"suite missing","type":"warning"}]}]`,
			wantValid:    true,
			wantWarnings: []string{"suite missing"},
		},
		{
			name:       "error status",
			status:     http.StatusOK,
			body:       `[{"status":"error","messages":[{"message":"postal code not found","message_type":"error"}]}]`,
			wantErrors: []string{"postal code not found"},
		},
		{
			name:       "unverified without messages",
			status:     http.StatusOK,
			body:       `[{"status":"unverified"}]`,
			wantErrors: []string{"address status: unverified"},
		},
		{
			name:       "empty result",
			status:     http.StatusOK,
			body:       `[]`,
			wantErrors: []string{"address validation returned no result"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))

			res := c.ValidateAddress(context.Background(), testCriteria().ShipTo)
			assert.Equal(t, tt.wantValid, res.IsValid)
			assert.Equal(t, tt.wantErrors, res.Errors)
			assert.Equal(t, tt.wantWarnings, res.Warnings)
			if tt.wantCity != "" {
				require.NotNil(t, res.NormalizedAddress)
				assert.Equal(t, tt.wantCity, res.NormalizedAddress.City)
				assert.Equal(t, shipping.ResidentialYes, res.NormalizedAddress.Residential)
			}
		})
	}
}

func TestValidateAddress_ProviderFailure(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	res := c.ValidateAddress(context.Background(), testCriteria().ShipTo)
	assert.False(t, res.IsValid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "address validation unavailable")
}
