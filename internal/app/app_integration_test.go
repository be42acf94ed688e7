//go:build integration

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap/zaptest"

	"github.com/xenking/shipbridge/internal/domain/auth"
	"github.com/xenking/shipbridge/internal/domain/order"
	"github.com/xenking/shipbridge/internal/domain/shipping"
	"github.com/xenking/shipbridge/internal/storage/postgres"
	"github.com/xenking/shipbridge/internal/webhook"
)

// --- Mock implementations ---

type noopTelemetry struct{}

func (noopTelemetry) MeterProvider() metric.MeterProvider { return metricnoop.NewMeterProvider() }
func (noopTelemetry) TracerProvider() trace.TracerProvider { return tracenoop.NewTracerProvider() }

// fakeProvider answers the provider endpoints the service calls.
type fakeProvider struct {
	rateCalls     atomic.Int32
	shipmentCalls atomic.Int32
}

func (p *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("API-Key") != "TEST_provider" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"errors":[{"error_code":"unauthorized","message":"bad key"}]}`)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v1/rates":
		p.rateCalls.Add(1)
		_, _ = io.WriteString(w, `{"rate_response":{"rates":[{
			"rate_id":"se-rate-1","service_code":"usps_priority_mail","carrier_id":"se-1",
			"carrier_friendly_name":"USPS","delivery_days":2,
			"shipping_amount":{"currency":"USD","amount":8.99},
			"other_amount":{"currency":"USD","amount":0}
		}],"errors":[]}}`)
	case r.Method == http.MethodPost && r.URL.Path == "/v1/shipments":
		n := p.shipmentCalls.Add(1)
		_, _ = fmt.Fprintf(w, `{"has_errors":false,"shipments":[{"shipment_id":"se-ship-%d","shipment_status":"pending","errors":[]}]}`, n)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"errors":[{"error_code":"not_found","message":"not found"}]}`)
	}
}

// --- Helpers ---

const (
	operatorKey   = "operator-key"
	pepper        = "integration-pepper"
	webhookSecret = "integration-secret"
)

type env struct {
	baseURL  string
	orders   *postgres.OrderRepository
	provider *fakeProvider
}

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "shipbridge",
				"POSTGRES_PASSWORD": "shipbridge",
				"POSTGRES_DB":       "shipbridge",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	return "postgres://shipbridge:shipbridge@" + host + ":" + port.Port() + "/shipbridge?sslmode=disable"
}

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func startService(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	dsn := startPostgres(t)

	pool, err := postgres.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.RunMigrations(ctx, pool))

	orders := postgres.NewOrderRepository(pool)
	for _, o := range []*order.Order{
		{
			ID:             "ord-ship",
			ShippingMethod: order.MethodShipping,
			ShippingAddress: &shipping.Address{
				Name: "Ada", AddressLine1: "500 Congress Ave", City: "Austin",
				Region: "TX", PostalCode: "78701", CountryCode: "US",
			},
			Items: []order.LineItem{{
				ProductID: "p-1", ProductTitle: "Mug", SKU: "MUG", Quantity: 2,
				Weight: &shipping.Weight{Value: 1, Unit: shipping.Pound},
			}},
		},
		{ID: "ord-pickup", ShippingMethod: order.MethodPickup},
	} {
		require.NoError(t, orders.Create(ctx, o))
	}
	_, err = postgres.NewAPIKeyRepository(pool).Upsert(ctx,
		auth.Hash([]byte(pepper), operatorKey), "integration", []string{auth.ScopeWrite})
	require.NoError(t, err)

	fp := &fakeProvider{}
	providerSrv := httptest.NewServer(fp)
	t.Cleanup(providerSrv.Close)

	cfg := &Config{
		Addr:         freeAddr(t),
		DatabaseURL:  dsn,
		WarehouseID:  "wh-1",
		APIKeyPepper: pepper,
		Provider: ProviderConfig{
			APIKey:     "TEST_provider",
			BaseURL:    providerSrv.URL,
			MaxRetries: 1,
			RetryDelay: 10 * time.Millisecond,
			Timeout:    5 * time.Second,
			CarrierIDs: []string{"se-1"},
		},
		Cache:     CacheConfig{Enabled: true, TTL: time.Minute, SweepInterval: time.Minute},
		Webhook:   WebhookConfig{Secret: webhookSecret},
		RateLimit: RateLimitConfig{RPS: 100, Burst: 100},
		CORS:      CORSConfig{Origins: []string{"*"}},
		Graceful:  GracefulConfig{ShutdownTimeout: 5 * time.Second},
	}

	lg := zaptest.NewLogger(t)
	runCtx, cancel := context.WithCancel(zctx.Base(ctx, lg))
	done := make(chan error, 1)
	go func() { done <- Run(runCtx, lg, noopTelemetry{}, cfg) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Error("service did not stop")
		}
	})

	e := &env{baseURL: "http://" + cfg.Addr, orders: orders, provider: fp}
	require.Eventually(t, func() bool {
		resp, err := http.Get(e.baseURL + "/readyz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 30*time.Second, 100*time.Millisecond)
	return e
}

func (e *env) do(t *testing.T, method, path, key string, body []byte, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, e.baseURL+path, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

// --- Tests ---

func TestService(t *testing.T) {
	e := startService(t)
	ctx := context.Background()

	t.Run("probes", func(t *testing.T) {
		resp, body := e.do(t, http.MethodGet, "/livez", "", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"status":"ok"}`, string(body))
	})

	t.Run("api requires key", func(t *testing.T) {
		resp, _ := e.do(t, http.MethodGet, "/api/orders", "", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp, _ = e.do(t, http.MethodGet, "/api/orders", "wrong", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("rates are cached", func(t *testing.T) {
		body := []byte(`{"ship_to":{"postal_code":"78701","country_code":"US"},"weight":{"value":16,"unit":"oz"}}`)
		for range 2 {
			resp, data := e.do(t, http.MethodPost, "/api/rates", operatorKey, body, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

			var got struct {
				Rates []shipping.Rate `json:"rates"`
			}
			require.NoError(t, json.Unmarshal(data, &got))
			require.Len(t, got.Rates, 1)
			assert.Equal(t, "USD", got.Rates[0].ShippingAmount.Currency)
			assert.Equal(t, "8.99", got.Rates[0].ShippingAmount.Amount.String())
		}
		assert.EqualValues(t, 1, e.provider.rateCalls.Load())
	})

	t.Run("order placed creates one shipment", func(t *testing.T) {
		body := []byte(`{"order_id":"ord-ship"}`)
		resp, data := e.do(t, http.MethodPost, "/api/hooks/order-placed", operatorKey, body, nil)
		require.Equal(t, http.StatusAccepted, resp.StatusCode, string(data))
		assert.Contains(t, string(data), `"shipment_id":"se-ship-1"`)

		o, err := e.orders.Get(ctx, "ord-ship")
		require.NoError(t, err)
		assert.Equal(t, shipping.StatusProcessing, o.ShippingStatus)
		assert.Equal(t, "se-ship-1", o.ShipmentID)

		resp, data = e.do(t, http.MethodPost, "/api/hooks/order-placed", operatorKey, body, nil)
		require.Equal(t, http.StatusAccepted, resp.StatusCode)
		assert.Contains(t, string(data), `"skipped":true`)

		resp, _ = e.do(t, http.MethodPost, "/api/orders/ord-ship/shipment", operatorKey, nil, nil)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.EqualValues(t, 1, e.provider.shipmentCalls.Load())
	})

	t.Run("pickup orders are skipped", func(t *testing.T) {
		resp, data := e.do(t, http.MethodPost, "/api/hooks/order-placed", operatorKey, []byte(`{"order_id":"ord-pickup"}`), nil)
		require.Equal(t, http.StatusAccepted, resp.StatusCode)
		assert.Contains(t, string(data), `"skipped":true`)
	})

	t.Run("webhook advances status", func(t *testing.T) {
		event := []byte(`{"event":"tracking.updated","data":{"shipment_id":"se-ship-1","status_code":"IT"}}`)

		resp, _ := e.do(t, http.MethodPost, "/webhooks/shipping", "", event,
			map[string]string{webhook.SignatureHeader: "sha256=" + webhook.Sign([]byte("wrong"), event)})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		sig := map[string]string{webhook.SignatureHeader: "sha256=" + webhook.Sign([]byte(webhookSecret), event)}
		resp, data := e.do(t, http.MethodPost, "/webhooks/shipping", "", event, sig)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
		assert.JSONEq(t, `{"outcome":"updated"}`, string(data))

		o, err := e.orders.Get(ctx, "ord-ship")
		require.NoError(t, err)
		assert.Equal(t, shipping.StatusInTransit, o.ShippingStatus)

		resp, data = e.do(t, http.MethodGet, "/api/orders?shipping_status=in_transit", operatorKey, nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(data), `"id":"ord-ship"`)
	})
}
