package shipctl

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/shipbridge/internal/domain/shipping"
	"github.com/xenking/shipbridge/internal/provider"
)

// --- Mock implementations ---

type fakeClient struct {
	criteria  *shipping.RateCriteria
	validated *shipping.Address
	cancelled string
	carriers  []shipping.Carrier
	err       error
}

func (f *fakeClient) GetRates(_ context.Context, c shipping.RateCriteria) []shipping.Rate {
	f.criteria = &c
	return []shipping.Rate{{RateID: "rate-1", CarrierID: "se-1"}}
}

func (f *fakeClient) ValidateAddress(_ context.Context, a shipping.Address) shipping.AddressValidation {
	f.validated = &a
	return shipping.AddressValidation{IsValid: true}
}

func (f *fakeClient) ListCarriers(context.Context) ([]shipping.Carrier, error) {
	return f.carriers, f.err
}

func (f *fakeClient) GetCarrier(_ context.Context, id string) (*shipping.Carrier, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &shipping.Carrier{CarrierID: id}, nil
}

func (f *fakeClient) ListCarrierServices(_ context.Context, id string) ([]shipping.CarrierService, error) {
	return []shipping.CarrierService{{CarrierID: id, ServiceCode: "ground"}}, f.err
}

func (f *fakeClient) GetShipment(_ context.Context, id string) (*shipping.Shipment, error) {
	return &shipping.Shipment{ShipmentID: id, Status: "label_purchased"}, f.err
}

func (f *fakeClient) CancelShipment(_ context.Context, id string) (*shipping.CancelResult, error) {
	f.cancelled = id
	return &shipping.CancelResult{Success: true}, f.err
}

// --- Helpers ---

func run(t *testing.T, client Client, args ...string) (string, error) {
	t.Helper()
	f := CommandFactory{NewClient: func(*Flags) (Client, error) { return client, nil }}
	root := f.CreateRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// --- Tests ---

func TestRatesCommand(t *testing.T) {
	client := &fakeClient{}
	out, err := run(t, client, "rates",
		"--to-postal-code", "78701", "--to-country", "us",
		"--weight", "24", "--weight-unit", "oz",
		"--dimensions", "1x1x0.5", "--dimension-unit", "ft",
		"--carrier", "se-1", "--carrier", "se-2",
		"--warehouse", "wh-1",
	)
	require.NoError(t, err)

	got := client.criteria
	require.NotNil(t, got)
	assert.Equal(t, "US", got.ShipTo.CountryCode)
	assert.Equal(t, shipping.Weight{Value: 24, Unit: shipping.Ounce}, got.Weight)
	assert.Equal(t, &shipping.Dimensions{Length: 12, Width: 12, Height: 6, Unit: shipping.Inch}, got.Dimensions)
	assert.Equal(t, []string{"se-1", "se-2"}, got.CarrierIDs)
	assert.Equal(t, "wh-1", got.WarehouseID)

	var rates []shipping.Rate
	require.NoError(t, json.Unmarshal([]byte(out), &rates))
	assert.Equal(t, "rate-1", rates[0].RateID)
}

func TestRatesCommand_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing postal code", args: []string{"rates", "--weight", "1"}},
		{name: "missing weight", args: []string{"rates", "--to-postal-code", "1"}},
		{name: "unknown weight unit", args: []string{"rates", "--to-postal-code", "1", "--weight", "1", "--weight-unit", "stone"}},
		{name: "malformed dimensions", args: []string{"rates", "--to-postal-code", "1", "--weight", "1", "--dimensions", "1x2"}},
		{name: "unknown dimension unit", args: []string{"rates", "--to-postal-code", "1", "--weight", "1", "--dimensions", "1x2x3", "--dimension-unit", "yard"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{}
			_, err := run(t, client, tt.args...)
			require.Error(t, err)
			assert.Nil(t, client.criteria)
		})
	}
}

func TestValidateAddressCommand(t *testing.T) {
	client := &fakeClient{}
	_, err := run(t, client, "validate-address", "--line1", "500 Congress Ave", "--postal-code", "78701", "--city", "Austin")
	require.NoError(t, err)
	require.NotNil(t, client.validated)
	assert.Equal(t, "Austin", client.validated.City)

	_, err = run(t, &fakeClient{}, "validate-address", "--postal-code", "78701")
	require.Error(t, err)
}

func TestCarrierCommands(t *testing.T) {
	client := &fakeClient{carriers: []shipping.Carrier{{CarrierID: "se-1"}, {CarrierID: "se-2"}}}

	out, err := run(t, client, "carriers")
	require.NoError(t, err)
	var carriers []shipping.Carrier
	require.NoError(t, json.Unmarshal([]byte(out), &carriers))
	assert.Len(t, carriers, 2)

	out, err = run(t, client, "carriers", "se-9")
	require.NoError(t, err)
	assert.Contains(t, out, `"carrier_id": "se-9"`)

	out, err = run(t, client, "services", "se-1")
	require.NoError(t, err)
	assert.Contains(t, out, `"service_code": "ground"`)

	_, err = run(t, client, "services")
	require.Error(t, err, "carrier id is required")

	notFound := &provider.Error{Message: "not found", StatusCode: http.StatusNotFound}
	_, err = run(t, &fakeClient{err: notFound}, "carriers")
	require.True(t, provider.IsNotFound(err))
}

func TestShipmentCommands(t *testing.T) {
	client := &fakeClient{}

	out, err := run(t, client, "shipment", "get", "se-1")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "label_purchased"`)

	out, err = run(t, client, "shipment", "cancel", "se-1")
	require.NoError(t, err)
	assert.Equal(t, "se-1", client.cancelled)
	assert.JSONEq(t, `{"success":true}`, out)
}

func TestClientConstructionError(t *testing.T) {
	f := CommandFactory{NewClient: func(*Flags) (Client, error) { return nil, errors.New("no api key") }}
	root := f.CreateRootCommand()
	root.SetArgs([]string{"carriers"})
	root.SetOut(&bytes.Buffer{})
	require.EqualError(t, root.ExecuteContext(context.Background()), "no api key")
}

func TestNewProviderClient_RequiresAPIKey(t *testing.T) {
	t.Setenv("SHIPENGINE_API_KEY", "")
	_, err := newProviderClient(&Flags{MaxRetries: 1})
	require.ErrorIs(t, err, provider.ErrMissingAPIKey)

	c, err := newProviderClient(&Flags{APIKey: "TEST_key", Sandbox: true, MaxRetries: 1})
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestIdempotencyKeyCommand(t *testing.T) {
	out, err := run(t, nil, "idempotency-key", "ord-1")
	require.NoError(t, err)
	assert.Equal(t, provider.IdempotencyKey("ord-1")+"\n", out)
}
