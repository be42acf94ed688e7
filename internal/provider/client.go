// Package provider is the client for the external shipping provider API.
//
// Every call goes through a single retry loop: transport failures and 5xx
// responses are retried with exponential backoff, 4xx responses fail
// immediately. All failures surface as *Error. Rate lookups and address
// validation are advisory and never return errors to the caller.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// maxResponseSize caps how much of a provider response body is read.
const maxResponseSize = 10 * 1024 * 1024

const (
	headerAPIKey         = "API-Key"
	headerIdempotencyKey = "Idempotency-Key"
)

// Client talks to the provider REST API. It is safe for concurrent use and
// holds no per-call state.
type Client struct {
	http       *http.Client
	baseURL    string
	apiKey     string
	maxRetries int
	retryDelay time.Duration
	lg         *zap.Logger

	// wait blocks for d or until ctx is done. Replaced in tests.
	wait func(ctx context.Context, d time.Duration) error

	requests metric.Int64Counter
	retries  metric.Int64Counter
}

// Option configures a Client.
type Option func(*options)

type options struct {
	lg        *zap.Logger
	transport http.RoundTripper
	meter     metric.MeterProvider
	tracer    trace.TracerProvider
}

// WithLogger sets the client logger.
func WithLogger(lg *zap.Logger) Option {
	return func(o *options) { o.lg = lg }
}

// WithTransport sets the base HTTP transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithMeterProvider enables request and retry counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meter = mp }
}

// WithTracerProvider enables client spans on outgoing requests.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracer = tp }
}

// New validates cfg and creates a Client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{
		lg:        zap.NewNop(),
		transport: http.DefaultTransport,
		meter:     noop.NewMeterProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	transportOpts := []otelhttp.Option{otelhttp.WithMeterProvider(o.meter)}
	if o.tracer != nil {
		transportOpts = append(transportOpts, otelhttp.WithTracerProvider(o.tracer))
	}

	meter := o.meter.Meter("github.com/xenking/shipbridge/internal/provider")
	requests, err := meter.Int64Counter("shipbridge.provider.requests",
		metric.WithDescription("Provider HTTP attempts by operation and outcome"))
	if err != nil {
		return nil, errors.Wrap(err, "create requests counter")
	}
	retries, err := meter.Int64Counter("shipbridge.provider.retries",
		metric.WithDescription("Provider requests retried after a retryable failure"))
	if err != nil {
		return nil, errors.Wrap(err, "create retries counter")
	}

	return &Client{
		http: &http.Client{
			Transport: otelhttp.NewTransport(o.transport, transportOpts...),
			Timeout:   cfg.Timeout,
		},
		baseURL:    strings.TrimRight(cfg.Endpoint(), "/"),
		apiKey:     cfg.APIKey,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		lg:         o.lg,
		wait:       sleep,
		requests:   requests,
		retries:    retries,
	}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// call describes one logical provider request.
type call struct {
	op      string
	method  string
	path    string
	in      any
	out     any
	headers map[string]string
}

// do executes c with retries. It returns *Error for provider and transport
// failures, or the context error when ctx ends during a backoff wait.
func (c *Client) do(ctx context.Context, cl call) error {
	var body []byte
	if cl.in != nil {
		b, err := json.Marshal(cl.in)
		if err != nil {
			return errors.Wrapf(err, "marshal %s request", cl.op)
		}
		body = b
	}

	for attempt := 0; ; attempt++ {
		err := c.attempt(ctx, cl, body)
		if err == nil {
			return nil
		}

		var pe *Error
		if !errors.As(err, &pe) || !pe.Retryable() || attempt >= c.maxRetries {
			return err
		}

		delay := c.retryDelay << attempt
		c.retries.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", cl.op)))
		c.lg.Debug("Retrying provider request",
			zap.String("operation", cl.op),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Int("status", pe.StatusCode),
			zap.Error(err),
		)
		if werr := c.wait(ctx, delay); werr != nil {
			return errors.Wrapf(werr, "%s: retry aborted", cl.op)
		}
	}
}

// attempt performs a single HTTP round trip.
func (c *Client) attempt(ctx context.Context, cl call, body []byte) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, reader)
	if err != nil {
		return errors.Wrapf(err, "create %s request", cl.op)
	}
	req.Header.Set(headerAPIKey, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range cl.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			c.record(ctx, cl.op, "canceled")
			return errors.Wrapf(ctxErr, "%s", cl.op)
		}
		c.record(ctx, cl.op, "transport_error")
		return transportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.record(ctx, cl.op, "transport_error")
		return transportError(errors.Wrap(err, "read response"))
	}

	c.record(ctx, cl.op, http.StatusText(resp.StatusCode))

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return statusError(resp.StatusCode, data)
	case cl.out == nil || len(bytes.TrimSpace(data)) == 0:
		return nil
	}
	if err := json.Unmarshal(data, cl.out); err != nil {
		return decodeError(data, err)
	}
	return nil
}

func (c *Client) record(ctx context.Context, op, outcome string) {
	c.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	))
}
