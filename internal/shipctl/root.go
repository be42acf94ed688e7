// Package shipctl implements the operator CLI for the shipping provider:
// rate quotes, address checks, carrier listings and shipment lookup or
// cancellation, all against the same client the service uses.
package shipctl

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xenking/shipbridge/internal/domain/shipping"
	"github.com/xenking/shipbridge/internal/provider"
)

// Client is the provider surface the CLI drives.
type Client interface {
	GetRates(ctx context.Context, criteria shipping.RateCriteria) []shipping.Rate
	ValidateAddress(ctx context.Context, addr shipping.Address) shipping.AddressValidation
	ListCarriers(ctx context.Context) ([]shipping.Carrier, error)
	GetCarrier(ctx context.Context, id string) (*shipping.Carrier, error)
	ListCarrierServices(ctx context.Context, id string) ([]shipping.CarrierService, error)
	GetShipment(ctx context.Context, id string) (*shipping.Shipment, error)
	CancelShipment(ctx context.Context, id string) (*shipping.CancelResult, error)
}

var _ Client = (*provider.Client)(nil)

// Flags are the persistent connection flags.
type Flags struct {
	APIKey     string
	BaseURL    string
	Sandbox    bool
	MaxRetries int
	Verbose    bool
}

// CommandFactory builds commands around a client constructor so tests can
// substitute the provider.
type CommandFactory struct {
	NewClient func(flags *Flags) (Client, error)
}

// DefaultFactory talks to the real provider.
var DefaultFactory = CommandFactory{NewClient: newProviderClient}

func newProviderClient(flags *Flags) (Client, error) {
	cfg := provider.DefaultConfig(flags.APIKey)
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("SHIPENGINE_API_KEY")
	}
	cfg.BaseURL = flags.BaseURL
	cfg.Sandbox = flags.Sandbox
	cfg.MaxRetries = flags.MaxRetries

	lg := zap.NewNop()
	if flags.Verbose {
		var err error
		if lg, err = zap.NewDevelopment(); err != nil {
			return nil, errors.Wrap(err, "create logger")
		}
	}
	c, err := provider.New(cfg, provider.WithLogger(lg))
	if err != nil {
		return nil, errors.Wrap(err, "create provider client")
	}
	return c, nil
}

// CreateRootCommand returns shipctl with every subcommand attached.
func (f CommandFactory) CreateRootCommand() *cobra.Command {
	flags := &Flags{}
	root := &cobra.Command{
		Use:           "shipctl",
		Short:         "Operate the shipping provider integration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&flags.APIKey, "api-key", "", "Provider API key (default $SHIPENGINE_API_KEY)")
	pf.StringVar(&flags.BaseURL, "base-url", "", "Override the provider endpoint")
	pf.BoolVar(&flags.Sandbox, "sandbox", false, "Use the provider sandbox endpoint")
	pf.IntVar(&flags.MaxRetries, "max-retries", provider.DefaultMaxRetries, "Retries after a retryable failure")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "Log provider requests to stderr")

	root.AddCommand(
		f.CreateRatesCommand(flags),
		f.CreateValidateAddressCommand(flags),
		f.CreateCarriersCommand(flags),
		f.CreateServicesCommand(flags),
		f.CreateShipmentCommand(flags),
		createIdempotencyKeyCommand(),
	)
	return root
}

// Execute runs shipctl with the process arguments.
func Execute(ctx context.Context) error {
	return DefaultFactory.CreateRootCommand().ExecuteContext(ctx)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
