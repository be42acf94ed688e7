package shipctl

import (
	"github.com/spf13/cobra"

	"github.com/xenking/shipbridge/internal/provider"
)

// CreateCarriersCommand lists connected carriers, or shows one by id.
func (f CommandFactory) CreateCarriersCommand(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "carriers [carrier-id]",
		Short: "List connected carriers or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := f.NewClient(flags)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				c, err := client.GetCarrier(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), c)
			}
			carriers, err := client.ListCarriers(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), carriers)
		},
	}
}

// CreateServicesCommand lists the service levels of one carrier.
func (f CommandFactory) CreateServicesCommand(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "services <carrier-id>",
		Short: "List a carrier's services",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := f.NewClient(flags)
			if err != nil {
				return err
			}
			services, err := client.ListCarrierServices(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), services)
		},
	}
}

// CreateShipmentCommand groups shipment lookup and cancellation.
func (f CommandFactory) CreateShipmentCommand(flags *Flags) *cobra.Command {
	c := &cobra.Command{
		Use:   "shipment",
		Short: "Inspect or cancel provider shipments",
	}
	c.AddCommand(
		&cobra.Command{
			Use:   "get <shipment-id>",
			Short: "Show a shipment",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := f.NewClient(flags)
				if err != nil {
					return err
				}
				s, err := client.GetShipment(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), s)
			},
		},
		&cobra.Command{
			Use:   "cancel <shipment-id>",
			Short: "Cancel a shipment",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := f.NewClient(flags)
				if err != nil {
					return err
				}
				res, err := client.CancelShipment(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			},
		},
	)
	return c
}

// createIdempotencyKeyCommand prints the key sent with create-shipment
// requests for an order, for matching requests in provider logs.
func createIdempotencyKeyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "idempotency-key <order-id>",
		Short: "Print the create-shipment idempotency key for an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := cmd.OutOrStdout().Write([]byte(provider.IdempotencyKey(args[0]) + "\n"))
			return err
		},
	}
}
