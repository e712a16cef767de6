package cli

import (
	"github.com/spf13/cobra"
)

func newCustomersCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customers",
		Short: "Customer lookups",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all customers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			customers, err := c.Customers.List(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), customers)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one customer with schedules and transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := opts.client()
			if err != nil {
				return err
			}
			customer, err := c.Customers.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), customer)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "lookup <custom-identifier>",
		Short: "Find a customer by its custom identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			customer, err := c.Customers.GetByCustomIdentifier(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), customer)
		},
	})

	return cmd
}
