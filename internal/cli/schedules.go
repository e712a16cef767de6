package cli

import (
	"fmt"

	"github.com/boddenberg/rotessa-go/internal/domain"

	"github.com/spf13/cobra"
)

func newSchedulesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedules",
		Short: "Transaction schedule operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one transaction schedule",
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
			schedule, err := c.TransactionSchedules.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), schedule)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction schedule",
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
			if err := c.TransactionSchedules.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted transaction schedule %d\n", id)
			return nil
		},
	})

	return cmd
}

func newReportCmd(opts *options) *cobra.Command {
	var q domain.ReportQuery
	var status, filter string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "List transactions from the transaction report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q.Status = domain.TransactionStatus(status)
			q.Filter = domain.TransactionStatus(filter)
			c, err := opts.client()
			if err != nil {
				return err
			}
			rows, err := c.TransactionReport.List(cmd.Context(), q)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rows)
		},
	}

	cmd.Flags().StringVar(&q.StartDate, "start-date", "", "First process date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&q.EndDate, "end-date", "", "Last process date, YYYY-MM-DD")
	cmd.Flags().StringVar(&status, "status", "", "Only transactions with this status")
	cmd.Flags().StringVar(&filter, "filter", "", "Status filter, alternate parameter name")
	cmd.Flags().IntVar(&q.Page, "page", 0, "Page number")
	_ = cmd.MarkFlagRequired("start-date")

	return cmd
}
