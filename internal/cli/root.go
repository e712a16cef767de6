// Package cli implements rotessactl, a command line client for the Rotessa API.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/boddenberg/rotessa-go/internal/config"
	"github.com/boddenberg/rotessa-go/internal/infra/observability"
	"github.com/boddenberg/rotessa-go/internal/infra/rotessa"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	sandbox  bool
	timeout  time.Duration
	logLevel string
}

// NewRootCmd builds the rotessactl command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "rotessactl",
		Short:         "Query and manage Rotessa customers, schedules and transactions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	root.PersistentFlags().BoolVar(&opts.sandbox, "sandbox", false, "Use the Rotessa sandbox host")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "Per-call timeout (default from ROTESSA_TIMEOUT_MS, else 15s)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn, error")

	root.AddCommand(newCustomersCmd(opts))
	root.AddCommand(newSchedulesCmd(opts))
	root.AddCommand(newReportCmd(opts))
	return root
}

// Execute runs the root command. An interrupt cancels the call in flight.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// client returns the process-wide Rotessa client, built on first use from the
// environment and the global flags.
func (o *options) client() (*rotessa.Client, error) {
	_ = config.LoadDotEnv(".env")
	cfg := config.Load()

	timeout := cfg.RotessaTimeout
	if o.timeout > 0 {
		timeout = o.timeout
	}

	logger := observability.NewLogger(o.logLevel)
	return rotessa.GetClient(rotessa.Config{
		APIKey:   cfg.RotessaAPIKey,
		BaseURL:  rotessa.BaseURLFor(cfg.RotessaBaseURL, o.sandbox || cfg.RotessaSandbox),
		Timeout:  timeout,
		Reporter: observability.NewReporter(logger.With(zap.String("component", "rotessactl")), observability.NewMetrics()),
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", arg)
	}
	return id, nil
}
