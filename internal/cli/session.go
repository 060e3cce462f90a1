package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/enroll/internal/metrics"
	"github.com/example/enroll/internal/wire"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Run an interactive enrollment session",
	Long: `Read enrollments from standard input, one per line:

  <trial> <institute> <patient number>

Trial and institute may be given by their menu number. Other commands:
review <trial>, trials, help, quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

		adapter, err := wire.EnrollmentAdapterWithOutput(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true

		if metricsAddr != "" {
			m, err := wire.Metrics()
			if err != nil {
				return err
			}
			stop, err := serveMetrics(metricsAddr, m)
			if err != nil {
				return err
			}
			defer stop()
		}

		err = adapter.RunSession(ctx, os.Stdin)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

// serveMetrics exposes the collectors at /metrics until stop is called.
func serveMetrics(addr string, m *metrics.Metrics) (stop func(), err error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() { _ = srv.Serve(ln) }()
	fmt.Fprintf(os.Stderr, "Serving metrics on http://%s/metrics\n", ln.Addr())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func init() {
	sessionCmd.Flags().String("metrics-addr", "", "Serve prometheus metrics on this address, e.g. :9090")
}

// SessionCmd returns the session command
func SessionCmd() *cobra.Command {
	return sessionCmd
}
