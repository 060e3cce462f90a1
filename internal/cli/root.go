package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/enroll/internal/ctxutil"
	"github.com/example/enroll/internal/wire"
)

// operator is attributed in every log line written by the current command.
var operator string

// BindGlobalFlags adds the persistent flags shared by every subcommand and
// hands their values to the composition root before any command runs.
func BindGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().String("config", "", "Config file (default ./enroll.yaml or $ENROLL_CONFIG)")
	root.PersistentFlags().BoolP("verbose", "v", false, "Debug logging")
	root.PersistentFlags().String("operator", os.Getenv("USER"), "Name recorded with each enrollment in the logs")

	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		verbose, _ := cmd.Flags().GetBool("verbose")
		operator, _ = cmd.Flags().GetString("operator")
		wire.SetOptions(wire.Options{ConfigPath: configPath, Verbose: verbose})
	}
	root.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return wire.Close()
	}
}

// commandContext returns a context carrying the operator, cancelled on interrupt.
func commandContext() (context.Context, context.CancelFunc) {
	ctx := context.Background()
	if operator != "" {
		ctx = ctxutil.WithOperator(ctx, operator)
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}
