package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/enroll/internal/wire"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Show the enrolled patients of a trial",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		trial, _ := cmd.Flags().GetString("trial")

		adapter, err := wire.EnrollmentAdapterWithOutput(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true
		return adapter.Review(ctx, trial)
	},
}

var trialsCmd = &cobra.Command{
	Use:   "trials",
	Short: "List trials with enrollment counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		adapter, err := wire.EnrollmentAdapterWithOutput(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		return adapter.Trials(ctx)
	},
}

func init() {
	reviewCmd.Flags().StringP("trial", "t", "", "Trial ID or menu number (required)")
	_ = reviewCmd.MarkFlagRequired("trial")
}

// ReviewCmd returns the review command
func ReviewCmd() *cobra.Command {
	return reviewCmd
}

// TrialsCmd returns the trials command
func TrialsCmd() *cobra.Command {
	return trialsCmd
}
