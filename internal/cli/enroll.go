package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/enroll/internal/wire"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll [patient-number]",
	Short: "Enroll a patient and assign an arm",
	Long: `Enroll one patient into a trial. The arm alternates with the number of
patients already enrolled and the block advances every 6 patients.

Examples:
  enroll enroll --trial trial_1 --institute 일산병원 P-0042
  enroll enroll --trial 2 --institute 1 P-0043`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		trial, _ := cmd.Flags().GetString("trial")
		institute, _ := cmd.Flags().GetString("institute")
		patient := strings.Join(args, "")

		adapter, err := wire.EnrollmentAdapterWithOutput(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true
		return adapter.Enroll(ctx, trial, institute, patient)
	},
}

func init() {
	enrollCmd.Flags().StringP("trial", "t", "", "Trial ID or menu number (required)")
	enrollCmd.Flags().StringP("institute", "i", "", "Institute name or menu number (required)")
	_ = enrollCmd.MarkFlagRequired("trial")
	_ = enrollCmd.MarkFlagRequired("institute")
}

// EnrollCmd returns the enroll command
func EnrollCmd() *cobra.Command {
	return enrollCmd
}
