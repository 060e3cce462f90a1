package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/enroll/internal/wire"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a trial roster as CSV or Excel",
	Long: `Write the full roster of a trial with the header row
Institute, Patient Number, Block, Random Number, Arm.

The default file name is enrolled_patients_<trial name>.csv; use --output -
to write to stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		trial, _ := cmd.Flags().GetString("trial")
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		adapter, err := wire.EnrollmentAdapterWithOutput(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true
		return adapter.Export(ctx, trial, format, output)
	},
}

func init() {
	exportCmd.Flags().StringP("trial", "t", "", "Trial ID or menu number (required)")
	exportCmd.Flags().StringP("format", "f", "csv", "Document format: csv or xlsx")
	exportCmd.Flags().StringP("output", "o", "", "Output file, - for stdout")
	_ = exportCmd.MarkFlagRequired("trial")
}

// ExportCmd returns the export command
func ExportCmd() *cobra.Command {
	return exportCmd
}
