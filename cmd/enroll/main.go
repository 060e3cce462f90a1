package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/enroll/internal/cli"
	"github.com/example/enroll/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "enroll",
		Short:   "Enroll clinical-trial patients into treatment arms",
		Version: version.String(),
		Long: `enroll records patients into one of two treatment arms per trial.
Arms alternate in enrollment order, blocks advance every six patients, and the
full roster is saved after each enrollment to the configured backend
(csv, xlsx, sqlite, postgres, s3, sheetapi or memory).`,
		SilenceErrors: true,
	}
	cli.BindGlobalFlags(rootCmd)

	// Enrollment
	rootCmd.AddCommand(cli.EnrollCmd())
	rootCmd.AddCommand(cli.ReviewCmd())
	rootCmd.AddCommand(cli.ExportCmd())
	rootCmd.AddCommand(cli.TrialsCmd())
	rootCmd.AddCommand(cli.SessionCmd())

	// Setup
	rootCmd.AddCommand(cli.ConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
