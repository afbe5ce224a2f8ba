package cmd

import (
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "amlrun",
	Short: "Load and run ACPI AML control methods from a DSDT/SSDT image",
	Long: `amlrun is a hosted driver for the AML method execution engine.

It reads a raw DSDT or SSDT table image from disk, builds a namespace from
it, and either invokes a control method by its absolute path or prints the
parsed namespace tree for inspection.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print host Debug() diagnostics in addition to Warn()")
}
