package cmd

import (
	"fmt"
	"os"

	"github.com/dennisbonke/lai-go"
	"github.com/dennisbonke/lai-go/table"
	"github.com/spf13/cobra"
)

var osiCmd = &cobra.Command{
	Use:   "osi <dsdt-file> <string>",
	Short: `Query \_OSI("string") against a loaded table`,
	Long: `osi is a convenience wrapper around \_OSI, used to sanity-check which
OS-capability strings a table's control methods will see as supported.`,
	Args: cobra.ExactArgs(2),
	RunE: runOSI,
}

func init() {
	rootCmd.AddCommand(osiCmd)
}

func runOSI(_ *cobra.Command, args []string) error {
	tablePath, query := args[0], args[1]

	_, payload, err := table.LoadDSDTFile(tablePath)
	if err != nil {
		return err
	}

	host := newQuietHost(os.Stderr, verbose)
	vm := aml.NewVM(host)
	if loadErr := vm.LoadDSDT(payload); loadErr != nil {
		return fmt.Errorf("loading %s: %s", tablePath, loadErr.Error())
	}

	ret, invokeErr := vm.Invoke(`\_OSI`, aml.StringValue(query))
	if invokeErr != nil {
		return fmt.Errorf(`invoking \_OSI: %s`, invokeErr.Error())
	}

	fmt.Println(formatValue(ret))
	return nil
}
