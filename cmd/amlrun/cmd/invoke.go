package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dennisbonke/lai-go"
	"github.com/dennisbonke/lai-go/table"
	"github.com/spf13/cobra"
)

var invokeCmd = &cobra.Command{
	Use:   "invoke <dsdt-file> <method-path> [args...]",
	Short: "Load a DSDT/SSDT image and invoke a method by absolute path",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runInvoke,
}

func init() {
	rootCmd.AddCommand(invokeCmd)
}

func runInvoke(_ *cobra.Command, args []string) error {
	tablePath, methodPath := args[0], args[1]

	_, payload, err := table.LoadDSDTFile(tablePath)
	if err != nil {
		return err
	}

	host := newQuietHost(os.Stderr, verbose)
	vm := aml.NewVM(host)
	if loadErr := vm.LoadDSDT(payload); loadErr != nil {
		return fmt.Errorf("loading %s: %s", tablePath, loadErr.Error())
	}

	callArgs := make([]aml.Value, 0, len(args)-2)
	for _, raw := range args[2:] {
		callArgs = append(callArgs, parseArgValue(raw))
	}

	ret, invokeErr := vm.Invoke(methodPath, callArgs...)
	if invokeErr != nil {
		return fmt.Errorf("invoking %s: %s", methodPath, invokeErr.Error())
	}

	fmt.Println(formatValue(ret))
	return nil
}

// parseArgValue converts a command-line argument into a Value: an integer
// literal in Go syntax (decimal, 0x hex, 0b binary, or 0o / leading-0
// octal) becomes an Integer, anything else is passed through as a String.
func parseArgValue(raw string) aml.Value {
	if n, err := strconv.ParseUint(raw, 0, 64); err == nil {
		return aml.IntValue(n)
	}
	return aml.StringValue(raw)
}
