package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/dennisbonke/lai-go"
	"github.com/dennisbonke/lai-go/table"
	"github.com/spf13/cobra"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm <dsdt-file>",
	Short: "Print the namespace tree parsed from a DSDT/SSDT image",
	Long: `disasm parses a table's declarations into a namespace tree and prints it.

It does not produce an AML byte-for-byte disassembly: it shows the tree
structure the namespace loader built, the same information "amlrun invoke"
resolves names against.`,
	Args: cobra.ExactArgs(1),
	RunE: runDisasm,
}

func init() {
	rootCmd.AddCommand(disasmCmd)
}

func runDisasm(_ *cobra.Command, args []string) error {
	_, payload, err := table.LoadDSDTFile(args[0])
	if err != nil {
		return err
	}

	host := newQuietHost(os.Stderr, verbose)
	vm := aml.NewVM(host)
	if loadErr := vm.LoadDSDT(payload); loadErr != nil {
		return fmt.Errorf("loading %s: %s", args[0], loadErr.Error())
	}

	printNode(vm.Namespace().Root, 0)
	return nil
}

func printNode(n *aml.Node, depth int) {
	fmt.Printf("%s%s (%s)\n", strings.Repeat("  ", depth), n.Name, nodeKindName(n))
	for _, c := range n.Children {
		printNode(c, depth+1)
	}
}

func nodeKindName(n *aml.Node) string {
	switch n.Kind {
	case aml.NodeScope:
		return "Scope"
	case aml.NodeDevice:
		return "Device"
	case aml.NodeMethod:
		return fmt.Sprintf("Method, %d args", n.ArgCount)
	case aml.NodeName:
		return "Name"
	case aml.NodeOpRegion:
		return "OpRegion"
	case aml.NodeField:
		return "Field"
	case aml.NodeIndexField:
		return "IndexField"
	case aml.NodeBufferField:
		return "BufferField"
	case aml.NodeMutex:
		return "Mutex"
	case aml.NodeEvent:
		return "Event"
	case aml.NodeProcessor:
		return "Processor"
	case aml.NodePowerRes:
		return "PowerResource"
	case aml.NodeThermalZone:
		return "ThermalZone"
	default:
		return "Unknown"
	}
}
