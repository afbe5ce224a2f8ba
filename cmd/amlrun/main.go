// Command amlrun loads a raw ACPI DSDT/SSDT table image and runs control
// methods against it from outside any kernel, the way the reference lai
// interpreter is meant to be embedded into a small driver program.
package main

import (
	"fmt"
	"os"

	"github.com/dennisbonke/lai-go/cmd/amlrun/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
