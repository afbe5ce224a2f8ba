package cmd

import (
	"fmt"
	"strings"

	"github.com/dennisbonke/lai-go"
)

// formatValue renders a Value the way a driver printing a method's return
// value to a terminal would want to see it: hex for integers, quoted for
// strings, a byte dump for buffers.
func formatValue(v aml.Value) string {
	switch v.Kind {
	case aml.KindInteger:
		return fmt.Sprintf("0x%x", v.Integer)
	case aml.KindString:
		return fmt.Sprintf("%q", v.Str)
	case aml.KindBuffer:
		parts := make([]string, len(v.Buffer))
		for i, b := range v.Buffer {
			parts[i] = fmt.Sprintf("%02x", b)
		}
		return "{" + strings.Join(parts, " ") + "}"
	case aml.KindPackage:
		parts := make([]string, len(v.Package))
		for i, e := range v.Package {
			parts[i] = formatValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return v.Kind.String()
	}
}
