package cmd

import (
	"io"

	"github.com/dennisbonke/lai-go"
)

// quietHost wraps aml.FileHost so Debug() diagnostics only reach the
// terminal when --verbose is set, while Warn/Panic always do.
type quietHost struct {
	*aml.FileHost
	verbose bool
}

func newQuietHost(w io.Writer, verbose bool) *quietHost {
	return &quietHost{FileHost: aml.NewFileHost(w, 1<<20), verbose: verbose}
}

func (h *quietHost) Debug(format string, args ...interface{}) {
	if h.verbose {
		h.FileHost.Debug(format, args...)
	}
}
