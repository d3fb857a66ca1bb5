package ags

import (
	"os"

	"github.com/charmbracelet/log"
)

// Logger is the package-wide structured logger, replacing the teacher's
// hand-rolled textcolor.go level shim with the library its own go.mod
// already names. Per-block backend errors (DeviceInvalidated,
// ServiceNotRunning) are logged here rather than surfaced as fatal (spec
// §7).
var Logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "ags",
})
