//go:build !windows

package shutdown

import (
	"os"
	"syscall"
)

// Signals end the session. SIGHUP covers the terminal being closed while a
// recording has the volume ducked.
var Signals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}
