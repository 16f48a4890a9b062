//go:build windows

package shutdown

import (
	"os"
	"syscall"
)

// Signals end the session. Ctrl+C and Ctrl+Break arrive as os.Interrupt;
// closing the console, logoff and system shutdown arrive as SIGTERM.
var Signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
