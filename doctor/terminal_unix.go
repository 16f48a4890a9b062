//go:build !windows

package doctor

import (
	"os"
	"os/exec"
)

// resetTerminal undoes raw mode a hotkey backend may have left on the tty.
func resetTerminal() {
	cmd := exec.Command("stty", "sane")
	cmd.Stdin = os.Stdin
	_ = cmd.Run()
}
