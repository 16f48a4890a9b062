//go:build windows

package doctor

// The console is never switched out of cooked mode on Windows.
func resetTerminal() {}
