package doctor

import (
	"fmt"
	"os"
	"sync"

	"hark/shutdown"
)

var (
	undoMu sync.Mutex
	undo   func()
)

// setUndo registers fn to put system state back if the user interrupts the
// current check. Pass nil once the check has cleaned up itself.
func setUndo(fn func()) {
	undoMu.Lock()
	undo = fn
	undoMu.Unlock()
}

func runUndo() {
	undoMu.Lock()
	fn := undo
	undo = nil
	undoMu.Unlock()
	if fn != nil {
		fn()
	}
}

func handleInterrupt() {
	ch := make(chan os.Signal, 1)
	shutdown.Notify(ch)
	go func() {
		<-ch
		runUndo()
		resetTerminal()
		fmt.Println("\nInterrupted")
		os.Exit(1)
	}()
}
