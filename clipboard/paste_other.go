//go:build !darwin

package clipboard

import (
	"runtime"
	"time"

	"github.com/micmonay/keybd_event"
)

// uinput devices on linux are invisible to X11/Wayland for the first moments.
var settleAfterInit = func() time.Duration {
	if runtime.GOOS == "linux" {
		return 2 * time.Second
	}
	return 0
}()

func setPasteModifier(kb *keybd_event.KeyBonding) {
	kb.HasCTRL(true)
}
