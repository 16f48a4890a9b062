//go:build darwin

package clipboard

import "github.com/micmonay/keybd_event"

const settleAfterInit = 0

func setPasteModifier(kb *keybd_event.KeyBonding) {
	kb.HasSuper(true) // Cmd+V
}
