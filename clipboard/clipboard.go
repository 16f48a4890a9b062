// Package clipboard reads and writes the system clipboard and synthesizes the
// platform paste keystroke into the focused window.
package clipboard

import (
	"sync"
	"time"

	cb "github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"
)

func Read() (string, error) {
	return cb.ReadAll()
}

func Copy(text string) error {
	return cb.WriteAll(text)
}

func Clear() error {
	return cb.WriteAll("")
}

var (
	kb     keybd_event.KeyBonding
	kbMu   sync.Mutex
	kbOnce sync.Once
	kbErr  error
)

// Init creates the virtual keyboard used by Paste. It is safe to call more
// than once; only the first call does any work.
func Init() error {
	kbOnce.Do(func() {
		kb, kbErr = keybd_event.NewKeyBonding()
		if kbErr == nil && settleAfterInit > 0 {
			// the compositor needs time to pick up a freshly created device
			time.Sleep(settleAfterInit)
		}
	})
	return kbErr
}

// Paste sends Ctrl+V (Cmd+V on macOS) and returns once the key events were
// delivered to the OS.
func Paste() error {
	if err := Init(); err != nil {
		return err
	}
	kbMu.Lock()
	defer kbMu.Unlock()
	kb.Clear()
	kb.SetKeys(keybd_event.VK_V)
	setPasteModifier(&kb)
	return kb.Launching()
}

// System is the clipboard-and-keystroke paste backend of this machine.
type System struct{}

func (System) Read() (string, error) { return Read() }
func (System) Write(text string) error { return Copy(text) }
func (System) Clear() error            { return Clear() }
func (System) Paste() error            { return Paste() }
