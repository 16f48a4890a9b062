// Package inject types text into the focused window by way of the clipboard.
package inject

import (
	"context"
	"time"

	"hark/log"
)

// PasteBackend is the clipboard plus a synthetic paste keystroke.
// clipboard.System implements it.
type PasteBackend interface {
	Read() (string, error)
	Write(text string) error
	Clear() error
	Paste() error
}

const (
	DefaultSettleDelay  = 50 * time.Millisecond
	DefaultRestoreDelay = 500 * time.Millisecond
)

type Injector struct {
	backend PasteBackend

	// SettleDelay lets the clipboard write land before the paste keystroke.
	SettleDelay time.Duration
	// RestoreDelay holds the injected text on the clipboard after the paste
	// returns; the target app may still be reading it.
	RestoreDelay time.Duration
}

func New(backend PasteBackend) *Injector {
	return &Injector{
		backend:      backend,
		SettleDelay:  DefaultSettleDelay,
		RestoreDelay: DefaultRestoreDelay,
	}
}

// Inject pastes text into the focused window and puts back whatever the
// clipboard held before, clearing it when it held nothing. It reports whether
// the paste keystroke was delivered. A cancelled ctx skips the remaining
// waits but the clipboard is still restored.
func (in *Injector) Inject(ctx context.Context, text string) bool {
	original, err := in.backend.Read()
	if err != nil {
		log.Warnf("inject: read clipboard: %v", err)
		original = ""
	}

	if err := in.backend.Write(text); err != nil {
		log.Errorf("inject: write clipboard: %v", err)
		return false
	}
	defer in.restore(original)

	if !sleep(ctx, in.SettleDelay) {
		return false
	}
	if err := in.backend.Paste(); err != nil {
		log.Errorf("inject: paste: %v", err)
		return false
	}
	sleep(ctx, in.RestoreDelay)
	return true
}

func (in *Injector) restore(original string) {
	var err error
	if original != "" {
		err = in.backend.Write(original)
	} else {
		err = in.backend.Clear()
	}
	if err != nil {
		log.Warnf("inject: restore clipboard: %v", err)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
