// Package hotkey registers global key combinations and reports their presses.
package hotkey

import (
	"sync"
	"time"
)

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

// Kind tells the two bindings apart.
type Kind int

const (
	Transcribe Kind = iota
	Assist
)

func (k Kind) String() string {
	if k == Assist {
		return "assistant"
	}
	return "transcription"
}

const (
	DefaultTranscribeCombo = "ctrl+shift+space"
	DefaultAssistCombo     = "ctrl+shift+a"
)

// Binding is a registered combo plus its debounce windows. Start and stop
// presses can be debounced differently so that a stop is never swallowed
// right after a start.
type Binding struct {
	Combo         Combo
	Kind          Kind
	StartDebounce time.Duration
	StopDebounce  time.Duration

	mu              sync.Mutex
	lastTriggeredAt time.Time
}

func NewBinding(kind Kind, combo Combo) *Binding {
	b := &Binding{Combo: combo, Kind: kind}
	switch kind {
	case Assist:
		b.StartDebounce = 150 * time.Millisecond
	default:
		b.StartDebounce = 300 * time.Millisecond
		b.StopDebounce = 300 * time.Millisecond
	}
	return b
}

// Allow reports whether a press at now passes the debounce window for a
// start (stopping=false) or a stop. Only a press that passes moves the
// window.
func (b *Binding) Allow(now time.Time, stopping bool) bool {
	window := b.StartDebounce
	if stopping {
		window = b.StopDebounce
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.lastTriggeredAt.IsZero() && now.Sub(b.lastTriggeredAt) < window {
		return false
	}
	b.lastTriggeredAt = now
	return true
}

func (b *Binding) LastTriggered() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastTriggeredAt
}
