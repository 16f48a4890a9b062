package hotkey

import (
	"context"
	"time"
)

// Hybrid turns press/release of one Hotkey into start and stop triggers that
// support both tap-to-toggle and hold-to-talk: a press always starts; a
// release after longPress stops, while a quicker release keeps recording until
// the next tap.
type Hybrid struct {
	startCh chan struct{}
	stopCh  chan struct{}
}

func NewHybrid(ctx context.Context, hk Hotkey, longPress time.Duration) *Hybrid {
	h := &Hybrid{
		startCh: make(chan struct{}, 1),
		stopCh:  make(chan struct{}, 1),
	}
	go h.run(ctx, hk, longPress)
	return h
}

func (h *Hybrid) Start() <-chan struct{} { return h.startCh }
func (h *Hybrid) Stop() <-chan struct{}  { return h.stopCh }

type hybridState int

const (
	stIdle hybridState = iota
	stToggleRecording
)

func send(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (h *Hybrid) run(ctx context.Context, hk Hotkey, longPress time.Duration) {
	state := stIdle
	for {
		switch state {
		case stIdle:
			select {
			case <-ctx.Done():
				return
			case <-hk.Keydown():
			}
			send(h.startCh)
			timer := time.NewTimer(longPress)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				// held: stop on release
				select {
				case <-ctx.Done():
					return
				case <-hk.Keyup():
				}
				send(h.stopCh)
			case <-hk.Keyup():
				timer.Stop()
				state = stToggleRecording
			}
		case stToggleRecording:
			select {
			case <-ctx.Done():
				return
			case <-hk.Keydown():
			}
			select {
			case <-ctx.Done():
				return
			case <-hk.Keyup():
			}
			send(h.stopCh)
			state = stIdle
		}
	}
}
