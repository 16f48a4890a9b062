package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"hark/hotkey"
	"hark/log"
)

var ErrNotRunning = errors.New("orchestrator is not running")

// Run registers the hotkeys and dispatches their presses until ctx is done.
// Each press is handled on its own goroutine. All hotkeys are unregistered
// before Run returns.
func (o *Orchestrator) Run(ctx context.Context, hotkeys map[hotkey.Kind]hotkey.Hotkey) error {
	o.hkMu.Lock()
	if o.runCtx != nil {
		o.hkMu.Unlock()
		return errors.New("orchestrator already running")
	}
	o.runCtx = ctx
	for kind, hk := range hotkeys {
		if err := hk.Register(); err != nil {
			o.unregisterAllLocked()
			o.runCtx = nil
			o.hkMu.Unlock()
			return fmt.Errorf("register %s hotkey: %w", kind, err)
		}
		o.hotkeys[kind] = hk
		o.listenLocked(kind, hk)
	}
	o.hkMu.Unlock()

	<-ctx.Done()

	o.hkMu.Lock()
	o.unregisterAllLocked()
	o.runCtx = nil
	o.hkMu.Unlock()
	return nil
}

func (o *Orchestrator) unregisterAllLocked() {
	for kind, hk := range o.hotkeys {
		if cancel := o.listeners[kind]; cancel != nil {
			cancel()
		}
		hk.Unregister()
		delete(o.hotkeys, kind)
		delete(o.listeners, kind)
	}
}

func (o *Orchestrator) listenLocked(kind hotkey.Kind, hk hotkey.Hotkey) {
	runCtx := o.runCtx
	lctx, cancel := context.WithCancel(runCtx)
	o.listeners[kind] = cancel
	dispatch := func() { go o.OnHotkey(runCtx, kind) }

	if o.cfg.HoldToTalk > 0 {
		hy := hotkey.NewHybrid(lctx, hk, o.cfg.HoldToTalk)
		go func() {
			for {
				select {
				case <-lctx.Done():
					return
				case <-hy.Start():
					dispatch()
				case <-hy.Stop():
					go o.OnRelease(runCtx, kind)
				}
			}
		}()
		return
	}

	go func() {
		for {
			select {
			case <-lctx.Done():
				return
			case <-hk.Keydown():
				dispatch()
			case <-hk.Keyup():
			}
		}
	}()
}

// Rebind replaces the hotkey for kind while running. The old hotkey is
// unregistered before the new one is registered; if the new one fails the
// old one is put back.
func (o *Orchestrator) Rebind(kind hotkey.Kind, combo hotkey.Combo, hk hotkey.Hotkey) error {
	o.hkMu.Lock()
	defer o.hkMu.Unlock()
	if o.runCtx == nil {
		return ErrNotRunning
	}

	old := o.hotkeys[kind]
	if old != nil {
		o.listeners[kind]()
		old.Unregister()
		delete(o.hotkeys, kind)
		delete(o.listeners, kind)
	}

	if err := hk.Register(); err != nil {
		if old != nil {
			if rerr := old.Register(); rerr == nil {
				o.hotkeys[kind] = old
				o.listenLocked(kind, old)
			} else {
				log.Errorf("re-register previous %s hotkey: %v", kind, rerr)
			}
		}
		return fmt.Errorf("register %s hotkey %s: %w", kind, combo, err)
	}

	o.hotkeys[kind] = hk
	o.listenLocked(kind, hk)

	o.mu.Lock()
	o.bindings[kind] = hotkey.NewBinding(kind, combo)
	o.mu.Unlock()
	log.Infof("%s hotkey rebound to %s", kind, combo)
	return nil
}
