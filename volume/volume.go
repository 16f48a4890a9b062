// Package volume lowers system playback volume while recording and puts it
// back afterwards.
package volume

import (
	"fmt"
	"math"
	"sync"

	"hark/log"
)

// Backend reads and writes the system output volume on a 0-100 scale.
type Backend interface {
	Get() (int, error)
	Set(percent int) error
}

// Ducker is an idempotent duck/restore wrapper around a Backend.
//
// Backend calls are made without holding the state mutex. A Restore that
// lands while a Duck is still talking to the backend is recorded and applied
// as soon as that Duck completes, so the volume never stays lowered past
// the session that lowered it.
type Ducker struct {
	backend Backend
	floor   int

	mu             sync.Mutex
	ducked         bool
	previous       *int
	ducking        bool
	restorePending bool
}

// NewDucker returns a Ducker that never lowers volume below floor.
func NewDucker(backend Backend, floor int) *Ducker {
	return &Ducker{backend: backend, floor: clamp(floor, 0, 100)}
}

// DuckedLevel is the volume Duck writes for a current level and percentage.
func DuckedLevel(current, percent, floor int) int {
	percent = clamp(percent, 0, 100)
	v := int(math.Round(float64(current) * float64(100-percent) / 100))
	return clamp(v, floor, 100)
}

// Duck lowers the volume by percent. It is a no-op returning true when
// already ducked. On backend failure it returns false and stays un-ducked.
func (d *Ducker) Duck(percent int) bool {
	d.mu.Lock()
	if d.ducked || d.ducking {
		d.mu.Unlock()
		return true
	}
	d.ducking = true
	d.restorePending = false
	d.mu.Unlock()

	current, err := d.backend.Get()
	if err != nil {
		log.Warnf("volume get failed: %v", err)
		d.finishDuck(nil)
		return false
	}
	target := DuckedLevel(current, percent, d.floor)
	if err := d.backend.Set(target); err != nil {
		log.Warnf("volume set to %d failed: %v", target, err)
		d.finishDuck(nil)
		return false
	}
	log.Info(fmt.Sprintf("volume_duck: %d -> %d", current, target))

	if d.finishDuck(&current) {
		d.Restore()
	}
	return true
}

// finishDuck commits the outcome of a Duck and reports whether a Restore
// arrived while it was in flight.
func (d *Ducker) finishDuck(previous *int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ducking = false
	if previous != nil {
		d.ducked = true
		d.previous = previous
	}
	pending := d.restorePending
	d.restorePending = false
	return pending && d.ducked
}

// Restore writes back the volume saved by Duck. It is a no-op returning true
// when not ducked. The ducked state is cleared even if the backend write
// fails, so one transient failure cannot leave the system permanently quiet.
func (d *Ducker) Restore() bool {
	d.mu.Lock()
	if d.ducking {
		d.restorePending = true
		d.mu.Unlock()
		return true
	}
	if !d.ducked || d.previous == nil {
		d.ducked = false
		d.previous = nil
		d.mu.Unlock()
		return true
	}
	previous := *d.previous
	d.ducked = false
	d.previous = nil
	d.mu.Unlock()

	if err := d.backend.Set(previous); err != nil {
		log.Warnf("volume restore to %d failed: %v", previous, err)
		return false
	}
	log.Info(fmt.Sprintf("volume_restore: %d", previous))
	return true
}

// IsDucked reports whether a Duck is currently in effect.
func (d *Ducker) IsDucked() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ducked
}

// CurrentVolume reads the live volume; ok is false when the backend fails.
func (d *Ducker) CurrentVolume() (volume int, ok bool) {
	v, err := d.backend.Get()
	if err != nil {
		return 0, false
	}
	return v, true
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
