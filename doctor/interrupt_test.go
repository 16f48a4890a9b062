package doctor

import (
	"testing"

	"hark/volume"
)

func TestRunUndoRestoresDuckedVolume(t *testing.T) {
	backend := volume.NewFake(60)
	d := volume.NewDucker(backend, 0)
	if !d.Duck(50) {
		t.Fatal("duck failed")
	}
	setUndo(func() { d.Restore() })

	runUndo()
	if v, _ := backend.Get(); v != 60 {
		t.Errorf("volume = %d, want 60", v)
	}

	calls := 0
	setUndo(func() { calls++ })
	setUndo(nil)
	runUndo()
	runUndo()
	if calls != 0 {
		t.Errorf("cleared undo ran %d times", calls)
	}
}
