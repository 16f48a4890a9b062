package volume

import (
	"errors"
	"testing"
)

func TestDuckedLevel(t *testing.T) {
	for _, tt := range []struct {
		current, percent, floor, want int
	}{
		{100, 90, 0, 10},
		{50, 90, 0, 5},
		{55, 90, 0, 6}, // 5.5 rounds up
		{3, 90, 0, 0},
		{3, 90, 1, 1},
		{0, 50, 1, 1},
		{80, 0, 0, 80},
		{80, 100, 0, 0},
		{80, 150, 0, 0},
		{80, -10, 0, 80},
	} {
		if got := DuckedLevel(tt.current, tt.percent, tt.floor); got != tt.want {
			t.Errorf("DuckedLevel(%d, %d, %d) = %d, want %d", tt.current, tt.percent, tt.floor, got, tt.want)
		}
	}
}

func TestDuckRestoreRoundTrip(t *testing.T) {
	fb := NewFake(64)
	d := NewDucker(fb, 0)

	if !d.Duck(90) {
		t.Fatal("Duck returned false")
	}
	if v, _ := fb.Get(); v != 6 {
		t.Errorf("ducked volume = %d, want 6", v)
	}
	if !d.IsDucked() {
		t.Error("IsDucked = false after Duck")
	}
	if !d.Restore() {
		t.Fatal("Restore returned false")
	}
	if v, _ := fb.Get(); v != 64 {
		t.Errorf("restored volume = %d, want 64", v)
	}
	if d.IsDucked() {
		t.Error("IsDucked = true after Restore")
	}
}

func TestDuckIdempotent(t *testing.T) {
	fb := NewFake(80)
	d := NewDucker(fb, 0)

	if !d.Duck(90) || !d.Duck(90) {
		t.Fatal("Duck returned false")
	}
	if sets := fb.Sets(); len(sets) != 1 {
		t.Errorf("backend Set called %d times, want 1: %v", len(sets), sets)
	}

	d.Restore()
	if v, _ := fb.Get(); v != 80 {
		t.Errorf("volume after restore = %d, want 80 (second Duck must not overwrite saved level)", v)
	}
}

func TestRestoreIdempotent(t *testing.T) {
	fb := NewFake(80)
	d := NewDucker(fb, 0)

	if !d.Restore() {
		t.Error("Restore without Duck should be a successful no-op")
	}
	d.Duck(50)
	if !d.Restore() || !d.Restore() {
		t.Error("Restore returned false")
	}
	if sets := fb.Sets(); len(sets) != 2 {
		t.Errorf("backend Set calls = %v, want one duck and one restore", sets)
	}
}

func TestDuckGetFailureStaysUnducked(t *testing.T) {
	fb := NewFake(80)
	fb.FailGet(errors.New("no sink"))
	d := NewDucker(fb, 0)

	if d.Duck(90) {
		t.Error("Duck should report failure")
	}
	if d.IsDucked() {
		t.Error("failed Duck must not mark ducked")
	}
	if len(fb.Sets()) != 0 {
		t.Error("Set must not be called after a Get failure")
	}
}

func TestDuckSetFailureStaysUnducked(t *testing.T) {
	fb := NewFake(80)
	fb.FailSet(errors.New("denied"))
	d := NewDucker(fb, 0)

	if d.Duck(90) {
		t.Error("Duck should report failure")
	}
	if d.IsDucked() {
		t.Error("failed Duck must not mark ducked")
	}
	fb.FailSet(nil)
	if !d.Duck(90) {
		t.Error("Duck should succeed once the backend recovers")
	}
}

func TestRestoreFailureResetsState(t *testing.T) {
	fb := NewFake(70)
	d := NewDucker(fb, 0)
	d.Duck(90)

	fb.FailSet(errors.New("transient"))
	if d.Restore() {
		t.Error("Restore should report the backend failure")
	}
	if d.IsDucked() {
		t.Error("Restore must clear ducked state even on failure")
	}

	fb.FailSet(nil)
	if !d.Duck(90) {
		t.Fatal("Duck after failed Restore returned false")
	}
	if v, _ := fb.Get(); v != 1 {
		// saved level is the still-ducked 7, so ducking again gives round(0.7)=1
		t.Errorf("volume = %d, want 1", v)
	}
}

func TestRestoreDuringDuckIsApplied(t *testing.T) {
	fb := NewFake(50)
	d := NewDucker(fb, 0)

	var restored bool
	fb.OnSet(func(v int) {
		if v == 5 && !restored {
			restored = true
			if !d.Restore() {
				t.Error("Restore during Duck returned false")
			}
		}
	})

	d.Duck(90)
	if v, _ := fb.Get(); v != 50 {
		t.Errorf("volume = %d, want 50 after in-flight restore", v)
	}
	if d.IsDucked() {
		t.Error("still ducked after in-flight restore")
	}
}

func TestFloor(t *testing.T) {
	fb := NewFake(5)
	d := NewDucker(fb, 1)
	d.Duck(100)
	if v, _ := fb.Get(); v != 1 {
		t.Errorf("volume = %d, want floor 1", v)
	}
}

func TestCurrentVolume(t *testing.T) {
	fb := NewFake(42)
	d := NewDucker(fb, 0)
	if v, ok := d.CurrentVolume(); !ok || v != 42 {
		t.Errorf("CurrentVolume = %d, %v; want 42, true", v, ok)
	}
	fb.FailGet(errors.New("gone"))
	if _, ok := d.CurrentVolume(); ok {
		t.Error("CurrentVolume should report failure")
	}
}

func TestParsePercent(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want int
	}{
		{"Volume: front-left: 32768 /  50% / -18.06 dB,   front-right: 32768 /  50% / -18.06 dB", 50},
		{"73", 73},
		{" 100 ", 100},
	} {
		got, err := parsePercent(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("parsePercent(%q) = %d, %v; want %d", tt.in, got, err, tt.want)
		}
	}
	if _, err := parsePercent("missing"); err == nil {
		t.Error("expected error for non-numeric output")
	}
}
