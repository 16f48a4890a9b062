package hotkey

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Combo
	}{
		{"ctrl+shift+space", Combo{ModCtrl | ModShift, "space"}},
		{"Ctrl + Shift + A", Combo{ModCtrl | ModShift, "a"}},
		{"cmd+option+return", Combo{ModSuper | ModAlt, "enter"}},
		{"win+f9", Combo{ModSuper, "f9"}},
		{"alt+esc", Combo{ModAlt, "escape"}},
		{"ctrl+1", Combo{ModCtrl, "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "space", "ctrl+shift", "ctrl+a+b", "ctrl++a", "ctrl+f13", "ctrl+pageup"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) succeeded", in)
		}
	}
}

func TestComboString(t *testing.T) {
	if got := MustParse("shift+CTRL+space").String(); got != "ctrl+shift+space" {
		t.Errorf("String() = %q", got)
	}
}

func TestBindingDefaults(t *testing.T) {
	tr := NewBinding(Transcribe, MustParse(DefaultTranscribeCombo))
	if tr.StartDebounce != 300*time.Millisecond || tr.StopDebounce != 300*time.Millisecond {
		t.Errorf("transcription debounce = %v/%v", tr.StartDebounce, tr.StopDebounce)
	}
	as := NewBinding(Assist, MustParse(DefaultAssistCombo))
	if as.StartDebounce != 150*time.Millisecond || as.StopDebounce != 0 {
		t.Errorf("assistant debounce = %v/%v", as.StartDebounce, as.StopDebounce)
	}
}

func TestBindingAllow(t *testing.T) {
	b := NewBinding(Transcribe, MustParse(DefaultTranscribeCombo))
	t0 := time.Now()
	if !b.Allow(t0, false) {
		t.Fatal("first press rejected")
	}
	if b.Allow(t0.Add(100*time.Millisecond), true) {
		t.Error("press inside window accepted")
	}
	// rejected press must not extend the window
	if !b.Allow(t0.Add(310*time.Millisecond), true) {
		t.Error("press after window rejected")
	}
	if got := b.LastTriggered(); !got.Equal(t0.Add(310 * time.Millisecond)) {
		t.Errorf("lastTriggeredAt = %v", got)
	}
}

func TestAssistStopNotDebounced(t *testing.T) {
	b := NewBinding(Assist, MustParse(DefaultAssistCombo))
	t0 := time.Now()
	b.Allow(t0, false)
	if !b.Allow(t0.Add(time.Millisecond), true) {
		t.Error("assistant stop right after start was debounced")
	}
	if b.Allow(t0.Add(50*time.Millisecond), false) {
		t.Error("assistant start inside 150ms accepted")
	}
}
