package beep

import (
	"testing"

	"hark/orchestrator"
)

func TestGenerateTick(t *testing.T) {
	s := generateTick(1000, 100, 0.5, 0.5, 10)
	if len(s) != 500 {
		t.Fatalf("len = %d, want 500", len(s))
	}
	if s[0] != 0 {
		t.Errorf("first sample %d, sine starts at zero", s[0])
	}
	var peak int16
	for _, v := range s {
		if v > peak {
			peak = v
		}
	}
	if peak > 32767/2 {
		t.Errorf("peak %d exceeds volume", peak)
	}
}

func TestGenerateDoubleBeep(t *testing.T) {
	s := generateDoubleBeep(1000, 100, 0.1, 0.05, 0.5, 10)
	if len(s) != 100+50+100 {
		t.Errorf("len = %d", len(s))
	}
	for i := 100; i < 150; i++ {
		if s[i] != 0 {
			t.Fatalf("gap sample %d = %d", i, s[i])
		}
	}
}

func TestCues(t *testing.T) {
	var got []string
	c := Cues{
		Start: func() { got = append(got, "start") },
		End:   func() { got = append(got, "end") },
		Error: func() { got = append(got, "error") },
	}
	c.StatusChanged(orchestrator.Transcription, orchestrator.Recording)
	c.StatusChanged(orchestrator.Transcription, orchestrator.Processing)
	c.StatusChanged(orchestrator.Transcription, orchestrator.Idle)
	c.SessionUsage(orchestrator.Usage{Outcome: orchestrator.OutcomeInjected})
	c.SessionUsage(orchestrator.Usage{Outcome: orchestrator.OutcomeFailed})
	c.SessionUsage(orchestrator.Usage{Outcome: orchestrator.OutcomeBlank})

	want := []string{"start", "end", "error"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
