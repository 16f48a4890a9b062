package session

import (
	"bytes"
	"testing"
)

func TestBufferKeepsArrivalOrder(t *testing.T) {
	b := NewBuffer("s1")
	for _, c := range []string{"ab", "cd", "ef"} {
		if !b.Append("s1", []byte(c)) {
			t.Fatalf("Append(%q) rejected", c)
		}
	}
	if b.Len() != 6 || b.Chunks() != 3 {
		t.Errorf("Len=%d Chunks=%d", b.Len(), b.Chunks())
	}
	if got := b.Seal(); !bytes.Equal(got, []byte("abcdef")) {
		t.Errorf("Seal() = %q", got)
	}
}

func TestBufferRejectsForeignSession(t *testing.T) {
	b := NewBuffer("s1")
	if b.Append("s2", []byte("x")) {
		t.Error("chunk for another session accepted")
	}
	if !b.LastArrival().IsZero() {
		t.Error("rejected chunk must not move lastArrival")
	}
}

func TestBufferSealIsReadOnce(t *testing.T) {
	b := NewBuffer("s1")
	b.Append("s1", []byte("abc"))
	if got := b.Seal(); string(got) != "abc" {
		t.Fatalf("first Seal = %q", got)
	}
	if got := b.Seal(); got != nil {
		t.Errorf("second Seal = %q, want nil", got)
	}
	if b.Append("s1", []byte("late")) {
		t.Error("append after seal accepted")
	}
}

func TestBufferReset(t *testing.T) {
	b := NewBuffer("s1")
	b.Append("s1", []byte("abc"))
	b.Reset()
	if b.Len() != 0 || !b.Sealed() {
		t.Errorf("after Reset: Len=%d Sealed=%v", b.Len(), b.Sealed())
	}
	if b.Append("s1", []byte("x")) {
		t.Error("append after reset accepted")
	}
}

func TestBufferLastArrivalAdvances(t *testing.T) {
	b := NewBuffer("s1")
	b.Append("s1", []byte("a"))
	first := b.LastArrival()
	if first.IsZero() {
		t.Fatal("lastArrival not set")
	}
	b.Append("s1", []byte("b"))
	if b.LastArrival().Before(first) {
		t.Error("lastArrival went backwards")
	}
}
