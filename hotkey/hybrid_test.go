package hotkey

import (
	"context"
	"testing"
	"time"
)

func waitStart(t *testing.T, hy *Hybrid) {
	t.Helper()
	select {
	case <-hy.Start():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for start")
	}
}

func waitStop(t *testing.T, hy *Hybrid) {
	t.Helper()
	select {
	case <-hy.Stop():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for stop")
	}
}

func TestHybridLongPress(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fk := NewFake()
	threshold := 50 * time.Millisecond
	hy := NewHybrid(ctx, fk, threshold)

	fk.SimKeydown()
	waitStart(t, hy)
	time.Sleep(threshold + 20*time.Millisecond)
	fk.SimKeyup()
	waitStop(t, hy)
}

func TestHybridShortTap(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fk := NewFake()
	hy := NewHybrid(ctx, fk, 200*time.Millisecond)

	fk.SimKeydown()
	waitStart(t, hy)
	fk.SimKeyup() // release before threshold → toggle mode

	select {
	case <-hy.Stop():
		t.Fatal("unexpected stop after short tap, should still be recording")
	case <-time.After(50 * time.Millisecond):
	}

	fk.SimKeydown()
	fk.SimKeyup()
	waitStop(t, hy)
}

func TestHybridMultipleCycles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fk := NewFake()
	threshold := 50 * time.Millisecond
	hy := NewHybrid(ctx, fk, threshold)

	// long press
	fk.SimKeydown()
	waitStart(t, hy)
	time.Sleep(threshold + 20*time.Millisecond)
	fk.SimKeyup()
	waitStop(t, hy)

	// short tap
	fk.SimKeydown()
	waitStart(t, hy)
	fk.SimKeyup()
	time.Sleep(20 * time.Millisecond)
	fk.SimKeydown()
	fk.SimKeyup()
	waitStop(t, hy)
}

func TestHybridStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fk := NewFake()
	hy := NewHybrid(ctx, fk, 50*time.Millisecond)
	cancel()
	time.Sleep(10 * time.Millisecond)

	fk.SimKeydown()
	select {
	case <-hy.Start():
		t.Error("start after cancel")
	case <-time.After(50 * time.Millisecond):
	}
}
