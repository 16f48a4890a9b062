package inject

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func opNames(ops []Op) string {
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.Name
	}
	return strings.Join(names, ",")
}

func fastInjector(b PasteBackend) *Injector {
	in := New(b)
	in.SettleDelay = 5 * time.Millisecond
	in.RestoreDelay = 20 * time.Millisecond
	return in
}

func TestInjectRestoresOriginal(t *testing.T) {
	f := NewFake("previous")
	if !fastInjector(f).Inject(context.Background(), "hello") {
		t.Fatal("Inject returned false")
	}
	if got := f.Pasted(); len(got) != 1 || got[0] != "hello" {
		t.Errorf("pasted %v", got)
	}
	if f.Content() != "previous" {
		t.Errorf("clipboard = %q, want original back", f.Content())
	}
	if got := opNames(f.Ops()); got != "read,write,paste,write" {
		t.Errorf("ops = %s", got)
	}
}

func TestInjectClearsWhenEmpty(t *testing.T) {
	f := NewFake("")
	fastInjector(f).Inject(context.Background(), "hello")
	if got := opNames(f.Ops()); got != "read,write,paste,clear" {
		t.Errorf("ops = %s", got)
	}
	if f.Content() != "" {
		t.Errorf("clipboard = %q", f.Content())
	}
}

func TestInjectTiming(t *testing.T) {
	f := NewFake("x")
	in := New(f)
	in.SettleDelay = 30 * time.Millisecond
	in.RestoreDelay = 120 * time.Millisecond
	in.Inject(context.Background(), "hello")

	ops := f.Ops()
	if len(ops) != 4 {
		t.Fatalf("ops = %s", opNames(ops))
	}
	if d := ops[2].At.Sub(ops[1].At); d < 30*time.Millisecond {
		t.Errorf("paste %v after write, want >= settle delay", d)
	}
	if d := ops[3].At.Sub(ops[2].At); d < 120*time.Millisecond {
		t.Errorf("restore %v after paste, want >= restore delay", d)
	}
}

func TestInjectPasteFailureStillRestores(t *testing.T) {
	f := NewFake("keep")
	f.FailPaste(errors.New("no uinput"))
	if fastInjector(f).Inject(context.Background(), "hello") {
		t.Error("Inject should report failure")
	}
	if f.Content() != "keep" {
		t.Errorf("clipboard = %q", f.Content())
	}
}

func TestInjectWriteFailure(t *testing.T) {
	f := NewFake("keep")
	f.FailWrite(errors.New("denied"))
	if fastInjector(f).Inject(context.Background(), "hello") {
		t.Error("Inject should report failure")
	}
	if got := opNames(f.Ops()); got != "read,write" {
		t.Errorf("ops = %s, nothing to paste or restore", got)
	}
}

func TestInjectReadFailureClears(t *testing.T) {
	f := NewFake("secret")
	f.FailRead(errors.New("not text"))
	if !fastInjector(f).Inject(context.Background(), "hello") {
		t.Error("read failure must not block the paste")
	}
	if got := opNames(f.Ops()); got != "read,write,paste,clear" {
		t.Errorf("ops = %s", got)
	}
}

func TestInjectCancelledRestoresImmediately(t *testing.T) {
	f := NewFake("orig")
	in := New(f)
	in.SettleDelay = time.Second
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	if in.Inject(ctx, "hello") {
		t.Error("cancelled inject reported success")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("cancel did not cut the wait short")
	}
	if len(f.Pasted()) != 0 {
		t.Error("pasted after cancel")
	}
	if f.Content() != "orig" {
		t.Errorf("clipboard = %q", f.Content())
	}
}
