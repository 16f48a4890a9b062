package doctor

import (
	"context"
	"fmt"
	"time"

	"hark/clipboard"
	"hark/config"
	"hark/inject"
)

const (
	pasteProbe = "hark-doctor-test"
	sentinel   = "hark-preserve-check"
)

func checkClipboard(cfg config.Config) bool {
	header(5, "Clipboard and paste")

	if err := clipboard.Init(); err != nil {
		fmt.Printf("  FAIL: paste init: %v\n", err)
		fmt.Println("  On Linux: sudo chmod 660 /dev/uinput && sudo chgrp input /dev/uinput")
		return false
	}

	if !checkReadback() {
		return false
	}

	if err := clipboard.Copy(sentinel); err != nil {
		fmt.Printf("  FAIL: could not set sentinel: %v\n", err)
		return false
	}

	fmt.Println("Focus on a text editor window...")
	countdown(5)

	inj := inject.New(clipboard.System{})
	inj.SettleDelay = cfg.Inject.SettleDelay()
	inj.RestoreDelay = cfg.Inject.RestoreDelay()
	if !inj.Inject(context.Background(), pasteProbe) {
		fmt.Println("  FAIL: paste failed, see log for details")
		return false
	}

	resetTerminal()
	fmt.Println()
	if !confirm(fmt.Sprintf("Did the text %q appear?", pasteProbe)) {
		fmt.Println("  FAIL: clipboard/paste not confirmed")
		return false
	}
	fmt.Println("  PASS: paste verified by user")

	restored, err := clipboard.Read()
	if err != nil {
		fmt.Printf("  FAIL: could not read clipboard after paste: %v\n", err)
		return false
	}
	if restored != sentinel {
		fmt.Printf("  FAIL: clipboard not preserved (got %q, want %q)\n", restored, sentinel)
		return false
	}
	fmt.Println("  PASS: clipboard preservation verified")
	return true
}

// checkReadback writes and reads the clipboard with a deadline, since the
// clipboard tools hang when no compositor is reachable.
func checkReadback() bool {
	probe := fmt.Sprintf("hark-doctor-%d", time.Now().UnixNano())

	type result struct {
		got   string
		err   error
		phase string
	}
	ch := make(chan result, 1)
	go func() {
		if err := clipboard.Copy(probe); err != nil {
			ch <- result{err: err, phase: "write"}
			return
		}
		got, err := clipboard.Read()
		if err != nil {
			ch <- result{err: err, phase: "read"}
			return
		}
		ch <- result{got: got}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			fmt.Printf("  FAIL: clipboard %s failed: %v\n", res.phase, res.err)
			return false
		}
		if res.got != probe {
			fmt.Printf("  FAIL: clipboard mismatch: wrote %q, got %q\n", probe, res.got)
			return false
		}
		fmt.Println("  PASS: clipboard write/read verified")
		return true
	case <-time.After(3 * time.Second):
		fmt.Println("  FAIL: clipboard timed out (clipboard tool hung - compositor not accessible?)")
		return false
	}
}

func countdown(n int) {
	for i := n; i > 0; i-- {
		fmt.Printf("  %d...\n", i)
		time.Sleep(time.Second)
	}
}
