// Package doctor runs interactive checks of every platform integration hark
// depends on.
package doctor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"hark/audio"
	"hark/config"
	"hark/hotkey"
	"hark/transcriber"
	"hark/volume"
)

const steps = 5

// Run executes interactive diagnostic checks and returns an exit code (0=all pass, 1=any fail).
func Run(cfg config.Config) int {
	resetTerminal()
	handleInterrupt()

	fmt.Println("hark doctor - interactive system diagnostics")
	fmt.Println("============================================")

	checks := []func(config.Config) bool{
		checkHotkeyAccess,
		checkHotkey,
		checkVolume,
		checkMicAndTranscription,
		checkClipboard,
	}

	allPass := true
	for _, check := range checks {
		if !check(cfg) {
			allPass = false
			break
		}
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func header(n int, title string) {
	fmt.Println()
	fmt.Printf("[%d/%d] %s\n", n, steps, title)
}

func confirm(prompt string) bool {
	r := bufio.NewReader(os.Stdin)
	fmt.Print(prompt + " [y/n]: ")
	answer, _ := r.ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes"
}

func checkHotkeyAccess(_ config.Config) bool {
	header(1, "Hotkey access")
	msg, err := hotkey.Diagnose()
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	fmt.Printf("  PASS: %s\n", msg)
	return true
}

func checkHotkey(cfg config.Config) bool {
	header(2, "Hotkey detection")
	combo, _ := cfg.Hotkeys.Combos()
	fmt.Printf("Press %s...\n", combo)

	hk := hotkey.New(combo)
	if err := hk.Register(); err != nil {
		fmt.Printf("  FAIL: could not register hotkey: %v\n", err)
		return false
	}
	defer hk.Unregister()

	select {
	case <-hk.Keydown():
		fmt.Println("  PASS: hotkey detected")
		select {
		case <-hk.Keyup():
		case <-time.After(5 * time.Second):
		}
		// the hotkey backend may leave the terminal in raw mode
		resetTerminal()
		return true
	case <-time.After(10 * time.Second):
		fmt.Println("  FAIL: timeout waiting for hotkey")
		return false
	}
}

func checkVolume(cfg config.Config) bool {
	header(3, "System volume")
	if !cfg.Volume.Duck {
		fmt.Println("  SKIP: ducking disabled in config")
		return true
	}

	backend := volume.NewSystem()
	level, err := backend.Get()
	if err != nil {
		fmt.Printf("  FAIL: cannot read output volume: %v\n", err)
		return false
	}
	fmt.Printf("  Output volume is %d%%\n", level)

	floor := cfg.Volume.Floor
	if floor < 0 {
		floor = volume.DefaultFloor
	}
	d := volume.NewDucker(backend, floor)
	setUndo(func() { d.Restore() })
	defer setUndo(nil)
	if !d.Duck(cfg.Volume.Percent) {
		fmt.Println("  FAIL: could not lower volume")
		return false
	}
	ducked, _ := d.CurrentVolume()
	time.Sleep(300 * time.Millisecond)
	if !d.Restore() {
		fmt.Printf("  FAIL: could not restore volume to %d%%\n", level)
		return false
	}

	after, err := backend.Get()
	if err != nil || after != level {
		fmt.Printf("  FAIL: volume not restored (got %d%%, want %d%%)\n", after, level)
		return false
	}
	fmt.Printf("  PASS: ducked to %d%% and restored to %d%%\n", ducked, level)
	return true
}

func checkMicAndTranscription(cfg config.Config) bool {
	header(4, "Microphone and transcription")

	engine, err := transcriber.New(cfg.Transcription.EngineConfig())
	if err != nil {
		fmt.Printf("  FAIL: transcription engine: %v\n", err)
		return false
	}
	fmt.Printf("Using engine: %s\n", engine.Name())

	actx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return false
	}
	defer actx.Close()

	device, err := audio.FindDevice(actx, cfg.Audio.Device)
	if err == nil && device == nil {
		device, err = audio.SelectDevice(actx)
	}
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	fmt.Printf("Using device: %s\n", device.Name)
	if audio.IsBluetooth(device.Name) {
		fmt.Println("  Warning: bluetooth microphones record in narrowband")
	}

	fmt.Println()
	fmt.Print("Press Enter and speak for 3 seconds...")
	bufio.NewReader(os.Stdin).ReadString('\n')

	stop := make(chan struct{})
	time.AfterFunc(3*time.Second, func() { close(stop) })

	pcm, err := recordAudio(actx, device, stop)
	if err != nil {
		fmt.Printf("  FAIL: recording error: %v\n", err)
		return false
	}
	if len(pcm) == 0 {
		fmt.Println("  FAIL: no audio captured")
		return false
	}

	fmt.Printf("  Recorded %.1f KB, transcribing...\n", float64(len(pcm))/1024)

	wav := audio.BuildWAV(pcm, audio.SampleRate, audio.Channels, audio.BitsPerSample)
	path := filepath.Join(os.TempDir(), fmt.Sprintf("hark_doctor_%d.wav", os.Getpid()))
	if err := os.WriteFile(path, wav, 0o600); err != nil {
		fmt.Printf("  FAIL: writing %s: %v\n", path, err)
		return false
	}
	defer os.Remove(path)

	tctx, cancel := context.WithTimeout(context.Background(), cfg.Transcription.Timeout())
	defer cancel()
	text, err := engine.Transcribe(tctx, path)
	if err != nil {
		fmt.Printf("  FAIL: transcription error: %v\n", err)
		return false
	}

	text = strings.TrimSpace(text)
	if text == "" {
		text = "(no speech detected)"
	}
	fmt.Printf("\n  Transcribed text: %s\n\n", text)

	if confirm("Is this correct?") {
		fmt.Println("  PASS: transcription verified by user")
		return true
	}
	fmt.Println("  FAIL: transcription not confirmed")
	return false
}

func recordAudio(actx audio.Context, device *audio.DeviceInfo, stop <-chan struct{}) ([]byte, error) {
	var (
		mu      sync.Mutex
		pcm     []byte
		stopped bool
	)
	done := make(chan struct{})

	capture, err := actx.NewCapture(device, audio.DefaultCaptureConfig())
	if err != nil {
		return nil, err
	}
	defer capture.Close()

	capture.SetCallback(func(data []byte, _ uint32) {
		mu.Lock()
		defer mu.Unlock()
		if !stopped {
			pcm = append(pcm, data...)
		}
	})

	if err := capture.Start(); err != nil {
		return nil, err
	}

	fmt.Print("  Recording")
	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fmt.Print(".")
			}
		}
	}()

	<-stop
	close(done)
	capture.Stop()
	fmt.Println(" done")

	mu.Lock()
	stopped = true
	raw := pcm
	mu.Unlock()
	return raw, nil
}
