package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"hark/audio"
	"hark/beep"
	"hark/config"
	"hark/hotkey"
	"hark/inject"
	"hark/log"
	"hark/orchestrator"
	"hark/transcriber"
	"hark/volume"
)

// printHandler stands in for the assistant in test mode.
type printHandler struct{}

func (printHandler) Handle(_ context.Context, transcript, selection string) error {
	fmt.Printf("ASSIST %s | %s\n", transcript, selection)
	return nil
}

// runTestMode replays a WAV file as the microphone and drives the hotkeys
// from stdin, one command per line:
//
//	TRANSCRIBE / ASSIST   tap the hotkey
//	WAIT                  block until the next session ends
//	WAIT_AUDIO_DONE       block until the whole file was delivered
//	SLEEP <ms>
//	QUIT
//
// Results go to stdout. HARK_TEST_TEXT replaces the engine with a fixed reply.
func runTestMode(cfg config.Config, wavPath string) int {
	beep.Disable()

	engine, err := testEngine(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fakeCtx, err := audio.NewFakeContext(wavPath, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
		return 1
	}
	capture, err := fakeCtx.NewCapture(nil, audio.DefaultCaptureConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating capture: %v\n", err)
		return 1
	}
	defer capture.Close()
	fakeCapture := capture.(*audio.FakeCapture)

	clip := inject.NewFake("previous clipboard")
	injector := inject.New(clip)
	injector.SettleDelay = cfg.Inject.SettleDelay()
	injector.RestoreDelay = 0

	o := orchestrator.New(orchestrator.Deps{
		Source:    capture,
		Engine:    engine,
		Ducker:    volume.NewDucker(volume.NewFake(50), volume.DefaultFloor),
		Injector:  injector,
		Assistant: printHandler{},
		Selection: func() string { return "selected text" },
	}, orchestratorConfig(cfg))
	defer o.Close()

	ended := make(chan struct{}, 16)
	var count atomic.Int64
	o.AddObserver(orchestrator.LogObserver{})
	o.AddObserver(orchestrator.ObserverFunc{
		OnStatus: func(m orchestrator.Mode, s orchestrator.Status) {
			fmt.Printf("STATUS %s %s\n", m, s)
		},
		OnUsage: func(u orchestrator.Usage) {
			count.Add(1)
			fmt.Printf("USAGE %s %s words=%d\n", u.Mode, u.Outcome, u.CleanedWords)
			if u.Outcome == orchestrator.OutcomeInjected {
				if p := clip.Pasted(); len(p) > 0 {
					fmt.Printf("PASTED %s\n", p[len(p)-1])
				}
			}
			select {
			case ended <- struct{}{}:
			default:
			}
		},
	})

	log.SessionStart(engine.Name(), "fake", "fake")

	keys := map[hotkey.Kind]*hotkey.FakeHotkey{
		hotkey.Transcribe: hotkey.NewFake(),
		hotkey.Assist:     hotkey.NewFake(),
	}
	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() {
		runDone <- o.Run(ctx, map[hotkey.Kind]hotkey.Hotkey{
			hotkey.Transcribe: keys[hotkey.Transcribe],
			hotkey.Assist:     keys[hotkey.Assist],
		})
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		switch {
		case cmd == "TRANSCRIBE":
			keys[hotkey.Transcribe].SimPress()
		case cmd == "ASSIST":
			keys[hotkey.Assist].SimPress()
		case cmd == "WAIT":
			<-ended
		case cmd == "WAIT_AUDIO_DONE":
			<-fakeCapture.AudioDone()
		case strings.HasPrefix(cmd, "SLEEP "):
			if ms, err := strconv.Atoi(cmd[6:]); err == nil {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		case cmd == "QUIT":
			cancel()
			<-runDone
			shutdownSessions(o)
			log.SessionEnd(int(count.Load()))
			return 0
		}
	}
	cancel()
	if err := <-runDone; err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	shutdownSessions(o)
	log.SessionEnd(int(count.Load()))
	return 0
}

func shutdownSessions(o *orchestrator.Orchestrator) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := o.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

func testEngine(cfg config.Config) (transcriber.Engine, error) {
	if text, ok := os.LookupEnv("HARK_TEST_TEXT"); ok {
		return transcriber.NewFake(text, nil), nil
	}
	return transcriber.New(cfg.Transcription.EngineConfig())
}
