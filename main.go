package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"hark/assistant"
	"hark/audio"
	"hark/beep"
	"hark/clipboard"
	"hark/config"
	"hark/doctor"
	"hark/hotkey"
	"hark/inject"
	"hark/log"
	"hark/metrics"
	"hark/notify"
	"hark/orchestrator"
	"hark/session"
	"hark/shutdown"
	"hark/transcriber"
	"hark/volume"
)

var version = "dev"

// staleAfter is how old a leftover hark_*.wav must be before startup removes it.
const staleAfter = time.Hour

// shutdownGrace bounds how long exit waits for a session that is still
// starting or finishing to put the volume back.
const shutdownGrace = 5 * time.Second

type options struct {
	configPath string
	logPath    string
	device     string
	metrics    string
	setup      bool
	doctor     bool
	test       bool
	noBeep     bool
	tui        bool
	version    bool
}

func parseFlags() options {
	var opt options
	flag.StringVar(&opt.configPath, "config", config.DefaultPath(), "Path to config.yaml")
	flag.StringVar(&opt.logPath, "logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	flag.StringVar(&opt.device, "device", "", "Use named microphone device")
	flag.StringVar(&opt.metrics, "metrics", "", "Serve Prometheus metrics and pprof on this address (e.g. localhost:9464)")
	flag.BoolVar(&opt.setup, "setup", false, "Select microphone device and save it to the config")
	flag.BoolVar(&opt.doctor, "doctor", false, "Run system diagnostics and exit")
	flag.BoolVar(&opt.test, "test", false, "Test mode (headless, stdin-driven): hark -test <wav-file>")
	flag.BoolVar(&opt.noBeep, "nobeep", false, "Disable audio cues")
	flag.BoolVar(&opt.tui, "tui", true, "Run with terminal UI")
	flag.BoolVar(&opt.version, "version", false, "Print version and exit")
	flag.Parse()
	return opt
}

func fatalf(format string, args ...any) {
	log.Errorf(format, args...)
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	log.Close()
	os.Exit(1)
}

func run() {
	// A missing .env is normal; keys may come from the environment.
	_ = godotenv.Load()

	opt := parseFlags()
	if opt.version {
		fmt.Printf("hark %s\n", version)
		return
	}

	logPath, err := log.ResolveDir(opt.logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}
	initCrashLog()

	cfg, err := config.Load(opt.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyEnv()
	if opt.device != "" {
		cfg.Audio.Device = opt.device
	}
	if opt.metrics != "" {
		cfg.Metrics.Addr = opt.metrics
	}
	if opt.noBeep {
		cfg.Notify.Beep = false
	}

	if opt.doctor {
		os.Exit(doctor.Run(cfg))
	}
	if opt.setup {
		os.Exit(runSetup(opt.configPath, cfg))
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	removeStaleRecordings(os.TempDir(), time.Now())

	if opt.test {
		args := flag.Args()
		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, "Usage: hark -test <wav-file>")
			os.Exit(1)
		}
		code := runTestMode(cfg, args[0])
		log.Close()
		os.Exit(code)
	}

	engine, err := transcriber.New(cfg.Transcription.EngineConfig())
	if err != nil {
		if errors.Is(err, transcriber.ErrNoModel) {
			fatalf("%v (download one to %s or set transcription.whisper_model)", err, transcriber.DefaultModelPath())
		}
		fatalf("%v", err)
	}

	if err := clipboard.Init(); err != nil {
		fmt.Printf("Warning: paste init failed: %v\n", err)
		fmt.Println("Fix with: sudo chmod 660 /dev/uinput && sudo chgrp input /dev/uinput")
	}

	actx, err := audio.NewContext()
	if err != nil {
		fatalf("initializing audio context: %v", err)
	}
	defer actx.Close()

	device, err := audio.FindDevice(actx, cfg.Audio.Device)
	if err != nil {
		log.Warnf("device lookup failed: %v", err)
	}
	if device == nil && cfg.Audio.Device != "" {
		log.Warnf("device %q not found, using system default", cfg.Audio.Device)
	}
	capture, err := actx.NewCapture(device, audio.DefaultCaptureConfig())
	if err != nil {
		fatalf("initializing capture device: %v", err)
	}
	defer capture.Close()
	log.Info("recording_device: " + capture.DeviceName())

	floor := cfg.Volume.Floor
	if floor < 0 {
		floor = volume.DefaultFloor
	}
	injector := inject.New(clipboard.System{})
	injector.SettleDelay = cfg.Inject.SettleDelay()
	injector.RestoreDelay = cfg.Inject.RestoreDelay()

	transcribeCombo, assistCombo := cfg.Hotkeys.Combos()
	desktop := notify.NewDesktop()
	ui := newUI(opt.tui && term.IsTerminal(int(os.Stdout.Fd())), uiInfo{
		engine:     engine.Name(),
		device:     capture.DeviceName(),
		transcribe: transcribeCombo.String(),
		assist:     assistCombo.String(),
	})

	o := orchestrator.New(orchestrator.Deps{
		Source:    capture,
		Engine:    engine,
		Ducker:    volume.NewDucker(volume.NewSystem(), floor),
		Injector:  injector,
		Assistant: newAssistant(cfg, desktop, ui),
		Selection: readSelection,
	}, orchestratorConfig(cfg))

	var sessions atomic.Int64
	o.AddObserver(orchestrator.LogObserver{})
	o.AddObserver(orchestrator.ObserverFunc{OnUsage: func(orchestrator.Usage) { sessions.Add(1) }})
	if g, ok := engine.(*transcriber.Groq); ok {
		// open the upload connection while the user is still speaking
		o.AddObserver(orchestrator.ObserverFunc{OnStatus: func(_ orchestrator.Mode, s orchestrator.Status) {
			if s == orchestrator.Recording {
				go g.Warm()
			}
		}})
	}
	if cfg.Notify.Desktop {
		o.AddObserver(desktop)
	}
	if cfg.Notify.Beep {
		go beep.Init()
		o.AddObserver(beep.NewCues())
	} else {
		beep.Disable()
	}
	if cfg.Metrics.Addr != "" {
		m := metrics.New()
		o.AddObserver(m)
		go serveMetrics(cfg.Metrics.Addr, m.Handler())
	}

	log.SessionStart(engine.Name(), transcribeCombo.String(), assistCombo.String())

	ctx, stop := shutdown.Context(context.Background())
	defer stop()

	if ui != nil {
		o.AddObserver(ui)
		go ui.run(stop)
	} else {
		fmt.Printf("hark %s: %s to dictate, %s to ask (engine: %s)\n",
			version, transcribeCombo, assistCombo, engine.Name())
	}

	hotkeys := map[hotkey.Kind]hotkey.Hotkey{
		hotkey.Transcribe: hotkey.New(transcribeCombo),
		hotkey.Assist:     hotkey.New(assistCombo),
	}
	runErr := o.Run(ctx, hotkeys)

	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	if err := o.Shutdown(sctx); err != nil {
		log.Warnf("shutdown: %v", err)
	}
	cancel()
	o.Close()
	if ui != nil {
		ui.quit()
	}
	log.SessionEnd(int(sessions.Load()))
	if runErr != nil {
		fatalf("%v", runErr)
	}
}

func orchestratorConfig(cfg config.Config) orchestrator.Config {
	oc := orchestrator.DefaultConfig()
	oc.TranscribeCombo, oc.AssistCombo = cfg.Hotkeys.Combos()
	oc.HoldToTalk = cfg.Hotkeys.HoldToTalkDuration()
	oc.DuckEnabled = cfg.Volume.Duck
	oc.DuckPercent = cfg.Volume.Percent
	oc.Session.SilenceTimeout = cfg.Audio.SilenceTimeout()
	oc.FinalizeTimeout = cfg.Transcription.Timeout() + 5*time.Second
	return oc
}

// newAssistant streams to OpenAI when a key is configured and otherwise only
// logs what would have been asked.
func newAssistant(cfg config.Config, desktop *notify.Desktop, ui *tuiUI) orchestrator.AssistantHandler {
	if !cfg.Assistant.Enabled || cfg.Assistant.APIKey == "" {
		if cfg.Assistant.Enabled {
			log.Warn("assistant: OPENAI_API_KEY not set, replies are logged only")
		}
		return assistant.LogHandler{}
	}
	a := assistant.NewOpenAI(assistant.Config{
		APIKey:       cfg.Assistant.APIKey,
		BaseURL:      cfg.Assistant.BaseURL,
		Model:        cfg.Assistant.Model,
		SystemPrompt: cfg.Assistant.SystemPrompt,
	})
	if ui != nil {
		a.OnSentence = ui.sentence
	}
	a.Deliver = func(reply string) error {
		if err := clipboard.Copy(reply); err != nil {
			return fmt.Errorf("copy reply: %w", err)
		}
		if cfg.Notify.Desktop {
			return desktop.Reply(reply)
		}
		return nil
	}
	return a
}

// readSelection hands the assistant whatever the user last copied.
func readSelection() string {
	s, err := clipboard.Read()
	if err != nil {
		log.Warnf("assistant: read clipboard: %v", err)
		return ""
	}
	return s
}

func serveMetrics(addr string, h http.Handler) {
	log.Infof("metrics listening on http://%s/metrics", addr)
	if err := http.ListenAndServe(addr, h); err != nil {
		log.Errorf("metrics server: %v", err)
	}
}

func runSetup(path string, cfg config.Config) int {
	actx, err := audio.NewContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing audio: %v\n", err)
		return 1
	}
	defer actx.Close()

	dev, err := audio.SelectDevice(actx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	cfg.Audio.Device = dev.Name
	if err := config.Save(path, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		return 1
	}
	fmt.Printf("Saved device %q to %s\n", dev.Name, path)
	return 0
}

func initCrashLog() {
	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	f, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(f, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(f, debug.CrashOptions{})
}

// removeStaleRecordings deletes recordings a crashed run left behind.
func removeStaleRecordings(dir string, now time.Time) int {
	matches, err := filepath.Glob(filepath.Join(dir, session.TempFilePrefix+"*.wav"))
	if err != nil {
		return 0
	}
	removed := 0
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || now.Sub(info.ModTime()) < staleAfter {
			continue
		}
		if os.Remove(path) == nil {
			removed++
		}
	}
	if removed > 0 {
		log.Infof("removed %d stale recording(s) from %s", removed, dir)
	}
	return removed
}
