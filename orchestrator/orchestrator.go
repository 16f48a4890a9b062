// Package orchestrator routes the two recording hotkeys into capture
// sessions and makes sure every session ends with the volume restored and the
// slot free again.
package orchestrator

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"hark/hotkey"
	"hark/log"
	"hark/session"
	"hark/transcriber"
)

type Mode = session.Mode

const (
	Transcription = session.Transcription
	Assistant     = session.Assistant
)

type Status int

const (
	Idle Status = iota
	Recording
	Processing
)

func (s Status) String() string {
	switch s {
	case Recording:
		return "recording"
	case Processing:
		return "processing"
	}
	return "idle"
}

const (
	OutcomeInjected        = "injected"
	OutcomeInjectFailed    = "inject_failed"
	OutcomeAssistant       = "assistant"
	OutcomeAssistantFailed = "assistant_failed"
	OutcomeBlank           = "blank"
	OutcomeFailed          = "failed"
	OutcomeStartFailed     = "start_failed"
)

// Usage is emitted once per session when it ends, and once for a start that
// failed to open the audio source.
type Usage struct {
	SessionID     string
	Mode          Mode
	Outcome       string
	Engine        string
	Duration      time.Duration
	AudioBytes    int
	OriginalChars int
	CleanedChars  int
	OriginalWords int
	CleanedWords  int
	Err           error
}

// Observer is told about status changes and finished sessions. Calls come
// from a single goroutine in event order and never block the orchestrator.
type Observer interface {
	StatusChanged(mode Mode, status Status)
	SessionUsage(u Usage)
}

type Ducker interface {
	Duck(percent int) bool
	Restore() bool
}

type Injector interface {
	Inject(ctx context.Context, text string) bool
}

type AssistantHandler interface {
	Handle(ctx context.Context, transcript, selection string) error
}

type Deps struct {
	Source    session.Source
	Engine    transcriber.Engine
	Ducker    Ducker
	Injector  Injector
	Assistant AssistantHandler
	// Selection, if set, is read when an assistant recording starts.
	Selection func() string
}

type Config struct {
	TranscribeCombo hotkey.Combo
	AssistCombo     hotkey.Combo

	DuckEnabled bool
	DuckPercent int

	// HoldToTalk > 0 lets a press held longer than this stop on release.
	HoldToTalk time.Duration

	Session         session.Config
	FinalizeTimeout time.Duration
	QueueSize       int
}

func DefaultConfig() Config {
	return Config{
		TranscribeCombo: hotkey.MustParse(hotkey.DefaultTranscribeCombo),
		AssistCombo:     hotkey.MustParse(hotkey.DefaultAssistCombo),
		DuckEnabled:     true,
		DuckPercent:     90,
		Session:         session.DefaultConfig(),
		FinalizeTimeout: 2 * time.Minute,
		QueueSize:       64,
	}
}

// slot is the single active session. sess is nil while the session is being
// started; aborted marks a start that Abort cancelled in that window.
type slot struct {
	mode     Mode
	sess     *session.Session
	stopping bool
	aborted  bool
}

type event struct {
	mode   Mode
	status Status
	usage  *Usage
}

type Orchestrator struct {
	deps Deps
	cfg  Config

	mu                sync.Mutex
	active            *slot
	processing        map[hotkey.Kind]bool
	pendingStop       map[hotkey.Kind]time.Time
	bindings          map[hotkey.Kind]*hotkey.Binding
	status            Status
	statusMode        Mode
	currentTranscript string
	closing           bool

	// starts and stops under way; Add only under mu
	inflight sync.WaitGroup

	hkMu      sync.Mutex
	runCtx    context.Context
	hotkeys   map[hotkey.Kind]hotkey.Hotkey
	listeners map[hotkey.Kind]context.CancelFunc

	obsMu     sync.Mutex
	observers []Observer
	events    chan event
	quit      chan struct{}
	closeOnce sync.Once
	delivered sync.WaitGroup
}

func New(deps Deps, cfg Config) *Orchestrator {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	o := &Orchestrator{
		deps:        deps,
		cfg:         cfg,
		processing:  make(map[hotkey.Kind]bool),
		pendingStop: make(map[hotkey.Kind]time.Time),
		bindings: map[hotkey.Kind]*hotkey.Binding{
			hotkey.Transcribe: hotkey.NewBinding(hotkey.Transcribe, cfg.TranscribeCombo),
			hotkey.Assist:     hotkey.NewBinding(hotkey.Assist, cfg.AssistCombo),
		},
		hotkeys:   make(map[hotkey.Kind]hotkey.Hotkey),
		listeners: make(map[hotkey.Kind]context.CancelFunc),
		events:    make(chan event, cfg.QueueSize),
		quit:      make(chan struct{}),
	}
	o.delivered.Add(1)
	go o.deliver()
	return o
}

func (o *Orchestrator) AddObserver(obs Observer) {
	o.obsMu.Lock()
	o.observers = append(o.observers, obs)
	o.obsMu.Unlock()
}

func (o *Orchestrator) deliver() {
	defer o.delivered.Done()
	for {
		select {
		case <-o.quit:
			return
		case ev := <-o.events:
			o.obsMu.Lock()
			obs := append([]Observer(nil), o.observers...)
			o.obsMu.Unlock()
			for _, ob := range obs {
				notify(ob, ev)
			}
		}
	}
}

func notify(ob Observer, ev event) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("observer panic: %v", r)
		}
	}()
	if ev.usage != nil {
		ob.SessionUsage(*ev.usage)
	} else {
		ob.StatusChanged(ev.mode, ev.status)
	}
}

func (o *Orchestrator) publish(ev event) {
	select {
	case o.events <- ev:
	default:
		log.Warnf("observer queue full, dropped %s event", ev.status)
	}
}

func (o *Orchestrator) setStatus(mode Mode, st Status) {
	o.mu.Lock()
	o.setStatusLocked(mode, st)
	o.mu.Unlock()
}

func (o *Orchestrator) setStatusLocked(mode Mode, st Status) {
	o.status, o.statusMode = st, mode
	log.Status(mode.String(), st.String())
	o.publish(event{mode: mode, status: st})
}

// Status is the last status published and the mode it applies to.
func (o *Orchestrator) Status() (Mode, Status) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.statusMode, o.status
}

// Active reports the mode of the session holding the slot, if any.
func (o *Orchestrator) Active() (Mode, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == nil {
		return 0, false
	}
	return o.active.mode, true
}

// IsRecording reports whether a session of mode is capturing audio.
func (o *Orchestrator) IsRecording(mode Mode) bool {
	o.mu.Lock()
	a := o.active
	o.mu.Unlock()
	return a != nil && a.mode == mode && a.sess != nil && !a.stopping &&
		a.sess.State() == session.Recording
}

// CurrentTranscript is the text being injected, empty outside of that step.
func (o *Orchestrator) CurrentTranscript() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.currentTranscript
}

func (o *Orchestrator) Binding(kind hotkey.Kind) *hotkey.Binding {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.bindings[kind]
}

func modeFor(kind hotkey.Kind) Mode {
	if kind == hotkey.Assist {
		return Assistant
	}
	return Transcription
}

// OnHotkey toggles the recording of kind's mode. Presses inside the
// binding's debounce window, or while an earlier press of the same kind is
// still being handled, are ignored. Panics are recovered and logged.
func (o *Orchestrator) OnHotkey(ctx context.Context, kind hotkey.Kind) {
	o.handleKey(ctx, kind, false)
}

// OnRelease stops kind's recording when a held key is let go. A release that
// arrives while the press that started the recording is still being handled
// is kept and applied as soon as that press returns.
func (o *Orchestrator) OnRelease(ctx context.Context, kind hotkey.Kind) {
	o.handleKey(ctx, kind, true)
}

func (o *Orchestrator) handleKey(ctx context.Context, kind hotkey.Kind, release bool) {
	now := time.Now()
	o.mu.Lock()
	if o.processing[kind] {
		if release {
			o.pendingStop[kind] = now
		}
		o.mu.Unlock()
		if release {
			log.Infof("%s release queued: press still in progress", kind)
		} else {
			log.Infof("%s hotkey ignored: previous press still in progress", kind)
		}
		return
	}
	o.processing[kind] = true
	b := o.bindings[kind]
	o.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("panic handling %s hotkey: %v\n%s", kind, r, debug.Stack())
		}
		o.mu.Lock()
		o.processing[kind] = false
		delete(o.pendingStop, kind)
		o.mu.Unlock()
	}()

	mode := modeFor(kind)
	if release {
		if o.IsRecording(mode) && b.Allow(now, true) {
			o.RequestStop(ctx, mode)
		}
		return
	}

	stopping := o.IsRecording(mode)
	if !b.Allow(now, stopping) {
		return
	}
	if stopping {
		o.RequestStop(ctx, mode)
		return
	}
	if !o.RequestStart(ctx, mode) {
		return
	}

	o.mu.Lock()
	at, pending := o.pendingStop[kind]
	delete(o.pendingStop, kind)
	o.mu.Unlock()
	if pending && b.Allow(at, true) {
		log.Infof("%s key released during start, stopping", kind)
		o.RequestStop(ctx, mode)
	}
}

// RequestStart begins a recording in mode. It returns false without side
// effects when any session already holds the slot.
func (o *Orchestrator) RequestStart(ctx context.Context, mode Mode) bool {
	o.mu.Lock()
	if o.closing {
		o.mu.Unlock()
		log.Infof("start %s rejected: shutting down", mode)
		return false
	}
	if o.active != nil {
		busy := o.active.mode
		o.mu.Unlock()
		log.Infof("start %s rejected: %s session active", mode, busy)
		return false
	}
	a := &slot{mode: mode}
	o.active = a
	o.inflight.Add(1)
	o.mu.Unlock()
	defer o.inflight.Done()

	if o.cfg.DuckEnabled && o.deps.Ducker != nil {
		if !o.deps.Ducker.Duck(o.cfg.DuckPercent) {
			log.Warn("volume duck failed, recording anyway")
		}
	}
	if o.startAborted(a) {
		log.Infof("start %s aborted", mode)
		o.restoreVolume()
		o.release(a)
		return false
	}

	var selection string
	if mode == Assistant && o.deps.Selection != nil {
		selection = o.deps.Selection()
	}

	sess, err := session.Start("", mode, o.deps.Source, o.cfg.Session)
	if err != nil {
		log.Errorf("start %s: %v", mode, err)
		o.restoreVolume()
		o.release(a)
		o.publish(event{usage: &Usage{Mode: mode, Outcome: OutcomeStartFailed, Err: err}})
		return false
	}
	sess.Selection = selection

	// Recording is published under mu so a concurrent Abort either sees the
	// session or leaves the teardown to us, and its Idle never precedes it.
	o.mu.Lock()
	if a.aborted {
		o.mu.Unlock()
		log.Infof("session %s: %s start aborted", sess.ID, mode)
		sess.Close()
		o.restoreVolume()
		o.release(a)
		return false
	}
	a.sess = sess
	o.setStatusLocked(mode, Recording)
	o.mu.Unlock()

	log.Infof("session %s: %s recording started", sess.ID, mode)
	return true
}

func (o *Orchestrator) startAborted(a *slot) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return a.aborted
}

// RequestStop ends the mode session: drain, transcribe, then inject or hand
// off to the assistant. It returns false when no session of mode is
// recording. Whatever happens in between, the volume is restored and the slot
// released before it returns.
func (o *Orchestrator) RequestStop(ctx context.Context, mode Mode) bool {
	o.mu.Lock()
	a := o.active
	if a == nil || a.mode != mode || a.sess == nil || a.stopping || a.sess.State() != session.Recording {
		o.mu.Unlock()
		return false
	}
	a.stopping = true
	o.inflight.Add(1)
	o.mu.Unlock()
	defer o.inflight.Done()

	o.finish(ctx, a)
	return true
}

func (o *Orchestrator) finish(ctx context.Context, a *slot) {
	sess := a.sess
	defer func() {
		o.restoreVolume()
		o.mu.Lock()
		o.currentTranscript = ""
		o.mu.Unlock()
		o.setStatus(a.mode, Idle)
		sess.Close()
		o.release(a)
	}()

	o.setStatus(a.mode, Processing)
	if err := sess.Stop(); err != nil {
		log.Warnf("session %s: stop: %v", sess.ID, err)
	}
	waited, stable := sess.WaitStable(ctx)
	log.Infof("session %s: drained in %s (stable=%v, %d bytes)", sess.ID, waited.Round(time.Millisecond), stable, sess.Bytes())

	fctx := ctx
	if o.cfg.FinalizeTimeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, o.cfg.FinalizeTimeout)
		defer cancel()
	}
	res := sess.Finalize(fctx, o.deps.Engine)

	u := Usage{
		SessionID:     sess.ID,
		Mode:          a.mode,
		Engine:        res.Engine,
		Duration:      res.Duration,
		AudioBytes:    res.AudioBytes,
		OriginalChars: len(res.Raw),
		CleanedChars:  len(res.Sanitized),
		OriginalWords: res.RawWordCount,
		CleanedWords:  res.WordCount,
		Err:           res.Err,
	}

	switch {
	case res.Err != nil:
		u.Outcome = OutcomeFailed
	case res.Blank():
		log.Infof("session %s: blank transcript, nothing to deliver", sess.ID)
		u.Outcome = OutcomeBlank
	case a.mode == Transcription:
		u.Outcome = o.inject(ctx, res.Sanitized)
	default:
		u.Outcome = o.handOff(ctx, res.Sanitized, sess.Selection)
	}
	o.publish(event{usage: &u})
}

func (o *Orchestrator) inject(ctx context.Context, text string) string {
	log.TranscriptionText(text)
	o.mu.Lock()
	o.currentTranscript = text
	o.mu.Unlock()
	if o.deps.Injector == nil || !o.deps.Injector.Inject(ctx, text) {
		return OutcomeInjectFailed
	}
	return OutcomeInjected
}

func (o *Orchestrator) handOff(ctx context.Context, text, selection string) string {
	if o.deps.Assistant == nil {
		log.Warn("assistant recording finished but no handler is configured")
		return OutcomeAssistantFailed
	}
	if err := o.deps.Assistant.Handle(ctx, text, selection); err != nil {
		log.Errorf("assistant: %v", err)
		return OutcomeAssistantFailed
	}
	return OutcomeAssistant
}

func (o *Orchestrator) restoreVolume() {
	if o.cfg.DuckEnabled && o.deps.Ducker != nil {
		if !o.deps.Ducker.Restore() {
			log.Warn("volume restore failed")
		}
	}
}

func (o *Orchestrator) release(a *slot) {
	o.mu.Lock()
	if o.active == a {
		o.active = nil
	}
	o.mu.Unlock()
}

// Abort drops a recording without transcribing it. A session still being
// started is marked so RequestStart tears it down instead of recording. It
// returns false when there is nothing to abort or a stop is already under way.
func (o *Orchestrator) Abort() bool {
	o.mu.Lock()
	a := o.active
	if a == nil || a.stopping {
		o.mu.Unlock()
		return false
	}
	a.stopping = true
	if a.sess == nil {
		a.aborted = true
		o.mu.Unlock()
		log.Infof("%s start marked aborted", a.mode)
		return true
	}
	o.mu.Unlock()

	a.sess.Close()
	o.restoreVolume()
	o.setStatus(a.mode, Idle)
	o.release(a)
	log.Infof("session %s: aborted", a.sess.ID)
	return true
}

// Shutdown refuses new recordings, aborts the active one and waits for starts
// and stops already under way, so the volume is restored once it returns nil.
// It returns ctx's error if they outlast ctx.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	o.closing = true
	o.mu.Unlock()

	if o.Abort() {
		log.Info("shutdown: aborted active session")
	}

	done := make(chan struct{})
	go func() {
		o.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for session cleanup: %w", ctx.Err())
	}
}

// Close stops observer delivery. Events still queued are dropped.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		close(o.quit)
		o.delivered.Wait()
	})
}
