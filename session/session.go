// Package session owns the lifecycle of one recording: capture, drain,
// WAV assembly and transcription.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"hark/audio"
	"hark/log"
	"hark/sanitize"
	"hark/transcriber"
)

type State int

const (
	Idle State = iota
	Recording
	Draining
	Finalizing
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Draining:
		return "draining"
	case Finalizing:
		return "finalizing"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type Mode int

const (
	Transcription Mode = iota
	Assistant
)

func (m Mode) String() string {
	if m == Assistant {
		return "assistant"
	}
	return "transcription"
}

// TempFilePrefix starts the name of every recording written for transcription.
const TempFilePrefix = "hark_"

var (
	ErrNotRecording = errors.New("session is not recording")
	ErrNotDraining  = errors.New("session is not draining")
)

// Source produces PCM16 mono chunks between Start and Stop.
// audio.CaptureDevice satisfies it.
type Source interface {
	SetCallback(cb audio.DataCallback)
	ClearCallback()
	Start() error
	Stop()
}

type Config struct {
	PollInterval  time.Duration
	QuietWindow   time.Duration
	StableCeiling time.Duration

	// SilenceTimeout arms a timer that is reset by every chunk. When it fires
	// the session only logs; OnSilence, if set, is told as well.
	SilenceTimeout time.Duration
	OnSilence      func(id string)

	MinViableBytes int
	TempDir        string
}

func DefaultConfig() Config {
	return Config{
		PollInterval:   100 * time.Millisecond,
		QuietWindow:    250 * time.Millisecond,
		StableCeiling:  1200 * time.Millisecond,
		SilenceTimeout: 3 * time.Second,
		MinViableBytes: 1024,
		TempDir:        os.TempDir(),
	}
}

// Result is the outcome of Finalize.
type Result struct {
	Raw          string
	Sanitized    string
	WordCount    int
	RawWordCount int
	AudioBytes   int
	Duration     time.Duration
	Engine       string
	Err          error
}

func (r Result) Blank() bool { return r.Sanitized == "" }

type Session struct {
	ID        string
	Mode      Mode
	StartedAt time.Time
	Selection string

	cfg    Config
	src    Source
	buffer *Buffer

	mu        sync.Mutex
	state     State
	stoppedAt time.Time
	silence   *time.Timer
}

// Start creates a session, registers for chunks and starts src. An empty id
// gets a random one. On error the source is left stopped and unregistered.
func Start(id string, mode Mode, src Source, cfg Config) (*Session, error) {
	if id == "" {
		id = uuid.NewString()
	}
	s := &Session{
		ID:     id,
		Mode:   mode,
		cfg:    cfg,
		src:    src,
		buffer: NewBuffer(id),
	}

	s.mu.Lock()
	s.state = Recording
	s.StartedAt = time.Now()
	s.mu.Unlock()

	src.SetCallback(func(data []byte, _ uint32) {
		s.onChunk(id, data)
	})
	if err := src.Start(); err != nil {
		src.ClearCallback()
		s.buffer.Reset()
		s.mu.Lock()
		s.state = Idle
		s.mu.Unlock()
		return nil, fmt.Errorf("start audio source: %w", err)
	}

	s.mu.Lock()
	if cfg.SilenceTimeout > 0 && s.state == Recording {
		s.silence = time.AfterFunc(cfg.SilenceTimeout, s.silenceDetected)
	}
	s.mu.Unlock()
	return s, nil
}

func (s *Session) onChunk(id string, data []byte) {
	if !s.buffer.Append(id, data) {
		log.Warnf("session %s: dropped %d-byte chunk (state=%s)", s.ID, len(data), s.State())
		return
	}
	s.mu.Lock()
	if s.silence != nil && s.state == Recording {
		s.silence.Reset(s.cfg.SilenceTimeout)
	}
	s.mu.Unlock()
}

func (s *Session) silenceDetected() {
	s.mu.Lock()
	recording := s.state == Recording
	s.mu.Unlock()
	if !recording {
		return
	}
	log.Infof("silence_detected session=%s after=%s", s.ID, s.cfg.SilenceTimeout)
	if s.cfg.OnSilence != nil {
		s.cfg.OnSilence(s.ID)
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Bytes is the amount of audio captured so far.
func (s *Session) Bytes() int { return s.buffer.Len() }

// Stop moves Recording to Draining and tells the source to stop producing.
// Chunks already in flight are still accepted until Finalize.
func (s *Session) Stop() error {
	s.mu.Lock()
	if s.state != Recording {
		s.mu.Unlock()
		return ErrNotRecording
	}
	s.state = Draining
	s.stoppedAt = time.Now()
	if s.silence != nil {
		s.silence.Stop()
	}
	s.mu.Unlock()

	s.src.Stop()
	return nil
}

// WaitStable blocks until no chunk has arrived for QuietWindow, checking every
// PollInterval, and never longer than StableCeiling. It reports whether the
// quiet window was reached before the ceiling.
func (s *Session) WaitStable(ctx context.Context) (time.Duration, bool) {
	start := time.Now()
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	ceiling := time.NewTimer(s.cfg.StableCeiling)
	defer ceiling.Stop()

	for {
		select {
		case <-ctx.Done():
			return time.Since(start), false
		case <-ceiling.C:
			return time.Since(start), false
		case now := <-ticker.C:
			last := s.buffer.LastArrival()
			if last.IsZero() {
				last = s.StartedAt
			}
			if now.Sub(last) >= s.cfg.QuietWindow {
				return time.Since(start), true
			}
		}
	}
}

// Finalize seals the buffer, writes it as a WAV file, runs engine on it and
// sanitizes the text. A Recording session is stopped first. Failures are
// reported in Result.Err and leave the session Failed; Close still applies.
func (s *Session) Finalize(ctx context.Context, engine transcriber.Engine) Result {
	if s.State() == Recording {
		s.Stop()
	}

	s.mu.Lock()
	if s.state != Draining {
		st := s.state
		s.mu.Unlock()
		return Result{Err: fmt.Errorf("%w (state=%s)", ErrNotDraining, st)}
	}
	s.state = Finalizing
	duration := s.stoppedAt.Sub(s.StartedAt)
	s.mu.Unlock()

	res := Result{Duration: duration, Engine: engine.Name()}
	pcm := s.buffer.Seal()
	res.AudioBytes = len(pcm)

	wav := audio.BuildWAV(pcm, audio.SampleRate, audio.Channels, audio.BitsPerSample)
	if len(wav) < s.cfg.MinViableBytes {
		log.Warnf("session %s: only %d bytes of audio, transcribing anyway", s.ID, len(wav))
	}

	path := filepath.Join(s.cfg.TempDir, TempFilePrefix+s.ID+".wav")
	if err := os.WriteFile(path, wav, 0o600); err != nil {
		return s.fail(res, fmt.Errorf("write wav: %w", err))
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warnf("session %s: remove %s: %v", s.ID, path, err)
		}
	}()

	text, err := engine.Transcribe(ctx, path)
	if err != nil {
		return s.fail(res, fmt.Errorf("transcribe: %w", err))
	}

	res.Raw = text
	res.Sanitized = sanitize.Strip(text)
	res.RawWordCount = sanitize.CountWords(text)
	res.WordCount = sanitize.CountWords(res.Sanitized)

	s.mu.Lock()
	s.state = Idle
	s.mu.Unlock()
	return res
}

func (s *Session) fail(res Result, err error) Result {
	log.Errorf("session %s: %v", s.ID, err)
	res.Err = err
	s.mu.Lock()
	s.state = Failed
	s.mu.Unlock()
	return res
}

// Close tears the session down to Idle from any state. Safe to call twice.
func (s *Session) Close() {
	s.mu.Lock()
	wasRecording := s.state == Recording
	s.state = Idle
	if s.silence != nil {
		s.silence.Stop()
	}
	s.mu.Unlock()

	if wasRecording {
		s.src.Stop()
	}
	s.src.ClearCallback()
	s.buffer.Reset()
}
