package transcriber

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Engine turns one finalized WAV file into text. Engines remove any sidecar
// files they create; the WAV itself belongs to the caller.
type Engine interface {
	Name() string
	Transcribe(ctx context.Context, wavPath string) (string, error)
}

var (
	ErrNoModel  = errors.New("whisper model not found")
	ErrNoAPIKey = errors.New("GROQ_API_KEY is not set")
)

type Config struct {
	Engine   string // "whisper" or "groq"
	Language string

	WhisperBinary  string
	WhisperModel   string
	WhisperThreads int

	GroqAPIKey string
	GroqModel  string
	GroqFormat string // "wav" or "flac"; flac halves the upload
	Timeout    time.Duration
}

func New(cfg Config) (Engine, error) {
	switch cfg.Engine {
	case "", "whisper":
		return NewWhisper(cfg)
	case "groq":
		if cfg.GroqAPIKey == "" {
			return nil, ErrNoAPIKey
		}
		return NewGroq(cfg), nil
	default:
		return nil, fmt.Errorf("unknown transcription engine %q", cfg.Engine)
	}
}

type NetworkMetrics struct {
	DNS         time.Duration
	ConnWait    time.Duration
	TCP         time.Duration
	TLS         time.Duration
	ReqHeaders  time.Duration
	ReqBody     time.Duration
	TTFB        time.Duration
	Download    time.Duration
	Total       time.Duration
	ConnReused  bool
	TLSProtocol string
}

func (m *NetworkMetrics) Sum() time.Duration {
	return m.ConnWait + m.DNS + m.TCP + m.TLS + m.ReqHeaders + m.ReqBody + m.TTFB + m.Download
}

func (m *NetworkMetrics) String() string {
	return fmt.Sprintf("dns=%s tcp=%s tls=%s ttfb=%s total=%s reused=%v",
		m.DNS.Round(time.Millisecond), m.TCP.Round(time.Millisecond), m.TLS.Round(time.Millisecond),
		m.TTFB.Round(time.Millisecond), m.Total.Round(time.Millisecond), m.ConnReused)
}

func firstNonEmpty(h http.Header, keys ...string) string {
	for _, k := range keys {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return "?"
}
