package transcriber

import (
	"context"
	"os"
	"sync"
	"time"
)

// Fake returns a fixed transcript or error. It records the size of every WAV
// it was handed so tests can check what reached the engine.
type Fake struct {
	text  string
	err   error
	delay time.Duration

	mu    sync.Mutex
	calls []int
}

func NewFake(text string, err error) *Fake {
	return &Fake{text: text, err: err}
}

// WithDelay makes Transcribe block for d, or until ctx is done.
func (f *Fake) WithDelay(d time.Duration) *Fake {
	f.delay = d
	return f
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Transcribe(ctx context.Context, wavPath string) (string, error) {
	size := -1
	if data, err := os.ReadFile(wavPath); err == nil {
		size = len(data)
	}
	f.mu.Lock()
	f.calls = append(f.calls, size)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

// Calls returns the byte size of each WAV passed to Transcribe, -1 when the
// file could not be read.
func (f *Fake) Calls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.calls...)
}
