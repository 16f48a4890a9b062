package session

import (
	"sync"
	"time"
)

// Buffer accumulates the PCM chunks of one session in arrival order. It is
// append-only until sealed; Seal hands out the audio exactly once.
type Buffer struct {
	mu          sync.Mutex
	id          string
	chunks      [][]byte
	size        int
	lastArrival time.Time
	sealed      bool
}

func NewBuffer(id string) *Buffer {
	return &Buffer{id: id}
}

// Append adds chunk if it belongs to this buffer's session and the buffer is
// not sealed. The chunk is retained, not copied.
func (b *Buffer) Append(id string, chunk []byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sealed || id != b.id {
		return false
	}
	b.chunks = append(b.chunks, chunk)
	b.size += len(chunk)
	b.lastArrival = time.Now()
	return true
}

// LastArrival is the time of the most recent accepted chunk, zero if none.
func (b *Buffer) LastArrival() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastArrival
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

func (b *Buffer) Chunks() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.chunks)
}

func (b *Buffer) Sealed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sealed
}

// Seal stops further appends and returns the concatenated audio. Later calls
// return nil.
func (b *Buffer) Seal() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sealed {
		return nil
	}
	b.sealed = true
	out := make([]byte, 0, b.size)
	for _, c := range b.chunks {
		out = append(out, c...)
	}
	b.chunks = nil
	return out
}

// Reset drops all audio and seals the buffer.
func (b *Buffer) Reset() {
	b.mu.Lock()
	b.chunks = nil
	b.size = 0
	b.sealed = true
	b.mu.Unlock()
}
