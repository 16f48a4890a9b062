package inject

import (
	"sync"
	"time"
)

// Op is one call recorded by Fake.
type Op struct {
	Name string // read, write, clear, paste
	Text string
	At   time.Time
}

// Fake is an in-memory clipboard that records every call.
type Fake struct {
	mu       sync.Mutex
	content  string
	ops      []Op
	pasted   []string
	readErr  error
	writeErr error
	pasteErr error
}

func NewFake(content string) *Fake { return &Fake{content: content} }

func (f *Fake) record(name, text string) {
	f.ops = append(f.ops, Op{Name: name, Text: text, At: time.Now()})
}

func (f *Fake) Read() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("read", "")
	if f.readErr != nil {
		return "", f.readErr
	}
	return f.content, nil
}

func (f *Fake) Write(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("write", text)
	if f.writeErr != nil {
		return f.writeErr
	}
	f.content = text
	return nil
}

func (f *Fake) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("clear", "")
	f.content = ""
	return nil
}

func (f *Fake) Paste() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("paste", f.content)
	if f.pasteErr != nil {
		return f.pasteErr
	}
	f.pasted = append(f.pasted, f.content)
	return nil
}

func (f *Fake) FailRead(err error)  { f.mu.Lock(); f.readErr = err; f.mu.Unlock() }
func (f *Fake) FailWrite(err error) { f.mu.Lock(); f.writeErr = err; f.mu.Unlock() }
func (f *Fake) FailPaste(err error) { f.mu.Lock(); f.pasteErr = err; f.mu.Unlock() }

func (f *Fake) Content() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.content
}

// Pasted returns the clipboard content at each successful paste.
func (f *Fake) Pasted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.pasted...)
}

func (f *Fake) Ops() []Op {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Op(nil), f.ops...)
}
