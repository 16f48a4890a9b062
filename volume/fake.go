package volume

import "sync"

// FakeBackend is an in-memory Backend with injectable failures.
type FakeBackend struct {
	mu     sync.Mutex
	level  int
	getErr error
	setErr error
	sets   []int
	onSet  func(int)
}

func NewFake(level int) *FakeBackend {
	return &FakeBackend{level: level}
}

func (f *FakeBackend) Get() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return 0, f.getErr
	}
	return f.level, nil
}

func (f *FakeBackend) Set(v int) error {
	f.mu.Lock()
	f.sets = append(f.sets, v)
	err := f.setErr
	if err == nil {
		f.level = v
	}
	hook := f.onSet
	f.mu.Unlock()
	if hook != nil {
		hook(v)
	}
	return err
}

func (f *FakeBackend) FailGet(err error) {
	f.mu.Lock()
	f.getErr = err
	f.mu.Unlock()
}

func (f *FakeBackend) FailSet(err error) {
	f.mu.Lock()
	f.setErr = err
	f.mu.Unlock()
}

// OnSet installs a hook called after every Set, outside the lock.
func (f *FakeBackend) OnSet(fn func(int)) {
	f.mu.Lock()
	f.onSet = fn
	f.mu.Unlock()
}

// Sets returns every value passed to Set, in order.
func (f *FakeBackend) Sets() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.sets...)
}
