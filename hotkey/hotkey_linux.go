//go:build linux

package hotkey

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	evKey      = 1
	keyPress   = 1
	keyRelease = 0
)

const inputEventSize = 24

var modCodes = map[uint16]Mod{
	29: ModCtrl, 97: ModCtrl,
	42: ModShift, 54: ModShift,
	56: ModAlt, 100: ModAlt,
	125: ModSuper, 126: ModSuper,
}

// evdev key codes from linux/input-event-codes.h
var keyCodes = func() map[string]uint16 {
	m := map[string]uint16{
		"escape": 1, "tab": 15, "enter": 28, "space": 57,
		"0": 11, "f11": 87, "f12": 88,
	}
	for i, r := range "123456789" {
		m[string(r)] = uint16(2 + i)
	}
	for i, r := range "qwertyuiop" {
		m[string(r)] = uint16(16 + i)
	}
	for i, r := range "asdfghjkl" {
		m[string(r)] = uint16(30 + i)
	}
	for i, r := range "zxcvbnm" {
		m[string(r)] = uint16(44 + i)
	}
	for i := 1; i <= 10; i++ {
		m[fmt.Sprintf("f%d", i)] = uint16(58 + i)
	}
	return m
}()

// linuxHotkey reads /dev/input directly so it works the same under X11 and
// Wayland. The user needs to be in the input group.
type linuxHotkey struct {
	combo   Combo
	code    uint16
	keydown chan struct{}
	keyup   chan struct{}
	files   []*os.File
	stop    chan struct{}
	once    sync.Once
}

func New(c Combo) Hotkey {
	return &linuxHotkey{
		combo:   c,
		code:    keyCodes[c.Key],
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}
}

func (h *linuxHotkey) Register() error {
	if h.code == 0 {
		return fmt.Errorf("key %q has no evdev code", h.combo.Key)
	}
	keyboards, err := findKeyboards()
	if err != nil {
		return fmt.Errorf("finding keyboards: %w", err)
	}
	if len(keyboards) == 0 {
		return fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	h.stop = make(chan struct{})

	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		h.files = append(h.files, f)
		go h.readEvents(f)
	}

	if len(h.files) == 0 {
		return fmt.Errorf("could not open any keyboard device (run: sudo usermod -aG input $USER, then re-login)")
	}

	return nil
}

// comboState tracks one keyboard. Modifiers are tracked per physical key so
// releasing left ctrl while right ctrl is held keeps ctrl down.
type comboState struct {
	held    map[uint16]bool
	keyHeld bool
}

func (s *comboState) mods() Mod {
	var m Mod
	for code, down := range s.held {
		if down {
			m |= modCodes[code]
		}
	}
	return m
}

// feed applies one key event and returns +1 for a combo press, -1 for its
// release and 0 otherwise.
func (s *comboState) feed(c Combo, target, code uint16, value int32) int {
	if _, isMod := modCodes[code]; isMod {
		switch value {
		case keyPress:
			s.held[code] = true
		case keyRelease:
			s.held[code] = false
		}
		return 0
	}
	if code != target {
		return 0
	}
	switch {
	case value == keyPress && !s.keyHeld && s.mods()&c.Mods == c.Mods:
		s.keyHeld = true
		return 1
	case value == keyRelease && s.keyHeld:
		s.keyHeld = false
		return -1
	}
	return 0
}

func (h *linuxHotkey) readEvents(f *os.File) {
	buf := make([]byte, inputEventSize*16)
	st := comboState{held: make(map[uint16]bool)}

	for {
		select {
		case <-h.stop:
			return
		default:
		}

		n, err := f.Read(buf)
		if err != nil {
			return
		}

		for i := 0; i+inputEventSize <= n; i += inputEventSize {
			evType := binary.LittleEndian.Uint16(buf[i+16:])
			evCode := binary.LittleEndian.Uint16(buf[i+18:])
			evValue := int32(binary.LittleEndian.Uint32(buf[i+20:]))

			if evType != evKey {
				continue
			}

			switch st.feed(h.combo, h.code, evCode, evValue) {
			case 1:
				select {
				case h.keydown <- struct{}{}:
				default:
				}
			case -1:
				select {
				case h.keyup <- struct{}{}:
				default:
				}
			}
		}
	}
}

func (h *linuxHotkey) Unregister() {
	h.once.Do(func() {
		if h.stop != nil {
			close(h.stop)
		}
		for _, f := range h.files {
			f.Close()
		}
	})
}

func (h *linuxHotkey) Keydown() <-chan struct{} {
	return h.keydown
}

func (h *linuxHotkey) Keyup() <-chan struct{} {
	return h.keyup
}

func findKeyboards() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}

	var keyboards []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		path := filepath.Join("/dev/input", e.Name())
		if isKeyboard(e.Name()) {
			keyboards = append(keyboards, path)
		}
	}
	return keyboards, nil
}

func isKeyboard(eventName string) bool {
	capsPath := filepath.Join("/sys/class/input", eventName, "device", "capabilities", "key")
	data, err := os.ReadFile(capsPath)
	if err != nil {
		return false
	}
	caps := strings.TrimSpace(string(data))
	return len(caps) > 10
}

func Diagnose() (string, error) {
	keyboards, err := findKeyboards()
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	if len(keyboards) == 0 {
		return "", fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	var opened string
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err == nil {
			f.Close()
			opened = path
			break
		}
	}
	if opened == "" {
		return "", fmt.Errorf("found %d keyboard(s) but cannot open any (run: sudo usermod -aG input $USER)", len(keyboards))
	}

	return fmt.Sprintf("%d keyboard(s) found, opened %s", len(keyboards), opened), nil
}
