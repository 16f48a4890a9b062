package hotkey

import (
	"fmt"
	"strings"
)

type Mod uint8

const (
	ModCtrl Mod = 1 << iota
	ModShift
	ModAlt
	ModSuper
)

// Combo is a set of modifiers plus one non-modifier key, e.g. ctrl+shift+space.
type Combo struct {
	Mods Mod
	Key  string
}

var modNames = map[string]Mod{
	"ctrl": ModCtrl, "control": ModCtrl,
	"shift": ModShift,
	"alt": ModAlt, "option": ModAlt, "opt": ModAlt,
	"super": ModSuper, "cmd": ModSuper, "command": ModSuper, "win": ModSuper, "meta": ModSuper,
}

var keyAliases = map[string]string{
	"return": "enter",
	"esc":    "escape",
}

// Parse reads combos like "Ctrl+Shift+Space". Case and spaces are ignored.
// At least one modifier is required so the combo cannot swallow plain typing.
func Parse(s string) (Combo, error) {
	var c Combo
	parts := strings.Split(strings.ToLower(strings.ReplaceAll(s, " ", "")), "+")
	for _, p := range parts {
		if p == "" {
			return Combo{}, fmt.Errorf("hotkey %q: empty key", s)
		}
		if m, ok := modNames[p]; ok {
			c.Mods |= m
			continue
		}
		if c.Key != "" {
			return Combo{}, fmt.Errorf("hotkey %q: more than one key (%s, %s)", s, c.Key, p)
		}
		if a, ok := keyAliases[p]; ok {
			p = a
		}
		if !knownKey(p) {
			return Combo{}, fmt.Errorf("hotkey %q: unknown key %q", s, p)
		}
		c.Key = p
	}
	if c.Key == "" {
		return Combo{}, fmt.Errorf("hotkey %q: no key", s)
	}
	if c.Mods == 0 {
		return Combo{}, fmt.Errorf("hotkey %q: needs a modifier", s)
	}
	return c, nil
}

func MustParse(s string) Combo {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Combo) String() string {
	var parts []string
	for _, m := range []struct {
		mod  Mod
		name string
	}{{ModCtrl, "ctrl"}, {ModShift, "shift"}, {ModAlt, "alt"}, {ModSuper, "super"}} {
		if c.Mods&m.mod != 0 {
			parts = append(parts, m.name)
		}
	}
	return strings.Join(append(parts, c.Key), "+")
}

func knownKey(k string) bool {
	if len(k) == 1 && (k[0] >= 'a' && k[0] <= 'z' || k[0] >= '0' && k[0] <= '9') {
		return true
	}
	switch k {
	case "space", "enter", "escape", "tab":
		return true
	}
	var n int
	if _, err := fmt.Sscanf(k, "f%d", &n); err == nil && n >= 1 && n <= 12 && k == fmt.Sprintf("f%d", n) {
		return true
	}
	return false
}
