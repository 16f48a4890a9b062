//go:build windows

package hotkey

import "golang.design/x/hotkey"

func modifiers(m Mod) []hotkey.Modifier {
	var out []hotkey.Modifier
	if m&ModCtrl != 0 {
		out = append(out, hotkey.ModCtrl)
	}
	if m&ModShift != 0 {
		out = append(out, hotkey.ModShift)
	}
	if m&ModAlt != 0 {
		out = append(out, hotkey.ModAlt)
	}
	if m&ModSuper != 0 {
		out = append(out, hotkey.ModWin)
	}
	return out
}
