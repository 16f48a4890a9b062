//go:build darwin

package volume

import "fmt"

const DefaultFloor = 0

type osascriptBackend struct{}

func NewSystem() Backend { return osascriptBackend{} }

func (osascriptBackend) Get() (int, error) {
	out, err := run("osascript", "-e", "output volume of (get volume settings)")
	if err != nil {
		return 0, err
	}
	if out == "missing value" {
		return 0, fmt.Errorf("output device has no volume control")
	}
	return parsePercent(out)
}

func (osascriptBackend) Set(percent int) error {
	_, err := run("osascript", "-e", fmt.Sprintf("set volume output volume %d", clamp(percent, 0, 100)))
	return err
}
