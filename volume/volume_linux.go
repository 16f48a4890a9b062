//go:build linux

package volume

import "strconv"

// DefaultFloor is the lowest level Duck writes on this platform.
const DefaultFloor = 0

type pactlBackend struct{}

// NewSystem returns the PulseAudio/PipeWire default-sink backend.
func NewSystem() Backend { return pactlBackend{} }

func (pactlBackend) Get() (int, error) {
	out, err := run("pactl", "get-sink-volume", "@DEFAULT_SINK@")
	if err != nil {
		return 0, err
	}
	return parsePercent(out)
}

func (pactlBackend) Set(percent int) error {
	_, err := run("pactl", "set-sink-volume", "@DEFAULT_SINK@", strconv.Itoa(clamp(percent, 0, 100))+"%")
	return err
}
