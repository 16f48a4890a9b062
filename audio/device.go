package audio

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

const btTag = " \x1b[33m[bluetooth: narrowband while recording]\x1b[0m"

// SelectDevice asks the user to pick a capture device. An interactive
// arrow-key picker is used when stdin is a terminal, a numbered prompt
// otherwise. A single device is returned without prompting.
func SelectDevice(ctx Context) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	switch len(devices) {
	case 0:
		return nil, fmt.Errorf("no capture devices found")
	case 1:
		return &devices[0], nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return promptDevice(devices)
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("setting raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	cursor := 0
	render := func() {
		fmt.Print("\r\x1b[J")
		fmt.Print("Select input device (↑/↓, Enter to confirm):\r\n\r\n")
		for i, d := range devices {
			tag := ""
			if IsBluetooth(d.Name) {
				tag = btTag
			}
			if i == cursor {
				fmt.Printf("  \x1b[1;36m▶ %s\x1b[0m%s\r\n", d.Name, tag)
			} else {
				fmt.Printf("    %s%s\r\n", d.Name, tag)
			}
		}
	}
	render()

	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		switch {
		case n == 1 && buf[0] == 13: // Enter
			fmt.Print("\r\n")
			return &devices[cursor], nil
		case n == 1 && buf[0] == 3: // Ctrl+C
			fmt.Print("\r\n")
			return nil, fmt.Errorf("device selection aborted")
		case (n == 1 && buf[0] == 'k') || (n == 3 && buf[0] == 0x1b && buf[1] == '[' && buf[2] == 'A'):
			if cursor > 0 {
				cursor--
			}
		case (n == 1 && buf[0] == 'j') || (n == 3 && buf[0] == 0x1b && buf[1] == '[' && buf[2] == 'B'):
			if cursor < len(devices)-1 {
				cursor++
			}
		}
		fmt.Printf("\x1b[%dA", len(devices)+2)
		render()
	}
}

func promptDevice(devices []DeviceInfo) (*DeviceInfo, error) {
	fmt.Println("Select input device:")
	for i, d := range devices {
		fmt.Printf("  %d. %s\n", i+1, d.Name)
	}
	fmt.Printf("Choice [1-%d]: ", len(devices))

	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return &devices[0], nil
	}
	idx, err := strconv.Atoi(line)
	if err != nil || idx < 1 || idx > len(devices) {
		return nil, fmt.Errorf("invalid choice %q", line)
	}
	return &devices[idx-1], nil
}
