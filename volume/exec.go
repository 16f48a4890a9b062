package volume

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const commandTimeout = 3 * time.Second

// run executes an OS automation command and returns its trimmed stdout.
func run(name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok && len(ee.Stderr) > 0 {
			return "", fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(ee.Stderr)))
		}
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return strings.TrimSpace(string(out)), nil
}

var percentRe = regexp.MustCompile(`(\d+)\s*%`)

// parsePercent extracts the first "NN%" figure, or a bare integer.
func parsePercent(out string) (int, error) {
	if m := percentRe.FindStringSubmatch(out); m != nil {
		return strconv.Atoi(m[1])
	}
	v, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, fmt.Errorf("unexpected volume output %q", out)
	}
	return v, nil
}
