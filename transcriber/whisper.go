package transcriber

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"hark/log"
)

// Whisper runs the whisper.cpp command line tool on the WAV file and reads
// back the text sidecar it writes next to it.
type Whisper struct {
	binary  string
	model   string
	lang    string
	threads int
	timeout time.Duration
}

var whisperBinaries = []string{"whisper-cli", "whisper-cpp", "main"}

func NewWhisper(cfg Config) (*Whisper, error) {
	bin := cfg.WhisperBinary
	if bin == "" {
		for _, name := range whisperBinaries {
			if p, err := exec.LookPath(name); err == nil {
				bin = p
				break
			}
		}
		if bin == "" {
			return nil, fmt.Errorf("whisper.cpp binary not found in PATH (tried %s)", strings.Join(whisperBinaries, ", "))
		}
	}
	model := cfg.WhisperModel
	if model == "" {
		model = DefaultModelPath()
	}
	if _, err := os.Stat(model); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoModel, model)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	return &Whisper{binary: bin, model: model, lang: cfg.Language, threads: cfg.WhisperThreads, timeout: timeout}, nil
}

// DefaultModelPath is where the model lives when none is configured.
func DefaultModelPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "ggml-base.en.bin"
	}
	return filepath.Join(home, ".config", "whisper-cpp", "models", "ggml-base.en.bin")
}

func (w *Whisper) Name() string { return "whisper" }

func (w *Whisper) args(wavPath, outBase string) []string {
	args := []string{"-m", w.model, "-f", wavPath, "-otxt", "-of", outBase, "-nt"}
	if w.lang != "" {
		args = append(args, "-l", w.lang)
	}
	if w.threads > 0 {
		args = append(args, "-t", strconv.Itoa(w.threads))
	}
	return args
}

func (w *Whisper) Transcribe(ctx context.Context, wavPath string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	outBase := strings.TrimSuffix(wavPath, filepath.Ext(wavPath))
	txtPath := outBase + ".txt"
	defer os.Remove(txtPath)

	start := time.Now()
	cmd := exec.CommandContext(ctx, w.binary, w.args(wavPath, outBase)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("whisper timed out after %s", w.timeout)
		}
		return "", fmt.Errorf("whisper failed: %w: %s", err, lastLine(output))
	}

	text, err := os.ReadFile(txtPath)
	if err != nil {
		return "", fmt.Errorf("read whisper output: %w", err)
	}
	log.Infof("whisper: %s", time.Since(start).Round(time.Millisecond))
	return strings.TrimSpace(string(text)), nil
}

func lastLine(b []byte) string {
	s := strings.TrimSpace(string(b))
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
