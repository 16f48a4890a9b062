//go:build integration

package test_test

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"hark/transcriber"
)

var (
	testBinary string
	toneWAV    string
	silenceWAV string
)

func TestMain(m *testing.M) {
	testBinary = os.Getenv("HARK_TEST_BIN")
	if testBinary == "" {
		fmt.Fprintln(os.Stderr, "HARK_TEST_BIN not set; build hark and point HARK_TEST_BIN at it")
		os.Exit(1)
	}

	dir, err := os.MkdirTemp("", "hark-integration")
	if err != nil {
		fmt.Fprintf(os.Stderr, "temp dir: %v\n", err)
		os.Exit(1)
	}
	toneWAV = filepath.Join(dir, "tone.wav")
	silenceWAV = filepath.Join(dir, "silence.wav")
	if err := writeWAV(toneWAV, 16000, 1.0, 440); err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate tone.wav: %v\n", err)
		os.Exit(1)
	}
	if err := writeWAV(silenceWAV, 16000, 1.0, 0); err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate silence.wav: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

// writeWAV writes a mono PCM16 file; freq 0 gives silence.
func writeWAV(path string, sampleRate int, durationS, freq float64) error {
	const headerSize = 44
	numSamples := int(float64(sampleRate) * durationS)
	dataSize := numSamples * 2

	buf := make([]byte, headerSize+dataSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(headerSize-8+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], 1) // mono
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(buf[32:34], 2)  // block align
	binary.LittleEndian.PutUint16(buf[34:36], 16) // bits per sample
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))

	for i := 0; i < numSamples; i++ {
		v := int16(8000 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
		binary.LittleEndian.PutUint16(buf[headerSize+2*i:], uint16(v))
	}
	return os.WriteFile(path, buf, 0644)
}

func cmds(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}

type result struct {
	stdout string
	logDir string
}

// runHark runs the binary in test mode against wav. A non-nil reply fixes
// the transcript; nil uses the configured engine.
func runHark(t *testing.T, stdin, wav string, reply *string) result {
	t.Helper()
	logDir := t.TempDir()
	args := []string{
		"-logpath", logDir,
		"-config", filepath.Join(t.TempDir(), "missing.yaml"),
		"-test", wav,
	}

	cmd := exec.Command(testBinary, args...)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = os.Environ()
	if reply != nil {
		cmd.Env = append(cmd.Env, "HARK_TEST_TEXT="+*reply)
	}

	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("hark exited with error: %v\noutput: %s", err, out)
	}
	return result{stdout: string(out), logDir: logDir}
}

func text(s string) *string { return &s }

func readLog(t *testing.T, logDir, filename string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(logDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		t.Fatalf("failed to read %s: %v", filename, err)
	}
	return string(data)
}

func usageLines(stdout string) []string {
	var lines []string
	for _, l := range strings.Split(stdout, "\n") {
		if strings.HasPrefix(l, "USAGE ") {
			lines = append(lines, l)
		}
	}
	return lines
}

func TestTranscribeInjectsSanitizedText(t *testing.T) {
	r := runHark(t, cmds("TRANSCRIBE", "SLEEP 600", "TRANSCRIBE", "WAIT", "QUIT"),
		toneWAV, text("  hello [BLANK_AUDIO]   world "))

	if !strings.Contains(r.stdout, "PASTED hello world\n") {
		t.Errorf("stdout missing sanitized paste:\n%s", r.stdout)
	}
	if !strings.Contains(r.stdout, "USAGE transcription injected words=2") {
		t.Errorf("stdout missing usage:\n%s", r.stdout)
	}
	if log := readLog(t, r.logDir, "transcribe_log.txt"); !strings.Contains(log, "hello world") {
		t.Errorf("transcribe_log.txt = %q", log)
	}
	diag := readLog(t, r.logDir, "diagnostics_log.txt")
	for _, want := range []string{"session_start", "usage", "session_end"} {
		if !strings.Contains(diag, want) {
			t.Errorf("diagnostics missing %q", want)
		}
	}
}

func TestBlankTranscriptIsNotInjected(t *testing.T) {
	r := runHark(t, cmds("TRANSCRIBE", "SLEEP 600", "TRANSCRIBE", "WAIT", "QUIT"),
		silenceWAV, text("[BLANK_AUDIO]"))

	if strings.Contains(r.stdout, "PASTED") {
		t.Errorf("blank transcript was pasted:\n%s", r.stdout)
	}
	if !strings.Contains(r.stdout, "USAGE transcription blank") {
		t.Errorf("stdout missing blank usage:\n%s", r.stdout)
	}
}

func TestAssistantReceivesSelection(t *testing.T) {
	r := runHark(t, cmds("ASSIST", "SLEEP 400", "ASSIST", "WAIT", "QUIT"),
		toneWAV, text("what is this"))

	if !strings.Contains(r.stdout, "ASSIST what is this | selected text") {
		t.Errorf("assistant not called with selection:\n%s", r.stdout)
	}
	if strings.Contains(r.stdout, "PASTED") {
		t.Errorf("assistant transcript was pasted:\n%s", r.stdout)
	}
}

func TestSecondModeIgnoredWhileRecording(t *testing.T) {
	r := runHark(t, cmds("TRANSCRIBE", "SLEEP 400", "ASSIST", "SLEEP 200", "TRANSCRIBE", "WAIT", "SLEEP 300", "QUIT"),
		toneWAV, text("only one"))

	if got := usageLines(r.stdout); len(got) != 1 {
		t.Fatalf("usage lines = %v, want exactly one", got)
	}
	if strings.Contains(r.stdout, "STATUS assistant recording") {
		t.Errorf("assistant started while transcription was recording:\n%s", r.stdout)
	}
}

func TestBackToBackSessions(t *testing.T) {
	r := runHark(t, cmds(
		"TRANSCRIBE", "SLEEP 400", "TRANSCRIBE", "WAIT",
		"SLEEP 400",
		"TRANSCRIBE", "SLEEP 400", "TRANSCRIBE", "WAIT",
		"QUIT"), toneWAV, text("again"))

	if got := usageLines(r.stdout); len(got) != 2 {
		t.Fatalf("usage lines = %v, want two", got)
	}
}

func TestWhisperEngine(t *testing.T) {
	wav := os.Getenv("HARK_TEST_SPEECH_WAV")
	if wav == "" {
		t.Skip("HARK_TEST_SPEECH_WAV not set")
	}
	if _, err := os.Stat(transcriber.DefaultModelPath()); err != nil {
		t.Skip("whisper model not installed")
	}
	r := runHark(t, cmds("TRANSCRIBE", "WAIT_AUDIO_DONE", "SLEEP 300", "TRANSCRIBE", "WAIT", "QUIT"), wav, nil)
	if !strings.Contains(r.stdout, "USAGE transcription injected") {
		t.Errorf("expected an injected transcript:\n%s", r.stdout)
	}
}
