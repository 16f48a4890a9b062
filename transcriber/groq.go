package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hark/audio"
	"hark/encoder"
	"hark/log"
)

const (
	groqURL          = "https://api.groq.com/openai/v1/audio/transcriptions"
	groqDefaultModel = "whisper-large-v3-turbo"
)

// Groq uploads the finalized recording to Groq's OpenAI-compatible
// transcription endpoint, as WAV or re-encoded to FLAC.
type Groq struct {
	client *TracedClient
	apiURL string
	apiKey string
	model  string
	lang   string
	flac   bool
}

func NewGroq(cfg Config) *Groq {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	model := cfg.GroqModel
	if model == "" {
		model = groqDefaultModel
	}
	return &Groq{
		client: NewTracedClient(timeout),
		apiURL: groqURL,
		apiKey: cfg.GroqAPIKey,
		model:  model,
		lang:   cfg.Language,
		flac:   cfg.GroqFormat == "flac",
	}
}

func (g *Groq) Name() string { return "groq" }

// Warm pre-opens the upload connection; called when a recording starts.
func (g *Groq) Warm() { g.client.Warm(g.apiURL) }

type groqResponse struct {
	Text string `json:"text"`
}

func (g *Groq) Transcribe(ctx context.Context, wavPath string) (string, error) {
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}
	name := filepath.Base(wavPath)
	if g.flac {
		data, err = toFLAC(data)
		if err != nil {
			return "", err
		}
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".flac"
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	writer.WriteField("model", g.model)
	writer.WriteField("response_format", "json")
	if g.lang != "" {
		writer.WriteField("language", g.lang)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("groq request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("groq API error %d: %s", resp.StatusCode, string(resp.Body))
	}

	var gResp groqResponse
	if err := json.Unmarshal(resp.Body, &gResp); err != nil {
		return "", fmt.Errorf("groq response parse error: %w", err)
	}

	remaining := firstNonEmpty(resp.Header, "x-ratelimit-remaining-requests")
	limit := firstNonEmpty(resp.Header, "x-ratelimit-limit-requests")
	log.Infof("groq: %s ratelimit=%s/%s", resp.Metrics, remaining, limit)
	return gResp.Text, nil
}

func toFLAC(wav []byte) ([]byte, error) {
	format, err := audio.ParseWAVHeader(wav)
	if err != nil {
		return nil, fmt.Errorf("flac: %w", err)
	}
	if format.Channels != 1 || format.BitsPerSample != 16 {
		return nil, fmt.Errorf("flac: need 16-bit mono, got %d-bit %d channels", format.BitsPerSample, format.Channels)
	}
	start := time.Now()
	out, err := encoder.FLAC(wav[audio.WAVHeaderSize:], int(format.SampleRate))
	if err != nil {
		return nil, err
	}
	log.Infof("groq: flac %d -> %d bytes in %s", len(wav), len(out), time.Since(start).Round(time.Millisecond))
	return out, nil
}
