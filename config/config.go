// Package config loads hark's YAML settings file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"hark/hotkey"
	"hark/transcriber"
)

type Config struct {
	Hotkeys       HotkeysConfig       `yaml:"hotkeys"`
	Audio         AudioConfig         `yaml:"audio"`
	Volume        VolumeConfig        `yaml:"volume"`
	Inject        InjectConfig        `yaml:"inject"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Assistant     AssistantConfig     `yaml:"assistant"`
	Metrics       MetricsConfig       `yaml:"metrics"`
	Notify        NotifyConfig        `yaml:"notify"`
}

type HotkeysConfig struct {
	Transcribe string `yaml:"transcribe"`
	Assist     string `yaml:"assist"`
	HoldToTalk int    `yaml:"hold_to_talk_ms"` // 0 = toggle only
}

type AudioConfig struct {
	Device           string `yaml:"device"`
	SilenceTimeoutMs int    `yaml:"silence_timeout_ms"`
}

type VolumeConfig struct {
	Duck    bool `yaml:"duck"`
	Percent int  `yaml:"percent"`
	Floor   int  `yaml:"floor"` // -1 = platform default
}

type InjectConfig struct {
	SettleMs  int `yaml:"settle_ms"`
	RestoreMs int `yaml:"restore_ms"`
}

type TranscriptionConfig struct {
	Engine         string `yaml:"engine"`
	Language       string `yaml:"language"`
	WhisperBinary  string `yaml:"whisper_binary"`
	WhisperModel   string `yaml:"whisper_model"`
	WhisperThreads int    `yaml:"whisper_threads"`
	GroqModel      string `yaml:"groq_model"`
	GroqFormat     string `yaml:"groq_format"`
	TimeoutSec     int    `yaml:"timeout_s"`

	GroqAPIKey string `yaml:"-"`
}

type AssistantConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Model        string `yaml:"model"`
	BaseURL      string `yaml:"base_url"`
	SystemPrompt string `yaml:"system_prompt"`

	APIKey string `yaml:"-"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty = disabled
}

type NotifyConfig struct {
	Desktop bool `yaml:"desktop"`
	Beep    bool `yaml:"beep"`
}

func Default() Config {
	return Config{
		Hotkeys: HotkeysConfig{
			Transcribe: hotkey.DefaultTranscribeCombo,
			Assist:     hotkey.DefaultAssistCombo,
		},
		Audio:  AudioConfig{SilenceTimeoutMs: 3000},
		Volume: VolumeConfig{Duck: true, Percent: 90, Floor: -1},
		Inject: InjectConfig{SettleMs: 50, RestoreMs: 500},
		Transcription: TranscriptionConfig{
			Engine:     "whisper",
			GroqFormat: "flac",
			TimeoutSec: 120,
		},
		Assistant: AssistantConfig{Enabled: true},
		Notify:    NotifyConfig{Desktop: true, Beep: true},
	}
}

// DefaultPath is <user config dir>/hark/config.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "hark", "config.yaml")
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating the directory.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ApplyEnv picks up API keys, which never live in the YAML file.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("GROQ_API_KEY"); v != "" {
		c.Transcription.GroqAPIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Assistant.APIKey = v
	}
}

func (c *Config) Validate() error {
	if err := c.Hotkeys.Validate(); err != nil {
		return fmt.Errorf("hotkeys: %w", err)
	}
	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	if err := c.Volume.Validate(); err != nil {
		return fmt.Errorf("volume: %w", err)
	}
	if err := c.Inject.Validate(); err != nil {
		return fmt.Errorf("inject: %w", err)
	}
	if err := c.Transcription.Validate(); err != nil {
		return fmt.Errorf("transcription: %w", err)
	}
	return nil
}

func (h HotkeysConfig) Validate() error {
	tr, err := hotkey.Parse(h.Transcribe)
	if err != nil {
		return err
	}
	as, err := hotkey.Parse(h.Assist)
	if err != nil {
		return err
	}
	if tr == as {
		return fmt.Errorf("transcribe and assist share %s", tr)
	}
	if h.HoldToTalk < 0 {
		return errors.New("hold_to_talk_ms must not be negative")
	}
	if h.HoldToTalk > 0 && h.HoldToTalk <= 300 {
		return errors.New("hold_to_talk_ms must exceed the 300ms debounce window")
	}
	return nil
}

func (h HotkeysConfig) Combos() (transcribe, assist hotkey.Combo) {
	transcribe, _ = hotkey.Parse(h.Transcribe)
	assist, _ = hotkey.Parse(h.Assist)
	return transcribe, assist
}

func (h HotkeysConfig) HoldToTalkDuration() time.Duration {
	return time.Duration(h.HoldToTalk) * time.Millisecond
}

func (a AudioConfig) Validate() error {
	if a.SilenceTimeoutMs < 0 {
		return errors.New("silence_timeout_ms must not be negative")
	}
	return nil
}

func (a AudioConfig) SilenceTimeout() time.Duration {
	return time.Duration(a.SilenceTimeoutMs) * time.Millisecond
}

func (v VolumeConfig) Validate() error {
	if v.Percent < 0 || v.Percent > 100 {
		return fmt.Errorf("percent must be between 0 and 100, got %d", v.Percent)
	}
	if v.Floor < -1 || v.Floor > 100 {
		return fmt.Errorf("floor must be -1 or between 0 and 100, got %d", v.Floor)
	}
	return nil
}

func (i InjectConfig) Validate() error {
	if i.SettleMs < 0 || i.RestoreMs < 0 {
		return errors.New("delays must not be negative")
	}
	return nil
}

func (i InjectConfig) SettleDelay() time.Duration {
	return time.Duration(i.SettleMs) * time.Millisecond
}

func (i InjectConfig) RestoreDelay() time.Duration {
	return time.Duration(i.RestoreMs) * time.Millisecond
}

func (t TranscriptionConfig) Validate() error {
	switch t.Engine {
	case "whisper", "groq":
	default:
		return fmt.Errorf("engine must be whisper or groq, got %q", t.Engine)
	}
	switch t.GroqFormat {
	case "", "wav", "flac":
	default:
		return fmt.Errorf("groq_format must be wav or flac, got %q", t.GroqFormat)
	}
	if t.TimeoutSec <= 0 {
		return errors.New("timeout_s must be positive")
	}
	if t.WhisperThreads < 0 {
		return errors.New("whisper_threads must not be negative")
	}
	return nil
}

func (t TranscriptionConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutSec) * time.Second
}

// EngineConfig is the transcriber configuration for this section.
func (t TranscriptionConfig) EngineConfig() transcriber.Config {
	return transcriber.Config{
		Engine:         t.Engine,
		Language:       t.Language,
		WhisperBinary:  t.WhisperBinary,
		WhisperModel:   t.WhisperModel,
		WhisperThreads: t.WhisperThreads,
		GroqAPIKey:     t.GroqAPIKey,
		GroqModel:      t.GroqModel,
		GroqFormat:     t.GroqFormat,
		Timeout:        t.Timeout(),
	}
}
