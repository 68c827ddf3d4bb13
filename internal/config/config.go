// Package config provides the configuration schema, loader, hot-reload
// watcher and provider registry for Dictsy.
package config

import (
	"log/slog"
	"time"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Slog maps l to the matching slog level. Unknown levels map to info.
func (l LogLevel) Slog() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SinkKind selects where synthesized speech goes.
type SinkKind string

const (
	// SinkExec pipes raw PCM into an external player such as aplay.
	SinkExec SinkKind = "exec"

	// SinkWAV writes one WAV file per utterance.
	SinkWAV SinkKind = "wav"

	// SinkNone disables playback. Play becomes a no-op.
	SinkNone SinkKind = "none"
)

// IsValid reports whether k is a recognised sink kind.
func (k SinkKind) IsValid() bool {
	return k == SinkExec || k == SinkWAV || k == SinkNone
}

// Config is the root configuration structure. Load it with [Load],
// [LoadOrDefault] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Problems  ProblemsConfig  `yaml:"problems"`
	Answer    AnswerConfig    `yaml:"answer"`
	Speech    SpeechConfig    `yaml:"speech"`
	Providers ProvidersConfig `yaml:"providers"`
	Audio     AudioConfig     `yaml:"audio"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address of the HTTP API. Default ":8080".
	ListenAddr string `yaml:"listen_addr"`

	LogLevel LogLevel `yaml:"log_level"`

	// LogFile receives logs while the terminal UI owns the screen.
	// Default "dictsy.log".
	LogFile string `yaml:"log_file"`

	// TLS enables HTTPS when set.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds PEM certificate and key paths.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// ProblemsConfig locates the problem list.
type ProblemsConfig struct {
	// Source is a file path or http(s) URL of a JSON array of {id, text}.
	// Empty selects the built-in list.
	Source string `yaml:"source"`
}

// AnswerConfig tunes answer judging.
type AnswerConfig struct {
	// FoldContractions makes "I'm" and "I am" equivalent. Off by default so
	// that judging matches the classic table exactly.
	FoldContractions bool `yaml:"fold_contractions"`

	// DisableHints turns off near-miss hints after an incorrect answer.
	DisableHints bool `yaml:"disable_hints"`
}

// SpeechConfig selects voices.
type SpeechConfig struct {
	// Locale filters the voice catalogue. Default "en-US".
	Locale string `yaml:"locale"`

	// PreferredVoice is selected by default when the catalogue offers it.
	// Default "Samantha".
	PreferredVoice string `yaml:"preferred_voice"`

	// PollInterval is how often the voice catalogue is refreshed. Default 30s.
	PollInterval time.Duration `yaml:"poll_interval"`

	// Timeout bounds one synthesis request. Default 30s.
	Timeout time.Duration `yaml:"timeout"`
}

// ProvidersConfig declares the TTS backend and its fallbacks.
type ProvidersConfig struct {
	TTS          ProviderEntry   `yaml:"tts"`
	TTSFallbacks []ProviderEntry `yaml:"tts_fallbacks"`
	Breaker      BreakerConfig   `yaml:"breaker"`
}

// BreakerConfig tunes the per-provider circuit breakers.
type BreakerConfig struct {
	MaxFailures  int           `yaml:"max_failures"`
	ResetTimeout time.Duration `yaml:"reset_timeout"`
}

// ProviderEntry is the configuration shared by all TTS providers. Name
// selects the factory in the [Registry].
type ProviderEntry struct {
	Name    string `yaml:"name"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`

	// Options holds provider-specific values such as coqui's api_mode or
	// language.
	Options map[string]any `yaml:"options"`
}

// AudioConfig selects the playback sink for the terminal UI.
type AudioConfig struct {
	Sink SinkKind `yaml:"sink"`

	// Command is the player for the exec sink. "{rate}" and "{channels}"
	// are substituted per utterance.
	Command []string `yaml:"command"`

	// SampleRate is the PCM rate providers are asked to produce. Default 16000.
	SampleRate int `yaml:"sample_rate"`

	// Dir is where the wav sink writes files. Default "utterances".
	Dir string `yaml:"dir"`
}

// DefaultPlayerCommand plays 16-bit little-endian PCM from stdin with ALSA.
var DefaultPlayerCommand = []string{"aplay", "-q", "-t", "raw", "-f", "S16_LE", "-r", "{rate}", "-c", "{channels}"}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields of cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Server.LogFile == "" {
		cfg.Server.LogFile = "dictsy.log"
	}
	if cfg.Speech.Locale == "" {
		cfg.Speech.Locale = "en-US"
	}
	if cfg.Speech.PreferredVoice == "" {
		cfg.Speech.PreferredVoice = "Samantha"
	}
	if cfg.Speech.PollInterval == 0 {
		cfg.Speech.PollInterval = 30 * time.Second
	}
	if cfg.Speech.Timeout == 0 {
		cfg.Speech.Timeout = 30 * time.Second
	}
	if cfg.Providers.Breaker.MaxFailures == 0 {
		cfg.Providers.Breaker.MaxFailures = 3
	}
	if cfg.Providers.Breaker.ResetTimeout == 0 {
		cfg.Providers.Breaker.ResetTimeout = 30 * time.Second
	}
	if cfg.Audio.Sink == "" {
		cfg.Audio.Sink = SinkExec
	}
	if cfg.Audio.Sink == SinkExec && len(cfg.Audio.Command) == 0 {
		cfg.Audio.Command = append([]string(nil), DefaultPlayerCommand...)
	}
	if cfg.Audio.SampleRate == 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Dir == "" {
		cfg.Audio.Dir = "utterances"
	}
}
