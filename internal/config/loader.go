package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"slices"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// ValidTTSNames lists the TTS providers shipped with Dictsy. [Validate] warns
// about other names, which may still be registered by an embedding program.
var ValidTTSNames = []string{"coqui", "elevenlabs"}

// Load reads the YAML file at path, applies defaults and validates it.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is [Load], except that a missing file yields [Default].
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("config file not found, using defaults", "path", path)
		return Default(), nil
	}
	return cfg, err
}

// LoadFromReader decodes YAML from r, applies defaults and validates the
// result. Unknown keys are rejected. An empty document yields the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	expandSecrets(cfg)
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expandSecrets substitutes $VAR and ${VAR} in provider API keys so secrets
// can stay out of the file.
func expandSecrets(cfg *Config) {
	cfg.Providers.TTS.APIKey = os.ExpandEnv(cfg.Providers.TTS.APIKey)
	for i := range cfg.Providers.TTSFallbacks {
		cfg.Providers.TTSFallbacks[i].APIKey = os.ExpandEnv(cfg.Providers.TTSFallbacks[i].APIKey)
	}
}

// Validate checks cfg for coherence and returns every violation joined into
// one error. Suspicious but legal settings are logged as warnings.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if tls := cfg.Server.TLS; tls != nil && (tls.CertFile == "" || tls.KeyFile == "") {
		errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
	}

	if src := cfg.Problems.Source; src != "" {
		if u, err := url.Parse(src); err == nil && len(u.Scheme) > 1 && u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, fmt.Errorf("problems.source scheme %q is unsupported; use a path or an http(s) URL", u.Scheme))
		}
	}

	if cfg.Speech.Locale != "" {
		if _, err := language.Parse(cfg.Speech.Locale); err != nil {
			errs = append(errs, fmt.Errorf("speech.locale %q is not a valid BCP-47 tag: %w", cfg.Speech.Locale, err))
		}
	}
	if cfg.Speech.PollInterval < 0 {
		errs = append(errs, fmt.Errorf("speech.poll_interval %v must not be negative", cfg.Speech.PollInterval))
	}
	if cfg.Speech.Timeout < 0 {
		errs = append(errs, fmt.Errorf("speech.timeout %v must not be negative", cfg.Speech.Timeout))
	}

	errs = append(errs, validateProvider("providers.tts", cfg.Providers.TTS, false)...)
	seen := map[string]bool{cfg.Providers.TTS.Name: true}
	for i, fb := range cfg.Providers.TTSFallbacks {
		prefix := fmt.Sprintf("providers.tts_fallbacks[%d]", i)
		errs = append(errs, validateProvider(prefix, fb, true)...)
		if fb.Name != "" && seen[fb.Name] {
			slog.Warn("TTS provider listed twice; each copy gets its own circuit breaker", "field", prefix, "name", fb.Name)
		}
		seen[fb.Name] = true
	}
	if cfg.Providers.TTS.Name == "" && len(cfg.Providers.TTSFallbacks) > 0 {
		errs = append(errs, errors.New("providers.tts_fallbacks requires providers.tts"))
	}
	if cfg.Providers.Breaker.MaxFailures < 0 {
		errs = append(errs, fmt.Errorf("providers.breaker.max_failures %d must not be negative", cfg.Providers.Breaker.MaxFailures))
	}

	if cfg.Audio.Sink != "" && !cfg.Audio.Sink.IsValid() {
		errs = append(errs, fmt.Errorf("audio.sink %q is invalid; valid values: exec, wav, none", cfg.Audio.Sink))
	}
	if cfg.Audio.Sink == SinkExec && len(cfg.Audio.Command) == 0 {
		errs = append(errs, errors.New("audio.command is required when audio.sink is exec"))
	}
	if cfg.Audio.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate %d must be positive", cfg.Audio.SampleRate))
	}
	if cfg.Providers.TTS.Name == "" && cfg.Audio.Sink != SinkNone {
		slog.Info("no TTS provider configured; Play will be a no-op")
	}

	return errors.Join(errs...)
}

func validateProvider(prefix string, e ProviderEntry, required bool) []error {
	var errs []error
	if e.Name == "" {
		if required {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
		return errs
	}
	if !slices.Contains(ValidTTSNames, e.Name) {
		slog.Warn("unknown TTS provider name, may be a typo", "field", prefix, "name", e.Name, "known", ValidTTSNames)
	}
	if e.Name == "elevenlabs" && e.APIKey == "" {
		errs = append(errs, fmt.Errorf("%s.api_key is required for elevenlabs", prefix))
	}
	if e.Name == "coqui" && e.BaseURL == "" {
		errs = append(errs, fmt.Errorf("%s.base_url is required for coqui", prefix))
	}
	if e.BaseURL != "" {
		if u, err := url.Parse(e.BaseURL); err != nil || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s.base_url %q is not an absolute URL", prefix, e.BaseURL))
		}
	}
	return errs
}
