package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrWong99/dictsy/internal/answer"
	"github.com/MrWong99/dictsy/internal/answer/hint"
	"github.com/MrWong99/dictsy/internal/config"
	"github.com/MrWong99/dictsy/internal/observe"
	"github.com/MrWong99/dictsy/internal/resilience"
	"github.com/MrWong99/dictsy/internal/speech"
	"github.com/MrWong99/dictsy/pkg/audio"
	"github.com/MrWong99/dictsy/pkg/provider/tts"
	"github.com/MrWong99/dictsy/pkg/provider/tts/coqui"
	"github.com/MrWong99/dictsy/pkg/provider/tts/elevenlabs"
)

// registerBuiltins registers every TTS provider and audio sink shipped with
// dictsy.
func registerBuiltins(reg *config.Registry) {
	reg.RegisterTTS("elevenlabs", func(entry config.ProviderEntry, ac config.AudioConfig) (tts.Provider, error) {
		opts := []elevenlabs.Option{elevenlabs.WithOutputFormat(fmt.Sprintf("pcm_%d", ac.SampleRate))}
		if entry.Model != "" {
			opts = append(opts, elevenlabs.WithModel(entry.Model))
		}
		if format, ok := entry.OptionString("output_format"); ok {
			opts = append(opts, elevenlabs.WithOutputFormat(format))
		}
		if entry.BaseURL != "" {
			opts = append(opts, elevenlabs.WithBaseURL(entry.BaseURL))
		}
		return elevenlabs.New(entry.APIKey, opts...)
	})

	reg.RegisterTTS("coqui", func(entry config.ProviderEntry, ac config.AudioConfig) (tts.Provider, error) {
		opts := []coqui.Option{coqui.WithOutputSampleRate(ac.SampleRate)}
		if lang, ok := entry.OptionString("language"); ok {
			opts = append(opts, coqui.WithLanguage(lang))
		}
		if locale, ok := entry.OptionString("locale"); ok {
			opts = append(opts, coqui.WithLocale(locale))
		}
		if mode, ok := entry.OptionString("api_mode"); ok {
			opts = append(opts, coqui.WithAPIMode(coqui.APIMode(mode)))
		}
		if secs, ok := entry.OptionInt("timeout_seconds"); ok && secs > 0 {
			opts = append(opts, coqui.WithTimeout(time.Duration(secs)*time.Second))
		}
		return coqui.New(entry.BaseURL, opts...)
	})

	reg.RegisterSink(config.SinkExec, func(ac config.AudioConfig) (audio.Sink, error) {
		s, err := audio.NewExecSink(ac.Command)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
	reg.RegisterSink(config.SinkWAV, func(ac config.AudioConfig) (audio.Sink, error) {
		s, err := audio.NewWAVSink(ac.Dir)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
	reg.RegisterSink(config.SinkNone, func(config.AudioConfig) (audio.Sink, error) {
		return nil, nil
	})

	slog.Debug("registered providers", "tts", reg.TTSNames())
}

// buildTTS creates the configured primary provider and its fallbacks. Every
// entry sits behind its own circuit breaker whose transitions are logged and
// counted. It returns a nil provider when none is configured.
func buildTTS(cfg *config.Config, reg *config.Registry, metrics *observe.Metrics) (tts.Provider, string, error) {
	entry := cfg.Providers.TTS
	if entry.Name == "" {
		return nil, "", nil
	}
	primary, err := reg.CreateTTS(entry, cfg.Audio)
	if err != nil {
		return nil, "", fmt.Errorf("create tts provider %q: %w", entry.Name, err)
	}
	slog.Info("provider created", "kind", "tts", "name", entry.Name)

	group := resilience.NewTTSFallback(primary, entry.Name, resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{
			MaxFailures:  cfg.Providers.Breaker.MaxFailures,
			ResetTimeout: cfg.Providers.Breaker.ResetTimeout,
			OnStateChange: func(name string, from, to resilience.State) {
				slog.Warn("tts circuit breaker changed state", "provider", name, "from", from, "to", to)
				metrics.RecordBreakerTransition(context.Background(), name, from.String(), to.String())
			},
		},
	})
	for _, fb := range cfg.Providers.TTSFallbacks {
		p, err := reg.CreateTTS(fb, cfg.Audio)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Debug("fallback provider not registered, skipping", "kind", "tts", "name", fb.Name)
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("create tts fallback %q: %w", fb.Name, err)
		}
		group.AddFallback(fb.Name, p)
		slog.Info("provider created", "kind", "tts", "name", fb.Name, "role", "fallback")
	}
	return group, entry.Name, nil
}

// buildSpeaker wires the TTS chain into a [speech.Speaker]. withSink
// selects whether utterances are played locally.
func buildSpeaker(cfg *config.Config, reg *config.Registry, metrics *observe.Metrics, withSink bool) (*speech.Speaker, error) {
	provider, name, err := buildTTS(cfg, reg, metrics)
	if err != nil {
		return nil, err
	}
	opts := []speech.Option{
		speech.WithLocale(cfg.Speech.Locale),
		speech.WithPreferredVoice(cfg.Speech.PreferredVoice),
		speech.WithFormat(audio.Format{SampleRate: cfg.Audio.SampleRate, Channels: 1}),
		speech.WithPollInterval(cfg.Speech.PollInterval),
		speech.WithTimeout(cfg.Speech.Timeout),
		speech.WithMetrics(metrics),
		speech.WithProviderName(name),
	}
	if withSink && provider != nil {
		sink, err := reg.CreateSink(cfg.Audio)
		if err != nil {
			return nil, fmt.Errorf("create audio sink %q: %w", cfg.Audio.Sink, err)
		}
		if sink != nil {
			opts = append(opts, speech.WithSink(audio.NewQueue(sink)))
			slog.Info("audio sink created", "kind", cfg.Audio.Sink)
		}
	}
	return speech.New(provider, opts...), nil
}

// answerSettings builds the judge and hint matcher for ac. The matcher is
// nil when hints are disabled.
func answerSettings(ac config.AnswerConfig) (*answer.Normalizer, *hint.Matcher) {
	n := answer.New(answer.WithContractionFolding(ac.FoldContractions))
	if ac.DisableHints {
		return n, nil
	}
	return n, hint.New()
}
