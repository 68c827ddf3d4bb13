// Package speech owns the voice catalogue and plays problems aloud.
//
// A [Speaker] sits between the surfaces and a [tts.Provider]. It keeps the
// locale-filtered voice list, remembers which voice is selected, synthesises
// text and hands the PCM to an [audio.Sink]. Surfaces learn about catalogue
// changes through [Speaker.Subscribe]; the returned cancel function ends the
// subscription with the caller's lifecycle.
//
// A Speaker without a provider, or with an empty catalogue, is valid: Speak
// becomes a no-op and Voices returns nothing.
package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/text/language"

	"github.com/MrWong99/dictsy/internal/observe"
	"github.com/MrWong99/dictsy/pkg/audio"
	"github.com/MrWong99/dictsy/pkg/provider/tts"
)

const (
	defaultLocale       = "en-US"
	defaultPreferred    = "Samantha"
	defaultPollInterval = 30 * time.Second
	defaultTimeout      = 30 * time.Second
)

var (
	// ErrNoProvider is returned when the Speaker has no TTS provider.
	ErrNoProvider = errors.New("speech: no tts provider configured")

	// ErrUnknownVoice is returned by [Speaker.Select] and
	// [Speaker.Synthesize] for a name that is not in the catalogue.
	ErrUnknownVoice = errors.New("speech: unknown voice")

	// ErrNoVoice is returned when the catalogue is empty.
	ErrNoVoice = errors.New("speech: no voice available")
)

// Option configures a [Speaker].
type Option func(*Speaker)

// WithLocale sets the BCP-47 tag voices must speak. Default "en-US".
// An unparsable tag is ignored.
func WithLocale(tag string) Option {
	return func(s *Speaker) {
		if t, err := language.Parse(tag); err == nil {
			s.locale = t
		}
	}
}

// WithPreferredVoice sets the voice name selected by default. Default
// "Samantha".
func WithPreferredVoice(name string) Option {
	return func(s *Speaker) {
		if name != "" {
			s.preferred = name
		}
	}
}

// WithSink sets where synthesised speech is played. Without a sink, Speak
// is a no-op.
func WithSink(sink audio.Sink) Option {
	return func(s *Speaker) {
		s.sink = sink
	}
}

// WithFormat sets the PCM format the provider emits. Default 16kHz mono.
func WithFormat(f audio.Format) Option {
	return func(s *Speaker) {
		if f.SampleRate > 0 && f.Channels > 0 {
			s.format = f
		}
	}
}

// WithPollInterval sets how often [Speaker.Watch] refreshes the catalogue.
// Default 30s.
func WithPollInterval(d time.Duration) Option {
	return func(s *Speaker) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithTimeout bounds a single synthesis and playback. Default 30s.
func WithTimeout(d time.Duration) Option {
	return func(s *Speaker) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMetrics sets the metrics recorder. Default [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Speaker) {
		s.metrics = m
	}
}

// WithProviderName sets the provider label used in metrics. Default "tts".
func WithProviderName(name string) Option {
	return func(s *Speaker) {
		if name != "" {
			s.providerName = name
		}
	}
}

// Speaker manages voices and plays text. All methods are safe for concurrent
// use.
type Speaker struct {
	provider     tts.Provider
	providerName string
	sink         audio.Sink
	format       audio.Format
	locale       language.Tag
	preferred    string
	interval     time.Duration
	timeout      time.Duration
	metrics      *observe.Metrics

	mu       sync.Mutex
	voices   []tts.Voice
	selected string
	chosen   bool // selected came from Select rather than the default rule
	subs     map[int]func([]tts.Voice)
	nextSub  int

	inflight sync.WaitGroup
}

// New returns a Speaker backed by provider, which may be nil.
func New(provider tts.Provider, opts ...Option) *Speaker {
	s := &Speaker{
		provider:     provider,
		providerName: "tts",
		format:       audio.Format{SampleRate: 16000, Channels: 1},
		locale:       language.MustParse(defaultLocale),
		preferred:    defaultPreferred,
		interval:     defaultPollInterval,
		timeout:      defaultTimeout,
		subs:         make(map[int]func([]tts.Voice)),
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// Available reports whether a provider is configured.
func (s *Speaker) Available() bool {
	return s.provider != nil
}

// Locale returns the tag voices are filtered by.
func (s *Speaker) Locale() string {
	return s.locale.String()
}

// Format returns the PCM format of synthesised audio.
func (s *Speaker) Format() audio.Format {
	return s.format
}

// Voices returns a copy of the locale-filtered catalogue.
func (s *Speaker) Voices() []tts.Voice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.voices)
}

// Selected returns the selected voice. ok is false when the catalogue is
// empty.
func (s *Speaker) Selected() (v tts.Voice, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(s.selected)
}

// Select makes name the selected voice. The choice survives catalogue
// refreshes for as long as the voice remains available.
func (s *Speaker) Select(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lookup(name); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVoice, name)
	}
	s.selected = name
	s.chosen = true
	return nil
}

// Subscribe registers fn to be called with the new catalogue whenever it
// changes. fn runs on the refreshing goroutine, so a slow subscriber delays
// the next refresh. Call the returned function to unsubscribe; it is safe to
// call more than once.
func (s *Speaker) Subscribe(fn func([]tts.Voice)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Refresh fetches the catalogue from the provider, filters it to the locale
// and notifies subscribers when it differs from the previous one.
func (s *Speaker) Refresh(ctx context.Context) error {
	if s.provider == nil {
		return ErrNoProvider
	}

	all, err := s.provider.ListVoices(ctx)
	if err != nil {
		s.metrics.RecordProviderRequest(ctx, s.providerName, "voices", "error")
		s.metrics.RecordProviderError(ctx, s.providerName, "voices")
		return fmt.Errorf("speech: list voices: %w", err)
	}
	s.metrics.RecordProviderRequest(ctx, s.providerName, "voices", "ok")

	voices := make([]tts.Voice, 0, len(all))
	for _, v := range all {
		if s.speaksLocale(v) {
			voices = append(voices, v)
		}
	}
	s.metrics.SetVoicesAvailable(ctx, len(voices))

	s.mu.Lock()
	if sameCatalogue(s.voices, voices) {
		s.mu.Unlock()
		return nil
	}
	s.voices = voices
	s.reselect()
	subs := make([]func([]tts.Voice), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	slog.Debug("speech: voice catalogue changed", "voices", len(voices), "locale", s.locale.String())
	for _, fn := range subs {
		fn(slices.Clone(voices))
	}
	return nil
}

// AllVoices returns the provider's catalogue without the locale filter. It
// does not change the selection.
func (s *Speaker) AllVoices(ctx context.Context) ([]tts.Voice, error) {
	if s.provider == nil {
		return nil, ErrNoProvider
	}
	voices, err := s.provider.ListVoices(ctx)
	if err != nil {
		return nil, fmt.Errorf("speech: list voices: %w", err)
	}
	return voices, nil
}

// Watch refreshes the catalogue immediately and then every poll interval
// until ctx is cancelled. Refresh failures are logged and retried on the
// next tick. It returns nil on cancellation.
func (s *Speaker) Watch(ctx context.Context) error {
	if s.provider == nil {
		<-ctx.Done()
		return nil
	}
	if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
		slog.Warn("speech: voice refresh failed", "err", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				slog.Warn("speech: voice refresh failed", "err", err)
			}
		}
	}
}

// Speak plays text with the selected voice in the background. It never
// fails: without a provider, sink or voice it does nothing, and synthesis
// errors are logged.
func (s *Speaker) Speak(ctx context.Context, text string) {
	if s.provider == nil || s.sink == nil {
		return
	}
	voice, ok := s.Selected()
	if !ok {
		slog.Debug("speech: no voice selected, skipping playback")
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		if err := s.play(ctx, text, voice); err != nil {
			observe.Logger(ctx).Warn("speech: playback failed", "voice", voice.Name, "err", err)
		}
	}()
}

// Wait blocks until every utterance started by Speak has finished.
func (s *Speaker) Wait() {
	s.inflight.Wait()
}

// Synthesize returns the PCM for text spoken by the voice called name, or by
// the selected voice when name is empty.
func (s *Speaker) Synthesize(ctx context.Context, text, name string) ([]byte, tts.Voice, error) {
	if s.provider == nil {
		return nil, tts.Voice{}, ErrNoProvider
	}
	voice, err := s.resolve(name)
	if err != nil {
		return nil, tts.Voice{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	ctx, span := observe.StartSpan(ctx, "speech.synthesize")
	defer span.End()

	start := time.Now()
	pcm, err := tts.Synthesize(ctx, s.provider, text, voice)
	s.metrics.RecordSynthesis(ctx, s.providerName, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		return nil, voice, fmt.Errorf("speech: synthesize: %w", err)
	}
	return pcm, voice, nil
}

func (s *Speaker) play(ctx context.Context, text string, voice tts.Voice) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	ctx, span := observe.StartSpan(ctx, "speech.speak")
	defer span.End()

	in := make(chan string, 1)
	in <- text
	close(in)

	start := time.Now()
	pcm, err := s.provider.SynthesizeStream(ctx, in, voice)
	if err != nil {
		s.metrics.RecordSynthesis(ctx, s.providerName, time.Since(start), err)
		span.RecordError(err)
		return fmt.Errorf("speech: start synthesis: %w", err)
	}
	err = s.sink.Play(ctx, pcm, s.format)
	s.metrics.RecordSynthesis(ctx, s.providerName, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("speech: play: %w", err)
	}
	return nil
}

func (s *Speaker) resolve(name string) (tts.Voice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == "" {
		if v, ok := s.lookup(s.selected); ok {
			return v, nil
		}
		return tts.Voice{}, ErrNoVoice
	}
	if v, ok := s.lookup(name); ok {
		return v, nil
	}
	return tts.Voice{}, fmt.Errorf("%w: %q", ErrUnknownVoice, name)
}

// lookup finds a voice by name. s.mu must be held.
func (s *Speaker) lookup(name string) (tts.Voice, bool) {
	for _, v := range s.voices {
		if v.Name == name {
			return v, true
		}
	}
	return tts.Voice{}, false
}

// reselect applies the default selection rule after a catalogue change.
// s.mu must be held.
func (s *Speaker) reselect() {
	if s.chosen {
		if _, ok := s.lookup(s.selected); ok {
			return
		}
		s.chosen = false
	}
	switch {
	case len(s.voices) == 0:
		s.selected = ""
	case hasVoice(s.voices, s.preferred):
		s.selected = s.preferred
	default:
		s.selected = s.voices[0].Name
	}
}

// speaksLocale compares canonical tags so "en_US" and "en-us" match
// "en-US". Voices without a language never match.
func (s *Speaker) speaksLocale(v tts.Voice) bool {
	if v.Language == "" {
		return false
	}
	t, err := language.Parse(v.Language)
	if err != nil {
		return false
	}
	return t == s.locale
}

func hasVoice(voices []tts.Voice, name string) bool {
	return slices.ContainsFunc(voices, func(v tts.Voice) bool { return v.Name == name })
}

func sameCatalogue(a, b []tts.Voice) bool {
	return slices.EqualFunc(a, b, func(x, y tts.Voice) bool {
		return x.ID == y.ID && x.Name == y.Name && x.Language == y.Language && x.Provider == y.Provider
	})
}
