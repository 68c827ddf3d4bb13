package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/MrWong99/dictsy/pkg/audio"
	"github.com/MrWong99/dictsy/pkg/provider/tts"
)

// ErrProviderNotRegistered is returned by the Create methods when no factory
// is registered under the requested name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider and sink names to constructors. It is safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tts   map[string]func(ProviderEntry, AudioConfig) (tts.Provider, error)
	sinks map[SinkKind]func(AudioConfig) (audio.Sink, error)
}

// NewRegistry returns an empty [Registry].
func NewRegistry() *Registry {
	return &Registry{
		tts:   make(map[string]func(ProviderEntry, AudioConfig) (tts.Provider, error)),
		sinks: make(map[SinkKind]func(AudioConfig) (audio.Sink, error)),
	}
}

// RegisterTTS registers a TTS factory under name, replacing any earlier one.
// The factory receives the audio settings so it can request the right
// sample rate.
func (r *Registry) RegisterTTS(name string, factory func(ProviderEntry, AudioConfig) (tts.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tts[name] = factory
}

// RegisterSink registers an audio sink factory under kind.
func (r *Registry) RegisterSink(kind SinkKind, factory func(AudioConfig) (audio.Sink, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks[kind] = factory
}

// CreateTTS instantiates the provider registered under entry.Name.
func (r *Registry) CreateTTS(entry ProviderEntry, ac AudioConfig) (tts.Provider, error) {
	r.mu.RLock()
	factory, ok := r.tts[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: tts/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry, ac)
}

// CreateSink instantiates the sink registered under ac.Sink.
func (r *Registry) CreateSink(ac AudioConfig) (audio.Sink, error) {
	r.mu.RLock()
	factory, ok := r.sinks[ac.Sink]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: sink/%q", ErrProviderNotRegistered, ac.Sink)
	}
	return factory(ac)
}

// TTSNames returns the registered TTS provider names, sorted.
func (r *Registry) TTSNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.tts))
}

// OptionString returns entry.Options[key] when it is a string.
func (e ProviderEntry) OptionString(key string) (string, bool) {
	s, ok := e.Options[key].(string)
	return s, ok
}

// OptionInt returns entry.Options[key] when it is an integer. YAML numbers
// decode as int.
func (e ProviderEntry) OptionInt(key string) (int, bool) {
	switch v := e.Options[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
	}
	return 0, false
}
