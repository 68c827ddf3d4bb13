package resilience

import (
	"context"

	"github.com/MrWong99/dictsy/pkg/audio"
	"github.com/MrWong99/dictsy/pkg/provider/tts"
)

// TTSFallback implements [tts.Provider] on top of a [FallbackGroup] of TTS
// backends.
//
// SynthesizeStream reads the whole text input before contacting a backend so
// that the sentence can be replayed to the next backend when one fails. A
// backend fails when it cannot start a stream or when its stream closes
// without producing any audio.
type TTSFallback struct {
	group *FallbackGroup[tts.Provider]
}

var _ tts.Provider = (*TTSFallback)(nil)

// NewTTSFallback creates a [TTSFallback] with primary as the preferred backend.
func NewTTSFallback(primary tts.Provider, primaryName string, cfg FallbackConfig) *TTSFallback {
	return &TTSFallback{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers another backend tried after the earlier ones.
func (f *TTSFallback) AddFallback(name string, p tts.Provider) {
	f.group.AddFallback(name, p)
}

// Breakers exposes the per-backend breakers for readiness checks.
func (f *TTSFallback) Breakers() []*CircuitBreaker { return f.group.Breakers() }

// SynthesizeStream synthesizes the buffered text with the first backend that
// yields audio.
func (f *TTSFallback) SynthesizeStream(ctx context.Context, text <-chan string, voice tts.Voice) (<-chan []byte, error) {
	var fragments []string
collect:
	for {
		select {
		case s, ok := <-text:
			if !ok {
				break collect
			}
			fragments = append(fragments, s)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return ExecuteWithResult(f.group, func(p tts.Provider) (<-chan []byte, error) {
		in := make(chan string, len(fragments))
		for _, s := range fragments {
			in <- s
		}
		close(in)

		out, err := p.SynthesizeStream(ctx, in, voice)
		if err != nil {
			return nil, err
		}
		var first []byte
		select {
		case chunk, ok := <-out:
			if !ok {
				return nil, tts.ErrNoAudio
			}
			first = chunk
		case <-ctx.Done():
			go audio.Drain(out)
			return nil, ctx.Err()
		}

		ch := make(chan []byte, 1)
		ch <- first
		go func() {
			defer close(ch)
			for chunk := range out {
				select {
				case ch <- chunk:
				case <-ctx.Done():
					audio.Drain(out)
					return
				}
			}
		}()
		return ch, nil
	})
}

// ListVoices returns the catalogue of the first healthy backend.
func (f *TTSFallback) ListVoices(ctx context.Context) ([]tts.Voice, error) {
	return ExecuteWithResult(f.group, func(p tts.Provider) ([]tts.Voice, error) {
		return p.ListVoices(ctx)
	})
}
