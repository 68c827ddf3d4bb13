// Package tts defines the Provider interface for text-to-speech backends.
//
// A provider wraps a speech synthesis service (a local Coqui server, the
// ElevenLabs streaming API, or a test double) and presents one streaming
// interface. SynthesizeStream accepts a channel of text fragments and returns
// a channel of raw 16-bit little-endian mono PCM as it becomes available.
//
// Implementations must be safe for concurrent use.
package tts

import (
	"context"
	"errors"
	"fmt"
)

// Provider is the abstraction over any TTS backend.
type Provider interface {
	// SynthesizeStream consumes text fragments from text and returns a channel
	// that emits PCM byte slices as they are synthesised.
	//
	// The returned channel is closed when all text has been synthesised or
	// when ctx is cancelled. The caller must drain it.
	//
	// Returns a non-nil error only if the stream cannot be started. Errors
	// during synthesis close the audio channel early.
	SynthesizeStream(ctx context.Context, text <-chan string, voice Voice) (<-chan []byte, error)

	// ListVoices returns the provider's current voice catalogue. The list may
	// change between calls.
	ListVoices(ctx context.Context) ([]Voice, error)
}

// ErrNoAudio is returned by [Synthesize] when the provider produced no PCM.
var ErrNoAudio = errors.New("tts: provider returned no audio")

// Synthesize speaks a single utterance and collects the full PCM result.
func Synthesize(ctx context.Context, p Provider, text string, voice Voice) ([]byte, error) {
	in := make(chan string, 1)
	in <- text
	close(in)

	out, err := p.SynthesizeStream(ctx, in, voice)
	if err != nil {
		return nil, err
	}
	var pcm []byte
	for chunk := range out {
		pcm = append(pcm, chunk...)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("tts: synthesize: %w", err)
	}
	if len(pcm) == 0 {
		return nil, ErrNoAudio
	}
	return pcm, nil
}
