// Package audio plays synthesised speech.
//
// Text-to-speech providers emit raw 16-bit little-endian PCM on a channel.
// A [Sink] consumes such a channel and renders it somewhere: an external
// player process ([ExecSink]), a WAV file per utterance ([WAVSink]), or a
// recording test double (audio/mock).
//
// The package also holds the small PCM helpers shared by providers and
// sinks: WAV header parsing and encoding, stereo downmix and resampling.
package audio

import (
	"context"
	"fmt"
)

// Format describes the sample rate and channel count of a PCM stream.
type Format struct {
	SampleRate int
	Channels   int
}

// String returns e.g. "16000Hz mono".
func (f Format) String() string {
	ch := "mono"
	switch {
	case f.Channels == 2:
		ch = "stereo"
	case f.Channels > 2:
		ch = fmt.Sprintf("%dch", f.Channels)
	}
	return fmt.Sprintf("%dHz %s", f.SampleRate, ch)
}

// Sink renders a PCM stream.
//
// Play consumes pcm until it is closed and returns once the audio has been
// handed off completely. Implementations must drain pcm even when they fail
// so the producing provider never blocks.
type Sink interface {
	Play(ctx context.Context, pcm <-chan []byte, format Format) error
}

// Drain reads from ch until the channel is closed, discarding all values.
func Drain[T any](ch <-chan T) {
	for range ch {
	}
}
