// Package mock provides a recording implementation of [audio.Sink] for unit
// tests.
//
// Typical usage:
//
//	played := make(chan mock.PlayCall, 1)
//	sink := &mock.Sink{OnPlay: func(c mock.PlayCall) { played <- c }}
//	speaker := speech.New(provider, sink, ...)
//	speaker.Speak(ctx, "Hello.")
//	call := <-played
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/dictsy/pkg/audio"
)

var _ audio.Sink = (*Sink)(nil)

// PlayCall records a single invocation of Play.
type PlayCall struct {
	// PCM is the concatenation of every chunk received.
	PCM []byte
	// Format is the stream format passed to Play.
	Format audio.Format
}

// Sink is a mock implementation of [audio.Sink]. It is safe for concurrent
// use.
type Sink struct {
	mu sync.Mutex

	// PlayErr, if non-nil, is returned from Play after the stream is drained.
	PlayErr error

	// OnPlay, if set, is called after each Play with the recorded call.
	OnPlay func(PlayCall)

	calls []PlayCall
}

// Play drains pcm, records the call and returns PlayErr.
func (s *Sink) Play(_ context.Context, pcm <-chan []byte, f audio.Format) error {
	var data []byte
	for chunk := range pcm {
		data = append(data, chunk...)
	}
	call := PlayCall{PCM: data, Format: f}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	err := s.PlayErr
	hook := s.OnPlay
	s.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	return err
}

// Calls returns a copy of the recorded calls.
func (s *Sink) Calls() []PlayCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]PlayCall(nil), s.calls...)
}

// Reset clears all recorded calls.
func (s *Sink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}
