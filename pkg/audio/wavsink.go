package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var _ Sink = (*WAVSink)(nil)

// WAVSinkOption configures a [WAVSink].
type WAVSinkOption func(*WAVSink)

// WithFileNamer overrides how utterance file names are chosen.
// Default: "utterance-<unix nanos>.wav".
func WithFileNamer(fn func() string) WAVSinkOption {
	return func(s *WAVSink) {
		s.name = fn
	}
}

// WAVSink writes each utterance to its own WAV file in a directory. It is
// useful on machines without a sound device and for keeping a record of
// what was played.
type WAVSink struct {
	dir  string
	name func() string

	mu   sync.Mutex
	last string
}

// NewWAVSink returns a [WAVSink] writing into dir, creating it if needed.
func NewWAVSink(dir string, opts ...WAVSinkOption) (*WAVSink, error) {
	if dir == "" {
		return nil, errors.New("audio: wav sink needs a directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("audio: create %s: %w", dir, err)
	}
	s := &WAVSink{
		dir:  dir,
		name: func() string { return fmt.Sprintf("utterance-%d.wav", time.Now().UnixNano()) },
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Play collects pcm and writes it as one WAV file. Nothing is written when
// the stream is empty or ctx is cancelled before it ends.
func (s *WAVSink) Play(ctx context.Context, pcm <-chan []byte, f Format) error {
	var data []byte
	for chunk := range pcm {
		data = append(data, chunk...)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	path := filepath.Join(s.dir, s.name())
	if err := os.WriteFile(path, EncodeWAV(data, f), 0o644); err != nil {
		return fmt.Errorf("audio: write %s: %w", path, err)
	}

	s.mu.Lock()
	s.last = path
	s.mu.Unlock()
	return nil
}

// LastPath returns the file written by the most recent successful Play.
func (s *WAVSink) LastPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
