package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

var _ Sink = (*ExecSink)(nil)

// ExecSink pipes PCM into the stdin of an external player such as aplay,
// paplay or ffplay. One process is started per utterance.
//
// The placeholders {rate} and {channels} in the command arguments are
// replaced with the stream format before the process starts.
type ExecSink struct {
	command []string
}

// NewExecSink returns an [ExecSink] running command. command must name at
// least the executable.
func NewExecSink(command []string) (*ExecSink, error) {
	if len(command) == 0 || strings.TrimSpace(command[0]) == "" {
		return nil, errors.New("audio: exec sink needs a command")
	}
	return &ExecSink{command: append([]string(nil), command...)}, nil
}

// Args returns the command line used for format f.
func (s *ExecSink) Args(f Format) []string {
	r := strings.NewReplacer(
		"{rate}", strconv.Itoa(f.SampleRate),
		"{channels}", strconv.Itoa(max(f.Channels, 1)),
	)
	args := make([]string, len(s.command))
	for i, a := range s.command {
		args[i] = r.Replace(a)
	}
	return args
}

// Play starts the player and writes every chunk of pcm to its stdin.
func (s *ExecSink) Play(ctx context.Context, pcm <-chan []byte, f Format) error {
	args := s.Args(f)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		Drain(pcm)
		return fmt.Errorf("audio: exec %s: stdin: %w", args[0], err)
	}
	if err := cmd.Start(); err != nil {
		Drain(pcm)
		return fmt.Errorf("audio: exec %s: %w", args[0], err)
	}

	var writeErr error
	for chunk := range pcm {
		if writeErr != nil {
			continue
		}
		if _, err := stdin.Write(chunk); err != nil {
			writeErr = fmt.Errorf("audio: exec %s: write: %w", args[0], err)
		}
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("audio: exec %s: %w: %s", args[0], err, msg)
		}
		return fmt.Errorf("audio: exec %s: %w", args[0], err)
	}
	return writeErr
}
