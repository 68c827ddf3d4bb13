// Package mock provides a test double for the tts.Provider interface.
//
// Use Provider to feed controlled PCM to consumers and to check which voice
// and which sentences reached the TTS backend.
//
//	p := &mock.Provider{
//	    SynthesizeChunks: [][]byte{{1, 2}, {3, 4}},
//	    ListVoicesResult: []tts.Voice{{ID: "v1", Name: "Samantha", Language: "en-US"}},
//	}
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/dictsy/pkg/provider/tts"
)

// SynthesizeStreamCall records a single invocation of SynthesizeStream.
type SynthesizeStreamCall struct {
	Voice tts.Voice
	// Text holds the fragments read from the input channel. It is complete
	// once the audio channel returned by SynthesizeStream is closed.
	Text []string
}

// Provider is a mock implementation of tts.Provider.
type Provider struct {
	mu sync.Mutex

	// SynthesizeChunks is emitted on the channel returned by SynthesizeStream.
	SynthesizeChunks [][]byte

	// SynthesizeErr, if non-nil, is returned by SynthesizeStream.
	SynthesizeErr error

	ListVoicesResult []tts.Voice
	ListVoicesErr    error

	calls     []SynthesizeStreamCall
	listCalls int
}

// SynthesizeStream records the call and, unless SynthesizeErr is set,
// returns a channel that emits SynthesizeChunks after the text input is
// drained, then closes.
func (p *Provider) SynthesizeStream(ctx context.Context, text <-chan string, voice tts.Voice) (<-chan []byte, error) {
	p.mu.Lock()
	idx := len(p.calls)
	p.calls = append(p.calls, SynthesizeStreamCall{Voice: voice})
	if p.SynthesizeErr != nil {
		err := p.SynthesizeErr
		p.mu.Unlock()
		return nil, err
	}
	chunks := append([][]byte(nil), p.SynthesizeChunks...)
	p.mu.Unlock()

	ch := make(chan []byte, len(chunks))
	go func() {
		defer close(ch)
		for {
			select {
			case s, ok := <-text:
				if !ok {
					for _, c := range chunks {
						select {
						case ch <- c:
						case <-ctx.Done():
							return
						}
					}
					return
				}
				p.mu.Lock()
				p.calls[idx].Text = append(p.calls[idx].Text, s)
				p.mu.Unlock()
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// ListVoices returns ListVoicesResult and ListVoicesErr.
func (p *Provider) ListVoices(context.Context) ([]tts.Voice, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listCalls++
	return append([]tts.Voice(nil), p.ListVoicesResult...), p.ListVoicesErr
}

// SetVoices replaces ListVoicesResult. Safe to call while the provider is in use.
func (p *Provider) SetVoices(voices []tts.Voice) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ListVoicesResult = voices
}

// Calls returns a copy of the recorded SynthesizeStream calls.
func (p *Provider) Calls() []SynthesizeStreamCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]SynthesizeStreamCall, len(p.calls))
	for i, c := range p.calls {
		out[i] = SynthesizeStreamCall{Voice: c.Voice, Text: append([]string(nil), c.Text...)}
	}
	return out
}

// ListVoicesCalls reports how many times ListVoices was called.
func (p *Provider) ListVoicesCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.listCalls
}

// Reset clears all recorded calls.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = nil
	p.listCalls = 0
}

var _ tts.Provider = (*Provider)(nil)
