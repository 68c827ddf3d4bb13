// Package coqui provides a TTS provider backed by a Coqui TTS server reached
// over its REST API. It implements the tts.Provider interface.
//
// Two API modes are supported:
//
//   - APIModeStandard (default): the standard Coqui TTS server
//     (ghcr.io/coqui-ai/tts-cpu). Synthesis is GET /api/tts with query
//     parameters; the voice catalogue comes from GET /details.
//
//   - APIModeXTTS: the Coqui XTTS v2 API server. Synthesis is
//     POST /tts_to_audio/ with a JSON body; the voice catalogue comes from
//     GET /studio_speakers.
//
// Both servers answer one HTTP call per utterance, so SynthesizeStream cuts
// incoming text into sentences and keeps a few requests in flight while
// emitting PCM in sentence order.
//
// Coqui does not report a locale per speaker. Every voice is tagged with the
// locale set by WithLocale, which defaults to the synthesis language.
//
// Typical usage:
//
//	p, err := coqui.New("http://localhost:5002",
//	    coqui.WithLanguage("en"),
//	    coqui.WithLocale("en-US"),
//	    coqui.WithOutputSampleRate(16000),
//	)
//	pcm, err := tts.Synthesize(ctx, p, "Hello there.", voice)
package coqui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/MrWong99/dictsy/pkg/audio"
	"github.com/MrWong99/dictsy/pkg/provider/tts"
)

var _ tts.Provider = (*Provider)(nil)

const (
	providerName           = "coqui"
	defaultLanguage        = "en"
	defaultTimeout         = 30 * time.Second
	ttsEndpoint            = "/tts_to_audio/"
	studioSpeakersEndpoint = "/studio_speakers"
	apiTTSEndpoint         = "/api/tts"
	detailsEndpoint        = "/details"

	// sentenceLookaheadBuf bounds how many synthesis requests are in flight.
	sentenceLookaheadBuf = 4

	audioChanBuf = 256
	pcmChunkSize = 4096
)

// APIMode selects which Coqui server API the provider targets.
type APIMode string

const (
	// APIModeXTTS targets the Coqui XTTS v2 API server (/tts_to_audio/).
	APIModeXTTS APIMode = "xtts"

	// APIModeStandard targets the standard Coqui TTS server (/api/tts).
	APIModeStandard APIMode = "standard"
)

// Option is a functional option for configuring a Coqui Provider.
type Option func(*Provider)

// WithLanguage sets the language code sent to the server (e.g. "en").
// Defaults to "en".
func WithLanguage(lang string) Option {
	return func(p *Provider) {
		p.language = lang
	}
}

// WithLocale sets the BCP-47 tag reported on every listed voice.
// Defaults to the synthesis language.
func WithLocale(tag string) Option {
	return func(p *Provider) {
		p.locale = tag
	}
}

// WithTimeout sets the per-request HTTP timeout. Defaults to 30 s.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the HTTP client. The client's timeout is kept.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// WithAPIMode sets the server API mode.
func WithAPIMode(mode APIMode) Option {
	return func(p *Provider) {
		p.apiMode = mode
	}
}

// WithOutputSampleRate resamples synthesised PCM to rate. Zero (the default)
// emits PCM at the model's native rate.
func WithOutputSampleRate(rate int) Option {
	return func(p *Provider) {
		p.outputRate = rate
	}
}

// Provider implements tts.Provider backed by a Coqui TTS server.
// Multiple SynthesizeStream calls may run in parallel.
type Provider struct {
	serverURL  string
	language   string
	locale     string
	httpClient *http.Client
	apiMode    APIMode
	outputRate int
}

// New creates a Provider for the server at serverURL, which must be
// non-empty. The default API mode is APIModeStandard.
func New(serverURL string, opts ...Option) (*Provider, error) {
	if serverURL == "" {
		return nil, errors.New("coqui: serverURL must not be empty")
	}
	p := &Provider{
		serverURL:  strings.TrimRight(serverURL, "/"),
		language:   defaultLanguage,
		apiMode:    APIModeStandard,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	if p.locale == "" {
		p.locale = p.language
	}
	return p, nil
}

type ttsRequest struct {
	Text       string `json:"text"`
	SpeakerWav string `json:"speaker_wav"`
	Language   string `json:"language"`
}

type audioResult struct {
	pcm []byte
	err error
}

// studioSpeakersResponse maps speaker names to opaque descriptors.
type studioSpeakersResponse map[string]json.RawMessage

// detailsResponse is GET /details. Speakers is nil for single-speaker models.
type detailsResponse struct {
	ModelName string   `json:"model_name"`
	Language  string   `json:"language"`
	Speakers  []string `json:"speakers"`
}

// SynthesizeStream accumulates fragments from text into sentences (split on
// '.', '!' or '?' followed by whitespace or end of input) and synthesises
// each one with an HTTP request. PCM is emitted in sentence order.
func (p *Provider) SynthesizeStream(ctx context.Context, text <-chan string, voice tts.Voice) (<-chan []byte, error) {
	if voice.ID == "" && p.apiMode == APIModeXTTS {
		return nil, errors.New("coqui: voice.ID must not be empty (required for XTTS mode)")
	}

	audioCh := make(chan []byte, audioChanBuf)

	go func() {
		defer close(audioCh)

		sentences := make(chan string, sentenceLookaheadBuf)
		resultQueue := make(chan chan audioResult, sentenceLookaheadBuf)

		go p.accumulate(ctx, text, sentences)

		go func() {
			defer close(resultQueue)
			for {
				select {
				case sentence, ok := <-sentences:
					if !ok {
						return
					}
					ch := make(chan audioResult, 1)
					select {
					case resultQueue <- ch:
					case <-ctx.Done():
						return
					}
					go func(s string, out chan<- audioResult) {
						pcm, err := p.synthesize(ctx, s, voice)
						out <- audioResult{pcm: pcm, err: err}
					}(sentence, ch)
				case <-ctx.Done():
					return
				}
			}
		}()

		for {
			select {
			case ch, ok := <-resultQueue:
				if !ok {
					return
				}
				select {
				case result := <-ch:
					if result.err != nil {
						return
					}
					pcm := result.pcm
					for len(pcm) > 0 {
						end := min(pcmChunkSize, len(pcm))
						select {
						case audioCh <- pcm[:end]:
						case <-ctx.Done():
							return
						}
						pcm = pcm[end:]
					}
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return audioCh, nil
}

// accumulate reads fragments and emits complete sentences, flushing any
// remainder when text closes.
func (p *Provider) accumulate(ctx context.Context, text <-chan string, sentences chan<- string) {
	defer close(sentences)
	var buf strings.Builder
	for {
		select {
		case fragment, ok := <-text:
			if !ok {
				if remaining := strings.TrimSpace(buf.String()); remaining != "" {
					select {
					case sentences <- remaining:
					case <-ctx.Done():
					}
				}
				return
			}
			buf.WriteString(fragment)
			for {
				s := buf.String()
				idx := findSentenceBoundary(s)
				if idx < 0 {
					break
				}
				sentence := strings.TrimSpace(s[:idx+1])
				buf.Reset()
				buf.WriteString(s[idx+1:])
				if sentence == "" {
					continue
				}
				select {
				case sentences <- sentence:
				case <-ctx.Done():
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func (p *Provider) synthesize(ctx context.Context, sentence string, voice tts.Voice) ([]byte, error) {
	var (
		req *http.Request
		err error
	)
	if p.apiMode == APIModeStandard {
		req, err = p.standardRequest(ctx, sentence, voice)
	} else {
		req, err = p.xttsRequest(ctx, sentence, voice)
	}
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "audio/wav")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coqui: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coqui: %s %s returned status %d", req.Method, req.URL.Path, resp.StatusCode)
	}

	wav, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("coqui: read WAV response: %w", err)
	}

	info, err := audio.ParseWAV(wav)
	if err != nil {
		return nil, fmt.Errorf("coqui: %w", err)
	}

	pcm := wav[info.DataOffset:]
	if info.Channels == 2 {
		pcm = audio.StereoToMono(pcm)
	}
	if p.outputRate > 0 && info.SampleRate != p.outputRate {
		pcm = audio.ResampleMono16(pcm, info.SampleRate, p.outputRate)
	}
	return pcm, nil
}

func (p *Provider) xttsRequest(ctx context.Context, sentence string, voice tts.Voice) (*http.Request, error) {
	data, err := json.Marshal(ttsRequest{
		Text:       sentence,
		SpeakerWav: voice.ID,
		Language:   p.language,
	})
	if err != nil {
		return nil, fmt.Errorf("coqui: marshal tts request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.serverURL+ttsEndpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("coqui: create tts request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (p *Provider) standardRequest(ctx context.Context, sentence string, voice tts.Voice) (*http.Request, error) {
	params := url.Values{}
	params.Set("text", sentence)
	if voice.ID != "" && voice.Metadata["type"] != "single-speaker" {
		params.Set("speaker_id", voice.ID)
	}
	if p.language != "" {
		params.Set("language_id", p.language)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.serverURL+apiTTSEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("coqui: create tts request: %w", err)
	}
	return req, nil
}

// ListVoices retrieves the voice catalogue. In APIModeXTTS each studio
// speaker is a voice; in APIModeStandard each speaker of a multi-speaker
// model is a voice, and a single-speaker model yields one voice named after
// the model. Output is sorted by name.
func (p *Provider) ListVoices(ctx context.Context) ([]tts.Voice, error) {
	if p.apiMode == APIModeStandard {
		return p.listVoicesStandard(ctx)
	}
	return p.listVoicesXTTS(ctx)
}

func (p *Provider) getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.serverURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("coqui: create list-voices request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("coqui: GET %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("coqui: GET %s returned status %d", endpoint, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("coqui: decode %s: %w", endpoint, err)
	}
	return nil
}

func (p *Provider) listVoicesXTTS(ctx context.Context) ([]tts.Voice, error) {
	var raw studioSpeakersResponse
	if err := p.getJSON(ctx, studioSpeakersEndpoint, &raw); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	slices.Sort(names)

	voices := make([]tts.Voice, 0, len(names))
	for _, name := range names {
		voices = append(voices, p.voice(name, map[string]string{"type": "studio"}))
	}
	return voices, nil
}

func (p *Provider) listVoicesStandard(ctx context.Context) ([]tts.Voice, error) {
	var details detailsResponse
	if err := p.getJSON(ctx, detailsEndpoint, &details); err != nil {
		return nil, err
	}

	if len(details.Speakers) > 0 {
		speakers := slices.Clone(details.Speakers)
		slices.Sort(speakers)

		voices := make([]tts.Voice, 0, len(speakers))
		for _, spk := range speakers {
			voices = append(voices, p.voice(spk, map[string]string{
				"type":       "speaker",
				"model_name": details.ModelName,
			}))
		}
		return voices, nil
	}

	name := details.ModelName
	if name == "" {
		name = "default"
	}
	return []tts.Voice{p.voice(name, map[string]string{
		"type":       "single-speaker",
		"model_name": name,
	})}, nil
}

func (p *Provider) voice(name string, meta map[string]string) tts.Voice {
	return tts.Voice{
		ID:       name,
		Name:     name,
		Language: p.locale,
		Provider: providerName,
		Metadata: meta,
	}
}

// findSentenceBoundary returns the index of the first '.', '!' or '?' that
// ends s or is followed by whitespace, or -1. Abbreviations such as "3.14"
// are not boundaries.
func findSentenceBoundary(s string) int {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '.' || c == '!' || c == '?' {
			if i+1 >= len(s) || unicode.IsSpace(rune(s[i+1])) {
				return i
			}
		}
	}
	return -1
}
