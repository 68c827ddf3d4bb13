// Package elevenlabs provides an ElevenLabs-backed TTS provider using the
// ElevenLabs streaming WebSocket API. It implements the tts.Provider interface.
//
// Voices are tagged with a BCP-47 locale taken from the voice's verified
// languages when present, or derived from its accent label otherwise
// ("american" is en-US, "british" is en-GB).
package elevenlabs

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"strings"

	"github.com/coder/websocket"

	"github.com/MrWong99/dictsy/pkg/provider/tts"
)

var _ tts.Provider = (*Provider)(nil)

const (
	providerName     = "elevenlabs"
	defaultAPIURL    = "https://api.elevenlabs.io"
	defaultWSURL     = "wss://api.elevenlabs.io"
	defaultModel     = "eleven_flash_v2_5"
	defaultOutputFmt = "pcm_16000"
)

// Option is a functional option for configuring the ElevenLabs Provider.
type Option func(*Provider)

// WithModel sets the ElevenLabs model ID (e.g., "eleven_flash_v2_5").
func WithModel(model string) Option {
	return func(p *Provider) {
		p.model = model
	}
}

// WithOutputFormat sets the audio output format (e.g., "pcm_16000", "pcm_24000").
func WithOutputFormat(format string) Option {
	return func(p *Provider) {
		p.outputFormat = format
	}
}

// WithBaseURL overrides the REST and WebSocket endpoints. The WebSocket URL
// is derived from baseURL by switching the scheme to ws or wss.
func WithBaseURL(baseURL string) Option {
	return func(p *Provider) {
		baseURL = strings.TrimRight(baseURL, "/")
		p.apiURL = baseURL
		switch {
		case strings.HasPrefix(baseURL, "https://"):
			p.wsURL = "wss://" + strings.TrimPrefix(baseURL, "https://")
		case strings.HasPrefix(baseURL, "http://"):
			p.wsURL = "ws://" + strings.TrimPrefix(baseURL, "http://")
		default:
			p.wsURL = baseURL
		}
	}
}

// WithHTTPClient sets the client used for REST calls.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// Provider implements tts.Provider backed by the ElevenLabs streaming API.
type Provider struct {
	apiKey       string
	model        string
	outputFormat string
	apiURL       string
	wsURL        string
	httpClient   *http.Client
}

// New creates a new ElevenLabs Provider. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("elevenlabs: apiKey must not be empty")
	}
	p := &Provider{
		apiKey:       apiKey,
		model:        defaultModel,
		outputFormat: defaultOutputFmt,
		apiURL:       defaultAPIURL,
		wsURL:        defaultWSURL,
		httpClient:   &http.Client{},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// ---- WebSocket message types ----

type textMessage struct {
	Text          string         `json:"text"`
	VoiceSettings *voiceSettings `json:"voice_settings,omitempty"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// audioResponse is one message received over the WebSocket.
type audioResponse struct {
	Audio   string `json:"audio"` // base64-encoded PCM
	IsFinal bool   `json:"isFinal"`
	Message string `json:"message,omitempty"`
}

// boiMessage opens the stream ("beginning of input") and authenticates it.
type boiMessage struct {
	Text          string         `json:"text"`
	VoiceSettings *voiceSettings `json:"voice_settings,omitempty"`
	XiAPIKey      string         `json:"xi_api_key"`
}

var defaultVoiceSettings = voiceSettings{Stability: 0.5, SimilarityBoost: 0.75}

// SynthesizeStream opens a WebSocket to ElevenLabs, pipes text fragments
// from text and returns a channel emitting raw PCM chunks. The channel is
// closed when the server marks the stream final, the connection ends or ctx
// is cancelled.
func (p *Provider) SynthesizeStream(ctx context.Context, text <-chan string, voice tts.Voice) (<-chan []byte, error) {
	if voice.ID == "" {
		return nil, errors.New("elevenlabs: voice.ID must not be empty")
	}

	conn, _, err := websocket.Dial(ctx, p.streamURL(voice.ID), nil)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: dial: %w", err)
	}

	// ElevenLabs requires a single space as the first text value.
	vs := defaultVoiceSettings
	boi, _ := json.Marshal(boiMessage{Text: " ", VoiceSettings: &vs, XiAPIKey: p.apiKey})
	if err := conn.Write(ctx, websocket.MessageText, boi); err != nil {
		conn.Close(websocket.StatusInternalError, "failed to send BOI")
		return nil, fmt.Errorf("elevenlabs: send BOI: %w", err)
	}

	audioCh := make(chan []byte, 256)

	go func() {
		defer close(audioCh)
		defer conn.Close(websocket.StatusNormalClosure, "done")

		readDone := make(chan struct{})
		go func() {
			defer close(readDone)
			for {
				_, msg, err := conn.Read(ctx)
				if err != nil {
					return
				}
				var resp audioResponse
				if err := json.Unmarshal(msg, &resp); err != nil {
					continue
				}
				if resp.Audio != "" {
					pcm, err := base64.StdEncoding.DecodeString(resp.Audio)
					if err == nil {
						select {
						case audioCh <- pcm:
						case <-ctx.Done():
							return
						}
					}
				}
				if resp.IsFinal {
					return
				}
			}
		}()

		for {
			select {
			case fragment, ok := <-text:
				if !ok {
					// An empty text message flushes and ends the stream.
					flush, _ := buildWSMessage("", nil)
					_ = conn.Write(ctx, websocket.MessageText, flush)
					<-readDone
					return
				}
				if fragment == "" {
					continue
				}
				// ElevenLabs buffers until it sees a trailing space.
				if !strings.HasSuffix(fragment, " ") {
					fragment += " "
				}
				msg, _ := buildWSMessage(fragment, nil)
				if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
					return
				}
			case <-readDone:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return audioCh, nil
}

func (p *Provider) streamURL(voiceID string) string {
	q := url.Values{}
	q.Set("model_id", p.model)
	q.Set("output_format", p.outputFormat)
	return fmt.Sprintf("%s/v1/text-to-speech/%s/stream-input?%s", p.wsURL, url.PathEscape(voiceID), q.Encode())
}

// ---- ListVoices ----

type voicesResponse struct {
	Voices []elevenLabsVoice `json:"voices"`
}

type elevenLabsVoice struct {
	VoiceID           string             `json:"voice_id"`
	Name              string             `json:"name"`
	Category          string             `json:"category"`
	Labels            map[string]string  `json:"labels"`
	VerifiedLanguages []verifiedLanguage `json:"verified_languages"`
}

type verifiedLanguage struct {
	Language string `json:"language"`
	Locale   string `json:"locale"`
}

// ListVoices returns all voices available for the configured API key.
func (p *Provider) ListVoices(ctx context.Context) ([]tts.Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiURL+"/v1/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: list voices: %w", err)
	}
	req.Header.Set("xi-api-key", p.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: list voices HTTP: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("elevenlabs: list voices: unexpected status %d", resp.StatusCode)
	}

	var vr voicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, fmt.Errorf("elevenlabs: list voices decode: %w", err)
	}
	return toVoices(vr), nil
}

// ---- helpers ----

func buildWSMessage(text string, vs *voiceSettings) ([]byte, error) {
	return json.Marshal(textMessage{Text: text, VoiceSettings: vs})
}

func parseVoicesResponse(data []byte) ([]tts.Voice, error) {
	var vr voicesResponse
	if err := json.Unmarshal(data, &vr); err != nil {
		return nil, err
	}
	return toVoices(vr), nil
}

func toVoices(vr voicesResponse) []tts.Voice {
	voices := make([]tts.Voice, 0, len(vr.Voices))
	for _, v := range vr.Voices {
		meta := make(map[string]string, len(v.Labels)+1)
		maps.Copy(meta, v.Labels)
		if v.Category != "" {
			meta["category"] = v.Category
		}
		voices = append(voices, tts.Voice{
			ID:       v.VoiceID,
			Name:     v.Name,
			Language: localeOf(v),
			Provider: providerName,
			Metadata: meta,
		})
	}
	return voices
}

var accentLocales = map[string]string{
	"american":   "en-US",
	"british":    "en-GB",
	"australian": "en-AU",
	"irish":      "en-IE",
	"indian":     "en-IN",
}

func localeOf(v elevenLabsVoice) string {
	for _, l := range v.VerifiedLanguages {
		if l.Locale != "" {
			return l.Locale
		}
	}
	if loc, ok := accentLocales[strings.ToLower(v.Labels["accent"])]; ok {
		return loc
	}
	if lang := v.Labels["language"]; lang != "" {
		return lang
	}
	return ""
}
