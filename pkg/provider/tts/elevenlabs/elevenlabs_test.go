package elevenlabs

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/MrWong99/dictsy/pkg/provider/tts"
)

// ---- WebSocket message construction ----

func TestBuildWSMessage(t *testing.T) {
	t.Run("with voice settings", func(t *testing.T) {
		data, err := buildWSMessage("Hello there", &voiceSettings{Stability: 0.5, SimilarityBoost: 0.75})
		if err != nil {
			t.Fatalf("buildWSMessage: %v", err)
		}
		var msg textMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if msg.Text != "Hello there" || msg.VoiceSettings == nil || msg.VoiceSettings.SimilarityBoost != 0.75 {
			t.Errorf("msg = %+v", msg)
		}
	})

	t.Run("flush command", func(t *testing.T) {
		data, err := buildWSMessage("", nil)
		if err != nil {
			t.Fatalf("buildWSMessage: %v", err)
		}
		if string(data) != `{"text":""}` {
			t.Errorf("flush = %s, want {\"text\":\"\"}", data)
		}
	})
}

func TestStreamURL(t *testing.T) {
	p, _ := New("key", WithModel("eleven_turbo_v2"), WithOutputFormat("pcm_24000"))
	got := p.streamURL("voice 1")
	want := "wss://api.elevenlabs.io/v1/text-to-speech/voice%201/stream-input?model_id=eleven_turbo_v2&output_format=pcm_24000"
	if got != want {
		t.Errorf("streamURL = %q, want %q", got, want)
	}
}

// ---- voice catalogue ----

func TestParseVoicesResponse(t *testing.T) {
	raw := `{"voices":[
		{"voice_id":"v1","name":"Rachel","category":"premade","labels":{"accent":"american","gender":"female"}},
		{"voice_id":"v2","name":"George","labels":{"accent":"British"}},
		{"voice_id":"v3","name":"Lily","verified_languages":[{"language":"en","locale":"en-AU"}],"labels":{"accent":"british"}},
		{"voice_id":"v4","name":"Plain"}
	]}`
	voices, err := parseVoicesResponse([]byte(raw))
	if err != nil {
		t.Fatalf("parseVoicesResponse: %v", err)
	}

	wantLang := map[string]string{"v1": "en-US", "v2": "en-GB", "v3": "en-AU", "v4": ""}
	if len(voices) != len(wantLang) {
		t.Fatalf("got %d voices, want %d", len(voices), len(wantLang))
	}
	for _, v := range voices {
		if v.Language != wantLang[v.ID] {
			t.Errorf("voice %s Language = %q, want %q", v.ID, v.Language, wantLang[v.ID])
		}
		if v.Provider != "elevenlabs" {
			t.Errorf("voice %s Provider = %q", v.ID, v.Provider)
		}
	}
	if voices[0].Metadata["category"] != "premade" || voices[0].Metadata["gender"] != "female" {
		t.Errorf("voices[0].Metadata = %v", voices[0].Metadata)
	}
	if voices[0].Label() != "Rachel (en-US)" {
		t.Errorf("Label = %q", voices[0].Label())
	}
}

func TestParseVoicesResponse_InvalidJSON(t *testing.T) {
	if _, err := parseVoicesResponse([]byte("{")); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestListVoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/voices" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("xi-api-key") != "secret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"voices":[{"voice_id":"v1","name":"Rachel","labels":{"accent":"american"}}]}`))
	}))
	defer srv.Close()

	p, _ := New("secret", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	voices, err := p.ListVoices(context.Background())
	if err != nil {
		t.Fatalf("ListVoices: %v", err)
	}
	if len(voices) != 1 || voices[0].Name != "Rachel" || voices[0].Language != "en-US" {
		t.Errorf("voices = %+v", voices)
	}

	bad, _ := New("wrong", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	if _, err := bad.ListVoices(context.Background()); err == nil || !strings.Contains(err.Error(), "status 401") {
		t.Errorf("err = %v, want status 401", err)
	}
}

// ---- streaming ----

func TestSynthesizeStream(t *testing.T) {
	type seen struct {
		path, query string
		boi         boiMessage
		texts       []string
	}
	got := make(chan seen, 1)

	pcm1 := []byte{1, 2, 3, 4}
	pcm2 := []byte{5, 6}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		ctx := r.Context()

		s := seen{path: r.URL.Path, query: r.URL.RawQuery}
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		_ = json.Unmarshal(data, &s.boi)
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			var msg textMessage
			_ = json.Unmarshal(data, &msg)
			if msg.Text == "" {
				break
			}
			s.texts = append(s.texts, msg.Text)
		}
		got <- s

		for _, chunk := range [][]byte{pcm1, pcm2} {
			out, _ := json.Marshal(audioResponse{Audio: base64.StdEncoding.EncodeToString(chunk)})
			_ = conn.Write(ctx, websocket.MessageText, out)
		}
		final, _ := json.Marshal(audioResponse{IsFinal: true})
		_ = conn.Write(ctx, websocket.MessageText, final)
	}))
	defer srv.Close()

	p, err := New("secret", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pcm, err := tts.Synthesize(ctx, p, "Hello there.", tts.Voice{ID: "rachel"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if want := append(append([]byte{}, pcm1...), pcm2...); string(pcm) != string(want) {
		t.Errorf("pcm = %v, want %v", pcm, want)
	}

	s := <-got
	if s.path != "/v1/text-to-speech/rachel/stream-input" {
		t.Errorf("path = %q", s.path)
	}
	if !strings.Contains(s.query, "output_format=pcm_16000") || !strings.Contains(s.query, "model_id="+defaultModel) {
		t.Errorf("query = %q", s.query)
	}
	if s.boi.XiAPIKey != "secret" || s.boi.Text != " " {
		t.Errorf("BOI = %+v", s.boi)
	}
	if len(s.texts) != 1 || s.texts[0] != "Hello there. " {
		t.Errorf("texts = %q, want [\"Hello there. \"]", s.texts)
	}
}

func TestSynthesizeStream_EmptyVoiceID(t *testing.T) {
	p, _ := New("key")
	if _, err := p.SynthesizeStream(context.Background(), make(chan string), tts.Voice{}); err == nil {
		t.Fatal("expected error for empty voice ID")
	}
}

func TestSynthesizeStream_DialError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	p, _ := New("key", WithBaseURL(srv.URL))
	_, err := p.SynthesizeStream(context.Background(), make(chan string), tts.Voice{ID: "v"})
	if err == nil || !strings.Contains(err.Error(), "elevenlabs: dial") {
		t.Errorf("err = %v, want dial error", err)
	}
}

// ---- construction ----

func TestNew(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty API key")
	}

	p, err := New("key")
	if err != nil {
		t.Fatal(err)
	}
	if p.model != defaultModel || p.outputFormat != defaultOutputFmt {
		t.Errorf("defaults = %q/%q", p.model, p.outputFormat)
	}

	p, _ = New("key", WithBaseURL("https://eu.example.com/"))
	if p.apiURL != "https://eu.example.com" || p.wsURL != "wss://eu.example.com" {
		t.Errorf("apiURL/wsURL = %q/%q", p.apiURL, p.wsURL)
	}
}
