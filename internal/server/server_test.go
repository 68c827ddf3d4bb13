package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/MrWong99/dictsy/internal/answer"
	"github.com/MrWong99/dictsy/internal/answer/hint"
	"github.com/MrWong99/dictsy/internal/observe"
	"github.com/MrWong99/dictsy/internal/problem"
	"github.com/MrWong99/dictsy/internal/server"
	"github.com/MrWong99/dictsy/internal/speech"
	"github.com/MrWong99/dictsy/pkg/audio"
	"github.com/MrWong99/dictsy/pkg/provider/tts"
	ttsmock "github.com/MrWong99/dictsy/pkg/provider/tts/mock"
)

var problems = []problem.Problem{
	{ID: 1, Text: "I'm fine, thank you."},
	{ID: 2, Text: "Where is the station?"},
	{ID: 3, Text: "She sells sea shells."},
}

func testMetrics(t *testing.T) *observe.Metrics {
	t.Helper()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func newServer(t *testing.T, cfg server.Config) *httptest.Server {
	t.Helper()
	if cfg.Metrics == nil {
		cfg.Metrics = testMetrics(t)
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.NewRegistry()
	}
	ts := httptest.NewServer(server.New(cfg).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func newSpeaker(t *testing.T, p tts.Provider) *speech.Speaker {
	t.Helper()
	s := speech.New(p, speech.WithMetrics(testMetrics(t)))
	if p != nil {
		if err := s.Refresh(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

type problemBody struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

type checkBody struct {
	Correct             bool        `json:"correct"`
	Verdict             string      `json:"verdict"`
	Reference           string      `json:"reference"`
	NormalizedAnswer    string      `json:"normalized_answer"`
	NormalizedReference string      `json:"normalized_reference"`
	Hints               []hint.Hint `json:"hints"`
}

func TestNext(t *testing.T) {
	t.Parallel()
	ts := newServer(t, server.Config{Problems: problem.NewPicker(problems)})

	for range 30 {
		resp := do(t, ts, http.MethodGet, "/api/problems/next?exclude=2", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		p := decodeBody[problemBody](t, resp)
		if p.ID == 2 {
			t.Fatal("excluded problem returned")
		}
		if p.Text == "" {
			t.Fatalf("empty text for %d", p.ID)
		}
	}

	if resp := do(t, ts, http.MethodGet, "/api/problems/next", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("without exclude status = %d", resp.StatusCode)
	}
	if resp := do(t, ts, http.MethodGet, "/api/problems/next?exclude=abc", ""); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad exclude status = %d", resp.StatusCode)
	}
}

func TestNext_SingleProblemIgnoresExclude(t *testing.T) {
	t.Parallel()
	ts := newServer(t, server.Config{Problems: problem.NewPicker(problems[:1])})
	p := decodeBody[problemBody](t, do(t, ts, http.MethodGet, "/api/problems/next?exclude=1", ""))
	if p.ID != 1 {
		t.Errorf("id = %d, want 1", p.ID)
	}
}

func TestLoadingState(t *testing.T) {
	t.Parallel()
	srv := server.New(server.Config{Metrics: testMetrics(t), Gatherer: prometheus.NewRegistry()})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	if resp := do(t, ts, http.MethodGet, "/api/problems/next", ""); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("next while loading status = %d", resp.StatusCode)
	}
	if resp := do(t, ts, http.MethodPost, "/api/check", `{"problem_id":1,"answer":"x"}`); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("check while loading status = %d", resp.StatusCode)
	}
	if resp := do(t, ts, http.MethodGet, "/readyz", ""); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("readyz while loading status = %d", resp.StatusCode)
	}

	srv.SetProblems(problem.NewPicker(problems))
	if resp := do(t, ts, http.MethodGet, "/api/problems/next", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("next after load status = %d", resp.StatusCode)
	}
}

func TestCheck(t *testing.T) {
	t.Parallel()
	ts := newServer(t, server.Config{Problems: problem.NewPicker(problems), Hints: hint.New()})

	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantVerdict string
		wantHints   bool
	}{
		{"correct ignoring punctuation", `{"problem_id":2,"answer":"where is the STATION"}`, 200, "correct", false},
		{"incorrect with hints", `{"problem_id":3,"answer":"she sells see shells"}`, 200, "incorrect", true},
		{"empty answer", `{"problem_id":2,"answer":""}`, 200, "incorrect", true},
		{"unknown problem", `{"problem_id":99,"answer":"x"}`, 404, "", false},
		{"bad json", `{"problem_id":`, 400, "", false},
		{"unknown field", `{"problem_id":1,"answer":"x","extra":true}`, 400, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			resp := do(t, ts, http.MethodPost, "/api/check", tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			got := decodeBody[checkBody](t, resp)
			if got.Verdict != tt.wantVerdict || got.Correct != (tt.wantVerdict == "correct") {
				t.Errorf("verdict = %q correct = %v", got.Verdict, got.Correct)
			}
			if (len(got.Hints) > 0) != tt.wantHints {
				t.Errorf("hints = %+v", got.Hints)
			}
			if got.Reference == "" || got.NormalizedReference == "" {
				t.Errorf("reference missing: %+v", got)
			}
		})
	}
}

func TestCheck_SoundsLikeHint(t *testing.T) {
	t.Parallel()
	ts := newServer(t, server.Config{Problems: problem.NewPicker(problems), Hints: hint.New()})
	got := decodeBody[checkBody](t, do(t, ts, http.MethodPost, "/api/check", `{"problem_id":3,"answer":"She sells sea shels."}`))
	if len(got.Hints) != 1 || got.Hints[0].Got != "shels" || got.Hints[0].Want != "shells" {
		t.Errorf("hints = %+v", got.Hints)
	}
}

func TestCheck_HotSwapNormalizer(t *testing.T) {
	t.Parallel()
	srv := server.New(server.Config{
		Problems: problem.NewPicker(problems),
		Metrics:  testMetrics(t),
		Gatherer: prometheus.NewRegistry(),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	body := `{"problem_id":1,"answer":"I am fine thank you"}`
	if got := decodeBody[checkBody](t, do(t, ts, http.MethodPost, "/api/check", body)); got.Correct {
		t.Fatal("exact mode accepted expanded contraction")
	}
	if got := decodeBody[checkBody](t, do(t, ts, http.MethodPost, "/api/check", body)); len(got.Hints) != 0 {
		t.Errorf("hints returned while disabled: %+v", got.Hints)
	}

	srv.SetAnswer(answer.New(answer.WithContractionFolding(true)), nil)
	if got := decodeBody[checkBody](t, do(t, ts, http.MethodPost, "/api/check", body)); !got.Correct {
		t.Error("folding mode rejected expanded contraction")
	}
}

func TestVoices(t *testing.T) {
	t.Parallel()
	p := &ttsmock.Provider{ListVoicesResult: []tts.Voice{
		{ID: "a", Name: "Alex", Language: "en-US"},
		{ID: "s", Name: "Samantha", Language: "en-US"},
		{ID: "d", Name: "Daniel", Language: "en-GB"},
	}}
	ts := newServer(t, server.Config{Problems: problem.NewPicker(problems), Speaker: newSpeaker(t, p)})

	type voicesBody struct {
		Voices []struct {
			ID, Name, Language string
		} `json:"voices"`
		Selected string `json:"selected"`
	}
	got := decodeBody[voicesBody](t, do(t, ts, http.MethodGet, "/api/voices", ""))
	if len(got.Voices) != 2 || got.Selected != "Samantha" {
		t.Errorf("voices = %+v", got)
	}

	empty := newServer(t, server.Config{})
	got = decodeBody[voicesBody](t, do(t, empty, http.MethodGet, "/api/voices", ""))
	if got.Voices == nil || len(got.Voices) != 0 || got.Selected != "" {
		t.Errorf("no speaker voices = %+v", got)
	}
}

func TestSpeak(t *testing.T) {
	t.Parallel()
	p := &ttsmock.Provider{
		ListVoicesResult: []tts.Voice{{ID: "s", Name: "Samantha", Language: "en-US"}},
		SynthesizeChunks: [][]byte{{1, 0}, {2, 0}},
	}
	ts := newServer(t, server.Config{Problems: problem.NewPicker(problems), Speaker: newSpeaker(t, p)})

	resp := do(t, ts, http.MethodPost, "/api/speak", `{"problem_id":2}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "audio/wav" {
		t.Errorf("content-type = %q", ct)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	info, err := audio.ParseWAV(data)
	if err != nil {
		t.Fatalf("ParseWAV: %v", err)
	}
	if info.SampleRate != 16000 || !bytes.Equal(data[info.DataOffset:], []byte{1, 0, 2, 0}) {
		t.Errorf("wav = %+v", info)
	}
	if calls := p.Calls(); len(calls) != 1 || calls[0].Text[0] != "Where is the station?" {
		t.Errorf("calls = %+v", calls)
	}

	if resp := do(t, ts, http.MethodPost, "/api/speak", `{"problem_id":2,"voice":"Bob"}`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown voice status = %d", resp.StatusCode)
	}
	if resp := do(t, ts, http.MethodPost, "/api/speak", `{"problem_id":42}`); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown problem status = %d", resp.StatusCode)
	}
}

func TestSpeak_Unavailable(t *testing.T) {
	t.Parallel()
	noSpeaker := newServer(t, server.Config{Problems: problem.NewPicker(problems)})
	if resp := do(t, noSpeaker, http.MethodPost, "/api/speak", `{"problem_id":1}`); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("no speaker status = %d", resp.StatusCode)
	}

	failing := &ttsmock.Provider{
		ListVoicesResult: []tts.Voice{{ID: "s", Name: "Samantha", Language: "en-US"}},
		SynthesizeErr:    errors.New("backend down"),
	}
	ts := newServer(t, server.Config{Problems: problem.NewPicker(problems), Speaker: newSpeaker(t, failing)})
	if resp := do(t, ts, http.MethodPost, "/api/speak", `{"problem_id":1}`); resp.StatusCode != http.StatusBadGateway {
		t.Errorf("failing provider status = %d", resp.StatusCode)
	}
}

func TestProbesAndMetrics(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "dictsy_test_total", Help: "test"}))
	ts := newServer(t, server.Config{Problems: problem.NewPicker(problems), Gatherer: reg})

	if resp := do(t, ts, http.MethodGet, "/healthz", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}

	resp := do(t, ts, http.MethodGet, "/readyz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("readyz status = %d", resp.StatusCode)
	}
	type readyBody struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	ready := decodeBody[readyBody](t, resp)
	if ready.Status != "degraded" || ready.Checks["problems"] != "ok" {
		t.Errorf("readyz = %+v", ready)
	}

	resp = do(t, ts, http.MethodGet, "/metrics", "")
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "dictsy_test_total") {
		t.Errorf("metrics status = %d body = %s", resp.StatusCode, body)
	}
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	t.Parallel()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	srv := server.New(server.Config{
		Problems: problem.NewPicker(problems),
		Metrics:  testMetrics(t),
		Gatherer: prometheus.NewRegistry(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/healthz"
	var resp *http.Response
	for range 50 {
		resp, err = http.Get(url)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never answered: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
