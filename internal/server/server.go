// Package server exposes dictation practice over an HTTP JSON API.
//
// The API is stateless: the client keeps its own session and sends the
// problem id with every answer. Routes:
//
//	GET  /api/problems/next?exclude={id}  next problem, never the excluded one
//	POST /api/check                       judge an answer
//	GET  /api/voices                      locale-filtered voice catalogue
//	POST /api/speak                       synthesise a problem as audio/wav
//	GET  /healthz, /readyz                probes
//	GET  /metrics                         Prometheus scrape endpoint
//
// Every route is wrapped by [observe.Middleware].
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrWong99/dictsy/internal/answer"
	"github.com/MrWong99/dictsy/internal/answer/hint"
	"github.com/MrWong99/dictsy/internal/health"
	"github.com/MrWong99/dictsy/internal/observe"
	"github.com/MrWong99/dictsy/internal/problem"
	"github.com/MrWong99/dictsy/internal/speech"
)

const shutdownTimeout = 15 * time.Second

// Config configures a [Server].
type Config struct {
	// ListenAddr is the TCP address for [Server.Run].
	ListenAddr string

	// CertFile and KeyFile enable HTTPS when both are set.
	CertFile string
	KeyFile  string

	// Problems is the problem list. Nil means still loading: problem routes
	// answer 503 until [Server.SetProblems] is called.
	Problems *problem.Picker

	// Normalizer judges answers. Default: exact mode.
	Normalizer *answer.Normalizer

	// Hints explains incorrect answers. Nil disables hints.
	Hints *hint.Matcher

	// Speaker provides voices and synthesis. Nil disables /api/speak.
	Speaker *speech.Speaker

	// Metrics records API activity. Default [observe.DefaultMetrics].
	Metrics *observe.Metrics

	// Gatherer is served on /metrics. Default prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// Server serves the dictation API. Problems and answer settings can be
// swapped while it runs.
type Server struct {
	addr     string
	certFile string
	keyFile  string
	speaker  *speech.Speaker
	metrics  *observe.Metrics
	gatherer prometheus.Gatherer
	health   *health.Handler

	picker     atomic.Pointer[problem.Picker]
	normalizer atomic.Pointer[answer.Normalizer]
	hints      atomic.Pointer[hint.Matcher]
}

// New returns a Server for cfg.
func New(cfg Config) *Server {
	s := &Server{
		addr:     cfg.ListenAddr,
		certFile: cfg.CertFile,
		keyFile:  cfg.KeyFile,
		speaker:  cfg.Speaker,
		metrics:  cfg.Metrics,
		gatherer: cfg.Gatherer,
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	if cfg.Problems != nil {
		s.picker.Store(cfg.Problems)
	}
	s.SetAnswer(cfg.Normalizer, cfg.Hints)

	s.health = health.New(
		health.Checker{Name: "problems", Check: s.checkProblems},
		health.Checker{Name: "speech", Check: s.checkSpeech, Optional: true},
	)
	return s
}

// SetProblems replaces the problem list.
func (s *Server) SetProblems(p *problem.Picker) {
	s.picker.Store(p)
}

// SetAnswer replaces the normalizer and hint matcher. A nil normalizer
// selects exact mode; a nil matcher disables hints.
func (s *Server) SetAnswer(n *answer.Normalizer, m *hint.Matcher) {
	if n == nil {
		n = answer.New()
	}
	s.normalizer.Store(n)
	s.hints.Store(m)
}

// Handler returns the instrumented API handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/problems/next", s.handleNext)
	mux.HandleFunc("POST /api/check", s.handleCheck)
	mux.HandleFunc("GET /api/voices", s.handleVoices)
	mux.HandleFunc("POST /api/speak", s.handleSpeak)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	s.health.Register(mux)
	return observe.Middleware(s.metrics)(mux)
}

// Run listens on the configured address and serves until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled. ln is closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		tls := s.certFile != "" && s.keyFile != ""
		slog.Info("http api listening", "addr", ln.Addr().String(), "tls", tls)
		if tls {
			errCh <- srv.ServeTLS(ln, s.certFile, s.keyFile)
		} else {
			errCh <- srv.Serve(ln)
		}
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	slog.Info("http api stopped")
	return nil
}

func (s *Server) checkProblems(context.Context) error {
	p := s.picker.Load()
	if p == nil || p.Len() == 0 {
		return errors.New("problems not loaded")
	}
	return nil
}

func (s *Server) checkSpeech(context.Context) error {
	switch {
	case s.speaker == nil || !s.speaker.Available():
		return speech.ErrNoProvider
	case len(s.speaker.Voices()) == 0:
		return fmt.Errorf("no %s voices available", s.speaker.Locale())
	}
	return nil
}
