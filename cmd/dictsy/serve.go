package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/dictsy/internal/config"
	"github.com/MrWong99/dictsy/internal/observe"
	"github.com/MrWong99/dictsy/internal/problem"
	"github.com/MrWong99/dictsy/internal/server"
)

const (
	telemetryShutdownTimeout = 5 * time.Second
	problemRetryInterval     = 10 * time.Second
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dictation HTTP API",
		Long: `Serve exposes problems, answer checking and speech synthesis over
HTTP, together with /healthz, /readyz and Prometheus /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts.configPath, listen, cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address, overriding server.listen_addr")
	return cmd
}

func runServe(ctx context.Context, configPath, listen string, stderr io.Writer) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if listen != "" {
		cfg.Server.ListenAddr = listen
	}

	level := new(slog.LevelVar)
	level.Set(cfg.Server.LogLevel.Slog())
	slog.SetDefault(newLogger(stderr, level))
	slog.Info("dictsy starting", "mode", "serve", "version", version, "config", configPath)

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "dictsy",
		ServiceVersion: version,
		Registerer:     promReg,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	reg := config.NewRegistry()
	registerBuiltins(reg)
	speaker, err := buildSpeaker(cfg, reg, metrics, false)
	if err != nil {
		return err
	}

	normalizer, hints := answerSettings(cfg.Answer)
	srvCfg := server.Config{
		ListenAddr: cfg.Server.ListenAddr,
		Normalizer: normalizer,
		Hints:      hints,
		Speaker:    speaker,
		Metrics:    metrics,
		Gatherer:   promReg,
	}
	if tls := cfg.Server.TLS; tls != nil {
		srvCfg.CertFile, srvCfg.KeyFile = tls.CertFile, tls.KeyFile
	}
	srv := server.New(srvCfg)

	printStartupSummary(stderr, cfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		return speaker.Watch(gctx)
	})
	g.Go(func() error {
		loadProblemsUntilReady(gctx, srv, cfg.Problems.Source)
		return nil
	})
	if fileExists(configPath) {
		watcher, err := config.NewWatcher(configPath, func(_, newCfg *config.Config, diff config.ConfigDiff) {
			if diff.LogLevelChanged {
				level.Set(diff.NewLogLevel.Slog())
				slog.Info("log level changed", "level", diff.NewLogLevel)
			}
			if diff.AnswerChanged {
				srv.SetAnswer(answerSettings(diff.NewAnswer))
				slog.Info("answer settings changed", "fold_contractions", diff.NewAnswer.FoldContractions)
			}
			if diff.ProblemsChanged {
				if err := reloadProblems(gctx, srv, newCfg.Problems.Source); err != nil {
					slog.Error("problem reload failed, keeping previous list", "source", newCfg.Problems.Source, "err", err)
				}
			}
			if diff.VoiceChanged {
				slog.Info("voice settings change takes effect after restart")
			}
		})
		if err != nil {
			return err
		}
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}

	slog.Info("server ready, press Ctrl+C to shut down", "addr", cfg.Server.ListenAddr)
	err = g.Wait()
	slog.Info("goodbye")
	return err
}

// reloadProblems loads source and swaps it into srv.
func reloadProblems(ctx context.Context, srv *server.Server, source string) error {
	problems, err := problem.Load(ctx, source)
	if err != nil {
		return err
	}
	srv.SetProblems(problem.NewPicker(problems))
	slog.Info("problems loaded", "source", sourceLabel(source), "count", len(problems))
	return nil
}

// loadProblemsUntilReady retries the initial load until it succeeds or ctx
// ends. The API answers 503 in the meantime.
func loadProblemsUntilReady(ctx context.Context, srv *server.Server, source string) {
	ticker := time.NewTicker(problemRetryInterval)
	defer ticker.Stop()
	for {
		err := reloadProblems(ctx, srv, source)
		if err == nil {
			return
		}
		slog.Warn("problem load failed, retrying", "source", sourceLabel(source), "err", err, "retry_in", problemRetryInterval)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func sourceLabel(source string) string {
	if source == "" {
		return "(embedded)"
	}
	return source
}

func printStartupSummary(w io.Writer, cfg *config.Config) {
	tts := cfg.Providers.TTS.Name
	if tts == "" {
		tts = "(none)"
	} else if n := len(cfg.Providers.TTSFallbacks); n > 0 {
		tts = fmt.Sprintf("%s +%d", tts, n)
	}
	mode := "exact"
	if cfg.Answer.FoldContractions {
		mode = "fold contractions"
	}
	fmt.Fprintln(w, "╔═══════════════════════════════════════╗")
	fmt.Fprintln(w, "║        Dictsy: startup summary        ║")
	fmt.Fprintln(w, "╠═══════════════════════════════════════╣")
	fmt.Fprintf(w, "║  Listen addr     : %-19s ║\n", cfg.Server.ListenAddr)
	fmt.Fprintf(w, "║  Problems        : %-19s ║\n", truncate(sourceLabel(cfg.Problems.Source), 19))
	fmt.Fprintf(w, "║  TTS             : %-19s ║\n", truncate(tts, 19))
	fmt.Fprintf(w, "║  Locale          : %-19s ║\n", cfg.Speech.Locale)
	fmt.Fprintf(w, "║  Judging         : %-19s ║\n", mode)
	fmt.Fprintln(w, "╚═══════════════════════════════════════╝")
	if cfg.Server.TLS == nil {
		fmt.Fprintln(w, "TLS disabled; serving plain HTTP")
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
