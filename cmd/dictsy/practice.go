package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/dictsy/internal/config"
	"github.com/MrWong99/dictsy/internal/observe"
	"github.com/MrWong99/dictsy/internal/problem"
	"github.com/MrWong99/dictsy/internal/tui"
)

func newPracticeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "practice",
		Short: "Open the practice screen (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPractice(cmd.Context(), opts.configPath)
		},
	}
}

func runPractice(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	// The screen owns the terminal, so logs go to a file.
	logFile, err := os.OpenFile(cfg.Server.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	level := new(slog.LevelVar)
	level.Set(cfg.Server.LogLevel.Slog())
	slog.SetDefault(newLogger(logFile, level))
	slog.Info("dictsy starting", "mode", "practice", "version", version, "config", configPath)

	metrics := observe.DefaultMetrics()
	reg := config.NewRegistry()
	registerBuiltins(reg)
	speaker, err := buildSpeaker(cfg, reg, metrics, true)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	normalizer, hints := answerSettings(cfg.Answer)
	source := cfg.Problems.Source
	prog := tui.NewProgram(ctx, tui.Config{
		Load: func(ctx context.Context) ([]problem.Problem, error) {
			return problem.Load(ctx, source)
		},
		Speaker:    speaker,
		Normalizer: normalizer,
		Hints:      hints,
		Metrics:    metrics,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return speaker.Watch(gctx)
	})
	if fileExists(configPath) {
		watcher, err := config.NewWatcher(configPath, func(_, newCfg *config.Config, diff config.ConfigDiff) {
			if diff.LogLevelChanged {
				level.Set(diff.NewLogLevel.Slog())
				slog.Info("log level changed", "level", diff.NewLogLevel)
			}
			if diff.AnswerChanged {
				n, m := answerSettings(diff.NewAnswer)
				prog.Send(tui.AnswerSettingsMsg{Normalizer: n, Hints: m})
				slog.Info("answer settings changed", "fold_contractions", diff.NewAnswer.FoldContractions, "hints", m != nil)
			}
			if diff.ProblemsChanged || diff.VoiceChanged {
				slog.Info("problem source and voice changes take effect after restart")
			}
		})
		if err != nil {
			return err
		}
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}
	g.Go(func() error {
		defer cancel()
		return prog.Run()
	})

	err = g.Wait()
	speaker.Wait()
	slog.Info("goodbye")
	return err
}
