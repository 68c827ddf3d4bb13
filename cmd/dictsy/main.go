// Command dictsy is an English dictation trainer.
//
// Usage:
//
//	dictsy [--config dictsy.yaml]            practise in the terminal
//	dictsy serve [--listen :8080]            serve the HTTP API
//	dictsy check <answer> <reference>        judge one answer
//	dictsy voices [--all]                    list the voice catalogue
//
// A missing configuration file is not an error; built-in defaults are used.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MrWong99/dictsy/internal/config"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line in args and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		// An incorrect answer has already been reported on stdout.
		if !errors.Is(err, errIncorrect) {
			fmt.Fprintln(stderr, "dictsy:", err)
		}
		return 1
	}
	return 0
}

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "dictsy",
		Short: "Listen to English sentences and write them down",
		Long: `Dictsy plays an English sentence with a text-to-speech voice and
checks what you typed against it. Without a subcommand it opens the
practice screen in the terminal.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPractice(cmd.Context(), opts.configPath)
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "dictsy.yaml", "path to the YAML configuration file")

	root.AddCommand(
		newPracticeCmd(opts),
		newServeCmd(opts),
		newCheckCmd(),
		newVoicesCmd(opts),
	)
	return root
}

// newLogger returns a text logger writing to w whose level follows level,
// so a config reload can change verbosity in place.
func newLogger(w io.Writer, level *slog.LevelVar) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads path, falling back to defaults when it does not exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// fileExists reports whether path names an existing file. The config
// watcher is only started for files that exist.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
