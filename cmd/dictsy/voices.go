package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MrWong99/dictsy/internal/config"
	"github.com/MrWong99/dictsy/internal/observe"
	"github.com/MrWong99/dictsy/internal/speech"
	"github.com/MrWong99/dictsy/pkg/provider/tts"
)

var errNoProvider = errors.New("no TTS provider configured; set providers.tts in the config file")

func newVoicesCmd(opts *rootOptions) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List the voices of the configured TTS provider",
		Long: `Voices prints the voices that speak the configured locale. The voice
selected by default is marked with an asterisk. Use --all to include
voices for every language.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			level := new(slog.LevelVar)
			level.Set(max(cfg.Server.LogLevel.Slog(), slog.LevelWarn))
			slog.SetDefault(newLogger(cmd.ErrOrStderr(), level))

			reg := config.NewRegistry()
			registerBuiltins(reg)
			speaker, err := buildSpeaker(cfg, reg, observe.DefaultMetrics(), false)
			if err != nil {
				return err
			}
			return listVoices(cmd.Context(), cmd.OutOrStdout(), speaker, all)
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include voices for every language")
	return cmd
}

func listVoices(ctx context.Context, w io.Writer, s *speech.Speaker, all bool) error {
	if !s.Available() {
		return errNoProvider
	}
	if err := s.Refresh(ctx); err != nil {
		return err
	}
	selected, _ := s.Selected()

	voices := s.Voices()
	if all {
		var err error
		if voices, err = s.AllVoices(ctx); err != nil {
			return err
		}
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tNAME\tLANGUAGE\tID")
	for _, v := range voices {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", marker(v, selected), v.Name, v.Language, v.ID)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(voices) == 0 {
		fmt.Fprintf(w, "no voices for locale %s\n", s.Locale())
	}
	return nil
}

func marker(v, selected tts.Voice) string {
	if v.Name != "" && v.Name == selected.Name {
		return "*"
	}
	return ""
}
