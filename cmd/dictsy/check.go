package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrWong99/dictsy/internal/answer"
	"github.com/MrWong99/dictsy/internal/answer/hint"
)

// errIncorrect makes check exit with status 1 without printing an error.
var errIncorrect = errors.New("answer is incorrect")

func newCheckCmd() *cobra.Command {
	var (
		fold    bool
		noHints bool
	)
	cmd := &cobra.Command{
		Use:   "check <answer> <reference>",
		Short: "Judge an answer against a reference sentence",
		Long: `Check normalizes both sentences the way the practice screen does and
prints the verdict. It exits 0 when the answer is correct and 1 otherwise.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := answer.New(answer.WithContractionFolding(fold))
			got, want := n.Normalize(args[0]), n.Normalize(args[1])
			verdict := n.Judge(args[0], args[1])

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "answer:    %q\n", got)
			fmt.Fprintf(out, "reference: %q\n", want)
			fmt.Fprintf(out, "verdict:   %s\n", verdict)
			if verdict == answer.Correct {
				return nil
			}
			if !noHints {
				for _, h := range hint.New().Hints(got, want) {
					fmt.Fprintln(out, "  "+formatHint(h))
				}
			}
			return errIncorrect
		},
	}
	cmd.Flags().BoolVar(&fold, "fold", false, "treat contractions and their expansions as equal")
	cmd.Flags().BoolVar(&noHints, "no-hints", false, "do not explain incorrect answers")
	return cmd
}

func formatHint(h hint.Hint) string {
	switch h.Kind {
	case hint.SoundsLike:
		return fmt.Sprintf("%s: %q sounds like %q", h.Kind, h.Got, h.Want)
	case hint.WrongWord:
		return fmt.Sprintf("%s: %q should be %q", h.Kind, h.Got, h.Want)
	case hint.Extra:
		return fmt.Sprintf("%s: %q", h.Kind, h.Got)
	case hint.Missing:
		return fmt.Sprintf("%s: %q", h.Kind, h.Want)
	}
	return string(h.Kind)
}
