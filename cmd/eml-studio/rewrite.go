package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shineum/eml-studio/internal/rewrite"
)

func newRewriteCmd(a *app) *cobra.Command {
	var action string

	cmd := &cobra.Command{
		Use:   "rewrite [file]",
		Short: "Rewrite email text with the configured AI backend",
		Long:  "Rewrite email text read from a file, or from stdin when no file is given. Output is streamed as it is produced.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			act, err := rewrite.ParseAction(action)
			if err != nil {
				return err
			}

			text, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			rw, err := selectRewriter(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			if rw == nil {
				return errors.New("no AI backend configured, set GEMINI_API_KEY or OPENAI_API_KEY")
			}

			out := cmd.OutOrStdout()
			err = rw.Stream(cmd.Context(), act, string(text), func(chunk string) error {
				_, err := io.WriteString(out, chunk)
				return err
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out)
			return err
		},
	}

	cmd.Flags().StringVarP(&action, "action", "a", "", "rewrite action: grammar, friendly or formal")
	_ = cmd.MarkFlagRequired("action")
	return cmd
}

// readInput reads the single file named in args, or stdin when args is empty.
func readInput(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return data, nil
}
