package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shineum/eml-studio/internal/eml"
	"github.com/shineum/eml-studio/internal/store"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		sets   []string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export <template-id>",
		Short: "Write a stored template as an .eml file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseValues(sets)
			if err != nil {
				return err
			}

			st, err := store.NewSQLiteStore(a.cfg.Store.Path)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer st.Close()

			t, err := st.GetTemplate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			exp, err := eml.Export(t, values)
			if err != nil {
				return err
			}

			if output == "" {
				output = exp.Filename
			}
			if err := writeOutput(cmd.OutOrStdout(), output, exp.Data); err != nil {
				return err
			}
			slog.Info("template exported", "id", t.ID, "file", output, "bytes", len(exp.Data))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "placeholder value as NAME=VALUE (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", `output path, "-" for stdout (default: derived from the template name)`)
	return cmd
}

// parseValues turns NAME=VALUE pairs into a placeholder map. Only the first
// '=' separates name from value.
func parseValues(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid placeholder value %q, want NAME=VALUE", pair)
		}
		values[name] = value
	}
	return values, nil
}

// writeOutput writes data to path, or to stdout when path is "-".
func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
