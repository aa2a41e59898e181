package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/shineum/eml-studio/internal/archive"
	"github.com/shineum/eml-studio/internal/eml"
	"github.com/shineum/eml-studio/internal/store"
)

func newArchiveCmd(a *app) *cobra.Command {
	var (
		owner  string
		team   string
		output string
	)

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Export every template a user can see into one mbox file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := store.NewSQLiteStore(a.cfg.Store.Path)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer st.Close()

			templates, err := st.ListVisibleTo(cmd.Context(), owner, team)
			if err != nil {
				return err
			}

			now := time.Now()
			entries := make([]archive.Entry, 0, len(templates))
			for i := range templates {
				exp, err := eml.Export(&templates[i], nil)
				if err != nil {
					return fmt.Errorf("exporting %s: %w", templates[i].ID, err)
				}
				entries = append(entries, archive.Entry{
					From: exp.Message.FromAddress,
					Date: now,
					Data: exp.Data,
				})
			}

			var buf bytes.Buffer
			if err := archive.Write(&buf, entries); err != nil {
				return err
			}
			if err := writeOutput(cmd.OutOrStdout(), output, buf.Bytes()); err != nil {
				return err
			}
			slog.Info("archive written", "file", output, "messages", len(entries))
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "user whose visible templates are archived")
	cmd.Flags().StringVar(&team, "team", "", "team of the user, to include shared templates")
	cmd.Flags().StringVarP(&output, "output", "o", "templates.mbox", `output path, "-" for stdout`)
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}
