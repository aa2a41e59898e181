package main

import (
	"bytes"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shineum/eml-studio/internal/archive"
	"github.com/shineum/eml-studio/internal/parser"
)

func newInspectCmd(_ *app) *cobra.Command {
	var isMbox bool

	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Summarize an .eml file or mbox archive",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			messages := [][]byte{data}
			if isMbox {
				messages, err = archive.Read(bytes.NewReader(data))
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			for i, raw := range messages {
				doc, err := parser.Parse(raw)
				if err != nil {
					return fmt.Errorf("message %d: %w", i+1, err)
				}
				if i > 0 {
					fmt.Fprintln(out)
				}
				printDocument(out, doc)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&isMbox, "mbox", false, "treat the input as an mbox archive")
	return cmd
}

func printDocument(w io.Writer, doc *parser.Document) {
	msg := doc.Message
	from := msg.FromAddress
	if msg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", msg.FromName, msg.FromAddress)
	}

	fmt.Fprintf(w, "From:     %s\n", from)
	fmt.Fprintf(w, "To:       %s\n", msg.Recipients)
	if msg.Cc != "" {
		fmt.Fprintf(w, "Cc:       %s\n", msg.Cc)
	}
	fmt.Fprintf(w, "Subject:  %s\n", msg.Subject)
	if !doc.Date.IsZero() {
		fmt.Fprintf(w, "Date:     %s\n", doc.Date.UTC().Format("2006-01-02 15:04:05 MST"))
	}
	if doc.Boundary != "" {
		fmt.Fprintf(w, "Boundary: %s\n", doc.Boundary)
	}
	fmt.Fprintf(w, "HTML:     %d bytes\n", len(msg.HTMLBody))
	fmt.Fprintf(w, "\n%s\n", doc.TextBody)
}
