// Package archive bundles serialized messages into mbox files.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-mbox"
)

// Entry is one serialized message destined for an archive.
type Entry struct {
	// From is the envelope sender written on the mbox separator line.
	From string
	Date time.Time
	Data []byte
}

// Write appends every entry to w as an mbox stream.
func Write(w io.Writer, entries []Entry) error {
	mw := mbox.NewWriter(w)
	for i, e := range entries {
		from := strings.TrimSpace(e.From)
		if from == "" {
			from = "MAILER-DAEMON"
		}
		date := e.Date
		if date.IsZero() {
			date = time.Now()
		}

		msgWriter, err := mw.CreateMessage(from, date.UTC())
		if err != nil {
			return fmt.Errorf("creating message %d: %w", i, err)
		}
		if _, err := msgWriter.Write(e.Data); err != nil {
			return fmt.Errorf("writing message %d: %w", i, err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("closing mbox: %w", err)
	}
	return nil
}

// Read returns the messages stored in an mbox stream.
//
// The mbox framing is not byte transparent. Messages come back with CRLF line
// endings and exactly one trailing line break, so trailing blank lines are
// lost. Body lines beginning with ">From " are returned without the leading
// '>', because mboxo cannot tell them apart from escaped "From " lines.
func Read(r io.Reader) ([][]byte, error) {
	mr := mbox.NewReader(r)

	var messages [][]byte
	for i := 0; ; i++ {
		msgReader, err := mr.NextMessage()
		if errors.Is(err, io.EOF) {
			return messages, nil
		}
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}

		raw, err := io.ReadAll(msgReader)
		if err != nil {
			return nil, fmt.Errorf("message %d read: %w", i, err)
		}
		messages = append(messages, trimTerminator(raw))
	}
}

// trimTerminator drops the blank separator lines the mbox reader leaves at
// the end of a message.
func trimTerminator(raw []byte) []byte {
	trimmed := bytes.TrimRight(raw, "\r\n")
	if len(trimmed) == 0 {
		return trimmed
	}
	return append(trimmed, '\r', '\n')
}
