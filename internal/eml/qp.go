package eml

import "strings"

// maxLineLength is the RFC 2045 limit for an encoded line, excluding CRLF.
const maxLineLength = 76

const crlf = "\r\n"

const upperHex = "0123456789ABCDEF"

// EncodeQuotedPrintable encodes s as quoted-printable text with CRLF line
// endings. Existing line breaks (CRLF or LF) become hard breaks; lines longer
// than 76 characters are split with soft breaks that never cut an =XX
// escape.
func EncodeQuotedPrintable(s string) string {
	lines := splitLines(s)

	var b strings.Builder
	b.Grow(len(s) + len(s)/8)
	for i, line := range lines {
		if i > 0 {
			b.WriteString(crlf)
		}
		writeEncodedLine(&b, line)
	}
	return b.String()
}

// splitLines breaks s on CRLF or LF. A lone CR is ordinary data.
func splitLines(s string) []string {
	return strings.Split(strings.ReplaceAll(s, crlf, "\n"), "\n")
}

// writeEncodedLine encodes a single logical line, inserting soft breaks as
// needed to honor maxLineLength.
func writeEncodedLine(b *strings.Builder, line string) {
	width := 0
	for i := 0; i < len(line); i++ {
		tok := encodeByte(line[i], i == len(line)-1)

		// A soft-broken line needs room for the trailing '='. The last token
		// of the logical line may use the full width since nothing follows.
		limit := maxLineLength - 1
		if i == len(line)-1 {
			limit = maxLineLength
		}
		if width > 0 && width+len(tok) > limit {
			b.WriteString("=" + crlf)
			width = 0
		}

		b.WriteString(tok)
		width += len(tok)
	}
}

// encodeByte returns the literal or =XX form of c. Whitespace is escaped only
// when it ends a line, where decoders would otherwise strip it.
func encodeByte(c byte, last bool) string {
	switch {
	case c == ' ' || c == '\t':
		if last {
			return escape(c)
		}
		return string(c)
	case c >= 33 && c <= 126 && c != '=':
		return string(c)
	default:
		return escape(c)
	}
}

func escape(c byte) string {
	return string([]byte{'=', upperHex[c>>4], upperHex[c&0x0f]})
}
