package eml

import (
	"regexp"
	"strings"
)

var (
	paragraphOpen  = regexp.MustCompile(`(?i)<p(\s[^>]*)?>`)
	paragraphClose = regexp.MustCompile(`(?i)</p\s*>`)
	lineBreak      = regexp.MustCompile(`(?i)<br\s*/?>`)
	anyTag         = regexp.MustCompile(`<[^>]+>`)
)

// PlainText reduces an HTML body to its plain-text companion. Paragraphs
// become blank-line separated, <br> becomes a newline and every other tag
// is dropped. Entities are left as they are; lists and tables lose their
// structure.
func PlainText(html string) string {
	text := paragraphOpen.ReplaceAllString(html, "")
	text = paragraphClose.ReplaceAllString(text, "\n\n")
	text = lineBreak.ReplaceAllString(text, "\n")
	text = anyTag.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
