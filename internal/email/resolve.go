package email

import (
	"strings"
	"unicode"
)

// DefaultFromAddress is used when a template has no sender address.
const DefaultFromAddress = "sender@example.com"

// fallbackFilename is used when a template name has no usable characters.
const fallbackFilename = "template"

// Values returns the placeholder values for this template: each declared
// placeholder starts at its sample, and entries in overrides win.
// Overrides for undeclared names are kept as well.
func (t *Template) Values(overrides map[string]string) map[string]string {
	values := make(map[string]string, len(t.Placeholders)+len(overrides))
	for _, p := range t.Placeholders {
		values[p.Name] = p.Sample
	}
	for name, v := range overrides {
		values[name] = v
	}
	return values
}

// Resolve substitutes placeholder values into every templated field and
// returns the resulting Message. Tokens without a value stay verbatim.
func (t *Template) Resolve(overrides map[string]string) *Message {
	r := newReplacer(t.Values(overrides))

	from := t.FromEmail
	if strings.TrimSpace(from) == "" {
		from = DefaultFromAddress
	}

	return &Message{
		FromName:    r.Replace(t.FromName),
		FromAddress: r.Replace(from),
		Recipients:  r.Replace(t.Recipients),
		Cc:          r.Replace(t.Cc),
		Subject:     r.Replace(t.Subject),
		HTMLBody:    r.Replace(t.Body),
	}
}

// ResolveBcc returns the blind-copy list with placeholders substituted. It is
// kept apart from Resolve because Bcc never reaches the serialized headers.
func (t *Template) ResolveBcc(overrides map[string]string) string {
	return newReplacer(t.Values(overrides)).Replace(t.Bcc)
}

// Filename returns the .eml filename derived from the template name.
func (t *Template) Filename() string {
	return Filename(t.Name)
}

// Filename turns a display name into a safe .eml filename. Whitespace runs
// become underscores and anything other than letters, digits, '-', '_' and
// '.' is dropped.
func Filename(name string) string {
	var b strings.Builder
	inSpace := false
	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsSpace(r):
			if !inSpace {
				b.WriteByte('_')
			}
			inSpace = true
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)),
			r == '-', r == '_', r == '.':
			b.WriteRune(r)
			inSpace = false
		}
	}

	base := strings.Trim(b.String(), ".")
	if base == "" {
		base = fallbackFilename
	}
	return base + ".eml"
}

func newReplacer(values map[string]string) *strings.Replacer {
	pairs := make([]string, 0, len(values)*2)
	for name, v := range values {
		if name == "" {
			continue
		}
		pairs = append(pairs, "{"+name+"}", v)
	}
	return strings.NewReplacer(pairs...)
}
