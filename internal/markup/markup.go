// Package markup strips the inline annotation spans used in sentence text.
//
// A span has the form {<digits><optional lowercase letter>:<text>}, e.g.
// "{3a:食べ}ました". The flashcard frontend highlights spans by key; speech
// synthesis needs only the inner text.
package markup

import "regexp"

var spanPattern = regexp.MustCompile(`\{(\d+[a-z]?):([^{}]*)\}`)

// Span is one annotation found in a sentence.
type Span struct {
	Key  string
	Text string
}

// Normalize replaces every span with its inner text and leaves everything
// else, including malformed or unbalanced braces, untouched. Input that nests
// spans is unwrapped until no span remains, so normalizing already-normalized
// text is always a no-op.
func Normalize(s string) string {
	for spanPattern.MatchString(s) {
		s = spanPattern.ReplaceAllString(s, "$2")
	}
	return s
}

// Spans returns the spans in s in order of appearance.
func Spans(s string) []Span {
	matches := spanPattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil
	}
	spans := make([]Span, 0, len(matches))
	for _, m := range matches {
		spans = append(spans, Span{Key: m[1], Text: m[2]})
	}
	return spans
}
