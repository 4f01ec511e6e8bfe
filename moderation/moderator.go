// Package moderation masks forbidden words in message text before storage.
package moderation

import (
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

type Moderator struct {
	matcher  *goahocorasick.Machine
	maskChar rune
	enabled  bool
}

// NewModerator builds the Aho-Corasick automaton from the configured word
// list. An empty list yields a disabled moderator that passes text through
// unchanged.
func NewModerator(words []string, maskChar rune) (Moderator, error) {
	if len(words) == 0 {
		return Moderator{maskChar: maskChar}, nil
	}
	patterns := make([][]rune, len(words))
	for i, word := range words {
		patterns[i] = []rune(strings.ToLower(word))
	}
	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return Moderator{}, err
	}
	return Moderator{matcher: m, maskChar: maskChar, enabled: true}, nil
}

// Censor replaces every occurrence of a forbidden word with the mask rune.
// Matching is case-insensitive; the rest of the text is preserved as-is.
func (m Moderator) Censor(text string) string {
	if !m.enabled {
		return text
	}
	origRunes := []rune(text)
	lowered := make([]rune, len(origRunes))
	for i, r := range origRunes {
		lowered[i] = unicode.ToLower(r)
	}
	terms := m.matcher.MultiPatternSearch(lowered, false)
	if len(terms) == 0 {
		return text
	}
	for _, term := range terms {
		end := term.Pos + len(term.Word)
		if term.Pos < 0 || end > len(origRunes) {
			continue
		}
		for i := term.Pos; i < end; i++ {
			origRunes[i] = m.maskChar
		}
	}
	return string(origRunes)
}
