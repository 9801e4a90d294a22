package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// letters that carry no combining mark and so survive NFD untouched
var foldReplacer = strings.NewReplacer(
	"ß", "ss",
	"æ", "ae",
	"œ", "oe",
	"ø", "o",
	"ł", "l",
	"đ", "d",
	"ð", "d",
	"þ", "th",
	"ı", "i",
)

var honorifics = map[string]bool{
	"dr": true, "prof": true, "professor": true, "mr": true, "mrs": true,
	"ms": true, "mx": true, "sir": true, "dame": true, "rev": true,
}

var suffixes = map[string]bool{
	"jr": true, "sr": true, "ii": true, "iii": true, "iv": true,
	"phd": true, "md": true, "mba": true, "esq": true, "cpa": true,
}

// Name returns the matching key for a display name. It never fails: empty
// or punctuation-only input yields "". Name is idempotent.
func Name(displayName string) string {
	s := stripDiacritics(strings.ToLower(displayName))
	s = foldReplacer.Replace(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '\'' || r == '’' || r == '`':
			// O'Brien and OBrien are the same person
		default:
			b.WriteByte(' ')
		}
	}

	tokens := strings.Fields(b.String())
	for len(tokens) > 1 && honorifics[tokens[0]] {
		tokens = tokens[1:]
	}
	for len(tokens) > 1 && suffixes[tokens[len(tokens)-1]] {
		tokens = tokens[:len(tokens)-1]
	}
	tokens = dropMiddleInitials(tokens)

	return strings.Join(tokens, " ")
}

// dropMiddleInitials removes single-letter tokens between the first and last
// name ("jane a doe" -> "jane doe").
func dropMiddleInitials(tokens []string) []string {
	if len(tokens) < 3 {
		return tokens
	}
	out := make([]string, 0, len(tokens))
	out = append(out, tokens[0])
	for _, t := range tokens[1 : len(tokens)-1] {
		if len([]rune(t)) == 1 {
			continue
		}
		out = append(out, t)
	}
	return append(out, tokens[len(tokens)-1])
}

func stripDiacritics(s string) string {
	// Transformers keep internal state, build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
