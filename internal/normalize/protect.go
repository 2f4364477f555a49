package normalize

import (
	"regexp"
	"strings"
)

// Placeholders are wrapped in private-use runes and carry a letter-encoded index,
// so no digit/letter boundary exists inside them.
const (
	placeholderOpen  = '\uE000'
	placeholderClose = '\uE001'
)

var (
	protectedPattern   = regexp.MustCompile(`NVS\d+`)
	placeholderPattern = regexp.MustCompile(`\x{E000}([a-z]+)\x{E001}`)

	digitLetter = regexp.MustCompile(`([0-9])([A-Za-z])`)
	letterDigit = regexp.MustCompile(`([A-Za-z])([0-9])`)
)

// Vault remembers protected substrings for one Protect call.
type Vault struct {
	originals []string
}

// Protect swaps every ticket-ID-like token for a placeholder.
func Protect(text string) (string, *Vault) {
	v := &Vault{}
	masked := protectedPattern.ReplaceAllStringFunc(text, func(tok string) string {
		v.originals = append(v.originals, tok)
		return placeholder(len(v.originals) - 1)
	})
	return masked, v
}

// Restore puts the protected tokens back. Unknown placeholders are left alone.
func (v *Vault) Restore(text string) string {
	if v == nil || len(v.originals) == 0 {
		return text
	}
	return placeholderPattern.ReplaceAllStringFunc(text, func(ph string) string {
		idx := decodeIndex(placeholderPattern.FindStringSubmatch(ph)[1])
		if idx < 0 || idx >= len(v.originals) {
			return ph
		}
		return v.originals[idx]
	})
}

// Len reports how many tokens were protected.
func (v *Vault) Len() int {
	if v == nil {
		return 0
	}
	return len(v.originals)
}

// SpaceAlphanumerics separates letters glued to digits, e.g. "costs49dollars"
// becomes "costs 49 dollars". Ticket IDs are left intact.
func SpaceAlphanumerics(text string) string {
	masked, vault := Protect(text)
	// Each regexp consumes both runes, so a second pass picks up single-rune
	// runs such as "a1b".
	for i := 0; i < 2; i++ {
		masked = digitLetter.ReplaceAllString(masked, "$1 $2")
		masked = letterDigit.ReplaceAllString(masked, "$1 $2")
	}
	return vault.Restore(masked)
}

func placeholder(idx int) string {
	var b strings.Builder
	b.WriteRune(placeholderOpen)
	b.WriteString(encodeIndex(idx))
	b.WriteRune(placeholderClose)
	return b.String()
}

// encodeIndex writes idx in base 26 using a-z.
func encodeIndex(idx int) string {
	if idx == 0 {
		return "a"
	}
	var digits []byte
	for idx > 0 {
		digits = append([]byte{byte('a' + idx%26)}, digits...)
		idx /= 26
	}
	return string(digits)
}

func decodeIndex(s string) int {
	n := 0
	for _, c := range s {
		if c < 'a' || c > 'z' {
			return -1
		}
		n = n*26 + int(c-'a')
	}
	return n
}
