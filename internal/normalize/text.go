package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	disallowedRunes = regexp.MustCompile(`[^\p{L}\p{N}\s.,!?:;()\-•]`)
	fillerIntro     = regexp.MustCompile(`(?i)^\s*(?:hey there[!,. ]*i'?m nova.*?assistant[.!]?\s*)+`)

	spaceBeforePunct = regexp.MustCompile(`[^\S\n]+([.,!?;:])`)
	missingSpace     = regexp.MustCompile(`([.,!?])([A-Za-z])`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
	contraction      = regexp.MustCompile(`(?i)\b(im|ive|dont|doesnt|didnt|cant|wont|isnt|arent|wasnt|werent|havent|hasnt|hadnt|couldnt|shouldnt|wouldnt|youre|theyre|youve|theyve|weve|youll|theyll|thats|whats|theres)\b`)
	gluedWord        = regexp.MustCompile(`(?i)\b(alot|atleast|aswell|inorder|upto|noone)\b`)

	stepIntro    = regexp.MustCompile(`(?i)(follow these steps|here are the steps|try these steps|steps to follow|do the following)(:?)[ \t]*(?:\n[ \t]*)?(\d+\.[ \t])`)
	inlineNumber = regexp.MustCompile(`[ \t]+(\d{1,2}\.)[ \t]+([A-Z])`)
	inlineBullet = regexp.MustCompile(`[ \t]+([-•])[ \t]+([A-Z])`)
	numberedLine = regexp.MustCompile(`(?m)^\d{1,2}\.[ \t]`)

	paragraphLead = regexp.MustCompile(`([.!?])[ \t]*\n?[ \t]*(Would you like|Do you want|Have I\b|Shall I\b|Should I\b|For more information|Is there anything)`)
	labels        = regexp.MustCompile(`Ticket Number:|Ticket ID:|Error:|Note:|Tip:|Warning:|Important:|Solution:`)
	blankLines    = regexp.MustCompile(`\n{3,}`)
	sentenceStart = regexp.MustCompile(`([.!?][ \t\n]+)([a-z])`)
	lineStart     = regexp.MustCompile(`(?m)^([-•][ \t]+)?([a-z])`)
)

var contractions = map[string]string{
	"im": "I'm", "ive": "I've", "dont": "don't", "doesnt": "doesn't", "didnt": "didn't",
	"cant": "can't", "wont": "won't", "isnt": "isn't", "arent": "aren't", "wasnt": "wasn't",
	"werent": "weren't", "havent": "haven't", "hasnt": "hasn't", "hadnt": "hadn't",
	"couldnt": "couldn't", "shouldnt": "shouldn't", "wouldnt": "wouldn't", "youre": "you're",
	"theyre": "they're", "youve": "you've", "theyve": "they've", "weve": "we've",
	"youll": "you'll", "theyll": "they'll", "thats": "that's", "whats": "what's",
	"theres": "there's",
}

var gluedWords = map[string]string{
	"alot": "a lot", "atleast": "at least", "aswell": "as well",
	"inorder": "in order", "upto": "up to", "noone": "no one",
}

// StripNoise removes characters outside the allowed set (letters, digits,
// whitespace and . , ! ? : ; ( ) - •) and drops a repeated assistant intro at
// the start of the text.
func StripNoise(text string) string {
	text = disallowedRunes.ReplaceAllString(text, "")
	return fillerIntro.ReplaceAllString(text, "")
}

// FixPunctuation tightens spacing around punctuation, restores contractions and
// collapses whitespace. Paragraph breaks survive as "\n\n", single line breaks
// as "\n".
func FixPunctuation(text string) string {
	text = spaceBeforePunct.ReplaceAllString(text, "$1")
	text = missingSpace.ReplaceAllString(text, "$1 $2")
	text = contraction.ReplaceAllStringFunc(text, func(w string) string {
		return matchCase(w, contractions[strings.ToLower(w)])
	})
	text = gluedWord.ReplaceAllStringFunc(text, func(w string) string {
		return matchCase(w, gluedWords[strings.ToLower(w)])
	})
	return whitespaceRun.ReplaceAllStringFunc(text, func(ws string) string {
		switch strings.Count(ws, "\n") {
		case 0:
			return " "
		case 1:
			return "\n"
		default:
			return "\n\n"
		}
	})
}

// ReflowLists puts inline numbered and bulleted items on their own lines and
// separates a step introduction from the first step with a blank line.
func ReflowLists(text string) string {
	text = stepIntro.ReplaceAllString(text, "$1$2\n\n$3")
	text = breakInline(text, inlineNumber, true)
	return breakInline(text, inlineBullet, false)
}

// breakInline replaces the whitespace before each mid-line list marker with a
// newline. A number only starts an item after a sentence or item end, when it
// is 1, or once the text already holds a numbered item; numbers following the
// word "step" are part of the sentence.
func breakInline(text string, marker *regexp.Regexp, numbered bool) string {
	matches := marker.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	listed := false
	for _, m := range matches {
		start := m[0]
		if start == 0 || text[start-1] == '\n' {
			continue
		}
		if numbered {
			if strings.EqualFold(lastWord(text[:start]), "step") {
				continue
			}
			if !listed && !opensItem(text[:start], text[m[2]:m[3]]) {
				continue
			}
			listed = true
		}
		b.WriteString(text[last:start])
		b.WriteByte('\n')
		b.WriteString(text[m[2]:m[3]])
		b.WriteByte(' ')
		last = m[4]
	}
	b.WriteString(text[last:])
	return b.String()
}

func opensItem(before, number string) bool {
	if number == "1." || numberedLine.MatchString(before) {
		return true
	}
	before = strings.TrimRight(before, " \t")
	return before != "" && strings.ContainsRune(".!?:;", rune(before[len(before)-1]))
}

func lastWord(s string) string {
	s = strings.TrimRight(s, " \t")
	start := strings.LastIndexFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
	if start < 0 {
		return s
	}
	_, size := utf8.DecodeRuneInString(s[start:])
	return s[start+size:]
}

// Present applies the final layout: capitalized sentences, follow-up questions
// and labels on their own paragraph, at most one blank line in a row and no
// surrounding whitespace.
func Present(text string) string {
	text = tidyLines(text)
	text = sentenceStart.ReplaceAllStringFunc(text, upperLast)
	text = lineStart.ReplaceAllStringFunc(text, upperLast)
	text = paragraphLead.ReplaceAllString(text, "$1\n\n$2")
	text = breakBeforeLabels(text)
	return tidyLines(text)
}

func tidyLines(text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	text = blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(text)
}

// breakBeforeLabels starts a new paragraph at a label that follows a sentence
// end or a line break. Labels inside running text are left alone.
func breakBeforeLabels(text string) string {
	matches := labels.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		gapStart := len(strings.TrimRight(text[:m[0]], " \t\n"))
		if gapStart == 0 || gapStart < last {
			continue
		}
		gap := text[gapStart:m[0]]
		if strings.Count(gap, "\n") >= 2 {
			continue
		}
		if !strings.Contains(gap, "\n") && !strings.ContainsRune(".!?:;)", rune(text[gapStart-1])) {
			continue
		}
		b.WriteString(text[last:gapStart])
		b.WriteString("\n\n")
		last = m[0]
	}
	b.WriteString(text[last:])
	return b.String()
}

func upperLast(s string) string {
	if s == "" {
		return s
	}
	return s[:len(s)-1] + strings.ToUpper(s[len(s)-1:])
}

// matchCase capitalizes repl when orig starts with an upper-case letter.
func matchCase(orig, repl string) string {
	if repl == "" {
		return orig
	}
	if r := []rune(orig); unicode.IsUpper(r[0]) {
		rr := []rune(repl)
		rr[0] = unicode.ToUpper(rr[0])
		return string(rr)
	}
	return repl
}
