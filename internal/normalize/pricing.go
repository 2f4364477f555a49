package normalize

import (
	"regexp"
	"strings"
)

// EnterpriseQuestion closes every plan comparison.
const EnterpriseQuestion = "Would you like me to connect with an expert for the Enterprise model?"

// PricingTemplate is the only layout in which plans are shown.
const PricingTemplate = `Free Plan:
- Up to 5 websites
- Full access to all SEO tools
- Generate reports
- No credit card required

Pro Plan:
- Up to 50 websites
- All Free features
- Priority support
- API access
- $49 per month

Enterprise Plan:
- Unlimited websites (custom limits)
- All Pro features
- Dedicated account manager
- SLA guarantees
- Custom integrations
- Contact sales for a quote

` + EnterpriseQuestion

var (
	planAnchors = []*regexp.Regexp{
		regexp.MustCompile(`(?i)free plan`),
		regexp.MustCompile(`(?i)pro plan`),
		regexp.MustCompile(`(?i)enterprise plan`),
	}
	enterpriseQuestion = regexp.MustCompile(`(?i)\s*would you like me to connect (?:you )?with an expert for the enterprise (?:model|plan)\?`)
)

// CanonicalizePricing replaces a plan comparison that names all three plans
// with PricingTemplate.
func CanonicalizePricing(text string) string {
	start, end, ok := pricingSpan(text)
	if !ok {
		return text
	}
	return joinParagraphs(
		enterpriseQuestion.ReplaceAllString(text[:start], ""),
		PricingTemplate,
		enterpriseQuestion.ReplaceAllString(text[end:], ""),
	)
}

// StripPricing removes a plan comparison and its Enterprise offer.
func StripPricing(text string) string {
	start, end, ok := pricingSpan(text)
	if !ok {
		return text
	}
	return joinParagraphs(
		enterpriseQuestion.ReplaceAllString(text[:start], ""),
		enterpriseQuestion.ReplaceAllString(text[end:], ""),
	)
}

// HasPricing reports whether text names all three plans.
func HasPricing(text string) bool {
	_, _, ok := pricingSpan(text)
	return ok
}

// pricingSpan locates the plan section: from the first plan name to the end of
// the paragraph naming the last one, plus any bullet-only paragraphs after it.
func pricingSpan(text string) (start, end int, ok bool) {
	start, lastAnchor := len(text), -1
	for _, a := range planAnchors {
		loc := a.FindStringIndex(text)
		if loc == nil {
			return 0, 0, false
		}
		start = min(start, loc[0])
		lastAnchor = max(lastAnchor, loc[0])
	}

	end = paragraphEnd(text, lastAnchor)
	for end < len(text) {
		next := paragraphEnd(text, end+skipBlank(text[end:]))
		if !bulletParagraph(strings.TrimSpace(text[end:next])) {
			break
		}
		end = next
	}
	return start, end, true
}

func paragraphEnd(text string, from int) int {
	if i := strings.Index(text[from:], "\n\n"); i >= 0 {
		return from + i
	}
	return len(text)
}

func skipBlank(s string) int {
	return len(s) - len(strings.TrimLeft(s, " \t\n"))
}

func bulletParagraph(p string) bool {
	if p == "" {
		return false
	}
	for _, line := range strings.Split(p, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "•") && !strings.HasPrefix(line, "*") {
			return false
		}
	}
	return true
}

// joinParagraphs concatenates non-empty parts with one blank line between them.
func joinParagraphs(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}
