package normalize

import (
	"regexp"
	"strings"
)

// ResolutionCheck is the question that ends a self-service answer.
const ResolutionCheck = "Have I solved your query?"

var (
	resolutionChecks = regexp.MustCompile(`(?i)[ \t]*(?:have i solved your query|did this resolve your issue|does this resolve your issue)\?`)

	escalationOffers = regexp.MustCompile(`(?i)` + strings.Join([]string{
		`shall i raise a support ticket`,
		`would you like me to (?:open|create|raise) a (?:support )?ticket`,
		`should i create a ticket`,
		`do you want me to (?:generate|create) a ticket`,
		`connect (?:you )?with an expert`,
	}, "|"))

	teamHandling = regexp.MustCompile(`(?i)` + strings.Join([]string{
		`our team will`,
		`get back to you`,
		`working on your`,
		`expert will reach out`,
		`team has been notified`,
		`will contact you`,
		`escalated to`,
		`review your`,
	}, "|"))
)

// SuppressClosingQuestions drops resolution checks from text that also offers
// a ticket or an expert, or that says the issue was handed to the support team.
// An offer always wins over a resolution check.
func SuppressClosingQuestions(text string) string {
	if !escalationOffers.MatchString(text) && !teamHandling.MatchString(text) {
		return text
	}
	out := resolutionChecks.ReplaceAllString(text, "")
	if out == text {
		return text
	}
	return tidyLines(out)
}
