package normalize

import (
	"regexp"
	"strings"

	"github.com/spec-kit/support-chat/internal/ticket"
)

var (
	// A ticket ID whose five digits were split by spaces or a single line break.
	splitTicketID = regexp.MustCompile(`NVS\s*(\d)` + strings.Repeat(`[ \t]*\n?[ \t]*(\d)`, 4) + `\b`)
	looseTicketID = regexp.MustCompile(`NVS[ \t]*(\d+)`)
)

// RepairTicketIDs makes every ticket reference a contiguous NVS#####. Split IDs
// are joined; the example ID and references with the wrong digit count are
// replaced with IDs from mint.
func RepairTicketIDs(text string, mint func() string) string {
	text = splitTicketID.ReplaceAllString(text, "NVS$1$2$3$4$5")
	return looseTicketID.ReplaceAllStringFunc(text, func(ref string) string {
		digits := looseTicketID.FindStringSubmatch(ref)[1]
		id := ticket.Prefix + digits
		if len(digits) != 5 || id == ticket.ExampleID {
			return freshID(mint)
		}
		return id
	})
}

func freshID(mint func() string) string {
	for {
		if id := mint(); id != ticket.ExampleID {
			return id
		}
	}
}
