// Package classifier buckets incoming messages by topic relevance using the
// keyword tables. There is no semantic matching: a message belongs to a set when
// it contains one of the set's words.
package classifier

import (
	"github.com/spec-kit/support-chat/internal/domain"
	"github.com/spec-kit/support-chat/internal/keywords"
)

// Classifier applies the casual, unrelated and domain sets in that fixed order.
type Classifier struct {
	topics keywords.TopicSets
}

// New builds a classifier over the given tables.
func New(tables *keywords.Tables) *Classifier {
	return &Classifier{topics: tables.Topics}
}

// Classify returns Allowed for casual messages, Unrelated for off-topic ones and
// DomainRelevant when a domain word is present. Anything else is Unrelated.
func (c *Classifier) Classify(message string) domain.Verdict {
	switch {
	case keywords.ContainsAny(message, c.topics.Casual):
		return domain.VerdictAllowed
	case keywords.ContainsAny(message, c.topics.Unrelated):
		return domain.VerdictUnrelated
	case keywords.ContainsAny(message, c.topics.Domain):
		return domain.VerdictDomainRelevant
	default:
		return domain.VerdictUnrelated
	}
}
