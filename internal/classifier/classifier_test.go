package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/support-chat/internal/domain"
	"github.com/spec-kit/support-chat/internal/keywords"
)

func TestClassify(t *testing.T) {
	c := New(keywords.MustLoad())

	cases := []struct {
		message string
		want    domain.Verdict
	}{
		{"hello", domain.VerdictAllowed},
		{"HELLO there", domain.VerdictAllowed},
		{"tell me a pizza recipe", domain.VerdictUnrelated},
		{"how do I run an seo audit", domain.VerdictDomainRelevant},
		{"my dashboard shows an error", domain.VerdictDomainRelevant},
		{"what is the tallest mountain", domain.VerdictUnrelated},
		// casual wins over unrelated
		{"thanks, any cricket scores", domain.VerdictAllowed},
		// unrelated wins over domain
		{"seo for my bitcoin blog", domain.VerdictUnrelated},
	}
	for _, tc := range cases {
		t.Run(tc.message, func(t *testing.T) {
			assert.Equal(t, tc.want, c.Classify(tc.message))
		})
	}
}

func TestClassifyUsesTablesAsData(t *testing.T) {
	tables := &keywords.Tables{Topics: keywords.TopicSets{
		Casual:    []string{"yo"},
		Unrelated: []string{"golf"},
		Domain:    []string{"widget"},
	}}
	c := New(tables)
	assert.Equal(t, domain.VerdictAllowed, c.Classify("yo"))
	assert.Equal(t, domain.VerdictUnrelated, c.Classify("golf"))
	assert.Equal(t, domain.VerdictDomainRelevant, c.Classify("widget"))
	assert.Equal(t, domain.VerdictUnrelated, c.Classify("hello"))
}
