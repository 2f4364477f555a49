package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samples = []string{
	"Hey there! I'm Nova, your assistant. costs49dollars and NVS 543\n21 pending",
	"To fix it, follow these steps: 1. Open settings 2. Clear the cache",
	"Free Plan: x. Pro Plan: y. Enterprise Plan: z.\n\nHave I solved your query?",
	"thanks. would you like more help? note: restart the app.\n\n\n\nerror: timeout",
	"Your ticket is NVS12345 and NVS1234 and NVS123456.",
	"Hello ,world!This is  great .Im happy\n\n\n\nalot of   work",
	"Benefits: - Faster pages - Better ranking • Fewer errors",
	"Our team will contact you. Have I solved your query?",
	"Is it fixed \r?\r\nYes \f. ok\r\n",
	"\r?\n",
	"The Pro plan costs 49. It includes priority support.",
	"",
}

func sequenceMinter() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("NVS%05d", 60000+n)
	}
}

func TestDefaultStageOrder(t *testing.T) {
	var names []string
	for _, s := range New().Stages() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		StageAlnumSpacing, StageNoise, StagePunctuation, StageLists, StagePricing,
		StageClosingQuestions, StageTicketRepair, StagePresentation, StageTicketRepairFinal,
	}, names)
}

func TestStagesAreIdempotent(t *testing.T) {
	for _, stage := range New(WithTicketIDs(sequenceMinter())).Stages() {
		for _, in := range samples {
			once := stage.Apply(in)
			assert.Equal(t, once, stage.Apply(once), "stage %s on %q", stage.Name, in)
		}
	}
}

func TestRunRecoversFromPanics(t *testing.T) {
	p := NewPipeline(
		Stage{Name: "upper", Apply: strings.ToUpper},
		Stage{Name: "boom", Apply: func(string) string { panic("kaboom") }},
	)
	out, err := p.Run("text")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStagePanic)
	assert.Contains(t, err.Error(), "boom")
	assert.Empty(t, out)
}

func TestProtectRestore(t *testing.T) {
	masked, vault := Protect("NVS11111 and NVS22222")
	assert.NotContains(t, masked, "NVS")
	assert.Equal(t, 2, vault.Len())
	assert.Equal(t, "NVS11111 and NVS22222", vault.Restore(masked))
}

func TestSpaceAlphanumerics(t *testing.T) {
	assert.Equal(t, "costs 49 dollars", SpaceAlphanumerics("costs49dollars"))
	assert.Equal(t, "Use H 1 tags and NVS54321", SpaceAlphanumerics("Use H1tags and NVS54321"))
	assert.Equal(t, "Ticket NVS12345abc", SpaceAlphanumerics("Ticket NVS12345abc"))
}

func TestStripNoise(t *testing.T) {
	in := "Hey there! I'm Nova, your personal assistant. Your score is 80% #great!"
	assert.Equal(t, "Your score is 80 great!", StripNoise(in))
	assert.Equal(t, "Keep (this): a, b; c - d • e?", StripNoise("Keep (this): a, b; c - d • e?"))
}

func TestFixPunctuation(t *testing.T) {
	in := "Hello ,world!This is  great .Im happy\n\n\n\nalot of   work\nhere"
	assert.Equal(t, "Hello, world! This is great. I'm happy\n\na lot of work\nhere", FixPunctuation(in))
	assert.Equal(t, "Don't worry", FixPunctuation("Dont worry"))
	assert.Equal(t, "The price is 4.5 today", FixPunctuation("The price is 4.5 today"))
	assert.Equal(t, "Is it fixed?\nYes. ok\n", FixPunctuation("Is it fixed \r?\r\nYes \f. ok\r\n"))
	assert.Equal(t, "?\n", FixPunctuation("\r?\n"))
}

func TestReflowLists(t *testing.T) {
	assert.Equal(t,
		"To fix it, follow these steps:\n\n1. Open settings\n2. Clear the cache\n3. Retry the scan",
		ReflowLists("To fix it, follow these steps: 1. Open settings 2. Clear the cache 3. Retry the scan"))
	assert.Equal(t, "Go to step 2. Then continue", ReflowLists("Go to step 2. Then continue"))
	assert.Equal(t, "Benefits:\n- Faster pages\n- Better ranking", ReflowLists("Benefits: - Faster pages - Better ranking"))
	assert.Equal(t, "a well - known tool", ReflowLists("a well - known tool"))
}

func TestReflowListsLeavesPricesInSentences(t *testing.T) {
	price := "The Pro plan costs 49. It includes priority support."
	assert.Equal(t, price, ReflowLists(price))

	assert.Equal(t, "Do this:\n2. Open settings\n3. Rescan", ReflowLists("Do this: 2. Open settings 3. Rescan"))
	assert.Equal(t, "1. Log in\n2. Open settings", ReflowLists("1. Log in 2. Open settings"))
}

func TestReflowListsStepAfterMultibyteRune(t *testing.T) {
	in := "1. Log in\nThen go to •step 2. Open settings"
	assert.Equal(t, in, ReflowLists(in))
	assert.Equal(t, "step", lastWord("go to •step"))
	assert.Equal(t, "step", lastWord("step"))
}

func TestCanonicalizePricing(t *testing.T) {
	in := "Here are our plans: Free Plan: basic stuff. Pro Plan: $49 monthly. Enterprise Plan: custom.\n\n" +
		EnterpriseQuestion + "\n\nHave I solved your query?"
	out := CanonicalizePricing(in)
	assert.Equal(t, "Here are our plans:\n\n"+PricingTemplate+"\n\nHave I solved your query?", out)
	assert.Equal(t, 1, strings.Count(out, EnterpriseQuestion))

	partial := "Our Pro Plan costs $49."
	assert.Equal(t, partial, CanonicalizePricing(partial))
}

func TestCanonicalizePricingConsumesBulletParagraphs(t *testing.T) {
	in := "Free Plan:\n- 5 sites\n\nPro Plan:\n- 50 sites\n\nEnterprise Plan:\n\n- Unlimited\n- Manager\n\nAnything else?"
	assert.Equal(t, PricingTemplate+"\n\nAnything else?", CanonicalizePricing(in))
}

func TestStripPricing(t *testing.T) {
	in := "Great question.\n\nFree Plan: a\nPro Plan: b\nEnterprise Plan: c\n\n" + EnterpriseQuestion + "\n\nAnything else?"
	assert.Equal(t, "Great question.\n\nAnything else?", StripPricing(in))
	assert.True(t, HasPricing(in))
	assert.False(t, HasPricing("Great question."))
}

func TestSuppressClosingQuestions(t *testing.T) {
	offer := "Try clearing the cache.\n\nWould you like me to open a ticket?\n\nHave I solved your query?"
	assert.Equal(t, "Try clearing the cache.\n\nWould you like me to open a ticket?", SuppressClosingQuestions(offer))

	team := "Our team will review your report. Have I solved your query?"
	assert.Equal(t, "Our team will review your report.", SuppressClosingQuestions(team))

	review := "We will review your account shortly. Have I solved your query?"
	assert.Equal(t, "We will review your account shortly.", SuppressClosingQuestions(review))

	plain := "Clear the cache and rescan.\n\nHave I solved your query?"
	assert.Equal(t, plain, SuppressClosingQuestions(plain))
}

func TestRepairTicketIDs(t *testing.T) {
	mint := sequenceMinter()
	assert.Equal(t, "Ticket Number: NVS54321 created", RepairTicketIDs("Ticket Number: NVS 543\n21 created", mint))
	assert.Equal(t, "Your ticket NVS60001.", RepairTicketIDs("Your ticket NVS12345.", mint))
	assert.Equal(t, "Bad NVS60002 and NVS60003", RepairTicketIDs("Bad NVS1234 and NVS 123456", mint))
}

func TestPresent(t *testing.T) {
	in := "  thanks. would you like more help? note: restart the app.\n\n\n\nerror: timeout  "
	assert.Equal(t,
		"Thanks.\n\nWould you like more help?\n\nNote: restart the app.\n\nError: timeout",
		Present(in))
	assert.Equal(t, "Contact Server Error: code 5", Present("contact Server Error: code 5"))
}

func TestPipelineScenarioPlaceholderTicket(t *testing.T) {
	p := New(WithTicketIDs(func() string { return "NVS67890" }))
	out, err := p.Run("Your ticket is NVS12345. Our team will contact you.")
	require.NoError(t, err)
	assert.Equal(t, "Your ticket is NVS67890. Our team will contact you.", out)
}

func TestPipelinePricing(t *testing.T) {
	out, err := New().Run("Here are our plans: Free Plan: basic stuff. Pro Plan: 49 monthly. Enterprise Plan: custom. Have I solved your query?")
	require.NoError(t, err)
	assert.Equal(t, "Here are our plans:\n\n"+PricingTemplate, out)
	assert.NotContains(t, out, ResolutionCheck)
}

func TestPipelineInvariants(t *testing.T) {
	loose := regexp.MustCompile(`NVS\s*\d+`)
	exact := regexp.MustCompile(`^NVS\d{5}$`)
	offer := regexp.MustCompile(`(?i)open a ticket|connect with an expert|team will`)

	p := New(WithTicketIDs(sequenceMinter()))
	for _, in := range samples {
		out, err := p.Run(in)
		require.NoError(t, err)
		for _, ref := range loose.FindAllString(out, -1) {
			assert.Regexp(t, exact, ref, "output %q", out)
		}
		assert.NotContains(t, out, "NVS12345")
		if offer.MatchString(out) {
			assert.NotContains(t, out, ResolutionCheck)
		}
	}
}
