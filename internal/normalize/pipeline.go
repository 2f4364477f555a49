// Package normalize turns raw completion text into the text shown to users.
//
// The work is split into named stages that each rewrite the whole string. Every
// stage is pure and idempotent, so stages may be rerun or combined freely, but
// the default order matters:
//
//   - alnum-spacing protects ticket IDs before splitting letter/digit runs.
//   - pricing runs before closing-questions because it can add the Enterprise offer.
//   - ticket-repair-final runs after presentation, which may insert line breaks.
package normalize

import (
	"errors"
	"fmt"

	"github.com/spec-kit/support-chat/internal/ticket"
)

// Stage names.
const (
	StageAlnumSpacing      = "alnum-spacing"
	StageNoise             = "noise"
	StagePunctuation       = "punctuation"
	StageLists             = "lists"
	StagePricing           = "pricing"
	StageClosingQuestions  = "closing-questions"
	StageTicketRepair      = "ticket-repair"
	StagePresentation      = "presentation"
	StageTicketRepairFinal = "ticket-repair-final"
)

// ErrStagePanic wraps a panic raised inside a stage.
var ErrStagePanic = errors.New("normalize: stage panicked")

// Stage is one named text rewrite.
type Stage struct {
	Name  string
	Apply func(string) string
}

// Pipeline runs stages in order.
type Pipeline struct {
	stages []Stage
}

type options struct {
	mintID func() string
}

// Option customizes the default pipeline.
type Option func(*options)

// WithTicketIDs sets the generator used to replace the example ticket ID and
// unrepairable ticket references.
func WithTicketIDs(mint func() string) Option {
	return func(o *options) {
		if mint != nil {
			o.mintID = mint
		}
	}
}

// New builds the default pipeline.
func New(opts ...Option) *Pipeline {
	o := options{mintID: ticket.NewID}
	for _, opt := range opts {
		opt(&o)
	}
	repair := func(text string) string { return RepairTicketIDs(text, o.mintID) }

	return NewPipeline(
		Stage{Name: StageAlnumSpacing, Apply: SpaceAlphanumerics},
		Stage{Name: StageNoise, Apply: StripNoise},
		Stage{Name: StagePunctuation, Apply: FixPunctuation},
		Stage{Name: StageLists, Apply: ReflowLists},
		Stage{Name: StagePricing, Apply: CanonicalizePricing},
		Stage{Name: StageClosingQuestions, Apply: SuppressClosingQuestions},
		Stage{Name: StageTicketRepair, Apply: repair},
		Stage{Name: StagePresentation, Apply: Present},
		Stage{Name: StageTicketRepairFinal, Apply: repair},
	)
}

// NewPipeline builds a pipeline from explicit stages.
func NewPipeline(stages ...Stage) *Pipeline {
	return &Pipeline{stages: append([]Stage(nil), stages...)}
}

// Stages returns the stages in run order.
func (p *Pipeline) Stages() []Stage {
	return append([]Stage(nil), p.stages...)
}

// Run applies every stage. A panicking stage aborts the run with an error
// wrapping ErrStagePanic.
func (p *Pipeline) Run(text string) (out string, err error) {
	current := ""
	defer func() {
		if r := recover(); r != nil {
			out = ""
			err = fmt.Errorf("%w: %s: %v", ErrStagePanic, current, r)
		}
	}()

	out = text
	for _, s := range p.stages {
		current = s.Name
		out = s.Apply(out)
	}
	return out, nil
}
