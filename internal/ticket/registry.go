// Package ticket extracts, mints and records NVS##### support tickets for one
// conversation.
package ticket

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/support-chat/internal/domain"
	"github.com/spec-kit/support-chat/internal/keywords"
)

const (
	// Prefix starts every ticket identifier.
	Prefix = "NVS"
	// ExampleID is the placeholder the model copies from its instructions. It is
	// never minted and never shown to users.
	ExampleID = "NVS12345"
)

var (
	// ErrNotFound is returned by Lookup for unknown identifiers.
	ErrNotFound = errors.New("ticket not found")
	// ErrMalformedReference marks text that starts like a ticket ID but is not NVS#####.
	ErrMalformedReference = errors.New("malformed ticket reference")
)

var (
	idPattern = regexp.MustCompile(`^NVS\d{5}$`)

	// Ordered by how explicitly the reply labels the ticket.
	extractPatterns = []*regexp.Regexp{
		regexp.MustCompile(`Ticket Number:\s*(NVS\d+)`),
		regexp.MustCompile(`Ticket ID:\s*(NVS\d+)`),
		regexp.MustCompile(`(?i)ticket\s+(NVS\d+)`),
		regexp.MustCompile(`(NVS\d+)`),
	}
)

// NewID mints a random NVS##### identifier. It never returns ExampleID.
func NewID() string {
	for {
		id := fmt.Sprintf("%s%d", Prefix, 10000+rand.IntN(90000))
		if id != ExampleID {
			return id
		}
	}
}

// ParseID normalizes a user-supplied reference to upper case and validates it.
func ParseID(ref string) (string, error) {
	id := strings.ToUpper(strings.TrimSpace(ref))
	if !idPattern.MatchString(id) {
		return "", fmt.Errorf("%w: %q", ErrMalformedReference, ref)
	}
	return id, nil
}

// Registry holds the tickets of one conversation keyed by ID.
type Registry struct {
	mu      sync.RWMutex
	tickets map[string]domain.Ticket
	order   []string
	urgency []string
	now     func() time.Time
	mint    func() string
}

// Option customizes a Registry.
type Option func(*Registry)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithMinter overrides ID generation.
func WithMinter(mint func() string) Option {
	return func(r *Registry) { r.mint = mint }
}

// NewRegistry creates an empty registry. Queries containing any urgency word
// produce High priority tickets.
func NewRegistry(urgency []string, opts ...Option) *Registry {
	r := &Registry{
		tickets: make(map[string]domain.Ticket),
		urgency: urgency,
		now:     time.Now,
		mint:    NewID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ExtractAndRegister records the first well-formed ticket ID announced in text.
// Malformed references are skipped. The boolean is true only when a new ticket
// was stored.
func (r *Registry) ExtractAndRegister(text, sourceQuery string) (domain.Ticket, bool) {
	id, ok := findID(text)
	if !ok {
		return domain.Ticket{}, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, found := r.tickets[id]; found {
		return existing, false
	}
	t := domain.Ticket{
		ID:          id,
		SourceQuery: sourceQuery,
		CreatedAt:   r.now(),
		Status:      domain.TicketStatusInProgress,
		Priority:    domain.TicketPriorityNormal,
		Origin:      domain.TicketOriginExtracted,
	}
	r.store(t)
	return t, true
}

// Generate mints and stores a ticket for query. Escalated tickets go straight
// to human support.
func (r *Registry) Generate(query string, escalated bool) domain.Ticket {
	priority := domain.TicketPriorityNormal
	if keywords.ContainsAny(query, r.urgency) {
		priority = domain.TicketPriorityHigh
	}
	status := domain.TicketStatusInProgress
	if escalated {
		status = domain.TicketStatusEscalated
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	t := domain.Ticket{
		ID:          r.mint(),
		SourceQuery: query,
		CreatedAt:   r.now(),
		Status:      status,
		Priority:    priority,
		Origin:      domain.TicketOriginGenerated,
	}
	r.store(t)
	return t
}

// Lookup finds a ticket by ID, ignoring case.
func (r *Registry) Lookup(ref string) (domain.Ticket, error) {
	id, err := ParseID(ref)
	if err != nil {
		return domain.Ticket{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tickets[id]
	if !ok {
		return domain.Ticket{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t, nil
}

// All returns tickets in creation order.
func (r *Registry) All() []domain.Ticket {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Ticket, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.tickets[id])
	}
	return out
}

// Len reports how many tickets are stored.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tickets)
}

// store must be called with mu held. A colliding generated ID replaces the
// earlier record but keeps its position.
func (r *Registry) store(t domain.Ticket) {
	if _, exists := r.tickets[t.ID]; !exists {
		r.order = append(r.order, t.ID)
	}
	r.tickets[t.ID] = t
}

func findID(text string) (string, bool) {
	for _, p := range extractPatterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			if idPattern.MatchString(m[1]) {
				return m[1], true
			}
		}
	}
	return "", false
}
