// Package session partitions conversation state by session key. Each Session
// owns its dialogue tracker, ticket registry and chat history behind its own
// mutex; the store map is guarded separately.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-chat/internal/dialogue"
	"github.com/spec-kit/support-chat/internal/domain"
	"github.com/spec-kit/support-chat/internal/keywords"
	"github.com/spec-kit/support-chat/internal/ticket"
)

// Session is the state bundle of one conversation. Callers hold Lock while
// reading or changing any field.
type Session struct {
	mu sync.Mutex

	ID      string
	Tracker *dialogue.Tracker
	Tickets *ticket.Registry
	// Messages is the transcript shown to the client.
	Messages []domain.ChatMessage

	AwaitingResolution   bool
	CheckingTicketStatus bool
	LastQuery            string
	ResolvedCount        int
	IntroGiven           bool

	createdAt time.Time
	// lastSeen holds unix nanoseconds. It is read by Sweep without the session
	// lock, so a long turn never stalls the store.
	lastSeen atomic.Int64
}

// Lock acquires the session for one request.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session.
func (s *Session) Unlock() { s.mu.Unlock() }

// CreatedAt reports when the session was first seen.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Store maps session keys to sessions.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	tables  *keywords.Tables
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger
	onEvict func(*Session)
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithEvictHook is called for every session removed by Close or Sweep.
func WithEvictHook(fn func(*Session)) Option {
	return func(s *Store) { s.onEvict = fn }
}

// NewStore creates an empty store. Sessions idle for longer than ttl are
// removed by Sweep; a non-positive ttl disables expiry.
func NewStore(tables *keywords.Tables, ttl time.Duration, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		sessions: make(map[string]*Session),
		tables:   tables,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
		onEvict:  func(*Session) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the session for id, creating it on first contact, and marks it
// as recently used.
func (s *Store) Get(id string) *Session {
	now := s.now()

	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		s.mu.Lock()
		if sess, ok = s.sessions[id]; !ok {
			sess = s.newSession(id, now)
			s.sessions[id] = sess
			s.logger.Debug("session created", zap.String("session_id", id))
		}
		s.mu.Unlock()
	}

	sess.lastSeen.Store(now.UnixNano())
	return sess
}

// Peek returns an existing session without creating or touching it.
func (s *Store) Peek(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Close drops a session. It reports whether the session existed.
func (s *Store) Close(id string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		s.onEvict(sess)
		s.logger.Debug("session closed", zap.String("session_id", id))
	}
	return ok
}

// Sweep evicts sessions idle since before now minus the TTL and returns how
// many were removed.
func (s *Store) Sweep(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-s.ttl).UnixNano()

	s.mu.Lock()
	var expired []*Session
	for id, sess := range s.sessions {
		if sess.lastSeen.Load() < cutoff {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		s.onEvict(sess)
	}
	return len(expired)
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// RunJanitor sweeps expired sessions every interval until ctx is done.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("session janitor started", zap.Duration("interval", interval), zap.Duration("ttl", s.ttl))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session janitor stopped")
			return nil
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 {
				s.logger.Info("expired sessions evicted", zap.Int("count", n))
			}
		}
	}
}

// StartJanitor runs RunJanitor in a goroutine. The returned channel is closed
// once the janitor has stopped.
func (s *Store) StartJanitor(ctx context.Context, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.RunJanitor(ctx, interval)
	}()
	return done
}

func (s *Store) newSession(id string, now time.Time) *Session {
	sess := &Session{
		ID:        id,
		Tracker:   dialogue.NewTracker(s.tables, dialogue.WithClock(s.now)),
		Tickets:   ticket.NewRegistry(s.tables.PriorityUrgency, ticket.WithClock(s.now)),
		createdAt: now,
	}
	sess.lastSeen.Store(now.UnixNano())
	return sess
}
