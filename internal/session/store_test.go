package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/spec-kit/support-chat/internal/domain"
	"github.com/spec-kit/support-chat/internal/keywords"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *clock {
	return &clock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func TestGetCreatesOnFirstContact(t *testing.T) {
	s := NewStore(keywords.MustLoad(), time.Hour, nil)

	a := s.Get("a")
	require.NotNil(t, a.Tracker)
	require.NotNil(t, a.Tickets)
	assert.Equal(t, "a", a.ID)
	assert.Same(t, a, s.Get("a"))
	assert.NotSame(t, a, s.Get("b"))
	assert.Equal(t, 2, s.Len())
}

func TestSessionsAreIsolated(t *testing.T) {
	s := NewStore(keywords.MustLoad(), time.Hour, nil)
	a, b := s.Get("a"), s.Get("b")

	a.Lock()
	a.Tracker.Record(domain.RoleUser, "this is urgent")
	a.Tickets.Generate("urgent", true)
	a.Unlock()

	b.Lock()
	defer b.Unlock()
	assert.Equal(t, domain.ToneNeutral, b.Tracker.State().Tone)
	assert.Zero(t, b.Tickets.Len())
}

func TestClose(t *testing.T) {
	var evicted []string
	s := NewStore(keywords.MustLoad(), time.Hour, nil, WithEvictHook(func(sess *Session) {
		evicted = append(evicted, sess.ID)
	}))
	s.Get("a")

	assert.True(t, s.Close("a"))
	assert.False(t, s.Close("a"))
	_, ok := s.Peek("a")
	assert.False(t, ok)
	assert.Equal(t, []string{"a"}, evicted)
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	clk := newClock()
	s := NewStore(keywords.MustLoad(), 30*time.Minute, nil, WithClock(clk.Now))

	s.Get("old")
	clk.Advance(20 * time.Minute)
	s.Get("fresh")
	clk.Advance(15 * time.Minute)

	assert.Equal(t, 1, s.Sweep(clk.Now()))
	_, ok := s.Peek("old")
	assert.False(t, ok)
	_, ok = s.Peek("fresh")
	assert.True(t, ok)
}

func TestSweepDoesNotWaitOnBusySession(t *testing.T) {
	clk := newClock()
	s := NewStore(keywords.MustLoad(), 30*time.Minute, nil, WithClock(clk.Now))

	busy := s.Get("busy")
	busy.Lock()
	defer busy.Unlock()
	clk.Advance(time.Hour)

	done := make(chan int, 1)
	go func() {
		n := s.Sweep(clk.Now())
		s.Get("other")
		done <- n
	}()

	select {
	case n := <-done:
		assert.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("sweep blocked on a locked session")
	}
	_, ok := s.Peek("other")
	assert.True(t, ok)
}

func TestSweepDisabledWithoutTTL(t *testing.T) {
	s := NewStore(keywords.MustLoad(), 0, nil)
	s.Get("a")
	assert.Zero(t, s.Sweep(time.Now().Add(24*time.Hour)))
}

func TestConcurrentAccess(t *testing.T) {
	s := NewStore(keywords.MustLoad(), time.Hour, nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess := s.Get(fmt.Sprintf("s%d", i%5))
			sess.Lock()
			sess.Tracker.Record(domain.RoleUser, "seo question")
			sess.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, s.Len())
	sess, _ := s.Peek("s0")
	assert.Len(t, sess.Tracker.History(), 4)
}

func TestJanitorStopsWithContext(t *testing.T) {
	clk := newClock()
	s := NewStore(keywords.MustLoad(), time.Minute, nil, WithClock(clk.Now))
	s.Get("idle")
	clk.Advance(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := s.StartJanitor(ctx, 5*time.Millisecond)

	require.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
