package generation

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type sessionEntry struct {
	orchestrator *Orchestrator
	lastUsed     time.Time
}

// Sessions keeps one Orchestrator per browser session in memory. Nothing is
// persisted; an idle session is simply dropped.
type Sessions struct {
	gen    Generator
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*sessionEntry
}

// NewSessions creates an empty registry whose sessions expire after ttl of
// inactivity.
func NewSessions(gen Generator, ttl time.Duration, logger *slog.Logger) *Sessions {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sessions{
		gen:     gen,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]*sessionEntry),
	}
}

// Get returns the orchestrator for id, creating it on first use.
func (s *Sessions) Get(id string) *Orchestrator {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		e = &sessionEntry{orchestrator: NewOrchestrator(s.gen, s.logger.With("session_id", id))}
		s.entries[id] = e
	}
	e.lastUsed = s.now()
	return e.orchestrator
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep drops sessions idle for longer than the ttl, skipping any with a
// generation in flight or an open subscription. It returns how many it removed.
func (s *Sessions) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.entries {
		if now.Sub(e.lastUsed) < s.ttl || e.orchestrator.Busy() {
			continue
		}
		e.orchestrator.Close()
		delete(s.entries, id)
		removed++
	}
	if removed > 0 {
		s.logger.Debug("expired idle sessions", "removed", removed, "remaining", len(s.entries))
	}
	return removed
}

// Run sweeps on every interval tick until ctx is done.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			s.Sweep(t)
		}
	}
}
