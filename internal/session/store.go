package session

import (
	"context"
	"sync"

	"salesintake/internal/domain"
)

// Ticket identifies one resolution generation.
type Ticket uint64

// Store is the single owner of the current session state. Results of
// resolutions started before a newer Begin or a Logout are discarded, so a
// slow check can never resurrect a session that was ended in the meantime.
//
// Subscribers receive one delivery at a time in state order. A delivery
// overtaken by a newer state is dropped. Subscribers must not call back
// into the store.
type Store struct {
	mu          sync.Mutex
	state       domain.SessionState
	generation  Ticket
	version     uint64
	nextSubID   int
	subscribers map[int]func(domain.SessionState)

	deliverMu sync.Mutex
	delivered uint64
}

// NewStore returns a store in the unknown state.
func NewStore() *Store {
	return &Store{
		state:       domain.Unknown(),
		subscribers: make(map[int]func(domain.SessionState)),
	}
}

// Current returns a snapshot of the state.
func (s *Store) Current() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Begin starts a new resolution generation and moves the state to unknown.
func (s *Store) Begin() Ticket {
	s.mu.Lock()
	s.generation++
	t := s.generation
	v, subs := s.setLocked(domain.Unknown())
	s.mu.Unlock()

	s.deliver(v, subs, domain.Unknown())
	return t
}

// Apply installs st if t is still the latest generation. It reports whether
// the state was applied.
func (s *Store) Apply(t Ticket, st domain.SessionState) bool {
	s.mu.Lock()
	if t != s.generation {
		s.mu.Unlock()
		return false
	}
	v, subs := s.setLocked(st)
	s.mu.Unlock()

	s.deliver(v, subs, st)
	return true
}

// Refresh resolves cred and applies the result under a fresh ticket.
func (s *Store) Refresh(ctx context.Context, r Resolver, cred domain.Credential) domain.SessionState {
	t := s.Begin()
	st := r.Resolve(ctx, cred)
	if !s.Apply(t, st) {
		return s.Current()
	}
	return st
}

// Logout clears the principal and invalidates in-flight resolutions before
// fn runs, so observers see the signed-out state even if fn is slow or fails.
func (s *Store) Logout(ctx context.Context, fn func(ctx context.Context) error) error {
	signedOut := domain.Rejected()
	s.mu.Lock()
	s.generation++
	v, subs := s.setLocked(signedOut)
	s.mu.Unlock()

	s.deliver(v, subs, signedOut)
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// Subscribe registers fn for state changes and returns its cancel function.
// fn is called outside the store's lock.
func (s *Store) Subscribe(fn func(domain.SessionState)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// setLocked installs st and returns its version with the subscribers to
// notify. s.mu must be held.
func (s *Store) setLocked(st domain.SessionState) (uint64, []func(domain.SessionState)) {
	s.version++
	s.state = st
	return s.version, s.snapshotSubscribers()
}

// deliver notifies subs of the state at version v unless a newer state has
// already been delivered.
func (s *Store) deliver(v uint64, subs []func(domain.SessionState), st domain.SessionState) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	if v <= s.delivered {
		return
	}
	s.delivered = v
	notify(subs, st)
}

func (s *Store) snapshotSubscribers() []func(domain.SessionState) {
	out := make([]func(domain.SessionState), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		out = append(out, fn)
	}
	return out
}

func notify(subs []func(domain.SessionState), st domain.SessionState) {
	for _, fn := range subs {
		fn(st)
	}
}
