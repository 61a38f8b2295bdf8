package session

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"salesintake/internal/domain"
)

type stubResolver struct {
	state domain.SessionState
}

func (s stubResolver) Resolve(context.Context, domain.Credential) domain.SessionState {
	return s.state
}

func TestStore_StartsUnknown(t *testing.T) {
	assert.Equal(t, domain.SessionUnknown, NewStore().Current().Status)
}

func TestStore_Refresh(t *testing.T) {
	s := NewStore()
	p := &domain.Principal{ID: "1"}

	st := s.Refresh(context.Background(), stubResolver{domain.Authenticated(p)}, testCred)

	assert.Equal(t, domain.SessionAuthenticated, st.Status)
	assert.Equal(t, p, s.Current().Principal)
}

func TestStore_StaleResultDiscarded(t *testing.T) {
	s := NewStore()
	older := s.Begin()
	newer := s.Begin()

	assert.True(t, s.Apply(newer, domain.Unauthenticated()))
	assert.False(t, s.Apply(older, domain.Authenticated(&domain.Principal{ID: "ghost"})))
	assert.Equal(t, domain.SessionUnauthenticated, s.Current().Status)
}

func TestStore_LogoutBeatsInFlightResolution(t *testing.T) {
	s := NewStore()
	inFlight := s.Begin()

	require.NoError(t, s.Logout(context.Background(), nil))
	applied := s.Apply(inFlight, domain.Authenticated(&domain.Principal{ID: "1"}))

	assert.False(t, applied)
	assert.Equal(t, domain.SessionUnauthenticated, s.Current().Status)
}

func TestStore_LogoutClearsBeforeCallingBackend(t *testing.T) {
	s := NewStore()
	s.Apply(s.Begin(), domain.Authenticated(&domain.Principal{ID: "1"}))

	var seen []domain.SessionStatus
	s.Subscribe(func(st domain.SessionState) { seen = append(seen, st.Status) })

	err := s.Logout(context.Background(), func(context.Context) error {
		assert.True(t, s.Current().Rejected)
		return errors.New("backend down")
	})

	assert.EqualError(t, err, "backend down")
	assert.Equal(t, []domain.SessionStatus{domain.SessionUnauthenticated}, seen)
	assert.Nil(t, s.Current().Principal)
}

func TestStore_SubscribeAndCancel(t *testing.T) {
	s := NewStore()
	var seen []domain.SessionStatus
	cancel := s.Subscribe(func(st domain.SessionState) { seen = append(seen, st.Status) })

	s.Refresh(context.Background(), stubResolver{domain.Authenticated(&domain.Principal{ID: "1"})}, testCred)
	cancel()
	s.Refresh(context.Background(), stubResolver{domain.Unauthenticated()}, testCred)

	assert.Equal(t, []domain.SessionStatus{domain.SessionUnknown, domain.SessionAuthenticated}, seen)
}

func TestStore_ConcurrentRefreshSettles(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Refresh(context.Background(), stubResolver{domain.Authenticated(&domain.Principal{ID: "1"})}, testCred)
		}()
	}
	wg.Wait()
	assert.Equal(t, domain.SessionAuthenticated, s.Current().Status)
}

func TestStore_LogoutDuringSlowDeliveryEndsSignedOut(t *testing.T) {
	s := NewStore()
	c := NewFileCache(filepath.Join(t.TempDir(), "session.json"), zap.NewNop())
	defer c.Track(s, testCred)()

	entered := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	var seen []domain.SessionStatus
	s.Subscribe(func(st domain.SessionState) {
		if st.Status == domain.SessionAuthenticated {
			close(entered)
			<-release
		}
		mu.Lock()
		seen = append(seen, st.Status)
		mu.Unlock()
	})

	ticket := s.Begin()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.Apply(ticket, domain.Authenticated(&domain.Principal{ID: "1"}))
	}()
	<-entered
	go func() {
		defer wg.Done()
		_ = s.Logout(context.Background(), nil)
	}()
	assert.Eventually(t, func() bool {
		return s.Current().Status == domain.SessionUnauthenticated
	}, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	assert.Equal(t, domain.SessionUnauthenticated, seen[len(seen)-1])
	assert.Equal(t, domain.SessionUnauthenticated, s.Current().Status)
	_, err := c.Load()
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_OvertakenDeliveryDropped(t *testing.T) {
	s := NewStore()
	var seen []domain.SessionStatus
	s.Subscribe(func(st domain.SessionState) { seen = append(seen, st.Status) })

	s.mu.Lock()
	stale, subs := s.setLocked(domain.Authenticated(&domain.Principal{ID: "1"}))
	s.mu.Unlock()
	require.NoError(t, s.Logout(context.Background(), nil))
	s.deliver(stale, subs, domain.Authenticated(&domain.Principal{ID: "1"}))

	assert.Equal(t, []domain.SessionStatus{domain.SessionUnauthenticated}, seen)
}
