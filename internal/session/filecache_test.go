package session

import (
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"salesintake/internal/config"
	"salesintake/internal/domain"
	"salesintake/mocks"
)

func TestFileCache_RoundTripAndClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	c := NewFileCache(path, zap.NewNop())

	_, err := c.Load()
	assert.ErrorIs(t, err, domain.ErrNotFound)

	cs := &CachedSession{
		Credential: domain.Credential{Kind: domain.CredentialBearer, Value: "tok"},
		Principal:  &domain.Principal{ID: "7", DisplayName: "Acme", UserType: domain.UserTypeBusinessPartner},
	}
	require.NoError(t, c.Save(cs))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := c.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok", got.Credential.Value)
	assert.Equal(t, "Acme", got.Principal.DisplayName)

	require.NoError(t, c.Clear())
	require.NoError(t, c.Clear())
	_, err = c.Load()
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFileCache_TrackClearsOnRejected(t *testing.T) {
	c := NewFileCache(filepath.Join(t.TempDir(), "session.json"), zap.NewNop())
	s := NewStore()
	cred := domain.Credential{Kind: domain.CredentialBearer, Value: "tok"}
	defer c.Track(s, cred)()

	s.Apply(s.Begin(), domain.Authenticated(&domain.Principal{ID: "1"}))
	got, err := c.Load()
	require.NoError(t, err)
	assert.Equal(t, "1", got.Principal.ID)

	s.Apply(s.Begin(), domain.Rejected())
	_, err = c.Load()
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFileCache_TrackKeepsCredentialWhenBackendUnreachable(t *testing.T) {
	c := NewFileCache(filepath.Join(t.TempDir(), "session.json"), zap.NewNop())
	s := NewStore()
	defer c.Track(s, testCred)()
	s.Apply(s.Begin(), domain.Authenticated(&domain.Principal{ID: "1"}))

	for _, err := range []error{domain.ErrBackendUnavailable, context.DeadlineExceeded} {
		gw := new(mocks.MockIdentityGateway)
		gw.On("Me", mock.Anything, testCred).Return(nil, err)

		st := s.Refresh(context.Background(), NewGatewayResolver(gw, zap.NewNop()), testCred)

		assert.Equal(t, domain.SessionUnauthenticated, st.Status)
		got, loadErr := c.Load()
		require.NoError(t, loadErr, err.Error())
		assert.Equal(t, testCred.Value, got.Credential.Value)
	}

	gw := new(mocks.MockIdentityGateway)
	gw.On("Me", mock.Anything, testCred).Return(nil, fmt.Errorf("backend.Me: %w", domain.ErrUnauthenticated))
	s.Refresh(context.Background(), NewGatewayResolver(gw, zap.NewNop()), testCred)

	_, err := c.Load()
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFileCache_TrackKeepsCredentialOnTimeout(t *testing.T) {
	c := NewFileCache(filepath.Join(t.TempDir(), "session.json"), zap.NewNop())
	s := NewStore()
	defer c.Track(s, testCred)()
	s.Apply(s.Begin(), domain.Authenticated(&domain.Principal{ID: "1"}))

	st := s.Refresh(context.Background(), WithTimeout(blockingResolver{}, 10*time.Millisecond), testCred)

	assert.Equal(t, domain.SessionUnauthenticated, st.Status)
	_, err := c.Load()
	assert.NoError(t, err)
}

func TestFileCache_TrackLogsWriteFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	c := NewFileCache(filepath.Join(blocker, "session.json"), zap.New(core))
	s := NewStore()
	defer c.Track(s, testCred)()

	s.Apply(s.Begin(), domain.Authenticated(&domain.Principal{ID: "1"}))

	entries := logs.FilterMessage("session.Track: failed to save cached session").All()
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Join(blocker, "session.json"), entries[0].ContextMap()["path"])
}

func TestCredentialFromRequest(t *testing.T) {
	cookieCfg := config.AuthConfig{Mode: config.AuthModeCookie, SessionCookie: "connect.sid"}

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Cookie", "connect.sid=s-1")
	cred := CredentialFromRequest(r, cookieCfg)
	assert.Equal(t, domain.CredentialCookie, cred.Kind)
	assert.Equal(t, "s-1", cred.Value)

	r = httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer tok")
	cred = CredentialFromRequest(r, cookieCfg)
	assert.Equal(t, domain.CredentialBearer, cred.Kind)

	r = httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Cookie", "connect.sid=s-1")
	cred = CredentialFromRequest(r, config.AuthConfig{Mode: config.AuthModeToken})
	assert.True(t, cred.Empty())
}
