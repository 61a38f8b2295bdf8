package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"salesintake/internal/config"
	"salesintake/internal/domain"
	"salesintake/mocks"
)

var testCred = domain.Credential{Kind: domain.CredentialCookie, Name: "connect.sid", Value: "abc"}

func TestGatewayResolver_Authenticated(t *testing.T) {
	gw := new(mocks.MockIdentityGateway)
	p := &domain.Principal{ID: "1", DisplayName: "Ana", UserType: domain.UserTypeInternal}
	gw.On("Me", mock.Anything, testCred).Return(p, nil)

	st := NewGatewayResolver(gw, zap.NewNop()).Resolve(context.Background(), testCred)

	assert.Equal(t, domain.SessionAuthenticated, st.Status)
	assert.Equal(t, p, st.Principal)
	gw.AssertExpectations(t)
}

func TestGatewayResolver_FailuresAreUnauthenticated(t *testing.T) {
	for _, tc := range []struct {
		err      error
		rejected bool
	}{
		{domain.ErrUnauthenticated, true},
		{domain.ErrBackendUnavailable, false},
		{domain.ErrInvalidPayload, false},
		{errors.New("boom"), false},
	} {
		gw := new(mocks.MockIdentityGateway)
		gw.On("Me", mock.Anything, testCred).Return(nil, tc.err)

		st := NewGatewayResolver(gw, zap.NewNop()).Resolve(context.Background(), testCred)

		assert.Equal(t, domain.SessionUnauthenticated, st.Status, tc.err.Error())
		assert.Equal(t, tc.rejected, st.Rejected, tc.err.Error())
		assert.Nil(t, st.Principal)
	}
}

func TestGatewayResolver_EmptyCredentialSkipsBackend(t *testing.T) {
	gw := new(mocks.MockIdentityGateway)
	st := NewGatewayResolver(gw, zap.NewNop()).Resolve(context.Background(), domain.Credential{})
	assert.Equal(t, domain.SessionUnauthenticated, st.Status)
	gw.AssertNotCalled(t, "Me", mock.Anything, mock.Anything)
}

type blockingResolver struct{}

func (blockingResolver) Resolve(ctx context.Context, _ domain.Credential) domain.SessionState {
	<-ctx.Done()
	time.Sleep(50 * time.Millisecond)
	return domain.Authenticated(&domain.Principal{ID: "late"})
}

func TestWithTimeout_HungCheckIsUnauthenticated(t *testing.T) {
	r := WithTimeout(blockingResolver{}, 20*time.Millisecond)

	start := time.Now()
	st := r.Resolve(context.Background(), testCred)

	assert.Equal(t, domain.SessionUnauthenticated, st.Status)
	assert.False(t, st.Rejected)
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestNewResolver_Modes(t *testing.T) {
	gw := new(mocks.MockIdentityGateway)

	r, err := NewResolver(config.AuthConfig{Mode: config.AuthModeCookie, SessionTimeout: time.Second}, gw, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &timeoutResolver{}, r)

	r, err = NewResolver(config.AuthConfig{Mode: config.AuthModeToken}, gw, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &tokenResolver{}, r)

	_, err = NewResolver(config.AuthConfig{Mode: "saml"}, gw, zap.NewNop())
	assert.Error(t, err)
}
