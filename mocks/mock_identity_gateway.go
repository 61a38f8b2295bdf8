package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"salesintake/internal/domain"
	"salesintake/internal/port"
)

// MockIdentityGateway is a mock implementation of port.IdentityGateway.
type MockIdentityGateway struct {
	mock.Mock
}

func (m *MockIdentityGateway) Me(ctx context.Context, cred domain.Credential) (*domain.Principal, error) {
	args := m.Called(ctx, cred)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Principal), args.Error(1)
}

func (m *MockIdentityGateway) Login(ctx context.Context, username, password string) (*port.LoginResult, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.LoginResult), args.Error(1)
}

func (m *MockIdentityGateway) Logout(ctx context.Context, cred domain.Credential) (string, error) {
	args := m.Called(ctx, cred)
	return args.String(0), args.Error(1)
}

func (m *MockIdentityGateway) SSOLoginURL() string {
	args := m.Called()
	return args.String(0)
}
