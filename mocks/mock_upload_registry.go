package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"salesintake/internal/domain"
	"salesintake/internal/port"
)

// MockUploadRegistry is a mock implementation of port.UploadRegistry.
type MockUploadRegistry struct {
	mock.Mock
}

func (m *MockUploadRegistry) RegisterUpload(ctx context.Context, cred domain.Credential, input domain.RegisterUploadInput) error {
	args := m.Called(ctx, cred, input)
	return args.Error(0)
}

func (m *MockUploadRegistry) RecentUploads(ctx context.Context, cred domain.Credential) ([]domain.RecentUpload, error) {
	args := m.Called(ctx, cred)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RecentUpload), args.Error(1)
}

func (m *MockUploadRegistry) DownloadUpload(ctx context.Context, cred domain.Credential, key string) (*port.Download, error) {
	args := m.Called(ctx, cred, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.Download), args.Error(1)
}
