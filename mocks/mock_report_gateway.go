package mocks

import (
	"context"
	"net/http"

	"github.com/stretchr/testify/mock"

	"salesintake/internal/domain"
	"salesintake/internal/port"
)

// MockReportGateway is a mock implementation of port.ReportGateway.
type MockReportGateway struct {
	mock.Mock
}

func (m *MockReportGateway) ListReports(ctx context.Context, cred domain.Credential) ([]domain.ReportSummary, error) {
	args := m.Called(ctx, cred)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReportSummary), args.Error(1)
}

func (m *MockReportGateway) Forward(ctx context.Context, cred domain.Credential, req port.ForwardRequest) (*http.Response, error) {
	args := m.Called(ctx, cred, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*http.Response), args.Error(1)
}
